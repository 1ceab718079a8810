// internal/generation/cache.go
package generation

import (
	"os"
	"path/filepath"
)

// Cache decides whether an item's three artifacts already exist on disk.
// It is a pure existence check over the deterministic output paths; nothing
// invalidates on content.
type Cache struct {
	OutputBaseDir string
}

// Paths returns the deterministic artifact locations for key.
func (c Cache) Paths(key string) (dir, video, blog, title string) {
	dir = filepath.Join(c.OutputBaseDir, key)
	video = filepath.Join(dir, key+".mp4")
	blog = filepath.Join(dir, key+"_blog.txt")
	title = filepath.Join(dir, key+"_title.txt")
	return
}

// Lookup reports a hit only when all three artifacts exist. A hit carries
// the same Result shape a fresh run produces.
func (c Cache) Lookup(key string) (*Result, bool) {
	dir, video, blog, title := c.Paths(key)
	for _, path := range []string{video, blog, title} {
		if _, err := os.Stat(path); err != nil {
			return nil, false
		}
	}
	return &Result{
		Key:       key,
		OutputDir: dir,
		VideoPath: video,
		BlogPath:  blog,
		TitlePath: title,
		CacheHit:  true,
	}, true
}
