package generation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Paths(t *testing.T) {
	c := Cache{OutputBaseDir: "/out"}

	dir, video, blog, title := c.Paths("123_456")

	assert.Equal(t, filepath.Join("/out", "123_456"), dir)
	assert.Equal(t, filepath.Join(dir, "123_456.mp4"), video)
	assert.Equal(t, filepath.Join(dir, "123_456_blog.txt"), blog)
	assert.Equal(t, filepath.Join(dir, "123_456_title.txt"), title)
}

func TestCache_Lookup(t *testing.T) {
	base := t.TempDir()
	c := Cache{OutputBaseDir: base}
	key := "wireless_mouse"

	dir, video, blog, title := c.Paths(key)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	// Partial artifact sets are misses.
	_, hit := c.Lookup(key)
	assert.False(t, hit)

	require.NoError(t, os.WriteFile(video, []byte("v"), 0o644))
	require.NoError(t, os.WriteFile(blog, []byte("b"), 0o644))
	_, hit = c.Lookup(key)
	assert.False(t, hit, "missing title file must be a miss")

	require.NoError(t, os.WriteFile(title, []byte("t"), 0o644))
	res, hit := c.Lookup(key)
	require.True(t, hit)
	assert.True(t, res.CacheHit)
	assert.Equal(t, key, res.Key)
	assert.Equal(t, video, res.VideoPath)
	assert.Equal(t, blog, res.BlogPath)
	assert.Equal(t, title, res.TitlePath)
}
