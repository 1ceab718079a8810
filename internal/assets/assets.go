// Package assets resolves the rendering assets: the regular and bold
// typefaces (shipped as TTFs, possibly inside a ZIP) and the optional logo.
package assets

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	apperrors "ecomlisting-ai/internal/common/errors"
	"ecomlisting-ai/internal/common/logger"
)

const (
	LogoWidth  = 150
	LogoHeight = 80
)

// Bundle holds the parsed assets for one generation run.
type Bundle struct {
	Regular font.Face
	Bold    font.Face
	Logo    image.Image // nil when no logo is available
}

// Loader resolves assets from local locations. FontsLocation may be a
// directory of TTFs, a directory containing ZIPs of TTFs, or a ZIP path.
type Loader struct {
	FontsLocation string
	LogoLocation  string
	RegularName   string
	BoldName      string
	RegularSize   float64
	BoldSize      float64
	Logger        logger.Logger
}

// Load parses the two required faces and the optional logo. A missing or
// corrupt font is fatal (ASSET_MISSING); a missing logo leaves Bundle.Logo
// nil.
func (l *Loader) Load() (*Bundle, error) {
	fonts, err := collectFonts(l.FontsLocation)
	if err != nil {
		return nil, apperrors.NewAssetMissingError(fmt.Sprintf("fonts: %s", err))
	}

	regular, err := parseFace(fonts, l.RegularName, l.RegularSize)
	if err != nil {
		return nil, err
	}
	bold, err := parseFace(fonts, l.BoldName, l.BoldSize)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{Regular: regular, Bold: bold}

	logo, err := loadLogo(l.LogoLocation)
	if err != nil {
		l.Logger.Warn("logo unavailable, rendering without it", map[string]interface{}{
			"location": l.LogoLocation,
			"error":    err.Error(),
		})
	} else {
		bundle.Logo = logo
	}

	return bundle, nil
}

// collectFonts gathers TTF payloads by base name.
func collectFonts(location string) (map[string][]byte, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, err
	}

	fonts := map[string][]byte{}

	if !info.IsDir() {
		if strings.EqualFold(filepath.Ext(location), ".zip") {
			return fontsFromZip(location, fonts)
		}
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, err
		}
		fonts[filepath.Base(location)] = data
		return fonts, nil
	}

	entries, err := os.ReadDir(location)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(location, entry.Name())
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".ttf":
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			fonts[entry.Name()] = data
		case ".zip":
			if _, err := fontsFromZip(path, fonts); err != nil {
				return nil, err
			}
		}
	}

	if len(fonts) == 0 {
		return nil, fmt.Errorf("no TTF files under %s", location)
	}
	return fonts, nil
}

func fontsFromZip(path string, fonts map[string][]byte) (map[string][]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !strings.EqualFold(filepath.Ext(f.Name), ".ttf") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		fonts[filepath.Base(f.Name)] = data
	}

	if len(fonts) == 0 {
		return nil, fmt.Errorf("no TTF entries in %s", path)
	}
	return fonts, nil
}

func parseFace(fonts map[string][]byte, name string, size float64) (font.Face, error) {
	data, ok := fonts[name]
	if !ok {
		return nil, apperrors.NewAssetMissingError(fmt.Sprintf("font %s not found", name))
	}

	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, apperrors.NewAssetMissingError(fmt.Sprintf("font %s: %s", name, err))
	}

	return truetype.NewFace(parsed, &truetype.Options{Size: size}), nil
}

// loadLogo returns the first decodable image under location, resized to the
// logo box.
func loadLogo(location string) (image.Image, error) {
	if location == "" {
		return nil, fmt.Errorf("no logo location configured")
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, err
	}

	candidates := []string{location}
	if info.IsDir() {
		entries, err := os.ReadDir(location)
		if err != nil {
			return nil, err
		}
		candidates = candidates[:0]
		for _, entry := range entries {
			if !entry.IsDir() {
				candidates = append(candidates, filepath.Join(location, entry.Name()))
			}
		}
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			continue
		}
		return imaging.Resize(img, LogoWidth, LogoHeight, imaging.Lanczos), nil
	}

	return nil, fmt.Errorf("no decodable logo under %s", location)
}
