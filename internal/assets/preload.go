// internal/assets/preload.go
package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	apperrors "ecomlisting-ai/internal/common/errors"
	"ecomlisting-ai/internal/common/logger"
	"ecomlisting-ai/internal/store"
)

// PreloadFromStore downloads the fonts and logo folders from the blob store
// into destDir so the Loader can work off local paths. It returns the local
// fonts and logo directories. Fonts are required; a missing logo folder is
// tolerated.
func PreloadFromStore(ctx context.Context, st store.Store, rootPrefix, fontsFolder, logoFolder, destDir string, log logger.Logger) (string, string, error) {
	fontsDir := filepath.Join(destDir, "fonts")
	logoDir := filepath.Join(destDir, "logo")

	fontsID, err := st.FindOrCreateFolder(ctx, fontsFolder, rootPrefix)
	if err != nil {
		return "", "", err
	}
	n, err := downloadFolder(ctx, st, fontsID, fontsDir)
	if err != nil {
		return "", "", err
	}
	if n == 0 {
		return "", "", apperrors.NewAssetMissingError(
			fmt.Sprintf("store folder %s holds no font files", fontsID))
	}

	logoID, err := st.FindOrCreateFolder(ctx, logoFolder, rootPrefix)
	if err == nil {
		if _, err := downloadFolder(ctx, st, logoID, logoDir); err != nil {
			log.Warn("logo preload failed, rendering without it", map[string]interface{}{
				"folder": logoID,
				"error":  err.Error(),
			})
			logoDir = ""
		}
	} else {
		log.Warn("logo folder unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		logoDir = ""
	}

	return fontsDir, logoDir, nil
}

func downloadFolder(ctx context.Context, st store.Store, folderID, destDir string) (int, error) {
	files, err := st.List(ctx, folderID, "")
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, err
	}

	for _, f := range files {
		data, err := st.Get(ctx, f.ID)
		if err != nil {
			return 0, err
		}
		if err := os.WriteFile(filepath.Join(destDir, f.Name), data, 0o644); err != nil {
			return 0, err
		}
	}

	return len(files), nil
}
