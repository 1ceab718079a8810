// Package images fetches product images over HTTP with a per-URL timeout.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	commonhttp "ecomlisting-ai/internal/common/http"
	"ecomlisting-ai/internal/common/logger"
)

// Downloader fetches image payloads. Individual failures are tolerated and
// logged; callers decide whether zero successes is fatal.
type Downloader struct {
	client  *commonhttp.Client
	timeout time.Duration
	logger  logger.Logger
}

func NewDownloader(timeout time.Duration, log logger.Logger) *Downloader {
	return &Downloader{
		client:  commonhttp.NewClient(timeout),
		timeout: timeout,
		logger: log.WithFields(map[string]interface{}{
			"component": "images",
		}),
	}
}

// Download fetches every URL, preserving order among the successes.
func (d *Downloader) Download(ctx context.Context, urls []string) [][]byte {
	var payloads [][]byte
	for _, url := range urls {
		data, err := d.fetch(ctx, url)
		if err != nil {
			d.logger.Warn("image download failed, skipping", map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			})
			continue
		}
		payloads = append(payloads, data)
	}
	return payloads
}

func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
