package batch

import (
	"context"
	"fmt"

	apperrors "ecomlisting-ai/internal/common/errors"
	"ecomlisting-ai/internal/common/logger"
	"ecomlisting-ai/internal/common/metrics"
	"ecomlisting-ai/internal/generation"
)

// Generator runs a single item through the pipeline.
type Generator interface {
	Generate(ctx context.Context, item generation.Item) (*generation.Result, error)
}

// Summary is the outcome of a batch run.
type Summary struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	Aborted   bool
	Results   []*generation.Result
}

// Driver walks catalog rows in order. Rows with missing data are skipped and
// never counted as failures; real failures trip a consecutive-failure breaker
// that aborts the whole batch.
type Driver struct {
	gen                    Generator
	maxConsecutiveFailures int
	logger                 logger.Logger
}

func NewDriver(gen Generator, maxConsecutiveFailures int, log logger.Logger) *Driver {
	if maxConsecutiveFailures <= 0 {
		maxConsecutiveFailures = 3
	}
	return &Driver{
		gen:                    gen,
		maxConsecutiveFailures: maxConsecutiveFailures,
		logger:                 log,
	}
}

// Run processes rows sequentially. sideImages maps "<listingId>_<productId>"
// to manifest URLs and overrides the row's own image column when present.
func (d *Driver) Run(ctx context.Context, rows []Row, sideImages map[string][]string) (*Summary, error) {
	summary := &Summary{Total: len(rows)}
	seen := map[string]int{}
	consecutive := 0

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		log := d.logger.WithFields(map[string]interface{}{
			"line":      row.Line,
			"listingId": row.ListingID,
			"productId": row.ProductID,
		})

		urls := row.ImageURLs
		if row.ListingID != "" && row.ProductID != "" {
			if override, ok := sideImages[row.ListingID+"_"+row.ProductID]; ok {
				urls = override
			}
		}

		if reason := skipReason(row, urls); reason != "" {
			summary.Skipped++
			metrics.BatchRowsSkipped.Inc()
			log.Warn("skipping row", map[string]interface{}{"reason": reason})
			continue
		}

		item := generation.Item{
			ListingID:   row.ListingID,
			ProductID:   row.ProductID,
			Title:       row.Title,
			Description: row.Description,
		}
		for _, url := range urls {
			item.Images = append(item.Images, generation.ImageSource{URL: url})
		}

		key := item.Key()
		if prev, dup := seen[key]; dup {
			log.Warn("duplicate derived key, artifacts will be overwritten", map[string]interface{}{
				"key":          key,
				"previousLine": prev,
			})
		}
		seen[key] = row.Line

		res, err := d.gen.Generate(ctx, item)
		if err != nil {
			summary.Failed++
			consecutive++
			log.Error("row failed", map[string]interface{}{
				"key":                 key,
				"category":            apperrors.GetErrorCategory(apperrors.CodeOf(err)),
				"error":               err.Error(),
				"consecutiveFailures": consecutive,
			})
			if consecutive >= d.maxConsecutiveFailures {
				summary.Aborted = true
				return summary, fmt.Errorf("aborting batch after %d consecutive failures: %w",
					consecutive, err)
			}
			continue
		}

		summary.Succeeded++
		consecutive = 0
		summary.Results = append(summary.Results, res)
	}

	return summary, nil
}

func skipReason(row Row, urls []string) string {
	switch {
	case row.Title == "":
		return "missing title"
	case row.Description == "":
		return "missing description"
	case len(urls) == 0:
		return "no usable image URLs"
	}
	return ""
}
