// Package batch runs CSV-driven generation: one row per item, side-channel
// image JSON, skip semantics for incomplete rows, and a consecutive-failure
// breaker.
package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	apperrors "ecomlisting-ai/internal/common/errors"
)

// Row is one parsed catalog row.
type Row struct {
	ListingID   string
	ProductID   string
	Title       string
	Description string
	ImageURLs   []string
	Line        int
}

var requiredHeaders = []string{"Listing Id", "Product Id", "Title", "Description"}

var (
	urlSeparators = regexp.MustCompile(`[,\n;]+`)
	imageURLShape = regexp.MustCompile(`(?i)\.(png|jpe?g)(\?|$)`)
)

// ParseCSV reads the catalog. Headers are trimmed and the four identity
// columns are required by exact name; the image column is any header whose
// lowercase form contains both "image" and "url".
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewInputInvalidError(fmt.Sprintf("read CSV header: %s", err))
	}

	index := map[string]int{}
	imageCol := -1
	for i, h := range header {
		name := strings.TrimSpace(h)
		index[name] = i
		lower := strings.ToLower(name)
		if imageCol == -1 && strings.Contains(lower, "image") && strings.Contains(lower, "url") {
			imageCol = i
		}
	}

	for _, required := range requiredHeaders {
		if _, ok := index[required]; !ok {
			return nil, apperrors.NewInputInvalidError(
				fmt.Sprintf("CSV is missing required column %q", required))
		}
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewInputInvalidError(fmt.Sprintf("read CSV line %d: %s", line, err))
		}

		field := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := Row{
			ListingID:   field("Listing Id"),
			ProductID:   field("Product Id"),
			Title:       field("Title"),
			Description: field("Description"),
			Line:        line,
		}
		if imageCol >= 0 && imageCol < len(record) {
			row.ImageURLs = SplitImageURLs(record[imageCol])
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// SplitImageURLs splits raw on commas, semicolons and newlines and keeps
// only URLs that look like png/jpg/jpeg resources.
func SplitImageURLs(raw string) []string {
	var urls []string
	for _, part := range urlSeparators.Split(raw, -1) {
		url := strings.TrimSpace(part)
		if url == "" {
			continue
		}
		if imageURLShape.MatchString(url) {
			urls = append(urls, url)
		}
	}
	return urls
}
