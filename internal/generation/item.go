// Package generation drives the per-item content pipeline: transcript,
// slides, frames, narrated video, persistence.
package generation

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "ecomlisting-ai/internal/common/errors"
)

// ImageSource is one product image input. Exactly one field is set: a URL
// to download, a local file path, or inline bytes.
type ImageSource struct {
	URL  string
	Path string
	Data []byte
}

// Ref returns a stable reference string for fingerprinting and logs.
func (s ImageSource) Ref() string {
	switch {
	case s.URL != "":
		return s.URL
	case s.Path != "":
		return s.Path
	default:
		return fmt.Sprintf("inline:%d", len(s.Data))
	}
}

// Item is one generation request.
type Item struct {
	ListingID   string
	ProductID   string
	Title       string
	Description string
	Images      []ImageSource
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Slugify lowercases s and collapses every run of non-alphanumeric
// characters into a single underscore, trimming leading and trailing ones.
func Slugify(s string) string {
	slug := nonAlphanumeric.ReplaceAllString(s, "_")
	slug = strings.Trim(slug, "_")
	return strings.ToLower(slug)
}

// Key derives the item's stable identity: "listingID_productID" when both
// IDs are present and distinct, otherwise the slugified title.
func (it Item) Key() string {
	if it.ListingID != "" && it.ProductID != "" && it.ListingID != it.ProductID {
		return it.ListingID + "_" + it.ProductID
	}
	return Slugify(it.Title)
}

// Validate checks the invariants every run needs before any collaborator is
// called.
func (it Item) Validate() error {
	if strings.TrimSpace(it.Title) == "" {
		return apperrors.NewInputInvalidError("title is empty")
	}
	if strings.TrimSpace(it.Description) == "" {
		return apperrors.NewInputInvalidError("description is empty")
	}
	if len(it.Images) == 0 {
		return apperrors.NewInputInvalidError("no image sources")
	}
	if it.Key() == "" {
		return apperrors.NewInputInvalidError(
			fmt.Sprintf("title %q yields an empty key", it.Title))
	}
	return nil
}

// ImageRefs returns the references of all image sources in order.
func (it Item) ImageRefs() []string {
	refs := make([]string, len(it.Images))
	for i, src := range it.Images {
		refs[i] = src.Ref()
	}
	return refs
}
