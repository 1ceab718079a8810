package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "ecomlisting-ai/internal/common/errors"
)

// imagesSchema validates the side-channel image manifest. Listing and
// product IDs are numbers there (they come straight out of the catalog
// export), and every entry carries at least one image URL.
const imagesSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["listingId", "productId", "images"],
    "properties": {
      "listingId": {"type": "number"},
      "productId": {"type": "number"},
      "images": {
        "type": "array",
        "minItems": 1,
        "items": {
          "type": "object",
          "required": ["imageURL"],
          "properties": {
            "imageURL": {"type": "string"}
          }
        }
      }
    }
  }
}`

type manifestImage struct {
	ImageURL string `json:"imageURL"`
}

type manifestEntry struct {
	ListingID json.Number     `json:"listingId"`
	ProductID json.Number     `json:"productId"`
	Images    []manifestImage `json:"images"`
}

// ParseImagesJSON validates and parses the image manifest, returning image
// URLs keyed by "<listingId>_<productId>". Manifest URLs take precedence
// over whatever the CSV row carries.
func ParseImagesJSON(data []byte) (map[string][]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(imagesSchema),
		gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, apperrors.NewInputInvalidError(fmt.Sprintf("parse images JSON: %s", err))
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, apperrors.NewInputInvalidError(
			fmt.Sprintf("images JSON failed validation: %s", strings.Join(problems, "; ")))
	}

	var entries []manifestEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&entries); err != nil {
		return nil, apperrors.NewInputInvalidError(fmt.Sprintf("decode images JSON: %s", err))
	}

	byKey := make(map[string][]string, len(entries))
	for _, entry := range entries {
		key := entry.ListingID.String() + "_" + entry.ProductID.String()
		var urls []string
		for _, img := range entry.Images {
			url := strings.TrimSpace(img.ImageURL)
			if url != "" {
				urls = append(urls, url)
			}
		}
		byKey[key] = urls
	}
	return byKey, nil
}
