// Package frames composes slideshow frames from a product image, the item
// title and the slide caption lines.
package frames

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	apperrors "ecomlisting-ai/internal/common/errors"
)

const (
	logoX = 20
	logoY = 20

	titleX = 50
	titleY = 200

	captionX    = 50
	lineSpacing = 10

	imageMargin = 50
)

// Composer renders frames onto a fixed-size white canvas. The product image
// is thumbnailed into the right half, the logo (when present) sits top-left,
// and the title plus caption lines fill the left column.
type Composer struct {
	width   int
	height  int
	regular font.Face
	bold    font.Face
	logo    image.Image
}

// NewComposer builds a Composer. logo may be nil; frames then render without
// a logo layer.
func NewComposer(width, height int, regular, bold font.Face, logo image.Image) *Composer {
	return &Composer{
		width:   width,
		height:  height,
		regular: regular,
		bold:    bold,
		logo:    logo,
	}
}

// Decode parses raw image bytes. Failures carry the IMAGE_UNREADABLE code
// and are fatal for the item.
func Decode(source string, data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewImageUnreadableError(source, err)
	}
	return img, nil
}

// Render composes a single frame. Output is always exactly width x height;
// rendering is deterministic for identical inputs.
func (c *Composer) Render(product image.Image, title string, lines []string) image.Image {
	dc := gg.NewContext(c.width, c.height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if c.logo != nil {
		dc.DrawImage(c.logo, logoX, logoY)
	}

	dc.SetRGB(0, 0, 0)

	// Title, bold face, top-left anchored.
	dc.SetFontFace(c.bold)
	boldAscent := c.bold.Metrics().Ascent.Ceil()
	dc.DrawString(title, titleX, float64(titleY+boldAscent))

	// Caption block, vertically centered on the canvas.
	dc.SetFontFace(c.regular)
	ascent := c.regular.Metrics().Ascent.Ceil()
	lineHeight := c.regular.Metrics().Height.Ceil()
	blockHeight := len(lines) * (lineHeight + lineSpacing)
	textY := (c.height - blockHeight) / 2
	for _, line := range lines {
		dc.DrawString(line, captionX, float64(textY+ascent))
		textY += lineHeight + lineSpacing
	}

	// Product thumbnail on the right, aspect preserved, never upscaled.
	thumb := imaging.Fit(product, c.width/2, c.height/2, imaging.Lanczos)
	tb := thumb.Bounds()
	dc.DrawImage(thumb, c.width-tb.Dx()-imageMargin, (c.height-tb.Dy())/2)

	return dc.Image()
}
