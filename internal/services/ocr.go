package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"

	"cvre/cv-optimizer/pkg/logging"
)

// OCREngine recovers text from PDFs that have no machine-readable text
// layer. It is an order of magnitude more expensive than native
// extraction, so the pipeline only calls it after native extraction came
// back under the threshold, never speculatively.
type OCREngine interface {
	ExtractText(ctx context.Context, filePath string) (*ExtractedText, error)
}

type ocrEngine struct {
	scale     float64
	languages []string
	logger    *logging.Logger
}

// NewOCREngine builds the fallback engine. scale multiplies the base
// 72 DPI render resolution; below 3x small glyphs start dropping out.
func NewOCREngine(scale float64, languages string, logger *logging.Logger) OCREngine {
	if scale < 3.0 {
		scale = 3.0
	}
	return &ocrEngine{
		scale:     scale,
		languages: strings.Split(languages, "+"),
		logger:    logger,
	}
}

func (o *ocrEngine) ExtractText(ctx context.Context, filePath string) (*ExtractedText, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open PDF for rendering: %v", ErrOCRFailed, err)
	}
	defer doc.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(o.languages...); err != nil {
		return nil, fmt.Errorf("%w: failed to configure OCR languages: %v", ErrOCRFailed, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, fmt.Errorf("%w: failed to configure page segmentation: %v", ErrOCRFailed, err)
	}
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return nil, fmt.Errorf("%w: failed to configure OCR: %v", ErrOCRFailed, err)
	}

	var fullText strings.Builder
	var pages []string
	dpi := 72.0 * o.scale

	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ocr cancelled: %w", err)
		}

		img, err := doc.ImageDPI(n, dpi)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to render page %d: %v", ErrOCRFailed, n+1, err)
		}

		processed := preprocessForOCR(img)

		var buf bytes.Buffer
		if err := png.Encode(&buf, processed); err != nil {
			return nil, fmt.Errorf("%w: failed to encode page %d: %v", ErrOCRFailed, n+1, err)
		}

		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			return nil, fmt.Errorf("%w: failed to load page %d image: %v", ErrOCRFailed, n+1, err)
		}

		text, err := client.Text()
		if err != nil {
			return nil, fmt.Errorf("%w: recognition failed on page %d: %v", ErrOCRFailed, n+1, err)
		}

		pageText := strings.TrimSpace(text)
		o.logger.Debug("ocr page recognized", "page", n+1, "chars", len(pageText))

		pages = append(pages, pageText)
		fullText.WriteString(pageText)
		fullText.WriteString("\n")
	}

	return &ExtractedText{
		Text:    CleanText(fullText.String()),
		Pages:   pages,
		UsedOCR: true,
	}, nil
}

// preprocessForOCR converts a rendered page to grayscale, pushes pixel
// values away from mid-gray, then binarizes to pure black and white.
// Tesseract does noticeably better on binarized scans than on the raw
// render.
func preprocessForOCR(src image.Image) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()

			// Luminance weights, 16-bit channels scaled back to 8-bit.
			gray := (299*float64(r>>8) + 587*float64(g>>8) + 114*float64(b>>8)) / 1000

			var enhanced float64
			if gray < 128 {
				enhanced = gray - 20
				if enhanced < 0 {
					enhanced = 0
				}
			} else {
				enhanced = gray + 20
				if enhanced > 255 {
					enhanced = 255
				}
			}

			var binarized uint8
			if enhanced > 128 {
				binarized = 255
			}
			dst.SetGray(x, y, color.Gray{Y: binarized})
		}
	}

	return dst
}
