package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DocumentMetadata is the PDF Info dictionary subset we care about.
type DocumentMetadata struct {
	Title   string `json:"title,omitempty"`
	Author  string `json:"author,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// ExtractedText is the output of text extraction: the concatenated text,
// the per-page texts, and whether OCR produced it.
type ExtractedText struct {
	Text     string
	Pages    []string
	Metadata *DocumentMetadata
	UsedOCR  bool
}

// TextExtractor pulls the native text layer out of a PDF. It does not
// decide whether the output is sufficient; the pipeline compares the
// length against its threshold and escalates to OCR itself.
type TextExtractor interface {
	ExtractText(filePath string) (*ExtractedText, error)
}

type pdfTextExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &pdfTextExtractor{}
}

func (p *pdfTextExtractor) ExtractText(filePath string) (*ExtractedText, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var fullText strings.Builder
	var pages []string
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page is not fatal; the total length
			// check downstream catches documents with nothing usable.
			pages = append(pages, "")
			continue
		}

		pages = append(pages, strings.TrimSpace(text))
		fullText.WriteString(text)
		fullText.WriteString("\n")
	}

	return &ExtractedText{
		Text:     CleanText(fullText.String()),
		Pages:    pages,
		Metadata: readMetadata(r),
	}, nil
}

func readMetadata(r *pdf.Reader) (meta *DocumentMetadata) {
	defer func() {
		// Malformed trailers panic inside the pdf package; metadata is
		// optional so swallow it.
		if recover() != nil {
			meta = nil
		}
	}()

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return nil
	}

	meta = &DocumentMetadata{
		Title:   info.Key("Title").RawString(),
		Author:  info.Key("Author").RawString(),
		Subject: info.Key("Subject").RawString(),
	}
	if meta.Title == "" && meta.Author == "" && meta.Subject == "" {
		return nil
	}
	return meta
}

// CleanText collapses blank lines and trims each remaining line.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
