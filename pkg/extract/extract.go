// Package extract turns uploaded file bytes into plain text plus a page
// count, keyed by declared media type. Unsupported types are rejected
// before any downstream work happens.
package extract

import (
	"strings"

	"github.com/pharmintel/core/internal/apperr"
	"github.com/pharmintel/core/pkg/processor"
)

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeText = "text/plain"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Supported reports whether the given media type can be extracted.
// Parameters (e.g. "text/plain; charset=utf-8") are ignored.
func (e *Extractor) Supported(mediaType string) bool {
	switch baseMediaType(mediaType) {
	case MediaTypePDF, MediaTypeText:
		return true
	}
	return false
}

// Extract returns whitespace-normalized text and the page count of the
// source. Plain text counts as a single page.
func (e *Extractor) Extract(data []byte, mediaType string) (string, int, error) {
	switch baseMediaType(mediaType) {
	case MediaTypePDF:
		text, pages, err := extractPDF(data)
		if err != nil {
			return "", 0, err
		}
		return processor.CleanText(text), pages, nil
	case MediaTypeText:
		return processor.CleanText(string(data)), 1, nil
	}
	return "", 0, apperr.New(apperr.UnsupportedFileType, "unsupported file type: %s", mediaType)
}

func baseMediaType(mediaType string) string {
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
