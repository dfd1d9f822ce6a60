package extract

import (
	"context"

	"github.com/joseph-ayodele/invoice-watch/internal/parsefields"
	"github.com/joseph-ayodele/invoice-watch/internal/pdftext"
)

type PDFAdapter struct {
	e *pdftext.Extractor
}

func NewPDFAdapter(e *pdftext.Extractor) *PDFAdapter {
	return &PDFAdapter{e: e}
}

func (a *PDFAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.e.Extract(ctx, path)
	return TextExtractionResult{
		Text:       r.Text,
		Pages:      r.Pages,
		Method:     r.Method,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
		Confidence: r.Confidence,
	}, err
}

type PatternAdapter struct {
	e *parsefields.Extractor
}

func NewPatternAdapter(e *parsefields.Extractor) *PatternAdapter {
	return &PatternAdapter{e: e}
}

func (a *PatternAdapter) Parse(text string) (FieldsResult, error) {
	r, err := a.e.Parse(text)
	return FieldsResult{Fields: r.Fields, Matched: r.Matched}, err
}
