package extract

import (
	"context"
	"time"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	Method     string // "pdf-native" | "pdftotext"
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// FieldExtractor is Stage 2: text -> ledger fields.
type FieldExtractor interface {
	Parse(text string) (FieldsResult, error)
}

type FieldsResult struct {
	Fields  map[string]string
	Matched int
}
