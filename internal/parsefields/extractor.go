// Package parsefields turns extracted invoice text into the ledger's field map
// using ordered regular expressions.
package parsefields

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-watch/constants"
	"github.com/joseph-ayodele/invoice-watch/internal/common"
)

// Result is the outcome of a successful Parse.
type Result struct {
	Fields  map[string]string
	Matched int
}

// Extractor applies a fixed, ordered set of patterns to text.
type Extractor struct {
	patterns      []Pattern
	minTextLength int
	logger        *slog.Logger
}

type Option func(*Extractor)

// WithMinTextLength overrides the length gate; 0 disables it.
func WithMinTextLength(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.minTextLength = n
		}
	}
}

// WithPatterns replaces the default pattern set.
func WithPatterns(p []Pattern) Option {
	return func(e *Extractor) {
		if len(p) > 0 {
			e.patterns = p
		}
	}
}

func NewExtractor(logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		patterns:      DefaultPatterns(),
		minTextLength: constants.MinTextLength,
		logger:        logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Parse gates on text length and then extracts every field. Individual field
// misses never fail the parse; they yield constants.NotAvailable.
func (e *Extractor) Parse(text string) (Result, error) {
	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < e.minTextLength {
		return Result{}, common.NewAppError("PARSE_ERROR", "text below minimum length", common.ErrTextTooShort)
	}
	fields, matched := e.extract(text)
	e.logger.Debug("fields extracted", "matched", matched, "of", len(e.patterns))
	return Result{Fields: fields, Matched: matched}, nil
}

// Extract applies the patterns without the length gate.
func (e *Extractor) Extract(text string) map[string]string {
	fields, _ := e.extract(text)
	return fields
}

// Fields lists the extracted field names in pattern order.
func (e *Extractor) Fields() []string {
	out := make([]string, len(e.patterns))
	for i, p := range e.patterns {
		out[i] = p.Field
	}
	return out
}

func (e *Extractor) extract(text string) (map[string]string, int) {
	fields := make(map[string]string, len(e.patterns))
	matched := 0
	for _, p := range e.patterns {
		fields[p.Field] = constants.NotAvailable
		m := p.Regex.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		raw := strings.TrimSpace(m[1])
		if p.Normalize != nil {
			v, ok := p.Normalize(raw)
			if !ok {
				continue
			}
			raw = v
		}
		fields[p.Field] = raw
		matched++
	}
	return fields, matched
}

var defaultExtractor = NewExtractor(nil)

// Extract runs the default patterns over text.
func Extract(text string) map[string]string {
	return defaultExtractor.Extract(text)
}
