package pdftext

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/invoice-watch/internal/common"
)

// Approximate glyph advance in points; the row API does not report widths.
const (
	approxCharWidth = 5.0
	columnGap       = 30.0
)

// native decodes the document with ledongthuc/pdf, rebuilding lines from
// positioned text runs. The decoder panics on some malformed input, so any
// panic is turned into an extraction error.
func (e *Extractor) native(ctx context.Context, path string) (res ExtractionResult, err error) {
	res.Method = MethodNative
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("pdf decoder panic", "path", path, "panic", r)
			err = extractionError("decode pdf", fmt.Errorf("%v", r))
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return res, common.NewAppError("EXTRACT_ERROR", "open pdf", errors.Join(common.ErrExtraction, common.ErrEncrypted))
		}
		return res, extractionError("open pdf", err)
	}
	defer func() {
		_ = f.Close()
	}()

	total := r.NumPage()
	if total == 0 {
		return res, common.NewAppError("EXTRACT_ERROR", "open pdf", errors.Join(common.ErrExtraction, common.ErrNoPages))
	}
	pages := total
	if e.cfg.MaxPages > 0 && pages > e.cfg.MaxPages {
		pages = e.cfg.MaxPages
		res.Warnings = append(res.Warnings, fmt.Sprintf("truncated to %d of %d pages", pages, total))
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return res, extractionError("cancelled", err)
		}
		p := r.Page(i)
		if p.V.IsNull() {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: null page", i))
			continue
		}
		text, perr := pageText(p)
		if perr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i, perr))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	res.Pages = pages
	res.Text = b.String()
	return res, nil
}

func pageText(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return p.GetPlainText(nil)
	}
	// rows arrive top to bottom
	var buf strings.Builder
	for _, row := range rows {
		if row == nil || len(row.Content) == 0 {
			continue
		}
		line := rowText(row.Content)
		if strings.TrimSpace(line) == "" {
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// rowText joins the runs of one row left to right. Small gaps become a single
// space and wide gaps become a four-space column break.
func rowText(runs []pdf.Text) string {
	sorted := make([]pdf.Text, 0, len(runs))
	for _, t := range runs {
		if t.S != "" {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var b strings.Builder
	for i, t := range sorted {
		b.WriteString(t.S)
		if i == len(sorted)-1 {
			break
		}
		next := sorted[i+1]
		width := t.W
		if width <= 0 {
			width = float64(utf8.RuneCountInString(t.S)) * approxCharWidth
		}
		gap := next.X - (t.X + width)
		switch {
		case gap >= columnGap:
			b.WriteString("    ")
		case gap > 1 && !strings.HasSuffix(t.S, " ") && !strings.HasPrefix(next.S, " "):
			b.WriteString(" ")
		}
	}
	return b.String()
}
