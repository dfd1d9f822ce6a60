// Package pdftext turns PDF files into plain text, either natively or by
// shelling out to poppler's pdftotext.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-watch/constants"
	"github.com/joseph-ayodele/invoice-watch/internal/common"
)

type Config struct {
	Engine    string // common.EngineNative | common.EnginePdftotext; empty -> native
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	MaxPages  int    // 0 = no limit
}

type ExtractionResult struct {
	Text       string
	Pages      int
	Method     string // "pdf-native" | "pdftotext"
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

const (
	MethodNative    = "pdf-native"
	MethodPdftotext = "pdftotext"
)

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Engine == "" {
		cfg.Engine = common.EngineNative
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner; tests use it to fake pdftotext.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract decodes the PDF at path. Encrypted, empty and unreadable documents
// are reported as errors wrapping common.ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if ext != "pdf" {
		e.logger.Error("unsupported extension", "path", path, "extension", ext)
		return ExtractionResult{}, common.NewAppError("EXTRACT_ERROR", fmt.Sprintf("unsupported extension %q", ext), common.ErrUnsupported)
	}
	if _, err := os.Stat(path); err != nil {
		return ExtractionResult{}, extractionError("stat file", err)
	}

	e.logger.Debug("starting text extraction", "path", path, "engine", e.cfg.Engine)

	var (
		res ExtractionResult
		err error
	)
	switch e.cfg.Engine {
	case common.EnginePdftotext:
		res, err = e.pdfToText(ctx, path)
	default:
		res, err = e.native(ctx, path)
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	res.Text = Normalize(res.Text)
	res.Confidence = heuristicConfidence(res.Text)
	e.logger.Debug("text extraction ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (ExtractionResult, error) {
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	args = append(args, path, "-")
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	res := ExtractionResult{Method: MethodPdftotext}
	if err != nil {
		msg := strings.TrimSpace(string(errb))
		res.Warnings = append(res.Warnings, msg)
		if strings.Contains(strings.ToLower(msg), "incorrect password") {
			return res, common.NewAppError("EXTRACT_ERROR", "pdftotext", errors.Join(common.ErrExtraction, common.ErrEncrypted))
		}
		return res, extractionError("pdftotext", err)
	}
	res.Text = string(out)
	// A form-feed \f is used as page separator by default
	res.Pages = strings.Count(res.Text, "\f")
	if res.Pages == 0 && strings.TrimSpace(res.Text) != "" {
		res.Pages = 1
	}
	return res, nil
}

func extractionError(message string, cause error) error {
	return common.NewAppError("EXTRACT_ERROR", message, errors.Join(common.ErrExtraction, cause))
}
