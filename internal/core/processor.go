// Package core holds the per-file routine shared by backfill and live watch.
package core

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-watch/constants"
	"github.com/joseph-ayodele/invoice-watch/internal/common"
	"github.com/joseph-ayodele/invoice-watch/internal/entity"
	"github.com/joseph-ayodele/invoice-watch/internal/extract"
)

// Outcome is the result of one ProcessFile call.
type Outcome string

const (
	OutcomeRecorded Outcome = "recorded"  // row appended
	OutcomeSkipped  Outcome = "skipped"   // filename already in the ledger
	OutcomeIgnored  Outcome = "ignored"   // extension not watched
	OutcomeMissing  Outcome = "missing"   // file vanished before processing
	OutcomeNotReady Outcome = "not_ready" // size never settled
	OutcomeFailed   Outcome = "failed"    // extraction or ledger failure
)

// Outcomes lists every outcome, used to pre-register metric labels.
func Outcomes() []Outcome {
	return []Outcome{OutcomeRecorded, OutcomeSkipped, OutcomeIgnored, OutcomeMissing, OutcomeNotReady, OutcomeFailed}
}

// Ledger is the subset of ledger.Ledger the processor needs.
type Ledger interface {
	Contains(filename string) bool
	Append(rec entity.InvoiceRecord) error
	Len() int
}

type ReadinessChecker interface {
	IsReady(ctx context.Context, path string) bool
}

// AttemptRecorder journals attempts. Failures are logged and ignored.
type AttemptRecorder interface {
	Start(ctx context.Context, filename, path, trigger string) (uuid.UUID, error)
	Finish(ctx context.Context, id uuid.UUID, status constants.AttemptStatus, reason string) error
}

// Observer receives per-file measurements, typically for metrics.
type Observer interface {
	ObserveOutcome(o Outcome)
	ObserveExtract(d time.Duration)
	ObserveConfidence(score float32)
	SetLedgerRows(n int)
}

// Processor runs the per-file routine: dedup, filter, readiness, text
// extraction, field extraction and ledger append.
type Processor struct {
	logger    *slog.Logger
	text      extract.TextExtractor
	fields    extract.FieldExtractor
	ledger    Ledger
	readiness ReadinessChecker
	exts      map[string]struct{}

	journal  AttemptRecorder
	observer Observer
	now      func() time.Time
}

type Option func(*Processor)

// WithExtensions sets the accepted extensions; empty keeps the default .pdf.
func WithExtensions(exts []string) Option {
	return func(p *Processor) {
		p.exts = constants.ExtensionSet(exts)
	}
}

func WithJournal(j AttemptRecorder) Option {
	return func(p *Processor) { p.journal = j }
}

func WithObserver(o Observer) Option {
	return func(p *Processor) { p.observer = o }
}

// WithClock overrides the processed_date source.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProcessor(
	logger *slog.Logger,
	text extract.TextExtractor,
	fields extract.FieldExtractor,
	ledger Ledger,
	readiness ReadinessChecker,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:    logger,
		text:      text,
		fields:    fields,
		ledger:    ledger,
		readiness: readiness,
		exts:      constants.ExtensionSet(nil),
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessFile handles one path end to end. The returned error is non-nil
// only for OutcomeNotReady and OutcomeFailed; callers log it and move on.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Outcome, error) {
	outcome, err := p.process(ctx, path)
	if p.observer != nil {
		p.observer.ObserveOutcome(outcome)
	}
	return outcome, err
}

func (p *Processor) process(ctx context.Context, path string) (Outcome, error) {
	filename := filepath.Base(path)

	// 1) already recorded
	if p.ledger.Contains(filename) {
		p.logger.Debug("already processed, skipping", "filename", filename)
		return OutcomeSkipped, nil
	}

	// 2) extension filter
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := p.exts[ext]; !ok {
		return OutcomeIgnored, nil
	}

	// 3) file still there
	if _, err := os.Stat(path); err != nil {
		p.logger.Warn("file no longer exists, skipping", "path", path, "error", err)
		return OutcomeMissing, nil
	}

	attemptID := p.startAttempt(ctx, filename, path)
	ctx = common.WithAttemptID(ctx, attemptID)

	// 4) readiness
	if !p.readiness.IsReady(ctx, path) {
		p.logger.Warn("file not ready, skipping", "path", path)
		p.finishAttempt(ctx, attemptID, constants.AttemptStatusNotReady, common.ErrNotReady.Error())
		return OutcomeNotReady, common.NewAppError("NOT_READY", path, common.ErrNotReady)
	}

	// 5) text, then fields
	rec, err := p.buildRecord(ctx, path)
	if err != nil {
		p.finishAttempt(ctx, attemptID, constants.AttemptStatusFailed, err.Error())
		return OutcomeFailed, err
	}

	// 6) ledger
	if err := p.ledger.Append(rec); err != nil {
		if errors.Is(err, common.ErrAlreadyRecorded) {
			p.logger.Debug("recorded concurrently, skipping", "filename", filename)
			p.finishAttempt(ctx, attemptID, constants.AttemptStatusSkipped, err.Error())
			return OutcomeSkipped, nil
		}
		p.logger.Error("processor.ledger.failed", "path", path, "err", err)
		p.finishAttempt(ctx, attemptID, constants.AttemptStatusFailed, err.Error())
		return OutcomeFailed, err
	}

	if p.observer != nil {
		p.observer.SetLedgerRows(p.ledger.Len())
	}
	p.finishAttempt(ctx, attemptID, constants.AttemptStatusRecorded, "")
	p.logger.Info("recorded invoice",
		"filename", rec.Filename,
		"invoice_number", rec.InvoiceNumber,
		"date", rec.Date,
		"total", rec.Total,
		"vendor", rec.Vendor,
	)
	return OutcomeRecorded, nil
}

func (p *Processor) buildRecord(ctx context.Context, path string) (entity.InvoiceRecord, error) {
	txt, err := p.text.Extract(ctx, path)
	if p.observer != nil && txt.Duration > 0 {
		p.observer.ObserveExtract(txt.Duration)
	}
	if err != nil {
		p.logger.Error("processor.extract.failed", "path", path, "err", err)
		return entity.InvoiceRecord{}, err
	}
	p.logger.Debug("processor text success",
		"path", path,
		"method", txt.Method,
		"pages", txt.Pages,
		"confidence", txt.Confidence,
	)
	if p.observer != nil {
		p.observer.ObserveConfidence(txt.Confidence)
	}
	if txt.Confidence < constants.LowConfidence {
		p.logger.Warn("text does not look like an invoice", "path", path, "confidence", txt.Confidence)
	}
	for _, w := range txt.Warnings {
		p.logger.Warn("text extraction warning", "path", path, "warning", w)
	}

	res, err := p.fields.Parse(txt.Text)
	if err != nil {
		p.logger.Error("processor.parse.failed", "path", path, "err", err)
		return entity.InvoiceRecord{}, err
	}
	p.logger.Debug("processor parse success", "path", path, "matched", res.Matched)
	return entity.NewInvoiceRecord(path, res.Fields, p.now()), nil
}

func (p *Processor) startAttempt(ctx context.Context, filename, path string) uuid.UUID {
	if p.journal == nil {
		return uuid.Nil
	}
	id, err := p.journal.Start(ctx, filename, path, common.TriggerFromContext(ctx))
	if err != nil {
		p.logger.Warn("journal start failed", "filename", filename, "error", err)
		return uuid.Nil
	}
	return id
}

func (p *Processor) finishAttempt(ctx context.Context, id uuid.UUID, status constants.AttemptStatus, reason string) {
	if p.journal == nil || id == uuid.Nil {
		return
	}
	// the file deadline may already be spent; the journal write should still land
	ctx = context.WithoutCancel(ctx)
	if err := p.journal.Finish(ctx, id, status, reason); err != nil {
		p.logger.Warn("journal finish failed", "attempt_id", id, "error", err)
	}
}
