// Package ledger is the append-only CSV ledger of processed invoices, keyed by
// filename, together with the in-memory set of filenames it already holds.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/joseph-ayodele/invoice-watch/internal/common"
	"github.com/joseph-ayodele/invoice-watch/internal/entity"
)

// Ledger owns the output CSV and the processed set. All reads and writes of
// either go through mu, so check-then-append is atomic.
type Ledger struct {
	path   string
	logger *slog.Logger

	mu        sync.Mutex
	processed map[string]struct{}
}

// Open loads the processed set from the ledger at path. A missing ledger is a
// cold start. A read error is logged and the filenames read before it are
// kept.
func Open(path string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{path: path, logger: logger, processed: map[string]struct{}{}}

	set, err := LoadProcessed(path)
	switch {
	case err == nil:
		l.processed = set
		logger.Info("ledger loaded", "path", path, "processed", len(set))
	case errors.Is(err, os.ErrNotExist):
		logger.Info("ledger not found, starting fresh", "path", path)
	default:
		// keep what was read; dropping it would let those files get a second row
		l.processed = set
		logger.Error("ledger partly unreadable", "path", path, "processed", len(set), "error", err)
	}
	return l
}

// Path returns the ledger file path.
func (l *Ledger) Path() string { return l.path }

// Contains reports whether filename already has a ledger row.
func (l *Ledger) Contains(filename string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.processed[filename]
	return ok
}

// Len returns the number of recorded filenames.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.processed)
}

// Filenames returns the recorded filenames, sorted.
func (l *Ledger) Filenames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.processed))
	for f := range l.processed {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Append writes rec as one row. The header is written first when the file
// is new or empty. On success rec.Filename joins the processed set; on
// failure nothing is marked.
func (l *Ledger) Append(rec entity.InvoiceRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.processed[rec.Filename]; ok {
		return common.NewAppError("LEDGER_DUPLICATE", rec.Filename, common.ErrAlreadyRecorded)
	}

	if err := appendRow(l.path, rec); err != nil {
		l.logger.Error("ledger append failed", "path", l.path, "filename", rec.Filename, "error", err)
		return common.NewAppError("LEDGER_ERROR", "append row", errors.Join(common.ErrLedgerIO, err))
	}

	l.processed[rec.Filename] = struct{}{}
	l.logger.Debug("ledger row appended", "filename", rec.Filename, "rows", len(l.processed))
	return nil
}

func appendRow(path string, rec entity.InvoiceRecord) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent dir: %w", err)
		}
	}

	writeHeader := true
	if st, statErr := os.Stat(path); statErr == nil && st.Size() > 0 {
		writeHeader = false
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()

	rows := []entity.InvoiceRecord{rec}
	if writeHeader {
		err = gocsv.Marshal(rows, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, f)
	}
	if err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

// LoadProcessed reads the filename column of the ledger at path. On a read
// error the filenames collected before it are still returned.
func LoadProcessed(path string) (map[string]struct{}, error) {
	set := map[string]struct{}{}
	err := eachRecord(path, func(r entity.InvoiceRecord) {
		if r.Filename != "" {
			set[r.Filename] = struct{}{}
		}
	})
	return set, err
}

// ReadAll returns every row of the ledger at path, in file order.
func ReadAll(path string) ([]entity.InvoiceRecord, error) {
	var out []entity.InvoiceRecord
	err := eachRecord(path, func(r entity.InvoiceRecord) {
		out = append(out, r)
	})
	return out, err
}

// eachRecord streams the ledger rows to fn. Rows may be short or long: a
// row cut off by a crash keeps the columns it has and the rest stay empty.
func eachRecord(path string, fn func(entity.InvoiceRecord)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.Size() == 0 {
		return nil
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if err := gocsv.UnmarshalDecoderToCallback(gocsv.NewSimpleDecoderFromCSVReader(r), fn); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read ledger: %w", err)
	}
	return nil
}
