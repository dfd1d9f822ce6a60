// Package export turns the CSV ledger into an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-watch/constants"
	"github.com/joseph-ayodele/invoice-watch/internal/entity"
	"github.com/joseph-ayodele/invoice-watch/internal/ledger"
)

// SheetName is the worksheet holding the ledger rows.
const SheetName = "Invoices"

// Service produces XLSX bytes from a ledger file.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportLedgerXLSX returns a workbook with one row per ledger row, columns in
// ledger order. Totals that parse are written as numbers, N/A stays text.
func (s *Service) ExportLedgerXLSX(ctx context.Context, ledgerPath string) ([]byte, error) {
	start := time.Now()

	recs, err := ledger.ReadAll(ledgerPath)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if index, _ := f.GetSheetIndex(SheetName); index == -1 {
		if _, err := f.NewSheet(SheetName); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range constants.LedgerColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return nil, err
	}

	for i, r := range recs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		write(1, r.Filename)
		write(2, r.Filepath)
		write(3, r.InvoiceNumber)
		write(4, r.Date)
		if v, ok := totalValue(r); ok {
			cell, _ := excelize.CoordinatesToCellName(5, row)
			_ = f.SetCellValue(SheetName, cell, v)
			_ = f.SetCellStyle(SheetName, cell, cell, money)
		} else {
			write(5, r.Total)
		}
		write(6, r.Vendor)
		write(7, r.ProcessedDate)
	}

	_ = f.SetColWidth(SheetName, "A", "A", 28) // filename
	_ = f.SetColWidth(SheetName, "B", "B", 60) // filepath
	_ = f.SetColWidth(SheetName, "C", "D", 16)
	_ = f.SetColWidth(SheetName, "E", "E", 12) // total
	_ = f.SetColWidth(SheetName, "F", "F", 36) // vendor
	_ = f.SetColWidth(SheetName, "G", "G", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"ledger", ledgerPath,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteFile exports the ledger and writes the workbook to out.
func (s *Service) WriteFile(ctx context.Context, ledgerPath, out string) (int, error) {
	b, err := s.ExportLedgerXLSX(ctx, ledgerPath)
	if err != nil {
		return 0, err
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", out, err)
	}
	return len(b), nil
}

func totalValue(r entity.InvoiceRecord) (float64, bool) {
	if r.Total == "" || r.Total == constants.NotAvailable {
		return 0, false
	}
	d, err := decimal.NewFromString(r.Total)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}
