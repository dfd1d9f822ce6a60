package entity

import (
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/invoice-watch/constants"
)

// InvoiceRecord is one ledger row. Tag order matches constants.LedgerColumns.
type InvoiceRecord struct {
	Filename      string `csv:"filename" json:"filename"`
	Filepath      string `csv:"filepath" json:"filepath"`
	InvoiceNumber string `csv:"invoice_number" json:"invoice_number"`
	Date          string `csv:"date" json:"date"`
	Total         string `csv:"total" json:"total"`
	Vendor        string `csv:"vendor" json:"vendor"`
	ProcessedDate string `csv:"processed_date" json:"processed_date"`
}

// NewInvoiceRecord builds a row for path from an extracted field map.
// Missing fields are filled with the N/A sentinel.
func NewInvoiceRecord(path string, fields map[string]string, processedAt time.Time) InvoiceRecord {
	get := func(key string) string {
		if v, ok := fields[key]; ok && v != "" {
			return v
		}
		return constants.NotAvailable
	}
	return InvoiceRecord{
		Filename:      filepath.Base(path),
		Filepath:      path,
		InvoiceNumber: get(constants.FieldInvoiceNumber),
		Date:          get(constants.FieldDate),
		Total:         get(constants.FieldTotal),
		Vendor:        get(constants.FieldVendor),
		ProcessedDate: processedAt.Format(constants.ProcessedDateLayout),
	}
}
