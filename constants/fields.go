package constants

// NotAvailable is written for any field whose pattern did not match.
const NotAvailable = "N/A"

// Extracted invoice fields, in extraction order.
const (
	FieldInvoiceNumber = "invoice_number"
	FieldDate          = "date"
	FieldTotal         = "total"
	FieldVendor        = "vendor"
)

// LedgerColumns is the fixed header of the CSV ledger.
var LedgerColumns = []string{
	"filename",
	"filepath",
	FieldInvoiceNumber,
	FieldDate,
	FieldTotal,
	FieldVendor,
	"processed_date",
}

// ProcessedDateLayout formats InvoiceRecord.ProcessedDate.
const ProcessedDateLayout = "2006-01-02 15:04:05"

// MinTextLength is the shortest extracted text that is worth parsing.
const MinTextLength = 50

// LowConfidence is the text score below which a file is flagged as probably
// not an invoice. Flagged files are still parsed.
const LowConfidence = 0.5

// MaxVendorLength caps the vendor field, in characters.
const MaxVendorLength = 100
