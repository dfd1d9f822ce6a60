package parsefields

import (
	"regexp"

	"github.com/joseph-ayodele/invoice-watch/constants"
)

// Pattern binds a field to the regex that finds it and the normalizer applied
// to the first capturing group. A normalizer returning ok=false turns the
// match into the N/A sentinel.
type Pattern struct {
	Field     string
	Regex     *regexp.Regexp
	Normalize func(raw string) (value string, ok bool)
}

var (
	// "Invoice #: INV-2024-001", "Invoice No. 42/7", "Invoice Number A1234".
	// The value must carry at least one digit so "Invoice Date" is not read as a number.
	reInvoiceNumber = regexp.MustCompile(
		`(?im)\binvoice[ \t]*(?:#|no\.?|number|num\.?)?[ \t]*[:#]?\s*` +
			`((?:[a-z0-9]+[-/])*[a-z]*\d[a-z0-9]*(?:[-/][a-z0-9]+)*)\b`)

	// "Date: 01/15/2024", "Invoice Date 15-01-2024", "Date: 2024-01-15".
	reDate = regexp.MustCompile(
		`(?im)\b(?:invoice[ \t]+)?date[ \t]*:?\s*` +
			`(\d{4}-\d{1,2}-\d{1,2}|\d{1,2}[/-]\d{1,2}[/-](?:\d{4}|\d{2}))\b`)

	// "Total: $1,234.56", "Amount Due: 50.00", "Balance Due £12.00".
	reTotal = regexp.MustCompile(
		`(?im)\b(?:grand[ \t]+)?(?:total(?:[ \t]+(?:due|amount))?|amount[ \t]+due|balance(?:[ \t]+due)?)[ \t]*:?\s*` +
			`([$€£]?[ \t]?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2})\b`)

	// "From: Acme Corp", "Vendor:   Acme   Corp.,", "Bill From:\nAcme Corp".
	// The value ends at a line break, a tab, or a wide layout gap.
	reVendor = regexp.MustCompile(
		`(?im)\b(?:bill[ \t]+from|vendor|from)\b[ \t]*:?\s*` +
			`(\S[^\n\t]*?)(?:\t| {4,}|[ \t]*$)`)
)

// DefaultPatterns lists the field patterns in extraction order.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Field: constants.FieldInvoiceNumber, Regex: reInvoiceNumber, Normalize: NormalizeInvoiceNumber},
		{Field: constants.FieldDate, Regex: reDate, Normalize: passThrough},
		{Field: constants.FieldTotal, Regex: reTotal, Normalize: NormalizeTotal},
		{Field: constants.FieldVendor, Regex: reVendor, Normalize: NormalizeVendor},
	}
}

func passThrough(raw string) (string, bool) {
	return raw, raw != ""
}
