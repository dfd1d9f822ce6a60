package parsefields

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-watch/constants"
	"github.com/joseph-ayodele/invoice-watch/internal/common"
)

const sampleInvoice = `ACME SUPPLIES LTD
Invoice #: INV-2024-001
Invoice Date: 01/15/2024
Vendor: Acme Supplies Ltd.
Bill To: Jane Doe

Widgets x 10                      $45.00
Shipping                           $5.00
Total: $50.00
`

func TestParseSampleInvoice(t *testing.T) {
	e := NewExtractor(nil)
	res, err := e.Parse(sampleInvoice)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Matched)
	assert.Equal(t, "INV-2024-001", res.Fields[constants.FieldInvoiceNumber])
	assert.Equal(t, "01/15/2024", res.Fields[constants.FieldDate])
	assert.Equal(t, "50.00", res.Fields[constants.FieldTotal])
	assert.Equal(t, "Acme Supplies Ltd", res.Fields[constants.FieldVendor])
}

func TestParseRejectsShortText(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Parse("Invoice #: 1 Total: $5.00")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTextTooShort))

	_, err = e.Parse("   \n\t  ")
	assert.True(t, errors.Is(err, common.ErrTextTooShort))
}

func TestParseMissingFieldsYieldSentinel(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 4)
	res, err := NewExtractor(nil).Parse(text)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Matched)
	for _, f := range []string{constants.FieldInvoiceNumber, constants.FieldDate, constants.FieldTotal, constants.FieldVendor} {
		assert.Equal(t, constants.NotAvailable, res.Fields[f], f)
	}
}

func TestExtractTotal(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"thousands and symbol", "Total: $1,234.56", "1234.56"},
		{"one decimal is rejected", "Total: 1234.5", constants.NotAvailable},
		{"amount due", "Amount Due: 99.90", "99.90"},
		{"balance due with euro", "Balance Due € 12.00", "12.00"},
		{"subtotal is not total", "Subtotal: 10.00", constants.NotAvailable},
		{"three decimals rejected", "Total: 10.005", constants.NotAvailable},
		{"total on next line", "TOTAL\n  £7.25", "7.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text)[constants.FieldTotal])
		})
	}
}

func TestExtractInvoiceNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"hash", "Invoice # 12345", "12345"},
		{"no.", "Invoice No. A-77/2", "A-77/2"},
		{"number label", "Invoice Number: INV0042", "INV0042"},
		{"date label is skipped", "Invoice Date: 01/02/2024\nInvoice #: 88", "88"},
		{"no digits", "Invoice: pending", constants.NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text)[constants.FieldInvoiceNumber])
		})
	}
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"us", "Date: 03/04/2024", "03/04/2024"},
		{"dashes", "Invoice Date 15-01-2024", "15-01-2024"},
		{"iso", "Date: 2024-01-15", "2024-01-15"},
		{"missing", "Dated sometime last week", constants.NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text)[constants.FieldDate])
		})
	}
}

func TestExtractVendor(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"collapses and strips", "Vendor:   Acme   Corp.,  ", "Acme Corp"},
		{"stops at line break", "From: Globex Inc\nTo: Someone", "Globex Inc"},
		{"stops at layout gap", "Bill From: Initech LLC          Invoice #: 5", "Initech LLC"},
		{"value on next line", "From:\nUmbrella Corp;\n", "Umbrella Corp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text)[constants.FieldVendor])
		})
	}
}

func TestNormalizeVendorTruncates(t *testing.T) {
	v, ok := NormalizeVendor(strings.Repeat("ab ", 60))
	require.True(t, ok)
	assert.LessOrEqual(t, len([]rune(v)), constants.MaxVendorLength)
}

func TestNormalizeInvoiceNumberStripsWhitespace(t *testing.T) {
	v, ok := NormalizeInvoiceNumber(" INV 00\t12 ")
	require.True(t, ok)
	assert.Equal(t, "INV0012", v)
}

func TestWithMinTextLength(t *testing.T) {
	e := NewExtractor(nil, WithMinTextLength(0))
	res, err := e.Parse("Total: $5.00")
	require.NoError(t, err)
	assert.Equal(t, "5.00", res.Fields[constants.FieldTotal])
	assert.Equal(t, []string{"invoice_number", "date", "total", "vendor"}, e.Fields())
}
