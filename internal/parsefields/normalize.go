package parsefields

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-watch/constants"
)

var currencyStripper = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "", "\t", "")

// NormalizeTotal strips currency symbols and thousands separators and
// re-renders the amount with two decimals. Negative or unparseable amounts
// are rejected.
func NormalizeTotal(raw string) (string, bool) {
	cleaned := currencyStripper.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsNegative() {
		return "", false
	}
	return d.StringFixed(2), true
}

// NormalizeVendor collapses whitespace runs, strips trailing punctuation and
// caps the result at constants.MaxVendorLength characters.
func NormalizeVendor(raw string) (string, bool) {
	v := strings.Join(strings.Fields(raw), " ")
	v = strings.TrimRight(v, ".,;: ")
	if r := []rune(v); len(r) > constants.MaxVendorLength {
		v = strings.TrimRightFunc(string(r[:constants.MaxVendorLength]), unicode.IsSpace)
	}
	return v, v != ""
}

// NormalizeInvoiceNumber removes every whitespace character.
func NormalizeInvoiceNumber(raw string) (string, bool) {
	v := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	return v, v != ""
}
