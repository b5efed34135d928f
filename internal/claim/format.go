package claim

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var displayPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatRupees renders d the way total cells show it: "₹ 1234.00".
func FormatRupees(d decimal.Decimal) string {
	return "₹ " + d.StringFixed(2)
}

// DisplayRupees renders d with locale digit grouping for on-screen totals.
func DisplayRupees(d decimal.Decimal) string {
	return displayPrinter.Sprintf("₹ %.2f", d.Round(2).InexactFloat64())
}
