package claim

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = []string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten",
		"Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen",
		"Eighteen", "Nineteen",
	}
	tens = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

const (
	thousand = 1_000
	lakh     = 1_00_000
	crore    = 1_00_00_000
)

// AmountInWords spells a rupee amount in English with Indian grouping, for
// example "Rupees One Lakh Twenty Thousand and Fifty Paise Only". Paise are
// rounded to two places and omitted when zero.
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Round(2)
	prefix := "Rupees "
	if amount.IsNegative() {
		prefix = "Rupees Minus "
		amount = amount.Neg()
	}
	rupees := amount.Truncate(0)
	paise := amount.Sub(rupees).Shift(2).IntPart()

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(integerWords(rupees.BigInt()))
	if paise > 0 {
		b.WriteString(" and ")
		b.WriteString(belowThousand(uint64(paise)))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String()
}

var croreInt = big.NewInt(crore)

// integerWords spells n >= 0. Crores nest, so any size is spelled exactly.
func integerWords(value *big.Int) string {
	if value.Sign() == 0 {
		return "Zero"
	}
	var parts []string
	if value.Cmp(croreInt) >= 0 {
		high, low := new(big.Int).QuoRem(value, croreInt, new(big.Int))
		parts = append(parts, integerWords(high)+" Crore")
		value = low
	}
	n := value.Uint64()
	if n >= lakh {
		parts = append(parts, belowThousand(n/lakh)+" Lakh")
		n %= lakh
	}
	if n >= thousand {
		parts = append(parts, belowThousand(n/thousand)+" Thousand")
		n %= thousand
	}
	if n > 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}

func belowThousand(n uint64) string {
	switch {
	case n == 0:
		return ""
	case n < 20:
		return ones[n]
	case n < 100:
		if n%10 == 0 {
			return tens[n/10]
		}
		return tens[n/10] + " " + ones[n%10]
	default:
		if n%100 == 0 {
			return ones[n/100] + " Hundred"
		}
		return ones[n/100] + " Hundred " + belowThousand(n%100)
	}
}
