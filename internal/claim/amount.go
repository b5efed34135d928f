package claim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a row amount exactly as typed. The form sends strings but older
// drafts may hold JSON numbers; both decode.
type Amount string

// UnmarshalJSON accepts a string, a number or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*a = Amount(value)
		return nil
	default:
		var number json.Number
		if err := json.Unmarshal(data, &number); err != nil {
			return fmt.Errorf("amount must be a string or number: %w", err)
		}
		*a = Amount(number.String())
		return nil
	}
}

// Value parses the amount; anything unreadable counts as zero.
func (a Amount) Value() decimal.Decimal {
	return ParseAmount(string(a))
}

var leadingNumber = regexp.MustCompile(`^([+-]?)(\d*)(?:\.(\d*))?(?:[eE]([+-]?\d+))?`)

const (
	// MaxAmountDigits is the most integer digits an amount may have. Larger
	// values count as zero.
	MaxAmountDigits = 15
	// maxLiteralDigits bounds the mantissa length and exponent read from input.
	maxLiteralDigits = 64
	// amountScale is the number of decimal places kept.
	amountScale = 8
)

// ParseAmount reads the leading decimal number of s after trimming leading
// whitespace, ignoring any trailing text. Input without a leading number is
// zero, as is any value with more than MaxAmountDigits integer digits.
func ParseAmount(s string) decimal.Decimal {
	match := leadingNumber.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return decimal.Zero
	}
	sign, whole, frac, exp := match[1], match[2], match[3], match[4]
	if whole == "" && frac == "" {
		return decimal.Zero
	}
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > maxLiteralDigits {
		frac = frac[:maxLiteralDigits]
	}
	if len(whole) > maxLiteralDigits {
		return decimal.Zero
	}
	exponent := 0
	if exp != "" {
		n, err := strconv.Atoi(exp)
		if err != nil || n > maxLiteralDigits || n < -maxLiteralDigits*2 {
			return decimal.Zero
		}
		exponent = n
	}
	literal := sign + whole
	if frac != "" {
		literal += "." + frac
	}
	value, err := decimal.NewFromString(literal)
	if err != nil || value.IsZero() {
		return decimal.Zero
	}
	value = value.Shift(int32(exponent))
	if magnitude := value.NumDigits() + int(value.Exponent()); magnitude > MaxAmountDigits {
		return decimal.Zero
	}
	if value.Exponent() < -amountScale {
		value = value.Truncate(amountScale)
	}
	return value
}

// FromDecimal formats d as an Amount for a form row.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.String())
}
