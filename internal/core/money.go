// Package core provides money parsing and formatting utilities.
//
// Amounts are carried as float64 everywhere in the domain; display strings
// such as "$1,234.56" are derived on demand and parsed back only at the
// edges (HTTP payloads, CLI arguments, budget files).
package core

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// FormatCurrency turns raw user input into a display string.
//
// All non-digit characters are dropped from the integer part, which is then
// grouped in thousands. When the input contains a decimal point, up to two
// fractional digits follow it (truncated, never rounded or padded).
//
// Examples:
//
//	FormatCurrency("1234567") -> "$1,234,567"
//	FormatCurrency("1234.5")  -> "$1,234.5"
//	FormatCurrency("0.999")   -> "$0.99"
//	FormatCurrency("")        -> ""
func FormatCurrency(raw string) string {
	if raw == "" {
		return ""
	}

	intPart, fracPart, hasPoint := strings.Cut(raw, ".")
	intDigits := groupThousands(digitsOnly(intPart))
	if !hasPoint {
		return "$" + intDigits
	}

	frac := digitsOnly(fracPart)
	if len(frac) > 2 {
		frac = frac[:2]
	}
	if intDigits == "" {
		intDigits = "0"
	}
	return "$" + intDigits + "." + frac
}

// ParseCurrency converts a display string back to a number.
//
// "$", "," and whitespace are stripped. Empty input yields 0. What remains
// must be an optional sign followed by digits with at most one decimal
// point; anything else (exponents, hex, "Inf") yields 0 and logs a warning.
func ParseCurrency(formatted string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r == '$' || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, formatted)
	if cleaned == "" {
		return 0
	}

	normalized, ok := plainDecimal(cleaned)
	if !ok {
		slog.Warn("Unparseable currency value, using 0", "value", formatted)
		return 0
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		slog.Warn("Unparseable currency value, using 0", "value", formatted, "error", err)
		return 0
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		slog.Warn("Currency value out of range, using 0", "value", formatted)
		return 0
	}
	return v
}

// ParseCurrencyValue is ParseCurrency for untyped payload values. Anything
// other than a string (or nil) logs a type mismatch and yields 0.
func ParseCurrencyValue(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case string:
		return ParseCurrency(val)
	default:
		slog.Warn("Expected currency text",
			"error", fmt.Errorf("%w: got %T", ErrTypeMismatch, v))
		return 0
	}
}

// FormatAmount derives the display string for a numeric amount. Negative
// amounts keep their sign in front of the currency symbol.
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return FormatCurrency("0")
	}
	s := FormatCurrency(decimal.NewFromFloat(math.Abs(v)).String())
	if v < 0 && ParseCurrency(s) != 0 {
		return "-" + s
	}
	return s
}

// RoundPct rounds a percentage to two decimal places.
func RoundPct(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ParseAmount is the strict counterpart of ParseCurrency used where a
// number is required: it accepts digits with at most one decimal point and
// reports anything else as ErrInvalidInput.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount(".5")    -> 0.5, nil
//	ParseAmount("-1")    -> 0, ErrInvalidInput
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidInput)
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("%w: amount %q has no digits", ErrInvalidInput, s)
	}
	for _, part := range []string{intPart, fracPart} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("%w: amount %q", ErrInvalidInput, s)
			}
		}
	}
	if intPart == "" {
		intPart = "0"
	}
	d, err := decimal.NewFromString(intPart + "." + fracPart + "0")
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ErrInvalidInput, s)
	}
	return d.InexactFloat64(), nil
}

// plainDecimal checks that s is [+-]digits[.digits] with at least one digit
// and returns it with both sides of the point filled in.
func plainDecimal(s string) (string, bool) {
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign, s = s[:1], s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return "", false
	}
	for _, part := range []string{intPart, fracPart} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return "", false
			}
		}
	}
	if intPart == "" {
		intPart = "0"
	}
	return sign + intPart + "." + fracPart + "0", true
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3)
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
