// Package core provides the subscription domain model and the pure
// calculation functions: money parsing and formatting, frequency
// normalization and next-billing-date projection.
//
// This file contains functions for parsing monetary amounts from strings
// and formatting cents as rupees with Indian digit grouping.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1234, nil (rounds down)
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64 = 0
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 {
				if fracPart[2] >= '5' {
					fracCents++
				}
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FormatRupees renders cents as a rupee string with Indian digit grouping:
// the last three integer digits form one group, every group before that has
// two digits. 123456750 cents -> "₹12,34,567.50".
func FormatRupees(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	rupees := cents / 100
	paise := cents % 100

	digits := strconv.FormatInt(rupees, 10)
	grouped := groupIndian(digits)

	s := "₹" + grouped + "." + pad2(paise)
	if neg {
		return "-" + s
	}
	return s
}

// groupIndian inserts commas per the Indian numbering system:
// 1234567 -> "12,34,567".
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var b strings.Builder
	// Leading group of one or two digits, then pairs.
	lead := len(head) % 2
	if lead == 1 {
		// The three-digit tail always follows, so the comma is unconditional.
		b.WriteByte(head[0])
		head = head[1:]
		b.WriteByte(',')
	}
	for i := 0; i < len(head); i += 2 {
		b.WriteString(head[i : i+2])
		b.WriteByte(',')
	}
	b.WriteString(tail)
	return b.String()
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// Rupees returns the rupee value as a float64 for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Rupees() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the amount with Indian digit grouping.
func (m Money) String() string {
	return FormatRupees(m.Cents)
}
