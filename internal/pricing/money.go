// Package pricing turns budget inputs into stored totals.
//
// Everything here is pure decimal arithmetic: no database, no clock, no package state.
// Intermediate values are kept exact and only the final total is rounded to two places.
package pricing

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a currency string cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatBRL renders a value as Brazilian reais, e.g. 6075 -> "R$ 6.075,00".
func FormatBRL(d decimal.Decimal) string {
	fixed := Round2(d).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	return sign + "R$ " + grouped.String() + "," + fracPart
}

// ParseBRL parses a reais amount as typed by users. It accepts "R$ 6.075,00", "6075,5"
// and "6075.50". A dot followed by exactly three digits is read as a thousands separator
// when no comma is present.
func ParseBRL(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case strings.Contains(s, "."):
		if _, frac, _ := strings.Cut(s, "."); len(frac) == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FitsScale reports whether d has at most places significant decimal places.
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// Amount is a decimal decoded from a JSON number or from any string ParseBRL accepts.
type Amount struct {
	decimal.Decimal
}

// UnmarshalJSON reads numbers as they are and strings through ParseBRL.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) == 0 || data[0] != '"' {
		return a.Decimal.UnmarshalJSON(data)
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	d, err := ParseBRL(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}
