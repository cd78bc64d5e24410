package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Frequency is how often an expense recurs.
type Frequency string

const (
	FrequencyDaily   Frequency = "Diário"
	FrequencyWeekly  Frequency = "Semanal"
	FrequencyMonthly Frequency = "Mensal"
	FrequencyAnnual  Frequency = "Anual"
	FrequencyOnce    Frequency = "Único"
)

var (
	daysPerMonth   = decimal.NewFromInt(30)
	daysPerYear    = decimal.NewFromInt(365)
	weeksPerMonth  = decimal.RequireFromString("4.33")
	weeksPerYear   = decimal.NewFromInt(52)
	monthsPerYear  = decimal.NewFromInt(12)
	frequencyAlias = map[string]Frequency{
		"diário":   FrequencyDaily,
		"diario":   FrequencyDaily,
		"daily":    FrequencyDaily,
		"semanal":  FrequencyWeekly,
		"weekly":   FrequencyWeekly,
		"mensal":   FrequencyMonthly,
		"monthly":  FrequencyMonthly,
		"anual":    FrequencyAnnual,
		"annual":   FrequencyAnnual,
		"yearly":   FrequencyAnnual,
		"único":    FrequencyOnce,
		"unico":    FrequencyOnce,
		"pontual":  FrequencyOnce,
		"one-time": FrequencyOnce,
		"once":     FrequencyOnce,
	}
)

// ParseFrequency maps a user supplied label to a Frequency. Unknown labels are monthly.
func ParseFrequency(s string) Frequency {
	if f, ok := frequencyAlias[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}
	return FrequencyMonthly
}

// IsKnownFrequency reports whether s is a recognised frequency label.
func IsKnownFrequency(s string) bool {
	_, ok := frequencyAlias[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ToMonthly converts a value charged at the given frequency to its monthly equivalent.
func ToMonthly(value decimal.Decimal, frequency string) decimal.Decimal {
	switch ParseFrequency(frequency) {
	case FrequencyDaily:
		return value.Mul(daysPerMonth)
	case FrequencyWeekly:
		return value.Mul(weeksPerMonth)
	case FrequencyAnnual, FrequencyOnce:
		return value.Div(monthsPerYear)
	default:
		return value
	}
}

// ToAnnual converts a value charged at the given frequency to its annual equivalent.
// One-time values count as a single occurrence per year.
func ToAnnual(value decimal.Decimal, frequency string) decimal.Decimal {
	switch ParseFrequency(frequency) {
	case FrequencyDaily:
		return value.Mul(daysPerYear)
	case FrequencyWeekly:
		return value.Mul(weeksPerYear)
	case FrequencyAnnual, FrequencyOnce:
		return value
	default:
		return value.Mul(monthsPerYear)
	}
}
