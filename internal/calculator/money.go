package calculator

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// SubunitsPerUnit is the number of subunits (paise) in one currency unit.
	SubunitsPerUnit = 100

	// RoundUpSubunits is the fractional subunit count at which an amount rounds
	// up to the next whole unit.
	RoundUpSubunits = 90

	// HistoryLimit caps the number of saved receipts.
	HistoryLimit = 20

	// DefaultCurrencySymbol prefixes formatted amounts.
	DefaultCurrencySymbol = "₹"
)

// RoundToUnit converts amount into whole currency units. The fractional part is
// measured in whole subunits first so float noise such as 55.89999999999999
// still counts as 90 subunits. NaN, infinities and negative amounts yield 0.
func RoundToUnit(amount float64) int64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0
	}
	if amount >= math.MaxInt64 {
		return math.MaxInt64
	}

	base := math.Floor(amount)
	sub := math.Round((amount - base) * SubunitsPerUnit)
	if sub >= RoundUpSubunits {
		return int64(base) + 1
	}
	return int64(base)
}

// FormatAmount renders amount with two decimals and the default currency symbol.
func FormatAmount(amount float64) string {
	return FormatAmountWith(DefaultCurrencySymbol, amount)
}

// FormatAmountWith renders amount with two decimals, rounding half-up, after symbol.
func FormatAmountWith(symbol string, amount float64) string {
	whole, frac := SplitAmount(amount)
	return symbol + whole + "." + frac
}

// SplitAmount returns the whole and two-digit fractional parts of amount as
// displayed. Invalid amounts render as zero.
func SplitAmount(amount float64) (whole, fraction string) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	s := decimal.NewFromFloat(amount).StringFixed(2)
	whole, fraction, _ = strings.Cut(s, ".")
	return whole, fraction
}

// ParseAmount parses raw user input into a non-negative amount. A leading
// currency symbol and a decimal comma are accepted; anything unparsable,
// negative or non-finite yields 0.
func ParseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, DefaultCurrencySymbol)
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return 0
	}
	return f
}

// GramsToPrice converts a weight in grams into a price from a per-kilogram rate.
func GramsToPrice(pricePerKg, grams float64) float64 {
	if !validAmount(pricePerKg) || !validAmount(grams) {
		return 0
	}
	return pricePerKg * grams / 1000
}

// Preset is a weight chip for an item.
type Preset struct {
	Grams  float64 `json:"grams"`
	Label  string  `json:"label"`
	Amount int64   `json:"amount"`
}

// PresetsFor builds chips for each positive weight, priced at pricePerKg.
func PresetsFor(pricePerKg float64, weights []float64) []Preset {
	presets := make([]Preset, 0, len(weights))
	for _, g := range weights {
		if !validAmount(g) || g == 0 {
			continue
		}
		presets = append(presets, Preset{
			Grams:  g,
			Label:  WeightLabel(g),
			Amount: RoundToUnit(GramsToPrice(pricePerKg, g)),
		})
	}
	return presets
}

// WeightLabel names a weight in grams, using "1kg" for exactly 1000 g.
func WeightLabel(grams float64) string {
	if grams == 1000 {
		return "1kg"
	}
	return fmt.Sprintf("%sg", decimal.NewFromFloat(grams).String())
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// clampAmount normalises an input amount to a finite non-negative value.
func clampAmount(v float64) float64 {
	if !validAmount(v) {
		return 0
	}
	return v
}
