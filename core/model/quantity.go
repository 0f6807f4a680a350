package model

import "github.com/shopspring/decimal"

// kgPlaces is the precision of stored quantities: one gram.
const kgPlaces = 3

func kg(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(kgPlaces)
}

// RoundKg rounds a quantity to gram precision.
func RoundKg(v float64) float64 {
	return kg(v).InexactFloat64()
}

// SubKg returns a-b computed exactly at gram precision.
func SubKg(a, b float64) float64 {
	return kg(a).Sub(kg(b)).InexactFloat64()
}

// SumKg adds quantities exactly at gram precision.
func SumKg(vs ...float64) float64 {
	total := decimal.Zero
	for _, v := range vs {
		total = total.Add(kg(v))
	}
	return total.InexactFloat64()
}

// MinKg returns the smaller of a and b rounded to gram precision.
func MinKg(a, b float64) float64 {
	if a < b {
		return RoundKg(a)
	}
	return RoundKg(b)
}

// RemainderKg returns q-take where q keeps its full precision and take is
// rounded to grams, so the result plus take gives back q exactly.
func RemainderKg(q, take float64) float64 {
	return decimal.NewFromFloat(q).Sub(kg(take)).InexactFloat64()
}
