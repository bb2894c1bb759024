package utils

import "math"

// RoundMoney rounds an amount to the currency's minor unit (cents) using
// round half up, so 0.125 becomes 0.13. Kept separate from math.Round to make
// the rounding rule explicit and testable.
func RoundMoney(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// MoneyEqual reports whether two amounts agree within one cent. Used for the
// client expected-price check, where float transport may wobble the last
// digit.
func MoneyEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01+1e-9
}
