// README: Common money value object used across modules.
package types

import "math"

const CurrencyINR = "INR"

// Money is an amount in the currency's minor unit (paise for INR).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// FromRupees rounds a rupee value to the nearest paisa.
func FromRupees(v float64) Money {
	return Money{Amount: int64(math.Round(v * 100)), Currency: CurrencyINR}
}

func (m Money) Rupees() float64 {
	return float64(m.Amount) / 100
}
