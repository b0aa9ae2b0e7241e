package money

import "math"

// ToZatoshis converts a ZEC amount to zatoshis rounding half-up at 1e8 scale.
func ToZatoshis(zec float64) (v uint64) {
	if zec <= 0 {
		return 0
	}
	return uint64(math.Round(zec * ZatoshiPerZec))
}

// ToZec is the exact inverse of ToZatoshis for display purposes.
func ToZec(zatoshis uint64) (zec float64) {
	return float64(zatoshis) / ZatoshiPerZec
}
