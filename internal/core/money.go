// AngelaMos | 2026
// money.go

package core

import (
	"math"
)

// Round2 rounds to cents, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
