package coord

import (
	"math"
)

// Tolerance is the max signed-area error when checking collinearity.
const Tolerance = 1e-6

// Area2 returns twice the signed area of the triangle a, b, c.
func Area2(a, b, c Point) float64 {
	return (b.Y-a.Y)*(c.X-b.X) - (b.X-a.X)*(c.Y-b.Y)
}

// Collinear returns true if a, b, and c lie on one line,
// within Tolerance of signed area.
func Collinear(a, b, c Point) bool {
	return math.Abs(Area2(a, b, c)) < Tolerance
}
