package coord

import (
	"math"
)

type Point struct{ X, Y float64 }

func (p Point) Equal(b Point) bool {
	return p.X == b.X && p.Y == b.Y
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	return p
}

func (p Point) Mul(val float64) Point {
	p.X *= val
	p.Y *= val
	return p
}

// Distance will return the Euclidean distance from p to the target.
func (p Point) Distance(target Point) float64 {
	return math.Sqrt(math.Pow(target.X-p.X, 2) + math.Pow(target.Y-p.Y, 2))
}
