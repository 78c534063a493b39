package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_Steps(t *testing.T) {
	// one full screw lead is exactly one rotation
	d := Distance(math.Round(wormLead))
	assert.Equal(t, int(math.Round(float64(d)/wormLead*200)), d.Steps(1))

	assert.Equal(t, 0, Millimeters(0).Steps(1))

	// 10mm at ratio 1: 10 / (1.5*pi) * 200 = 424.4131... -> 424
	assert.Equal(t, 424, Millimeters(10).Steps(1))

	// gear ratio halves the steps
	assert.Equal(t, 212, Millimeters(10).Steps(0.5))

	// negative distances mirror
	assert.Equal(t, -424, Millimeters(-10).Steps(1))
}

func TestCentimeters(t *testing.T) {
	assert.Equal(t, Millimeters(115), Centimeters(11.5))
}

func TestGearRatio(t *testing.T) {
	r, err := GearRatio(10, 20)
	assert.NoError(t, err)
	assert.Equal(t, 0.5, r)

	_, err = GearRatio(0, 20)
	assert.Equal(t, ErrZeroTeeth, err)

	_, err = GearRatio(10, 0)
	assert.Equal(t, ErrZeroTeeth, err)
}
