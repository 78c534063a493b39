// Package units converts plotter distances into motor steps.
//
// The axes ride on worm screws of module 1.5, so one screw rotation
// advances the carriage by the screw lead of 1.5*pi millimeters.
package units

import (
	"errors"
	"math"
)

const (
	wormModule = 1.5
	wormLead   = wormModule * math.Pi

	// StepsPerRotation is the full-step count of the swarm steppers.
	StepsPerRotation = 200
)

var ErrZeroTeeth = errors.New("units: number of teeth cannot be zero")

// Distance is a length in whole millimeters.
type Distance int

func Millimeters(mm int) Distance  { return Distance(mm) }
func Centimeters(cm float64) Distance { return Distance(cm * 10) }

func (d Distance) Millimeters() int { return int(d) }

// Steps converts the distance to motor steps:
// mm -> screw rotations -> axis rotations -> steps.
func (d Distance) Steps(gearRatio float64) int {
	return int(math.Round(float64(d) / wormLead * StepsPerRotation * gearRatio))
}

// GearRatio returns the ratio between the motor gear and the driven gear.
func GearRatio(motorTeeth, sinkTeeth int) (float64, error) {
	if motorTeeth == 0 || sinkTeeth == 0 {
		return 0, ErrZeroTeeth
	}
	return float64(motorTeeth) / float64(sinkTeeth), nil
}
