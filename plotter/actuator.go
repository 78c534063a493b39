// Package plotter schedules and executes multi-actuator motion for
// the XY plotter: it turns toolpath commands into a time-synchronized
// control-point sequence and drives the axis and tool motors from it
// under a latched emergency-stop interlock.
package plotter

// An Actuator is a stepper-driven axis or tool exposed by the
// hardware link. Every call is a round trip over the link and may
// block.
type Actuator interface {
	SetSpeed(stepsPerSecond float64) error
	SetDistance(steps int, relative bool) error

	// Run starts the configured move without waiting for it.
	Run() error
	// RunAndWait starts the configured move and blocks until the
	// motor reports completion.
	RunAndWait() error
	// Stop aborts the current move.
	Stop() error
	// WaitDone blocks until the current move completes.
	WaitDone() error
}

// An Axis is an actuator that can run against its endstop.
type Axis interface {
	Actuator

	// Homing drives toward the endstop, at most maxSteps (sign
	// selects the direction), and blocks until it is reached.
	Homing(maxSteps int) error
}

// A Switch delivers value-change notifications from the hardware
// link. Observers run on the link's read loop and must not block.
type Switch interface {
	Notify(func(pressed bool))
}

// A Halter broadcasts an immediate stop to every motor on the link.
type Halter interface {
	Halt() error
}
