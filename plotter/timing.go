package plotter

// ToolTiming compensates for the tool actuator's response lag.
// It is shared configuration: updating it while a job is executing is
// not allowed, the executor reads it per dispatched item.
type ToolTiming struct {
	// LeadTime starts the tool this many seconds before the axes,
	// LagTime stops it this many seconds before the move ends.
	LeadTime float64
	LagTime  float64

	// RetractionSteps is pulled back on draw->travel transitions and
	// primed again on travel->draw, at RetractionSpeed.
	RetractionSteps int
	RetractionSpeed float64
}

// A MotorCommand is one relative move of a single actuator.
// The zero value commands no motion.
type MotorCommand struct {
	Steps int
	Speed float64
}

// A TimedControlPoint is one slot of the motion schedule: up to three
// simultaneous motor commands with an absolute start time relative to
// job start. Points never overlap; StartTime of point i+1 equals
// StartTime[i]+Duration[i].
type TimedControlPoint struct {
	X, Y, Tool MotorCommand

	StartTime float64
	Duration  float64

	// Retraction marks synthetic retraction/priming points, which are
	// dispatched with unskewed timing.
	Retraction bool
}
