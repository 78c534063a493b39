package plotter

import (
	"math"

	"github.com/Bloeckchengrafik/convention25/units"
)

// minToolSpeed keeps tool commands out of the near-zero speed range
// the motor driver cannot execute reliably.
const minToolSpeed = 50

type SchedulerConfig struct {
	// GearRatio converts millimeter targets into axis steps.
	GearRatio float64

	// PlanarSpeed is the constant velocity of the pen across the
	// plane, in steps per second.
	PlanarSpeed float64

	// FlowRate is the number of tool steps per planar step drawn.
	FlowRate float64

	// Timing supplies the retraction parameters; read at ingress time.
	Timing *ToolTiming
}

// A Scheduler ingests toolpath targets one at a time and grows the
// pending control-point schedule. It owns its state exclusively:
// Ingress must never run concurrently with an executing job.
type Scheduler struct {
	cfg SchedulerConfig

	stepX, stepY int
	drawing      bool
	clock        float64

	points []TimedControlPoint
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	return &Scheduler{cfg: cfg}
}

// Ingress converts the target to step space (the X axis is mirrored),
// synthesizes a retraction or priming point when the draw state flips,
// and appends one constant-velocity control point for the planar move.
// A zero planar delta produces no motion point.
func (s *Scheduler) Ingress(x, y units.Distance, draw bool) {
	targetX := -x.Steps(s.cfg.GearRatio)
	targetY := y.Steps(s.cfg.GearRatio)
	dx := targetX - s.stepX
	dy := targetY - s.stepY

	if s.drawing != draw {
		if s.drawing {
			s.appendRetraction(-1)
		} else {
			s.appendRetraction(+1)
		}
		s.drawing = draw
	}

	s.stepX, s.stepY = targetX, targetY
	if dx == 0 && dy == 0 {
		return
	}

	angle := math.Atan2(float64(dy), float64(dx))
	speedX := math.Abs(s.cfg.PlanarSpeed * math.Cos(angle))
	speedY := math.Abs(s.cfg.PlanarSpeed * math.Sin(angle))

	// a zero axis speed contributes zero time rather than faulting
	var timeX, timeY float64
	if speedX != 0 {
		timeX = math.Abs(float64(dx)) / speedX
	}
	if speedY != 0 {
		timeY = math.Abs(float64(dy)) / speedY
	}
	duration := math.Max(timeX, timeY)

	point := TimedControlPoint{
		X:        MotorCommand{Steps: dx, Speed: speedX},
		Y:        MotorCommand{Steps: dy, Speed: speedY},
		Duration: duration,
	}

	if draw {
		planar := math.Hypot(float64(dx), float64(dy))
		toolSteps := int(math.Round(planar * s.cfg.FlowRate))
		toolSpeed := float64(minToolSpeed)
		if duration > 0 {
			toolSpeed = math.Max(math.Abs(float64(toolSteps))/duration, minToolSpeed)
		}
		point.Tool = MotorCommand{Steps: toolSteps, Speed: toolSpeed}
	}

	s.append(point)
}

// appendRetraction emits the synthetic tool-only point for a
// draw/travel transition: -RetractionSteps pulls back, + primes.
func (s *Scheduler) appendRetraction(sign int) {
	t := s.cfg.Timing
	if t == nil || t.RetractionSteps == 0 {
		return
	}
	var duration float64
	if t.RetractionSpeed != 0 {
		duration = float64(t.RetractionSteps) / t.RetractionSpeed
	}
	s.append(TimedControlPoint{
		Tool:       MotorCommand{Steps: sign * t.RetractionSteps, Speed: t.RetractionSpeed},
		Duration:   duration,
		Retraction: true,
	})
}

func (s *Scheduler) append(p TimedControlPoint) {
	p.StartTime = s.clock
	s.clock += p.Duration
	s.points = append(s.points, p)
}

// Points returns the pending schedule.
func (s *Scheduler) Points() []TimedControlPoint {
	return s.points
}

// Take drains the pending schedule. The position and draw state carry
// over so the next Ingress continues from where the job left off.
func (s *Scheduler) Take() []TimedControlPoint {
	p := s.points
	s.points = nil
	s.clock = 0
	return p
}

// Reset clears everything, returning the scheduler to the homed
// origin. Required before reusing it for a new job.
func (s *Scheduler) Reset() {
	s.points = nil
	s.clock = 0
	s.stepX, s.stepY = 0, 0
	s.drawing = false
}
