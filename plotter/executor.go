package plotter

import (
	"log"
	"time"
)

// An Executor dispatches a control-point schedule to three concurrent
// per-actuator controllers synchronized against one shared start time.
// The axis controllers run every command to natural completion; the
// tool controller starts non-retraction items LeadTime early and stops
// them LagTime before the move ends, compensating for the tool's
// engagement delay.
type Executor struct {
	X, Y, Tool Actuator

	Trap   *Trap
	Timing *ToolTiming
}

type execItem struct {
	cmd        MotorCommand
	start      float64
	duration   float64
	retraction bool
}

// Execute runs the schedule to completion. It is a no-op on an empty
// schedule. On completion or error every controller is shut down and
// joined before returning; controllers never outlive one call.
func (e *Executor) Execute(points []TimedControlPoint) error {
	if len(points) == 0 {
		return nil
	}

	xCh := make(chan execItem, len(points))
	yCh := make(chan execItem, len(points))
	toolCh := make(chan execItem, len(points))
	for _, p := range points {
		xCh <- execItem{cmd: p.X, start: p.StartTime}
		yCh <- execItem{cmd: p.Y, start: p.StartTime}
		toolCh <- execItem{cmd: p.Tool, start: p.StartTime, duration: p.Duration, retraction: p.Retraction}
	}
	close(xCh)
	close(yCh)
	close(toolCh)

	// one shared reference time for all three controllers
	t0 := time.Now()
	stop := make(chan struct{})
	done := make(chan error, 3)

	go func() { done <- e.axisController(e.X, xCh, t0, stop) }()
	go func() { done <- e.axisController(e.Y, yCh, t0, stop) }()
	go func() { done <- e.toolController(toolCh, t0, stop) }()

	var firstErr error
	stopped := false
	for i := 0; i < 3; i++ {
		err := <-done
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if err != nil && !stopped {
			close(stop)
			stopped = true
		}
	}
	if !stopped {
		close(stop)
	}

	return firstErr
}

// axisController consumes its channel strictly in enqueue order. Items
// already due are run immediately; the controller never sleeps
// backward and never skips work, so it catches up as fast as it can.
func (e *Executor) axisController(a Actuator, ch chan execItem, t0 time.Time, stop chan struct{}) error {
	for item := range ch {
		if !waitUntil(t0, item.start, stop) {
			return nil
		}
		if item.cmd.Steps != 0 {
			if err := a.SetSpeed(item.cmd.Speed); err != nil {
				return err
			}
			if err := a.SetDistance(item.cmd.Steps, true); err != nil {
				return err
			}
			if err := a.RunAndWait(); err != nil {
				return err
			}
		}
		if err := e.Trap.Check(); err != nil {
			return err
		}
	}
	return nil
}

// toolController applies the lead/lag skew: non-retraction items start
// early, run open-loop for the skewed duration and are stopped
// explicitly rather than waiting for natural completion. Retraction
// and priming items use unskewed timing and full completion.
func (e *Executor) toolController(ch chan execItem, t0 time.Time, stop chan struct{}) error {
	for item := range ch {
		start := item.start
		duration := item.duration
		if !item.retraction {
			// clamped so large lead/lag can never schedule into the past
			start = clampPositive(start - e.Timing.LeadTime)
			duration = clampPositive(item.duration - e.Timing.LagTime)
		}
		if !waitUntil(t0, start, stop) {
			return nil
		}
		if item.cmd.Steps == 0 {
			if err := e.Trap.Check(); err != nil {
				return err
			}
			continue
		}

		if err := e.Tool.SetSpeed(item.cmd.Speed); err != nil {
			return err
		}
		if err := e.Tool.SetDistance(item.cmd.Steps, true); err != nil {
			return err
		}

		if item.retraction {
			if err := e.Tool.RunAndWait(); err != nil {
				return err
			}
		} else {
			if err := e.Tool.Run(); err != nil {
				return err
			}
			if !sleepFor(duration, stop) {
				// aborted mid-move; the motor is still running
				if err := e.Tool.Stop(); err != nil {
					log.Println("ERROR: tool stop:", err)
				}
				return nil
			}
			if err := e.Tool.Stop(); err != nil {
				return err
			}
		}

		if err := e.Trap.Check(); err != nil {
			return err
		}
	}
	return nil
}

func clampPositive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// waitUntil sleeps until t0+offset seconds. It returns false if the
// shutdown signal fired first.
func waitUntil(t0 time.Time, offset float64, stop chan struct{}) bool {
	return sleepFor(time.Until(t0.Add(secs(offset))).Seconds(), stop)
}

func sleepFor(seconds float64, stop chan struct{}) bool {
	if seconds <= 0 {
		return true
	}
	timer := time.NewTimer(secs(seconds))
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	}
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
