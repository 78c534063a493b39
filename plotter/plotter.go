package plotter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Bloeckchengrafik/convention25/toolpath"
	"github.com/Bloeckchengrafik/convention25/units"
)

// ErrBusy is returned when a job is submitted while another one is in
// flight. The plotter accepts a single job at a time.
var ErrBusy = errors.New("plotter: job already in flight")

// ErrTrapped is returned for submissions after an emergency stop,
// until the plotter is re-armed with a fresh trap.
var ErrTrapped = errors.New("plotter: emergency stop latched, re-arm required")

// State is the job controller's phase.
type State int

const (
	Idle State = iota
	Homing
	Executing
	Trapped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Homing:
		return "homing"
	case Executing:
		return "executing"
	case Trapped:
		return "trapped"
	default:
		return "unknown"
	}
}

const homingMaxSteps = 500000

type Config struct {
	X, Y  Axis
	Tools []Actuator

	Trap *Trap

	GearRatio   float64
	PlanarSpeed float64
	FlowRate    float64
	Timing      *ToolTiming
}

// A Plotter owns the motion pipeline for one machine: it homes the
// axes, feeds commands through the scheduler and drives the executor,
// with a trap check after every step. It enforces a single in-flight
// job by construction.
type Plotter struct {
	cfg   Config
	sched *Scheduler

	mx         sync.Mutex
	state      State
	activeTool int
}

func New(cfg Config) *Plotter {
	return &Plotter{
		cfg: cfg,
		sched: NewScheduler(SchedulerConfig{
			GearRatio:   cfg.GearRatio,
			PlanarSpeed: cfg.PlanarSpeed,
			FlowRate:    cfg.FlowRate,
			Timing:      cfg.Timing,
		}),
	}
}

func (p *Plotter) State() State {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.state
}

// SetFlowRate updates the tool flow rate. Rejected mid-job: the
// scheduler reads it without snapshot isolation.
func (p *Plotter) SetFlowRate(rate float64) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.state != Idle {
		return ErrBusy
	}
	p.cfg.FlowRate = rate
	p.sched.cfg.FlowRate = rate
	return nil
}

// SetToolTiming replaces the tool timing parameters. Rejected
// mid-job: the scheduler and executor read the shared values without
// snapshot isolation.
func (p *Plotter) SetToolTiming(t ToolTiming) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.state != Idle {
		return ErrBusy
	}
	*p.cfg.Timing = t
	return nil
}

// SubmitJob homes the machine and executes the command sequence.
// It blocks until the job finishes; a second submission while one is
// in flight returns ErrBusy.
func (p *Plotter) SubmitJob(commands []toolpath.Command) error {
	p.mx.Lock()
	switch p.state {
	case Trapped:
		p.mx.Unlock()
		return ErrTrapped
	case Idle:
	default:
		p.mx.Unlock()
		return ErrBusy
	}
	p.state = Homing
	p.mx.Unlock()

	err := p.runJob(commands)

	p.mx.Lock()
	if errors.Is(err, ErrEmergencyStop) {
		p.state = Trapped
	} else {
		p.state = Idle
	}
	p.mx.Unlock()

	return err
}

func (p *Plotter) runJob(commands []toolpath.Command) error {
	if err := p.home(); err != nil {
		return err
	}

	p.mx.Lock()
	p.state = Executing
	p.mx.Unlock()

	for _, cmd := range commands {
		switch c := cmd.(type) {
		case toolpath.SelectTool:
			if c.ID < 0 || c.ID >= len(p.cfg.Tools) {
				return fmt.Errorf("no tool %d", c.ID)
			}
			p.activeTool = c.ID
		case toolpath.Move:
			p.sched.Ingress(c.X, c.Y, false)
		case toolpath.Draw:
			p.sched.Ingress(c.X, c.Y, true)
		}

		exec := &Executor{
			X:      p.cfg.X,
			Y:      p.cfg.Y,
			Tool:   p.cfg.Tools[p.activeTool],
			Trap:   p.cfg.Trap,
			Timing: p.cfg.Timing,
		}
		if err := exec.Execute(p.sched.Take()); err != nil {
			return err
		}
		if err := p.cfg.Trap.Check(); err != nil {
			return err
		}
	}

	return nil
}

// home runs both axes against their endstops and then backs off to
// the work origin. The scheduler restarts from (0, 0) afterwards.
func (p *Plotter) home() error {
	if err := p.cfg.X.Homing(-homingMaxSteps); err != nil {
		return err
	}
	if err := p.cfg.Trap.Check(); err != nil {
		return err
	}
	if err := p.cfg.Y.Homing(homingMaxSteps); err != nil {
		return err
	}
	if err := p.cfg.Trap.Check(); err != nil {
		return err
	}

	if err := p.relativeMove(p.cfg.Y, -units.Centimeters(11.5).Steps(p.cfg.GearRatio)); err != nil {
		return err
	}
	if err := p.relativeMove(p.cfg.X, units.Centimeters(7.5).Steps(p.cfg.GearRatio)); err != nil {
		return err
	}

	p.sched.Reset()
	return nil
}

func (p *Plotter) relativeMove(a Actuator, steps int) error {
	if err := a.SetSpeed(p.cfg.PlanarSpeed); err != nil {
		return err
	}
	if err := a.SetDistance(steps, true); err != nil {
		return err
	}
	if err := a.RunAndWait(); err != nil {
		return err
	}
	return p.cfg.Trap.Check()
}

// Jog moves a single actuator by hand. Only allowed while idle.
func (p *Plotter) Jog(name string, steps int, speed float64) error {
	p.mx.Lock()
	if p.state != Idle {
		p.mx.Unlock()
		return ErrBusy
	}
	p.mx.Unlock()

	a, err := p.actuatorByName(name)
	if err != nil {
		return err
	}
	if err := a.SetSpeed(speed); err != nil {
		return err
	}
	if err := a.SetDistance(steps, true); err != nil {
		return err
	}
	if err := a.Run(); err != nil {
		return err
	}
	return p.cfg.Trap.Check()
}

func (p *Plotter) actuatorByName(name string) (Actuator, error) {
	switch name {
	case "x":
		return p.cfg.X, nil
	case "y":
		return p.cfg.Y, nil
	}
	var id int
	if n, _ := fmt.Sscanf(name, "tool%d", &id); n == 1 && id >= 0 && id < len(p.cfg.Tools) {
		return p.cfg.Tools[id], nil
	}
	return nil, fmt.Errorf("unknown actuator %q", name)
}

// Rearm installs a fresh trap after an emergency stop and returns the
// plotter to idle. The pending schedule is discarded.
func (p *Plotter) Rearm(t *Trap) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.state != Trapped {
		return errors.New("plotter: not trapped")
	}
	p.cfg.Trap = t
	p.sched.Reset()
	p.state = Idle
	return nil
}
