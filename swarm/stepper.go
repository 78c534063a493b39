package swarm

import (
	"math"
	"strconv"
	"time"

	"github.com/Bloeckchengrafik/convention25/plotter"
)

// pollInterval paces the isRunning polls used to wait for motor
// completion.
const pollInterval = 25 * time.Millisecond

// A Stepper is the proxy for one stepper motor port on the bus.
type Stepper struct {
	conn *Conn
	port string
}

var _ plotter.Axis = &Stepper{}

func NewStepper(conn *Conn, port string) *Stepper {
	return &Stepper{conn: conn, port: port}
}

func (s *Stepper) Port() string { return s.port }

func (s *Stepper) SetSpeed(stepsPerSecond float64) error {
	_, err := s.conn.Send(s.port, "setSpeed", strconv.Itoa(int(math.Round(stepsPerSecond))))
	return err
}

func (s *Stepper) SetDistance(steps int, relative bool) error {
	rel := "0"
	if relative {
		rel = "1"
	}
	_, err := s.conn.Send(s.port, "setDistance", strconv.Itoa(steps), rel)
	return err
}

func (s *Stepper) Run() error {
	_, err := s.conn.Send(s.port, "run")
	return err
}

func (s *Stepper) Stop() error {
	_, err := s.conn.Send(s.port, "stop")
	return err
}

func (s *Stepper) RunAndWait() error {
	if err := s.Run(); err != nil {
		return err
	}
	return s.WaitDone()
}

// WaitDone polls the motor until it reports not running.
func (s *Stepper) WaitDone() error {
	for {
		running, err := s.conn.Send(s.port, "isRunning")
		if err != nil {
			return err
		}
		if running != "1" {
			return nil
		}
		time.Sleep(pollInterval)
	}
}

// Homing drives the motor toward its endstop, at most maxSteps, and
// waits for it to finish.
func (s *Stepper) Homing(maxSteps int) error {
	if _, err := s.conn.Send(s.port, "homing", strconv.Itoa(maxSteps)); err != nil {
		return err
	}
	return s.WaitDone()
}
