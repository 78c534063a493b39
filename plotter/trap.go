package plotter

import (
	"errors"
	"log"
	"sync/atomic"
)

// ErrEmergencyStop is returned by Trap.Check once the trap has
// tripped. The current job is fatally aborted; no automatic resume.
var ErrEmergencyStop = errors.New("plotter: emergency stop")

// A Trap is the latched emergency-stop state. It observes the safety
// switch; on a stop-indicating value it broadcasts a halt-all over the
// hardware link and then latches. The latch is never cleared: motion
// code polls Check after every blocking hardware call, and a tripped
// machine stays poisoned until a new Trap is armed.
type Trap struct {
	halt    Halter
	tripped atomic.Bool
}

func NewTrap(halt Halter) *Trap {
	return &Trap{halt: halt}
}

// Observe registers the trap on the safety switch.
func (t *Trap) Observe(sw Switch) {
	sw.Notify(func(pressed bool) {
		if pressed {
			t.Trip()
		}
	})
}

// Trip halts all motors and latches. The halt goes out first so the
// hardware stops even if nothing polls Check for a while.
func (t *Trap) Trip() {
	if t.halt != nil {
		if err := t.halt.Halt(); err != nil {
			log.Println("ERROR: halt broadcast:", err)
		}
	}
	t.tripped.Store(true)
}

// Check returns ErrEmergencyStop once tripped, nil before.
func (t *Trap) Check() error {
	if t.tripped.Load() {
		return ErrEmergencyStop
	}
	return nil
}
