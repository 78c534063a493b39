package plotter

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeActuator struct {
	mx    sync.Mutex
	calls []string
	err   error
	delay time.Duration
}

func (f *fakeActuator) record(format string, args ...interface{}) error {
	f.mx.Lock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	f.mx.Unlock()
	return f.err
}

func (f *fakeActuator) Calls() []string {
	f.mx.Lock()
	defer f.mx.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeActuator) SetSpeed(speed float64) error { return f.record("speed %.0f", speed) }
func (f *fakeActuator) SetDistance(steps int, relative bool) error {
	return f.record("distance %d %v", steps, relative)
}
func (f *fakeActuator) Run() error  { return f.record("run") }
func (f *fakeActuator) Stop() error { return f.record("stop") }
func (f *fakeActuator) RunAndWait() error {
	time.Sleep(f.delay)
	return f.record("runAndWait")
}
func (f *fakeActuator) WaitDone() error { return f.record("waitDone") }

type fakeAxis struct {
	fakeActuator
}

func (f *fakeAxis) Homing(maxSteps int) error {
	time.Sleep(f.delay)
	return f.record("homing %d", maxSteps)
}

var _ Actuator = &fakeActuator{}
var _ Axis = &fakeAxis{}

type fakeHalter struct {
	mx     sync.Mutex
	halted bool
}

func (f *fakeHalter) Halt() error {
	f.mx.Lock()
	f.halted = true
	f.mx.Unlock()
	return nil
}

func (f *fakeHalter) Halted() bool {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.halted
}

func newTestExecutor() (*Executor, *fakeActuator, *fakeActuator, *fakeActuator) {
	x := &fakeActuator{}
	y := &fakeActuator{}
	tool := &fakeActuator{}
	e := &Executor{
		X:      x,
		Y:      y,
		Tool:   tool,
		Trap:   NewTrap(nil),
		Timing: testTiming(),
	}
	return e, x, y, tool
}

func TestExecutor_Empty(t *testing.T) {
	e, x, y, tool := newTestExecutor()
	assert.NoError(t, e.Execute(nil))
	assert.Empty(t, x.Calls())
	assert.Empty(t, y.Calls())
	assert.Empty(t, tool.Calls())
}

func TestExecutor_DrawPoint(t *testing.T) {
	e, x, y, tool := newTestExecutor()

	err := e.Execute([]TimedControlPoint{{
		X:        MotorCommand{Steps: -10, Speed: 1000},
		Y:        MotorCommand{Steps: 0},
		Tool:     MotorCommand{Steps: 10, Speed: 1000},
		Duration: 0.01,
	}})
	assert.NoError(t, err)

	assert.Equal(t, []string{"speed 1000", "distance -10 true", "runAndWait"}, x.Calls())
	// a zero command moves nothing
	assert.Empty(t, y.Calls())
	// the tool runs open-loop and is stopped explicitly
	assert.Equal(t, []string{"speed 1000", "distance 10 true", "run", "stop"}, tool.Calls())
}

func TestExecutor_RetractionPoint(t *testing.T) {
	e, x, _, tool := newTestExecutor()

	err := e.Execute([]TimedControlPoint{{
		Tool:       MotorCommand{Steps: -50, Speed: 1000},
		Duration:   0.05,
		Retraction: true,
	}})
	assert.NoError(t, err)

	// retraction always waits for natural completion
	assert.Equal(t, []string{"speed 1000", "distance -50 true", "runAndWait"}, tool.Calls())
	assert.Empty(t, x.Calls())
}

func TestExecutor_LeadLagClamped(t *testing.T) {
	e, _, _, tool := newTestExecutor()
	e.Timing.LeadTime = 5
	e.Timing.LagTime = 5

	// lead/lag far exceed the move; timing clamps to zero instead of
	// scheduling into the past
	done := make(chan error, 1)
	go func() {
		done <- e.Execute([]TimedControlPoint{{
			X:        MotorCommand{Steps: 1, Speed: 1000},
			Tool:     MotorCommand{Steps: 10, Speed: 1000},
			Duration: 0.01,
		}})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("executor blocked on clamped lead/lag timing")
	}

	// still explicitly stopped, never left running to completion
	assert.Equal(t, []string{"speed 1000", "distance 10 true", "run", "stop"}, tool.Calls())
}

func TestExecutor_Ordering(t *testing.T) {
	e, x, _, _ := newTestExecutor()

	err := e.Execute([]TimedControlPoint{
		{X: MotorCommand{Steps: 5, Speed: 1000}, StartTime: 0, Duration: 0.01},
		{X: MotorCommand{Steps: -5, Speed: 1000}, StartTime: 0.01, Duration: 0.01},
	})
	assert.NoError(t, err)

	// strict enqueue order within the axis channel
	assert.Equal(t, []string{
		"speed 1000", "distance 5 true", "runAndWait",
		"speed 1000", "distance -5 true", "runAndWait",
	}, x.Calls())
}

func TestExecutor_TrapAbort(t *testing.T) {
	e, x, _, _ := newTestExecutor()
	e.Trap.Trip()

	err := e.Execute([]TimedControlPoint{
		{X: MotorCommand{Steps: 5, Speed: 1000}, Duration: 0.01},
		{X: MotorCommand{Steps: 5, Speed: 1000}, StartTime: 0.01, Duration: 0.01},
	})
	assert.Equal(t, ErrEmergencyStop, err)

	// the in-flight item completed, the rest never dispatched
	assert.Equal(t, []string{"speed 1000", "distance 5 true", "runAndWait"}, x.Calls())
}

func TestExecutor_HardwareError(t *testing.T) {
	e, x, _, _ := newTestExecutor()
	boom := errors.New("boom")
	x.err = boom

	err := e.Execute([]TimedControlPoint{
		{X: MotorCommand{Steps: 5, Speed: 1000}, Duration: 0.01},
	})
	assert.Equal(t, boom, err)
}

func TestTrap(t *testing.T) {
	halter := &fakeHalter{}
	trap := NewTrap(halter)

	// never raises before tripping
	assert.NoError(t, trap.Check())
	assert.NoError(t, trap.Check())

	trap.Trip()
	assert.True(t, halter.Halted())
	assert.Equal(t, ErrEmergencyStop, trap.Check())
	// latched: every subsequent call fails
	assert.Equal(t, ErrEmergencyStop, trap.Check())
}

type fakeSwitch struct {
	fn func(bool)
}

func (f *fakeSwitch) Notify(fn func(bool)) { f.fn = fn }

func TestTrap_Observe(t *testing.T) {
	halter := &fakeHalter{}
	trap := NewTrap(halter)
	sw := &fakeSwitch{}
	trap.Observe(sw)

	sw.fn(false)
	assert.NoError(t, trap.Check())

	sw.fn(true)
	assert.Equal(t, ErrEmergencyStop, trap.Check())
	assert.True(t, halter.Halted())
}
