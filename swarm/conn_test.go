package swarm

import (
	"bufio"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Bloeckchengrafik/convention25/plotter"
)

// serveBus answers request lines like the swarm firmware would,
// recording everything it sees.
type busHarness struct {
	conn net.Conn

	mx    sync.Mutex
	lines []string

	handler func(line string) string
}

func newBus(t *testing.T) (*Conn, *busHarness) {
	local, remote := net.Pipe()
	bus := &busHarness{
		conn: remote,
		handler: func(line string) string {
			if line == "halt" {
				// broadcasts are not acknowledged
				return ""
			}
			return "ok"
		},
	}
	go bus.serve()
	t.Cleanup(func() { remote.Close() })
	return NewConn(local), bus
}

func (b *busHarness) serve() {
	scan := bufio.NewScanner(b.conn)
	for scan.Scan() {
		line := scan.Text()
		b.mx.Lock()
		b.lines = append(b.lines, line)
		handler := b.handler
		b.mx.Unlock()
		if reply := handler(line); reply != "" {
			b.conn.Write([]byte(reply + "\n"))
		}
	}
}

func (b *busHarness) respond(fn func(line string) string) {
	b.mx.Lock()
	b.handler = fn
	b.mx.Unlock()
}

func (b *busHarness) Lines() []string {
	b.mx.Lock()
	defer b.mx.Unlock()
	return append([]string(nil), b.lines...)
}

func TestConn_Send(t *testing.T) {
	conn, bus := newBus(t)

	v, err := conn.Send("ftSwarm400.M4", "setDistance", "-120", "1")
	assert.NoError(t, err)
	assert.Equal(t, "", v)
	assert.Equal(t, []string{"ftSwarm400.M4 setDistance -120 1"}, bus.Lines())
}

func TestConn_ValueReply(t *testing.T) {
	conn, bus := newBus(t)
	bus.respond(func(string) string { return "ok 1" })

	v, err := conn.Send("ftSwarm400.M4", "isRunning")
	assert.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestConn_ErrorReply(t *testing.T) {
	conn, bus := newBus(t)
	bus.respond(func(string) string { return "error: no such port" })

	_, err := conn.Send("nope", "run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no such port")
}

func TestConn_Halt(t *testing.T) {
	conn, bus := newBus(t)

	assert.NoError(t, conn.Halt())

	// the broadcast is fire-and-forget, give the bus a moment
	deadline := time.Now().Add(time.Second)
	for len(bus.Lines()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("halt never reached the bus")
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, []string{"halt"}, bus.Lines())
}

func TestConn_Notify(t *testing.T) {
	conn, bus := newBus(t)

	values := make(chan string, 1)
	conn.Notify("ftSwarm400.EM", func(v string) { values <- v })

	bus.conn.Write([]byte("!ftSwarm400.EM 1\n"))

	select {
	case v := <-values:
		assert.Equal(t, "1", v)
	case <-time.After(time.Second):
		t.Fatal("notification not dispatched")
	}
}

func TestStepper(t *testing.T) {
	conn, bus := newBus(t)
	s := NewStepper(conn, "ftSwarm400.M4")

	assert.NoError(t, s.SetSpeed(1000))
	assert.NoError(t, s.SetDistance(-120, true))
	assert.NoError(t, s.Run())
	assert.NoError(t, s.Stop())

	assert.Equal(t, []string{
		"ftSwarm400.M4 setSpeed 1000",
		"ftSwarm400.M4 setDistance -120 1",
		"ftSwarm400.M4 run",
		"ftSwarm400.M4 stop",
	}, bus.Lines())
}

func TestStepper_WaitDone(t *testing.T) {
	conn, bus := newBus(t)
	s := NewStepper(conn, "ftSwarm400.M4")

	polls := 0
	bus.respond(func(line string) string {
		if line == "ftSwarm400.M4 isRunning" {
			polls++
			if polls < 3 {
				return "ok 1"
			}
			return "ok 0"
		}
		return "ok"
	})

	assert.NoError(t, s.RunAndWait())
	assert.Equal(t, 3, polls)
}

func TestTrap_SharedConn(t *testing.T) {
	conn, bus := newBus(t)

	// halter and observed switch share one Conn, like the daemon
	// wires them; the latch must still engage from the read loop
	trap := plotter.NewTrap(conn)
	trap.Observe(NewSwitch(conn, "ftSwarm400.EM"))

	bus.conn.Write([]byte("!ftSwarm400.EM 1\n"))

	deadline := time.Now().Add(2 * time.Second)
	for trap.Check() == nil {
		if time.Now().After(deadline) {
			t.Fatal("trap never latched")
		}
		time.Sleep(time.Millisecond)
	}

	for {
		lines := bus.Lines()
		if len(lines) > 0 && lines[0] == "halt" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("halt broadcast never reached the bus")
		}
		time.Sleep(time.Millisecond)
	}

	// the un-acked broadcast must not desync the reply queue
	_, err := conn.Send("ftSwarm400.M4", "stop")
	assert.NoError(t, err)
}

func TestSwitch_Notify(t *testing.T) {
	conn, bus := newBus(t)
	sw := NewSwitch(conn, "ftSwarm400.EM")

	pressed := make(chan bool, 2)
	sw.Notify(func(p bool) { pressed <- p })

	bus.conn.Write([]byte("!ftSwarm400.EM 1\n"))
	assert.True(t, <-pressed)

	bus.conn.Write([]byte("!ftSwarm400.EM 0\n"))
	assert.False(t, <-pressed)
}
