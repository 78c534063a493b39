// Package swarm speaks the line protocol of the ftSwarm stepper bus:
// one request per line, FIFO-acknowledged replies, and unsolicited
// notification lines for switch inputs.
package swarm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// A Conn is a connection to the swarm bus. Requests may be pipelined;
// the bus acknowledges them strictly in order with either
// "ok [value]" or "error: <message>". Lines starting with '!' are
// notifications ("!<port> <value>") and can arrive at any time.
type Conn struct {
	rw   io.ReadWriter
	scan *bufio.Scanner

	wMx sync.Mutex

	mx      sync.Mutex
	pending []chan reply

	obsMx     sync.Mutex
	observers map[string][]func(value string)

	closeCh chan struct{}
	closeMx sync.Mutex
	closed  bool
}

type reply struct {
	value string
	err   error
}

// NewConn creates a Conn on the provided ReadWriter and starts its
// read loop.
func NewConn(rw io.ReadWriter) *Conn {
	c := &Conn{
		rw:        rw,
		scan:      bufio.NewScanner(rw),
		observers: make(map[string][]func(string)),
		closeCh:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Close aborts pending requests and closes the underlying ReadWriter,
// if it implements io.Closer.
func (c *Conn) Close() error {
	c.closeMx.Lock()
	if !c.closed {
		c.closed = true
		close(c.closeCh)
	}
	c.closeMx.Unlock()
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Conn) readLoop() {
	for c.scan.Scan() {
		line := strings.TrimSpace(c.scan.Text())
		if line == "" {
			continue
		}
		if line[0] == '!' {
			c.dispatch(line[1:])
			continue
		}

		var r reply
		switch {
		case line == "ok":
		case strings.HasPrefix(line, "ok "):
			r.value = line[3:]
		case strings.HasPrefix(line, "error:"):
			r.err = errors.New(strings.TrimSpace(line[6:]))
		default:
			log.Println("ERROR: unexpected line:", line)
			continue
		}

		c.mx.Lock()
		if len(c.pending) == 0 {
			c.mx.Unlock()
			log.Println("ERROR: reply with no pending request:", line)
			continue
		}
		ch := c.pending[0]
		c.pending = c.pending[1:]
		c.mx.Unlock()
		ch <- r
	}
}

func (c *Conn) dispatch(line string) {
	port, value := line, ""
	if i := strings.IndexByte(line, ' '); i >= 0 {
		port, value = line[:i], line[i+1:]
	}
	c.obsMx.Lock()
	var fns []func(string)
	fns = append(fns, c.observers[port]...)
	c.obsMx.Unlock()
	for _, fn := range fns {
		fn(value)
	}
}

// Notify registers an observer for a port's notification lines. The
// observer runs on the read loop and must not block.
func (c *Conn) Notify(port string, fn func(value string)) {
	c.obsMx.Lock()
	c.observers[port] = append(c.observers[port], fn)
	c.obsMx.Unlock()
}

// Send issues one request line and blocks for its acknowledgement,
// returning the reply value if the bus sent one.
func (c *Conn) Send(port, verb string, args ...string) (string, error) {
	parts := append([]string{port, verb}, args...)
	return c.send(strings.Join(parts, " "))
}

// Halt broadcasts an immediate stop to every motor on the bus. The
// broadcast is not acknowledged and the write bypasses the reply
// queue, so Halt never waits on the read loop and is safe to call
// from a notification observer.
func (c *Conn) Halt() error {
	select {
	case <-c.closeCh:
		return io.ErrClosedPipe
	default:
	}
	c.wMx.Lock()
	_, err := io.WriteString(c.rw, "halt\n")
	c.wMx.Unlock()
	if err != nil {
		return fmt.Errorf("swarm: write halt: %v", err)
	}
	return nil
}

func (c *Conn) send(line string) (string, error) {
	select {
	case <-c.closeCh:
		return "", io.ErrClosedPipe
	default:
	}

	ch := make(chan reply, 1)
	c.mx.Lock()
	c.pending = append(c.pending, ch)
	c.mx.Unlock()

	c.wMx.Lock()
	_, err := io.WriteString(c.rw, line+"\n")
	c.wMx.Unlock()
	if err != nil {
		return "", fmt.Errorf("swarm: write %q: %v", line, err)
	}

	select {
	case <-c.closeCh:
		return "", io.ErrClosedPipe
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("swarm: %s: %v", line, r.err)
		}
		return r.value, nil
	}
}
