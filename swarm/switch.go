package swarm

import (
	"github.com/Bloeckchengrafik/convention25/plotter"
)

// A Switch is the proxy for one switch input. The bus pushes a
// notification line whenever the value changes.
type Switch struct {
	conn *Conn
	port string
}

var _ plotter.Switch = &Switch{}

func NewSwitch(conn *Conn, port string) *Switch {
	return &Switch{conn: conn, port: port}
}

func (s *Switch) Notify(fn func(pressed bool)) {
	s.conn.Notify(s.port, func(value string) {
		fn(value != "0" && value != "")
	})
}

// IsPressed reads the current value synchronously.
func (s *Switch) IsPressed() (bool, error) {
	v, err := s.conn.Send(s.port, "getValue")
	if err != nil {
		return false, err
	}
	return v != "0" && v != "", nil
}
