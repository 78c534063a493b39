// Package toolpath holds the plotter command model and the
// optimization passes that run before a job is scheduled.
package toolpath

import (
	"github.com/Bloeckchengrafik/convention25/coord"
	"github.com/Bloeckchengrafik/convention25/units"
)

// Command is one toolpath primitive. The set is closed: Move, Draw
// and SelectTool are the only implementations, and the scheduler and
// optimizer passes switch over them exhaustively.
type Command interface {
	command()
}

// Move travels to (X, Y) with the tool disengaged.
type Move struct {
	X, Y units.Distance
}

// Draw moves to (X, Y) with the tool engaged.
type Draw struct {
	X, Y units.Distance
}

// SelectTool makes the tool with the given id the active one.
type SelectTool struct {
	ID int
}

func (Move) command()       {}
func (Draw) command()       {}
func (SelectTool) command() {}

// point returns the target of a Move or Draw in millimeters.
func point(cmd Command) (coord.Point, bool) {
	switch c := cmd.(type) {
	case Move:
		return coord.Point{X: float64(c.X), Y: float64(c.Y)}, true
	case Draw:
		return coord.Point{X: float64(c.X), Y: float64(c.Y)}, true
	}
	return coord.Point{}, false
}
