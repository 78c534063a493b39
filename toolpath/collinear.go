package toolpath

import (
	"github.com/Bloeckchengrafik/convention25/coord"
)

// MergeCollinear combines runs of Draw commands that lie on one line
// into a single Draw ending at the furthest point. It never reorders,
// so the output is at most as long as the input.
//
// The test keeps the run's start point fixed: a candidate endpoint
// only extends the previous Draw when run start, previous endpoint
// and candidate are collinear within coord.Tolerance.
func MergeCollinear(commands []Command) []Command {
	if len(commands) == 0 {
		return nil
	}

	out := []Command{commands[0]}

	// the pen starts at the origin; only a leading Move relocates it
	var cur coord.Point
	if _, ok := commands[0].(Move); ok {
		cur, _ = point(commands[0])
	}

	runStart := cur
	drawing := false

	for _, cmd := range commands[1:] {
		d, isDraw := cmd.(Draw)
		if !isDraw {
			// any non-Draw closes the run
			drawing = false
			out = append(out, cmd)
			if p, ok := point(cmd); ok {
				cur = p
			}
			continue
		}

		if !drawing {
			runStart = cur
			drawing = true
		}

		candPt, _ := point(d)
		if prev, ok := out[len(out)-1].(Draw); ok {
			prevPt, _ := point(prev)
			if coord.Collinear(runStart, prevPt, candPt) {
				// extend the previous segment to the new endpoint
				out[len(out)-1] = d
			} else {
				out = append(out, d)
				runStart = prevPt
			}
		} else {
			// first Draw after a Move or SelectTool is kept verbatim
			out = append(out, d)
		}
		cur = candPt
	}

	return out
}
