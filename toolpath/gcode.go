package toolpath

import (
	"fmt"
	"math"

	"github.com/joushou/gocnc/gcode"

	"github.com/Bloeckchengrafik/convention25/units"
)

// FromGCode translates the restricted dialect emitted by the external
// slicers into commands: G0 is a travel move, G1 a draw, T selects a
// tool. Coordinates are absolute millimeters; unknown words are
// ignored so slicer boilerplate (units, homing) passes through.
func FromGCode(src string) ([]Command, error) {
	doc, err := gcode.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse gcode: %v", err)
	}

	var out []Command
	var x, y float64
	motion := -1.0

	for _, b := range doc.Blocks {
		if b.BlockDelete {
			continue
		}

		tool := -1.0
		seen := false

		for _, n := range b.Nodes {
			w, ok := n.(*gcode.Word)
			if !ok {
				continue
			}
			switch w.Address {
			case 'G':
				// motion mode is modal, other G words pass through
				if w.Command == 0 || w.Command == 1 {
					motion = w.Command
				}
			case 'T':
				tool = w.Command
			case 'X':
				x = w.Command
				seen = true
			case 'Y':
				y = w.Command
				seen = true
			}
		}

		if tool >= 0 {
			out = append(out, SelectTool{ID: int(tool)})
		}
		if !seen {
			continue
		}

		mx := units.Distance(math.Round(x))
		my := units.Distance(math.Round(y))
		switch motion {
		case 0:
			out = append(out, Move{X: mx, Y: my})
		case 1:
			out = append(out, Draw{X: mx, Y: my})
		}
	}

	return out, nil
}
