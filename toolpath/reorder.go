package toolpath

import (
	"github.com/Bloeckchengrafik/convention25/coord"
)

// segment is a maximal run of commands reachable without lifting a
// boundary: a Move followed by the Draws that extend it.
type segment struct {
	commands   []Command
	start, end coord.Point
}

// ReorderGreedy reorders segments to shorten travel moves. Segments
// are split at every Move boundary; Draw commands extend the current
// segment. Ordering is nearest-neighbor greedy: starting from the
// first segment, the unvisited segment whose start is closest to the
// previous segment's end comes next (strict less-than, first found
// wins ties).
//
// SelectTool commands are fences: segments never cross one, and each
// fence is emitted verbatim at the head of its block, so the
// contiguity that GroupByTool established survives this pass.
func ReorderGreedy(commands []Command) []Command {
	if len(commands) == 0 {
		return nil
	}

	var out []Command
	var block []Command

	flush := func() {
		out = append(out, reorderBlock(block)...)
		block = nil
	}

	for _, cmd := range commands {
		if sel, ok := cmd.(SelectTool); ok {
			flush()
			out = append(out, sel)
			continue
		}
		block = append(block, cmd)
	}
	flush()

	return out
}

func reorderBlock(commands []Command) []Command {
	var segs []segment
	var cur []Command

	flush := func() {
		if s, ok := makeSegment(cur); ok {
			segs = append(segs, s)
		}
		cur = nil
	}

	for _, cmd := range commands {
		if _, ok := cmd.(Move); ok {
			flush()
		}
		cur = append(cur, cmd)
	}
	flush()

	if len(segs) == 0 {
		return nil
	}

	out := make([]Command, 0, len(commands))
	out = append(out, segs[0].commands...)
	last := segs[0].end
	segs = segs[1:]

	for len(segs) > 0 {
		closest := 0
		min := last.Distance(segs[0].start)
		for i, s := range segs[1:] {
			if d := last.Distance(s.start); d < min {
				min = d
				closest = i + 1
			}
		}
		out = append(out, segs[closest].commands...)
		last = segs[closest].end
		segs = append(segs[:closest], segs[closest+1:]...)
	}

	return out
}

// makeSegment derives the boundary points of a command run. Runs
// without any point-bearing command are discarded.
func makeSegment(commands []Command) (segment, bool) {
	s := segment{commands: commands}
	found := false
	for _, cmd := range commands {
		p, ok := point(cmd)
		if !ok {
			continue
		}
		if !found {
			s.start = p
			found = true
		}
		s.end = p
	}
	return s, found
}
