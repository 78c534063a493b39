package toolpath

import (
	"sort"
)

// GroupByTool buckets Move/Draw work by the tool established before it
// and rebuilds the sequence with exactly one SelectTool per used tool,
// tool ids ascending. Work before the first SelectTool has no tool to
// run on and is dropped. Cross-tool interleaving in the input is lost.
func GroupByTool(commands []Command) []Command {
	buckets := make(map[int][]Command)
	tool := 0
	selected := false

	for _, cmd := range commands {
		if sel, ok := cmd.(SelectTool); ok {
			tool, selected = sel.ID, true
			continue
		}
		if !selected {
			continue
		}
		buckets[tool] = append(buckets[tool], cmd)
	}

	ids := make([]int, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var out []Command
	for _, id := range ids {
		out = append(out, SelectTool{ID: id})
		out = append(out, buckets[id]...)
	}

	return out
}
