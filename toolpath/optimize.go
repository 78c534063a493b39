package toolpath

// Optimize runs the standard pass pipeline: collinear merge, tool
// grouping, then greedy path reordering.
func Optimize(commands []Command) []Command {
	passes := []func([]Command) []Command{
		MergeCollinear,
		GroupByTool,
		ReorderGreedy,
	}
	for _, pass := range passes {
		commands = pass(commands)
	}
	return commands
}
