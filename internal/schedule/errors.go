package schedule

import "strings"

// ResourceExhausted is raised when the placement planner's strategy ladder
// fails to fit a statement's I/O within the configured memory budget.
type ResourceExhausted struct {
	// Block is the name of the block being scheduled, empty if the
	// top-level statement wasn't itself a block.
	Block string

	// Refs lists the refinements that were simultaneously required and
	// could not be placed.
	Refs []string
}

func (e *ResourceExhausted) Error() string {
	var b strings.Builder
	b.WriteString("schedule: program requires more memory than is available")
	if e.Block != "" {
		b.WriteString(" (block ")
		b.WriteString(e.Block)
		b.WriteString(")")
	}
	if len(e.Refs) > 0 {
		b.WriteString(": simultaneously requires ")
		b.WriteString(strings.Join(e.Refs, ", "))
	}
	return b.String()
}
