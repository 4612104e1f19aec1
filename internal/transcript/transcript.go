// Package transcript accumulates per-task output blocks and compares
// the full run against a stored golden file.
package transcript

import (
	"fmt"
	"strings"
)

// Transcript is the ordered sequence of per-task textual summaries for
// one run. Append-only; immutable once rendered.
type Transcript struct {
	blocks []string
	tasks  int
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// SetTaskCount records the number of processed tasks for the header.
func (t *Transcript) SetTaskCount(n int) {
	t.tasks = n
}

// Append adds one block (init block or task summary). Blocks are
// separated by blank lines when rendered.
func (t *Transcript) Append(block string) {
	t.blocks = append(t.blocks, strings.TrimRight(block, "\n"))
}

// Render produces the full transcript text, the byte-exact contract
// golden files are compared against.
func (t *Transcript) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "processed %d tasks", t.tasks)
	for _, blk := range t.blocks {
		b.WriteString("\n\n")
		b.WriteString(blk)
	}
	b.WriteString("\n")
	return b.String()
}
