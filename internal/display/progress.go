package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/harrison/binmeta/internal/logger"
)

// ProgressIndicator prints one line per step of a bulk action.
type ProgressIndicator struct {
	writer  io.Writer
	title   string
	total   int
	current int
	colored bool
}

// NewProgressIndicator creates a progress indicator titled title.
func NewProgressIndicator(w io.Writer, title string) *ProgressIndicator {
	return &ProgressIndicator{
		writer:  w,
		title:   title,
		colored: logger.IsTerminal(w),
	}
}

// Start prints the header and resets the counter to zero of total.
func (p *ProgressIndicator) Start(total int) {
	p.total = total
	p.current = 0
	fmt.Fprintf(p.writer, "%s (%d files):\n", p.title, total)
}

// Step prints "[N/Total] item".
func (p *ProgressIndicator) Step(item string) {
	p.current++
	line := fmt.Sprintf("  [%d/%d] %s", p.current, p.total, item)
	if p.colored {
		line = color.New(color.FgCyan).Sprint(line)
	}
	fmt.Fprintln(p.writer, line)
}

// Complete prints the footer with the number of steps taken.
func (p *ProgressIndicator) Complete(what string) {
	mark := "✓"
	if p.colored {
		mark = color.New(color.FgGreen).Sprint(mark)
	}
	fmt.Fprintf(p.writer, "%s %d %s\n", mark, p.current, what)
}
