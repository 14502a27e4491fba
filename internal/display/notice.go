package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/harrison/binmeta/internal/logger"
)

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// String returns the label printed in front of a notice.
func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "Warning"
	case LevelError:
		return "Error"
	default:
		return "Info"
	}
}

// Notice is a transient user-facing message.
type Notice struct {
	Level      Level
	Title      string   // Main line
	Message    string   // Detailed explanation (optional)
	Files      []string // Related vault paths (optional)
	Suggestion string   // Action to take (optional)
}

// Render formats the notice. When colored is set the title line is tinted
// by level.
func (n Notice) Render(colored bool) string {
	var b strings.Builder

	head := fmt.Sprintf("%s: %s", n.Level, n.Title)
	if colored {
		head = levelColor(n.Level).Sprint(head)
	}
	b.WriteString(head)
	b.WriteString("\n")

	if n.Message != "" {
		b.WriteString("    ")
		b.WriteString(n.Message)
		b.WriteString("\n")
	}

	if len(n.Files) > 0 {
		if len(n.Files) == 1 {
			b.WriteString("    Affected file:\n")
		} else {
			b.WriteString("    Affected files:\n")
		}
		for i, file := range n.Files {
			fmt.Fprintf(&b, "      %d. %s\n", i+1, file)
		}
	}

	if n.Suggestion != "" {
		b.WriteString("    Suggestion: ")
		b.WriteString(n.Suggestion)
		b.WriteString("\n")
	}

	return b.String()
}

func levelColor(l Level) *color.Color {
	c := color.New(color.FgCyan)
	switch l {
	case LevelWarn:
		c = color.New(color.FgYellow)
	case LevelError:
		c = color.New(color.FgRed)
	}
	c.EnableColor()
	return c
}

// Notifier receives notices.
type Notifier interface {
	Notify(n Notice)
}

// WriterNotifier prints notices to a writer.
type WriterNotifier struct {
	mu      sync.Mutex
	out     io.Writer
	colored bool
}

// NewWriterNotifier creates a notifier printing to out, coloured when out is
// a terminal.
func NewWriterNotifier(out io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out, colored: logger.IsTerminal(out)}
}

// Notify prints n.
func (w *WriterNotifier) Notify(n Notice) {
	if w.out == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprint(w.out, n.Render(w.colored))
}

// Recorder keeps every notice it receives.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records n.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}
