package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	progressWidth = 20

	clearLine = "\033[K"
)

// Progress draws a single-line bar over a known number of steps. On
// consoles that are not interactive it stays silent and only Done prints
// a summary.
type Progress struct {
	console *Console
	label   string
	total   int
	done    int
	drawn   bool
	start   time.Time
}

// NewProgress starts a progress bar for total steps
func NewProgress(console *Console, label string, total int) *Progress {
	return &Progress{
		console: console,
		label:   label,
		total:   total,
		start:   time.Now(),
	}
}

// Increment advances the bar by one step
func (p *Progress) Increment() {
	if p.done < p.total {
		p.done++
	}
	if p.console.Interactive() {
		p.console.write("\r" + p.Bar())
		p.drawn = true
	}
}

// Println prints a status line without leaving it glued to the bar. A
// drawn bar is cleared first and redrawn below the message.
func (p *Progress) Println(format string, args ...interface{}) {
	if !p.drawn {
		p.console.Println(format, args...)
		return
	}
	p.console.write("\r" + clearLine)
	p.console.Println(format, args...)
	p.console.write(p.Bar())
}

// Bar returns the formatted bar for the current state
func (p *Progress) Bar() string {
	filled := 0
	if p.total > 0 {
		filled = p.done * progressWidth / p.total
	}
	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, progressWidth-filled)
	return fmt.Sprintf("%s [%s] %d/%d", p.label, bar, p.done, p.total)
}

// Count returns the number of completed steps
func (p *Progress) Count() int {
	return p.done
}

// Elapsed returns the time since the bar was started
func (p *Progress) Elapsed() time.Duration {
	return time.Since(p.start)
}

// Done ends the bar line
func (p *Progress) Done() {
	if p.drawn {
		p.console.write("\n")
	}
}
