package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// ASCIILogo is printed by the version command
const ASCIILogo = `
  ┌─────────────────────────────────────────────┐
  │  r e d d i t a r c h i v e                  │
  │  saved, upvoted and authored posts as HTML  │
  └─────────────────────────────────────────────┘
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// Console writes user-facing status lines. Color is only used when the
// output is a terminal; quiet consoles drop everything except errors.
type Console struct {
	out   io.Writer
	quiet bool
	color bool
	mu    sync.Mutex
}

// NewConsole creates a console writing to out
func NewConsole(out io.Writer, quiet bool) *Console {
	return &Console{out: out, quiet: quiet, color: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether the console can redraw lines in place
func (c *Console) Interactive() bool {
	return c.color && !c.quiet
}

// Quiet reports whether status output is suppressed
func (c *Console) Quiet() bool {
	return c.quiet
}

func (c *Console) paint(paint func(string) string, text string) string {
	if !c.color {
		return text
	}
	return paint(text)
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, s)
}

// Println prints an uncolored status line
func (c *Console) Println(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	c.write(fmt.Sprintf(format, args...) + "\n")
}

// Error prints an error line, even when quiet
func (c *Console) Error(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	c.write(c.paint(Red, msg) + "\n")
}

// Success prints a success line in green
func (c *Console) Success(msg string) {
	if c.quiet {
		return
	}
	c.write(c.paint(Green, msg) + "\n")
}

// Warning prints a warning line in yellow
func (c *Console) Warning(msg string, args ...interface{}) {
	if c.quiet {
		return
	}
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	c.write(c.paint(Yellow, msg) + "\n")
}

// Info prints a label and value pair
func (c *Console) Info(label, value string) {
	if c.quiet {
		return
	}
	c.write(fmt.Sprintf("%s: %s\n", c.paint(Cyan, label), c.paint(Yellow, value)))
}

// Highlight prints a line in magenta
func (c *Console) Highlight(msg string) {
	if c.quiet {
		return
	}
	c.write(c.paint(Magenta, msg) + "\n")
}

var (
	stdout   = NewConsole(os.Stdout, false)
	stdoutMu sync.Mutex
)

// SetQuiet switches the package-level console to quiet mode
func SetQuiet(quiet bool) {
	stdoutMu.Lock()
	defer stdoutMu.Unlock()
	stdout = NewConsole(os.Stdout, quiet)
}

// Stdout returns the package-level console
func Stdout() *Console {
	stdoutMu.Lock()
	defer stdoutMu.Unlock()
	return stdout
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	c := Stdout()
	if c.quiet {
		return
	}
	c.write(c.paint(Cyan, ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	Stdout().Error(msg, args...)
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	Stdout().Success(msg)
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	Stdout().Info(label, value)
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	Stdout().Warning(msg, args...)
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	Stdout().Highlight(msg)
}
