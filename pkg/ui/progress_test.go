package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(NewConsole(&buf, false), "saved", 4)

	assert.Equal(t, "saved [░░░░░░░░░░░░░░░░░░░░] 0/4", p.Bar())

	p.Increment()
	p.Increment()
	assert.Equal(t, "saved [██████████░░░░░░░░░░] 2/4", p.Bar())

	for i := 0; i < 5; i++ {
		p.Increment()
	}
	assert.Equal(t, 4, p.Count(), "never passes total")

	p.Done()
	assert.Empty(t, buf.String(), "non-interactive consoles are not redrawn")
}

func TestProgressWithoutSteps(t *testing.T) {
	p := NewProgress(NewConsole(&bytes.Buffer{}, false), "empty", 0)
	assert.Contains(t, p.Bar(), "0/0")
}

func TestProgressPrintlnKeepsMessageOffTheBar(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsole(&buf, false)
	console.color = true
	p := NewProgress(console, "posts", 2)

	p.Println("before the bar")
	assert.Equal(t, "before the bar\n", buf.String(), "nothing to clear yet")
	buf.Reset()

	p.Increment()
	p.Println(`Private(?): "%s"`, "title d")
	p.Done()

	bar := "posts [██████████░░░░░░░░░░] 1/2"
	assert.Equal(t, "\r"+bar+"\r\033[K"+`Private(?): "title d"`+"\n"+bar+"\n", buf.String())
}
