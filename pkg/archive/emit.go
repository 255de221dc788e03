package archive

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Markers every document shell must contain exactly once
const (
	StyleMarker    = "<style></style>"
	ScriptMarker   = "<script></script>"
	PostsMarker    = "<!--posts-->"
	CommentsMarker = "<!--comments-->"
)

// ErrTemplateContract is matched by errors.Is for every *TemplateError
var ErrTemplateContract = errors.New("template contract violated")

// TemplateError reports a shell marker that is missing or repeated
type TemplateError struct {
	Marker string
	Count  int
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template marker %s appears %d times, want exactly once", e.Marker, e.Count)
}

func (e *TemplateError) Unwrap() error { return ErrTemplateContract }

// Merge places newer fragments before older ones
func Merge(newer, older []string) []string {
	merged := make([]string, 0, len(newer)+len(older))
	merged = append(merged, newer...)
	return append(merged, older...)
}

// Emit fills the shell's four markers with the style, the script and the
// newline-joined fragments. Every marker is checked before anything is
// substituted, and substitution works on the marker positions of the
// original shell, so inserted text that happens to contain a marker is
// left alone.
func Emit(shell, style, script string, posts, comments []string) (string, error) {
	replacements := []struct {
		marker string
		with   string
	}{
		{StyleMarker, "<style>\n" + style + "\n</style>"},
		{ScriptMarker, "<script>\n" + script + "\n</script>"},
		{PostsMarker, strings.Join(posts, "\n")},
		{CommentsMarker, strings.Join(comments, "\n")},
	}

	type span struct {
		at, end int
		with    string
	}
	spans := make([]span, 0, len(replacements))
	for _, r := range replacements {
		if n := strings.Count(shell, r.marker); n != 1 {
			return "", &TemplateError{Marker: r.marker, Count: n}
		}
		at := strings.Index(shell, r.marker)
		spans = append(spans, span{at: at, end: at + len(r.marker), with: r.with})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].at < spans[j].at })

	var b strings.Builder
	last := 0
	for _, s := range spans {
		if s.at < last {
			return "", fmt.Errorf("%w: markers overlap", ErrTemplateContract)
		}
		b.WriteString(shell[last:s.at])
		b.WriteString(s.with)
		last = s.end
	}
	b.WriteString(shell[last:])
	return b.String(), nil
}
