package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redditarchive/pkg/fragment"
)

// Regenerate with: go test ./pkg/archive -run Golden -update
func TestEmitGolden(t *testing.T) {
	shell, err := os.ReadFile(filepath.Join("testdata", "shell.html"))
	require.NoError(t, err)

	posts := []string{
		`<div class="post" id="c3"><h2>Third</h2><!--postend--></div>`,
		`<div class="post" id="a1"><h2>First</h2><!--postend--></div>`,
	}
	comments := []string{
		`<div class="comment" id="k9"><p>agreed</p><!--commentend--></div>`,
	}

	doc, err := Emit(string(shell), "body { margin: 0; }", `document.querySelector(".search").focus();`, posts, comments)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "emit_document", []byte(doc))

	// the emitted document reads back as the fragments it was built from
	store := fragment.Parse(doc)
	assert.Equal(t, []string{"c3", "a1", "k9"}, store.IDs())
	assert.Equal(t, posts, store.Posts())
	assert.Equal(t, comments, store.Comments())
	assert.False(t, store.Incomplete())
}
