package render

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed assets
var embedded embed.FS

const (
	styleFile  = "style.css"
	scriptFile = "main.js"
)

// Assets resolves the document shells, style sheet and script. Files in
// dir take precedence over the built-in ones.
type Assets struct {
	dir string
}

// NewAssets returns assets that prefer files from dir when it is set
func NewAssets(dir string) *Assets {
	return &Assets{dir: dir}
}

// Shell returns the document template for an archive file name
func (a *Assets) Shell(outputFile string) (string, error) {
	return a.read(outputFile)
}

// Style returns the style sheet inlined into documents and pages
func (a *Assets) Style() (string, error) {
	return a.read(styleFile)
}

// Script returns the script inlined into documents
func (a *Assets) Script() (string, error) {
	return a.read(scriptFile)
}

func (a *Assets) read(name string) (string, error) {
	if a.dir != "" {
		data, err := os.ReadFile(filepath.Join(a.dir, name))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read asset %s: %w", name, err)
		}
	}

	data, err := embedded.ReadFile("assets/" + name)
	if err != nil {
		return "", fmt.Errorf("no asset named %s: %w", name, err)
	}
	return string(data), nil
}
