package preview

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// notesMD renders the model's prose. Raw HTML in notes is escaped (no WithUnsafe).
var notesMD = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderNotes converts the Markdown prose around the generated code to HTML.
func RenderNotes(md string) (string, error) {
	if md == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := notesMD.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
