package server

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// renderMarkdown converts the main content for the preview pane. Raw HTML in the
// model output is not passed through.
func renderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
