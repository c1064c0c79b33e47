// Package markdown adapts the goldmark renderer to the simple
// string-to-HTML hook the normalizer expects.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// NewRenderer returns a deterministic markdown→HTML function. Rendering
// failures degrade to the raw text with line breaks preserved.
func NewRenderer() func(string) string {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	return func(src string) string {
		if src == "" {
			return ""
		}
		var buf bytes.Buffer
		if err := md.Convert([]byte(src), &buf); err != nil {
			return strings.ReplaceAll(src, "\n", "<br>")
		}
		return buf.String()
	}
}
