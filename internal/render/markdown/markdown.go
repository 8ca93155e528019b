// Package markdown renders reading guides to HTML.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer converts markdown to HTML. Raw HTML in the source is dropped.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a Renderer with GFM and syntax highlighting.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Render converts src to HTML safe for direct inclusion in a template.
func (r *Renderer) Render(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(mermaidBlocks(buf.String())), nil //nolint:gosec // goldmark escapes raw HTML without WithUnsafe
}

// mermaidBlocks turns fenced mermaid code into <div class="mermaid"> so the
// diagram script can pick it up.
func mermaidBlocks(html string) string {
	const openTag = `<pre><code class="language-mermaid">`
	const closeTag = `</code></pre>`

	var out strings.Builder
	for {
		idx := strings.Index(html, openTag)
		if idx == -1 {
			break
		}
		end := strings.Index(html[idx:], closeTag)
		if end == -1 {
			break
		}
		end += idx

		out.WriteString(html[:idx])
		out.WriteString(`<div class="mermaid">`)
		out.WriteString(html[idx+len(openTag) : end])
		out.WriteString(`</div>`)
		html = html[end+len(closeTag):]
	}
	out.WriteString(html)
	return out.String()
}
