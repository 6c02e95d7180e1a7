package regdiff

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Renderer converts eCFR XML/XHTML payloads to markdown for tools that
// accept format=markdown. eCFR full-text XML is XHTML-shaped enough for
// an HTML pipeline; the document is sanitized first so processing
// instructions and style blocks never leak into the output.
type Renderer struct {
	policy    *bluemonday.Policy
	converter *converter.Converter
}

// NewRenderer creates a Renderer with the standard plugin set.
func NewRenderer() *Renderer {
	return &Renderer{
		policy: bluemonday.UGCPolicy(),
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Markdown converts a document to markdown. If conversion fails or
// produces empty output, it falls back to stripping tags; if even that
// yields nothing, the raw input is returned so the caller never loses
// content to a rendering failure.
func (r *Renderer) Markdown(doc string) string {
	if doc == "" {
		return ""
	}
	clean := r.policy.Sanitize(doc)
	result, err := r.converter.ConvertString(clean)
	if err == nil && strings.TrimSpace(result) != "" {
		return strings.TrimSpace(result)
	}
	if text := stripTags(doc); text != "" {
		return text
	}
	return doc
}

// stripTags collects the text content of a markup document.
func stripTags(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.TrimSpace(b.String())
}
