package source

import (
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

var markdownParser = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// titleFor derives a document title. Markdown files use their first
// heading; everything else falls back to the file name without extension.
func titleFor(path string, content []byte) string {
	if strings.HasSuffix(path, ".md") || strings.HasSuffix(path, ".markdown") {
		if title := firstHeading(content); title != "" {
			return title
		}
	}

	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// firstHeading parses the markdown and returns the first heading's text,
// or "" when the document has no headings.
func firstHeading(content []byte) string {
	doc := markdownParser.Parser().Parse(text.NewReader(content))

	tree, err := toc.Inspect(doc, content,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return ""
	}

	return strings.TrimSpace(string(tree.Items[0].Title))
}
