package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"bookrag/internal/models"
)

// parseMarkdown strips markdown syntax before indexing so headings and
// emphasis markers do not pollute the embeddings.
func parseMarkdown(filePath string) ([]models.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	plain := markdownToPlainText(data)
	if strings.TrimSpace(plain) == "" {
		return nil, fmt.Errorf("no extractable text in %s", filePath)
	}
	doc := newDocument(filePath, []models.Page{{Number: 1, Text: plain}})
	return splitChapters(doc), nil
}

// markdownToPlainText walks the goldmark AST and collects text nodes,
// keeping block boundaries as blank lines.
func markdownToPlainText(source []byte) string {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteString("\n")
			}
		case *ast.AutoLink:
			b.Write(t.URL(source))
		}
		return ast.WalkContinue, nil
	})

	// Collapse the blank-line runs left by nested blocks.
	out := strings.ReplaceAll(b.String(), "\n\n\n", "\n\n")
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}
