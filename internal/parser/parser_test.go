package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrag/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse("/tmp/whatever.xyz")
	assert.Error(t, err)
	assert.False(t, Supported("/tmp/whatever.xyz"))
	assert.True(t, Supported("/tmp/book.PDF"))
}

func TestParseTextSingleDocument(t *testing.T) {
	path := writeFile(t, "notes.txt", "just some plain text\nwith two lines")

	docs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes.txt", docs[0].FileName)
	assert.Equal(t, "notes", docs[0].BookTitle)
	assert.Empty(t, docs[0].Chapter)
	require.Len(t, docs[0].Pages, 1)
	assert.Equal(t, 1, docs[0].Pages[0].Number)
}

func TestParseTextEmptyFails(t *testing.T) {
	path := writeFile(t, "empty.txt", "   \n")
	_, err := Parse(path)
	assert.Error(t, err)
}

func TestParseTextSplitsChapters(t *testing.T) {
	content := "Chapter One\nfirst chapter text\nmore text\nChapter Two\nsecond chapter text"
	path := writeFile(t, "book.txt", content)

	docs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "One", docs[0].Chapter)
	assert.Contains(t, docs[0].Pages[0].Text, "first chapter text")
	assert.Equal(t, "Two", docs[1].Chapter)
	assert.Contains(t, docs[1].Pages[0].Text, "second chapter text")
}

func TestParseMarkdownStripsSyntax(t *testing.T) {
	content := "# Heading\n\nSome **bold** text with a [link](https://example.com).\n"
	path := writeFile(t, "readme.md", content)

	docs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	text := docs[0].Pages[0].Text
	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "bold")
	assert.Contains(t, text, "link")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "](")
}

func TestParseCSVRowsBecomeDocuments(t *testing.T) {
	content := "text,book_title,chapter\n" +
		"first row content,Gazette,No. 12\n" +
		"second row content,Gazette,No. 13\n" +
		",,\n"
	path := writeFile(t, "data.csv", content)

	docs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "first row content", docs[0].Pages[0].Text)
	assert.Equal(t, "Gazette", docs[0].BookTitle)
	assert.Equal(t, "No. 12", docs[0].Chapter)
	assert.Equal(t, 1, docs[0].Pages[0].Number)

	assert.Equal(t, "second row content", docs[1].Pages[0].Text)
	assert.Equal(t, 2, docs[1].Pages[0].Number)
}

func TestParseCSVWithoutTextHeaderFallsBack(t *testing.T) {
	content := "a,b\nshort,this is the much longer content column\n"
	path := writeFile(t, "rows.csv", content)

	docs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "this is the much longer content column", docs[0].Pages[0].Text)
}

func TestParseCSVBOMHeader(t *testing.T) {
	content := "\uFEFFtext\nrow content\n"
	path := writeFile(t, "bom.csv", content)

	docs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "row content", docs[0].Pages[0].Text)
}

func TestSplitChaptersPreservesPageNumbers(t *testing.T) {
	doc := models.Document{
		SourcePath: "/data/b.pdf",
		FileName:   "b.pdf",
		BookTitle:  "b",
		Pages: []models.Page{
			{Number: 10, Text: "intro text\nChapter Three\nchapter three begins"},
			{Number: 11, Text: "chapter three continues"},
		},
	}

	docs := splitChapters(doc)
	require.Len(t, docs, 2)

	assert.Empty(t, docs[0].Chapter)
	assert.Equal(t, 10, docs[0].Pages[0].Number)

	assert.Equal(t, "Three", docs[1].Chapter)
	require.Len(t, docs[1].Pages, 2)
	assert.Equal(t, 10, docs[1].Pages[0].Number)
	assert.Equal(t, 11, docs[1].Pages[1].Number)
}

func TestSplitChaptersKeepsProseMentions(t *testing.T) {
	// Body lines that merely mention a chapter in running text must survive
	// intact instead of being consumed as headings.
	doc := models.Document{
		FileName: "c.pdf",
		Pages: []models.Page{
			{Number: 1, Text: "Chapter Three\nchapter three begins here"},
			{Number: 2, Text: "chapter three continues\nand as chapter two already showed"},
		},
	}

	docs := splitChapters(doc)
	require.Len(t, docs, 1)
	assert.Equal(t, "Three", docs[0].Chapter)
	require.Len(t, docs[0].Pages, 2)
	assert.Contains(t, docs[0].Pages[0].Text, "chapter three begins here")
	assert.Contains(t, docs[0].Pages[1].Text, "chapter three continues")
	assert.Contains(t, docs[0].Pages[1].Text, "chapter two already showed")
}

func TestSplitChaptersNoHeadingsPassThrough(t *testing.T) {
	doc := models.Document{
		FileName: "plain.txt",
		Pages:    []models.Page{{Number: 1, Text: "no headings here"}},
	}
	docs := splitChapters(doc)
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].Chapter)
	assert.Equal(t, "no headings here", docs[0].Pages[0].Text)
}
