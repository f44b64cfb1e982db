package parser

import (
	"regexp"
	"strings"

	"bookrag/internal/models"
)

// chapterRe matches chapter headings in English and Vietnamese book scans.
// The keyword must carry heading casing so prose that merely mentions a
// chapter ("chapter three continues") is never consumed as a heading.
var chapterRe = regexp.MustCompile(`^\s*(?:Chapter|CHAPTER|Ch\x{01b0}\x{01a1}ng|CH\x{01af}\x{01a0}NG)\s+(\S.*?)\s*$`)

// splitChapters cuts a document into one document per detected chapter
// heading so every chunk carries the chapter it belongs to. Page numbers are
// preserved; a page holding a heading mid-page contributes its remainder to
// the new chapter under the same page number. Documents without headings
// pass through unchanged.
func splitChapters(doc models.Document) []models.Document {
	type section struct {
		chapter string
		pages   []models.Page
	}

	var sections []section
	current := section{}

	appendText := func(page int, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		n := len(current.pages)
		if n > 0 && current.pages[n-1].Number == page {
			current.pages[n-1].Text += "\n" + text
			return
		}
		current.pages = append(current.pages, models.Page{Number: page, Text: text})
	}

	for _, page := range doc.Pages {
		lines := strings.Split(page.Text, "\n")
		var buf []string
		for _, line := range lines {
			if m := chapterRe.FindStringSubmatch(line); m != nil {
				appendText(page.Number, strings.Join(buf, "\n"))
				buf = nil
				if len(current.pages) > 0 {
					sections = append(sections, current)
				}
				current = section{chapter: strings.Trim(m[1], `"`)}
				continue
			}
			buf = append(buf, line)
		}
		appendText(page.Number, strings.Join(buf, "\n"))
	}
	if len(current.pages) > 0 {
		sections = append(sections, current)
	}

	if len(sections) <= 1 {
		if len(sections) == 1 {
			doc.Chapter = sections[0].chapter
			doc.Pages = sections[0].pages
		}
		return []models.Document{doc}
	}

	docs := make([]models.Document, 0, len(sections))
	for _, s := range sections {
		d := doc
		d.Chapter = s.chapter
		d.Pages = s.pages
		docs = append(docs, d)
	}
	return docs
}
