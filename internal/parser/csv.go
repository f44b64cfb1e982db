package parser

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"bookrag/internal/models"
)

// Recognized CSV header names, matched case-insensitively. The text column
// is required; the rest enrich citations when present.
var csvColumns = map[string][]string{
	"text":       {"text", "content", "nguyên văn", "nguyên văn "},
	"book_title": {"book_title", "title", "book", "báo"},
	"chapter":    {"chapter", "section", "số báo"},
}

// parseCSV turns each data row into its own single-page document, numbered
// by row, so individual rows surface as individual citations.
func parseCSV(filePath string) ([]models.Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows in %s", filePath)
	}

	header := records[0]
	if len(header) > 0 {
		// Strip a UTF-8 BOM exported by spreadsheet tools.
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	textIdx := findColumn(header, csvColumns["text"])
	titleIdx := findColumn(header, csvColumns["book_title"])
	chapterIdx := findColumn(header, csvColumns["chapter"])
	if textIdx < 0 {
		// Fall back to the widest column of the first data row.
		textIdx = widestColumn(records[1])
	}

	base := newDocument(filePath, nil)
	var docs []models.Document
	for i, row := range records[1:] {
		text := cell(row, textIdx)
		if strings.TrimSpace(text) == "" {
			continue
		}
		doc := base
		doc.Pages = []models.Page{{Number: i + 1, Text: text}}
		if t := cell(row, titleIdx); t != "" {
			doc.BookTitle = t
		}
		doc.Chapter = cell(row, chapterIdx)
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no usable rows in %s", filePath)
	}
	return docs, nil
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

func widestColumn(row []string) int {
	best, bestLen := 0, -1
	for i, v := range row {
		if len(v) > bestLen {
			best, bestLen = i, len(v)
		}
	}
	return best
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
