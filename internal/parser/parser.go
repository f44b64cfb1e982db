package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"bookrag/internal/models"
)

// SupportedExtensions lists the file types Parse understands.
var SupportedExtensions = []string{".pdf", ".docx", ".pptx", ".xlsx", ".ods", ".txt", ".md", ".csv"}

// Parse extracts page-structured text from one source file. Most formats
// yield a single document; CSV files yield one document per row so each row
// can be cited on its own.
func Parse(filePath string) ([]models.Document, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return parsePDF(filePath)
	case ".docx":
		return parseDOCX(filePath)
	case ".pptx":
		return parsePPTX(filePath)
	case ".xlsx":
		return parseXLSX(filePath)
	case ".ods":
		return parseODS(filePath)
	case ".txt":
		return parseText(filePath)
	case ".md":
		return parseMarkdown(filePath)
	case ".csv":
		return parseCSV(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

// Supported reports whether Parse can handle the file.
func Supported(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

func newDocument(filePath string, pages []models.Page) models.Document {
	name := filepath.Base(filePath)
	return models.Document{
		SourcePath: filePath,
		FileName:   name,
		BookTitle:  titleFromFileName(name),
		Pages:      pages,
	}
}

// titleFromFileName turns "van_hoc_su-tap1.pdf" into "van hoc su tap1".
func titleFromFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}

func parsePDF(filePath string) ([]models.Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, models.Page{Number: i, Text: pageText})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", filePath)
	}
	return splitChapters(newDocument(filePath, pages)), nil
}

func parseDOCX(filePath string) ([]models.Document, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	content = stripDocxTags(content)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("no extractable text in %s", filePath)
	}
	doc := newDocument(filePath, []models.Page{{Number: 1, Text: content}})
	return splitChapters(doc), nil
}

func parsePPTX(filePath string) ([]models.Document, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []models.Page
	slideNum := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		slideNum++
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideText := extractTextFromXML(string(data))
		if strings.TrimSpace(slideText) == "" {
			continue
		}
		pages = append(pages, models.Page{Number: slideNum, Text: slideText})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", filePath)
	}
	return []models.Document{newDocument(filePath, pages)}, nil
}

func parseXLSX(filePath string) ([]models.Document, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		pages = append(pages, models.Page{Number: sheetNum + 1, Text: text.String()})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", filePath)
	}
	return []models.Document{newDocument(filePath, pages)}, nil
}

func parseODS(filePath string) ([]models.Document, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []models.Page
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		pages = append(pages, models.Page{Number: sheetNum + 1, Text: text.String()})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", filePath)
	}
	return []models.Document{newDocument(filePath, pages)}, nil
}

func parseText(filePath string) ([]models.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("no extractable text in %s", filePath)
	}
	doc := newDocument(filePath, []models.Page{{Number: 1, Text: string(data)}})
	return splitChapters(doc), nil
}

// stripDocxTags drops leftover inline XML the docx library sometimes leaks
// into extracted content.
func stripDocxTags(content string) string {
	var b strings.Builder
	depth := 0
	for _, r := range content {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, "</a:t>")
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}
