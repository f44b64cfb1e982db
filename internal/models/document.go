package models

// Page is one page of extracted text. Formats without a native page concept
// (docx, txt, csv) carry a single page numbered 1.
type Page struct {
	Number int
	Text   string
}

// Document is a parsed source file ready for chunking.
type Document struct {
	SourcePath string
	FileName   string
	BookTitle  string
	Chapter    string
	Pages      []Page
}

// Chunk is the atomic retrieval unit: a bounded span of document text with a
// stable identifier. ID is reproducible for identical input and chunk
// parameters, so re-ingesting an unchanged corpus overwrites in place.
type Chunk struct {
	ID         string
	Text       string
	PageNumber int
	Ordinal    int
	FileName   string
	SourcePath string
	BookTitle  string
	Chapter    string
}
