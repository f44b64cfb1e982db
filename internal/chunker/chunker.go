package chunker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"bookrag/internal/models"
)

// idNamespace keys the SHA1 UUIDs for chunk identity. Changing it would
// re-key the whole corpus.
var idNamespace = uuid.MustParse("8f3c6c1e-2f7b-4a54-9d1a-5b67a4d1c0df")

// span is an intermediate cut of the joined document text.
type span struct {
	text  string
	start int
}

// Split cuts a parsed document into overlapping chunks. The cut is
// deterministic: the same document and parameters always produce the same
// chunk texts and the same chunk IDs, which makes re-ingestion an in-place
// overwrite in the vector store.
//
// Chunks may cross page boundaries; each chunk is tagged with the page
// holding its first character.
func Split(doc *models.Document, chunkSize, overlap int) ([]models.Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must satisfy 0 <= overlap < chunk size, got overlap=%d size=%d", overlap, chunkSize)
	}

	text, pageStarts := joinPages(doc.Pages)
	spans := cut(text, chunkSize, overlap)

	var chunks []models.Chunk
	for i, s := range spans {
		page := pageAt(doc.Pages, pageStarts, s.start)
		ordinal := i + 1
		chunks = append(chunks, models.Chunk{
			ID:         ChunkID(doc.SourcePath, doc.Chapter, page, ordinal, chunkSize, overlap),
			Text:       s.text,
			PageNumber: page,
			Ordinal:    ordinal,
			FileName:   doc.FileName,
			SourcePath: doc.SourcePath,
			BookTitle:  doc.BookTitle,
			Chapter:    doc.Chapter,
		})
	}
	return chunks, nil
}

// ChunkID derives the stable corpus-wide identifier for one chunk. SHA1
// UUIDs are a pure function of the inputs, so identical source and chunk
// parameters reproduce the identifier exactly. The chapter is part of the
// name: one file yields one document per chapter (and per CSV row), each with
// ordinals restarting at 1, so without it two chapters opening on the same
// page would collide and overwrite each other in the store.
func ChunkID(sourcePath, chapter string, page, ordinal, chunkSize, overlap int) string {
	name := fmt.Sprintf("%s|%s|%d|%d|%d|%d", sourcePath, chapter, page, ordinal, chunkSize, overlap)
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// joinPages concatenates page texts and records the start offset of each
// page in the joined string.
func joinPages(pages []models.Page) (string, []int) {
	var b strings.Builder
	starts := make([]int, len(pages))
	for i, p := range pages {
		starts[i] = b.Len()
		b.WriteString(p.Text)
		if i < len(pages)-1 && !strings.HasSuffix(p.Text, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String(), starts
}

// pageAt returns the page number owning the given offset.
func pageAt(pages []models.Page, starts []int, offset int) int {
	if len(pages) == 0 {
		return 1
	}
	page := pages[0].Number
	for i, s := range starts {
		if offset >= s {
			page = pages[i].Number
		}
	}
	return page
}

// cut slices content into spans of at most maxChars with the requested
// overlap, preferring to break at a space or sentence end near the chunk
// tail so words stay whole.
func cut(content string, maxChars, overlapChars int) []span {
	contentLen := len(content)
	if contentLen == 0 {
		return nil
	}
	if contentLen <= maxChars {
		if strings.TrimSpace(content) == "" {
			return nil
		}
		return []span{{text: content, start: 0}}
	}

	var spans []span
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		// Look for a clean break within the last tenth of the chunk.
		if end < contentLen {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		if strings.TrimSpace(content[start:end]) != "" {
			spans = append(spans, span{text: content[start:end], start: start})
		}

		if end >= contentLen {
			break
		}
		next := end - overlapChars
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return spans
}
