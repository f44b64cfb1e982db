package citation

import (
	"fmt"
	"net/url"
	"strings"

	"bookrag/internal/models"
)

// MapChunks converts the final ranked chunks into citation records. The
// output order equals the input ranking order exactly: what grounded the
// answer first is displayed first.
//
// Chunks colliding on (file name, page number) stay as distinct labeled
// entries rather than being merged; merging would detach display order from
// grounding order. Uniqueness is enforced with a numeric suffix.
func MapChunks(ranked []models.Chunk, viewerBase string) []models.Citation {
	seen := make(map[string]int, len(ranked))
	out := make([]models.Citation, 0, len(ranked))
	for _, chunk := range ranked {
		label := baseLabel(chunk)
		seen[label]++
		if n := seen[label]; n > 1 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}

		c := models.Citation{
			Label:      label,
			Chapter:    chunk.Chapter,
			BookTitle:  chunk.BookTitle,
			FileName:   chunk.FileName,
			SourcePath: chunk.SourcePath,
			Text:       chunk.Text,
			ViewerURL:  viewerURL(viewerBase, chunk),
		}
		if chunk.PageNumber > 0 {
			page := chunk.PageNumber
			c.PageNumber = &page
		}
		out = append(out, c)
	}
	return out
}

// baseLabel builds the human-readable label: title, chapter, page, with
// whatever pieces the source actually has.
func baseLabel(chunk models.Chunk) string {
	var parts []string
	if chunk.BookTitle != "" {
		parts = append(parts, chunk.BookTitle)
	}
	if chunk.Chapter != "" {
		parts = append(parts, chunk.Chapter)
	}
	if chunk.PageNumber > 0 {
		parts = append(parts, fmt.Sprintf("p.%d", chunk.PageNumber))
	}
	if len(parts) == 0 {
		if chunk.FileName != "" {
			return chunk.FileName
		}
		return "Unknown Source"
	}
	return strings.Join(parts, ", ")
}

func viewerURL(base string, chunk models.Chunk) string {
	if base == "" || chunk.FileName == "" {
		return ""
	}
	u := strings.TrimSuffix(base, "/") + "/" + url.PathEscape(chunk.FileName)
	if chunk.PageNumber > 0 {
		u += fmt.Sprintf("#page=%d", chunk.PageNumber)
	}
	return u
}
