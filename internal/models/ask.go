package models

// Citation ties a passage of the generated answer back to its source
// location. Labels are unique within one response and stable for its
// lifetime.
type Citation struct {
	Label      string  `json:"label"`
	Chapter    string  `json:"chapter,omitempty"`
	BookTitle  string  `json:"book_title,omitempty"`
	FileName   string  `json:"file_name,omitempty"`
	SourcePath string  `json:"source_path,omitempty"`
	PageNumber *int    `json:"page_number,omitempty"`
	Text       string  `json:"text"`
	ViewerURL  string  `json:"viewer_url,omitempty"`
}

// AskRequest is one question against the indexed corpus.
type AskRequest struct {
	Question          string   `json:"question"`
	AdditionalContext string   `json:"additional_context,omitempty"`
	TopK              int      `json:"top_k,omitempty"`
	PoolSize          int      `json:"pool_size,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	Rerank            *bool    `json:"rerank,omitempty"`
}

// RerankEnabled reports the rerank flag, defaulting to true when the caller
// left it unset.
func (r *AskRequest) RerankEnabled() bool {
	if r.Rerank == nil {
		return true
	}
	return *r.Rerank
}

// AskResponse is the complete answer for one request. Citations lists the
// labels the answer actually referenced, first mention first, deduplicated.
// Sources lists every grounding passage in ranking order. Degraded is set
// when reranking was requested but the reranker was unavailable and the
// retriever order was used instead.
type AskResponse struct {
	Answer    string     `json:"answer"`
	Citations []string   `json:"citations"`
	Sources   []Citation `json:"sources"`
	Degraded  bool       `json:"degraded,omitempty"`
}
