package domain

// RetrievalQuery is one request against the external search index.
type RetrievalQuery struct {
	QueryText string
	Index     string
	Lang      string
	Limit     int
}

// DocumentChunk is a bounded slice of a retrieved document. Metadata always
// carries a non-empty "source" key with the originating document's URL.
type DocumentChunk struct {
	Text     string
	Metadata map[string]string
}

// Source returns the provenance URL of the chunk.
func (c DocumentChunk) Source() string {
	return c.Metadata["source"]
}

// ConversationTurn is one answered (query, answer) pair. Immutable once stored.
type ConversationTurn struct {
	Query  string
	Answer string
}

// AnswerResult is the synthesized answer plus its provenance. Sources are
// deduplicated and ordered by first appearance in the retrieval ranking; the
// full list is retained here, the renderer caps how many are displayed.
type AnswerResult struct {
	Answer  string
	Sources []string
}
