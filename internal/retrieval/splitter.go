// Package retrieval pulls ranked snippets from the external search index
// and turns them into metadata-tagged document chunks.
package retrieval

import (
	"strings"
	"unicode/utf8"

	"ragroom/internal/domain"
)

const (
	defaultChunkSize = 1000
	defaultOverlap   = 200
	chunkSeparator   = "\n\n"
)

// Splitter cuts raw snippet text into overlapping fixed-size windows,
// breaking on paragraph boundaries when one falls inside the window.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a splitter. Non-positive values fall back to the
// 1000/200 window policy.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = defaultOverlap
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split windows text into chunks. Each chunk carries its own copy of
// metadata; chunk i precedes chunk i+1 in document order. Empty or
// whitespace-only input yields no chunks.
func (s *Splitter) Split(text string, metadata map[string]string) []domain.DocumentChunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []domain.DocumentChunk
	start := 0
	for start < len(text) {
		end := start + s.chunkSize
		if end >= len(text) {
			chunks = append(chunks, newChunk(text[start:], metadata))
			break
		}

		// Never cut a rune in half at the window edge.
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == start {
			_, size := utf8.DecodeRuneInString(text[start:])
			end = start + size
		}

		// Prefer the last paragraph break inside the window over a hard cut.
		if cut := strings.LastIndex(text[start:end], chunkSeparator); cut > 0 {
			end = start + cut + len(chunkSeparator)
		}
		chunks = append(chunks, newChunk(text[start:end], metadata))

		next := end - s.overlap
		for next > start && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func newChunk(text string, metadata map[string]string) domain.DocumentChunk {
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return domain.DocumentChunk{Text: text, Metadata: md}
}
