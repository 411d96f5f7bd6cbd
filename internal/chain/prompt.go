package chain

import (
	"fmt"
	"strings"

	"ragroom/internal/domain"
)

const systemInstructions = `You are a helpful assistant answering questions in a shared chat room.
Use the provided context to answer the question. If the context does not contain the answer, say so instead of guessing.
Answer concisely.`

// buildPrompt assembles the generation prompt: system instructions, the
// memory window oldest to newest, the retrieved chunks each tagged with
// their source, and the current query.
func buildPrompt(turns []domain.ConversationTurn, chunks []domain.DocumentChunk, query string) string {
	var sb strings.Builder
	sb.WriteString(systemInstructions)
	sb.WriteString("\n")

	if len(turns) > 0 {
		sb.WriteString("\n## Conversation so far\n")
		for _, t := range turns {
			fmt.Fprintf(&sb, "User: %s\nAssistant: %s\n", t.Query, t.Answer)
		}
	}

	if len(chunks) > 0 {
		sb.WriteString("\n## Context\n")
		for _, c := range chunks {
			fmt.Fprintf(&sb, "\n[source: %s]\n%s\n", c.Source(), c.Text)
		}
	}

	fmt.Fprintf(&sb, "\n## Question\n%s\n", query)
	return sb.String()
}
