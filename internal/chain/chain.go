// Package chain implements answer synthesis: retrieval, prompt assembly,
// generation, and provenance-based source citation.
package chain

import (
	"context"
	"log/slog"
	"time"

	"ragroom/internal/config"
	"ragroom/internal/domain"
	"ragroom/internal/memory"
	"ragroom/internal/metrics"
)

// Retriever supplies chunked, metadata-tagged context for a query.
type Retriever interface {
	Retrieve(ctx context.Context, q domain.RetrievalQuery) []domain.DocumentChunk
}

// Archiver persists answered turns. Optional; failures are logged only.
type Archiver interface {
	RecordTurn(ctx context.Context, roomID string, turn domain.ConversationTurn, sources []string) error
}

// Chain combines retrieved context, window memory, and the current query
// into one generation call.
type Chain struct {
	retriever Retriever
	generator domain.Generator
	archive   Archiver
	logger    *slog.Logger
}

type Config struct {
	Retriever Retriever
	Generator domain.Generator
	Archive   Archiver // may be nil
	Logger    *slog.Logger
}

func New(cfg Config) *Chain {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Chain{
		retriever: cfg.Retriever,
		generator: cfg.Generator,
		archive:   cfg.Archive,
		logger:    cfg.Logger,
	}
}

// Answer synthesizes a cited answer for the query against the room's
// window memory and index profile. On success the turn is appended to the
// window; a generation failure leaves the window untouched and returns a
// SynthesisError.
func (c *Chain) Answer(ctx context.Context, roomID string, win *memory.Window, query string, profile config.Profile) (domain.AnswerResult, error) {
	chunks := c.retriever.Retrieve(ctx, domain.RetrievalQuery{
		QueryText: query,
		Index:     profile.Index,
		Lang:      profile.Lang,
		Limit:     profile.Limit,
	})

	prompt := buildPrompt(win.Recent(), chunks, query)

	start := time.Now()
	answer, err := c.generator.Generate(ctx, prompt)
	metrics.SynthesisLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SynthesisFailures.Inc()
		return domain.AnswerResult{}, &domain.SynthesisError{Err: err}
	}

	// Citation is provenance-based: sources come from the chunks actually
	// supplied to the prompt, not from text-matching the answer.
	sources := collectSources(chunks)

	turn := domain.ConversationTurn{Query: query, Answer: answer}
	win.Append(turn)

	if c.archive != nil {
		if err := c.archive.RecordTurn(ctx, roomID, turn, sources); err != nil {
			c.logger.Warn("cannot archive turn", "room", roomID, "error", err)
		}
	}

	return domain.AnswerResult{Answer: answer, Sources: sources}, nil
}

// collectSources deduplicates chunk provenance, keeping first-seen order
// from the retrieval ranking.
func collectSources(chunks []domain.DocumentChunk) []string {
	seen := make(map[string]bool, len(chunks))
	var sources []string
	for _, c := range chunks {
		src := c.Source()
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}
	return sources
}
