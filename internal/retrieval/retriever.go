package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ragroom/internal/domain"
	"ragroom/internal/metrics"
)

const defaultSearchTimeout = 10 * time.Second

// Retriever issues a single request per call against the search index and
// chunks the returned snippets. Every failure mode degrades to an empty
// result: retrieval must never abort the conversation. At-most-one attempt,
// no retries.
type Retriever struct {
	baseURL  string
	client   *http.Client
	splitter *Splitter
	timeout  time.Duration
	logger   *slog.Logger
}

type RetrieverConfig struct {
	BaseURL  string
	Client   *http.Client
	Splitter *Splitter
	Timeout  time.Duration
	Logger   *slog.Logger
}

func NewRetriever(cfg RetrieverConfig) *Retriever {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Splitter == nil {
		cfg.Splitter = NewSplitter(0, 0)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSearchTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Retriever{
		baseURL:  cfg.BaseURL,
		client:   cfg.Client,
		splitter: cfg.Splitter,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
}

// searchResponse is the success payload of the index collaborator. Result
// items are decoded loosely: everything except the snippet becomes chunk
// metadata.
type searchResponse struct {
	Results []map[string]any `json:"results"`
}

// Retrieve returns chunked, metadata-tagged documents for the query.
// An empty query short-circuits without a network call.
func (r *Retriever) Retrieve(ctx context.Context, q domain.RetrievalQuery) []domain.DocumentChunk {
	if strings.TrimSpace(q.QueryText) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.search(ctx, q)
	metrics.RetrievalLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RetrievalFailures.Inc()
		r.logger.Warn("retrieval degraded to empty results",
			"index", q.Index,
			"error", &domain.TransportError{Op: "search", Err: err},
		)
		return nil
	}

	var chunks []domain.DocumentChunk
	for _, item := range resp.Results {
		snippet, _ := item["textSnippet"].(string)
		srcURL, _ := item["url"].(string)
		if srcURL == "" {
			// No resolvable provenance: drop, don't retry.
			r.logger.Debug("dropping result without url", "index", q.Index)
			continue
		}

		metadata := make(map[string]string, len(item))
		for k, v := range item {
			if k == "textSnippet" {
				continue
			}
			metadata[k] = stringify(v)
		}
		metadata["source"] = srcURL

		chunks = append(chunks, r.splitter.Split(snippet, metadata)...)
	}

	return chunks
}

func (r *Retriever) search(ctx context.Context, q domain.RetrievalQuery) (*searchResponse, error) {
	params := url.Values{}
	params.Set("index", q.Index)
	params.Set("lang", q.Lang)
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("q", q.QueryText)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &payload, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", v)
	}
}
