package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultVisionModel   = "gpt-4-vision-preview"
	defaultVisionTimeout = 60 * time.Second
	visionMaxTokens      = 300

	// captionTemplate conditions the model to complete a caption phrase;
	// the echoed prefix is stripped from the result before reuse.
	captionTemplate = "a photography of"
)

// VisionCaptioner captions images with the OpenAI vision endpoint. The
// request body is built by hand: the client library in use has no
// multi-content message support.
type VisionCaptioner struct {
	apiKey  string
	apiBase string
	model   string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

type VisionConfig struct {
	APIKey     string
	APIBase    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewVisionCaptioner(cfg VisionConfig) *VisionCaptioner {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = defaultVisionModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultVisionTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = NewPooledClient(cfg.Timeout)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &VisionCaptioner{
		apiKey:  cfg.APIKey,
		apiBase: cfg.APIBase,
		model:   cfg.Model,
		client:  cfg.HTTPClient,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

type visionRequest struct {
	Model     string          `json:"model"`
	Messages  []visionMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type visionMessage struct {
	Role    string          `json:"role"`
	Content []visionContent `json:"content"`
}

type visionContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *visionImageURL `json:"image_url,omitempty"`
}

type visionImageURL struct {
	URL string `json:"url"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Caption returns a short caption for the image, with the conditioning
// template prefix stripped.
func (v *VisionCaptioner) Caption(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	mime := http.DetectContentType(image)
	dataURI := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)

	body, err := json.Marshal(visionRequest{
		Model: v.model,
		Messages: []visionMessage{{
			Role: "user",
			Content: []visionContent{
				{Type: "text", Text: "Complete the caption in one short sentence: " + captionTemplate},
				{Type: "image_url", ImageURL: &visionImageURL{URL: dataURI}},
			},
		}},
		MaxTokens: visionMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal caption request: %w", err)
	}

	buildReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.apiBase+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+v.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := sendWithBackoff(ctx, v.client, defaultMaxAttempts, buildReq, v.logger)
	if err != nil {
		return "", fmt.Errorf("caption request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("caption endpoint returned %d", resp.StatusCode)
	}

	var payload visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode caption response: %w", err)
	}
	if len(payload.Choices) == 0 || payload.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no caption in response")
	}

	return StripCaptionTemplate(payload.Choices[0].Message.Content), nil
}

// StripCaptionTemplate removes the conditioning phrase the model tends to
// echo at the start of its caption.
func StripCaptionTemplate(caption string) string {
	caption = strings.TrimSpace(caption)
	lower := strings.ToLower(caption)
	if strings.HasPrefix(lower, captionTemplate+" ") {
		caption = strings.TrimSpace(caption[len(captionTemplate)+1:])
	} else if strings.HasPrefix(lower, captionTemplate) {
		caption = strings.TrimSpace(caption[len(captionTemplate):])
	}
	return caption
}
