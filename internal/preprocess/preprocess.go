// Package preprocess classifies inbound chat payloads and rewrites image
// messages into text queries via the captioning collaborator.
package preprocess

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"ragroom/internal/domain"
)

const (
	dataURIPrefix = "data:image/"
	queryPrefix   = "tell me about "
)

var imageExtensions = map[string]string{
	"jpeg": ".jpg",
	"jpg":  ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// Classify tags a raw payload as text or image. The decision is made once
// here; nothing downstream re-sniffs the payload.
func Classify(raw, senderID, roomID string) domain.ChatMessage {
	kind := domain.KindText
	if strings.HasPrefix(raw, dataURIPrefix) {
		kind = domain.KindImage
	}
	return domain.ChatMessage{
		Text:     raw,
		SenderID: senderID,
		RoomID:   roomID,
		Kind:     kind,
	}
}

// Preprocessor rewrites inbound messages into text queries. Image payloads
// are decoded, persisted to a per-request scratch file for the duration of
// the caption call, and replaced by a caption-derived query.
type Preprocessor struct {
	captioner  domain.Captioner
	scratchDir string
	logger     *slog.Logger
}

type Config struct {
	Captioner  domain.Captioner
	ScratchDir string
	Logger     *slog.Logger
}

func New(cfg Config) *Preprocessor {
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Preprocessor{
		captioner:  cfg.Captioner,
		scratchDir: cfg.ScratchDir,
		logger:     cfg.Logger,
	}
}

// Rewrite returns the query text for a message. Text messages pass through
// unchanged; image messages become "tell me about <caption>". A payload
// that cannot be decoded fails with InputDecodeError and aborts the turn.
func (p *Preprocessor) Rewrite(ctx context.Context, msg domain.ChatMessage) (string, error) {
	if msg.Kind != domain.KindImage {
		return msg.Text, nil
	}

	image, ext, err := decodeDataURI(msg.Text)
	if err != nil {
		return "", err
	}

	path, err := p.persistScratch(image, ext)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			p.logger.Warn("cannot remove scratch file", "path", path, "error", err)
		}
	}()

	caption, err := p.captioner.Caption(ctx, image)
	if err != nil {
		return "", fmt.Errorf("caption image: %w", err)
	}

	return queryPrefix + caption, nil
}

// decodeDataURI splits and decodes a data:image/...;base64,... payload.
func decodeDataURI(raw string) ([]byte, string, error) {
	header, payload, found := strings.Cut(raw, ",")
	if !found {
		return nil, "", &domain.InputDecodeError{Reason: "missing data-URI payload"}
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, "", &domain.InputDecodeError{Reason: "payload is not base64-encoded"}
	}

	format := strings.TrimSuffix(strings.TrimPrefix(header, dataURIPrefix), ";base64")
	ext, ok := imageExtensions[format]
	if !ok {
		return nil, "", &domain.InputDecodeError{Reason: fmt.Sprintf("unsupported image format %q", format)}
	}

	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", &domain.InputDecodeError{Reason: "malformed base64", Err: err}
	}
	return image, ext, nil
}

// persistScratch writes the image under a unique name so concurrent uploads
// can never clobber each other. The preprocessor owns the file; it lives
// only for the duration of the caption call.
func (p *Preprocessor) persistScratch(image []byte, ext string) (string, error) {
	if err := os.MkdirAll(p.scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	path := filepath.Join(p.scratchDir, uuid.NewString()+ext)
	if err := os.WriteFile(path, image, 0o600); err != nil {
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	return path, nil
}
