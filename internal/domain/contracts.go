package domain

import "context"

// Generator is the language-model collaborator: prompt in, free text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Captioner is the image-captioning collaborator: image bytes in, short
// caption out, with any template prefix already stripped.
type Captioner interface {
	Caption(ctx context.Context, image []byte) (string, error)
}

// Relay owns room membership and the connection lifecycle for one transport.
// Start blocks until ctx is cancelled or the transport fails.
type Relay interface {
	Name() string
	Start(ctx context.Context, bus MessageBus) error
}
