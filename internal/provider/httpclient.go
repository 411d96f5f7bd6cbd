package provider

import (
	"net"
	"net/http"
	"time"
)

const defaultClientTimeout = 120 * time.Second

// NewPooledClient returns an HTTP client with a connection-pooling
// transport sized for the small set of collaborators this process talks
// to. Reuse one client per collaborator instead of the zero-value client.
func NewPooledClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
