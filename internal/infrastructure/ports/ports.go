package ports

import (
	"context"
	"time"
)

// Clock provides the current time (for testing).
type Clock interface {
	Now() time.Time
}

// Logger provides structured logging.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// ProbeResult is the observed outcome of a single destination request.
type ProbeResult struct {
	StatusCode int
	// Status is the status line text, e.g. "404 Not Found". May be empty.
	Status string
}

// Prober issues exactly one request to a destination URL.
type Prober interface {
	// Probe returns the response status, or an error if the transport failed.
	// Implementations must release the response before returning.
	Probe(ctx context.Context, url string) (ProbeResult, error)
}

// Pacer spaces out requests that share a key (typically the destination host).
type Pacer interface {
	// Wait blocks until a request for key may proceed or ctx is done.
	Wait(ctx context.Context, key string) error
}

// ScriptStore is the external file the encoded list is spliced into.
type ScriptStore interface {
	Path() string
	Read() ([]byte, error)
	Write(content []byte) error
}
