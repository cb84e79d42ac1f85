package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sophialabs/redirectlint/internal/infrastructure/ports"
)

var _ ports.Logger = (*NoopLogger)(nil)

// NoopLogger discards all log output.
type NoopLogger struct{}

func (l *NoopLogger) Info(string, ...any)  {}
func (l *NoopLogger) Warn(string, ...any)  {}
func (l *NoopLogger) Error(string, ...any) {}
func (l *NoopLogger) Debug(string, ...any) {}

var _ ports.Clock = (*FixedClock)(nil)

// FixedClock always returns the same time.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

var _ ports.Prober = (*StubProber)(nil)

// StubProber answers probes from a table keyed by URL. Unknown URLs get 200.
type StubProber struct {
	Statuses map[string]int
	Errors   map[string]error
	// Delay is applied to every probe, honouring ctx.
	Delay time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func (p *StubProber) Probe(ctx context.Context, url string) (ports.ProbeResult, error) {
	p.mu.Lock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[url]++
	p.mu.Unlock()

	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ports.ProbeResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	if err, ok := p.Errors[url]; ok {
		return ports.ProbeResult{}, err
	}
	status, ok := p.Statuses[url]
	if !ok {
		status = 200
	}
	return ports.ProbeResult{StatusCode: status, Status: fmt.Sprintf("%d %s", status, http.StatusText(status))}, nil
}

// Calls returns how many times url was probed.
func (p *StubProber) Calls(url string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[url]
}

var _ ports.ScriptStore = (*MemoryScript)(nil)

// MemoryScript is an in-memory ScriptStore.
type MemoryScript struct {
	Name     string
	Content  []byte
	ReadErr  error
	WriteErr error
	Writes   int
}

func (s *MemoryScript) Path() string { return s.Name }

func (s *MemoryScript) Read() ([]byte, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	return append([]byte(nil), s.Content...), nil
}

func (s *MemoryScript) Write(content []byte) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.Writes++
	s.Content = append([]byte(nil), content...)
	return nil
}
