package httpprobe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sophialabs/redirectlint/internal/infrastructure/outbound/httpprobe"
)

func newDestination(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1<<20)))
	})
	r.Get("/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	r.Get("/moved", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/gone", http.StatusMovedPermanently)
	})
	r.Get("/agent", func(w http.ResponseWriter, req *http.Request) {
		if req.UserAgent() != "redirectlint-test" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Head("/head-only", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/slow", func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_ReportsStatus(t *testing.T) {
	ts := newDestination(t)
	c := httpprobe.New(httpprobe.Options{})

	tests := []struct {
		path string
		want int
	}{
		{"/ok", http.StatusOK},
		{"/gone", http.StatusGone},
		{"/moved", http.StatusGone},
		{"/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res, err := c.Probe(context.Background(), ts.URL+tt.path)
			if err != nil {
				t.Fatalf("Probe failed: %v", err)
			}
			if res.StatusCode != tt.want {
				t.Errorf("StatusCode = %d, want %d", res.StatusCode, tt.want)
			}
			if !strings.Contains(res.Status, http.StatusText(tt.want)) {
				t.Errorf("Status = %q, want text %q", res.Status, http.StatusText(tt.want))
			}
		})
	}
}

func TestClient_SendsUserAgent(t *testing.T) {
	ts := newDestination(t)
	c := httpprobe.New(httpprobe.Options{UserAgent: "redirectlint-test"})

	res, err := c.Probe(context.Background(), ts.URL+"/agent")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if res.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 with user agent set, got %d", res.StatusCode)
	}
}

func TestClient_Method(t *testing.T) {
	ts := newDestination(t)
	c := httpprobe.New(httpprobe.Options{Method: http.MethodHead})

	res, err := c.Probe(context.Background(), ts.URL+"/head-only")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for HEAD, got %d", res.StatusCode)
	}
}

func TestClient_TransportError(t *testing.T) {
	ts := newDestination(t)
	url := ts.URL + "/ok"
	ts.Close()

	c := httpprobe.New(httpprobe.Options{})
	if _, err := c.Probe(context.Background(), url); err == nil {
		t.Error("expected error probing a closed server")
	}
}

func TestClient_InvalidURL(t *testing.T) {
	c := httpprobe.New(httpprobe.Options{})
	_, err := c.Probe(context.Background(), "http://[::1")
	if err == nil {
		t.Fatal("expected error for malformed URL")
	}
	if !strings.Contains(err.Error(), "invalid request") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	ts := newDestination(t)
	c := httpprobe.New(httpprobe.Options{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := c.Probe(context.Background(), ts.URL+"/slow")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout not enforced, took %v", time.Since(start))
	}
}

func TestClient_ContextCancel(t *testing.T) {
	ts := newDestination(t)
	c := httpprobe.New(httpprobe.Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Probe(ctx, ts.URL+"/slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
