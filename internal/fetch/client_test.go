package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGetAppliesUserAgentAndBodyLimit(t *testing.T) {
	t.Parallel()

	var seenUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	client := NewClient(Options{
		BodyByteLimit: 10,
		UserAgent:     "test-agent/1.0",
		DisableDelay:  true,
	})

	body, contentType, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(body) != 10 {
		t.Fatalf("body limit not applied, got %d bytes", len(body))
	}
	if contentType != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", contentType)
	}
	if seenUserAgent != "test-agent/1.0" {
		t.Fatalf("unexpected user agent %q", seenUserAgent)
	}
}

func TestGetRejectsErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Options{DisableDelay: true})
	if _, _, err := client.Get(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestDelayRespectsContextCancellation(t *testing.T) {
	t.Parallel()

	transport := &politeTransport{
		base:     http.DefaultTransport,
		minDelay: time.Hour,
		maxDelay: time.Hour,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := transport.wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("wait did not return promptly, took %s", elapsed)
	}
}
