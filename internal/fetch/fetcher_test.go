package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newTestFetcher returns a Fetcher that does not wait between attempts.
func newTestFetcher(opts ...Option) *Fetcher {
	base := []Option{
		WithRetryDelay(0),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(append(base, opts...)...)
}

func TestFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body on success", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("User-Agent") != "test-agent" {
				t.Errorf("expected custom user agent, got %q", r.Header.Get("User-Agent"))
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<p>hello</p>"))
		}))
		defer server.Close()

		doc, err := newTestFetcher(WithUserAgent("test-agent")).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(doc.Body) != "<p>hello</p>" {
			t.Errorf("unexpected body %q", doc.Body)
		}
		if doc.StatusCode != http.StatusOK || !doc.OK() {
			t.Errorf("unexpected status %d", doc.StatusCode)
		}
		if doc.Attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", doc.Attempts)
		}
	})

	t.Run("retries transient failures until success", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("third time"))
		}))
		defer server.Close()

		doc, err := newTestFetcher(WithRetries(3)).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(doc.Body) != "third time" {
			t.Errorf("unexpected body %q", doc.Body)
		}
		if doc.Attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", doc.Attempts)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 requests, got %d", calls.Load())
		}
	})

	t.Run("client errors are successful responses", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("There is currently no text in this page."))
		}))
		defer server.Close()

		doc, err := newTestFetcher().Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", doc.StatusCode)
		}
		if doc.OK() {
			t.Error("expected OK() to be false for 404")
		}
		if !strings.Contains(string(doc.Body), "no text") {
			t.Errorf("expected body to be kept, got %q", doc.Body)
		}
		if calls.Load() != 1 {
			t.Errorf("expected no retries for 404, got %d requests", calls.Load())
		}
	})

	t.Run("gives up after configured attempts", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		var logs bytes.Buffer
		f := New(
			WithRetries(3),
			WithRetryDelay(0),
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		)

		_, err := f.Fetch(context.Background(), server.URL)
		if err == nil {
			t.Fatal("expected error")
		}

		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("expected *FetchError, got %T: %v", err, err)
		}
		if fe.URL != server.URL {
			t.Errorf("expected URL %q, got %q", server.URL, fe.URL)
		}
		if fe.Attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", fe.Attempts)
		}
		if !errors.Is(err, ErrServerStatus) {
			t.Errorf("expected ErrServerStatus, got %v", err)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 requests, got %d", calls.Load())
		}
		if strings.Count(logs.String(), "fetch attempt failed") != 2 {
			t.Errorf("expected 2 retry diagnostics, got log:\n%s", logs.String())
		}
	})

	t.Run("network errors are retried", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newTestFetcher(WithRetries(2)).Fetch(context.Background(), url)
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("expected *FetchError, got %v", err)
		}
		if fe.Attempts != 2 {
			t.Errorf("expected 2 attempts, got %d", fe.Attempts)
		}
	})

	t.Run("per attempt timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		start := time.Now()
		_, err := newTestFetcher(WithRetries(1), WithTimeout(50*time.Millisecond)).Fetch(context.Background(), server.URL)
		if err == nil {
			t.Fatal("expected timeout error")
		}
		if time.Since(start) > 5*time.Second {
			t.Errorf("timeout was not applied, took %s", time.Since(start))
		}
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(WithRetries(5), WithRetryDelay(time.Hour)).Fetch(ctx, server.URL)
		if err == nil {
			t.Fatal("expected error")
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("oversized body is not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write(bytes.Repeat([]byte("a"), 64))
		}))
		defer server.Close()

		_, err := newTestFetcher(WithMaxBodySize(16)).Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Fatalf("expected ErrBodyTooLarge, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected a single request, got %d", calls.Load())
		}
	})
}

func TestDocumentReader(t *testing.T) {
	t.Parallel()

	// "Pokémon" in ISO-8859-1
	doc := &Document{
		URL:         "http://example.com",
		ContentType: "text/html; charset=ISO-8859-1",
		Body:        []byte{'P', 'o', 'k', 0xe9, 'm', 'o', 'n'},
	}

	r, err := doc.Reader()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(decoded) != "Pokémon" {
		t.Errorf("expected UTF-8 decoded text, got %q", decoded)
	}
}

func TestFetchJSON(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"version":"14.3.1"}`))
	})
	mux.HandleFunc("/bad", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"version":`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := newTestFetcher()

	t.Run("decodes", func(t *testing.T) {
		t.Parallel()

		var v struct {
			Version string `json:"version"`
		}
		if err := f.FetchJSON(context.Background(), server.URL+"/ok", &v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Version != "14.3.1" {
			t.Errorf("unexpected version %q", v.Version)
		}
	})

	t.Run("rejects non 2xx", func(t *testing.T) {
		t.Parallel()

		var v map[string]any
		err := f.FetchJSON(context.Background(), server.URL+"/missing", &v)
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
	})

	t.Run("reports malformed JSON", func(t *testing.T) {
		t.Parallel()

		var v map[string]any
		if err := f.FetchJSON(context.Background(), server.URL+"/bad", &v); err == nil {
			t.Error("expected decode error")
		}
	})
}
