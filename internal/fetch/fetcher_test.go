package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tablecrawl/tablecrawl/internal/config"
	"github.com/tablecrawl/tablecrawl/internal/model"
	"github.com/tablecrawl/tablecrawl/internal/politeness"
)

// newTestFetcher returns a fetcher with fast backoff against the given server.
func newTestFetcher(srv *httptest.Server, opts ...Option) *Fetcher {
	base := []Option{
		WithBackoffBase(time.Millisecond),
		WithMaxRetries(2),
	}
	return New(srv.Client(), politeness.New(4, 0), append(base, opts...)...)
}

// listingTask returns a minimal listing task for the given URL.
func listingTask(url string) *model.CrawlTask {
	return &model.CrawlTask{Kind: model.KindListing, URL: url, PageIndex: 1, ListingPage: 1}
}

// TestFetchSuccess tests a plain successful fetch.
func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	content, err := f.Fetch(context.Background(), listingTask(srv.URL))
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if content.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", content.StatusCode)
	}
	if !strings.Contains(string(content.Body), "ok") {
		t.Errorf("unexpected body: %q", content.Body)
	}
}

// TestFetchRetriesThrottled tests that 429 responses are retried with
// backoff until the server recovers.
func TestFetchRetriesThrottled(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("<html>recovered</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	content, err := f.Fetch(context.Background(), listingTask(srv.URL))
	if err != nil {
		t.Fatalf("expected recovery after throttling, got %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if !strings.Contains(string(content.Body), "recovered") {
		t.Errorf("unexpected body: %q", content.Body)
	}
}

// TestFetchHonorsRetryAfter tests that a throttling response's Retry-After
// header stretches the wait before the next attempt.
func TestFetchHonorsRetryAfter(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("<html>recovered</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(srv) // backoffBase = 1ms, far under the header value
	start := time.Now()
	if _, err := f.Fetch(context.Background(), listingTask(srv.URL)); err != nil {
		t.Fatalf("expected recovery after throttling, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("retry ignored Retry-After, waited only %v", elapsed)
	}
}

// TestParseRetryAfter tests header value interpretation.
func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "empty", value: "", want: 0},
		{name: "seconds", value: "7", want: 7 * time.Second},
		{name: "garbage", value: "soon", want: 0},
		{name: "capped", value: "86400", want: maxRetryAfter},
		{name: "past http date", value: "Mon, 02 Jan 2006 15:04:05 GMT", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseRetryAfter(tt.value); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	t.Run("future http date", func(t *testing.T) {
		t.Parallel()
		got := parseRetryAfter(time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat))
		if got <= 0 || got > 10*time.Second {
			t.Errorf("expected a wait up to 10s, got %v", got)
		}
	})
}

// TestFetchGoneNotRetried tests that 404 drops immediately without retry.
func TestFetchGoneNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	_, err := f.Fetch(context.Background(), listingTask(srv.URL))
	if !IsGone(err) {
		t.Fatalf("expected gone classification, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected exactly 1 attempt for gone page, got %d", got)
	}
}

// TestFetchTransientExhaustsRetries tests the bounded retry ceiling on 5xx.
func TestFetchTransientExhaustsRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(srv) // maxRetries = 2
	_, err := f.Fetch(context.Background(), listingTask(srv.URL))

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *fetch.Error, got %v", err)
	}
	if fe.Class != ClassTransient {
		t.Errorf("expected transient classification, got %s", fe.Class)
	}
	if fe.Retries != 2 {
		t.Errorf("expected 2 retries recorded, got %d", fe.Retries)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", got)
	}
}

// TestFetchBodySizeLimit tests that oversized bodies are truncated.
func TestFetchBodySizeLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 10_000)))
	}))
	defer srv.Close()

	f := newTestFetcher(srv, WithMaxBodySize(1024))
	content, err := f.Fetch(context.Background(), listingTask(srv.URL))
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(content.Body) > 1024 {
		t.Errorf("body not truncated: %d bytes", len(content.Body))
	}
}

// TestFetchAppliesHostProfile tests that profile cookies and headers are
// sent with requests.
func TestFetchAppliesHostProfile(t *testing.T) {
	t.Parallel()

	var gotCookie, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotHeader = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	host = strings.Split(host, ":")[0]

	profiles := &config.File{
		Hosts: map[string]config.HostProfile{
			host: {
				Cookie:  "session=abc123",
				Headers: map[string]string{"Accept-Language": "fr-FR"},
			},
		},
	}

	f := newTestFetcher(srv, WithProfiles(profiles))
	if _, err := f.Fetch(context.Background(), listingTask(srv.URL)); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if gotCookie != "session=abc123" {
		t.Errorf("expected profile cookie, got %q", gotCookie)
	}
	if gotHeader != "fr-FR" {
		t.Errorf("expected profile header override, got %q", gotHeader)
	}
}

// TestClassifyHelpers tests the classification helper predicates.
func TestClassifyHelpers(t *testing.T) {
	t.Parallel()

	gone := &Error{URL: "https://example.com", Class: ClassGone}
	if !IsGone(gone) {
		t.Error("expected IsGone for gone error")
	}
	if IsFatal(gone) {
		t.Error("expected not fatal for gone error")
	}

	fatal := &Error{URL: "https://example.com", Class: ClassFatal}
	if !IsFatal(fatal) {
		t.Error("expected IsFatal for fatal error")
	}

	if _, ok := Classify(errors.New("plain")); ok {
		t.Error("expected Classify to reject non-fetch errors")
	}
}
