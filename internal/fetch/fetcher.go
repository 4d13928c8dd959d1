package fetch

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/tablecrawl/tablecrawl/internal/config"
	"github.com/tablecrawl/tablecrawl/internal/model"
	"github.com/tablecrawl/tablecrawl/internal/politeness"
)

// PageContent is a successfully fetched page, body decoded to UTF-8.
type PageContent struct {
	// URL is the fetched URL (after any redirects the client followed).
	URL string

	// StatusCode is the final HTTP status code.
	StatusCode int

	// Body is the response body, transcoded to UTF-8 and truncated to the
	// configured size limit.
	Body []byte
}

// Fetcher issues HTTP requests through the politeness gate, classifies
// outcomes, and applies retry with exponential backoff and jitter.
//
// Design decision: We require an external *http.Client because:
//  1. The per-request timeout is configuration, not fetch logic
//  2. Tests can substitute a client talking to an httptest server
//  3. Consistent with how the gate is injected
type Fetcher struct {
	// client is the HTTP client used for all requests.
	client *http.Client

	// gate is acquired for the target host before every attempt.
	gate *politeness.Gate

	// logger receives per-attempt debug logging.
	logger *slog.Logger

	// maxRetries is the retry ceiling for throttled and transient failures.
	maxRetries int

	// backoffBase is the first retry delay; it doubles per attempt with
	// jitter of up to one base added.
	backoffBase time.Duration

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// userAgent is the User-Agent header to send.
	userAgent string

	// profiles supplies per-host cookies and headers. May be nil.
	profiles *config.File
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithMaxRetries sets the retry ceiling for retryable failures.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithBackoffBase sets the initial retry delay.
func WithBackoffBase(d time.Duration) Option {
	return func(f *Fetcher) {
		f.backoffBase = d
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithProfiles supplies per-host profiles for cookies and extra headers.
func WithProfiles(profiles *config.File) Option {
	return func(f *Fetcher) {
		f.profiles = profiles
	}
}

// New creates a Fetcher issuing requests through the given client and gate.
func New(client *http.Client, gate *politeness.Gate, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		gate:        gate,
		maxRetries:  config.DefaultMaxRetries,
		backoffBase: 500 * time.Millisecond,
		maxBodySize: config.DefaultMaxBodySize,
		userAgent:   config.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch retrieves the page for task, retrying throttled and transient
// failures up to the retry ceiling. The returned error, when non-nil, is
// always a *fetch.Error carrying the final classification; the fetch has no
// side effects beyond the network call and gate bookkeeping.
func (f *Fetcher) Fetch(ctx context.Context, task *model.CrawlTask) (*PageContent, error) {
	u, err := url.Parse(task.URL)
	if err != nil {
		return nil, &Error{URL: task.URL, Class: ClassGone, Err: err}
	}
	host := u.Hostname()

	var lastErr *Error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			if err := f.sleepBackoff(ctx, attempt, lastErr.RetryAfter); err != nil {
				lastErr.Retries = attempt - 1
				return nil, lastErr
			}
		}

		content, ferr := f.attempt(ctx, host, task.URL)
		if ferr == nil {
			f.logger.Debug("page fetched",
				"url", task.URL,
				"kind", task.Kind.String(),
				"status", content.StatusCode,
				"attempt", attempt,
			)
			return content, nil
		}

		lastErr = ferr
		if ferr.Class == ClassGone || ferr.Class == ClassFatal {
			ferr.Retries = attempt
			f.logger.Debug("fetch not retryable",
				"url", task.URL,
				"class", ferr.Class.String(),
				"status", ferr.StatusCode,
			)
			return nil, ferr
		}

		f.logger.Debug("fetch attempt failed",
			"url", task.URL,
			"class", ferr.Class.String(),
			"status", ferr.StatusCode,
			"attempt", attempt,
		)
	}

	lastErr.Retries = f.maxRetries
	return nil, lastErr
}

// attempt performs a single gated request and classifies the outcome.
func (f *Fetcher) attempt(ctx context.Context, host, pageURL string) (*PageContent, *Error) {
	release, err := f.gate.Acquire(ctx, host)
	if err != nil {
		return nil, &Error{URL: pageURL, Class: ClassTransient, Err: err}
	}
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &Error{URL: pageURL, Class: ClassGone, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	f.applyProfile(req, host)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: pageURL, Class: classifyNetErr(err), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Fall through to body read below.
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, &Error{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Class:      ClassThrottled,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, &Error{URL: pageURL, StatusCode: resp.StatusCode, Class: ClassGone}
	case resp.StatusCode >= 500:
		return nil, &Error{URL: pageURL, StatusCode: resp.StatusCode, Class: ClassTransient}
	default:
		// Remaining 4xx and 3xx the client did not follow: nothing a retry
		// would change.
		return nil, &Error{URL: pageURL, StatusCode: resp.StatusCode, Class: ClassGone}
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, &Error{URL: pageURL, StatusCode: resp.StatusCode, Class: ClassTransient, Err: err}
	}

	return &PageContent{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// applyProfile adds the host profile's cookie and extra headers, if any.
func (f *Fetcher) applyProfile(req *http.Request, host string) {
	if f.profiles == nil {
		return
	}
	profile := f.profiles.GetHostProfile(host)
	if profile.Cookie != "" {
		req.Header.Set("Cookie", profile.Cookie)
	}
	for k, v := range profile.Headers {
		req.Header.Set(k, v)
	}
}

// readBody reads the response body up to the size limit, transcoding it to
// UTF-8 based on the detected source encoding. Listing sites occasionally
// serve legacy encodings on localized city pages.
func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, f.maxBodySize)
	br := bufio.NewReader(limited)

	enc := detectEncoding(br, resp.Header.Get("Content-Type"))
	return io.ReadAll(transform.NewReader(br, enc.NewDecoder()))
}

// detectEncoding sniffs the source encoding from the first 1024 bytes and
// the Content-Type header, defaulting to UTF-8.
func detectEncoding(br *bufio.Reader, contentType string) encoding.Encoding {
	peek, err := br.Peek(1024)
	if err != nil && len(peek) == 0 {
		return unicode.UTF8
	}
	enc, _, _ := charset.DetermineEncoding(peek, contentType)
	return enc
}

// classifyNetErr classifies a transport-level error. Unresolvable host names
// are fatal: the crawl cannot make progress against a root whose name does
// not resolve, and retrying would only delay the abort.
func classifyNetErr(err error) Classification {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return ClassFatal
	}
	return ClassTransient
}

// maxRetryAfter caps server-requested waits so one hostile or misconfigured
// Retry-After header cannot stall a worker for the rest of the run.
const maxRetryAfter = time.Minute

// sleepBackoff waits for the exponential backoff delay before retry number
// attempt, with up to one backoffBase of jitter added to spread synchronized
// retries. A throttling response's Retry-After acts as a lower bound on the
// wait. Returns early with an error when ctx is done.
func (f *Fetcher) sleepBackoff(ctx context.Context, attempt int, retryAfter time.Duration) error {
	delay := f.backoffBase << (attempt - 1)
	delay += time.Duration(rand.Int63n(int64(f.backoffBase) + 1)) //nolint:gosec // jitter needs no crypto randomness
	if retryAfter > delay {
		delay = retryAfter
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// parseRetryAfter interprets a Retry-After header value as delay seconds or
// an HTTP date, capped at maxRetryAfter. Unparseable values yield zero and
// the normal backoff applies.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	var delay time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		delay = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		delay = time.Until(at)
	}

	if delay < 0 {
		return 0
	}
	return min(delay, maxRetryAfter)
}
