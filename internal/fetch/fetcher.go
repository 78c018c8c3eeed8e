package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html/charset"
)

// Default fetch settings.
const (
	// DefaultRetries is the total number of attempts per URL.
	DefaultRetries = 3

	// DefaultRetryDelay is the wait between attempts.
	DefaultRetryDelay = 1 * time.Second

	// DefaultTimeout bounds a single attempt, including reading the body.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultUserAgent is a desktop browser string. The wiki serves bare
	// clients a challenge page instead of the rendered article.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"
)

// Document is a fetched response body.
type Document struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status of the successful attempt.
	StatusCode int

	// ContentType is the Content-Type response header.
	ContentType string

	// Body is the raw response body.
	Body []byte

	// Attempts is the number of requests it took to get this document.
	Attempts int
}

// Reader returns the body decoded to UTF-8 according to its Content-Type
// header and any <meta charset> declaration.
func (d *Document) Reader() (io.Reader, error) {
	r, err := charset.NewReader(bytes.NewReader(d.Body), d.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", d.URL, err)
	}
	return r, nil
}

// OK reports whether the status is 2xx.
func (d *Document) OK() bool {
	return d.StatusCode >= 200 && d.StatusCode < 300
}

// Fetcher performs GET requests with retry.
type Fetcher struct {
	// client performs the requests. Its own Timeout is left untouched;
	// attempts are bounded by timeout instead.
	client *http.Client

	// retries is the total number of attempts, at least 1.
	retries int

	// delay is the wait between attempts when no backoff factory is set.
	delay time.Duration

	// newBackOff builds the wait policy for one Fetch call.
	newBackOff func() backoff.BackOff

	// timeout bounds each attempt.
	timeout time.Duration

	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithRetries sets the total number of attempts. Values below 1 are ignored.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.retries = n
		}
	}
}

// WithRetryDelay sets a fixed wait between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.delay = d
		}
	}
}

// WithBackOff replaces the fixed delay with a custom wait policy, e.g. an
// exponential backoff. The factory is called once per Fetch.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(f *Fetcher) {
		f.newBackOff = factory
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher with defaults overridden by opts.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{},
		retries:     DefaultRetries,
		delay:       DefaultRetryDelay,
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch GETs url, retrying transient failures. 4xx responses are returned
// as successful documents. When every attempt fails the error is a
// *FetchError; if ctx ends first its error is wrapped as well.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	attempts := 0

	operation := func() (*Document, error) {
		attempts++
		doc, err := f.attempt(ctx, url)
		if err != nil {
			return nil, err
		}
		doc.Attempts = attempts
		return doc, nil
	}

	notify := func(err error, wait time.Duration) {
		f.logger.Warn("fetch attempt failed",
			"url", url,
			"attempt", attempts,
			"retries", f.retries,
			"wait", wait,
			"error", err,
		)
	}

	doc, err := backoff.RetryNotifyWithData(operation, f.policy(ctx), notify)
	if err != nil {
		return nil, &FetchError{URL: url, Attempts: attempts, Err: err}
	}
	return doc, nil
}

// policy returns the retry policy for one Fetch call. The first attempt is
// immediate, so retries-1 waits are allowed.
func (f *Fetcher) policy(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff
	if f.newBackOff != nil {
		b = f.newBackOff()
	} else {
		b = backoff.NewConstantBackOff(f.delay)
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.retries-1)), ctx) //nolint:gosec // retries is at least 1
}

// attempt performs one request bounded by the per-attempt timeout.
func (f *Fetcher) attempt(ctx context.Context, url string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		// drain so the connection can be reused for the retry
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBodySize))
		return nil, fmt.Errorf("%w: %d", ErrServerStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, backoff.Permanent(fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.maxBodySize))
	}

	return &Document{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// FetchJSON fetches url and decodes a 2xx JSON body into v.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, v any) error {
	doc, err := f.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if !doc.OK() {
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, url, doc.StatusCode)
	}
	if err := json.Unmarshal(doc.Body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}
