package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hpungsan/statustracker/internal/metrics"
)

const (
	contentType = "application/msgpack"

	// maxBody caps a single response; five years of hour records fit well inside.
	maxBody = 256 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	UUIDCacheTTL time.Duration
	NameMapTTL   time.Duration
	Metrics      *metrics.Metrics
	Logger       *slog.Logger

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client fetches MessagePack documents from a statustracker server.
// Every fetch either yields a decoded value or "no data"; failures are
// logged and counted, never returned.
type Client struct {
	base    string
	h       *http.Client
	log     *slog.Logger
	metrics *metrics.Metrics

	uuids      *cache.Cache
	nameMaps   *cache.Cache
	nameMapTTL time.Duration
}

// New creates a client for the server at opts.BaseURL.
func New(opts Options) *Client {
	h := opts.HTTPClient
	if h == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		h = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	uuidTTL := opts.UUIDCacheTTL
	if uuidTTL <= 0 {
		uuidTTL = time.Hour
	}

	return &Client{
		base:       strings.TrimRight(opts.BaseURL, "/"),
		h:          h,
		log:        logger.With("component", "remote"),
		metrics:    opts.Metrics,
		uuids:      cache.New(uuidTTL, 2*uuidTTL),
		nameMaps:   cache.New(cache.NoExpiration, 10*time.Minute),
		nameMapTTL: opts.NameMapTTL,
	}
}

// BaseURL returns the server the client talks to.
func (c *Client) BaseURL() string {
	return c.base
}

// getMsgPack performs GET base+path?query and decodes the body into T.
// The boolean is false on transport failure, non-2xx status or decode
// failure; the zero T is returned in that case.
func getMsgPack[T any](ctx context.Context, c *Client, path string, query url.Values) (T, bool) {
	var zero T
	start := time.Now()
	endpoint := endpointLabel(path)

	fail := func(outcome string, attrs ...any) (T, bool) {
		c.metrics.FetchDone(endpoint, outcome, time.Since(start))
		c.log.Warn("fetch failed", append([]any{"endpoint", endpoint, "reason", outcome}, attrs...)...)
		return zero, false
	}

	if c.base == "" {
		return fail(metrics.OutcomeTransport, "error", "no server configured")
	}

	u, err := url.Parse(c.base + path)
	if err != nil {
		return fail(metrics.OutcomeTransport, "error", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fail(metrics.OutcomeTransport, "error", err)
	}
	req.Header.Set("Accept", contentType)

	resp, err := c.h.Do(req)
	if err != nil {
		return fail(metrics.OutcomeTransport, "error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fail(metrics.OutcomeTransport, "error", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(metrics.OutcomeStatus, "status", resp.StatusCode, "body", snippet(body))
	}

	var out T
	if err := decode(body, &out); err != nil {
		return fail(metrics.OutcomeDecode, "error", err)
	}

	c.metrics.FetchDone(endpoint, metrics.OutcomeOK, time.Since(start))
	c.log.Debug("fetched", "endpoint", endpoint, "bytes", len(body), "elapsed", time.Since(start))
	return out, true
}

func decode(body []byte, v any) (err error) {
	// A malformed document must never take the caller down.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode panic: %v", r)
		}
	}()
	dec := msgpack.NewDecoder(bytes.NewReader(body))
	return dec.Decode(v)
}

// endpointLabel collapses per-name paths so metrics stay low-cardinality.
func endpointLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/uuid/"):
		return "/uuid"
	case strings.HasPrefix(path, "/player/"):
		return "/player"
	case path == "":
		return "/"
	}
	return path
}

func snippet(b []byte) string {
	const n = 200
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
