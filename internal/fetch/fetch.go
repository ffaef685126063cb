package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// Default limits for the full page fetch and the lightweight probe.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultRedirectHops   = 5

	probeTimeout      = 10 * time.Second
	probeRedirectHops = 3
)

// DefaultUserAgent is a realistic desktop browser string. Many publishers
// serve stripped-down or blocked pages to obvious bot agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ErrInvalidURL is returned for inputs that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("invalid URL: scheme must be http or https")

// ErrEmptyResponse is returned when the server answered 2xx with no body.
var ErrEmptyResponse = errors.New("empty response from URL")

// HTTPError reports a response with status >= 400.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d when fetching page", e.Status)
}

// TransportError wraps network-level failures (DNS, dial, TLS, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to fetch page: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client retrieves article pages over HTTP with bounded timeouts and
// redirects. A single failed attempt is final: callers surface the error to
// the submitter instead of retrying.
type Client struct {
	// HTTPClient overrides the built-in client when set; its transport is
	// reused but redirect policy is always this package's.
	HTTPClient *http.Client
	UserAgent  string
	// Timeout bounds the whole request. Zero means DefaultTimeout.
	Timeout time.Duration
	// ConnectTimeout bounds dialing. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
	// RedirectMaxHops caps redirect following. Zero means DefaultRedirectHops.
	RedirectMaxHops int
}

// Fetch issues a GET for url and returns the page body decoded to UTF-8.
// Failures are typed: ErrInvalidURL, *TransportError, *HTTPError or
// ErrEmptyResponse.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if !isHTTPURL(rawURL) {
		return nil, ErrInvalidURL
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, ErrInvalidURL
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	// Accept-Encoding is left to the transport, which negotiates gzip and
	// decompresses transparently.

	resp, err := c.httpClient(c.redirectHops()).Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{Status: resp.StatusCode}
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decode charset: %w", err)}
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) == 0 {
		return nil, ErrEmptyResponse
	}
	return body, nil
}

// IsAccessible probes url with a HEAD request under a short timeout and a
// smaller redirect budget. It never fails: any error reads as false. Intended
// as a cheap pre-check before the full fetch/extract pipeline runs.
func (c *Client) IsAccessible(ctx context.Context, rawURL string) bool {
	if !isHTTPURL(rawURL) {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient(probeRedirectHops).Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

func (c *Client) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}

func (c *Client) redirectHops() int {
	if c.RedirectMaxHops > 0 {
		return c.RedirectMaxHops
	}
	return DefaultRedirectHops
}

func (c *Client) httpClient(maxHops int) *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client.
		base := *c.HTTPClient
		base.CheckRedirect = checkRedirectFunc(maxHops)
		return &base
	}
	connect := c.ConnectTimeout
	if connect <= 0 {
		connect = DefaultConnectTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:         (&net.Dialer{Timeout: connect}).DialContext,
			TLSHandshakeTimeout: connect,
		},
		CheckRedirect: checkRedirectFunc(maxHops),
	}
}

func checkRedirectFunc(maxHops int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxHops {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects.
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return isHTTPScheme(u) && u.Host != ""
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
