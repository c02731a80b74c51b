package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

const (
	defaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of an upstream body is read.
	maxBodyBytes = 16 << 20

	userAgent = "qubicdash/1.0"

	// contentTypePatch is what the upstream login and history endpoints expect.
	contentTypePatch = "application/json-patch+json"
)

// ErrNotFound is returned when an upstream answers successfully but lacks the
// requested item (e.g. a price pair CoinGecko does not know).
var ErrNotFound = errors.New("upstream: not found")

// ErrBodyTooLarge is returned when an upstream body exceeds maxBodyBytes.
var ErrBodyTooLarge = errors.New("upstream: body too large")

// StatusError reports a non-2xx upstream answer.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string // first bytes of the body, for logs
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: %s returned HTTP %d", e.URL, e.StatusCode)
}

// Response is an upstream answer passed through to a proxy caller.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// codec is the JSON implementation for upstream payloads. UseNumber keeps
// numbers exact when a body is decoded only to drop a field and re-encoded.
var codec = sonic.Config{UseNumber: true}.Froze()

// headerRoundTripper stamps the headers every upstream request carries.
type headerRoundTripper struct {
	base http.RoundTripper
}

func (t *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient builds the shared client used by every upstream. A
// non-positive timeout selects the default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Transport: &headerRoundTripper{base: http.DefaultTransport},
		Timeout:   timeout,
	}
}

// request describes one upstream call.
type request struct {
	method string
	url    string
	token  string // sent as a bearer token when non-empty
	body   []byte // sent as application/json-patch+json when non-nil
}

// do performs r and returns the raw answer whatever its status.
func do(ctx context.Context, client *http.Client, r request) (*Response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", contentTypePatch)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http %s: %w", r.method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("%s %s: %w (over %d bytes)", r.method, r.url, ErrBodyTooLarge, maxBodyBytes)
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// doJSON performs r, requires a 2xx status and decodes the body into v.
func doJSON(ctx context.Context, client *http.Client, r request, v any) error {
	resp, err := do(ctx, client, r)
	if err != nil {
		return err
	}
	if err := checkStatus(r.url, resp); err != nil {
		return err
	}
	if err := sonic.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", r.url, err)
	}
	return nil
}

func checkStatus(url string, resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet := resp.Body
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}
	return &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(snippet)}
}
