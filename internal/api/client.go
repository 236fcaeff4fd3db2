// Package api is the gateway client for the GoBarber backend.
//
// A Client is configured once with the base URL. Requests that need a bearer
// credential go through a copy obtained from WithToken, which injects the
// token per request via an oauth2.Transport instead of mutating a shared
// default header.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/gobarber/internal/apperror"
)

// DefaultTimeout bounds every request when the caller does not pick one.
const DefaultTimeout = 15 * time.Second

// Client talks JSON over HTTP to the backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
	token   string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client (tests pass
// httptest.Server.Client() here).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client for baseURL, e.g. "http://localhost:3333".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parsing base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, apperror.Configuration(fmt.Sprintf("api: base URL %q must be absolute", baseURL))
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithToken returns a copy of c that sends "Authorization: Bearer <token>" on
// every request. The receiver is left untouched.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	cp.http = &http.Client{
		Timeout:       c.http.Timeout,
		CheckRedirect: c.http.CheckRedirect,
		Jar:           c.http.Jar,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.http.Transport,
		},
	}
	return &cp
}

// Authorized reports whether the client carries a credential.
func (c *Client) Authorized() bool {
	return c.token != ""
}

// errorResponse mirrors the backend's error body.
type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// do sends a request and decodes a 2xx JSON body into out (if non-nil).
// Any other status becomes an *apperror.AppError. path is already escaped;
// callers escape path parameters with url.PathEscape.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (int, error) {
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return 0, fmt.Errorf("api: invalid path %q: %w", path, err)
	}
	u.Path = unescaped
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("api: encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return 0, fmt.Errorf("api: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return 0, apperror.Network(0, fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, apperror.Network(resp.StatusCode,
				fmt.Sprintf("decoding %s %s response", method, path), err)
		}
	}
	return resp.StatusCode, nil
}

func decodeError(resp *http.Response) error {
	var body errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}

	if body.Error == "validation_error" {
		field, message := "", body.Message
		if keys := slices.Sorted(maps.Keys(body.Fields)); len(keys) > 0 {
			field, message = keys[0], body.Fields[keys[0]]
		}
		return &apperror.AppError{
			Err:     apperror.ErrValidation,
			Message: message,
			Field:   field,
			Status:  resp.StatusCode,
		}
	}

	return apperror.Network(resp.StatusCode, body.Message, nil)
}

// statusOf returns the HTTP status carried by err, or 0.
func statusOf(err error) int {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}
