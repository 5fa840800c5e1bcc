// Package client talks to the goal checklist backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/goalcheck/goalcheck/internal/locale"
	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/session"
)

// HeaderRequestID correlates client and server logs.
const HeaderRequestID = "X-Request-ID"

const defaultTimeout = 30 * time.Second

// Client wraps API calls.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	sessions     session.Store
	logger       *logutil.Logger
	newID        func() string

	mu     sync.RWMutex
	locale locale.Locale

	refresh singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for all calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
			c.streamClient = hc
		}
	}
}

// WithTimeout bounds non-streaming calls.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// WithSessions sets where tokens are read from and persisted to.
func WithSessions(s session.Store) Option {
	return func(c *Client) { c.sessions = s }
}

// WithLocale sets the locale headers sent with each request.
func WithLocale(l locale.Locale) Option {
	return func(c *Client) { c.locale = l }
}

// WithLogger sets the request logger.
func WithLogger(l *logutil.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: defaultTimeout},
		streamClient: &http.Client{},
		logger:       logutil.Discard(),
		locale:       locale.Default(),
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// Locale returns the locale sent with requests.
func (c *Client) Locale() locale.Locale {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locale
}

// SetLocale changes the locale for subsequent requests.
func (c *Client) SetLocale(l locale.Locale) {
	c.mu.Lock()
	c.locale = l
	c.mu.Unlock()
}

type call struct {
	method string
	path   string
	body   []byte
	accept string
	auth   bool
	stream bool
}

func (c *Client) newRequest(ctx context.Context, cl call, tok *oauth2.Token, requestID string) (*http.Request, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, err
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", cl.accept)
	req.Header.Set(HeaderRequestID, requestID)
	if tok != nil && tok.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	}
	c.Locale().Apply(req)
	return req, nil
}

// send performs cl and returns a 2xx response. On 401 with a stored session
// it refreshes the tokens once and retries once.
func (c *Client) send(ctx context.Context, cl call) (*http.Response, error) {
	var tok *oauth2.Token
	if cl.auth {
		tok = c.currentToken(ctx)
	}
	requestID := c.newID()
	resp, err := c.attempt(ctx, cl, tok, requestID)
	if err == nil || !cl.auth || !errors.Is(err, ErrUnauthorized) {
		return resp, err
	}
	if tok == nil || tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %w", ErrNotLoggedIn, err)
	}

	fresh, rerr := c.refreshAfter(ctx, tok)
	if rerr != nil {
		return nil, rerr
	}
	c.logger.Debug("http_retry_after_refresh", logutil.Fields{"path": cl.path, "request_id": requestID})
	resp, err = c.attempt(ctx, cl, fresh, requestID)
	if errors.Is(err, ErrUnauthorized) {
		return nil, fmt.Errorf("%w: %w", ErrNotLoggedIn, err)
	}
	return resp, err
}

func (c *Client) attempt(ctx context.Context, cl call, tok *oauth2.Token, requestID string) (*http.Response, error) {
	req, err := c.newRequest(ctx, cl, tok, requestID)
	if err != nil {
		return nil, err
	}
	hc := c.httpClient
	if cl.stream {
		hc = c.streamClient
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("http_transport_failed", logutil.Fields{"method": cl.method, "path": cl.path, "request_id": requestID, "error": err.Error()})
		return nil, &TransportError{Method: cl.method, Path: cl.path, Err: err}
	}
	c.logger.Debug("http_request", logutil.Fields{
		"method":      cl.method,
		"path":        cl.path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
		"request_id":  requestID,
	})
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, statusError(cl, resp, requestID)
	}
	return resp, nil
}

func statusError(cl call, resp *http.Response, requestID string) *StatusError {
	se := &StatusError{
		Method:     cl.method,
		Path:       cl.path,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		RequestID:  requestID,
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		se.Message = payload.Error
		if se.Message == "" {
			se.Message = payload.Message
		}
	} else if text := strings.TrimSpace(string(data)); text != "" && len(text) < 200 {
		se.Message = text
	}
	return se
}

func (c *Client) currentToken(ctx context.Context) *oauth2.Token {
	if c.sessions == nil {
		return nil
	}
	tok, err := c.sessions.Token(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			c.logger.Warn("session_read_failed", logutil.Fields{"error": err.Error()})
		}
		return nil
	}
	return tok
}

func (c *Client) do(ctx context.Context, cl call, target interface{}) error {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s %s response: %w", cl.method, cl.path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, target interface{}) error {
	return c.do(ctx, call{method: http.MethodGet, path: path, accept: "application/json", auth: true}, target)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, target interface{}, auth bool) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.do(ctx, call{method: http.MethodPost, path: path, body: data, accept: "application/json", auth: auth}, target)
}

func (c *Client) deleteJSON(ctx context.Context, path string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: path, accept: "application/json", auth: true}, nil)
}

// openStream POSTs payload and returns the open event stream body. The
// caller must close it.
func (c *Client) openStream(ctx context.Context, path string, payload interface{}) (io.ReadCloser, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, call{method: http.MethodPost, path: path, body: data, accept: "text/event-stream", auth: true, stream: true})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
