// Package api is the typed client of the portfolio backend.
//
// One method exists per backend operation. Each performs exactly one HTTP
// attempt; retry policy belongs to callers. Failures are reported as
// *errs.NetworkError (no response) or *errs.APIError (non-2xx status, or a
// JSON body that could not be parsed).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strrl/folio/internal/errs"
	"github.com/strrl/folio/internal/logging"
)

// Endpoints, relative to the base URL.
const (
	PathWorks      = "/works"
	PathCategories = "/categories"
	PathLogin      = "/users/login"
)

// TokenSource yields the bearer token to attach, or "" when there is no
// valid session.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client talks to the backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	timeout time.Duration
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithTimeout bounds every request. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNop(c.log)
	return c
}

// SetTokenSource swaps the token source after construction. The auth
// manager needs the client and the client needs the manager's tokens.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// BodyKind classifies a response body.
type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyJSON
	BodyRaw
)

// Response is a successful backend answer.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Kind tells whether the body is empty, JSON or anything else.
func (r *Response) Kind() BodyKind {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return BodyEmpty
	}
	mediaType, _, err := mime.ParseMediaType(r.ContentType)
	if err == nil && (mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")) {
		return BodyJSON
	}
	return BodyRaw
}

// Decode parses a JSON body into dst. An empty body leaves dst untouched.
// A raw body is only accepted when dst is *[]byte.
func (r *Response) Decode(dst any) error {
	switch r.Kind() {
	case BodyEmpty:
		return nil
	case BodyJSON:
		if err := json.Unmarshal(r.Body, dst); err != nil {
			return &errs.APIError{Status: 0, Message: errs.MsgMalformedJSON}
		}
		return nil
	default:
		if raw, ok := dst.(*[]byte); ok {
			*raw = append((*raw)[:0], r.Body...)
			return nil
		}
		return &errs.APIError{Status: r.Status, Message: "unexpected response body"}
	}
}

// Request describes one call for Do.
type Request struct {
	Method string
	Path   string
	// Body is sent as is. When JSON is set it is marshalled instead.
	Body io.Reader
	JSON any
	// ContentType is used for Body; JSON requests always use application/json.
	ContentType string
}

// Do performs a single HTTP exchange.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	op := req.Method + " " + req.Path

	body := req.Body
	contentType := req.ContentType
	if req.JSON != nil {
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json, */*")

	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)

	authed := false
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
			authed = true
		}
	}

	log := c.log.With(zap.String("op", op), zap.String("request_id", requestID))
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return nil, &errs.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("reading response failed", zap.Error(err))
		return nil, &errs.NetworkError{Op: op, Err: err}
	}

	log.Debug("request done",
		zap.Int("status", resp.StatusCode),
		zap.Bool("auth", authed),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errs.NewAPIError(resp.StatusCode)
		log.Info("backend rejected request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(data, 256)),
		)
		return nil, apiErr
	}

	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var netErr *errs.NetworkError
	return errors.As(err, &netErr)
}
