package sequencer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/f3rmion/tau/ceremony"
)

// DefaultURL is the public ceremony coordinator.
const DefaultURL = "https://seq.ceremony.ethereum.org/"

// RequestIDHeader carries a per-request id the coordinator can log.
const RequestIDHeader = "X-Request-ID"

// Endpoints, relative to the base URL.
const (
	EndpointStatus        = "info/status"
	EndpointCurrentState  = "info/current_state"
	EndpointRequestLink   = "auth/request_link"
	EndpointTryContribute = "lobby/try_contribute"
	EndpointContribute    = "contribute"
	EndpointAbort         = "contribution/abort"
)

// maxResponseSize bounds the bytes read from any response. The full
// transcript is the largest document served.
const maxResponseSize = 256 << 20

// Observer is notified after every request. status is the HTTP status code,
// or "error" when no response was received.
type Observer interface {
	ObserveRequest(endpoint, status string)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l == nil {
			l = zap.NewNop()
		}
		c.logger = l
	}
}

// WithObserver registers o to be notified of every request.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithRateLimit caps the requests sent to the coordinator at perSecond,
// across every endpoint. Zero or less leaves requests unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// Client talks to the ceremony coordinator. It is safe for concurrent use.
//
// Client does not impose timeouts of its own; callers bound each call through
// its context.
type Client struct {
	base     *url.URL
	http     *http.Client
	logger   *zap.Logger
	observer Observer
	limiter  *rate.Limiter
}

// New creates a client for the coordinator at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("sequencer: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("sequencer: invalid base URL %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		base:   u,
		http:   &http.Client{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Status returns the lobby summary.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var resp Status
	if err := c.getJSON(ctx, EndpointStatus, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentState returns the full ceremony transcript.
func (c *Client) CurrentState(ctx context.Context) (*ceremony.BatchTranscript, error) {
	var resp ceremony.BatchTranscript
	if err := c.getJSON(ctx, EndpointCurrentState, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestAuthLink returns the sign-in URLs for both identity providers.
func (c *Client) RequestAuthLink(ctx context.Context) (*AuthLinks, error) {
	var resp AuthLinks
	if err := c.getJSON(ctx, EndpointRequestLink, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TryContribute asks the lobby for a turn. The response body is discriminated
// by its keys: "InProgress" means keep waiting, "code" is a structured error
// returned as *Error, and "contributions" is the assigned batch.
func (c *Client) TryContribute(ctx context.Context, token string) (*LobbyResponse, error) {
	status, data, err := c.do(ctx, http.MethodPost, EndpointTryContribute, token, nil)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, responseError(status, data, err)
	}

	switch {
	case fields["InProgress"] != nil:
		var msg string
		if err := json.Unmarshal(fields["InProgress"], &msg); err != nil {
			return nil, fmt.Errorf("%w: InProgress: %v", ErrUnexpectedResponse, err)
		}
		return &LobbyResponse{InProgress: msg}, nil
	case fields["code"] != nil:
		return nil, structuredError(status, data)
	case fields["contributions"] != nil:
		if !success(status) {
			return nil, responseError(status, data, nil)
		}
		var batch ceremony.Batch
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("%w: batch: %v", ErrUnexpectedResponse, err)
		}
		return &LobbyResponse{Batch: &batch}, nil
	default:
		return nil, responseError(status, data, nil)
	}
}

// Contribute submits a signed batch and returns the coordinator's receipt.
// A rejection is returned as *Error carrying the coordinator's code verbatim.
func (c *Client) Contribute(ctx context.Context, token string, batch *ceremony.Batch) (*Receipt, error) {
	status, data, err := c.do(ctx, http.MethodPost, EndpointContribute, token, batch)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, structuredError(status, data)
	}

	var receipt Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, fmt.Errorf("%w: receipt: %v", ErrUnexpectedResponse, err)
	}
	return &receipt, nil
}

// AbortContribution releases the participant's turn back to the lobby.
func (c *Client) AbortContribution(ctx context.Context, token string) error {
	status, data, err := c.do(ctx, http.MethodPost, EndpointAbort, token, nil)
	if err != nil {
		return err
	}
	if !success(status) {
		return structuredError(status, data)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	status, data, err := c.do(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return err
	}
	if !success(status) {
		return structuredError(status, data)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnexpectedResponse, endpoint, err)
	}
	return nil
}

// do performs one request and returns the status code and body. Only
// failures to get a response are returned as errors.
func (c *Client) do(ctx context.Context, method, endpoint, token string, body any) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("sequencer: marshal %s request: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(data)
	}

	target := c.base.ResolveReference(&url.URL{Path: endpoint})
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("sequencer: build %s request: %w", endpoint, err)
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.logger.With(zap.String("endpoint", endpoint), zap.String("request_id", requestID))
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.observe(endpoint, "error")
			return 0, nil, &TransportError{Op: endpoint, Err: fmt.Errorf("rate limit: %w", err)}
		}
	}
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, "error")
		log.Debug("request failed", zap.Error(err))
		return 0, nil, &TransportError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.observe(endpoint, "error")
		return 0, nil, &TransportError{Op: endpoint, Err: fmt.Errorf("read response: %w", err)}
	}

	c.observe(endpoint, strconv.Itoa(resp.StatusCode))
	log.Debug("request done",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.StatusCode, data, nil
}

func (c *Client) observe(endpoint, status string) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, status)
	}
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// structuredError decodes a {"code", "error"} body. Bodies without a code
// become an *Error with an empty code, which classifies as fatal.
func structuredError(status int, data []byte) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Code != "" {
		return &Error{Code: Code(body.Code), Message: body.Error, StatusCode: status}
	}
	return &Error{Message: snippet(data), StatusCode: status}
}

func responseError(status int, data []byte, cause error) error {
	if !success(status) {
		return structuredError(status, data)
	}
	if cause != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, cause)
	}
	return fmt.Errorf("%w: %s", ErrUnexpectedResponse, snippet(data))
}

func snippet(data []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
