// Package apiclient is the HTTP request client for the eats backend. It
// resolves endpoint descriptors into requests, injects the passcode and
// bearer headers, validates status codes into apierr kinds and decodes JSON.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hkeats/eats/internal/apierr"
	"github.com/hkeats/eats/internal/endpoint"
	"github.com/hkeats/eats/internal/metrics"
	"github.com/hkeats/eats/pkg/logger"
)

const (
	// DefaultPasscodeHeader carries the pre-shared passcode on every request.
	DefaultPasscodeHeader = "X-API-Passcode"
	// RequestTimeout applies to every request. It is not configurable per call.
	RequestTimeout = 30 * time.Second
	// RequestIDHeader correlates client and server logs.
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 8 << 20
	maxLoggedBody    = 2 << 10
)

// TokenSource yields a bearer token for the current principal.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Config holds client configuration.
type Config struct {
	BaseURL        string
	Passcode       string
	PasscodeHeader string
	// HTTPClient supplies the transport. Its Timeout is overridden with RequestTimeout.
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *logger.Logger
}

// Client sends endpoint requests to the backend.
type Client struct {
	baseURL        string
	passcode       string
	passcodeHeader string
	httpClient     *http.Client
	tokens         TokenSource
	log            *logger.Logger
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Passcode == "" {
		return nil, fmt.Errorf("passcode is required")
	}

	header := cfg.PasscodeHeader
	if header == "" {
		header = DefaultPasscodeHeader
	}

	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		httpClient = &clone
	}
	httpClient.Timeout = RequestTimeout

	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("apiclient")
	}

	return &Client{
		baseURL:        strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		passcode:       cfg.Passcode,
		passcodeHeader: header,
		httpClient:     httpClient,
		tokens:         cfg.Tokens,
		log:            log,
	}, nil
}

// WithTokens returns a copy of c that attaches bearer tokens from ts.
// The copy shares the transport and logger.
func (c *Client) WithTokens(ts TokenSource) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Authenticated reports whether a token source is configured.
func (c *Client) Authenticated() bool { return c.tokens != nil }

// Do sends ep and decodes the response into a T.
func Do[T any](ctx context.Context, c *Client, ep endpoint.Endpoint) (T, error) {
	var out T
	if err := c.Send(ctx, ep, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Send performs one request for ep. When out is nil the body is discarded.
// There is exactly one attempt; failures are returned unchanged to the caller.
func (c *Client) Send(ctx context.Context, ep endpoint.Endpoint, out any) error {
	start := time.Now()
	err := c.send(ctx, ep, out)

	outcome := metrics.Outcome("")
	if err != nil {
		outcome = apierr.KindOf(err).String()
	}
	metrics.RecordAPIRequest(ep.Op.String(), outcome, time.Since(start))
	return err
}

func (c *Client) send(ctx context.Context, ep endpoint.Endpoint, out any) error {
	reqURL, err := c.buildURL(ep)
	if err != nil {
		return err
	}

	var body io.Reader
	if ep.HasBody() {
		data, err := json.Marshal(ep.Body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", ep.Op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, reqURL, body)
	if err != nil {
		return apierr.New(apierr.KindInvalidURL, err)
	}
	if ep.HasBody() {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := uuid.NewString()
	entry := c.log.WithField("operation", ep.Op.String()).WithField("request_id", requestID)

	c.setHeaders(ctx, req, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		entry.WithError(err).Debug("request failed")
		return apierr.FromTransport(err)
	}
	defer resp.Body.Close()

	if statusErr := apierr.FromStatus(resp.StatusCode); statusErr != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		entry.WithField("status", resp.StatusCode).Debug("request rejected")
		return statusErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apierr.FromTransport(err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		entry.WithError(err).
			WithField("body", truncate(data, maxLoggedBody)).
			Debug("response decoding failed")
		return apierr.New(apierr.KindDecoding, err)
	}
	return nil
}

func (c *Client) buildURL(ep endpoint.Endpoint) (string, error) {
	u, err := url.Parse(c.baseURL + ep.Path)
	if err != nil {
		return "", apierr.New(apierr.KindInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", apierr.New(apierr.KindInvalidURL, fmt.Errorf("%q is not an absolute URL", u.String()))
	}
	if len(ep.Query) > 0 {
		q := u.Query()
		for key, values := range ep.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// setHeaders attaches the passcode unconditionally and the bearer token on a
// best-effort basis: a token failure is logged and the request proceeds
// without Authorization, so public endpoints keep working without a session.
func (c *Client) setHeaders(ctx context.Context, req *http.Request, requestID string) {
	req.Header.Set(c.passcodeHeader, c.passcode)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	if c.tokens == nil {
		return
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		metrics.RecordTokenFailure()
		c.log.WithError(err).
			WithField("request_id", requestID).
			Warn("bearer token unavailable, sending request without Authorization")
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...(truncated)"
}
