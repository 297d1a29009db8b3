// Package client talks to the plant tracker API. Every call returns the
// unwrapped "data" member of the response envelope or an error from package
// errs; HTTP-level failures never panic.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mgmu/hortus-tracker/internal/errs"
	"github.com/mgmu/hortus-tracker/internal/logging"
	"github.com/mgmu/hortus-tracker/internal/messages"
	"go.uber.org/zap"
)

// Client issues requests against a base URL. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger receiving error details.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a Client for the API at baseURL, which must be an absolute
// http or https URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parsing base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("client: base URL %q is not an absolute http(s) URL", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	target := c.baseURL + path
	log := c.logger.With(
		zap.String("method", method),
		zap.String("url", target),
		zap.String("request_id", logging.RequestID(ctx)),
	)

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encoding %s %s body: %w", method, path, err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("client: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logging.RequestID(ctx); id != "" {
		req.Header.Set(logging.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("request failed", zap.Error(err))
		return nil, &errs.NetworkError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("reading response failed", zap.Error(err))
		return nil, &errs.NetworkError{Method: method, URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("API error response",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", data),
		)
		return nil, errs.NewAPIError(resp.StatusCode)
	}

	var envelope messages.RawResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Error("malformed response envelope", zap.Error(err))
		return nil, &errs.ValidationError{Cause: fmt.Errorf("decoding envelope: %w", err)}
	}
	return envelope.Data, nil
}
