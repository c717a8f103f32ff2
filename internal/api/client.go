package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 1 << 20
)

// Client talks to the order backend, the system of record for users,
// products and orders.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout on a copy of the HTTP client, so a
// client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("api: invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends one request and decodes a 2xx JSON body into out (when non-nil).
// Every failure is returned as *Error.
func (c *Client) do(ctx context.Context, method string, in, out any, path ...string) error {
	endpoint := c.baseURL.JoinPath(path...)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindMalformed, Message: msgGeneric, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return &Error{Kind: KindTransport, Message: msgUnavailable, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", endpoint.Path).Msg("api: request failed")
		return &Error{Kind: KindTransport, Message: msgUnavailable, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Message: msgUnavailable, Err: err}
	}

	log.Debug().
		Str("method", method).
		Str("path", endpoint.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("api: request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindMalformed, StatusCode: resp.StatusCode, Message: msgMalformed, Err: err}
	}
	return nil
}

// statusError builds the user-facing error for a non-2xx response: the
// message/detail/error field of a JSON body, else the plain-text body, else
// the status text.
func statusError(code int, raw []byte) *Error {
	trimmed := bytes.TrimSpace(raw)

	var eb errorBody
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &eb) == nil {
		if msg := eb.message(); msg != "" {
			return &Error{Kind: KindStatus, StatusCode: code, Message: msg}
		}
		return &Error{Kind: KindStatus, StatusCode: code, Message: msgGeneric}
	}

	if len(trimmed) > 0 {
		return &Error{Kind: KindStatusText, StatusCode: code, Message: string(trimmed)}
	}

	text := http.StatusText(code)
	if text == "" {
		text = msgGeneric
	}
	return &Error{Kind: KindStatusText, StatusCode: code, Message: text}
}

func (eb errorBody) message() string {
	if eb.Message != "" {
		return eb.Message
	}
	if len(eb.Detail) > 0 {
		var detail string
		if json.Unmarshal(eb.Detail, &detail) == nil && detail != "" {
			return detail
		}
		var details []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(eb.Detail, &details) == nil && len(details) > 0 && details[0].Msg != "" {
			return details[0].Msg
		}
	}
	return eb.Error
}

func malformed(err error) *Error {
	return &Error{Kind: KindMalformed, Message: msgMalformed, Err: err}
}

func rejected(message string) *Error {
	return &Error{Kind: KindRejected, Message: message, Err: errors.New(message)}
}
