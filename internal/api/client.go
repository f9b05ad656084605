package api

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
	"github.com/rs/zerolog"

	"restbench/internal/model"
)

const (
	// MaxResponseSize limits response bodies to 50MB to prevent memory exhaustion
	MaxResponseSize = 50 * 1024 * 1024

	// Default timeout for backend calls
	DefaultTimeout = 30 * time.Second
)

// Error is the uniform failure shape every transport call is normalized to.
// Status is 0 when the failure happened before a response existed; callers
// treating it as a status code should read 500.
type Error struct {
	Message string `json:"error"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// StatusOr returns the carried status, or fallback when none exists.
func (e *Error) StatusOr(fallback int) int {
	if e.Status == 0 {
		return fallback
	}
	return e.Status
}

// TokenSource supplies the bearer credential attached to each call and is
// notified when the backend rejects it.
type TokenSource interface {
	Token() string
	Invalidate()
}

// Client issues authenticated calls against the remote workbench API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     zerolog.Logger
}

// New creates a client for the API rooted at baseURL. A zero timeout falls
// back to DefaultTimeout.
func New(baseURL string, timeout time.Duration, tokens TokenSource, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log,
	}
}

// Get issues a GET request and unwraps the {data: ...} envelope.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return unwrap(body), nil
}

// Post issues a POST request and unwraps the {data: ...} envelope.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, err
	}
	return unwrap(body), nil
}

// Put issues a PUT request and unwraps the {data: ...} envelope.
func (c *Client) Put(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodPut, path, nil, payload)
	if err != nil {
		return nil, err
	}
	return unwrap(body), nil
}

// Delete issues a DELETE request. The response body is discarded.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return unwrap(body), nil
}

// Proxy dispatches a normalized descriptor through the backend proxy and
// decodes the proxied response. The proxy body is returned as-is, without
// envelope unwrapping.
func (c *Client) Proxy(ctx context.Context, desc model.RequestDescriptor) (model.ResponseRecord, error) {
	body, err := c.do(ctx, http.MethodPost, "/proxy", nil, desc)
	if err != nil {
		return model.ResponseRecord{}, err
	}

	var rec model.ResponseRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return model.ResponseRecord{}, &Error{Message: "malformed proxy response", Status: 502}
	}
	return rec, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("encode request: %v", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("transport failure")
		return nil, &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	// Read with a size limit to prevent memory exhaustion
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, &Error{Message: err.Error(), Status: resp.StatusCode}
	}
	if int64(len(respBody)) > MaxResponseSize {
		respBody = respBody[:MaxResponseSize]
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Auto sign-out if unauthorized
		c.tokens.Invalidate()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Message: errorMessage(respBody, resp.StatusCode), Status: resp.StatusCode}
	}
	return respBody, nil
}

// unwrap extracts the payload from the {data: ...} success envelope. Bodies
// that do not carry the envelope (e.g. a bare "ok") yield nil.
func unwrap(body []byte) json.RawMessage {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Data
}

func errorMessage(body []byte, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return http.StatusText(status)
}
