package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/besofuls/EVTrade/internal/metrics"
	"github.com/besofuls/EVTrade/internal/models"
	"github.com/besofuls/EVTrade/internal/session"
	"github.com/besofuls/EVTrade/pkg/config"
)

// ErrNotAuthenticated is returned by operations that require a stored token
// before any request is sent.
var ErrNotAuthenticated = errors.New("you need to sign in")

// APIError carries a non-2xx response: the raw body text as the message and
// the numeric status for callers that branch on 401/403/404.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// StatusOf extracts the HTTP status from an error, 0 when it is not an
// APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether the error is a 404 response.
func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

// Client is the single facade over the marketplace REST backend. Every call
// is one-shot: no retries, no caching.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Store
	metrics *metrics.AppMetrics
}

// NewClient builds a client against the configured base URL, reading the
// bearer token from the session store on every request.
func NewClient(cfg *config.Config, store *session.Store, m *metrics.AppMetrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		session: store,
		metrics: m,
	}
}

// Session exposes the backing session store.
func (c *Client) Session() *session.Store { return c.session }

// Metrics exposes the instrument set so callers can record workflow-level
// counters alongside the client's request metrics.
func (c *Client) Metrics() *metrics.AppMetrics { return c.metrics }

// request describes one backend call.
type request struct {
	operation   string // short name used for metrics attributes
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	requireAuth bool   // fail before any network call when no token is stored
	fallback    string // message used when the error body is empty
}

// do executes a request and decodes the JSON response into out (out may be
// nil). A 204 leaves out untouched so list callers get their empty slice.
func (c *Client) do(ctx context.Context, req request, out any) error {
	token := c.session.Token()
	if req.requireAuth && token == "" {
		return ErrNotAuthenticated
	}

	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, req.body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", req.operation, err)
	}
	httpReq.Header.Set("Accept", "*/*")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.RecordAPIRequest(ctx, req.method, req.operation, 0, start)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.RecordAPIRequest(ctx, req.method, req.operation, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(resp, req.fallback)
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.operation, err)
	}
	return nil
}

// responseError reads the body as text and wraps it into an APIError,
// falling back to the operation's fixed message when the body is empty.
func (c *Client) responseError(resp *http.Response, fallback string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = fallback
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}

// getJSON issues an authenticated GET and decodes the result.
func (c *Client) getJSON(ctx context.Context, operation, path string, query url.Values, auth bool, fallback string, out any) error {
	return c.do(ctx, request{
		operation:   operation,
		method:      http.MethodGet,
		path:        path,
		query:       query,
		requireAuth: auth,
		fallback:    fallback,
	}, out)
}

// sendJSON issues a request with a JSON body.
func (c *Client) sendJSON(ctx context.Context, operation, method, path string, query url.Values, payload any, auth bool, fallback string, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", operation, err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.do(ctx, request{
		operation:   operation,
		method:      method,
		path:        path,
		query:       query,
		body:        body,
		contentType: contentType,
		requireAuth: auth,
		fallback:    fallback,
	}, out)
}

// rawPost issues a JSON POST and returns the raw response body as text, for
// endpoints that answer with either JSON or plain text depending on backend
// version.
func (c *Client) rawPost(ctx context.Context, operation, path string, payload any, fallback string) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s payload: %w", operation, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "*/*")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.RecordAPIRequest(ctx, http.MethodPost, operation, 0, start)
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.RecordAPIRequest(ctx, http.MethodPost, operation, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.responseError(resp, fallback)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("failed to read %s response: %w", operation, err)
	}
	return strings.TrimSpace(string(body)), nil
}

// sendMultipart uploads a listing payload plus images: the "listing" field
// carries the JSON document, each image goes into an "images" part.
func (c *Client) sendMultipart(ctx context.Context, operation, method, path string, listing any, images []models.Image, fallback string, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	encoded, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to encode listing payload: %w", err)
	}
	if err := writer.WriteField("listing", string(encoded)); err != nil {
		return fmt.Errorf("failed to write listing field: %w", err)
	}

	for _, image := range images {
		part, err := writer.CreateFormFile("images", image.Filename)
		if err != nil {
			return fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return fmt.Errorf("failed to write image %s: %w", image.Filename, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return c.do(ctx, request{
		operation:   operation,
		method:      method,
		path:        path,
		body:        &buf,
		contentType: writer.FormDataContentType(),
		requireAuth: true,
		fallback:    fallback,
	}, out)
}
