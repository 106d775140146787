// Package api is the HTTP client for the linkdeck server. It speaks the JSON
// envelope of the API and implements the requester contract of the optimistic
// delete interaction.
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

	linkapp "github.com/linkdeck/linkdeck/internal/application/links"
	"go.uber.org/zap"
)

// APIError is a failed envelope response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("api: request failed with status %d", e.StatusCode)
}

// envelope mirrors the server's response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *errorInfo      `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TokenResponse carries the token pair returned by the login endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Client talks to a linkdeck server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after a login.
func (c *Client) SetToken(token string) {
	c.token = token
}

// ListLinks returns all links in creation order.
func (c *Client) ListLinks(ctx context.Context) ([]*linkapp.LinkResponse, error) {
	var result struct {
		Links []*linkapp.LinkResponse `json:"links"`
		Count int                     `json:"count"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/links", nil, &result); err != nil {
		return nil, err
	}
	return result.Links, nil
}

// GetLink returns a single link by key.
func (c *Client) GetLink(ctx context.Context, key string) (*linkapp.LinkResponse, error) {
	var link linkapp.LinkResponse
	if err := c.call(ctx, http.MethodGet, "/api/v1/links/"+url.PathEscape(key), nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateLink creates a new link.
func (c *Client) CreateLink(ctx context.Context, req linkapp.CreateLinkRequest) (*linkapp.LinkResponse, error) {
	var link linkapp.LinkResponse
	if err := c.call(ctx, http.MethodPost, "/api/v1/links", req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// UpdateLink applies a partial update to a link.
func (c *Client) UpdateLink(ctx context.Context, key string, req linkapp.UpdateLinkRequest) (*linkapp.LinkResponse, error) {
	var link linkapp.LinkResponse
	if err := c.call(ctx, http.MethodPut, "/api/v1/links/"+url.PathEscape(key), req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// Login exchanges credentials for a token pair and installs the access token
// on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var tokens TokenResponse
	if err := c.call(ctx, http.MethodPost, "/api/v1/auth/login", body, &tokens); err != nil {
		return nil, err
	}
	c.token = tokens.AccessToken
	return &tokens, nil
}

// Do implements optimistic.Requester: one request with the given method and
// URL, both JSON headers, and an empty body. The form action may be relative;
// it is resolved against the client's base URL. Fetch parity: a received
// response of any status is success, only transport and context failures
// return an error. The response body is drained so the connection can be
// reused.
func (c *Client) Do(ctx context.Context, method, rawURL string) error {
	target := rawURL
	if strings.HasPrefix(rawURL, "/") {
		target = c.baseURL + rawURL
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("delete request completed",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode))
	return nil
}

// call performs an envelope request and decodes the data payload into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
