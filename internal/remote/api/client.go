// Package api is a client for the shifttrack server. It implements
// tracker.EntryRepository and bus.Repository on top of the HTTP API; the
// userID arguments of those interfaces are ignored because the bearer token
// already names the user.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"shifttrack/internal/model"
)

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
	user  model.User
}

func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, email, password string) (model.User, error) {
	return c.authenticate(ctx, "/api/auth/register", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	return c.authenticate(ctx, "/api/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (model.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, credentials{Email: email, Password: password}, &resp); err != nil {
		return model.User{}, err
	}

	c.mu.Lock()
	c.token = resp.Token
	c.user = resp.User
	c.mu.Unlock()
	return resp.User, nil
}

// User is the signed-in account, or the zero value before Login.
func (c *Client) User() model.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Resume signs in with a previously issued token, verifying it against the
// server. The token is dropped again when the server rejects it.
func (c *Client) Resume(ctx context.Context, token string) (model.User, error) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	var resp struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return model.User{}, err
	}

	c.mu.Lock()
	c.user = resp.User
	c.mu.Unlock()
	return resp.User, nil
}

// Token is the bearer token in use, for persisting between runs.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

type entryResponse struct {
	Entry *model.Entry `json:"entry"`
}

type createEntryRequest struct {
	SwapIn    time.Time  `json:"swapIn"`
	CreatedAt time.Time  `json:"createdAt"`
	SwapOut   *time.Time `json:"swapOut,omitempty"`
}

func (c *Client) CreateEntry(ctx context.Context, _ string, swapIn, createdAt time.Time, swapOut *time.Time) (string, error) {
	var resp entryResponse
	body := createEntryRequest{SwapIn: swapIn, CreatedAt: createdAt, SwapOut: swapOut}
	if err := c.do(ctx, http.MethodPost, "/api/entries", body, &resp); err != nil {
		return "", err
	}
	if resp.Entry == nil || resp.Entry.ID == "" {
		return "", fmt.Errorf("create entry: empty response")
	}
	return resp.Entry.ID, nil
}

func (c *Client) PatchSwapOut(ctx context.Context, id string, swapOut time.Time) error {
	body := map[string]time.Time{"swapOut": swapOut}
	return c.do(ctx, http.MethodPatch, "/api/entries/"+url.PathEscape(id), body, nil)
}

func (c *Client) QueryTodaysEntry(ctx context.Context, _ string, dayStart, dayEnd time.Time) (*model.Entry, error) {
	query := url.Values{
		"start": {dayStart.Format(time.RFC3339Nano)},
		"end":   {dayEnd.Format(time.RFC3339Nano)},
	}
	var resp entryResponse
	if err := c.do(ctx, http.MethodGet, "/api/entries/today?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entry, nil
}

type entryListResponse struct {
	Entries      []model.Entry `json:"entries"`
	TotalSeconds int64         `json:"totalSeconds"`
}

func (c *Client) QueryEntriesSince(ctx context.Context, _ string, periodStart time.Time) ([]model.Entry, error) {
	query := url.Values{"since": {periodStart.Format(time.RFC3339Nano)}}
	var resp entryListResponse
	if err := c.do(ctx, http.MethodGet, "/api/entries?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) DeleteEntries(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var resp struct {
		Deleted int `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/entries", map[string][]string{"ids": ids}, &resp); err != nil {
		return err
	}
	if resp.Deleted != len(ids) {
		c.logger.Warn("partial entry delete", "requested", len(ids), "deleted", resp.Deleted)
	}
	return nil
}

// Export downloads the xlsx workbook for a history period.
func (c *Client) Export(ctx context.Context, period string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/entries/export?"+url.Values{"period": {period}}.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeStatusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return data, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeStatusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeStatusError(resp *http.Response) error {
	statusErr := &StatusError{Status: resp.StatusCode}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		statusErr.Code = envelope.Error.Code
		statusErr.Message = envelope.Error.Message
	}
	return statusErr
}
