// Package client talks to the catalog HTTP API and renders catalog cards.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

// APIError is a non-2xx response decoded from the server envelope.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog api: %d %s (code %d)", e.Status, e.Message, e.Code)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Entry struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	MainURL          string `json:"main_url"`
	DocumentationURL string `json:"documentation_url,omitempty"`
	Country          string `json:"api_country"`
	UserID           uint   `json:"user_id"`
	Views            int64  `json:"views"`
	Likes            int64  `json:"likes"`
}

type Page struct {
	Items []Entry `json:"items"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
	Total int64   `json:"total"`
	Pages int     `json:"pages"`
}

type LikeResult struct {
	APIID   uint   `json:"api_id"`
	Likes   int64  `json:"likes"`
	Liked   bool   `json:"liked"`
	Changed bool   `json:"changed"`
	Token   string `json:"token"`
}

type Session struct {
	Token     string `json:"token"`
	LikedAPIs []uint `json:"liked_apis"`
	User      struct {
		ID      uint   `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Country string `json:"country"`
	} `json:"user"`
}

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Country         string `json:"country"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*envelope]
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[*envelope](gobreaker.Settings{
		Name:        "catalog-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors are answers from a healthy server.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
	})
	return c
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var out Session
	if err := c.call(ctx, http.MethodPost, "/users/create", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	body := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/users/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) List(ctx context.Context, page, limit int) (*Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out Page
	if err := c.call(ctx, http.MethodGet, "/apis/list?"+q.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListByIDs(ctx context.Context, ids []uint) ([]Entry, error) {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	q := url.Values{}
	q.Set("ids", strings.Join(parts, ","))

	var out []Entry
	if err := c.call(ctx, http.MethodGet, "/apis/list/ids?"+q.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetName(ctx context.Context, userID uint) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	path := "/users/getName/" + strconv.FormatUint(uint64(userID), 10)
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return "", err
	}
	return out.Name, nil
}

func (c *Client) IncrementLikes(ctx context.Context, token string, userID, apiID uint) (*LikeResult, error) {
	return c.adjustLikes(ctx, "/apis/incrementLikes", token, userID, apiID)
}

func (c *Client) DecrementLikes(ctx context.Context, token string, userID, apiID uint) (*LikeResult, error) {
	return c.adjustLikes(ctx, "/apis/decrementLikes", token, userID, apiID)
}

func (c *Client) adjustLikes(ctx context.Context, path, token string, userID, apiID uint) (*LikeResult, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"user_id":       strconv.FormatUint(uint64(userID), 10),
		"api_id":        strconv.FormatUint(uint64(apiID), 10),
	}
	var out LikeResult
	if err := c.call(ctx, http.MethodPut, path, headers, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method, path string, headers map[string]string, body, out interface{}) error {
	env, err := c.breaker.Execute(func() (*envelope, error) {
		return c.roundTrip(ctx, method, path, headers, body)
	})
	if err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s response failed: %w", method, path, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, headers map[string]string, body interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body failed: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s %s response failed: %w", method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return nil, fmt.Errorf("decode %s %s envelope failed: %w", method, path, err)
	}
	if resp.StatusCode >= 300 || env.Code != 0 {
		return nil, &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}
	return &env, nil
}
