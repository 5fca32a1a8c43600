// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package bookapi is the typed client for the picture-book backend's
// /api surface.
package bookapi

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

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader is set on every outgoing request.
const RequestIDHeader = "X-Request-ID"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// API is the set of backend operations used by the views.
type API interface {
	GenerateBook(ctx context.Context, p GenerateParams) (*GenerateResult, error)
	ListBooks(ctx context.Context) ([]Book, error)
	DeleteBook(ctx context.Context, theme string) error
}

// Client talks to the backend over HTTP. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL
// (for example http://localhost:5001).
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", baseURL)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// GenerateBook asks the backend to create a book. PageCount defaults to
// DefaultPageCount; an empty theme or a negative count fails with
// ErrInvalidParams without contacting the backend.
func (c *Client) GenerateBook(ctx context.Context, p GenerateParams) (*GenerateResult, error) {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.PageCount == 0 {
		p.PageCount = DefaultPageCount
	}
	if p.Theme == "" {
		return nil, fmt.Errorf("%w: theme is required", ErrInvalidParams)
	}
	if p.PageCount < 0 {
		return nil, fmt.Errorf("%w: page_count must be positive", ErrInvalidParams)
	}

	var out GenerateResult
	if err := c.do(ctx, http.MethodPost, "/api/generate", p, &out); err != nil {
		return nil, fmt.Errorf("generating book: %w", err)
	}
	return &out, nil
}

// ListBooks returns every book known to the backend.
func (c *Client) ListBooks(ctx context.Context) ([]Book, error) {
	var out struct {
		Books []Book `json:"books"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/books", nil, &out); err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	if out.Books == nil {
		out.Books = []Book{}
	}
	return out.Books, nil
}

// DeleteBook removes a book. A missing book yields an error matching
// ErrNotFound.
func (c *Client) DeleteBook(ctx context.Context, theme string) error {
	if strings.TrimSpace(theme) == "" {
		return fmt.Errorf("%w: theme is required", ErrInvalidParams)
	}
	if err := c.do(ctx, http.MethodDelete, BookPath(theme), nil, nil); err != nil {
		return fmt.Errorf("deleting book %q: %w", theme, err)
	}
	return nil
}

// Ping reports whether the backend answers HTTP at all. Any response below
// 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set(RequestIDHeader, requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http call: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}

// do sends one JSON request and decodes the response into out, when out is
// non-nil. Any
// non-2xx status or success=false is an *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode: %w", decodeErr)
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// requestID reuses the inbound chi request ID so backend logs correlate.
func requestID(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

var _ API = (*Client)(nil)
