// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bookapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/olegiv/picbook/internal/cache"
)

// BooksCacheKey is the cache key of the book list.
const BooksCacheKey = "books:list"

// CachedClient serves ListBooks from a cache and invalidates it on every
// GenerateBook and DeleteBook. Cache failures are logged and bypassed.
type CachedClient struct {
	api    API
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedClient wraps api. A zero ttl uses the cache's default.
func NewCachedClient(api API, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CachedClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedClient{api: api, cache: c, ttl: ttl, logger: logger}
}

// ListBooks implements API.
func (c *CachedClient) ListBooks(ctx context.Context) ([]Book, error) {
	data, err := c.cache.Get(ctx, BooksCacheKey)
	switch {
	case err == nil:
		var books []Book
		if jerr := json.Unmarshal(data, &books); jerr == nil {
			return books, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt cached book list")
	case !errors.Is(err, cache.ErrCacheMiss):
		c.logger.WarnContext(ctx, "book list cache read failed", "error", err)
	}

	books, err := c.api.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(books); err == nil {
		if err := c.cache.Set(ctx, BooksCacheKey, data, c.ttl); err != nil {
			c.logger.WarnContext(ctx, "book list cache write failed", "error", err)
		}
	}
	return books, nil
}

// GenerateBook implements API.
func (c *CachedClient) GenerateBook(ctx context.Context, p GenerateParams) (*GenerateResult, error) {
	res, err := c.api.GenerateBook(ctx, p)
	if err == nil || !errors.Is(err, ErrInvalidParams) {
		c.invalidate(ctx)
	}
	return res, err
}

// DeleteBook implements API.
func (c *CachedClient) DeleteBook(ctx context.Context, theme string) error {
	err := c.api.DeleteBook(ctx, theme)
	if err == nil || !errors.Is(err, ErrInvalidParams) {
		c.invalidate(ctx)
	}
	return err
}

// invalidate drops the cached list. A failed generation may still have
// left a partial book on the backend, so it invalidates too.
func (c *CachedClient) invalidate(ctx context.Context) {
	if err := c.cache.Delete(ctx, BooksCacheKey); err != nil {
		c.logger.WarnContext(ctx, "book list cache invalidation failed", "error", err)
	}
}

var _ API = (*CachedClient)(nil)
