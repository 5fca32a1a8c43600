// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bookapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/picbook/internal/cache"
)

// fakeAPI counts calls and returns canned results.
type fakeAPI struct {
	books     []Book
	listCalls int
	listErr   error
	genErr    error
	delErr    error
}

func (f *fakeAPI) ListBooks(context.Context) ([]Book, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.books, nil
}

func (f *fakeAPI) GenerateBook(_ context.Context, p GenerateParams) (*GenerateResult, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	f.books = append(f.books, Book{Theme: p.Theme})
	return &GenerateResult{BookDir: p.Theme}, nil
}

func (f *fakeAPI) DeleteBook(_ context.Context, theme string) error {
	return f.delErr
}

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error)                { return nil, errors.New("down") }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error { return errors.New("down") }
func (brokenCache) Delete(context.Context, string) error                      { return errors.New("down") }
func (brokenCache) Clear(context.Context) error                               { return errors.New("down") }
func (brokenCache) Close() error                                              { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCached(t *testing.T, api API) (*CachedClient, *cache.MemoryCache) {
	t.Helper()
	mc := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mc.Close() })
	return NewCachedClient(api, mc, time.Minute, quietLogger()), mc
}

func TestCachedClient_ServesFromCache(t *testing.T) {
	api := &fakeAPI{books: []Book{{Theme: "dragons", Images: []string{"page_1.png"}}}}
	c, _ := newCached(t, api)
	ctx := context.Background()

	first, err := c.ListBooks(ctx)
	require.NoError(t, err)
	second, err := c.ListBooks(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, api.listCalls)
	assert.Equal(t, first, second)
}

func TestCachedClient_GenerateInvalidates(t *testing.T) {
	api := &fakeAPI{books: []Book{{Theme: "dragons"}}}
	c, _ := newCached(t, api)
	ctx := context.Background()

	_, _ = c.ListBooks(ctx)
	_, err := c.GenerateBook(ctx, GenerateParams{Theme: "cats"})
	require.NoError(t, err)

	books, err := c.ListBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.listCalls)
	assert.Len(t, books, 2)
}

func TestCachedClient_DeleteInvalidatesEvenWhenNotFound(t *testing.T) {
	api := &fakeAPI{delErr: &APIError{StatusCode: 404}}
	c, mc := newCached(t, api)
	ctx := context.Background()

	_, _ = c.ListBooks(ctx)
	require.Equal(t, 1, mc.Len())

	err := c.DeleteBook(ctx, "ghosts")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, mc.Len())
}

func TestCachedClient_InvalidParamsKeepCache(t *testing.T) {
	api := &fakeAPI{genErr: ErrInvalidParams}
	c, mc := newCached(t, api)
	ctx := context.Background()

	_, _ = c.ListBooks(ctx)
	_, err := c.GenerateBook(ctx, GenerateParams{})
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Equal(t, 1, mc.Len())
}

func TestCachedClient_ListErrorNotCached(t *testing.T) {
	api := &fakeAPI{listErr: &APIError{StatusCode: 500}}
	c, mc := newCached(t, api)

	_, err := c.ListBooks(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, mc.Len())
}

func TestCachedClient_CorruptEntryRefetched(t *testing.T) {
	api := &fakeAPI{books: []Book{{Theme: "dragons"}}}
	c, mc := newCached(t, api)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, BooksCacheKey, []byte("{not json"), 0))

	books, err := c.ListBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, api.listCalls)
	assert.Equal(t, "dragons", books[0].Theme)
}

func TestCachedClient_BrokenCacheIsBypassed(t *testing.T) {
	api := &fakeAPI{books: []Book{{Theme: "dragons"}}}
	c := NewCachedClient(api, brokenCache{}, 0, quietLogger())
	ctx := context.Background()

	books, err := c.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	_, err = c.GenerateBook(ctx, GenerateParams{Theme: "cats"})
	assert.NoError(t, err)
	assert.NoError(t, c.DeleteBook(ctx, "cats"))
}
