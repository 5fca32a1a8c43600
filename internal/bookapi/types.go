// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bookapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// DefaultPageCount is used when GenerateParams.PageCount is zero.
const DefaultPageCount = 3

// GenerateParams is the request body of POST /api/generate.
type GenerateParams struct {
	Theme     string `json:"theme"`
	Style     string `json:"style"`
	PageCount int    `json:"page_count"`
}

// Metadata is the book's metadata.json as written by the backend.
type Metadata struct {
	Params     GenerateParams  `json:"params"`
	VisualTags json.RawMessage `json:"visual_tags,omitempty"`
	RawData    json.RawMessage `json:"raw_data,omitempty"`
}

// Book is one entry of the book list.
type Book struct {
	Theme    string   `json:"theme"`
	Images   []string `json:"images"`
	Metadata Metadata `json:"metadata"`
	HasPDF   bool     `json:"has_pdf"`
}

// GenerateResult is the response of POST /api/generate.
type GenerateResult struct {
	Message  string   `json:"message,omitempty"`
	BookDir  string   `json:"book_dir"`
	Images   []string `json:"images"`
	Metadata Metadata `json:"metadata"`
	HasPDF   bool     `json:"has_pdf"`
}

// Book returns the result as a list entry.
func (r *GenerateResult) Book() Book {
	return Book{
		Theme:    r.BookDir,
		Images:   r.Images,
		Metadata: r.Metadata,
		HasPDF:   r.HasPDF,
	}
}

// envelope carries the fields shared by every backend response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

var (
	// ErrNotFound matches an *APIError with status 404.
	ErrNotFound = errors.New("book not found")

	// ErrInvalidParams is returned before any request is made when the
	// backend would reject the parameters.
	ErrInvalidParams = errors.New("invalid book parameters")
)

// APIError is a backend response with a non-2xx status or success=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("book api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("book api: status %d: %s", e.StatusCode, e.Message)
}

// Is reports whether target is ErrNotFound and the status is 404.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
