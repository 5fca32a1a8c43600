// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/picbook/internal/bookapi"
	"github.com/olegiv/picbook/internal/nav"
	"github.com/olegiv/picbook/internal/render"
)

// generateForm is the generate form as submitted.
type generateForm struct {
	Theme     string
	Style     string
	PageCount int
}

type homeData struct {
	Form     generateForm
	MaxPages int
	Books    []bookapi.Book
	Error    string
}

// HomeView lists books (GET) and generates a new one (POST).
type HomeView struct {
	deps Deps
}

func (h *HomeView) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.list(w, r, generateForm{PageCount: bookapi.DefaultPageCount}, http.StatusOK, "")
	case http.MethodPost:
		h.generate(w, r)
	default:
		methodNotAllowed(w, "GET, HEAD, POST")
	}
}

// list renders the page. formErr is shown above the book list; a failed
// listing adds its own message.
func (h *HomeView) list(w http.ResponseWriter, r *http.Request, form generateForm, status int, formErr string) {
	ctx := r.Context()
	books, err := h.deps.Books.ListBooks(ctx)
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "listing books failed", "error", err)
		if formErr == "" {
			formErr = "Could not load your books. Please try again."
		}
		if status == http.StatusOK {
			status = http.StatusBadGateway
		}
	}

	renderPage(w, r, h.deps.Renderer, h.deps.Logger, status, templateHome, render.TemplateData{
		Title: "Your books",
		Data: homeData{
			Form:     form,
			MaxPages: MaxPageCount,
			Books:    books,
			Error:    formErr,
		},
	})
}

func (h *HomeView) generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.list(w, r, generateForm{PageCount: bookapi.DefaultPageCount}, http.StatusBadRequest, "Invalid form data.")
		return
	}

	form := generateForm{
		Theme: strings.TrimSpace(r.PostFormValue(fieldTheme)),
		Style: strings.TrimSpace(r.PostFormValue(fieldStyle)),
	}
	if raw := strings.TrimSpace(r.PostFormValue(fieldPageCount)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > MaxPageCount {
			form.PageCount = bookapi.DefaultPageCount
			h.list(w, r, form, http.StatusUnprocessableEntity,
				"Pages must be a whole number between 1 and "+strconv.Itoa(MaxPageCount)+".")
			return
		}
		form.PageCount = n
	}

	res, err := h.deps.Books.GenerateBook(ctx, bookapi.GenerateParams{
		Theme:     form.Theme,
		Style:     form.Style,
		PageCount: form.PageCount,
	})
	if form.PageCount == 0 {
		form.PageCount = bookapi.DefaultPageCount
	}
	switch {
	case errors.Is(err, bookapi.ErrInvalidParams):
		h.list(w, r, form, http.StatusUnprocessableEntity, "Please enter a theme.")
		return
	case err != nil:
		h.deps.Logger.ErrorContext(ctx, "generating book failed", "theme", form.Theme, "error", err)
		msg := "Generation failed. Please try again."
		var apiErr *bookapi.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = "Generation failed: " + apiErr.Message
		}
		h.list(w, r, form, http.StatusBadGateway, msg)
		return
	}

	theme := res.BookDir
	if theme == "" {
		theme = form.Theme
	}
	target, err := h.deps.Routes.URL(nav.NameBookDetail, map[string]string{nav.ParamTheme: theme})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "building book URL failed", "theme", theme, "error", err)
		target = nav.PathRoot
	}

	h.deps.Logger.InfoContext(ctx, "book generated", "theme", theme, "pages", len(res.Images))
	h.deps.Renderer.SetFlash(r, "Your book is ready.", flashSuccess)
	seeOther(w, r, target)
}
