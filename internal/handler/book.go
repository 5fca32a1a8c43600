// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/olegiv/picbook/internal/bookapi"
	"github.com/olegiv/picbook/internal/nav"
	"github.com/olegiv/picbook/internal/render"
)

type bookData struct {
	Theme string
	Book  *bookapi.Book
	Error string
}

// BookView shows one book (GET) and deletes it (POST action=delete).
// The theme comes from the route's decoded :theme parameter.
type BookView struct {
	deps Deps
}

func (h *BookView) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	theme := nav.Param(r, nav.ParamTheme)
	if theme == "" {
		renderError(w, r, h.deps.Renderer, h.deps.Logger, http.StatusNotFound, "Book not found.")
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.show(w, r, theme)
	case http.MethodPost:
		h.action(w, r, theme)
	default:
		methodNotAllowed(w, "GET, HEAD, POST")
	}
}

func (h *BookView) show(w http.ResponseWriter, r *http.Request, theme string) {
	ctx := r.Context()
	books, err := h.deps.Books.ListBooks(ctx)
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "listing books failed", "theme", theme, "error", err)
		renderPage(w, r, h.deps.Renderer, h.deps.Logger, http.StatusBadGateway, templateBook, render.TemplateData{
			Title: theme,
			Data:  bookData{Theme: theme, Error: "Could not load this book. Please try again."},
		})
		return
	}

	for i := range books {
		if books[i].Theme == theme {
			renderPage(w, r, h.deps.Renderer, h.deps.Logger, http.StatusOK, templateBook, render.TemplateData{
				Title: theme,
				Data:  bookData{Theme: theme, Book: &books[i]},
			})
			return
		}
	}
	renderError(w, r, h.deps.Renderer, h.deps.Logger, http.StatusNotFound, "Book not found.")
}

func (h *BookView) action(w http.ResponseWriter, r *http.Request, theme string) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.deps.Renderer, h.deps.Logger, http.StatusBadRequest, "Invalid form data.")
		return
	}
	if r.PostFormValue(fieldAction) != actionDelete {
		renderError(w, r, h.deps.Renderer, h.deps.Logger, http.StatusBadRequest, "Unknown action.")
		return
	}

	err := h.deps.Books.DeleteBook(ctx, theme)
	switch {
	case errors.Is(err, bookapi.ErrNotFound):
		h.deps.Renderer.SetFlash(r, "That book was already deleted.", flashInfo)
	case err != nil:
		h.deps.Logger.ErrorContext(ctx, "deleting book failed", "theme", theme, "error", err)
		h.deps.Renderer.SetFlash(r, "Could not delete the book. Please try again.", flashError)
		back, uerr := h.deps.Routes.URL(nav.NameBookDetail, map[string]string{nav.ParamTheme: theme})
		if uerr != nil {
			back = nav.PathRoot
		}
		seeOther(w, r, back)
		return
	default:
		h.deps.Logger.InfoContext(ctx, "book deleted", "theme", theme)
		h.deps.Renderer.SetFlash(r, "Book deleted.", flashSuccess)
	}
	seeOther(w, r, nav.PathRoot)
}
