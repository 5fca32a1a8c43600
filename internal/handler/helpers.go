// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/picbook/internal/render"
)

// errorData is the payload of the error page.
type errorData struct {
	Status  int
	Message string
}

// seeOther redirects with 303 so the browser follows with GET.
func seeOther(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// renderPage renders a page and falls back to a plain-text 500 when the
// template fails.
func renderPage(w http.ResponseWriter, r *http.Request, rnd *render.Renderer, logger *slog.Logger, status int, name string, data render.TemplateData) {
	if err := rnd.RenderStatus(w, r, status, name, data); err != nil {
		logger.ErrorContext(r.Context(), "rendering page failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError renders the error page with a user-facing message.
func renderError(w http.ResponseWriter, r *http.Request, rnd *render.Renderer, logger *slog.Logger, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	renderPage(w, r, rnd, logger, status, templateError, render.TemplateData{
		Title: http.StatusText(status),
		Data:  errorData{Status: status, Message: message},
	})
}

// methodNotAllowed answers 405 with the allowed methods.
func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
