// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
)

// NotFound renders the 404 page for paths outside the navigation table.
func NotFound(d Deps) http.HandlerFunc {
	d = d.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, d.Renderer, d.Logger, http.StatusNotFound, "Page not found.")
	}
}
