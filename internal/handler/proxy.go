// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/picbook/internal/bookapi"
)

// NewAPIProxy forwards read-only /api requests (book list, page images and
// PDFs) to the backend so the URLs built by bookapi stay same-origin.
// Mutations go through the guarded views instead and are refused here.
func NewAPIProxy(backendURL string, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(backendURL)
	if err != nil || target.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", backendURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Header.Del("Cookie")
			if id := chimw.GetReqID(pr.In.Context()); id != "" {
				pr.Out.Header.Set(bookapi.RequestIDHeader, id)
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			resp.Header.Del("Set-Cookie")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.ErrorContext(r.Context(), "backend proxy error", "error", err)
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, "GET, HEAD")
			return
		}
		rp.ServeHTTP(w, r)
	}), nil
}
