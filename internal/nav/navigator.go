// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ErrLoginProtected is returned when the login route itself requires
// authentication, which would make every redirect loop.
var ErrLoginProtected = errors.New("login route must not require authentication")

// ViewResolver turns an opaque ViewID into a handler.
type ViewResolver interface {
	View(id ViewID) (http.Handler, bool)
}

type matchKey struct{}

// Navigator is the HTTP side of the route table: it resolves the request,
// runs the guard and only then resolves and serves the target view.
type Navigator struct {
	table    *Table
	guard    *Guard
	views    ViewResolver
	logger   *slog.Logger
	notFound http.Handler
}

// NewNavigator wires a table, a guard and a view resolver together.
func NewNavigator(table *Table, guard *Guard, views ViewResolver, logger *slog.Logger) (*Navigator, error) {
	if m, ok := table.Resolve(guard.LoginPath()); ok && RequiresAuth(m) {
		return nil, fmt.Errorf("%w: %s", ErrLoginProtected, guard.LoginPath())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		table:    table,
		guard:    guard,
		views:    views,
		logger:   logger,
		notFound: http.NotFoundHandler(),
	}, nil
}

// SetNotFound replaces the handler used when no route matches.
func (n *Navigator) SetNotFound(h http.Handler) {
	n.notFound = h
}

// ServeHTTP implements http.Handler.
func (n *Navigator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m, ok := n.table.Resolve(r.URL.EscapedPath())
	if !ok {
		n.notFound.ServeHTTP(w, r)
		return
	}

	if d := n.guard.Check(r.Context(), m); !d.Allowed() {
		n.logger.InfoContext(r.Context(), "navigation redirected",
			"route", m.Route.Name,
			"path", r.URL.Path,
			"redirect", d.Redirect,
		)
		http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
		return
	}

	view, ok := n.views.View(m.Route.Component)
	if !ok {
		n.logger.ErrorContext(r.Context(), "no view registered for route",
			"route", m.Route.Name,
			"component", string(m.Route.Component),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	n.logger.DebugContext(r.Context(), "navigation allowed", "route", m.Route.Name, "path", r.URL.Path)
	view.ServeHTTP(w, WithMatch(r, m))
}

// Mount registers every route of the navigator's table on r.
// All methods are forwarded; views decide which ones they serve.
func Mount(r chi.Router, n *Navigator) {
	for _, rt := range n.table.Routes() {
		r.Handle(chiPattern(rt.Path), n)
	}
}

// CurrentMatch returns the match stored by the Navigator for this request.
func CurrentMatch(r *http.Request) (Match, bool) {
	m, ok := r.Context().Value(matchKey{}).(Match)
	return m, ok
}

// Param returns a decoded route parameter for the current request.
func Param(r *http.Request, name string) string {
	m, ok := CurrentMatch(r)
	if !ok {
		return ""
	}
	return m.Param(name)
}

// WithMatch returns a copy of r carrying m, as the Navigator does before
// serving a view.
func WithMatch(r *http.Request, m Match) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), matchKey{}, m))
}
