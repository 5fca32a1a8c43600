// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the views the navigation table points at, plus
// the login/logout actions, the /api proxy and the health endpoints.
package handler

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/picbook/internal/auth"
	"github.com/olegiv/picbook/internal/bookapi"
	"github.com/olegiv/picbook/internal/nav"
	"github.com/olegiv/picbook/internal/render"
	"github.com/olegiv/picbook/internal/session"
)

// Deps are the collaborators shared by all views.
type Deps struct {
	Renderer *render.Renderer
	Books    bookapi.API
	Sessions *scs.SessionManager
	Verifier *auth.Verifier
	Routes   *nav.Table
	Logger   *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// Views resolves view ids to handlers. Each handler is built on first use.
type Views struct {
	factories map[nav.ViewID]func() http.Handler
}

// NewViews registers the Home, Login and BookDetail views.
func NewViews(d Deps) *Views {
	d = d.withDefaults()
	v := &Views{factories: make(map[nav.ViewID]func() http.Handler)}
	v.Register(nav.NameHome, func() http.Handler { return &HomeView{deps: d} })
	v.Register(nav.NameLogin, func() http.Handler { return &LoginView{deps: d, flag: session.NewFlag(d.Sessions)} })
	v.Register(nav.NameBookDetail, func() http.Handler { return &BookView{deps: d} })
	return v
}

// Register adds or replaces a lazily built view.
func (v *Views) Register(id nav.ViewID, build func() http.Handler) {
	v.factories[id] = sync.OnceValue(build)
}

// View implements nav.ViewResolver.
func (v *Views) View(id nav.ViewID) (http.Handler, bool) {
	build, ok := v.factories[id]
	if !ok {
		return nil, false
	}
	return build(), true
}

var _ nav.ViewResolver = (*Views)(nil)
