// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render executes the embedded page templates inside the base
// layout.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/picbook/internal/bookapi"
	"github.com/olegiv/picbook/internal/nav"
)

// Session keys of the one-shot flash message.
const (
	flashKey     = "flash"
	flashTypeKey = "flash_type"
)

const baseLayout = "layouts/base.html"

// LoginState reports whether the current session is logged in.
type LoginState interface {
	IsLoggedIn(ctx context.Context) bool
}

// Renderer handles template rendering with caching.
type Renderer struct {
	templates      map[string]*template.Template
	sessionManager *scs.SessionManager
	login          LoginState
	routes         *nav.Table
	now            func() time.Time
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager // optional; enables flash messages
	Login          LoginState          // optional; drives the logout button
	Routes         *nav.Table          // required by the bookURL template func
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Data        any
	Flash       string
	FlashType   string
	CurrentYear int
	LoggedIn    bool
}

// New parses every pages/*.html template together with the base layout.
func New(cfg Config) (*Renderer, error) {
	if cfg.Routes == nil {
		return nil, fmt.Errorf("render: route table is required")
	}
	r := &Renderer{
		templates:      make(map[string]*template.Template),
		sessionManager: cfg.SessionManager,
		login:          cfg.Login,
		routes:         cfg.Routes,
		now:            time.Now,
	}

	pages, err := fs.Glob(cfg.TemplatesFS, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}

	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		tmpl, err := template.New(name).Funcs(r.templateFuncs()).ParseFS(cfg.TemplatesFS, baseLayout, page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

func (r *Renderer) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"imageURL": bookapi.ImageURL,
		"pdfURL":   bookapi.PDFURL,
		"bookURL": func(theme string) (string, error) {
			return r.routes.URL(nav.NameBookDetail, map[string]string{nav.ParamTheme: theme})
		},
		"routeURL": func(name string) (string, error) {
			return r.routes.URL(name, nil)
		},
	}
}

// Render executes the named page with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus executes the named page into a buffer and writes it with
// the given status. Nothing is written when execution fails.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	ctx := req.Context()
	data.CurrentYear = r.now().Year()
	if r.login != nil {
		data.LoggedIn = r.login.IsLoggedIn(ctx)
	}
	if r.sessionManager != nil && data.Flash == "" {
		if flash := r.sessionManager.PopString(ctx, flashKey); flash != "" {
			data.Flash = flash
			data.FlashType = r.sessionManager.PopString(ctx, flashTypeKey)
		}
	}
	if data.Flash != "" && data.FlashType == "" {
		data.FlashType = "info"
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.DebugContext(ctx, "writing response failed", "template", name, "error", err)
	}
	return nil
}

// SetFlash stores a message shown on the next rendered page.
func (r *Renderer) SetFlash(req *http.Request, message, flashType string) {
	if r.sessionManager == nil {
		return
	}
	r.sessionManager.Put(req.Context(), flashKey, message)
	r.sessionManager.Put(req.Context(), flashTypeKey, flashType)
}
