// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/olegiv/picbook/internal/auth"
	"github.com/olegiv/picbook/internal/nav"
	"github.com/olegiv/picbook/internal/render"
	"github.com/olegiv/picbook/internal/session"
)

type loginData struct {
	Error    string
	Open     bool
	LoggedIn bool
}

// LoginView shows the login form (GET) and checks the password (POST).
// A successful login sets the session flag and lands on the home page.
// The page itself is always served, whatever the session holds.
type LoginView struct {
	deps Deps
	flag session.Flag
}

func (h *LoginView) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.form(w, r, http.StatusOK, "")
	case http.MethodPost:
		h.login(w, r)
	default:
		methodNotAllowed(w, "GET, HEAD, POST")
	}
}

func (h *LoginView) form(w http.ResponseWriter, r *http.Request, status int, msg string) {
	renderPage(w, r, h.deps.Renderer, h.deps.Logger, status, templateLogin, render.TemplateData{
		Title: "Log in",
		Data: loginData{
			Error:    msg,
			Open:     h.deps.Verifier.Open(),
			LoggedIn: h.flag.IsLoggedIn(r.Context()),
		},
	})
}

func (h *LoginView) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.form(w, r, http.StatusBadRequest, "Invalid form data.")
		return
	}

	ok, err := h.deps.Verifier.Verify(r.PostFormValue(fieldPassword))
	switch {
	case errors.Is(err, auth.ErrLoginDisabled):
		h.deps.Logger.WarnContext(ctx, "login attempted but no password hash is configured")
		h.form(w, r, http.StatusServiceUnavailable, "Login is not configured on this server.")
		return
	case err != nil:
		h.deps.Logger.ErrorContext(ctx, "password check failed", "error", err)
		h.form(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	case !ok:
		h.deps.Logger.InfoContext(ctx, "login failed")
		h.form(w, r, http.StatusUnauthorized, "Incorrect password.")
		return
	}

	if err := session.MarkLoggedIn(ctx, h.deps.Sessions); err != nil {
		h.deps.Logger.ErrorContext(ctx, "storing login flag failed", "error", err)
		h.form(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	h.deps.Logger.InfoContext(ctx, "login succeeded")
	seeOther(w, r, nav.PathRoot)
}

// Logout clears the login flag and destroys the session.
// POST /logout
func Logout(d Deps) http.HandlerFunc {
	d = d.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := session.Clear(ctx, d.Sessions); err != nil {
			d.Logger.ErrorContext(ctx, "session destroy error", "error", err)
		}
		d.Logger.InfoContext(ctx, "logged out")
		d.Renderer.SetFlash(r, "You have been logged out.", flashInfo)
		seeOther(w, r, nav.PathLogin)
	}
}
