// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package nav

import "context"

// SessionState reports whether the current visitor completed login.
type SessionState interface {
	IsLoggedIn(ctx context.Context) bool
}

// SessionStateFunc adapts a function to SessionState.
type SessionStateFunc func(ctx context.Context) bool

// IsLoggedIn implements SessionState.
func (f SessionStateFunc) IsLoggedIn(ctx context.Context) bool {
	return f(ctx)
}

// Decision is the outcome of a guard check. A zero Decision allows the
// navigation.
type Decision struct {
	// Redirect is the path the navigation is sent to instead of its target.
	Redirect string
}

// Allowed reports whether the original navigation proceeds.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Guard decides, before a view is rendered, whether a navigation proceeds
// or is redirected to the login page.
type Guard struct {
	state     SessionState
	loginPath string
}

// NewGuard creates a guard reading login state from state.
// An empty loginPath defaults to PathLogin.
func NewGuard(state SessionState, loginPath string) *Guard {
	if loginPath == "" {
		loginPath = PathLogin
	}
	return &Guard{state: state, loginPath: loginPath}
}

// LoginPath returns the redirect target for unauthenticated navigations.
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Check evaluates a resolved navigation. It only reads session state.
func (g *Guard) Check(ctx context.Context, m Match) Decision {
	if RequiresAuth(m) && !g.state.IsLoggedIn(ctx) {
		return Decision{Redirect: g.loginPath}
	}
	return Decision{}
}

// RequiresAuth reports whether any route in the matched chain requires
// authentication.
func RequiresAuth(m Match) bool {
	if m.Route.RequiresAuth {
		return true
	}
	for _, rt := range m.Chain {
		if rt.RequiresAuth {
			return true
		}
	}
	return false
}
