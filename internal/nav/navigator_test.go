// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package nav

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/picbook/internal/logging"
)

type viewMap map[ViewID]http.Handler

func (v viewMap) View(id ViewID) (http.Handler, bool) {
	h, ok := v[id]
	return h, ok
}

func echoView(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, name+":"+Param(r, ParamTheme))
	})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, state bool) http.Handler {
	t.Helper()
	views := viewMap{
		NameHome:       echoView("home"),
		NameLogin:      echoView("login"),
		NameBookDetail: echoView("book"),
	}
	n, err := NewNavigator(defaultTable(t), NewGuard(loggedIn(state), ""), views, testLogger())
	require.NoError(t, err)

	r := chi.NewRouter()
	Mount(r, n)
	return r
}

func TestNavigator_RedirectsWhenLoggedOut(t *testing.T) {
	router := newTestRouter(t, false)

	for _, p := range []string{"/", "/book/dragons"} {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			req := httptest.NewRequest(method, p, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusSeeOther, rr.Code, "%s %s", method, p)
			assert.Equal(t, "/login", rr.Header().Get("Location"), "%s %s", method, p)
		}
	}
}

func TestNavigator_AllowsWhenLoggedIn(t *testing.T) {
	router := newTestRouter(t, true)

	tests := []struct {
		path string
		body string
	}{
		{"/", "home:"},
		{"/login", "login:"},
		{"/book/dragons", "book:dragons"},
		{"/book/space%2Fadventure", "book:space/adventure"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, tt.path)
		assert.Equal(t, tt.body, rr.Body.String(), tt.path)
	}
}

func TestNavigator_LoginReachableWhenLoggedOut(t *testing.T) {
	router := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "login:", rr.Body.String())
}

func TestNavigator_NotFound(t *testing.T) {
	n, err := NewNavigator(defaultTable(t), NewGuard(loggedIn(true), ""), viewMap{}, testLogger())
	require.NoError(t, err)
	n.SetNotFound(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rr := httptest.NewRecorder()
	n.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestNavigator_MissingView(t *testing.T) {
	n, err := NewNavigator(defaultTable(t), NewGuard(loggedIn(true), ""), viewMap{}, testLogger())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	n.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestNavigator_GuardRunsBeforeViewResolution(t *testing.T) {
	resolved := false
	views := resolverFunc(func(ViewID) (http.Handler, bool) {
		resolved = true
		return echoView("x"), true
	})
	n, err := NewNavigator(defaultTable(t), NewGuard(loggedIn(false), ""), views, testLogger())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	n.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/book/dragons", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.False(t, resolved)
}

func TestNewNavigator_RejectsProtectedLogin(t *testing.T) {
	table, err := NewTable(Route{Path: "/login", Name: NameLogin, RequiresAuth: true})
	require.NoError(t, err)

	_, err = NewNavigator(table, NewGuard(loggedIn(false), ""), viewMap{}, testLogger())
	assert.ErrorIs(t, err, ErrLoginProtected)
}

func TestParam_WithoutMatch(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, Param(req, ParamTheme))

	_, ok := CurrentMatch(req)
	assert.False(t, ok)

	req = WithMatch(req, Match{Params: map[string]string{ParamTheme: "owls"}})
	assert.Equal(t, "owls", Param(req, ParamTheme))
}

type resolverFunc func(ViewID) (http.Handler, bool)

func (f resolverFunc) View(id ViewID) (http.Handler, bool) {
	return f(id)
}

func TestNavigator_LogsCarryRequestContext(t *testing.T) {
	var buf bytes.Buffer
	views := viewMap{NameHome: echoView("home"), NameLogin: echoView("login"), NameBookDetail: echoView("book")}
	n, err := NewNavigator(defaultTable(t), NewGuard(loggedIn(false), ""), views, logging.New(&buf, slog.LevelDebug))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	Mount(r, n)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/book/dragons", nil))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `msg="navigation redirected"`)
	assert.Contains(t, lines[1], `msg="navigation allowed"`)
	for _, line := range lines {
		assert.Contains(t, line, "request_id=")
	}
}
