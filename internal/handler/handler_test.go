// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/picbook/internal/auth"
	"github.com/olegiv/picbook/internal/bookapi"
	"github.com/olegiv/picbook/internal/nav"
	"github.com/olegiv/picbook/internal/render"
	"github.com/olegiv/picbook/internal/session"
	"github.com/olegiv/picbook/internal/testutil"
	"github.com/olegiv/picbook/web"
)

const testPassword = "s3cret-pass"

// fakeBooks is an in-memory bookapi.API.
type fakeBooks struct {
	mu        sync.Mutex
	books     []bookapi.Book
	listErr   error
	genErr    error
	generated []bookapi.GenerateParams
	deleted   []string
}

func (f *fakeBooks) ListBooks(context.Context) ([]bookapi.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]bookapi.Book(nil), f.books...), nil
}

func (f *fakeBooks) GenerateBook(_ context.Context, p bookapi.GenerateParams) (*bookapi.GenerateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(p.Theme) == "" {
		return nil, bookapi.ErrInvalidParams
	}
	if f.genErr != nil {
		return nil, f.genErr
	}
	f.generated = append(f.generated, p)
	images := []string{"page_1.png", "page_2.png"}
	f.books = append(f.books, bookapi.Book{Theme: p.Theme, Images: images, HasPDF: true})
	return &bookapi.GenerateResult{BookDir: p.Theme, Images: images, HasPDF: true}, nil
}

func (f *fakeBooks) DeleteBook(_ context.Context, theme string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.books {
		if b.Theme == theme {
			f.books = append(f.books[:i], f.books[i+1:]...)
			f.deleted = append(f.deleted, theme)
			return nil
		}
	}
	return &bookapi.APIError{StatusCode: http.StatusNotFound, Message: "book does not exist"}
}

type testApp struct {
	server *httptest.Server
	client *http.Client
	books  *fakeBooks
}

type appOptions struct {
	allowOpen bool
	disabled  bool // no password hash and no open login
}

func newTestApp(t *testing.T, books *fakeBooks, opts appOptions) *testApp {
	t.Helper()

	var hash string
	if !opts.allowOpen && !opts.disabled {
		var err error
		hash, err = auth.HashPassword(testPassword)
		require.NoError(t, err)
	}
	verifier, err := auth.NewVerifier(hash, opts.allowOpen)
	require.NoError(t, err)

	sm := testutil.TestSessionManager()
	flag := session.NewFlag(sm)

	table, err := nav.NewTable(nav.DefaultRoutes()...)
	require.NoError(t, err)

	rnd, err := render.New(render.Config{
		TemplatesFS:    web.TemplatesFS(),
		SessionManager: sm,
		Login:          flag,
		Routes:         table,
	})
	require.NoError(t, err)

	logger := testutil.TestLoggerSilent()
	deps := Deps{
		Renderer: rnd,
		Books:    books,
		Sessions: sm,
		Verifier: verifier,
		Routes:   table,
		Logger:   logger,
	}

	navigator, err := nav.NewNavigator(table, nav.NewGuard(flag, nav.PathLogin), NewViews(deps), logger)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(sm.LoadAndSave)
	r.Post(RouteLogout, Logout(deps))
	r.NotFound(NotFound(deps))
	nav.Mount(r, navigator)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{server: srv, client: client, books: books}
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) login(t *testing.T) {
	t.Helper()
	resp, _ := a.post(t, nav.PathLogin, url.Values{fieldPassword: {testPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, nav.PathRoot, resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestProtectedPagesRedirectWhenLoggedOut(t *testing.T) {
	app := newTestApp(t, &fakeBooks{books: []bookapi.Book{{Theme: "dragons"}}}, appOptions{})

	for _, path := range []string{"/", "/book/dragons", "/book/space%2Fadventure"} {
		resp, _ := app.get(t, path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, nav.PathLogin, resp.Header.Get("Location"), path)
	}

	resp, _ := app.post(t, "/", url.Values{fieldTheme: {"cats"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, app.books.generated, "guard must run before the view")
}

func TestLoginPage(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{})

	resp, body := app.get(t, nav.PathLogin)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="password"`)
	assert.NotContains(t, body, "Development mode")
	assert.NotContains(t, body, "You are already logged in.")
}

func TestLogin_WrongPassword(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{})

	resp, body := app.post(t, nav.PathLogin, url.Values{fieldPassword: {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Incorrect password.")

	resp, _ = app.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLogin_ThenHome(t *testing.T) {
	app := newTestApp(t, &fakeBooks{books: []bookapi.Book{
		{Theme: "dragons", Images: []string{"page_1.png"}, HasPDF: true},
	}}, appOptions{})
	app.login(t)

	resp, body := app.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/book/dragons"`)
	assert.Contains(t, body, `src="/api/books/dragons/images/page_1.png"`)
	assert.Contains(t, body, `action="/logout"`)

}

func TestLoginPage_ServedWhenLoggedIn(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{})
	app.login(t)

	resp, body := app.get(t, nav.PathLogin)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Location"))
	assert.Contains(t, body, "You are already logged in.")
	assert.Contains(t, body, `name="password"`)

	// Logging in again keeps the session valid.
	app.login(t)
	resp, _ = app.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_DisabledWithoutHash(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{disabled: true})

	resp, body := app.post(t, nav.PathLogin, url.Values{fieldPassword: {"anything"}})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "Login is not configured on this server.")

	resp, _ = app.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLogin_OpenInDevelopment(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{allowOpen: true})

	_, body := app.get(t, nav.PathLogin)
	assert.Contains(t, body, "Development mode")

	resp, _ := app.post(t, nav.PathLogin, url.Values{fieldPassword: {"anything"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = app.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGenerateBook_RedirectsToDetail(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{})
	app.login(t)

	resp, _ := app.post(t, "/", url.Values{
		fieldTheme:     {"kids fantasy"},
		fieldStyle:     {"watercolor"},
		fieldPageCount: {"2"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/book/kids%20fantasy", resp.Header.Get("Location"))
	require.Len(t, app.books.generated, 1)
	assert.Equal(t, bookapi.GenerateParams{Theme: "kids fantasy", Style: "watercolor", PageCount: 2}, app.books.generated[0])

	resp, body := app.get(t, "/book/kids%20fantasy")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Your book is ready.")
	assert.Contains(t, body, `src="/api/books/kids%20fantasy/images/page_1.png"`)
	assert.Contains(t, body, `href="/api/books/kids%20fantasy/pdf"`)
}

func TestGenerateBook_DefaultPageCount(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{})
	app.login(t)

	resp, _ := app.post(t, "/", url.Values{fieldTheme: {"cats"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 0, app.books.generated[0].PageCount, "the client applies the default")
}

func TestGenerateBook_Validation(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{})
	app.login(t)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing theme", url.Values{fieldTheme: {"  "}}, "Please enter a theme."},
		{"bad page count", url.Values{fieldTheme: {"cats"}, fieldPageCount: {"abc"}}, "Pages must be a whole number"},
		{"zero pages", url.Values{fieldTheme: {"cats"}, fieldPageCount: {"0"}}, "Pages must be a whole number"},
		{"too many pages", url.Values{fieldTheme: {"cats"}, fieldPageCount: {"99"}}, "Pages must be a whole number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := app.post(t, "/", tt.form)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			assert.Contains(t, body, tt.want)
		})
	}
	assert.Empty(t, app.books.generated)
}

func TestGenerateBook_BackendFailure(t *testing.T) {
	app := newTestApp(t, &fakeBooks{genErr: &bookapi.APIError{StatusCode: 500, Message: "model offline"}}, appOptions{})
	app.login(t)

	resp, body := app.post(t, "/", url.Values{fieldTheme: {"cats"}})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "Generation failed: model offline")
	assert.Contains(t, body, `value="cats"`, "form keeps the submitted theme")
}

func TestHome_ListFailure(t *testing.T) {
	app := newTestApp(t, &fakeBooks{listErr: &bookapi.APIError{StatusCode: 500}}, appOptions{})
	app.login(t)

	resp, body := app.get(t, "/")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "Could not load your books.")
}

func TestBookDetail_NotFound(t *testing.T) {
	app := newTestApp(t, &fakeBooks{books: []bookapi.Book{{Theme: "dragons"}}}, appOptions{})
	app.login(t)

	resp, body := app.get(t, "/book/unicorns")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Book not found.")
}

func TestBookDetail_EncodedSlashTheme(t *testing.T) {
	app := newTestApp(t, &fakeBooks{books: []bookapi.Book{{Theme: "space/adventure", Images: []string{"page_1.png"}}}}, appOptions{})
	app.login(t)

	resp, body := app.get(t, "/book/space%2Fadventure")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `src="/api/books/space%2Fadventure/images/page_1.png"`)
}

func TestBookDetail_Delete(t *testing.T) {
	app := newTestApp(t, &fakeBooks{books: []bookapi.Book{{Theme: "dragons"}}}, appOptions{})
	app.login(t)

	resp, _ := app.post(t, "/book/dragons", url.Values{fieldAction: {actionDelete}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, nav.PathRoot, resp.Header.Get("Location"))
	assert.Equal(t, []string{"dragons"}, app.books.deleted)

	_, body := app.get(t, "/")
	assert.Contains(t, body, "Book deleted.")
	assert.Contains(t, body, "No books yet.")
}

func TestBookDetail_DeleteMissing(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{})
	app.login(t)

	resp, _ := app.post(t, "/book/ghosts", url.Values{fieldAction: {actionDelete}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := app.get(t, "/")
	assert.Contains(t, body, "That book was already deleted.")
}

func TestBookDetail_UnknownAction(t *testing.T) {
	app := newTestApp(t, &fakeBooks{books: []bookapi.Book{{Theme: "dragons"}}}, appOptions{})
	app.login(t)

	resp, body := app.post(t, "/book/dragons", url.Values{fieldAction: {"rename"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Unknown action.")
	assert.Empty(t, app.books.deleted)
}

func TestLogout(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{})
	app.login(t)

	resp, _ := app.post(t, RouteLogout, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, nav.PathLogin, resp.Header.Get("Location"))

	resp, _ = app.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, nav.PathLogin, resp.Header.Get("Location"))
}

func TestNotFoundPage(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{})

	resp, body := app.get(t, "/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found.")
}

func TestMethodNotAllowed(t *testing.T) {
	app := newTestApp(t, &fakeBooks{}, appOptions{})
	app.login(t)

	req, err := http.NewRequest(http.MethodDelete, app.server.URL+"/", nil)
	require.NoError(t, err)
	resp, err := app.client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, HEAD, POST", resp.Header.Get("Allow"))
}

func TestViews_LazyAndCached(t *testing.T) {
	builds := 0
	v := &Views{factories: map[nav.ViewID]func() http.Handler{}}
	v.Register("Sample", func() http.Handler {
		builds++
		return http.NewServeMux()
	})

	assert.Equal(t, 0, builds)
	h1, ok := v.View("Sample")
	require.True(t, ok)
	h2, _ := v.View("Sample")
	assert.Equal(t, 1, builds)
	assert.Same(t, h1, h2)

	_, ok = v.View("Missing")
	assert.False(t, ok)
}

func TestNewViews_RegistersTableComponents(t *testing.T) {
	v := NewViews(Deps{})
	for _, r := range nav.DefaultRoutes() {
		_, ok := v.View(r.Component)
		assert.True(t, ok, string(r.Component))
	}
}
