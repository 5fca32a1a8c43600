// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/picbook/internal/auth"
	"github.com/olegiv/picbook/internal/bookapi"
	"github.com/olegiv/picbook/internal/cache"
	"github.com/olegiv/picbook/internal/config"
	"github.com/olegiv/picbook/internal/handler"
	"github.com/olegiv/picbook/internal/logging"
	"github.com/olegiv/picbook/internal/middleware"
	"github.com/olegiv/picbook/internal/nav"
	"github.com/olegiv/picbook/internal/render"
	"github.com/olegiv/picbook/internal/session"
	"github.com/olegiv/picbook/internal/store"
	"github.com/olegiv/picbook/internal/version"
	"github.com/olegiv/picbook/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// Login attempts allowed per client IP: one every 6 seconds, burst of 5.
const (
	loginRateLimit = 1.0 / 6
	loginBurst     = 5
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	hashPassword := flag.Bool("hash-password", false, "Read a password from stdin and print its argon2id hash")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "picbook - Picture book web app\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PICBOOK_SESSION_SECRET       Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PICBOOK_DB_PATH              SQLite session database path (default: ./data/picbook.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PICBOOK_SERVER_PORT          Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PICBOOK_ENV                  Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PICBOOK_BACKEND_URL          Book backend base URL (default: http://localhost:5001)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PICBOOK_API_TIMEOUT          Backend request timeout (default: 5m)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PICBOOK_LOGIN_PASSWORD_HASH  argon2id hash from -hash-password (required outside development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PICBOOK_REDIS_URL            Redis URL for the book list cache (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Println(buildInfo().String())
		os.Exit(0)
	}

	if *hashPassword {
		if err := printPasswordHash(os.Stdin, os.Stdout); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func buildInfo() version.Info {
	return version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
}

// printPasswordHash reads the first line of r and writes its hash to w.
func printPasswordHash(r io.Reader, w io.Writer) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("empty password")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := logging.New(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment(), cfg.SessionLifetime)
	loginFlag := session.NewFlag(sessionManager)
	slog.Info("session manager initialized", "lifetime", cfg.SessionLifetime)

	// Book list cache: Redis when configured and reachable, memory otherwise
	bookCache := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)
	defer func() {
		if err := bookCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	// Backend client
	client, err := bookapi.NewClient(cfg.BackendURL, cfg.APITimeout)
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}
	books := bookapi.NewCachedClient(client, bookCache, time.Duration(cfg.CacheTTL)*time.Second, logger)
	slog.Info("backend client initialized", "url", client.BaseURL(), "timeout", cfg.APITimeout)

	// Login verifier
	verifier, err := auth.NewVerifier(cfg.LoginPasswordHash, cfg.IsDevelopment())
	if err != nil {
		return fmt.Errorf("invalid PICBOOK_LOGIN_PASSWORD_HASH: %w", err)
	}
	switch {
	case verifier.Open():
		slog.Warn("no login password configured; development mode accepts any password")
	case !cfg.LoginEnabled():
		slog.Warn("no login password configured; logins are disabled")
	}

	// Route table
	routes, err := nav.NewTable(nav.DefaultRoutes()...)
	if err != nil {
		return fmt.Errorf("building route table: %w", err)
	}

	// Initialize template renderer
	renderer, err := render.New(render.Config{
		TemplatesFS:    web.TemplatesFS(),
		SessionManager: sessionManager,
		Login:          loginFlag,
		Routes:         routes,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	deps := handler.Deps{
		Renderer: renderer,
		Books:    books,
		Sessions: sessionManager,
		Verifier: verifier,
		Routes:   routes,
		Logger:   logger,
	}
	notFound := handler.NotFound(deps)

	navigator, err := nav.NewNavigator(routes, nav.NewGuard(loginFlag, nav.PathLogin), handler.NewViews(deps), logger)
	if err != nil {
		return fmt.Errorf("building navigator: %w", err)
	}
	navigator.SetNotFound(notFound)

	apiProxy, err := handler.NewAPIProxy(cfg.BackendURL, logger)
	if err != nil {
		return fmt.Errorf("creating api proxy: %w", err)
	}

	healthCfg := handler.HealthConfig{
		DB:      db,
		Backend: client,
		Login:   loginFlag,
		Version: buildInfo(),
	}
	if rc, ok := bookCache.(*cache.RedisCache); ok {
		healthCfg.Cache = rc
	}
	healthHandler := handler.NewHealthHandler(healthCfg)

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))             // Gzip compression with level 5
	r.Use(chimw.GetHead)                 // Handle HEAD requests for uptime monitoring
	r.Use(middleware.StripTrailingSlash) // Redirect /path/ to /path (301)

	// Security headers middleware (CSP, HSTS, X-Frame-Options, etc.)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	slog.Info("security headers middleware initialized", "hsts", !cfg.IsDevelopment())

	// Request path middleware for logging context
	r.Use(middleware.RequestPath)

	// Health and the read-only backend proxy are not CSRF-protected.
	handler.MountHealth(r, healthHandler, sessionManager)
	r.Handle(handler.RouteAPI, apiProxy)
	r.Handle(handler.RouteStatic, http.StripPrefix(handler.RouteStaticPrefix, http.FileServerFS(web.StaticFS())))

	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr())))
		r.Use(middleware.NewRateLimiter(loginRateLimit, loginBurst).LimitRoute(http.MethodPost, nav.PathLogin))
		slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

		r.Post(handler.RouteLogout, handler.Logout(deps))
		nav.Mount(r, navigator)
		r.NotFound(notFound)
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.APITimeout + 30*time.Second, // Generation blocks for up to APITimeout
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", appVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
