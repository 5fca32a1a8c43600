// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/picbook/internal/render"
	"github.com/olegiv/picbook/internal/store"
	"github.com/olegiv/picbook/internal/version"
)

// Pinger is a dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthCheckTimeout = 2 * time.Second

// Health check statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	backend   Pinger
	cache     Pinger // optional
	login     render.LoginState
	version   version.Info
	startTime time.Time
	now       func() time.Time
}

// HealthConfig holds the checked dependencies.
type HealthConfig struct {
	DB      *sql.DB
	Backend Pinger
	Cache   Pinger
	Login   render.LoginState // logged-in callers see check details
	Version version.Info
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(cfg HealthConfig) *HealthHandler {
	return &HealthHandler{
		db:        cfg.DB,
		backend:   cfg.Backend,
		cache:     cfg.Cache,
		login:     cfg.Login,
		version:   cfg.Version,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the detailed response for logged-in callers.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   version.Info     `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health handles GET /health. The database is required; an unreachable
// backend or cache only degrades the status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]Check{
		"database": h.checkDatabase(ctx),
		"backend":  h.ping(ctx, h.backend),
	}
	if h.cache != nil {
		checks["cache"] = h.ping(ctx, h.cache)
	}

	overall := statusHealthy
	code := http.StatusOK
	for name, c := range checks {
		if c.Status == statusHealthy {
			continue
		}
		if name == "database" {
			overall, code = statusUnhealthy, http.StatusServiceUnavailable
			break
		}
		overall = statusDegraded
	}

	if h.login == nil || !h.login.IsLoggedIn(ctx) {
		writeJSON(w, code, HealthStatusPublic{Status: overall})
		return
	}

	writeJSON(w, code, HealthStatus{
		Status:    overall,
		Timestamp: h.now().UTC(),
		Uptime:    h.now().Sub(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    checks,
	})
}

// MountHealth registers /health and /health/live on r. The session is
// loaded for /health because the detailed report depends on the login flag.
func MountHealth(r chi.Router, h *HealthHandler, sm *scs.SessionManager) {
	r.Get(RouteHealthLive, h.Liveness)
	r.With(sm.LoadAndSave).Get(RouteHealth, h.Health)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	if h.db == nil {
		return Check{Status: statusUnhealthy, Message: "not configured"}
	}
	latency, err := store.Check(ctx, h.db, healthCheckTimeout)
	if err != nil {
		return Check{Status: statusUnhealthy, Message: err.Error()}
	}
	return Check{Status: statusHealthy, Latency: latency.String()}
}

func (h *HealthHandler) ping(ctx context.Context, p Pinger) Check {
	if p == nil {
		return Check{Status: statusUnhealthy, Message: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return Check{Status: statusUnhealthy, Message: err.Error()}
	}
	return Check{Status: statusHealthy, Latency: time.Since(start).Round(time.Microsecond).String()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
