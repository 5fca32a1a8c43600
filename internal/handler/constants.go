// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Routes registered outside the navigation table.
const (
	RouteLogout       = "/logout"
	RouteHealth       = "/health"
	RouteHealthLive   = "/health/live"
	RouteStatic       = "/static/*"
	RouteStaticPrefix = "/static/"
	RouteAPI          = "/api/*"
)

// Page template names.
const (
	templateHome  = "home"
	templateLogin = "login"
	templateBook  = "book"
	templateError = "error"
)

// Form fields.
const (
	fieldTheme     = "theme"
	fieldStyle     = "style"
	fieldPageCount = "page_count"
	fieldPassword  = "password"
	fieldAction    = "action"

	actionDelete = "delete"
)

// MaxPageCount is the largest page count offered by the generate form.
const MaxPageCount = 20

// Flash message types.
const (
	flashSuccess = "success"
	flashError   = "error"
	flashInfo    = "info"
)
