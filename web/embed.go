// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web holds the embedded HTML templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var Templates embed.FS

//go:embed all:static
var Static embed.FS

// TemplatesFS returns the templates rooted at layouts/ and pages/.
func TemplatesFS() fs.FS {
	return mustSub(Templates, "templates")
}

// StaticFS returns the static assets rooted at css/.
func StaticFS() fs.FS {
	return mustSub(Static, "static")
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
