// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bookapi

import "github.com/olegiv/picbook/internal/urlpath"

// BookPath returns /api/books/{theme} with theme escaped as one path
// segment.
func BookPath(theme string) string {
	return "/api/books/" + urlpath.EscapeSegment(theme)
}

// ImageURL returns the same-origin URL of a book page image. Both theme and
// filename are escaped with urlpath.EscapeSegment, so "/" becomes %2F and
// "&" becomes %26.
func ImageURL(theme, filename string) string {
	return BookPath(theme) + "/images/" + urlpath.EscapeSegment(filename)
}

// PDFURL returns the same-origin URL of a book's PDF.
func PDFURL(theme string) string {
	return BookPath(theme) + "/pdf"
}
