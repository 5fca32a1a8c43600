// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package nav implements the declarative route table and the login-gate
// navigation guard that decides, before any view is rendered, whether a
// navigation proceeds or is redirected to the login page.
package nav

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/olegiv/picbook/internal/urlpath"
)

// Route names of the canonical table.
const (
	NameHome       = "Home"
	NameLogin      = "Login"
	NameBookDetail = "BookDetail"
)

// Route paths of the canonical table.
const (
	PathRoot  = "/"
	PathLogin = "/login"
	PathBook  = "/book/:theme"
)

// ParamTheme is the input name the BookDetail view receives.
const ParamTheme = "theme"

// Table construction errors.
var (
	ErrDuplicatePath  = errors.New("duplicate route path")
	ErrDuplicateName  = errors.New("duplicate route name")
	ErrInvalidPattern = errors.New("invalid route pattern")
)

// URL building errors.
var (
	ErrUnknownRoute = errors.New("unknown route name")
	ErrMissingParam = errors.New("missing route parameter")
)

// ViewID is an opaque handle to a renderable view.
// The routing core never inspects it; the rendering layer resolves it.
type ViewID string

// Route maps a URL pattern to a view and its metadata.
type Route struct {
	// Path is the URL pattern. A segment of the form ":name" captures one
	// path segment under that name. Child paths without a leading slash are
	// relative to their parent.
	Path string
	// Name is a unique symbolic identifier.
	Name string
	// Component is the view rendered for this route.
	Component ViewID
	// RequiresAuth marks the route as reachable only with a login session.
	RequiresAuth bool
	// Children are nested routes. A child matches with its parents as the
	// matched chain.
	Children []Route
}

// DefaultRoutes returns the canonical route table: the home page and the
// book detail page require a login, the login page does not.
func DefaultRoutes() []Route {
	return []Route{
		{Path: PathRoot, Name: NameHome, Component: NameHome, RequiresAuth: true},
		{Path: PathLogin, Name: NameLogin, Component: NameLogin},
		{Path: PathBook, Name: NameBookDetail, Component: NameBookDetail, RequiresAuth: true},
	}
}

// Match is the result of resolving a request path against a Table.
type Match struct {
	// Route is the leaf route, with Path set to its full pattern.
	Route Route
	// Chain lists the matched routes from the top-level route to the leaf.
	Chain []Route
	// Params holds the decoded parameter segments by name.
	Params map[string]string
}

// Param returns the decoded value of the named parameter, or "".
func (m Match) Param(name string) string {
	return m.Params[name]
}

type segment struct {
	literal string
	param   string
}

type entry struct {
	route    Route
	chain    []Route
	segments []segment
	literals int
}

// Table is an immutable, validated route table.
type Table struct {
	entries []entry
}

// NewTable flattens and validates routes. Paths and names must be unique
// across the whole tree.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{}
	paths := make(map[string]string)
	names := make(map[string]bool)

	var walk func(parentPath string, parents []Route, rs []Route) error
	walk = func(parentPath string, parents []Route, rs []Route) error {
		for _, rt := range rs {
			full, err := joinPath(parentPath, rt.Path)
			if err != nil {
				return err
			}
			segs, err := parsePattern(full)
			if err != nil {
				return err
			}

			key := patternKey(segs)
			if prev, ok := paths[key]; ok {
				return fmt.Errorf("%w: %q conflicts with %q", ErrDuplicatePath, full, prev)
			}
			paths[key] = full

			if rt.Name != "" {
				if names[rt.Name] {
					return fmt.Errorf("%w: %q", ErrDuplicateName, rt.Name)
				}
				names[rt.Name] = true
			}

			leaf := rt
			leaf.Path = full
			leaf.Children = nil

			chain := make([]Route, 0, len(parents)+1)
			chain = append(chain, parents...)
			chain = append(chain, leaf)

			literals := 0
			for _, s := range segs {
				if s.param == "" {
					literals++
				}
			}
			t.entries = append(t.entries, entry{route: leaf, chain: chain, segments: segs, literals: literals})

			if len(rt.Children) > 0 {
				if err := walk(full, chain, rt.Children); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk("", nil, routes); err != nil {
		return nil, err
	}
	return t, nil
}

// Routes returns the flattened routes with their full path patterns,
// in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.route
	}
	return out
}

// URL builds the escaped path of the named route. Each parameter value is
// escaped with urlpath.EscapeSegment, so URL(NameBookDetail, {"theme":
// "space/adventure"}) is "/book/space%2Fadventure" and resolves back to the
// same value.
func (t *Table) URL(name string, params map[string]string) (string, error) {
	for _, e := range t.entries {
		if e.route.Name != name {
			continue
		}
		if len(e.segments) == 0 {
			return "/", nil
		}
		var sb strings.Builder
		for _, s := range e.segments {
			sb.WriteString("/")
			if s.param == "" {
				sb.WriteString(urlpath.EscapeSegment(s.literal))
				continue
			}
			v := params[s.param]
			if v == "" {
				return "", fmt.Errorf("%w: %s needs %q", ErrMissingParam, name, s.param)
			}
			sb.WriteString(urlpath.EscapeSegment(v))
		}
		return sb.String(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
}

// Resolve matches an escaped request path (as returned by
// url.URL.EscapedPath) against the table. Parameter segments are
// percent-decoded, so "/book/space%2Fadventure" yields theme
// "space/adventure". A single trailing slash is ignored. When several
// patterns match, the one with the most literal segments wins.
func (t *Table) Resolve(escapedPath string) (Match, bool) {
	parts := splitPath(escapedPath)

	best := -1
	var bestParams map[string]string
	for i, e := range t.entries {
		if len(e.segments) != len(parts) {
			continue
		}
		params, ok := matchSegments(e.segments, parts)
		if !ok {
			continue
		}
		if best < 0 || e.literals > t.entries[best].literals {
			best = i
			bestParams = params
		}
	}
	if best < 0 {
		return Match{}, false
	}

	e := t.entries[best]
	chain := make([]Route, len(e.chain))
	copy(chain, e.chain)
	return Match{Route: e.route, Chain: chain, Params: bestParams}, true
}

func matchSegments(segs []segment, parts []string) (map[string]string, bool) {
	params := make(map[string]string)
	for i, s := range segs {
		raw := parts[i]
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			return nil, false
		}
		if s.param != "" {
			if decoded == "" {
				return nil, false
			}
			params[s.param] = decoded
			continue
		}
		if decoded != s.literal {
			return nil, false
		}
	}
	return params, true
}

func splitPath(p string) []string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func joinPath(parent, child string) (string, error) {
	switch {
	case strings.HasPrefix(child, "/"):
		return child, nil
	case parent == "":
		return "", fmt.Errorf("%w: top-level path %q must start with /", ErrInvalidPattern, child)
	case child == "":
		return parent, nil
	case parent == "/":
		return "/" + child, nil
	default:
		return parent + "/" + child, nil
	}
}

func parsePattern(p string) ([]segment, error) {
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, p)
	}
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil, nil
	}

	seen := make(map[string]bool)
	var segs []segment
	for _, part := range strings.Split(trimmed, "/") {
		switch {
		case part == "":
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPattern, p)
		case strings.HasPrefix(part, ":"):
			name := part[1:]
			if name == "" || strings.ContainsAny(name, ":{}") {
				return nil, fmt.Errorf("%w: %q has a bad parameter %q", ErrInvalidPattern, p, part)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w: %q repeats parameter %q", ErrInvalidPattern, p, name)
			}
			seen[name] = true
			segs = append(segs, segment{param: name})
		default:
			segs = append(segs, segment{literal: part})
		}
	}
	return segs, nil
}

// patternKey normalizes parameter names so "/book/:a" and "/book/:b"
// count as the same path.
func patternKey(segs []segment) string {
	var sb strings.Builder
	sb.WriteString("/")
	for i, s := range segs {
		if i > 0 {
			sb.WriteString("/")
		}
		if s.param != "" {
			sb.WriteString(":")
			continue
		}
		sb.WriteString(s.literal)
	}
	return sb.String()
}

// chiPattern converts ":name" segments to chi's "{name}" form.
func chiPattern(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			parts[i] = "{" + part[1:] + "}"
		}
	}
	return strings.Join(parts, "/")
}
