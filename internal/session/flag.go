// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"fmt"

	"github.com/alexedwards/scs/v2"
)

// KeyLoggedIn is the session key holding the login flag.
const KeyLoggedIn = "isLoggedIn"

// LoggedInValue is the only stored value that counts as logged in.
const LoggedInValue = "true"

// StringGetter is the read side of a session manager.
type StringGetter interface {
	GetString(ctx context.Context, key string) string
}

// Flag exposes the persisted login flag. It implements nav.SessionState.
type Flag struct {
	store StringGetter
}

// NewFlag creates a Flag reading from store.
func NewFlag(store StringGetter) Flag {
	return Flag{store: store}
}

// IsLoggedIn reports whether the stored flag is exactly "true".
// A missing key, a non-string value or any other string is logged out.
func (f Flag) IsLoggedIn(ctx context.Context) bool {
	return f.store.GetString(ctx, KeyLoggedIn) == LoggedInValue
}

// MarkLoggedIn sets the flag after a successful login. The session token
// is renewed first to prevent session fixation.
func MarkLoggedIn(ctx context.Context, sm *scs.SessionManager) error {
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	sm.Put(ctx, KeyLoggedIn, LoggedInValue)
	return nil
}

// Clear removes the flag and destroys the session.
func Clear(ctx context.Context, sm *scs.SessionManager) error {
	sm.Remove(ctx, KeyLoggedIn)
	if err := sm.Destroy(ctx); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	return nil
}
