// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import "errors"

// ErrLoginDisabled is returned when no password hash is configured and
// open login is not allowed.
var ErrLoginDisabled = errors.New("login is not configured")

// Verifier checks the single shared login password.
type Verifier struct {
	hash      string
	allowOpen bool
}

// NewVerifier creates a Verifier for encodedHash. With an empty hash and
// allowOpen set (development), any non-empty password is accepted.
func NewVerifier(encodedHash string, allowOpen bool) (*Verifier, error) {
	if encodedHash != "" {
		if err := ValidateHash(encodedHash); err != nil {
			return nil, err
		}
	}
	return &Verifier{hash: encodedHash, allowOpen: allowOpen}, nil
}

// Open reports whether the verifier accepts any password.
func (v *Verifier) Open() bool {
	return v.hash == "" && v.allowOpen
}

// Verify reports whether password is accepted.
func (v *Verifier) Verify(password string) (bool, error) {
	if password == "" {
		return false, nil
	}
	if v.hash == "" {
		if v.allowOpen {
			return true, nil
		}
		return false, ErrLoginDisabled
	}
	return CheckPassword(password, v.hash)
}
