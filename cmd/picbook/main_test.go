// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/olegiv/picbook/internal/auth"
)

func TestPrintPasswordHash(t *testing.T) {
	var out bytes.Buffer
	if err := printPasswordHash(strings.NewReader("hunter22\n"), &out); err != nil {
		t.Fatalf("printPasswordHash() error: %v", err)
	}

	hash := strings.TrimSpace(out.String())
	ok, err := auth.CheckPassword("hunter22", hash)
	if err != nil {
		t.Fatalf("CheckPassword() error: %v", err)
	}
	if !ok {
		t.Error("printed hash does not verify the password")
	}
}

func TestPrintPasswordHash_NoTrailingNewline(t *testing.T) {
	var out bytes.Buffer
	if err := printPasswordHash(strings.NewReader("hunter22"), &out); err != nil {
		t.Fatalf("printPasswordHash() error: %v", err)
	}
	if ok, _ := auth.CheckPassword("hunter22", strings.TrimSpace(out.String())); !ok {
		t.Error("printed hash does not verify the password")
	}
}

func TestPrintPasswordHash_Empty(t *testing.T) {
	var out bytes.Buffer
	if err := printPasswordHash(strings.NewReader("\n"), &out); err == nil {
		t.Fatal("printPasswordHash() should reject an empty password")
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestBuildInfo(t *testing.T) {
	info := buildInfo()
	if info.Version != appVersion || info.GitCommit != appGitCommit || info.BuildTime != appBuildTime {
		t.Errorf("buildInfo() = %+v", info)
	}
}
