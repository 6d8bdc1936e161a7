// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package statestore persists small pieces of client state between
// process runs: the cached identity of the signed-in customer, the
// selected company, and the session cookie jar. Each piece lives in its
// own JSON file under a per-user state directory, so a new process
// resumes where the last one left off.
//
// Files are written with mode 0600 and the directory with 0700; the
// cookie slot holds live session credentials.
package statestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Well-known slot names. Slots are independent files; clearing one
// never touches the others.
const (
	// IdentitySlot caches the last-known AuthResponse so session
	// restore can fall back to a token refresh when /auth/me fails.
	IdentitySlot = "identity.json"

	// CompanySlot remembers the selected company id across runs.
	CompanySlot = "company.json"

	// CookieSlot is the session cookie jar. Managed by the API
	// client's jar, not by Load/Save; exposed here so every piece of
	// persistent state resolves through one directory.
	CookieSlot = "cookies.json"
)

// Dir returns the Upkeep state directory. Checks UPKEEP_STATE_DIR
// first, then XDG_STATE_HOME, then falls back to ~/.local/state/upkeep.
func Dir() string {
	if envDir := os.Getenv("UPKEEP_STATE_DIR"); envDir != "" {
		return envDir
	}

	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			// Fallback — this should rarely happen.
			return filepath.Join("/tmp", "upkeep-state")
		}
		stateHome = filepath.Join(homeDirectory, ".local", "state")
	}
	return filepath.Join(stateHome, "upkeep")
}

// Store reads and writes JSON slots under a state directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir. An empty dir resolves via Dir().
func New(dir string) *Store {
	if dir == "" {
		dir = Dir()
	}
	return &Store{dir: dir}
}

// Path returns the absolute path of a slot file. The API client's
// cookie jar takes Path(CookieSlot) at construction.
func (s *Store) Path(slot string) string {
	return filepath.Join(s.dir, slot)
}

// Load reads a slot into v. Returns found=false (and no error) when the
// slot has never been written or was cleared; a present but unparseable
// slot is an error so callers notice corruption instead of silently
// starting fresh.
func (s *Store) Load(slot string, v any) (found bool, err error) {
	data, err := os.ReadFile(s.Path(slot))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("statestore: reading %s: %w", slot, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("statestore: parsing %s: %w", slot, err)
	}
	return true, nil
}

// Save writes v to a slot, creating the state directory on first use.
func (s *Store) Save(slot string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("statestore: marshaling %s: %w", slot, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("statestore: creating state directory %s: %w", s.dir, err)
	}
	if err := os.WriteFile(s.Path(slot), data, 0600); err != nil {
		return fmt.Errorf("statestore: writing %s: %w", slot, err)
	}
	return nil
}

// Delete removes a slot. Deleting an absent slot is not an error.
func (s *Store) Delete(slot string) error {
	if err := os.Remove(s.Path(slot)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("statestore: removing %s: %w", slot, err)
	}
	return nil
}
