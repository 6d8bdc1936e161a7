// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package statestore

import (
	"os"
	"path/filepath"
	"testing"
)

type testIdentity struct {
	CustomerID string `json:"customerId"`
	Email      string `json:"email"`
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := New(t.TempDir())

	saved := testIdentity{CustomerID: "cust-1", Email: "owner@acme.test"}
	if err := store.Save(IdentitySlot, saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var loaded testIdentity
	found, err := store.Load(IdentitySlot, &loaded)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("expected slot to be found after Save")
	}
	if loaded != saved {
		t.Errorf("got %+v, want %+v", loaded, saved)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := New(t.TempDir())

	var loaded testIdentity
	found, err := store.Load(IdentitySlot, &loaded)
	if err != nil {
		t.Fatalf("Load of missing slot should not error: %v", err)
	}
	if found {
		t.Error("expected found=false for missing slot")
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	if err := os.WriteFile(filepath.Join(dir, IdentitySlot), []byte("{not json"), 0600); err != nil {
		t.Fatalf("writing corrupt slot: %v", err)
	}

	var loaded testIdentity
	if _, err := store.Load(IdentitySlot, &loaded); err == nil {
		t.Error("expected error for corrupt slot")
	}
}

func TestStore_Delete(t *testing.T) {
	store := New(t.TempDir())

	if err := store.Save(CompanySlot, map[string]string{"companyId": "comp-1"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(CompanySlot); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var loaded map[string]string
	found, err := store.Load(CompanySlot, &loaded)
	if err != nil {
		t.Fatalf("Load after Delete failed: %v", err)
	}
	if found {
		t.Error("expected slot to be gone after Delete")
	}

	// Deleting again is a no-op.
	if err := store.Delete(CompanySlot); err != nil {
		t.Fatalf("Delete of absent slot should not error: %v", err)
	}
}

func TestStore_SlotsAreIndependent(t *testing.T) {
	store := New(t.TempDir())

	if err := store.Save(IdentitySlot, testIdentity{CustomerID: "cust-1"}); err != nil {
		t.Fatalf("Save identity failed: %v", err)
	}
	if err := store.Save(CompanySlot, map[string]string{"companyId": "comp-1"}); err != nil {
		t.Fatalf("Save company failed: %v", err)
	}
	if err := store.Delete(IdentitySlot); err != nil {
		t.Fatalf("Delete identity failed: %v", err)
	}

	var company map[string]string
	found, err := store.Load(CompanySlot, &company)
	if err != nil || !found {
		t.Fatalf("company slot should survive identity delete: found=%v err=%v", found, err)
	}
	if company["companyId"] != "comp-1" {
		t.Errorf("company slot corrupted: %+v", company)
	}
}

func TestStore_FileMode(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	if err := store.Save(IdentitySlot, testIdentity{CustomerID: "cust-1"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, IdentitySlot))
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("slot file mode = %o, want 0600", mode)
	}
}

func TestDir_EnvOverride(t *testing.T) {
	t.Setenv("UPKEEP_STATE_DIR", "/custom/state")
	if got := Dir(); got != "/custom/state" {
		t.Errorf("Dir() = %q, want %q", got, "/custom/state")
	}
}

func TestDir_XDGStateHome(t *testing.T) {
	t.Setenv("UPKEEP_STATE_DIR", "")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")
	if got := Dir(); got != "/xdg/state/upkeep" {
		t.Errorf("Dir() = %q, want %q", got, "/xdg/state/upkeep")
	}
}
