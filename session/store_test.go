// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/upkeep-foundation/upkeep/api"
	"github.com/upkeep-foundation/upkeep/lib/secret"
	"github.com/upkeep-foundation/upkeep/lib/statestore"
)

// authServer fakes the platform's auth endpoints with switchable
// failure modes.
type authServer struct {
	mu           sync.Mutex
	meOK         bool
	refreshOK    bool
	logoutOK     bool
	refreshCalls int
	logoutCalls  int
}

func (s *authServer) set(f func(*authServer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

func (s *authServer) refreshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

func unauthorized(w http.ResponseWriter) {
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprint(w, `{"error":{"code":"UNAUTHORIZED","message":"session expired"}}`)
}

func identityPayload(w http.ResponseWriter) {
	fmt.Fprint(w, `{"data":{"customerId":"cust-1","email":"owner@acme.test","accountType":"COMPANY"}}`)
}

func (s *authServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		ok := s.meOK
		s.mu.Unlock()
		if !ok {
			unauthorized(w)
			return
		}
		identityPayload(w)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.refreshCalls++
		ok := s.refreshOK
		s.mu.Unlock()
		if !ok {
			unauthorized(w)
			return
		}
		fmt.Fprint(w, `{"data":null}`)
	})
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		identityPayload(w)
	})
	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		identityPayload(w)
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.logoutCalls++
		ok := s.logoutOK
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"data":null}`)
	})
	return mux
}

// newTestStore wires a store against a fake auth server, with fast
// renewal so demotion tests finish quickly.
func newTestStore(t *testing.T, server *authServer) (*Store, *statestore.Store) {
	t.Helper()
	ts := httptest.NewServer(server.handler())
	t.Cleanup(ts.Close)

	client, err := api.NewClient(api.ClientConfig{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	state := statestore.New(t.TempDir())
	store := NewStore(Config{
		Client:       client,
		State:        state,
		RenewEvery:   20 * time.Millisecond,
		RenewTimeout: time.Second,
	})
	t.Cleanup(store.Close)
	return store, state
}

func mustPassword(t *testing.T) *secret.Buffer {
	t.Helper()
	password, err := secret.NewFromString("hunter2")
	if err != nil {
		t.Fatalf("NewFromString failed: %v", err)
	}
	t.Cleanup(func() { password.Close() })
	return password
}

// waitForStatus polls until the store reaches the wanted status or the
// deadline passes.
func waitForStatus(t *testing.T, store *Store, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.Snapshot().Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("store never reached %s, stuck at %s", want, store.Snapshot().Status)
}

func TestStore_InitialStatus(t *testing.T) {
	store, _ := newTestStore(t, &authServer{})
	if got := store.Snapshot().Status; got != StatusUninitialized {
		t.Errorf("fresh store status = %s, want uninitialized", got)
	}
}

func TestInit_ValidSession(t *testing.T) {
	store, state := newTestStore(t, &authServer{meOK: true})

	snapshot := store.Init(context.Background())
	if snapshot.Status != StatusAuthenticated {
		t.Fatalf("status = %s, want authenticated", snapshot.Status)
	}
	if snapshot.Identity == nil || snapshot.Identity.CustomerID != "cust-1" {
		t.Fatalf("unexpected identity: %+v", snapshot.Identity)
	}

	// The verified identity is cached for the next run.
	var cached api.AuthResponse
	found, err := state.Load(statestore.IdentitySlot, &cached)
	if err != nil || !found {
		t.Fatalf("identity not cached: found=%v err=%v", found, err)
	}
	if cached.CustomerID != "cust-1" {
		t.Errorf("cached CustomerID = %q, want cust-1", cached.CustomerID)
	}
}

func TestInit_FallsBackToRefresh(t *testing.T) {
	server := &authServer{meOK: false, refreshOK: true}
	store, state := newTestStore(t, server)

	// A previous run left a cached identity behind.
	if err := state.Save(statestore.IdentitySlot, api.AuthResponse{
		CustomerID: "cust-1", Email: "owner@acme.test", AccountType: api.AccountTypeCompany,
	}); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	snapshot := store.Init(context.Background())
	if snapshot.Status != StatusAuthenticated {
		t.Fatalf("status = %s, want authenticated via refresh fallback", snapshot.Status)
	}
	if snapshot.Identity.Email != "owner@acme.test" {
		t.Errorf("identity should come from the cache, got %+v", snapshot.Identity)
	}
	if server.refreshCount() == 0 {
		t.Error("expected a refresh call during fallback")
	}
}

func TestInit_RefreshFailsClearsEverything(t *testing.T) {
	store, state := newTestStore(t, &authServer{meOK: false, refreshOK: false})

	if err := state.Save(statestore.IdentitySlot, api.AuthResponse{CustomerID: "cust-1"}); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	snapshot := store.Init(context.Background())
	if snapshot.Status != StatusAnonymous {
		t.Fatalf("status = %s, want anonymous", snapshot.Status)
	}
	if snapshot.Identity != nil {
		t.Errorf("identity should be nil, got %+v", snapshot.Identity)
	}

	var cached api.AuthResponse
	found, _ := state.Load(statestore.IdentitySlot, &cached)
	if found {
		t.Error("cached identity should be cleared after failed restore")
	}
}

func TestInit_NoCachedIdentitySkipsRefresh(t *testing.T) {
	server := &authServer{meOK: false, refreshOK: true}
	store, _ := newTestStore(t, server)

	snapshot := store.Init(context.Background())
	if snapshot.Status != StatusAnonymous {
		t.Fatalf("status = %s, want anonymous", snapshot.Status)
	}
	if server.refreshCount() != 0 {
		t.Error("refresh should not be attempted without a cached identity")
	}
}

func TestLogin(t *testing.T) {
	store, _ := newTestStore(t, &authServer{refreshOK: true})

	var notified []Status
	var notifyMu sync.Mutex
	cancel := store.Subscribe(func(snapshot Snapshot) {
		notifyMu.Lock()
		notified = append(notified, snapshot.Status)
		notifyMu.Unlock()
	})
	defer cancel()

	identity, err := store.Login(context.Background(), "owner@acme.test", mustPassword(t))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if identity.CustomerID != "cust-1" {
		t.Errorf("CustomerID = %q, want cust-1", identity.CustomerID)
	}
	if store.Snapshot().Status != StatusAuthenticated {
		t.Errorf("status = %s, want authenticated", store.Snapshot().Status)
	}

	notifyMu.Lock()
	defer notifyMu.Unlock()
	if len(notified) == 0 || notified[len(notified)-1] != StatusAuthenticated {
		t.Errorf("subscriber saw %v, want trailing authenticated", notified)
	}
}

func TestRegister_SignsIn(t *testing.T) {
	store, _ := newTestStore(t, &authServer{refreshOK: true})

	password := mustPassword(t)
	confirm := mustPassword(t)
	identity, err := store.Register(context.Background(), api.RegisterRequest{
		Email:           "owner@acme.test",
		Password:        password,
		ConfirmPassword: confirm,
		AccountType:     api.AccountTypeCompany,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if identity.CustomerID != "cust-1" {
		t.Errorf("CustomerID = %q, want cust-1", identity.CustomerID)
	}
	if store.Snapshot().Status != StatusAuthenticated {
		t.Error("a successful registration should leave the store authenticated")
	}
}

func TestLogout_ClearsLocallyEvenWhenServerFails(t *testing.T) {
	server := &authServer{refreshOK: true, logoutOK: false}
	store, state := newTestStore(t, server)

	if _, err := store.Login(context.Background(), "owner@acme.test", mustPassword(t)); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	store.Logout(context.Background())

	if store.Snapshot().Status != StatusAnonymous {
		t.Errorf("status = %s, want anonymous despite server failure", store.Snapshot().Status)
	}
	var cached api.AuthResponse
	if found, _ := state.Load(statestore.IdentitySlot, &cached); found {
		t.Error("cached identity should be cleared on logout")
	}
	if server.logoutCalls != 1 {
		t.Errorf("logoutCalls = %d, want 1", server.logoutCalls)
	}
}

func TestRenewal_KeepsSessionAlive(t *testing.T) {
	server := &authServer{meOK: true, refreshOK: true}
	store, _ := newTestStore(t, server)

	store.Init(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && server.refreshCount() < 2 {
		time.Sleep(5 * time.Millisecond)
	}
	if server.refreshCount() < 2 {
		t.Fatal("expected periodic renewal calls")
	}
	if store.Snapshot().Status != StatusAuthenticated {
		t.Errorf("status = %s, want still authenticated", store.Snapshot().Status)
	}
}

func TestRenewal_FailureDemotesToAnonymous(t *testing.T) {
	server := &authServer{meOK: true, refreshOK: true}
	store, state := newTestStore(t, server)

	store.Init(context.Background())
	if store.Snapshot().Status != StatusAuthenticated {
		t.Fatal("precondition: authenticated")
	}

	// The next renewal tick fails.
	server.set(func(s *authServer) { s.refreshOK = false })

	waitForStatus(t, store, StatusAnonymous)

	var cached api.AuthResponse
	if found, _ := state.Load(statestore.IdentitySlot, &cached); found {
		t.Error("cached identity should be cleared when renewal demotes")
	}
}

func TestRenewal_SingleTickerAcrossRepeatedLogins(t *testing.T) {
	server := &authServer{refreshOK: true, logoutOK: true}
	store, _ := newTestStore(t, server)
	ctx := context.Background()

	// Several sign-in/sign-out cycles, ending signed in.
	for i := 0; i < 3; i++ {
		if _, err := store.Login(ctx, "owner@acme.test", mustPassword(t)); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if i < 2 {
			store.Logout(ctx)
		}
	}

	// Logging in again while already authenticated must not replace or
	// stack the running ticker.
	store.mu.Lock()
	armed := store.renewStop
	store.mu.Unlock()
	if _, err := store.Login(ctx, "owner@acme.test", mustPassword(t)); err != nil {
		t.Fatalf("repeat Login failed: %v", err)
	}
	store.mu.Lock()
	rearmed := store.renewStop
	store.mu.Unlock()
	if armed != rearmed {
		t.Error("login while authenticated replaced the renewal ticker")
	}

	// Renewal runs at the single-ticker rate. Tickers leaked by the
	// earlier cycles would multiply the call count.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && server.refreshCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	base := server.refreshCount()
	if base == 0 {
		t.Fatal("renewal never ran after the login cycles")
	}
	time.Sleep(300 * time.Millisecond)
	ticks := server.refreshCount() - base
	// One 20ms ticker fires at most ~15 times in 300ms; a leaked
	// ticker per cycle would at least double that.
	if ticks > 20 {
		t.Errorf("%d renewal calls in 300ms, more than one 20ms ticker can fire", ticks)
	}
	if store.Snapshot().Status != StatusAuthenticated {
		t.Errorf("status = %s, want still authenticated", store.Snapshot().Status)
	}
}

func TestRenewal_NotArmedBeforeInitSettles(t *testing.T) {
	server := &authServer{meOK: true, refreshOK: true}
	_, _ = newTestStore(t, server)

	// Without Init (or login), no ticker may run.
	time.Sleep(100 * time.Millisecond)
	if server.refreshCount() != 0 {
		t.Errorf("renewal ran before Init: %d refresh calls", server.refreshCount())
	}
}

func TestSubscribe_CancelStopsNotifications(t *testing.T) {
	store, _ := newTestStore(t, &authServer{refreshOK: true})

	var count int
	var countMu sync.Mutex
	cancel := store.Subscribe(func(Snapshot) {
		countMu.Lock()
		count++
		countMu.Unlock()
	})

	if _, err := store.Login(context.Background(), "owner@acme.test", mustPassword(t)); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	countMu.Lock()
	seen := count
	countMu.Unlock()
	if seen == 0 {
		t.Fatal("subscriber should have been notified by login")
	}

	cancel()
	store.Logout(context.Background())

	countMu.Lock()
	defer countMu.Unlock()
	if count != seen {
		t.Errorf("canceled subscriber was notified again: %d -> %d", seen, count)
	}
}
