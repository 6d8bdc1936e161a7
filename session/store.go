// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package session owns the authentication state of the Upkeep client:
// who is signed in, whether that is known yet, and the background
// renewal that keeps the server-side session alive.
//
// The session itself lives in HTTP cookies managed by the API client's
// jar; this package tracks the identity behind those cookies and
// reacts when they stop working. State transitions are pushed to
// subscribers so the UI can re-render without polling.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/upkeep-foundation/upkeep/api"
	"github.com/upkeep-foundation/upkeep/lib/secret"
	"github.com/upkeep-foundation/upkeep/lib/statestore"
)

// Status is the authentication state of the client.
type Status int

const (
	// StatusUninitialized means Init has not run yet. Nothing that
	// depends on authentication should render or navigate.
	StatusUninitialized Status = iota

	// StatusLoading means Init is resolving a possibly-restored
	// session. Like StatusUninitialized, callers wait.
	StatusLoading

	// StatusAuthenticated means a verified identity is present and
	// background renewal is running.
	StatusAuthenticated

	// StatusAnonymous means there is no session. Protected surfaces
	// redirect to login.
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the session state at one moment.
type Snapshot struct {
	Status   Status
	Identity *api.AuthResponse
}

// Config holds dependencies for creating a Store.
type Config struct {
	// Client performs the auth API calls. Required.
	Client *api.Client
	// State persists the cached identity across process runs. If nil,
	// the store runs without persistence (tests).
	State *statestore.Store
	// RenewEvery is the interval between background session renewals.
	// Zero means the default of thirteen minutes, chosen against the
	// server's fifteen-minute session window.
	RenewEvery time.Duration
	// RenewTimeout bounds each background renewal call. Zero means 30s.
	RenewTimeout time.Duration
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// Store tracks the authenticated identity and drives background
// renewal. Safe for concurrent use.
type Store struct {
	client       *api.Client
	state        *statestore.Store
	logger       *slog.Logger
	renewEvery   time.Duration
	renewTimeout time.Duration

	mu          sync.Mutex
	status      Status
	identity    *api.AuthResponse
	renewStop   chan struct{}
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewStore creates a session store. The store starts uninitialized;
// call Init to resolve any restored session before rendering anything
// that depends on authentication.
func NewStore(config Config) *Store {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	renewEvery := config.RenewEvery
	if renewEvery <= 0 {
		renewEvery = 13 * time.Minute
	}
	renewTimeout := config.RenewTimeout
	if renewTimeout <= 0 {
		renewTimeout = 30 * time.Second
	}
	return &Store{
		client:       config.Client,
		state:        config.State,
		logger:       logger,
		renewEvery:   renewEvery,
		renewTimeout: renewTimeout,
		status:       StatusUninitialized,
		subscribers:  make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	var identity *api.AuthResponse
	if s.identity != nil {
		copied := *s.identity
		identity = &copied
	}
	return Snapshot{Status: s.status, Identity: identity}
}

// Subscribe registers a callback invoked after every state change.
// Callbacks run synchronously on the goroutine that caused the change;
// keep them cheap. The returned function removes the subscription.
func (s *Store) Subscribe(callback func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = callback
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// notify pushes the current snapshot to all subscribers, outside the
// lock so callbacks can call back into the store.
func (s *Store) notify() {
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	callbacks := make([]func(Snapshot), 0, len(s.subscribers))
	for _, callback := range s.subscribers {
		callbacks = append(callbacks, callback)
	}
	s.mu.Unlock()

	for _, callback := range callbacks {
		callback(snapshot)
	}
}

// Init resolves the session on startup. It asks the server who the
// current cookies belong to; when that fails but a cached identity
// exists from a previous run, it attempts one token refresh before
// giving up. Only after both fail is the local state cleared and the
// client anonymous.
//
// Renewal is armed only once Init settles on an authenticated state,
// never while restoration is still in flight.
func (s *Store) Init(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.status = StatusLoading
	s.mu.Unlock()
	s.notify()

	identity, err := s.client.Me(ctx)
	if err == nil {
		s.adopt(identity)
		return s.Snapshot()
	}
	s.logger.Debug("session probe failed", "error", err)

	cached := s.cachedIdentity()
	if cached != nil {
		if refreshErr := s.client.Refresh(ctx); refreshErr == nil {
			s.logger.Info("session restored via refresh", "customer_id", cached.CustomerID)
			s.adopt(cached)
			return s.Snapshot()
		}
	}

	s.clearLocal()
	s.setAnonymous()
	return s.Snapshot()
}

// Login authenticates with email and password. The password buffer is
// read but not closed; the caller retains ownership.
func (s *Store) Login(ctx context.Context, email string, password *secret.Buffer) (*api.AuthResponse, error) {
	identity, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.adopt(identity)
	return identity, nil
}

// Register creates an account. The server signs the new account in as
// part of registration, so a successful register is also a login.
func (s *Store) Register(ctx context.Context, request api.RegisterRequest) (*api.AuthResponse, error) {
	identity, err := s.client.Register(ctx, request)
	if err != nil {
		return nil, err
	}
	s.adopt(identity)
	return identity, nil
}

// Logout ends the session. The local state is cleared unconditionally:
// even when the server-side invalidation call fails (network down,
// server error), this client is signed out. The server's session
// expires on its own within the session window.
func (s *Store) Logout(ctx context.Context) {
	if err := s.client.Logout(ctx); err != nil {
		s.logger.Warn("server-side logout failed, clearing local session anyway", "error", err)
	}
	s.clearLocal()
	s.setAnonymous()
}

// Close stops background renewal. The session itself is untouched; a
// later process restores it from the cookie jar.
func (s *Store) Close() {
	s.mu.Lock()
	s.stopRenewalLocked()
	s.mu.Unlock()
}

// adopt installs a verified identity: persists it for the next run,
// flips to authenticated, and arms renewal.
func (s *Store) adopt(identity *api.AuthResponse) {
	if s.state != nil {
		if err := s.state.Save(statestore.IdentitySlot, identity); err != nil {
			s.logger.Warn("failed to cache identity", "error", err)
		}
	}

	s.mu.Lock()
	s.status = StatusAuthenticated
	copied := *identity
	s.identity = &copied
	s.startRenewalLocked()
	s.mu.Unlock()
	s.notify()
}

// setAnonymous flips to anonymous and disarms renewal.
func (s *Store) setAnonymous() {
	s.mu.Lock()
	s.status = StatusAnonymous
	s.identity = nil
	s.stopRenewalLocked()
	s.mu.Unlock()
	s.notify()
}

// clearLocal wipes everything that could resurrect the session: the
// cookie jar and the cached identity.
func (s *Store) clearLocal() {
	s.client.Jar().Clear()
	if s.state != nil {
		if err := s.state.Delete(statestore.IdentitySlot); err != nil {
			s.logger.Warn("failed to clear cached identity", "error", err)
		}
	}
}

// cachedIdentity loads the identity persisted by a previous run, or
// nil when there is none.
func (s *Store) cachedIdentity() *api.AuthResponse {
	if s.state == nil {
		return nil
	}
	var identity api.AuthResponse
	found, err := s.state.Load(statestore.IdentitySlot, &identity)
	if err != nil {
		s.logger.Warn("cached identity unreadable", "error", err)
		return nil
	}
	if !found {
		return nil
	}
	return &identity
}

// startRenewalLocked arms the renewal ticker. A second call while a
// ticker is already running is a no-op, so re-login never stacks
// tickers. Callers hold s.mu.
func (s *Store) startRenewalLocked() {
	if s.renewStop != nil {
		return
	}
	stop := make(chan struct{})
	s.renewStop = stop
	go s.renewLoop(stop)
}

// stopRenewalLocked disarms the renewal ticker. Callers hold s.mu.
func (s *Store) stopRenewalLocked() {
	if s.renewStop == nil {
		return
	}
	close(s.renewStop)
	s.renewStop = nil
}

// renewLoop refreshes the server-side session on every tick. A single
// failed renewal demotes the session: by the time the next tick would
// fire, the fifteen-minute window may already have closed, so limping
// along authenticated would show the user an interface whose every
// request is about to 401.
func (s *Store) renewLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.renewTimeout)
			err := s.client.Refresh(ctx)
			cancel()
			if err != nil {
				s.logger.Warn("session renewal failed, signing out", "error", err)
				s.demote()
				return
			}
			s.logger.Debug("session renewed")
		}
	}
}

// demote drops an authenticated session that can no longer be renewed.
func (s *Store) demote() {
	s.clearLocal()
	s.setAnonymous()
}
