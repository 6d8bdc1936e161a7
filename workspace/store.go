// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package workspace tracks which of the customer's companies is
// active and keeps the dashboard projection for it. Selection survives
// process restarts; everything else is refetched.
//
// The invariants this package defends:
//
//   - There is at most one selected company, and it is always a member
//     of the fetched company list.
//   - A valid selection is never displaced by a refresh; only a
//     selection that vanished from the list falls back (stored
//     preference first, then the first company).
//   - Switching companies invalidates the dashboard synchronously, so
//     no frame observes company B with company A's numbers.
//   - A dashboard response that arrives after the selection moved on
//     is discarded, not applied.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/upkeep-foundation/upkeep/api"
	"github.com/upkeep-foundation/upkeep/lib/statestore"
	"github.com/upkeep-foundation/upkeep/session"
)

// Snapshot is an immutable view of the workspace state at one moment.
type Snapshot struct {
	// Companies is the customer's company list, in server order.
	Companies []api.CompanyWithRole
	// CurrentID is the selected company's id, or "" when none.
	CurrentID string
	// Dashboard is the projection for the selected company, nil while
	// unloaded or invalidated.
	Dashboard *api.CompanyDashboard
}

// Current returns the selected company, or ok=false when none.
func (s Snapshot) Current() (api.CompanyWithRole, bool) {
	for _, company := range s.Companies {
		if company.ID == s.CurrentID {
			return company, true
		}
	}
	return api.CompanyWithRole{}, false
}

// companySelection is the persisted shape of the selection slot.
type companySelection struct {
	CompanyID string `json:"companyId"`
}

// Config holds dependencies for creating a Store.
type Config struct {
	// Client performs the company API calls. Required.
	Client *api.Client
	// State persists the selected company across runs. If nil, the
	// selection is process-local.
	State *statestore.Store
	// Session, when set, is observed so a sign-out clears the
	// workspace, and consulted so company refreshes are skipped while
	// signed out. Refreshing after sign-in stays the caller's job
	// because it needs a context.
	Session *session.Store
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// Store holds the company list, the selection, and the dashboard.
// Safe for concurrent use.
type Store struct {
	client  *api.Client
	state   *statestore.Store
	session *session.Store
	logger  *slog.Logger

	mu            sync.Mutex
	companies     []api.CompanyWithRole
	currentID     string
	dashboard     *api.CompanyDashboard
	subscribers   map[int]func(Snapshot)
	nextSubID     int
	sessionCancel func()
}

// NewStore creates a workspace store. When Config.Session is set, the
// store resets itself whenever the session goes anonymous.
func NewStore(config Config) *Store {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{
		client:      config.Client,
		state:       config.State,
		session:     config.Session,
		logger:      logger,
		subscribers: make(map[int]func(Snapshot)),
	}
	if config.Session != nil {
		store.sessionCancel = config.Session.Subscribe(func(snapshot session.Snapshot) {
			if snapshot.Status == session.StatusAnonymous {
				store.Reset()
			}
		})
	}
	return store
}

// Close detaches the store from the session.
func (s *Store) Close() {
	if s.sessionCancel != nil {
		s.sessionCancel()
	}
}

// Snapshot returns the current workspace state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	companies := make([]api.CompanyWithRole, len(s.companies))
	copy(companies, s.companies)

	var dashboard *api.CompanyDashboard
	if s.dashboard != nil {
		copied := *s.dashboard
		dashboard = &copied
	}
	return Snapshot{Companies: companies, CurrentID: s.currentID, Dashboard: dashboard}
}

// Subscribe registers a callback invoked after every state change.
// Callbacks run synchronously; keep them cheap. The returned function
// removes the subscription.
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

// RefreshCompanies refetches the company list and reconciles the
// selection: a still-valid current selection is kept untouched, an
// invalid or empty one falls back to the persisted preference when
// that company is in the list, otherwise to the first company, and to
// nothing when the list is empty. The dashboard is invalidated only
// when the selection actually moves.
//
// When a session store is attached and the session is not
// authenticated, the refresh is a no-op returning no companies: the
// request would only 401, and the next sign-in refreshes anyway.
func (s *Store) RefreshCompanies(ctx context.Context) ([]api.CompanyWithRole, error) {
	if s.session != nil && s.session.Snapshot().Status != session.StatusAuthenticated {
		s.logger.Debug("skipping company refresh, not signed in")
		return nil, nil
	}

	companies, err := s.client.Companies(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.companies = companies

	previous := s.currentID
	s.currentID = s.reconcileLocked()
	if s.currentID != previous {
		s.dashboard = nil
		s.persistSelectionLocked()
	}
	s.mu.Unlock()
	s.notify()

	return companies, nil
}

// reconcileLocked picks the selection for the current company list.
// Callers hold s.mu.
func (s *Store) reconcileLocked() string {
	if len(s.companies) == 0 {
		return ""
	}
	if s.containsLocked(s.currentID) {
		return s.currentID
	}
	if stored := s.storedSelection(); s.containsLocked(stored) {
		return stored
	}
	return s.companies[0].ID
}

func (s *Store) containsLocked(companyID string) bool {
	if companyID == "" {
		return false
	}
	for _, company := range s.companies {
		if company.ID == companyID {
			return true
		}
	}
	return false
}

// SetCurrentCompany switches the selection. The dashboard is cleared
// in the same critical section as the id change, so no observer ever
// sees the new company paired with the old company's dashboard.
// Switching to the already-selected company is a no-op.
func (s *Store) SetCurrentCompany(companyID string) error {
	s.mu.Lock()
	if companyID == s.currentID {
		s.mu.Unlock()
		return nil
	}
	if !s.containsLocked(companyID) {
		s.mu.Unlock()
		return fmt.Errorf("workspace: company %q is not in the current list", companyID)
	}

	s.currentID = companyID
	s.dashboard = nil
	s.persistSelectionLocked()
	s.mu.Unlock()
	s.notify()

	s.logger.Info("switched company", "company_id", companyID)
	return nil
}

// RefreshDashboard fetches the dashboard for the selected company. The
// company id is captured before the request goes out; if the selection
// has moved by the time the response lands, the result is discarded so
// a slow fetch for the old company can never clobber the new one.
func (s *Store) RefreshDashboard(ctx context.Context) (*api.CompanyDashboard, error) {
	s.mu.Lock()
	requestedID := s.currentID
	s.mu.Unlock()

	if requestedID == "" {
		return nil, fmt.Errorf("workspace: no company selected")
	}

	dashboard, err := s.client.Dashboard(ctx, requestedID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.currentID != requestedID {
		s.mu.Unlock()
		s.logger.Debug("discarding stale dashboard", "company_id", requestedID)
		return nil, nil
	}
	s.dashboard = dashboard
	s.mu.Unlock()
	s.notify()

	return dashboard, nil
}

// CreateCompany creates a company and refreshes the list. The new
// company is not force-selected: selection follows the usual
// reconciliation, so an existing valid selection stays put and the new
// company becomes current only when there was nothing selected before.
func (s *Store) CreateCompany(ctx context.Context, request api.CreateCompanyRequest) (*api.CompanyResponse, error) {
	created, err := s.client.CreateCompany(ctx, request)
	if err != nil {
		return nil, err
	}
	if _, err := s.RefreshCompanies(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// Members lists the selected company's members.
func (s *Store) Members(ctx context.Context) ([]api.MemberInfo, error) {
	companyID, err := s.requireSelection()
	if err != nil {
		return nil, err
	}
	return s.client.Members(ctx, companyID)
}

// InviteMember invites a customer to the selected company.
func (s *Store) InviteMember(ctx context.Context, email string, role api.Role) (*api.InvitationInfo, error) {
	companyID, err := s.requireSelection()
	if err != nil {
		return nil, err
	}
	return s.client.InviteMember(ctx, companyID, api.InviteRequest{Email: email, Role: role})
}

// UpdateMemberRole changes a member's role in the selected company.
func (s *Store) UpdateMemberRole(ctx context.Context, membershipID string, role api.Role) (*api.RoleChange, error) {
	companyID, err := s.requireSelection()
	if err != nil {
		return nil, err
	}
	return s.client.UpdateMemberRole(ctx, companyID, membershipID, role)
}

// InvitationDetails looks up an invitation by token. Needs no
// selection and no session; invitees check invitations before they
// have either.
func (s *Store) InvitationDetails(ctx context.Context, token string) (*api.InvitationDetails, error) {
	return s.client.InvitationDetails(ctx, token)
}

// AcceptInvitation accepts an invitation by token and refreshes the
// company list so the new membership shows up immediately.
func (s *Store) AcceptInvitation(ctx context.Context, token string) (*api.AcceptInvitationResult, error) {
	result, err := s.client.AcceptInvitation(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, err := s.RefreshCompanies(ctx); err != nil {
		s.logger.Warn("company list refresh after accepting invitation failed", "error", err)
	}
	return result, nil
}

// Reset drops all workspace state. Called when the session ends; the
// persisted selection is kept so the same customer finds their company
// selected again after the next sign-in (a different customer's
// selection reconciles away because the stored id won't be in their
// list).
func (s *Store) Reset() {
	s.mu.Lock()
	s.companies = nil
	s.currentID = ""
	s.dashboard = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Store) requireSelection() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentID == "" {
		return "", fmt.Errorf("workspace: no company selected")
	}
	return s.currentID, nil
}

// persistSelectionLocked mirrors the selection to disk. Callers hold
// s.mu.
func (s *Store) persistSelectionLocked() {
	if s.state == nil {
		return
	}
	if s.currentID == "" {
		if err := s.state.Delete(statestore.CompanySlot); err != nil {
			s.logger.Warn("failed to clear company selection", "error", err)
		}
		return
	}
	if err := s.state.Save(statestore.CompanySlot, companySelection{CompanyID: s.currentID}); err != nil {
		s.logger.Warn("failed to persist company selection", "error", err)
	}
}

// storedSelection loads the persisted selection, or "".
func (s *Store) storedSelection() string {
	if s.state == nil {
		return ""
	}
	var selection companySelection
	found, err := s.state.Load(statestore.CompanySlot, &selection)
	if err != nil {
		s.logger.Warn("stored company selection unreadable", "error", err)
		return ""
	}
	if !found {
		return ""
	}
	return selection.CompanyID
}
