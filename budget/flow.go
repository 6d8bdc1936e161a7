// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/upkeep-foundation/upkeep/api"
)

// Flow drives budget mutations for one company. Its job beyond plain
// API calls is the reduction guard: an update that lowers the budget
// below its current total is held as pending until the caller confirms
// or cancels it, so a typo never silently shrinks next month's
// sponsorships.
//
// A Flow is safe for concurrent use, though in practice one user
// drives it at a time.
type Flow struct {
	client *api.Client
	logger *slog.Logger

	mu        sync.Mutex
	companyID string
	summary   *api.BudgetSummary
	pending   *api.BudgetRequest
}

// NewFlow creates a budget flow for the given company.
func NewFlow(client *api.Client, companyID string, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		client:    client,
		logger:    logger,
		companyID: companyID,
	}
}

// Load fetches the company's budget summary and remembers it as the
// baseline for the reduction guard. A company without a budget yields
// Exists=false, which is a valid state, not an error.
func (f *Flow) Load(ctx context.Context) (*api.BudgetSummary, error) {
	summary, err := f.client.Budget(ctx, f.companyID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.summary = summary
	f.mu.Unlock()

	return summary, nil
}

// Summary returns the last loaded budget summary, or ok=false when
// Load has not succeeded yet.
func (f *Flow) Summary() (api.BudgetSummary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.summary == nil {
		return api.BudgetSummary{}, false
	}
	return *f.summary, true
}

// Set creates the company's budget from a user-entered amount. Only
// valid when no budget exists yet; changing an existing budget goes
// through Update so the reduction guard applies.
func (f *Flow) Set(ctx context.Context, amount string, currency Currency) (*api.BudgetResult, error) {
	cents, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	if !currency.Valid() {
		return nil, fmt.Errorf("budget: unsupported currency %q", currency)
	}

	result, err := f.client.SetBudget(ctx, f.companyID, api.BudgetRequest{
		AmountCents: cents,
		Currency:    string(currency),
	})
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.adoptLocked(result.AmountCents, result.Currency)
	f.summary.BudgetID = result.BudgetID
	f.mu.Unlock()

	f.logger.Info("budget created",
		"company_id", f.companyID,
		"amount_cents", result.AmountCents,
		"currency", result.Currency,
	)
	return result, nil
}

// Update changes the existing budget. When the new amount is lower
// than the current total, nothing is sent: the request is held as
// pending and needsConfirm=true comes back, with result nil. The
// caller then either Confirms (sending the held request) or Cancels
// (dropping it, leaving the budget untouched).
//
// Equal or higher amounts, and currency-only changes, are sent
// immediately. Changing the currency does not convert the amount; the
// number the user typed is the number that is stored.
func (f *Flow) Update(ctx context.Context, amount string, currency Currency) (result *api.BudgetUpdateResult, needsConfirm bool, err error) {
	cents, err := ParseAmount(amount)
	if err != nil {
		return nil, false, err
	}
	if !currency.Valid() {
		return nil, false, fmt.Errorf("budget: unsupported currency %q", currency)
	}

	request := api.BudgetRequest{AmountCents: cents, Currency: string(currency)}

	f.mu.Lock()
	if f.summary != nil && f.summary.Exists && cents < f.summary.TotalCents {
		f.pending = &request
		f.mu.Unlock()
		return nil, true, nil
	}
	f.mu.Unlock()

	updated, err := f.send(ctx, request)
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}

// Pending returns the held reduction, or ok=false when none is held.
func (f *Flow) Pending() (api.BudgetRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pending == nil {
		return api.BudgetRequest{}, false
	}
	return *f.pending, true
}

// Confirm sends the held reduction. The hold is released whether or
// not the call succeeds; a failed confirm must be re-entered, not
// silently retried with stale numbers.
func (f *Flow) Confirm(ctx context.Context) (*api.BudgetUpdateResult, error) {
	f.mu.Lock()
	held := f.pending
	f.pending = nil
	f.mu.Unlock()

	if held == nil {
		return nil, fmt.Errorf("budget: no pending reduction to confirm")
	}
	return f.send(ctx, *held)
}

// Cancel drops the held reduction without sending anything.
func (f *Flow) Cancel() {
	f.mu.Lock()
	f.pending = nil
	f.mu.Unlock()
}

// send performs the PATCH and folds the result into the local summary.
func (f *Flow) send(ctx context.Context, request api.BudgetRequest) (*api.BudgetUpdateResult, error) {
	result, err := f.client.UpdateBudget(ctx, f.companyID, request)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.adoptLocked(result.AmountCents, result.Currency)
	f.summary.BudgetID = result.BudgetID
	f.mu.Unlock()

	if result.IsLowerThanAllocations {
		f.logger.Warn("budget set below committed allocations",
			"company_id", f.companyID,
			"amount_cents", result.AmountCents,
			"allocations_cents", result.CurrentAllocationsCents,
		)
	} else {
		f.logger.Info("budget updated",
			"company_id", f.companyID,
			"amount_cents", result.AmountCents,
			"currency", result.Currency,
		)
	}
	return result, nil
}

// adoptLocked folds a successful mutation into the cached summary.
// RemainingCents is recomputed locally only as a display hint; the
// server's derivation wins on the next Load. Callers hold f.mu.
func (f *Flow) adoptLocked(amountCents int64, currency string) {
	if f.summary == nil {
		f.summary = &api.BudgetSummary{}
	}
	f.summary.TotalCents = amountCents
	f.summary.Currency = currency
	f.summary.RemainingCents = f.summary.TotalCents - f.summary.AllocatedCents
	f.summary.Exists = true
}
