// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package api

import "github.com/upkeep-foundation/upkeep/lib/secret"

// AccountType distinguishes what a customer signed up to do on the
// platform. A customer can sponsor (COMPANY), receive sponsorship
// (MAINTAINER), or both.
type AccountType string

const (
	AccountTypeCompany    AccountType = "COMPANY"
	AccountTypeMaintainer AccountType = "MAINTAINER"
	AccountTypeBoth       AccountType = "BOTH"
)

// Role is the viewer's role within one company. It is scoped to a
// single membership, not a global attribute of the customer.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// InvitationStatus is the lifecycle state of a team invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationDeclined InvitationStatus = "DECLINED"
	InvitationExpired  InvitationStatus = "EXPIRED"
)

// AuthResponse is returned by Login, Register, and Me.
type AuthResponse struct {
	CustomerID  string      `json:"customerId"`
	Email       string      `json:"email"`
	AccountType AccountType `json:"accountType"`
}

// RegisterRequest holds parameters for creating a new account. The
// passwords live in mmap-backed buffers (locked against swap, excluded
// from core dumps); Register reads them but does not close them — the
// caller retains ownership.
type RegisterRequest struct {
	Email           string
	Password        *secret.Buffer
	ConfirmPassword *secret.Buffer
	AccountType     AccountType
}

// Company is a tenant workspace.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CompanyWithRole is a company annotated with the viewer's role in it.
type CompanyWithRole struct {
	Company
	Role Role `json:"role"`
}

// Membership links a customer to a company with a role.
type Membership struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// CreateCompanyRequest holds parameters for creating a company. Slug is
// optional; the server derives one from the name when empty.
type CreateCompanyRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// CompanyResponse is returned by CreateCompany. The creator's own
// membership (always OWNER) comes back inline.
type CompanyResponse struct {
	Company
	Membership Membership `json:"membership"`
}

// DashboardStats summarizes a company's setup progress.
type DashboardStats struct {
	TotalMembers   int  `json:"totalMembers"`
	HasBudget      bool `json:"hasBudget"`
	HasPackages    bool `json:"hasPackages"`
	HasAllocations bool `json:"hasAllocations"`
}

// CompanyDashboard is the read-mostly projection shown on the company
// dashboard. Fetched fresh whenever the selected workspace changes.
type CompanyDashboard struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Slug     string         `json:"slug"`
	UserRole Role           `json:"userRole"`
	Stats    DashboardStats `json:"stats"`
}

// BudgetSummary is a company's monthly budget. Exists=false is a valid
// non-error state meaning no budget has been configured yet — callers
// must distinguish it from a failed fetch. All amounts are integer
// minor-currency units; RemainingCents is always TotalCents minus
// AllocatedCents, derived server-side and never stored independently.
type BudgetSummary struct {
	BudgetID        string `json:"budgetId"`
	TotalCents      int64  `json:"totalCents"`
	AllocatedCents  int64  `json:"allocatedCents"`
	RemainingCents  int64  `json:"remainingCents"`
	Currency        string `json:"currency"`
	Exists          bool   `json:"exists"`
}

// BudgetRequest is the body for SetBudget and UpdateBudget.
type BudgetRequest struct {
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

// BudgetResult is returned by SetBudget.
type BudgetResult struct {
	BudgetID    string `json:"budgetId"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

// BudgetUpdateResult is returned by UpdateBudget. The server flags an
// update that lands below the company's already-committed allocations;
// the update still succeeds.
type BudgetUpdateResult struct {
	BudgetResult
	IsLowerThanAllocations  bool  `json:"isLowerThanAllocations"`
	CurrentAllocationsCents int64 `json:"currentAllocationsCents"`
}

// MemberInfo describes one member of a company.
type MemberInfo struct {
	MembershipID string `json:"membershipId"`
	CustomerID   string `json:"customerId"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	JoinedAt     string `json:"joinedAt"`
}

// InviteRequest is the body for inviting a customer to a company.
type InviteRequest struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// InvitationInfo describes an invitation from the inviting company's
// point of view.
type InvitationInfo struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	Role      Role             `json:"role"`
	Status    InvitationStatus `json:"status"`
	ExpiresAt string           `json:"expiresAt"`
}

// InvitationDetails describes an invitation from the invitee's point of
// view, looked up by token.
type InvitationDetails struct {
	ID          string           `json:"id"`
	CompanyName string           `json:"companyName"`
	Role        Role             `json:"role"`
	Status      InvitationStatus `json:"status"`
	IsExpired   bool             `json:"isExpired"`
	ExpiresAt   string           `json:"expiresAt"`
}

// AcceptInvitationResult is returned when an invitation is accepted.
type AcceptInvitationResult struct {
	CompanyID    string `json:"companyId"`
	CompanyName  string `json:"companyName"`
	CompanySlug  string `json:"companySlug"`
	MembershipID string `json:"membershipId"`
	Role         Role   `json:"role"`
}

// RoleChange is returned by UpdateMemberRole.
type RoleChange struct {
	MembershipID string `json:"membershipId"`
	PreviousRole Role   `json:"previousRole"`
	NewRole      Role   `json:"newRole"`
}
