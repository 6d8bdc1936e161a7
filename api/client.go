// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/upkeep-foundation/upkeep/lib/netutil"
	"github.com/upkeep-foundation/upkeep/lib/secret"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the base URL of the Upkeep API (e.g., "http://localhost:8080").
	BaseURL string
	// HTTPClient is used for all requests. If nil, a fresh http.Client
	// is created. The client's cookie jar is replaced by Jar.
	HTTPClient *http.Client
	// Jar holds the session cookies. If nil, an in-memory Jar is
	// created; pass a persistent jar (NewPersistentJar) to carry the
	// session across process restarts.
	Jar *Jar
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client talks to the Upkeep API. It is safe for concurrent use and is
// shared by the session store, the workspace store, and the budget flow.
type Client struct {
	baseURL    string
	httpClient *http.Client
	jar        *Jar
	logger     *slog.Logger
}

// envelope is the uniform wire wrapper for every Upkeep response.
// Exactly one of Data/Err is populated.
type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta json.RawMessage `json:"meta"`
	Err  *envelopeError  `json:"error"`
}

type envelopeError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details"`
	Fields  []FieldError `json:"fields"`
}

// NewClient creates a new Upkeep API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	jar := config.Jar
	if jar == nil {
		jar = NewJar("")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	httpClient.Jar = jar

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		jar:        jar,
		logger:     logger,
	}, nil
}

// Jar returns the client's cookie jar. The CLI flushes it to disk after
// commands that change authentication state.
func (c *Client) Jar() *Jar {
	return c.jar
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool. Call after a network disruption to force
// fresh TCP connections instead of reusing a poisoned pooled one.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// do performs an HTTP request and unwraps the response envelope.
// On success it returns the raw data payload for the caller to
// unmarshal. Every failure is a *Error: transport problems are
// KindNetwork, 5xx without a well-formed envelope KindServer, bodies
// that don't parse as the envelope KindParse, and populated envelope
// errors KindAPI with the server's code carried verbatim.
//
// No retries and no client-imposed timeout: retry policy belongs to
// callers, timeouts to the transport and the request context.
func (c *Client) do(ctx context.Context, method, path string, requestBody any) (json.RawMessage, error) {
	var bodyReader *bytes.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("api: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := newRequest(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("api: failed to create request: %w", err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, &Error{
			Kind:    KindNetwork,
			Code:    CodeNetworkError,
			Message: "unable to connect to the server",
			Details: err.Error(),
		}
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, &Error{
			Kind:       KindNetwork,
			Code:       CodeNetworkError,
			Message:    "connection lost while reading the response",
			Details:    err.Error(),
			StatusCode: response.StatusCode,
		}
	}

	var wrapped envelope
	parseErr := json.Unmarshal(responseBody, &wrapped)

	// A well-formed envelope error wins over status-based
	// classification: the server's own code and field messages are
	// strictly more useful than "SERVER_ERROR".
	if parseErr == nil && wrapped.Err != nil {
		return nil, &Error{
			Kind:       KindAPI,
			Code:       wrapped.Err.Code,
			Message:    wrapped.Err.Message,
			Details:    wrapped.Err.Details,
			Fields:     wrapped.Err.Fields,
			StatusCode: response.StatusCode,
		}
	}

	if response.StatusCode >= 500 {
		return nil, &Error{
			Kind:       KindServer,
			Code:       CodeServerError,
			Message:    "the server encountered an error",
			Details:    fmt.Sprintf("HTTP %s from %s %s", response.Status, method, path),
			StatusCode: response.StatusCode,
		}
	}

	if parseErr != nil {
		return nil, &Error{
			Kind:       KindParse,
			Code:       CodeParseError,
			Message:    "received an invalid response from the server",
			Details:    fmt.Sprintf("expected JSON envelope, got %q", response.Header.Get("Content-Type")),
			StatusCode: response.StatusCode,
		}
	}

	return wrapped.Data, nil
}

// newRequest builds the request with the JSON content type. A nil-able
// *bytes.Reader can't be passed to http.NewRequestWithContext directly
// (a typed nil is not an untyped nil body), hence the split.
func newRequest(ctx context.Context, method, requestURL string, body *bytes.Reader) (*http.Request, error) {
	if body == nil {
		return http.NewRequestWithContext(ctx, method, requestURL, nil)
	}
	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	return request, nil
}

// decode unmarshals an envelope data payload into v, mapping failures
// to KindParse so callers keep a single error taxonomy.
func decode(data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{
			Kind:    KindParse,
			Code:    CodeParseError,
			Message: "received an invalid response from the server",
			Details: err.Error(),
		}
	}
	return nil
}

// Login exchanges credentials for a server-side session. The session
// cookie lands in the jar; the returned identity is what the session
// store adopts. The password buffer is read but not closed — the caller
// retains ownership.
func (c *Client) Login(ctx context.Context, email string, password *secret.Buffer) (*AuthResponse, error) {
	if email == "" {
		return nil, fmt.Errorf("api: email is required for login")
	}
	if password == nil {
		return nil, fmt.Errorf("api: password is required for login")
	}

	// The password is converted to string at the JSON serialization
	// boundary. The heap copy is short-lived — it exists only for the
	// duration of the HTTP call.
	data, err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password.String(),
	})
	if err != nil {
		return nil, err
	}

	var response AuthResponse
	if err := decode(data, &response); err != nil {
		return nil, err
	}

	c.logger.Info("logged in to upkeep",
		"customer_id", response.CustomerID,
		"account_type", response.AccountType,
	)
	return &response, nil
}

// Register creates a new account. Like Login, the server establishes a
// session for the new account via cookies.
func (c *Client) Register(ctx context.Context, request RegisterRequest) (*AuthResponse, error) {
	if request.Email == "" {
		return nil, fmt.Errorf("api: email is required for registration")
	}
	if request.Password == nil || request.ConfirmPassword == nil {
		return nil, fmt.Errorf("api: password and confirmation are required for registration")
	}

	data, err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]any{
		"email":           request.Email,
		"password":        request.Password.String(),
		"confirmPassword": request.ConfirmPassword.String(),
		"accountType":     request.AccountType,
	})
	if err != nil {
		return nil, err
	}

	var response AuthResponse
	if err := decode(data, &response); err != nil {
		return nil, err
	}

	c.logger.Info("registered upkeep account",
		"customer_id", response.CustomerID,
		"account_type", response.AccountType,
	)
	return &response, nil
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("api: logout failed: %w", err)
	}
	return nil
}

// Refresh renews the server-side session before it expires. The
// refreshed cookie lands in the jar; there is no response payload.
func (c *Client) Refresh(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil)
	if err != nil {
		return fmt.Errorf("api: session refresh failed: %w", err)
	}
	return nil
}

// Me resolves the identity behind the current session cookie. Useful
// for validating a restored session on startup.
func (c *Client) Me(ctx context.Context) (*AuthResponse, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var response AuthResponse
	if err := decode(data, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// CreateCompany creates a company workspace. The creator becomes its
// OWNER; the membership comes back inline.
func (c *Client) CreateCompany(ctx context.Context, request CreateCompanyRequest) (*CompanyResponse, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/companies", request)
	if err != nil {
		return nil, err
	}

	var response CompanyResponse
	if err := decode(data, &response); err != nil {
		return nil, err
	}

	c.logger.Info("created company",
		"company_id", response.ID,
		"slug", response.Slug,
	)
	return &response, nil
}

// Companies returns the companies the current session belongs to, each
// annotated with the viewer's role.
func (c *Client) Companies(ctx context.Context) ([]CompanyWithRole, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/companies", nil)
	if err != nil {
		return nil, err
	}
	var companies []CompanyWithRole
	if err := decode(data, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// Dashboard fetches the dashboard projection for a company.
func (c *Client) Dashboard(ctx context.Context, companyID string) (*CompanyDashboard, error) {
	path := "/api/companies/" + url.PathEscape(companyID) + "/dashboard"
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var dashboard CompanyDashboard
	if err := decode(data, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// Budget fetches a company's budget summary. A company with no budget
// configured yet returns Exists=false, which is not an error.
func (c *Client) Budget(ctx context.Context, companyID string) (*BudgetSummary, error) {
	path := "/api/companies/" + url.PathEscape(companyID) + "/budget"
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var summary BudgetSummary
	if err := decode(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SetBudget creates a company's monthly budget.
func (c *Client) SetBudget(ctx context.Context, companyID string, request BudgetRequest) (*BudgetResult, error) {
	path := "/api/companies/" + url.PathEscape(companyID) + "/budget"
	data, err := c.do(ctx, http.MethodPost, path, request)
	if err != nil {
		return nil, err
	}
	var result BudgetResult
	if err := decode(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateBudget changes an existing budget. The server reports whether
// the new amount fell below already-committed allocations.
func (c *Client) UpdateBudget(ctx context.Context, companyID string, request BudgetRequest) (*BudgetUpdateResult, error) {
	path := "/api/companies/" + url.PathEscape(companyID) + "/budget"
	data, err := c.do(ctx, http.MethodPatch, path, request)
	if err != nil {
		return nil, err
	}
	var result BudgetUpdateResult
	if err := decode(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Members lists a company's members.
func (c *Client) Members(ctx context.Context, companyID string) ([]MemberInfo, error) {
	path := "/api/companies/" + url.PathEscape(companyID) + "/members"
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var members []MemberInfo
	if err := decode(data, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// InviteMember invites a customer to join a company by email.
func (c *Client) InviteMember(ctx context.Context, companyID string, request InviteRequest) (*InvitationInfo, error) {
	path := "/api/companies/" + url.PathEscape(companyID) + "/invitations"
	data, err := c.do(ctx, http.MethodPost, path, request)
	if err != nil {
		return nil, err
	}
	var invitation InvitationInfo
	if err := decode(data, &invitation); err != nil {
		return nil, err
	}

	c.logger.Info("invited member",
		"company_id", companyID,
		"role", invitation.Role,
	)
	return &invitation, nil
}

// UpdateMemberRole changes an existing member's role in a company.
func (c *Client) UpdateMemberRole(ctx context.Context, companyID, membershipID string, role Role) (*RoleChange, error) {
	path := "/api/companies/" + url.PathEscape(companyID) + "/members/" + url.PathEscape(membershipID)
	data, err := c.do(ctx, http.MethodPatch, path, map[string]Role{"role": role})
	if err != nil {
		return nil, err
	}
	var change RoleChange
	if err := decode(data, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

// InvitationDetails looks up an invitation by its token, from the
// invitee's point of view. Works without an authenticated session.
func (c *Client) InvitationDetails(ctx context.Context, token string) (*InvitationDetails, error) {
	path := "/api/invitations/" + url.PathEscape(token)
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var details InvitationDetails
	if err := decode(data, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// AcceptInvitation accepts an invitation on behalf of the current
// session's account.
func (c *Client) AcceptInvitation(ctx context.Context, token string) (*AcceptInvitationResult, error) {
	path := "/api/invitations/" + url.PathEscape(token) + "/accept"
	data, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}
	var result AcceptInvitationResult
	if err := decode(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
