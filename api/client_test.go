// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/upkeep-foundation/upkeep/lib/secret"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func testPassword(t *testing.T) *secret.Buffer {
	t.Helper()
	password, err := secret.NewFromString("hunter2")
	if err != nil {
		t.Fatalf("NewFromString failed: %v", err)
	}
	t.Cleanup(func() { password.Close() })
	return password
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatal("expected error for missing BaseURL")
	}
}

func TestDo_UnwrapsEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"data":{"customerId":"cust-1","email":"owner@acme.test","accountType":"BOTH"},"meta":{"requestId":"r-1"}}`)
	}))

	identity, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if identity.CustomerID != "cust-1" || identity.AccountType != AccountTypeBoth {
		t.Errorf("unexpected identity: %+v", identity)
	}
}

func TestDo_EnvelopeErrorBecomesAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":{"code":"VALIDATION_ERROR","message":"invalid input","fields":[{"field":"email","message":"already registered"}]}}`)
	}))

	_, err := client.Register(context.Background(), RegisterRequest{
		Email:           "owner@acme.test",
		Password:        testPassword(t),
		ConfirmPassword: testPassword(t),
		AccountType:     AccountTypeCompany,
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if apiErr.Kind != KindAPI {
		t.Errorf("Kind = %v, want KindAPI", apiErr.Kind)
	}
	// The server's code travels verbatim, never remapped.
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want 422", apiErr.StatusCode)
	}
	if got := FieldMessage(err, "email"); got != "already registered" {
		t.Errorf("FieldMessage(email) = %q", got)
	}
}

func TestDo_BareServerErrorBecomesServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}))

	_, err := client.Me(context.Background())
	if !IsKind(err, KindServer) {
		t.Fatalf("expected KindServer, got %v", err)
	}
	if !IsCode(err, CodeServerError) {
		t.Errorf("expected SERVER_ERROR code, got %v", err)
	}
}

func TestDo_EnvelopeErrorWinsOverStatus(t *testing.T) {
	// A 500 that still carries a well-formed envelope error keeps the
	// server's own code; the status alone doesn't decide.
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"code":"BUDGET_LOCKED","message":"budget is being recalculated"}}`)
	}))

	_, err := client.Me(context.Background())
	if !IsKind(err, KindAPI) {
		t.Fatalf("expected KindAPI, got %v", err)
	}
	if !IsCode(err, "BUDGET_LOCKED") {
		t.Errorf("expected BUDGET_LOCKED carried verbatim, got %v", err)
	}
}

func TestDo_NonJSONBecomesParseError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body>login page</body></html>")
	}))

	_, err := client.Me(context.Background())
	if !IsKind(err, KindParse) {
		t.Fatalf("expected KindParse, got %v", err)
	}
}

func TestDo_ConnectionFailureBecomesNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	server.Close()

	_, err = client.Me(context.Background())
	if !IsKind(err, KindNetwork) {
		t.Fatalf("expected KindNetwork, got %v", err)
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Details == "" {
		t.Error("network errors should carry the transport cause in Details")
	}
}

func TestLogin_CarriesCookiesToLaterRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "upkeep_session", Value: "sess-token", Path: "/", HttpOnly: true})
		fmt.Fprint(w, `{"data":{"customerId":"cust-1","email":"owner@acme.test","accountType":"COMPANY"}}`)
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("upkeep_session")
		if err != nil || cookie.Value != "sess-token" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"code":"UNAUTHORIZED","message":"no session"}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"customerId":"cust-1","email":"owner@acme.test","accountType":"COMPANY"}}`)
	})
	client := newTestClient(t, mux)

	if _, err := client.Login(context.Background(), "owner@acme.test", testPassword(t)); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("Me after login failed, session cookie not carried: %v", err)
	}
}

func TestLogin_ValidatesInput(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server")
	}))

	if _, err := client.Login(context.Background(), "", testPassword(t)); err == nil {
		t.Error("expected error for empty email")
	}
	if _, err := client.Login(context.Background(), "owner@acme.test", nil); err == nil {
		t.Error("expected error for nil password")
	}
}

func TestUpdateBudget_UsesPatch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		fmt.Fprint(w, `{"data":{"budgetId":"bud-1","amountCents":50000,"currency":"EUR","isLowerThanAllocations":true,"currentAllocationsCents":75000}}`)
	}))

	result, err := client.UpdateBudget(context.Background(), "comp-1", BudgetRequest{AmountCents: 50000, Currency: "EUR"})
	if err != nil {
		t.Fatalf("UpdateBudget failed: %v", err)
	}
	if !result.IsLowerThanAllocations || result.CurrentAllocationsCents != 75000 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestCompanyPathsEscapeIDs(t *testing.T) {
	var seenPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.EscapedPath()
		fmt.Fprint(w, `{"data":{"id":"weird/id","name":"X","slug":"x","userRole":"OWNER","stats":{}}}`)
	}))

	if _, err := client.Dashboard(context.Background(), "weird/id"); err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if seenPath != "/api/companies/weird%2Fid/dashboard" {
		t.Errorf("path = %q, company id not escaped", seenPath)
	}
}
