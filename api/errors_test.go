// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := &Error{Kind: KindAPI, Code: "VALIDATION_ERROR", Message: "email is taken", StatusCode: 422}
		want := "api: VALIDATION_ERROR (422): email is taken"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("without status code", func(t *testing.T) {
		err := &Error{Kind: KindNetwork, Code: CodeNetworkError, Message: "unable to connect to the server"}
		want := "api: NETWORK_ERROR: unable to connect to the server"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNetwork, "NETWORK_ERROR"},
		{KindServer, "SERVER_ERROR"},
		{KindParse, "PARSE_ERROR"},
		{KindAPI, "API"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestIsCode(t *testing.T) {
	apiErr := &Error{Kind: KindAPI, Code: "BUDGET_TOO_LOW", Message: "below minimum"}
	wrapped := fmt.Errorf("updating budget: %w", apiErr)

	if !IsCode(wrapped, "BUDGET_TOO_LOW") {
		t.Error("IsCode should see through wrapping")
	}
	if IsCode(wrapped, "OTHER_CODE") {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(errors.New("plain"), "BUDGET_TOO_LOW") {
		t.Error("IsCode matched a non-API error")
	}
	if IsCode(nil, "BUDGET_TOO_LOW") {
		t.Error("IsCode matched nil")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindServer, Code: CodeServerError})

	if !IsKind(err, KindServer) {
		t.Error("IsKind should see through wrapping")
	}
	if IsKind(err, KindNetwork) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(errors.New("plain"), KindServer) {
		t.Error("IsKind matched a non-API error")
	}
}

func TestFieldMessage(t *testing.T) {
	err := &Error{
		Kind: KindAPI,
		Code: "VALIDATION_ERROR",
		Fields: []FieldError{
			{Field: "email", Message: "already registered"},
			{Field: "password", Message: "too short"},
		},
	}

	if got := FieldMessage(err, "email"); got != "already registered" {
		t.Errorf("FieldMessage(email) = %q", got)
	}
	if got := FieldMessage(err, "password"); got != "too short" {
		t.Errorf("FieldMessage(password) = %q", got)
	}
	if got := FieldMessage(err, "name"); got != "" {
		t.Errorf("FieldMessage for unknown field = %q, want empty", got)
	}
	if got := FieldMessage(errors.New("plain"), "email"); got != "" {
		t.Errorf("FieldMessage on non-API error = %q, want empty", got)
	}
}
