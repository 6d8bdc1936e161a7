// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

// Kind discriminates the failure classes of an API call. Callers switch
// on Kind exhaustively; only KindAPI carries a server-declared business
// code worth inspecting further.
type Kind int

const (
	// KindNetwork means the request never reached the server
	// (DNS failure, refused connection, timeout). The low-level cause
	// is in Details. Never retried by this layer.
	KindNetwork Kind = iota

	// KindServer means the server answered with a 5xx status and no
	// well-formed error envelope.
	KindServer

	// KindParse means the response body was not parseable as the
	// expected envelope.
	KindParse

	// KindAPI means the server returned a well-formed envelope with an
	// error object. Code, Message, Details, and Fields carry the
	// server's values verbatim.
	KindAPI
)

// String returns the wire-level code for synthetic kinds and "API" for
// server-declared errors (whose real code lives in Error.Code).
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return CodeNetworkError
	case KindServer:
		return CodeServerError
	case KindParse:
		return CodeParseError
	default:
		return "API"
	}
}

// Synthetic error codes produced by the client itself. Server-declared
// business codes (validation failures etc.) arrive verbatim in
// Error.Code and are not enumerated here.
const (
	CodeNetworkError = "NETWORK_ERROR"
	CodeServerError  = "SERVER_ERROR"
	CodeParseError   = "PARSE_ERROR"
)

// FieldError is a per-field validation message from the server,
// suitable for attaching to the originating form input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed failure of an Upkeep API call. Extract it with
// errors.As:
//
//	var apiErr *api.Error
//	if errors.As(err, &apiErr) {
//	    switch apiErr.Kind { ... }
//	}
type Error struct {
	// Kind classifies the failure; see the Kind constants.
	Kind Kind
	// Code is the error code: a synthetic code for client-side kinds,
	// or the server's business code for KindAPI.
	Code string
	// Message is the human-readable description.
	Message string
	// Details carries optional diagnostic detail (transport cause,
	// HTTP status line, content type).
	Details string
	// Fields holds per-field validation messages, when the server
	// provided them.
	Fields []FieldError
	// StatusCode is the HTTP status of the response, zero when the
	// request never completed.
	StatusCode int
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("api: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Code, e.Message)
}

// AsError extracts the *Error from err's chain, if any.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code string) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// FieldMessage returns the validation message for a named field, or ""
// when err carries no message for it. Forms use this to attach errors
// to the originating input.
func FieldMessage(err error, field string) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return ""
	}
	for _, fieldError := range apiErr.Fields {
		if fieldError.Field == field {
			return fieldError.Message
		}
	}
	return ""
}
