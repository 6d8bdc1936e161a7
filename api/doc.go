// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package api is the HTTP client for the Upkeep platform API.
//
// Every Upkeep response uses the same JSON envelope:
//
//	{"data": ..., "meta": ..., "error": ...}
//
// with exactly one of data/error populated. This package is the only
// place that knows the envelope shape: Client.do unwraps it and returns
// either the raw data payload or a typed *Error. Callers — the session
// store, the workspace store, the budget flow — see unwrapped payloads
// and classify failures only by the error's Kind and Code.
//
// Authentication travels in HTTP cookies set by the server on login and
// refresh. The client carries a cookie jar on every request; with a
// persistent jar (NewPersistentJar) the session survives process
// restarts the way a browser tab survives a reload.
package api
