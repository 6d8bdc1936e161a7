// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the Upkeep
// client.
//
// Configuration is loaded from a single file specified by either the
// UPKEEP_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no ~/.config discovery and no automatic
// file search; a missing file yields the development defaults so the
// client works out of the box against a local platform instance.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches.
//
// After the file is loaded, a small set of UPKEEP_* environment
// variables is overlaid (parsed with caarlos0/env): UPKEEP_API_URL,
// UPKEEP_STATE_DIR, and UPKEEP_ENVIRONMENT. The overlay exists because
// the client is an interactive tool pointed at different API hosts far
// more often than a daemon would be; it is the only place environment
// variables influence configuration.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- master struct with API, Session, Paths
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other Upkeep packages.
package config
