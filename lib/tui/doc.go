// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides shared terminal user interface primitives for
// the Upkeep client: the color theme and ANSI-aware overlay splicing
// used to draw modals over a rendered view.
//
// The interactive screens themselves (login, dashboard, budget) live
// in the top-level tui package; this one holds only the pieces with no
// knowledge of the domain.
package tui
