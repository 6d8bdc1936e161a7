// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette and visual properties for Upkeep's
// terminal UI. All colors use lipgloss ANSI 256-color codes for broad
// terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Accent is the brand color used for focused inputs, the active
	// company, and key figures like the remaining budget.
	Accent lipgloss.Color

	// Form feedback.
	ErrorText   lipgloss.Color
	SuccessText lipgloss.Color
	WarningText lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Modal boxes (the budget reduction confirmation).
	ModalForeground lipgloss.Color
	ModalBackground lipgloss.Color
	ModalBorder     lipgloss.Color
}

// RoleColor returns the color for a membership role badge. Owners get
// the accent color; everything else renders faint.
func (theme Theme) RoleColor(role string) lipgloss.Color {
	if role == "OWNER" {
		return theme.Accent
	}
	return theme.FaintText
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed for
// 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	Accent: lipgloss.Color("75"), // blue

	ErrorText:   lipgloss.Color("196"), // bright red
	SuccessText: lipgloss.Color("114"), // green
	WarningText: lipgloss.Color("220"), // amber

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	ModalForeground: lipgloss.Color("252"),
	ModalBackground: lipgloss.Color("237"),
	ModalBorder:     lipgloss.Color("220"), // amber: the modal always asks about a reduction
}
