// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DetectTheme returns the theme suited to the terminal's color
// support: the 256-color DefaultTheme where available, and the base-16
// FallbackTheme on basic terminals so the palette degrades to the
// user's own ANSI colors instead of approximations.
func DetectTheme() Theme {
	switch termenv.ColorProfile() {
	case termenv.Ascii, termenv.ANSI:
		return FallbackTheme
	default:
		return DefaultTheme
	}
}

// FallbackTheme restricts the palette to the 16 ANSI colors.
var FallbackTheme = Theme{
	NormalText: lipgloss.Color("7"),
	FaintText:  lipgloss.Color("8"),

	SelectedBackground: lipgloss.Color("0"),
	SelectedForeground: lipgloss.Color("15"),

	Accent: lipgloss.Color("4"), // blue

	ErrorText:   lipgloss.Color("1"),
	SuccessText: lipgloss.Color("2"),
	WarningText: lipgloss.Color("3"),

	HeaderForeground: lipgloss.Color("15"),
	BorderColor:      lipgloss.Color("8"),
	HelpText:         lipgloss.Color("8"),

	ModalForeground: lipgloss.Color("7"),
	ModalBackground: lipgloss.Color("0"),
	ModalBorder:     lipgloss.Color("3"),
}
