// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import "github.com/charmbracelet/lipgloss"

// Theme is the viewer's color palette, in ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	Connected    lipgloss.Color
	Disconnected lipgloss.Color
	Sampling     lipgloss.Color
	ErrorText    lipgloss.Color

	// ChannelColors tint each gas channel's sparkline, in channel
	// order.
	ChannelColors [channelCount]lipgloss.Color
}

// DefaultTheme suits dark terminals.
var DefaultTheme = Theme{
	NormalText:       lipgloss.Color("252"),
	FaintText:        lipgloss.Color("242"),
	HeaderForeground: lipgloss.Color("117"),
	BorderColor:      lipgloss.Color("238"),
	HelpText:         lipgloss.Color("245"),
	Connected:        lipgloss.Color("114"),
	Disconnected:     lipgloss.Color("203"),
	Sampling:         lipgloss.Color("221"),
	ErrorText:        lipgloss.Color("196"),
	ChannelColors: [channelCount]lipgloss.Color{
		lipgloss.Color("203"),
		lipgloss.Color("80"),
		lipgloss.Color("74"),
		lipgloss.Color("151"),
		lipgloss.Color("229"),
		lipgloss.Color("183"),
		lipgloss.Color("116"),
	},
}
