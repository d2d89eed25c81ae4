// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the viewer's key bindings.
type KeyMap struct {
	StartSampling key.Binding
	StopSampling  key.Binding
	ExportCSV     key.Binding
	ExportJSON    key.Binding
	Reconnect     key.Binding
	Quit          key.Binding
}

// DefaultKeyMap is the built-in binding set.
var DefaultKeyMap = KeyMap{
	StartSampling: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start sampling"),
	),
	StopSampling: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "stop sampling"),
	),
	ExportCSV: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export csv"),
	),
	ExportJSON: key.NewBinding(
		key.WithKeys("j"),
		key.WithHelp("j", "export json"),
	),
	Reconnect: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reconnect"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp lists the bindings shown in the footer.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		keys.StartSampling, keys.StopSampling,
		keys.ExportCSV, keys.ExportJSON,
		keys.Reconnect, keys.Quit,
	}
}
