// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aromasense/aromasense/lib/clock"
	"github.com/aromasense/aromasense/lib/reading"
	"github.com/aromasense/aromasense/lib/sessionexport"
)

// Commander sends sampling commands to the relay.
// *viewerclient.Client implements it.
type Commander interface {
	StartSampling() error
	StopSampling() error
}

// Connection is one relay session as the viewer sees it.
type Connection struct {
	Commander Commander
	Messages  <-chan reading.Message
}

// Reconnector opens a new relay connection after the previous one
// ended. It may block while it retries.
type Reconnector func() (Connection, error)

// ExportOptions configures session exports.
type ExportOptions struct {
	// Directory receives export files. Empty selects "data".
	Directory string

	// SampleName labels the exported session.
	SampleName string

	// Clock stamps exports. If nil, clock.Real() is used.
	Clock clock.Clock
}

// maxSessionReadings bounds the readings kept for export: a day at one
// reading per second. Older readings are dropped first.
const maxSessionReadings = 24 * 60 * 60

// errNothingToExport is reported when an export is requested before any
// reading has arrived.
var errNothingToExport = errors.New("no readings to export")

// relayMessageMsg carries one message read from the relay.
type relayMessageMsg struct {
	message reading.Message
}

// streamClosedMsg reports that the relay connection ended.
type streamClosedMsg struct{}

// commandResultMsg reports the outcome of a command send.
type commandResultMsg struct {
	command string
	err     error
}

// reconnectResultMsg reports the outcome of a reconnect.
type reconnectResultMsg struct {
	connection Connection
	err        error
}

// exportResultMsg reports the outcome of a session export.
type exportResultMsg struct {
	path string
	err  error
}

// Model is the bubbletea model of the viewer.
type Model struct {
	commander Commander
	messages  <-chan reading.Message
	reconnect Reconnector
	export    ExportOptions
	theme     Theme
	keys      KeyMap

	relayConnected  bool
	deviceConnected bool
	sampling        bool // Last command successfully sent was START_SAMPLING.
	reconnecting    bool
	reconnectError  error

	latest       *reading.SensorReading
	readingCount int
	history      [channelCount][]float64
	statistics   [channelCount]channelAccumulator
	session      []reading.SensorReading

	lastCommand string
	lastError   error
	exportPath  string
	exportError error
	width       int
}

// NewModel creates a viewer reading from messages and commanding
// through commander.
func NewModel(commander Commander, messages <-chan reading.Message) Model {
	return Model{
		commander:      commander,
		messages:       messages,
		export:         ExportOptions{Directory: "data"},
		theme:          DefaultTheme,
		keys:           DefaultKeyMap,
		relayConnected: true,
	}
}

// WithReconnect returns a copy of the model that calls reconnect when
// the relay stream ends, and again when the reconnect key is pressed
// after a failed attempt.
func (model Model) WithReconnect(reconnect Reconnector) Model {
	model.reconnect = reconnect
	return model
}

// WithExport returns a copy of the model that exports with options.
func (model Model) WithExport(options ExportOptions) Model {
	if options.Directory == "" {
		options.Directory = "data"
	}
	model.export = options
	return model
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return listenForMessage(model.messages)
}

// listenForMessage blocks until the next relay message or the end of
// the stream.
func listenForMessage(channel <-chan reading.Message) tea.Cmd {
	return func() tea.Msg {
		message, ok := <-channel
		if !ok {
			return streamClosedMsg{}
		}
		return relayMessageMsg{message: message}
	}
}

func sendCommand(command string, send func() error) tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{command: command, err: send()}
	}
}

func reconnectCommand(reconnect Reconnector) tea.Cmd {
	return func() tea.Msg {
		connection, err := reconnect()
		return reconnectResultMsg{connection: connection, err: err}
	}
}

func exportCommand(options ExportOptions, format sessionexport.Format, readings []reading.SensorReading) tea.Cmd {
	exportClock := options.Clock
	if exportClock == nil {
		exportClock = clock.Real()
	}
	return func() tea.Msg {
		path, err := sessionexport.Save(options.Directory, format, sessionexport.Session{
			Name:       options.SampleName,
			ExportedAt: exportClock.Now(),
			Readings:   readings,
		})
		return exportResultMsg{path: path, err: err}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit
		case key.Matches(message, model.keys.StartSampling):
			if !model.relayConnected {
				return model, nil
			}
			return model, sendCommand(reading.CommandStartSampling, model.commander.StartSampling)
		case key.Matches(message, model.keys.StopSampling):
			if !model.relayConnected {
				return model, nil
			}
			return model, sendCommand(reading.CommandStopSampling, model.commander.StopSampling)
		case key.Matches(message, model.keys.ExportCSV):
			return model.startExport(sessionexport.FormatCSV)
		case key.Matches(message, model.keys.ExportJSON):
			return model.startExport(sessionexport.FormatJSON)
		case key.Matches(message, model.keys.Reconnect):
			if model.relayConnected || model.reconnecting || model.reconnect == nil {
				return model, nil
			}
			model.reconnecting = true
			model.reconnectError = nil
			return model, reconnectCommand(model.reconnect)
		}

	case relayMessageMsg:
		model.apply(message.message)
		return model, listenForMessage(model.messages)

	case streamClosedMsg:
		model.relayConnected = false
		model.deviceConnected = false
		model.sampling = false
		if model.reconnect != nil && !model.reconnecting {
			model.reconnecting = true
			model.reconnectError = nil
			return model, reconnectCommand(model.reconnect)
		}

	case reconnectResultMsg:
		model.reconnecting = false
		if message.err != nil {
			model.reconnectError = message.err
			return model, nil
		}
		model.commander = message.connection.Commander
		model.messages = message.connection.Messages
		model.relayConnected = true
		model.reconnectError = nil
		return model, listenForMessage(model.messages)

	case exportResultMsg:
		model.exportPath = message.path
		model.exportError = message.err

	case commandResultMsg:
		model.lastCommand = message.command
		model.lastError = message.err
		if message.err == nil {
			model.sampling = message.command == reading.CommandStartSampling
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
	}
	return model, nil
}

func (model Model) startExport(format sessionexport.Format) (tea.Model, tea.Cmd) {
	if len(model.session) == 0 {
		model.exportPath = ""
		model.exportError = errNothingToExport
		return model, nil
	}
	return model, exportCommand(model.export, format, slices.Clone(model.session))
}

func (model *Model) apply(message reading.Message) {
	switch {
	case message.Status != nil:
		model.relayConnected = message.Status.BackendConnected
		model.deviceConnected = message.Status.ArduinoConnected
		if !model.deviceConnected {
			model.sampling = false
		}
	case message.Reading != nil:
		sensorReading := *message.Reading
		model.latest = &sensorReading
		model.readingCount++
		for index, value := range channelValues(sensorReading) {
			history := append(model.history[index], value)
			if len(history) > historyLength {
				history = history[len(history)-historyLength:]
			}
			model.history[index] = history
		}
		model.statistics = accumulateReading(model.statistics, sensorReading)
		model.session = append(model.session, sensorReading)
		if len(model.session) > maxSessionReadings {
			model.session = slices.Clone(model.session[len(model.session)-maxSessionReadings:])
		}
	}
}

// DeviceConnected reports the device flag from the latest status.
func (model Model) DeviceConnected() bool {
	return model.deviceConnected
}

// RelayConnected reports whether the relay connection is up.
func (model Model) RelayConnected() bool {
	return model.relayConnected
}

// ReadingCount returns how many readings have arrived.
func (model Model) ReadingCount() int {
	return model.readingCount
}

// Latest returns the most recent reading, if any.
func (model Model) Latest() (reading.SensorReading, bool) {
	if model.latest == nil {
		return reading.SensorReading{}, false
	}
	return *model.latest, true
}

// Statistics returns running statistics for each gas channel in
// display order.
func (model Model) Statistics() []ChannelStats {
	statistics := make([]ChannelStats, channelCount)
	for index, accumulator := range model.statistics {
		statistics[index] = accumulator.stats(channelLabels[index])
	}
	return statistics
}

// SessionReadings returns the readings kept for export, oldest first.
func (model Model) SessionReadings() []reading.SensorReading {
	return slices.Clone(model.session)
}

// Reconnecting reports whether a reconnect is in progress.
func (model Model) Reconnecting() bool {
	return model.reconnecting
}

// View implements tea.Model.
func (model Model) View() string {
	theme := model.theme
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(theme.NormalText)

	var builder strings.Builder
	builder.WriteString(header.Render("AromaSense viewer"))
	builder.WriteString("\n\n")

	if model.reconnecting {
		builder.WriteString(lipgloss.NewStyle().Foreground(theme.Sampling).Render("● relay reconnecting"))
	} else {
		builder.WriteString(model.indicator("relay", model.relayConnected))
	}
	builder.WriteString("   ")
	builder.WriteString(model.indicator("device", model.deviceConnected))
	builder.WriteString("   ")
	if model.sampling {
		builder.WriteString(lipgloss.NewStyle().Foreground(theme.Sampling).Render("sampling"))
	} else {
		builder.WriteString(faint.Render("idle"))
	}
	builder.WriteString("\n\n")

	if model.latest == nil {
		builder.WriteString(faint.Render("waiting for readings…"))
		builder.WriteString("\n")
	} else {
		latest := *model.latest
		builder.WriteString(normal.Render(fmt.Sprintf("readings %d   last %s",
			model.readingCount, latest.Timestamp.Local().Format(time.TimeOnly))))
		builder.WriteString("\n\n")

		for index, value := range channelValues(latest) {
			label := fmt.Sprintf("%-13s", channelLabels[index])
			valueText := fmt.Sprintf("%10.2f", value)
			if isPrimaryChannel(index) && value == reading.InvalidAnalyte {
				valueText = fmt.Sprintf("%10s", "invalid")
			}
			spark := lipgloss.NewStyle().Foreground(theme.ChannelColors[index]).
				Render(sparkline(model.history[index], isPrimaryChannel(index)))
			builder.WriteString(normal.Render(label))
			builder.WriteString(normal.Render(valueText))
			builder.WriteString("  ")
			builder.WriteString(spark)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
		builder.WriteString(normal.Render(fmt.Sprintf("state %d   level %d", latest.State, latest.Level)))
		builder.WriteString("\n\n")
		builder.WriteString(model.statisticsTable())
	}

	if model.reconnectError != nil {
		builder.WriteString("\n")
		builder.WriteString(lipgloss.NewStyle().Foreground(theme.ErrorText).
			Render(fmt.Sprintf("relay lost: %v", model.reconnectError)))
		builder.WriteString("\n")
	}
	if model.exportError != nil {
		builder.WriteString("\n")
		builder.WriteString(lipgloss.NewStyle().Foreground(theme.ErrorText).
			Render(fmt.Sprintf("export failed: %v", model.exportError)))
		builder.WriteString("\n")
	} else if model.exportPath != "" {
		builder.WriteString("\n")
		builder.WriteString(normal.Render("exported " + model.exportPath))
		builder.WriteString("\n")
	}

	if model.lastError != nil {
		builder.WriteString("\n")
		builder.WriteString(lipgloss.NewStyle().Foreground(theme.ErrorText).
			Render(fmt.Sprintf("%s failed: %v", model.lastCommand, model.lastError)))
		builder.WriteString("\n")
	}

	builder.WriteString("\n")
	builder.WriteString(model.helpLine())
	return builder.String()
}

func (model Model) statisticsTable() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)

	var builder strings.Builder
	builder.WriteString(faint.Render(fmt.Sprintf("%-13s%10s%10s%10s%10s",
		"", "min", "max", "mean", "std")))
	builder.WriteString("\n")
	for _, statistics := range model.Statistics() {
		if statistics.Count == 0 {
			builder.WriteString(faint.Render(fmt.Sprintf("%-13s%10s", statistics.Label, "no data")))
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(normal.Render(fmt.Sprintf("%-13s%10.2f%10.2f%10.2f%10.2f",
			statistics.Label, statistics.Min, statistics.Max, statistics.Mean, statistics.StdDev)))
		builder.WriteString("\n")
	}
	return builder.String()
}

func (model Model) indicator(label string, connected bool) string {
	color := model.theme.Disconnected
	state := "disconnected"
	if connected {
		color = model.theme.Connected
		state = "connected"
	}
	return lipgloss.NewStyle().Foreground(color).Render("● " + label + " " + state)
}

func (model Model) helpLine() string {
	style := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	var parts []string
	for _, binding := range model.keys.ShortHelp() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return style.Render(strings.Join(parts, " · "))
}
