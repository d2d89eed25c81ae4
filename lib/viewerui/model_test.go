// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aromasense/aromasense/lib/clock"
	"github.com/aromasense/aromasense/lib/reading"
	"github.com/aromasense/aromasense/lib/sessionexport"
)

type recordingCommander struct {
	commands []string
	err      error
}

func (c *recordingCommander) StartSampling() error {
	c.commands = append(c.commands, reading.CommandStartSampling)
	return c.err
}

func (c *recordingCommander) StopSampling() error {
	c.commands = append(c.commands, reading.CommandStopSampling)
	return c.err
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func sampleReading(no2 float64) reading.SensorReading {
	return reading.SensorReading{
		Timestamp: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		NO2:       no2,
		Eth:       3.1,
		VOC:       0.9,
		CO:        0.2,
		COMics:    100,
		EthMics:   50,
		VOCMics:   20,
		State:     1,
		Level:     2,
	}
}

// update applies message and returns the resulting Model and command.
func update(t *testing.T, model Model, message tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := model.Update(message)
	updated, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return updated, cmd
}

func statusMessage(deviceConnected bool) relayMessageMsg {
	status := reading.NewStatusEvent(deviceConnected)
	return relayMessageMsg{message: reading.Message{Status: &status}}
}

func readingMessage(sensorReading reading.SensorReading) relayMessageMsg {
	return relayMessageMsg{message: reading.Message{Reading: &sensorReading}}
}

func TestInitListensForMessages(t *testing.T) {
	messages := make(chan reading.Message, 1)
	status := reading.NewStatusEvent(true)
	messages <- reading.Message{Status: &status}

	model := NewModel(&recordingCommander{}, messages)
	got := model.Init()()
	if _, ok := got.(relayMessageMsg); !ok {
		t.Fatalf("Init command produced %T, want relayMessageMsg", got)
	}

	close(messages)
	if _, ok := model.Init()().(streamClosedMsg); !ok {
		t.Error("closed channel should produce streamClosedMsg")
	}
}

func TestStatusUpdatesConnectivity(t *testing.T) {
	model := NewModel(&recordingCommander{}, nil)

	model, cmd := update(t, model, statusMessage(true))
	if !model.DeviceConnected() {
		t.Error("device should be connected")
	}
	if cmd == nil {
		t.Error("a relay message should re-arm the listener")
	}

	model, _ = update(t, model, statusMessage(false))
	if model.DeviceConnected() {
		t.Error("device should be disconnected")
	}
}

func TestReadingsAreCountedAndKept(t *testing.T) {
	model := NewModel(&recordingCommander{}, nil)
	for i := range historyLength + 5 {
		model, _ = update(t, model, readingMessage(sampleReading(float64(i))))
	}

	if model.ReadingCount() != historyLength+5 {
		t.Errorf("ReadingCount = %d", model.ReadingCount())
	}
	latest, ok := model.Latest()
	if !ok || latest.NO2 != float64(historyLength+4) {
		t.Errorf("Latest = %+v, %v", latest, ok)
	}
	if len(model.history[0]) != historyLength {
		t.Errorf("history length = %d, want %d", len(model.history[0]), historyLength)
	}
}

func TestKeysSendCommands(t *testing.T) {
	commander := &recordingCommander{}
	model := NewModel(commander, nil)

	model, cmd := update(t, model, keyPress('s'))
	if cmd == nil {
		t.Fatal("s should produce a command")
	}
	model, _ = update(t, model, cmd())
	if !model.sampling {
		t.Error("model should be sampling after START_SAMPLING succeeds")
	}

	model, cmd = update(t, model, keyPress('x'))
	model, _ = update(t, model, cmd())
	if model.sampling {
		t.Error("model should be idle after STOP_SAMPLING succeeds")
	}

	want := []string{reading.CommandStartSampling, reading.CommandStopSampling}
	if strings.Join(commander.commands, ",") != strings.Join(want, ",") {
		t.Errorf("commands = %v, want %v", commander.commands, want)
	}
}

func TestCommandFailureIsShown(t *testing.T) {
	commander := &recordingCommander{err: errors.New("broken pipe")}
	model := NewModel(commander, nil)

	model, cmd := update(t, model, keyPress('s'))
	model, _ = update(t, model, cmd())
	if model.sampling {
		t.Error("failed START_SAMPLING must not mark the model sampling")
	}
	if view := model.View(); !strings.Contains(view, "START_SAMPLING failed: broken pipe") {
		t.Errorf("view does not show the failure:\n%s", view)
	}
}

func TestQuit(t *testing.T) {
	model := NewModel(&recordingCommander{}, nil)
	_, cmd := update(t, model, keyPress('q'))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestStreamClosedDisablesCommands(t *testing.T) {
	commander := &recordingCommander{}
	model := NewModel(commander, nil)

	model, _ = update(t, model, streamClosedMsg{})
	if model.RelayConnected() {
		t.Error("relay should be disconnected after the stream closes")
	}
	if _, cmd := update(t, model, keyPress('s')); cmd != nil {
		t.Error("commands should not be sent without a relay")
	}
	if !strings.Contains(model.View(), "relay disconnected") {
		t.Error("view should show the relay as disconnected")
	}
}

func TestViewShowsChannels(t *testing.T) {
	model := NewModel(&recordingCommander{}, nil)
	if !strings.Contains(model.View(), "waiting for readings") {
		t.Error("empty view should say it is waiting")
	}

	model, _ = update(t, model, statusMessage(true))
	model, _ = update(t, model, readingMessage(sampleReading(reading.InvalidAnalyte)))
	view := model.View()

	for _, want := range []string{"device connected", "invalid", "MiCS Ethanol", "50.00", "state 1", "level 2", "readings 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := sparkline([]float64{0, 7}, false); got != "▁█" {
		t.Errorf("sparkline(0,7) = %q", got)
	}
	if got := sparkline([]float64{3, 3, 3}, false); got != "▁▁▁" {
		t.Errorf("flat sparkline = %q", got)
	}
	if got := sparkline([]float64{0, reading.InvalidAnalyte, 7}, true); got != "▁ █" {
		t.Errorf("sparkline with invalid = %q", got)
	}
}

func TestStatisticsTrackEveryReading(t *testing.T) {
	model := NewModel(&recordingCommander{}, nil)
	for _, no2 := range []float64{2, 4, 4, 4, reading.InvalidAnalyte, 5, 5, 7, 9} {
		model, _ = update(t, model, readingMessage(sampleReading(no2)))
	}

	statistics := model.Statistics()
	if len(statistics) != channelCount {
		t.Fatalf("len(Statistics) = %d, want %d", len(statistics), channelCount)
	}
	no2 := statistics[0]
	if no2.Label != "NO2" || no2.Count != 8 {
		t.Errorf("NO2 stats = %+v, want 8 valid values", no2)
	}
	if no2.Min != 2 || no2.Max != 9 {
		t.Errorf("NO2 min/max = %v/%v, want 2/9", no2.Min, no2.Max)
	}
	if math.Abs(no2.Mean-5) > 1e-9 || math.Abs(no2.StdDev-2) > 1e-9 {
		t.Errorf("NO2 mean/std = %v/%v, want 5/2", no2.Mean, no2.StdDev)
	}

	ethanol := statistics[1]
	if ethanol.Count != 9 || ethanol.StdDev != 0 || ethanol.Mean != 3.1 {
		t.Errorf("constant channel stats = %+v", ethanol)
	}
}

func TestStatisticsEmptyBeforeReadings(t *testing.T) {
	model := NewModel(&recordingCommander{}, nil)
	for _, statistics := range model.Statistics() {
		if statistics.Count != 0 || statistics.Label == "" {
			t.Errorf("stats before any reading = %+v", statistics)
		}
	}
}

func TestViewShowsStatistics(t *testing.T) {
	model := NewModel(&recordingCommander{}, nil)
	model, _ = update(t, model, readingMessage(sampleReading(12.5)))

	view := model.View()
	for _, want := range []string{"min", "max", "mean", "std", "12.50"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestExportWritesSessionReadings(t *testing.T) {
	directory := t.TempDir()
	exportedAt := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)
	model := NewModel(&recordingCommander{}, nil).WithExport(ExportOptions{
		Directory:  directory,
		SampleName: "rose",
		Clock:      clock.Fake(exportedAt),
	})
	model, _ = update(t, model, readingMessage(sampleReading(12.5)))
	model, _ = update(t, model, readingMessage(sampleReading(13.5)))
	if got := len(model.SessionReadings()); got != 2 {
		t.Fatalf("SessionReadings holds %d readings, want 2", got)
	}

	for _, test := range []struct {
		key  rune
		want string
	}{
		{'e', sessionexport.FileName(exportedAt, sessionexport.FormatCSV)},
		{'j', sessionexport.FileName(exportedAt, sessionexport.FormatJSON)},
	} {
		var cmd tea.Cmd
		model, cmd = update(t, model, keyPress(test.key))
		if cmd == nil {
			t.Fatalf("%c produced no export command", test.key)
		}
		model, _ = update(t, model, cmd())

		if want := filepath.Join(directory, test.want); model.exportPath != want {
			t.Errorf("export path = %q, want %q (error %v)", model.exportPath, want, model.exportError)
		}
		data, err := os.ReadFile(model.exportPath)
		if err != nil {
			t.Fatalf("reading export: %v", err)
		}
		if !strings.Contains(string(data), "rose") || !strings.Contains(string(data), "13.5") {
			t.Errorf("export %s does not carry the session:\n%s", test.want, data)
		}
		if !strings.Contains(model.View(), "exported "+model.exportPath) {
			t.Error("view does not report the export path")
		}
	}
}

func TestExportWithoutReadingsReportsError(t *testing.T) {
	model := NewModel(&recordingCommander{}, nil).WithExport(ExportOptions{Directory: t.TempDir()})

	model, cmd := update(t, model, keyPress('e'))
	if cmd != nil {
		t.Error("export with no readings should not start a write")
	}
	if !errors.Is(model.exportError, errNothingToExport) {
		t.Errorf("exportError = %v, want errNothingToExport", model.exportError)
	}
	if !strings.Contains(model.View(), "no readings to export") {
		t.Error("view does not report the empty export")
	}
}

// scriptedReconnector hands out prepared reconnect outcomes in order.
type scriptedReconnector struct {
	outcomes []reconnectResultMsg
	calls    int
}

func (r *scriptedReconnector) reconnect() (Connection, error) {
	outcome := r.outcomes[r.calls]
	r.calls++
	return outcome.connection, outcome.err
}

func TestStreamClosedReconnects(t *testing.T) {
	replacement := &recordingCommander{}
	replacementMessages := make(chan reading.Message, 1)
	reconnector := &scriptedReconnector{outcomes: []reconnectResultMsg{
		{connection: Connection{Commander: replacement, Messages: replacementMessages}},
	}}
	original := &recordingCommander{}
	model := NewModel(original, nil).WithReconnect(reconnector.reconnect)
	model, _ = update(t, model, readingMessage(sampleReading(12.5)))

	model, cmd := update(t, model, streamClosedMsg{})
	if cmd == nil || !model.Reconnecting() {
		t.Fatal("stream end should start a reconnect")
	}
	if !strings.Contains(model.View(), "reconnecting") {
		t.Error("view does not show the reconnect in progress")
	}

	model, cmd = update(t, model, cmd())
	if !model.RelayConnected() || model.Reconnecting() {
		t.Fatalf("after reconnect: relay connected %v, reconnecting %v", model.RelayConnected(), model.Reconnecting())
	}
	if cmd == nil {
		t.Fatal("reconnect should resume listening")
	}
	status := reading.NewStatusEvent(true)
	replacementMessages <- reading.Message{Status: &status}
	model, _ = update(t, model, cmd())
	if !model.DeviceConnected() {
		t.Error("status from the new connection was not applied")
	}

	_, cmd = update(t, model, keyPress('s'))
	if cmd == nil {
		t.Fatal("start key produced no command after reconnecting")
	}
	cmd()
	if len(replacement.commands) != 1 || len(original.commands) != 0 {
		t.Errorf("commands went to original %v / replacement %v, want the replacement", original.commands, replacement.commands)
	}
	if model.ReadingCount() != 1 || model.Statistics()[0].Count != 1 {
		t.Error("reconnect discarded the session history")
	}
}

func TestReconnectFailureWaitsForKey(t *testing.T) {
	reconnector := &scriptedReconnector{outcomes: []reconnectResultMsg{
		{err: errors.New("relay unreachable after 5 attempts")},
		{err: errors.New("relay unreachable after 5 attempts")},
	}}
	commander := &recordingCommander{}
	model := NewModel(commander, nil).WithReconnect(reconnector.reconnect)

	model, cmd := update(t, model, streamClosedMsg{})
	model, _ = update(t, model, cmd())
	if model.Reconnecting() || model.RelayConnected() {
		t.Fatal("failed reconnect left the model connected or reconnecting")
	}
	if !strings.Contains(model.View(), "relay lost") {
		t.Error("view does not show the reconnect failure")
	}

	if _, cmd := update(t, model, keyPress('s')); cmd != nil {
		t.Error("commands should stay disabled while disconnected")
	}

	model, cmd = update(t, model, keyPress('r'))
	if cmd == nil || !model.Reconnecting() {
		t.Fatal("reconnect key should retry")
	}
	if _, again := update(t, model, keyPress('r')); again != nil {
		t.Error("reconnect key started a second attempt while one is running")
	}
	cmd()
	if reconnector.calls != 2 {
		t.Errorf("reconnect calls = %d, want 2", reconnector.calls)
	}
}
