// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// aromasense-viewer is a terminal viewer for an AromaSense relay. It
// connects to the relay's viewer port, shows connectivity, the latest
// gas readings with short history sparklines and running per-channel
// statistics, and sends sampling commands to the device. The sampled
// session can be exported to CSV or JSON. When the relay connection
// drops the viewer redials a bounded number of times.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/aromasense/aromasense/lib/clock"
	"github.com/aromasense/aromasense/lib/process"
	"github.com/aromasense/aromasense/lib/version"
	"github.com/aromasense/aromasense/lib/viewerclient"
	"github.com/aromasense/aromasense/lib/viewerui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var (
		address           string
		logOutput         string
		exportDirectory   string
		sampleName        string
		reconnectAttempts int
		reconnectDelay    time.Duration
		showVersion       bool
	)
	flagSet := pflag.NewFlagSet("aromasense-viewer", pflag.ContinueOnError)
	flagSet.StringVar(&address, "address", "127.0.0.1:8082", "relay viewer address")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file")
	flagSet.StringVar(&exportDirectory, "export-dir", "data", "directory for session exports")
	flagSet.StringVar(&sampleName, "sample-name", "", "sample name recorded in session exports")
	flagSet.IntVar(&reconnectAttempts, "reconnect-attempts", viewerclient.DefaultAttempts, "dial attempts before giving up on the relay")
	flagSet.DurationVar(&reconnectDelay, "reconnect-delay", viewerclient.DefaultRetryDelay, "delay between dial attempts")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println(version.Binary("aromasense-viewer"))
		return nil
	}

	// The terminal belongs to the TUI, so logs go to a file or nowhere.
	logger := slog.New(slog.DiscardHandler)
	if logOutput != "" {
		logFile, err := os.OpenFile(logOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening log output: %w", err)
		}
		defer logFile.Close()
		logger = slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	connector := newRelayConnector(address,
		viewerclient.Options{Logger: logger},
		viewerclient.RetryPolicy{
			Attempts: reconnectAttempts,
			Delay:    reconnectDelay,
			Clock:    clock.Real(),
		},
	)
	defer connector.close()

	connection, err := connector.connect()
	if err != nil {
		return err
	}

	model := viewerui.NewModel(connection.Commander, connection.Messages).
		WithReconnect(connector.connect).
		WithExport(viewerui.ExportOptions{
			Directory:  exportDirectory,
			SampleName: sampleName,
			Clock:      clock.Real(),
		})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}
