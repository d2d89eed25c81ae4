// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/aromasense/aromasense/lib/config"
)

// options holds the command-line flags. Listener and hub flags only
// override the configuration when set explicitly.
type options struct {
	configPath   string
	deviceListen string
	viewerListen string
	statusListen string
	hubCapacity  int
	verbose      bool
	showVersion  bool
}

func (o *options) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&o.configPath, "config", "", "path to the YAML configuration file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&o.deviceListen, "device-listen", "", "device listener address (default 0.0.0.0:8081)")
	flagSet.StringVar(&o.viewerListen, "viewer-listen", "", "viewer listener address (default 0.0.0.0:8082)")
	flagSet.StringVar(&o.statusListen, "status-listen", "", "HTTP status listener address (disabled when empty)")
	flagSet.IntVar(&o.hubCapacity, "hub-capacity", 0, "messages a subscriber may fall behind before the oldest are dropped (default 100)")
	flagSet.BoolVarP(&o.verbose, "verbose", "v", false, "log at debug level")
	flagSet.BoolVar(&o.showVersion, "version", false, "print version information and exit")
}

// loadConfig reads the configuration file and applies every flag the
// user set on top of it.
func (o *options) loadConfig(flagSet *pflag.FlagSet) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("device-listen") {
		cfg.Device.Listen = o.deviceListen
	}
	if flagSet.Changed("viewer-listen") {
		cfg.Viewer.Listen = o.viewerListen
	}
	if flagSet.Changed("status-listen") {
		cfg.Status.Listen = o.statusListen
	}
	if flagSet.Changed("hub-capacity") {
		cfg.Hub.Capacity = o.hubCapacity
	}
	return cfg, nil
}

// newLogger builds the process logger. verbose forces debug level.
func newLogger(logConfig config.LogConfig, verbose bool, writer io.Writer) *slog.Logger {
	level := parseLevel(logConfig.Level)
	if verbose {
		level = slog.LevelDebug
	}
	handlerOptions := &slog.HandlerOptions{Level: level}
	if logConfig.Format == "json" {
		return slog.New(slog.NewJSONHandler(writer, handlerOptions))
	}
	return slog.New(slog.NewTextHandler(writer, handlerOptions))
}

func parseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
