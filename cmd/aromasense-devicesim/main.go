// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// aromasense-devicesim stands in for the AromaSense sensing device. It
// connects to the relay's device port, announces itself like the
// firmware does, and streams synthetic SENSOR lines while sampling is
// switched on by START_SAMPLING and off by STOP_SAMPLING. When the
// relay drops the connection it dials again.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/aromasense/aromasense/lib/clock"
	"github.com/aromasense/aromasense/lib/process"
	"github.com/aromasense/aromasense/lib/version"
)

const redialDelay = 2 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var (
		address     string
		interval    time.Duration
		seed        uint64
		verbose     bool
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("aromasense-devicesim", pflag.ContinueOnError)
	flagSet.StringVar(&address, "address", "127.0.0.1:8081", "relay device address")
	flagSet.DurationVar(&interval, "interval", time.Second, "time between sensor lines while sampling")
	flagSet.Uint64Var(&seed, "seed", uint64(time.Now().UnixNano()), "random seed for generated values")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log every line sent")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println(version.Binary("aromasense-devicesim"))
		return nil
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	realClock := clock.Real()
	simulator := &Simulator{
		Interval: interval,
		Seed:     seed,
		Clock:    realClock,
		Logger:   logger,
	}

	var dialer net.Dialer
	for {
		connection, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("dialing relay failed", "address", address, "error", err)
		} else {
			logger.Info("connected to relay", "address", address)
			stopClose := context.AfterFunc(ctx, func() { connection.Close() })
			err = simulator.Run(ctx, connection)
			stopClose()
			connection.Close()
			if err != nil {
				logger.Warn("session ended", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-realClock.After(redialDelay):
		}
	}
}
