// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/aromasense/aromasense/lib/clock"
	"github.com/aromasense/aromasense/lib/process"
	"github.com/aromasense/aromasense/lib/version"
	"github.com/aromasense/aromasense/mirror"
	"github.com/aromasense/aromasense/relay"
	"github.com/aromasense/aromasense/statusapi"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var flags options
	flagSet := pflag.NewFlagSet("aromasense-relay", pflag.ContinueOnError)
	flags.addFlags(flagSet)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.showVersion {
		fmt.Println(version.Binary("aromasense-relay"))
		return nil
	}
	if remaining := flagSet.Args(); len(remaining) > 0 {
		return fmt.Errorf("unexpected argument: %s", remaining[0])
	}

	cfg, err := flags.loadConfig(flagSet)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg.Log, flags.verbose, os.Stderr)
	slog.SetDefault(logger)
	logger.Info("starting", "version", version.Info())

	encoding, err := mirror.ParseEncoding(cfg.Mirror.Encoding)
	if err != nil {
		return err
	}

	var sinks []mirror.Sink
	var commandSubscriber mirror.MQTTSubscriber
	mqttConfig := cfg.Mirror.MQTT
	if cfg.MQTTEnabled() {
		client, err := mirror.DialMQTT(ctx, mirror.MQTTOptions{
			Broker:   mqttConfig.Broker,
			ClientID: mqttConfig.ClientID,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		defer client.Disconnect(250)

		if mqttConfig.LogTopic != "" {
			logger = newLogger(cfg.Log, flags.verbose,
				io.MultiWriter(os.Stderr, mirror.NewLogWriter(client, mqttConfig.LogTopic)))
			slog.SetDefault(logger)
			logger.Info("forwarding logs to mqtt", "topic", mqttConfig.LogTopic)
		}
		if mqttConfig.SensorTopic != "" {
			sinks = append(sinks, mirror.NewMQTTSink(client, mqttConfig.SensorTopic, byte(mqttConfig.QoS)))
		}
		if mqttConfig.CommandTopic != "" {
			commandSubscriber = client
		}
	}
	if cfg.KafkaEnabled() {
		writer := mirror.NewKafkaWriter(cfg.Mirror.Kafka.Brokers, cfg.Mirror.Kafka.Topic)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Warn("closing kafka writer", "error", err)
			}
		}()
		sinks = append(sinks, mirror.NewKafkaSink(writer, cfg.Mirror.Kafka.Topic))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := relay.New(relay.Config{
		DeviceListenAddr: cfg.Device.Listen,
		ViewerListenAddr: cfg.Viewer.Listen,
		HubCapacity:      cfg.Hub.Capacity,
		Clock:            clock.Real(),
		Logger:           logger,
		Metrics:          relay.NewMetrics(registry),
	})
	if err := server.Start(ctx); err != nil {
		return err
	}

	var background sync.WaitGroup
	for _, sink := range sinks {
		forwarder := &mirror.Forwarder{
			Source:   server.SensorHub(),
			Sink:     sink,
			Encoding: encoding,
			Logger:   logger,
		}
		background.Go(func() {
			if err := forwarder.Run(ctx); err != nil {
				logger.Error("mirror failed", "sink", sink.Name(), "error", err)
			}
		})
	}

	if commandSubscriber != nil {
		if err := mirror.SubscribeCommands(ctx, commandSubscriber, mqttConfig.CommandTopic,
			byte(mqttConfig.QoS), server.CommandHub(), logger); err != nil {
			logger.Error("mqtt command subscription failed", "error", err)
		}
	}

	if cfg.Status.Listen != "" {
		statusServer := &statusapi.Server{
			Addr:     cfg.Status.Listen,
			Source:   server,
			Gatherer: registry,
			Logger:   logger,
		}
		if err := statusServer.Listen(); err != nil {
			server.Stop()
			return err
		}
		background.Go(func() {
			if err := statusServer.Serve(ctx); err != nil {
				logger.Error("status api failed", "error", err)
			}
		})
	}

	logger.Info("relay running",
		"device_addr", server.DeviceAddr().String(),
		"viewer_addr", server.ViewerAddr().String(),
	)

	<-ctx.Done()
	logger.Info("shutting down")
	server.Wait()
	background.Wait()
	return nil
}
