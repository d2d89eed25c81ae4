// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the relay configuration.
//
// Configuration comes from a single YAML file named by the --config
// flag or the AROMASENSE_CONFIG environment variable. There is no
// search path. Without a file the relay runs on [Default], which
// listens for the device on 0.0.0.0:8081 and for viewers on
// 0.0.0.0:8082 with hub capacity 100. Command-line flags override
// individual values after the file is loaded.
//
// String values may reference the environment with ${VAR} or
// ${VAR:-default}, which keeps broker credentials and hostnames out of
// checked-in files:
//
//	mirror:
//	  mqtt:
//	    broker: ${MQTT_BROKER:-tcp://localhost:1883}
package config
