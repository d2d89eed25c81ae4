// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Session roles, used as the "role" label and in logs.
const (
	RoleDevice = "device"
	RoleViewer = "viewer"
)

// Hub names, used as the "hub" label.
const (
	HubSensor  = "sensor"
	HubCommand = "command"
)

// Reasons a device line is rejected, used as the "reason" label.
const (
	RejectFieldCount = "field_count"
	RejectEncode     = "encode"
)

// Metrics are the relay's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	sessionsActive     *prometheus.GaugeVec
	sessionsTotal      *prometheus.CounterVec
	readingsRelayed    prometheus.Counter
	linesRejected      *prometheus.CounterVec
	fieldFallbacks     *prometheus.CounterVec
	commandsPublished  prometheus.Counter
	commandsForwarded  prometheus.Counter
	viewerLinesIgnored prometheus.Counter
	hubMissed          *prometheus.CounterVec
	acceptErrors       *prometheus.CounterVec
	oversizedLines     *prometheus.CounterVec
}

// NewMetrics creates the relay collectors and registers them with
// registerer. A nil registerer selects prometheus.DefaultRegisterer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		sessionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "aromasense",
			Subsystem: "relay",
			Name:      "sessions_active",
			Help:      "Sessions currently open, by role.",
		}, []string{"role"}),
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aromasense",
			Subsystem: "relay",
			Name:      "sessions_total",
			Help:      "Sessions accepted since start, by role.",
		}, []string{"role"}),
		readingsRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aromasense",
			Subsystem: "relay",
			Name:      "readings_relayed_total",
			Help:      "Sensor readings parsed and published to the sensor hub.",
		}),
		linesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aromasense",
			Subsystem: "relay",
			Name:      "lines_rejected_total",
			Help:      "Sensor lines dropped without publishing, by reason.",
		}, []string{"reason"}),
		fieldFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aromasense",
			Subsystem: "relay",
			Name:      "field_fallbacks_total",
			Help:      "Sensor fields that failed to parse and took their fallback value, by field.",
		}, []string{"field"}),
		commandsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aromasense",
			Subsystem: "relay",
			Name:      "commands_published_total",
			Help:      "Recognised viewer commands published to the command hub.",
		}),
		commandsForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aromasense",
			Subsystem: "relay",
			Name:      "commands_forwarded_total",
			Help:      "Command lines written to a device connection.",
		}),
		viewerLinesIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aromasense",
			Subsystem: "relay",
			Name:      "viewer_lines_ignored_total",
			Help:      "Viewer lines discarded because they were not a recognised command.",
		}),
		hubMissed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aromasense",
			Subsystem: "relay",
			Name:      "hub_missed_messages_total",
			Help:      "Messages a lagging session lost, by hub.",
		}, []string{"hub"}),
		acceptErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aromasense",
			Subsystem: "relay",
			Name:      "accept_errors_total",
			Help:      "Listener accept failures, by role.",
		}, []string{"role"}),
		oversizedLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aromasense",
			Subsystem: "relay",
			Name:      "oversized_lines_total",
			Help:      "Lines longer than the line limit, skipped without ending the session, by role.",
		}, []string{"role"}),
	}

	registerer.MustRegister(
		m.sessionsActive,
		m.sessionsTotal,
		m.readingsRelayed,
		m.linesRejected,
		m.fieldFallbacks,
		m.commandsPublished,
		m.commandsForwarded,
		m.viewerLinesIgnored,
		m.hubMissed,
		m.acceptErrors,
		m.oversizedLines,
	)

	for _, role := range []string{RoleDevice, RoleViewer} {
		m.sessionsActive.WithLabelValues(role).Set(0)
	}

	return m
}

func (m *Metrics) sessionOpened(role string) {
	if m == nil {
		return
	}
	m.sessionsActive.WithLabelValues(role).Inc()
	m.sessionsTotal.WithLabelValues(role).Inc()
}

func (m *Metrics) sessionClosed(role string) {
	if m == nil {
		return
	}
	m.sessionsActive.WithLabelValues(role).Dec()
}

func (m *Metrics) readingRelayed(fallbacks []string) {
	if m == nil {
		return
	}
	m.readingsRelayed.Inc()
	for _, field := range fallbacks {
		m.fieldFallbacks.WithLabelValues(field).Inc()
	}
}

func (m *Metrics) lineRejected(reason string) {
	if m == nil {
		return
	}
	m.linesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) commandPublished() {
	if m == nil {
		return
	}
	m.commandsPublished.Inc()
}

func (m *Metrics) commandForwarded() {
	if m == nil {
		return
	}
	m.commandsForwarded.Inc()
}

func (m *Metrics) viewerLineIgnored() {
	if m == nil {
		return
	}
	m.viewerLinesIgnored.Inc()
}

func (m *Metrics) missed(hubName string, count uint64) {
	if m == nil {
		return
	}
	m.hubMissed.WithLabelValues(hubName).Add(float64(count))
}

func (m *Metrics) acceptFailed(role string) {
	if m == nil {
		return
	}
	m.acceptErrors.WithLabelValues(role).Inc()
}

func (m *Metrics) oversizedLine(role string) {
	if m == nil {
		return
	}
	m.oversizedLines.WithLabelValues(role).Inc()
}
