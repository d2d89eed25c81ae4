// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package statusapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aromasense/aromasense/relay"
)

// StatusSource reports relay state. *relay.Relay implements it.
type StatusSource interface {
	Status() relay.Status
}

// NewRouter builds the status routes. A nil gatherer omits /metrics.
func NewRouter(source StatusSource, gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/status", statusHandler(source)).Methods(http.MethodGet)
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return router
}

// Wrap adds request logging and panic recovery around handler.
func Wrap(handler http.Handler, logger *slog.Logger) http.Handler {
	recovered := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: logger}),
	)(handler)
	return handlers.CustomLoggingHandler(io.Discard, recovered, func(_ io.Writer, params handlers.LogFormatterParams) {
		logger.Debug("http request",
			"method", params.Request.Method,
			"path", params.URL.Path,
			"status", params.StatusCode,
			"bytes", params.Size,
			"remote_addr", params.Request.RemoteAddr,
		)
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n")
}

func statusHandler(source StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(source.Status())
	}
}

// recoveryLogger adapts slog to handlers.RecoveryHandlerLogger.
type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(values ...interface{}) {
	l.logger.Error("http handler panicked", "panic", fmt.Sprint(values...))
}
