// Package metrics wires the Prometheus counters the core exposes:
// task restarts by id and strategy, broadcaster outcomes by result
// code, and node-client reconnect counts. Registration and the
// exporter HTTP handler follow the teacher's cmd/kcn/main.go
// Prometheus wiring: a DefaultRegisterer plus promhttp.Handler on a
// configurable port, rather than a custom metrics-bridge layer.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nolus-protocol/chain-ops/internal/log"
)

var logger = log.New(log.ModuleSupervisor)

var (
	TaskRestarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chain_ops",
		Name:      "task_restarts_total",
		Help:      "Count of task restarts by task id and chosen strategy.",
	}, []string{"id", "strategy"})

	BroadcastOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chain_ops",
		Name:      "broadcast_outcomes_total",
		Help:      "Count of broadcaster commit outcomes by result code.",
	}, []string{"code"})

	NodeReconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chain_ops",
		Name:      "node_reconnects_total",
		Help:      "Count of node-client channel reconnections.",
	})
)

func init() {
	prometheus.MustRegister(TaskRestarts, BroadcastOutcomes, NodeReconnects)
}

// Serve starts the Prometheus exporter on the given port, matching
// the teacher's go func() { http.ListenAndServe(...) }() pattern —
// fire-and-forget, logging rather than propagating a bind failure.
func Serve(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		addr := fmt.Sprintf(":%d", port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("prometheus exporter failed", "addr", addr, "err", err)
		}
	}()
}
