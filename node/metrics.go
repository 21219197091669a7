// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package node

import (
	"strconv"
	"time"

	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// Metrics counts served messages and observes dispatch latency. Pass it
// in through WithMetrics; a nil Metrics records nothing.
type Metrics struct {
	served  *prometheus.Counter
	latency *prometheus.Summary
}

// NewMetrics registers the node's collectors with the default
// prometheus registry.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		served: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "messages_served_total",
			Help:      "processed messages by discriminant and reply status",
		}, []string{"interface", "method", "status"}),
		latency: prometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "handler_latency_seconds",
			Help:      "message handling latency by discriminant",
		}, []string{"interface", "method"}),
	}
}

func (m *Metrics) observe(iface, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.served.With("interface", iface, "method", method, "status", strconv.Itoa(status)).Add(1)
	m.latency.With("interface", iface, "method", method).Observe(d.Seconds())
}
