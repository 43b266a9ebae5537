/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package binding

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reasons for discarding a completion or a push
const (
	discardSuperseded = "superseded"
	discardDetached   = "detached"
	discardRetired    = "retired"
	discardCanceled   = "canceled"
)

// Metrics collects Prometheus metrics for Controllers. One Metrics may be shared by many
// Controllers; they are told apart by the name given with WithName.
type Metrics struct {
	dispatches          *prometheus.CounterVec
	discarded           *prometheus.CounterVec
	pushes              *prometheus.CounterVec
	activeSubscriptions *prometheus.GaugeVec
}

// NewMetrics creates Metrics and registers its collectors with registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gqlbind",
			Name:      "dispatches_total",
			Help:      "Number of operations dispatched to the GraphQL client",
		}, []string{"controller", "kind"}),

		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gqlbind",
			Name:      "discarded_results_total",
			Help:      "Number of query completions and subscription pushes dropped without touching state",
		}, []string{"controller", "reason"}),

		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gqlbind",
			Name:      "subscription_pushes_total",
			Help:      "Number of subscription payloads stored in result state",
		}, []string{"controller", "subscription"}),

		activeSubscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gqlbind",
			Name:      "active_subscriptions",
			Help:      "Number of live subscriptions",
		}, []string{"controller"}),
	}

	for _, collector := range []prometheus.Collector{
		m.dispatches,
		m.discarded,
		m.pushes,
		m.activeSubscriptions,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) dispatched(controller, kind string) {
	if m != nil {
		m.dispatches.WithLabelValues(controller, kind).Inc()
	}
}

func (m *Metrics) discard(controller, reason string) {
	if m != nil {
		m.discarded.WithLabelValues(controller, reason).Inc()
	}
}

func (m *Metrics) pushed(controller, subscription string) {
	if m != nil {
		m.pushes.WithLabelValues(controller, subscription).Inc()
	}
}

func (m *Metrics) subscribed(controller string) {
	if m != nil {
		m.activeSubscriptions.WithLabelValues(controller).Inc()
	}
}

func (m *Metrics) unsubscribed(controller string) {
	if m != nil {
		m.activeSubscriptions.WithLabelValues(controller).Dec()
	}
}
