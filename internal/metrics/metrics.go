// Package metrics exposes Prometheus collectors for the marketplace core.
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type coreMetrics struct {
	operations       *prometheus.CounterVec
	events           *prometheus.CounterVec
	escrowFlow       *prometheus.CounterVec
	disputesResolved *prometheus.CounterVec
	emailsSent       *prometheus.CounterVec
	credits          *prometheus.GaugeVec
}

var (
	coreOnce     sync.Once
	coreRegistry *coreMetrics
)

// Core returns the process-wide metrics registry, registering it on first use.
func Core() *coreMetrics {
	coreOnce.Do(func() {
		coreRegistry = &coreMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rentchain",
				Subsystem: "core",
				Name:      "operations_total",
				Help:      "Count of core operations segmented by outcome.",
			}, []string{"operation", "result"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rentchain",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Count of published domain events segmented by type.",
			}, []string{"type"}),
			escrowFlow: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rentchain",
				Subsystem: "escrow",
				Name:      "credits_total",
				Help:      "Credits moved into and out of escrow segmented by pool purpose.",
			}, []string{"purpose", "direction"}),
			disputesResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rentchain",
				Subsystem: "disputes",
				Name:      "resolved_total",
				Help:      "Count of resolved disputes segmented by outcome.",
			}, []string{"outcome"}),
			emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rentchain",
				Subsystem: "email",
				Name:      "sent_total",
				Help:      "Outbound emails segmented by result.",
			}, []string{"result"}),
			credits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "rentchain",
				Subsystem: "ledger",
				Name:      "credits",
				Help:      "Credit totals from the last reconciliation segmented by holder.",
			}, []string{"holder"}),
		}
		prometheus.MustRegister(
			coreRegistry.operations,
			coreRegistry.events,
			coreRegistry.escrowFlow,
			coreRegistry.disputesResolved,
			coreRegistry.emailsSent,
			coreRegistry.credits,
		)
	})
	return coreRegistry
}

// RecordOperation counts one finished operation. result is "ok" or the
// lower-cased error kind.
func (m *coreMetrics) RecordOperation(operation, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, normalize(result, "ok")).Inc()
}

func (m *coreMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(normalize(eventType, "unknown")).Inc()
}

// RecordEscrow adds amount to the in or out flow of a pool purpose.
func (m *coreMetrics) RecordEscrow(purpose, direction string, amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.escrowFlow.WithLabelValues(normalize(purpose, "unknown"), direction).Add(float64(amount))
}

func (m *coreMetrics) RecordDisputeResolved(outcome string) {
	if m == nil {
		return
	}
	m.disputesResolved.WithLabelValues(normalize(outcome, "unknown")).Inc()
}

func (m *coreMetrics) RecordEmail(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.emailsSent.WithLabelValues(result).Inc()
}

func normalize(v, fallback string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return fallback
	}
	return v
}

// RecordSupply publishes the reconciled totals. holder is "supply",
// "accounts" or "escrow".
func (m *coreMetrics) RecordSupply(supply, accounts, escrowed int64) {
	if m == nil {
		return
	}
	m.credits.WithLabelValues("supply").Set(float64(supply))
	m.credits.WithLabelValues("accounts").Set(float64(accounts))
	m.credits.WithLabelValues("escrow").Set(float64(escrowed))
}
