// Package metrics provides Prometheus metrics collection for creditgate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for creditgate.
type Collector struct {
	// Generation metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	GenerationErrors   *prometheus.CounterVec

	// Entitlement metrics
	DenialsTotal *prometheus.CounterVec

	// Ledger metrics
	CreditsDebited   *prometheus.CounterVec
	DebitFailures    prometheus.Counter
	GuestGenerations prometheus.Counter

	// Catalog metrics
	CatalogLoads         prometheus.Counter
	CatalogFallbacks     prometheus.Counter
	CatalogSaves         prometheus.Counter
	CatalogSaveConflicts prometheus.Counter
}

// New creates a new metrics collector with all metrics registered.
func New() *Collector {
	return &Collector{
		GenerationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "creditgate",
				Name:      "generations_total",
				Help:      "Total generation calls completed, by service and subject kind",
			},
			[]string{"service", "subject"},
		),
		GenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "creditgate",
				Name:      "generation_duration_seconds",
				Help:      "Generation RPC duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service"},
		),
		GenerationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "creditgate",
				Name:      "generation_errors_total",
				Help:      "Generation RPC failures, by service",
			},
			[]string{"service"},
		),
		DenialsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "creditgate",
				Name:      "denials_total",
				Help:      "Entitlement denials, by service and reason",
			},
			[]string{"service", "reason"},
		),
		CreditsDebited: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "creditgate",
				Name:      "credits_debited_total",
				Help:      "Credits debited from user balances, by service",
			},
			[]string{"service"},
		),
		DebitFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "creditgate",
				Name:      "debit_failures_total",
				Help:      "Balance writes that failed after a successful generation",
			},
		),
		GuestGenerations: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "creditgate",
				Name:      "guest_generations_total",
				Help:      "Generations performed against the guest allowance",
			},
		),
		CatalogLoads: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "creditgate",
				Name:      "catalog_loads_total",
				Help:      "Plan catalog loads from the config store",
			},
		),
		CatalogFallbacks: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "creditgate",
				Name:      "catalog_fallbacks_total",
				Help:      "Catalog loads that fell back to the in-code defaults",
			},
		),
		CatalogSaves: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "creditgate",
				Name:      "catalog_saves_total",
				Help:      "Plan catalog saves",
			},
		),
		CatalogSaveConflicts: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "creditgate",
				Name:      "catalog_save_conflicts_total",
				Help:      "Catalog saves rejected by the version check",
			},
		),
	}
}
