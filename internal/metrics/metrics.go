package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus counters. A nil *Metrics is valid
// and records nothing, which keeps unit tests free of registry setup.
type Metrics struct {
	Searches        prometheus.Counter
	ClaimAttempts   prometheus.Counter
	NumbersSold     prometheus.Counter
	ClaimConflicts  prometheus.Counter
	RefundsRequired prometheus.Counter
}

// New creates and registers all counters on the default registry.
func New() *Metrics {
	return &Metrics{
		Searches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "army_number_searches_total",
			Help: "Total number availability searches served",
		}),
		ClaimAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "army_number_claim_attempts_total",
			Help: "Total claim attempts, successful or not",
		}),
		NumbersSold: promauto.NewCounter(prometheus.CounterOpts{
			Name: "army_numbers_sold_total",
			Help: "Total numbers successfully claimed",
		}),
		ClaimConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "army_number_claim_conflicts_total",
			Help: "Claims lost to a concurrent buyer",
		}),
		RefundsRequired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "army_number_refunds_required_total",
			Help: "Post-payment conflicts flagged for manual refund",
		}),
	}
}

func (m *Metrics) IncSearches() {
	if m != nil {
		m.Searches.Inc()
	}
}

func (m *Metrics) IncClaimAttempts() {
	if m != nil {
		m.ClaimAttempts.Inc()
	}
}

func (m *Metrics) IncNumbersSold() {
	if m != nil {
		m.NumbersSold.Inc()
	}
}

func (m *Metrics) IncClaimConflicts() {
	if m != nil {
		m.ClaimConflicts.Inc()
	}
}

func (m *Metrics) IncRefundsRequired() {
	if m != nil {
		m.RefundsRequired.Inc()
	}
}
