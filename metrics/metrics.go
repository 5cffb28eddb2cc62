// Package metrics exposes Prometheus counters for verification outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for the attempts counter
const (
	OutcomeCooldown = "cooldown"
	OutcomeNoData   = "no_data"
	OutcomeNotFound = "not_found"
	OutcomeVerified = "verified"
	OutcomeError    = "error"
)

// Recorder - what the handlers report
type Recorder interface {
	Attempt(outcome string)
	Join()
	RosterFetch(d time.Duration)
	CooldownSwept(n int)
}

// Option applies a setting to a Manager
type Option func(*Manager)

// WithNamespace - metric name prefix, default "botto"
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry - registry metrics are registered with, default a fresh one
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// Manager - owns the bot's metrics
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	attempts      *prometheus.CounterVec
	joins         prometheus.Counter
	rosterFetch   prometheus.Histogram
	cooldownSwept prometheus.Counter
}

// NewManager - create and register the metrics
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "botto",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.attempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "verify",
		Name:      "attempts_total",
		Help:      "Verification messages handled, by outcome.",
	}, []string{"outcome"})
	m.joins = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "verify",
		Name:      "joins_total",
		Help:      "Member join events handled.",
	})
	m.rosterFetch = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "verify",
		Name:      "roster_fetch_seconds",
		Help:      "Roster read latency.",
		Buckets:   prometheus.DefBuckets,
	})
	m.cooldownSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "verify",
		Name:      "cooldown_evictions_total",
		Help:      "Cooldown entries dropped by the sweeper.",
	})

	m.registry.MustRegister(m.attempts, m.joins, m.rosterFetch, m.cooldownSwept)
	return m
}

// Attempt - count a handled verification message by outcome
func (m *Manager) Attempt(outcome string) {
	m.attempts.WithLabelValues(outcome).Inc()
}

// Join - count a member join
func (m *Manager) Join() {
	m.joins.Inc()
}

// RosterFetch - observe a roster read duration
func (m *Manager) RosterFetch(d time.Duration) {
	m.rosterFetch.Observe(d.Seconds())
}

// CooldownSwept - count cooldown entries dropped by a sweep
func (m *Manager) CooldownSwept(n int) {
	m.cooldownSwept.Add(float64(n))
}

// Handler - /metrics handler for this manager's registry
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Nop - recorder that drops everything
type Nop struct{}

// Attempt - no-op
func (Nop) Attempt(string) {}

// Join - no-op
func (Nop) Join() {}

// RosterFetch - no-op
func (Nop) RosterFetch(time.Duration) {}

// CooldownSwept - no-op
func (Nop) CooldownSwept(int) {}
