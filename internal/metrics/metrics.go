// Package metrics collects Prometheus counters for profile synchronisation,
// auth events, lead capture and remote failures.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Profile sync results
const (
	SyncFound   = "found"
	SyncCreated = "created"
	SyncError   = "error"
)

// Inquiry stores
const (
	StorePrimary  = "primary"
	StoreFallback = "fallback"
)

// Recorder is what services and the synchronizer record into.
type Recorder interface {
	RecordProfileSync(result string)
	RecordAuthEvent(event string)
	RecordInquiry(store string)
	RecordRemoteFailure(kind string)
}

type Collector struct {
	profileSync    *prometheus.CounterVec
	authEvents     *prometheus.CounterVec
	inquiries      *prometheus.CounterVec
	remoteFailures *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		profileSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adme_profile_sync_total",
			Help: "Profile synchronisations by result.",
		}, []string{"result"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adme_auth_events_total",
			Help: "Auth state change events observed by kind.",
		}, []string{"event"}),
		inquiries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adme_inquiries_total",
			Help: "Contact inquiries stored, by store.",
		}, []string{"store"}),
		remoteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adme_remote_failures_total",
			Help: "Failed calls to the auth or storage service, by error kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(c.profileSync, c.authEvents, c.inquiries, c.remoteFailures)

	return c
}

func (c *Collector) RecordProfileSync(result string) {
	c.profileSync.WithLabelValues(result).Inc()
}

func (c *Collector) RecordAuthEvent(event string) {
	c.authEvents.WithLabelValues(event).Inc()
}

func (c *Collector) RecordInquiry(store string) {
	c.inquiries.WithLabelValues(store).Inc()
}

func (c *Collector) RecordRemoteFailure(kind string) {
	c.remoteFailures.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordProfileSync(string)   {}
func (Nop) RecordAuthEvent(string)     {}
func (Nop) RecordInquiry(string)       {}
func (Nop) RecordRemoteFailure(string) {}
