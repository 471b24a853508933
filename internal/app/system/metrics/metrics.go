// Package metrics exposes Prometheus counters for the OTP and neighborhood
// flows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application counters.
type Metrics struct {
	OTPIssued            *prometheus.CounterVec
	OTPVerify            *prometheus.CounterVec
	RateLimited          *prometheus.CounterVec
	NeighborhoodsCreated prometheus.Counter
	AddressVerified      prometheus.Counter
	StatsRefreshed       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the counters on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		OTPIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mohallahub",
			Name:      "otp_issued_total",
			Help:      "One-time codes issued, by purpose.",
		}, []string{"purpose"}),
		OTPVerify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mohallahub",
			Name:      "otp_verify_total",
			Help:      "Code verifications, by result.",
		}, []string{"result"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mohallahub",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the OTP rate limiter, by operation and scope.",
		}, []string{"operation", "scope"}),
		NeighborhoodsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mohallahub",
			Name:      "neighborhoods_created_total",
			Help:      "Neighborhoods created lazily on address verification.",
		}),
		AddressVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mohallahub",
			Name:      "address_verified_total",
			Help:      "Successful address verifications.",
		}),
		StatsRefreshed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mohallahub",
			Name:      "neighborhood_stats_refreshed_total",
			Help:      "Neighborhood stats recomputations, by trigger.",
		}, []string{"trigger"}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.OTPIssued,
		m.OTPVerify,
		m.RateLimited,
		m.NeighborhoodsCreated,
		m.AddressVerified,
		m.StatsRefreshed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns an http.Handler for Prometheus scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
