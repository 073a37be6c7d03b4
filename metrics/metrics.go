// Package metrics exposes Prometheus counters for the session coordination layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auth_client"

// Refresh and logout outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector holds the client's counters. A nil *Collector is valid and records nothing.
type Collector struct {
	refreshCalls   *prometheus.CounterVec
	refreshJoins   prometheus.Counter
	logoutCalls    *prometheus.CounterVec
	logoutJoins    prometheus.Counter
	requestWaits   prometheus.Counter
	requestRetries *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg skips registration.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		refreshCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_calls_total",
			Help:      "Refresh calls issued to the server, by outcome.",
		}, []string{"outcome"}),
		refreshJoins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_joins_total",
			Help:      "Callers that joined a refresh already in flight instead of issuing one.",
		}),
		logoutCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logout_calls_total",
			Help:      "Logout calls issued to the server, by outcome.",
		}, []string{"outcome"}),
		logoutJoins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logout_joins_total",
			Help:      "Callers that joined a logout already in flight instead of issuing one.",
		}),
		requestWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_refresh_waits_total",
			Help:      "Requests that were held back until an in-flight refresh settled.",
		}),
		requestRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_retries_total",
			Help:      "Requests retried after an authorization failure, by status code.",
		}, []string{"status"}),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.refreshCalls, c.refreshJoins, c.logoutCalls, c.logoutJoins, c.requestWaits, c.requestRetries} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) RefreshCall(outcome string) {
	if c == nil {
		return
	}
	c.refreshCalls.WithLabelValues(outcome).Inc()
}

func (c *Collector) RefreshJoined() {
	if c == nil {
		return
	}
	c.refreshJoins.Inc()
}

func (c *Collector) LogoutCall(outcome string) {
	if c == nil {
		return
	}
	c.logoutCalls.WithLabelValues(outcome).Inc()
}

func (c *Collector) LogoutJoined() {
	if c == nil {
		return
	}
	c.logoutJoins.Inc()
}

func (c *Collector) RequestWaited() {
	if c == nil {
		return
	}
	c.requestWaits.Inc()
}

func (c *Collector) RequestRetried(status string) {
	if c == nil {
		return
	}
	c.requestRetries.WithLabelValues(status).Inc()
}
