// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package metrics defines the Prometheus counters of the application.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application counters. A nil *Metrics records nothing.
type Metrics struct {
	Logins        *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	GateDenials   *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	Requests      *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates the counters on a private registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_auth_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_auth_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		GateDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_gate_denials_total",
			Help: "Requests refused by the access control gate by reason",
		}, []string{"reason"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_notifications_total",
			Help: "Notification deliveries by outcome",
		}, []string{"outcome"}),
		Requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shopdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		registry: reg,
	}

	reg.MustRegister(m.Logins, m.Registrations, m.GateDenials, m.Notifications, m.Requests)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) Login(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Registration(outcome string) {
	if m != nil {
		m.Registrations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) GateDenial(reason string) {
	if m != nil {
		m.GateDenials.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) Notification(outcome string) {
	if m != nil {
		m.Notifications.WithLabelValues(outcome).Inc()
	}
}

// ObserveRequest records the duration of one HTTP request in seconds.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m != nil {
		m.Requests.WithLabelValues(method, route, status).Observe(seconds)
	}
}
