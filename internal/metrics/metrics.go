// Package metrics holds Prometheus instruments that are used across the
// site.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SettingsReadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "site_settings_reads_total",
			Help: "Cumulative number of site settings reads served by the store.",
		})

	SettingsWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "site_settings_writes_total",
			Help: "Cumulative number of successful site settings writes.",
		})

	SettingsDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_settings_denied_total",
			Help: "Settings writes rejected before reaching the store, by reason.",
		}, []string{"reason"})

	DirectoryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_requests_total",
			Help: "Outbound directory calls by operation and outcome.",
		}, []string{"op", "outcome"})

	ContactSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact form submissions by outcome.",
		}, []string{"outcome"})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by matched route pattern and status code.",
		}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(
		SettingsReadsTotal,
		SettingsWritesTotal,
		SettingsDeniedTotal,
		DirectoryRequestsTotal,
		ContactSubmissionsTotal,
		HTTPRequestsTotal,
	)
}
