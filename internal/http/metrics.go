package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashrecon_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cashrecon_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	ledgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashrecon_ledger_operations_total",
		Help: "Ledger operations by name and outcome.",
	}, []string{"operation", "outcome"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashrecon_cache_lookups_total",
		Help: "Read cache lookups by cache name and result.",
	}, []string{"cache", "result"})
)

func observeOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ledgerOperations.WithLabelValues(operation, outcome).Inc()
}

func observeCache(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}
