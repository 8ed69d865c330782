// Package metrics объявляет метрики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_submissions_total",
			Help: "Total number of reservation submissions by result",
		},
		[]string{"result"},
	)

	FallbackWritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_fallback_writes_total",
			Help: "Total number of subscription records written to the fallback store",
		},
	)

	DocumentUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_document_uploads_total",
			Help: "Total number of document uploads by result",
		},
		[]string{"result"},
	)

	QuoteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "quote_duration_seconds",
			Help: "Duration of quote requests in seconds",
		},
	)

	CatalogCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_requests_total",
			Help: "Catalog cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
