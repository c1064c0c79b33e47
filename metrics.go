package zapstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapstore_client",
			Name:      "fetches_total",
			Help:      "Relay fetch operations started, by operation.",
		},
		[]string{"op"},
	)

	fetchedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapstore_client",
			Name:      "fetched_events_total",
			Help:      "Events returned by relay fetches after dedup, by operation.",
		},
		[]string{"op"},
	)

	cacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapstore_client",
			Name:      "cache_hits_total",
			Help:      "Fetches answered from the local cache, by operation.",
		},
		[]string{"op"},
	)

	zapAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapstore_client",
			Name:      "zap_attempts_total",
			Help:      "Zap attempts by outcome (invoice, failed).",
		},
		[]string{"outcome"},
	)

	zapMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapstore_client",
			Name:      "zap_receipt_matches_total",
			Help:      "Correlated zap receipts by the rule that bound them.",
		},
		[]string{"rule"},
	)
)
