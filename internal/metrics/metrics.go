// Package metrics holds the Prometheus collectors of the service. They are
// registered on the default registry and served by the HTTP side server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedRequestsTotal counts feed assemblies by outcome (ok, empty, error, cached).
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songmatch_feed_requests_total",
			Help: "Total number of discovery feed requests",
		},
		[]string{"outcome"},
	)

	// FeedAssemblyDuration tracks how long an uncached feed takes to build.
	FeedAssemblyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "songmatch_feed_assembly_duration_seconds",
			Help:    "Duration of discovery feed assembly in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// FeedSize observes the number of entries returned.
	FeedSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "songmatch_feed_size",
			Help:    "Number of entries in an assembled feed",
			Buckets: prometheus.LinearBuckets(0, 3, 6),
		},
	)

	// FeedFallbackTotal counts feeds built by the store-side exclusion query.
	FeedFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "songmatch_feed_fallback_total",
			Help: "Total number of feeds assembled through the fallback query",
		},
	)

	// FeedCacheTotal counts feed cache lookups by result (hit, miss, error).
	FeedCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songmatch_feed_cache_total",
			Help: "Feed cache lookups by result",
		},
		[]string{"result"},
	)

	// SwipesTotal counts recorded swipes by direction.
	SwipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songmatch_swipes_total",
			Help: "Total number of recorded swipes",
		},
		[]string{"direction"},
	)

	// MatchesTotal counts match attempts by result (created, exists, not_reciprocal, friends).
	MatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songmatch_match_attempts_total",
			Help: "Match creation attempts by result",
		},
		[]string{"result"},
	)

	// PreferenceRefreshTotal counts preference refreshes by result (ok, skipped, error, open).
	PreferenceRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songmatch_preference_refresh_total",
			Help: "Music preference refreshes by result",
		},
		[]string{"result"},
	)

	// EventPublishFailuresTotal counts match events that could not be published.
	EventPublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "songmatch_event_publish_failures_total",
			Help: "Total number of failed match event publications",
		},
	)
)
