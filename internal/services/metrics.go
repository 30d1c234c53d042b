package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the recommendation core.
type Metrics struct {
	RecommendationRequests *prometheus.CounterVec
	TasteRecomputes        prometheus.Counter
	MoodFailures           prometheus.Counter
	MoodSuggestionsParsed  prometheus.Histogram
}

// NewMetrics registers the instruments with reg. Tests pass a fresh registry
// to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecommendationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "moviebrain_recommendation_requests_total",
			Help: "Recommendation requests by serving mode",
		}, []string{"mode"}),
		TasteRecomputes: factory.NewCounter(prometheus.CounterOpts{
			Name: "moviebrain_taste_recomputes_total",
			Help: "Taste vector recomputations",
		}),
		MoodFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "moviebrain_mood_failures_total",
			Help: "Mood pipeline failures surfaced as unavailable",
		}),
		MoodSuggestionsParsed: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "moviebrain_mood_suggestions_parsed",
			Help:    "Number of catalog-resolved suggestions per mood request",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		}),
	}
}
