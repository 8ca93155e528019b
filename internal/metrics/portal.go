package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Backend API metrics.
var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "litportal",
			Name:      "api_requests_total",
			Help:      "Total number of literature API requests",
		},
		[]string{"endpoint", "status"}, // status: success / rejected / error
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "litportal",
			Name:      "api_request_duration_seconds",
			Help:      "Literature API request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)
)

// Portal state metrics.
var (
	StaleResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "litportal",
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer request of the same kind was issued",
		},
		[]string{"kind"}, // "list" / "detail"
	)

	ArtifactsRemovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "litportal",
			Name:      "render_artifacts_removed_total",
			Help:      "Elements removed from rendered pages by artifact filters",
		},
		[]string{"filter"},
	)

	PanicsRecoveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "litportal",
			Name:      "panics_recovered_total",
			Help:      "Panics contained by the recovery layer",
		},
		[]string{"source"}, // "http" / "goroutine" / "call"
	)
)

// RegisterPortalMetrics registers the API and state metrics on reg.
// Safe to call more than once.
func RegisterPortalMetrics(reg prometheus.Registerer) error {
	if err := registerOrReuse(reg, &APIRequestsTotal); err != nil {
		return err
	}
	if err := registerOrReuse(reg, &APIRequestDuration); err != nil {
		return err
	}
	if err := registerOrReuse(reg, &StaleResponsesTotal); err != nil {
		return err
	}
	if err := registerOrReuse(reg, &ArtifactsRemovedTotal); err != nil {
		return err
	}
	return registerOrReuse(reg, &PanicsRecoveredTotal)
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("register metric: %w", err)
	}
	return nil
}
