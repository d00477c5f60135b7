package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Rating writes, labelled by whether they created or updated a row.
	RatingSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storerating_rating_submissions_total",
		Help: "Rating submissions that committed, by outcome",
	}, []string{"outcome"})

	// Rating writes that rolled back.
	RatingFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storerating_rating_failures_total",
		Help: "Rating submissions that were rolled back",
	})

	// Duration of the rating unit of work, from BEGIN to COMMIT/ROLLBACK.
	RatingUnitOfWorkDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storerating_rating_unit_of_work_seconds",
		Help:    "Latency of the rating write and aggregate recompute transaction",
		Buckets: prometheus.DefBuckets,
	})

	// Authorization gate rejections, by reason.
	AuthRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storerating_auth_rejections_total",
		Help: "Requests rejected by the authentication or authorization gate",
	}, []string{"reason"})
)

var once sync.Once

// Init registers the collectors with the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RatingSubmissions,
			RatingFailures,
			RatingUnitOfWorkDuration,
			AuthRejections,
		)
	})
}
