package metrics

import (
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/collager/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the collager collectors
	Registry = prometheus.NewRegistry()

	builds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collager",
			Subsystem: "builds",
			Name:      "total",
			Help:      "Total number of collage builds.",
		},
		[]string{"status"},
	)

	buildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "collager",
			Subsystem: "builds",
			Name:      "duration_seconds",
			Help:      "Duration of successful collage builds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)

	imagesPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "collager",
			Subsystem: "images",
			Name:      "placed_total",
			Help:      "Images pasted into collages.",
		},
	)

	imagesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "collager",
			Subsystem: "images",
			Name:      "dropped_total",
			Help:      "Images left out because the grid was full.",
		},
	)

	imagesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "collager",
			Subsystem: "images",
			Name:      "skipped_total",
			Help:      "Images that could not be decoded or transcoded.",
		},
	)

	uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collager",
			Subsystem: "uploads",
			Name:      "total",
			Help:      "Files added to or removed from the upload folder.",
		},
		[]string{"op"},
	)
)

func init() {
	Registry.MustRegister(
		builds,
		buildDuration,
		imagesPlaced,
		imagesDropped,
		imagesSkipped,
		uploads,
	)
}

// Handler exposes the registry for scraping
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordBuild records the outcome of one build. summary is nil when err is set.
func RecordBuild(summary *models.BuildSummary, d time.Duration, err error) {
	if err != nil {
		builds.WithLabelValues("error").Inc()
		return
	}
	builds.WithLabelValues("ok").Inc()
	buildDuration.Observe(d.Seconds())
	imagesPlaced.Add(float64(summary.Placed))
	imagesDropped.Add(float64(summary.Dropped))
	imagesSkipped.Add(float64(len(summary.Skipped)))
}

// RecordUpload counts an upload folder change, op is "add" or "delete"
func RecordUpload(op string) {
	uploads.WithLabelValues(op).Inc()
}
