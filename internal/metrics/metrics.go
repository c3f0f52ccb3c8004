package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teewatch",
			Name:      "runs_total",
			Help:      "Count of scrape-and-filter runs by outcome.",
		},
		[]string{"status"},
	)

	slotsScraped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "teewatch",
			Name:      "slots_scraped_total",
			Help:      "Count of raw tee time slots scraped from the site.",
		},
	)

	slotsNotified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "teewatch",
			Name:      "slots_notified_total",
			Help:      "Count of newly discovered slots included in notifications.",
		},
	)

	emailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teewatch",
			Name:      "emails_sent_total",
			Help:      "Count of emails sent by kind.",
		},
		[]string{"kind"},
	)

	userErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "teewatch",
			Name:      "user_errors_total",
			Help:      "Count of per-user filter passes that failed.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teewatch",
			Name:      "http_requests_total",
			Help:      "Count of API requests by handler.",
		},
		[]string{"handler"},
	)

	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "teewatch",
			Name:      "run_duration_seconds",
			Help:      "Duration of a full scrape-and-filter run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(runsTotal, slotsScraped, slotsNotified,
			emailsSent, userErrors, httpRequests, runDuration)
	})
}

func IncRun(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

func AddSlotsScraped(n int) {
	slotsScraped.Add(float64(n))
}

func AddSlotsNotified(n int) {
	slotsNotified.Add(float64(n))
}

func IncEmailSent(kind string) {
	emailsSent.WithLabelValues(kind).Inc()
}

func IncUserError() {
	userErrors.Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}

func ObserveRunDuration(seconds float64) {
	runDuration.Observe(seconds)
}
