package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	sessionsStarted *prometheus.CounterVec
	navigations     *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	totals          *prometheus.HistogramVec
	archives        *prometheus.CounterVec
}

var singleton = sync.OnceValue(func() *metrics {
	return &metrics{
		sessionsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Name:      "wizard_sessions_started_total",
			Help:      "Total number of wizard sessions started.",
		}, []string{"variant"}),
		navigations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Name:      "wizard_navigations_total",
			Help:      "Total number of step navigation attempts.",
		}, []string{"variant", "from", "result"}),
		submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Name:      "submissions_total",
			Help:      "Total number of assessment submissions.",
		}, []string{"variant", "result"}),
		totals: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assessment",
			Name:      "submitted_total_score",
			Help:      "Distribution of submitted total scores.",
			Buckets:   []float64{20, 40, 60, 70, 80, 90, 100},
		}, []string{"variant"}),
		archives: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Name:      "archive_jobs_total",
			Help:      "Total number of archive jobs processed by the worker.",
		}, []string{"result"}),
	}
})

func result(ok bool) string {
	if ok {
		return "allowed"
	}
	return "blocked"
}

func SessionStarted(variant string) {
	singleton().sessionsStarted.WithLabelValues(variant).Inc()
}

func Navigation(variant string, from int, allowed bool) {
	singleton().navigations.WithLabelValues(variant, strconv.Itoa(from), result(allowed)).Inc()
}

func Submission(variant, outcome string) {
	singleton().submissions.WithLabelValues(variant, outcome).Inc()
}

func SubmittedTotal(variant string, total int) {
	singleton().totals.WithLabelValues(variant).Observe(float64(total))
}

func Archive(outcome string) {
	singleton().archives.WithLabelValues(outcome).Inc()
}
