package pmsort

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pmsort"

// Metrics collects per-call statistics. A nil *Metrics records nothing.
type Metrics struct {
	sorts    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	merged   *prometheus.CounterVec
	rounds   *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them with reg, if not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sorts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sorts_total",
			Help:      "Sort calls by scheduler, merge mode and result.",
		}, []string{"scheduler", "mode", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sort_duration_seconds",
			Help:      "Wall time of successful sort calls.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"scheduler", "mode"}),
		merged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merged_elements_total",
			Help:      "Elements written to the auxiliary buffer, by merge primitive.",
		}, []string{"primitive"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_rounds_total",
			Help:      "Merge rounds (or tree levels) completed.",
		}, []string{"scheduler"}),
	}
	if reg != nil {
		reg.MustRegister(m.sorts, m.duration, m.merged, m.rounds)
	}
	return m
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid"
	}
	return "failed"
}

func (m *Metrics) observeSort(s Scheduler, mode MergeMode, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.sorts.WithLabelValues(s.String(), mode.String(), result(err)).Inc()
	if err == nil {
		m.duration.WithLabelValues(s.String(), mode.String()).Observe(d.Seconds())
	}
}

func (m *Metrics) addMerged(primitive string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.merged.WithLabelValues(primitive).Add(float64(n))
}

func (m *Metrics) addRounds(s Scheduler, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rounds.WithLabelValues(s.String()).Add(float64(n))
}
