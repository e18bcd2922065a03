package healthid

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	modeSingle = "single"
	modeBatch  = "batch"
)

// Metrics holds the Prometheus collectors for Health ID generation. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Generated       *prometheus.CounterVec
	ExistenceChecks *prometheus.CounterVec
	CheckDuration   prometheus.Histogram
	Exhausted       prometheus.Counter
	BatchCollisions prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Generated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthid_generated_total",
			Help: "Health IDs produced by the generator",
		}, []string{"mode"}),
		ExistenceChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthid_existence_checks_total",
			Help: "Directory existence checks by outcome",
		}, []string{"result"}),
		CheckDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "healthid_existence_check_seconds",
			Help:    "Time spent waiting for directory existence checks",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		Exhausted: f.NewCounter(prometheus.CounterOpts{
			Name: "healthid_generation_exhausted_total",
			Help: "Generation calls that ran out of attempts",
		}),
		BatchCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "healthid_batch_collisions_total",
			Help: "In-batch duplicates that triggered a regeneration",
		}),
	}
}

func (m *Metrics) generated(mode string) {
	if m == nil {
		return
	}
	m.Generated.WithLabelValues(mode).Inc()
}

func (m *Metrics) observeCheck(e Existence) {
	if m == nil {
		return
	}
	m.ExistenceChecks.WithLabelValues(e.Result.String()).Inc()
	m.CheckDuration.Observe(e.Elapsed.Seconds())
}

func (m *Metrics) exhausted() {
	if m == nil {
		return
	}
	m.Exhausted.Inc()
}

func (m *Metrics) batchCollision() {
	if m == nil {
		return
	}
	m.BatchCollisions.Inc()
}
