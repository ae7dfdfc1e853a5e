// Package prometheus exports crawl metrics in the Prometheus format.
package prometheus

import (
	"net/http"

	"github.com/fwojciec/siteingest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ensure Recorder implements siteingest.Observer at compile time.
var _ siteingest.Observer = (*Recorder)(nil)

const namespace = "siteingest"

// Recorder counts crawl task outcomes.
type Recorder struct {
	tasks      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	discovered prometheus.Counter
	enqueued   prometheus.Counter
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Crawl tasks by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall time of crawl tasks, pacing included.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
		}, []string{"result"}),
		discovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_discovered_total",
			Help:      "Anchors found on visited pages.",
		}),
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_enqueued_total",
			Help:      "In-scope links offered to the frontier.",
		}),
	}
	reg.MustRegister(r.tasks, r.duration, r.discovered, r.enqueued)
	return r
}

// OnOutcome implements siteingest.Observer.
func (r *Recorder) OnOutcome(o siteingest.Outcome) {
	result := o.Result.String()
	r.tasks.WithLabelValues(result).Inc()
	r.duration.WithLabelValues(result).Observe(o.Duration.Seconds())
	r.discovered.Add(float64(o.Discovered))
	r.enqueued.Add(float64(o.Enqueued))
}

// RegisterFrontier exports the frontier size by state. stats is called on
// every scrape.
func RegisterFrontier(reg prometheus.Registerer, stats func() siteingest.FrontierStats) {
	gauge := func(name, help string, pick func(siteingest.FrontierStats) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "frontier",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(pick(stats())) })
	}
	reg.MustRegister(
		gauge("queued", "URLs waiting to be claimed.", func(s siteingest.FrontierStats) int { return s.Queued }),
		gauge("claimed", "URLs claimed and in flight.", func(s siteingest.FrontierStats) int { return s.Claimed }),
		gauge("visited", "URLs whose visit finished.", func(s siteingest.FrontierStats) int { return s.Visited }),
	)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
