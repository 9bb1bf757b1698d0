// Package metrics exposes dinner activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/potluck/core/dinner"
)

const namespace = "potluck"

type Recorder struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	archives  *prometheus.CounterVec
	attended  prometheus.Histogram
}

var _ dinner.Listener = (*Recorder)(nil)

// NewRecorder registers the dinner metrics together with the Go and process collectors on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dinner",
			Name:      "mutations_total",
			Help:      "Successful dinner mutations by record and operation.",
		}, []string{"which", "op"}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dinner",
			Name:      "archives_total",
			Help:      "Archived dinners by trigger.",
		}, []string{"trigger"}),
		attended: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dinner",
			Name:      "attendees",
			Help:      "People RSVPed to archived dinners.",
			Buckets:   prometheus.LinearBuckets(0, 10, 10),
		}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.mutations,
		r.archives,
		r.attended,
	)
	return r
}

func (r *Recorder) DinnerChanged(_ context.Context, which dinner.Which, op string) {
	r.mutations.WithLabelValues(string(which), op).Inc()
}

func (r *Recorder) DinnerArchived(_ context.Context, e dinner.ArchiveEvent) {
	r.archives.WithLabelValues(e.Trigger).Inc()
	r.attended.Observe(float64(e.Summary().People))
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
