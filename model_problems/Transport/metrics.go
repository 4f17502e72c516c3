package Transport

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics of a transport run, registered on their own registry so runs do not collide.
type Metrics struct {
	Registry     *prometheus.Registry
	Steps        prometheus.Counter
	Adaptations  prometheus.Counter
	Cells        prometheus.Gauge
	SimTime      prometheus.Gauge
	Mass         prometheus.Gauge
	TimeStep     prometheus.Histogram
	StepDuration prometheus.Histogram
}

func NewMetrics() (m *Metrics) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m = &Metrics{
		Registry: reg,
		Steps: factory.NewCounter(prometheus.CounterOpts{
			Name: "fvadapt_steps_total",
			Help: "Time steps taken",
		}),
		Adaptations: factory.NewCounter(prometheus.CounterOpts{
			Name: "fvadapt_adaptations_total",
			Help: "Adaptation cycles that changed the mesh",
		}),
		Cells: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fvadapt_leaf_cells",
			Help: "Current number of leaf cells",
		}),
		SimTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fvadapt_simulation_time",
			Help: "Current simulation time",
		}),
		Mass: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fvadapt_total_mass",
			Help: "Integral of the concentration over the domain",
		}),
		TimeStep: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fvadapt_time_step",
			Help:    "Time step sizes",
			Buckets: prometheus.ExponentialBuckets(1.e-6, 4, 10),
		}),
		StepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fvadapt_step_duration_seconds",
			Help:    "Wall time per step including adaptation",
			Buckets: prometheus.DefBuckets,
		}),
	}
	return
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
