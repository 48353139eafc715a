package runner

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry        *prometheus.Registry
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	tasksTotal      *prometheus.CounterVec
	catalogDuration *prometheus.HistogramVec
	outputsTotal    prometheus.Counter
	activeCatalogs  prometheus.Gauge
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assetgen_runner_runs_total",
			Help: "Total generation runs by final status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assetgen_runner_run_duration_seconds",
			Help:    "Wall-clock duration of each generation run.",
			Buckets: prometheus.DefBuckets,
		}),
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assetgen_runner_tasks_total",
			Help: "Total render tasks by catalog family and outcome.",
		}, []string{"family", "status"}),
		catalogDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assetgen_runner_catalog_duration_seconds",
			Help:    "Rendering duration per catalog.",
			Buckets: prometheus.DefBuckets,
		}, []string{"family"}),
		outputsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assetgen_runner_outputs_total",
			Help: "Total files written across all runs, metadata included.",
		}),
		activeCatalogs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "assetgen_runner_active_catalogs",
			Help: "Catalogs currently rendering.",
		}),
	}

	registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.tasksTotal,
		m.catalogDuration,
		m.outputsTotal,
		m.activeCatalogs,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
