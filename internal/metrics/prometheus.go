package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"batchrunner/internal/models"
)

// PrometheusRecorder is a Recorder backed by its own Prometheus registry
type PrometheusRecorder struct {
	registry *prometheus.Registry

	ticks          *prometheus.CounterVec
	jobRuns        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	chunksWritten  *prometheus.CounterVec
	recordsWritten *prometheus.CounterVec
}

func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_scheduler_ticks_total",
			Help: "Total scheduler ticks by outcome.",
		}, []string{"outcome"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_job_runs_total",
			Help: "Total job runs by terminal status.",
		}, []string{"job_name", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batch_job_duration_seconds",
			Help:    "Duration of job runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "status"}),
		chunksWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_chunks_written_total",
			Help: "Total chunks accepted by the writer.",
		}, []string{"step_name"}),
		recordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_records_written_total",
			Help: "Total records accepted by the writer.",
		}, []string{"step_name"}),
	}

	registry.MustRegister(r.ticks, r.jobRuns, r.jobDuration, r.chunksWritten, r.recordsWritten)
	return r
}

func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *PrometheusRecorder) RecordTick(outcome TickOutcome) {
	r.ticks.WithLabelValues(string(outcome)).Inc()
}

func (r *PrometheusRecorder) RecordJob(jobName string, status models.RunStatus, duration time.Duration) {
	r.jobRuns.WithLabelValues(jobName, string(status)).Inc()
	r.jobDuration.WithLabelValues(jobName, string(status)).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) RecordChunk(stepName string, size int) {
	r.chunksWritten.WithLabelValues(stepName).Inc()
	r.recordsWritten.WithLabelValues(stepName).Add(float64(size))
}

var _ Recorder = (*PrometheusRecorder)(nil)
