package hooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Skryldev/image-transform/core"
)

// PrometheusCollector exports stage and job metrics.  Register it with
// MustRegister on a prometheus.Registerer of your choice.
type PrometheusCollector struct {
	stageSeconds *prometheus.HistogramVec
	stageErrors  *prometheus.CounterVec
	jobs         *prometheus.CounterVec
	jobSeconds   prometheus.Histogram
}

var (
	_ core.MetricsCollector = (*PrometheusCollector)(nil)
	_ prometheus.Collector  = (*PrometheusCollector)(nil)
)

// NewPrometheusCollector creates the metric vectors under namespace.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each job stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Stage failures by stage and error kind.",
		}, []string{"stage", "kind"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Finished jobs by outcome.",
		}, []string{"outcome", "kind"}),
		jobSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time from submission to result.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
	}
}

func (p *PrometheusCollector) RecordStageTime(stage core.Stage, d time.Duration) {
	p.stageSeconds.WithLabelValues(string(stage)).Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordStageError(stage core.Stage, kind string) {
	p.stageErrors.WithLabelValues(string(stage), kind).Inc()
}

func (p *PrometheusCollector) RecordJob(res core.TransformResult) {
	if res.OK {
		p.jobs.WithLabelValues("ok", "").Inc()
	} else {
		p.jobs.WithLabelValues("failed", kindLabel(res.Err)).Inc()
	}
	p.jobSeconds.Observe(res.Duration.Seconds())
}

func (p *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	p.stageSeconds.Describe(ch)
	p.stageErrors.Describe(ch)
	p.jobs.Describe(ch)
	p.jobSeconds.Describe(ch)
}

func (p *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	p.stageSeconds.Collect(ch)
	p.stageErrors.Collect(ch)
	p.jobs.Collect(ch)
	p.jobSeconds.Collect(ch)
}

// Multi fans every observation out to several collectors.
type Multi []core.MetricsCollector

func (m Multi) RecordStageTime(stage core.Stage, d time.Duration) {
	for _, c := range m {
		c.RecordStageTime(stage, d)
	}
}

func (m Multi) RecordStageError(stage core.Stage, kind string) {
	for _, c := range m {
		c.RecordStageError(stage, kind)
	}
}

func (m Multi) RecordJob(res core.TransformResult) {
	for _, c := range m {
		c.RecordJob(res)
	}
}
