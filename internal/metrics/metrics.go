// Package metrics exports run statistics as Prometheus collectors.
//
// A Recorder registers its collectors on a caller-supplied registry; eqsat
// never touches the global default registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/eqsat/internal/engine"
)

const namespace = "eqsat"

// Recorder holds the collectors for one registry.
type Recorder struct {
	iterations   prometheus.Counter
	applications *prometheus.CounterVec
	stops        *prometheus.CounterVec
	phases       *prometheus.HistogramVec
	runDuration  prometheus.Histogram
	nodes        prometheus.Gauge
	classes      prometheus.Gauge
	bans         *prometheus.GaugeVec
}

// New creates a Recorder and registers its collectors on reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Completed saturation steps.",
		}),
		applications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_applications_total",
			Help:      "Steps in which a rule changed the graph.",
		}, []string{"rule"}),
		stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stops_total",
			Help:      "Finished runs by stop reason.",
		}, []string{"kind"}),
		phases: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of the search, apply and rebuild phases.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"phase"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of whole runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "egraph_nodes",
			Help:      "E-nodes at the start of the latest step.",
		}),
		classes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "egraph_classes",
			Help:      "E-classes at the start of the latest step.",
		}),
		bans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rule_times_banned",
			Help:      "Times the scheduler has banned each rule.",
		}, []string{"rule"}),
	}

	for _, c := range []prometheus.Collector{
		r.iterations, r.applications, r.stops, r.phases,
		r.runDuration, r.nodes, r.classes, r.bans,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

// ObserveIteration records one completed step.
func (r *Recorder) ObserveIteration(it engine.Iteration) {
	r.iterations.Inc()
	r.nodes.Set(float64(it.EGraphNodes))
	r.classes.Set(float64(it.EGraphClasses))
	r.phases.WithLabelValues("search").Observe(it.SearchTime.Seconds())
	r.phases.WithLabelValues("apply").Observe(it.ApplyTime.Seconds())
	r.phases.WithLabelValues("rebuild").Observe(it.RebuildTime.Seconds())
	it.Applied.Each(func(rule string, count int) {
		r.applications.WithLabelValues(rule).Add(float64(count))
	})
}

// ObserveStop records the reason a run ended. Stops that are not built-in
// StopReasons are counted as "custom".
func (r *Recorder) ObserveStop(reason error) {
	kind := "custom"
	if sr, ok := engine.AsStopReason(reason); ok {
		kind = string(sr.Kind)
	}
	r.stops.WithLabelValues(kind).Inc()
}

// ObserveReport records every iteration, the stop and the run duration.
func (r *Recorder) ObserveReport(report engine.RunReport) {
	for _, it := range report.Iterations {
		r.ObserveIteration(it)
	}
	r.ObserveStop(report.StopReason)
	r.ObserveRunTime(report.RulesTime)
}

// ObserveRunTime records the wall time of a whole run.
func (r *Recorder) ObserveRunTime(d time.Duration) {
	r.runDuration.Observe(d.Seconds())
}

// ObserveStats publishes the scheduler's ban counts.
func (r *Recorder) ObserveStats(stats *engine.StatsTable) {
	for _, name := range stats.Names() {
		s, _ := stats.Get(name)
		r.bans.WithLabelValues(name).Set(float64(s.TimesBanned))
	}
}
