// Package metrics exports pipeline, cache and task metrics to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "media_service"

// Observer records pipeline step latency, cache effectiveness and task outcomes.
// A nil *Observer is valid and records nothing.
type Observer struct {
	stepDuration *prometheus.HistogramVec
	stepErrors   *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	tasks        *prometheus.CounterVec
}

// New registers the collectors with reg, reusing collectors that are already
// registered under the same name.
func New(namespace string, reg prometheus.Registerer) (*Observer, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	var err error
	o := &Observer{}

	o.stepDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_step_duration_seconds",
		Help:      "Latency of media pipeline steps.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"step"}))
	if err != nil {
		return nil, err
	}

	o.stepErrors, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_step_errors_total",
		Help:      "Count of failed media pipeline steps.",
	}, []string{"step"}))
	if err != nil {
		return nil, err
	}

	o.cacheLookups, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Derived media cache lookups by result.",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}

	o.tasks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_total",
		Help:      "Background tasks executed by kind and status.",
	}, []string{"kind", "status"}))
	if err != nil {
		return nil, err
	}

	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, fmt.Errorf("register collector: %w", err)
	}

	return c, nil
}

// ObserveStep records one pipeline step run.
func (o *Observer) ObserveStep(step string, took time.Duration, err error) {
	if o == nil {
		return
	}

	o.stepDuration.WithLabelValues(step).Observe(took.Seconds())
	if err != nil {
		o.stepErrors.WithLabelValues(step).Inc()
	}
}

// CacheHit records a derived media served from cache.
func (o *Observer) CacheHit() {
	if o == nil {
		return
	}

	o.cacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records a derived media computed on demand.
func (o *Observer) CacheMiss() {
	if o == nil {
		return
	}

	o.cacheLookups.WithLabelValues("miss").Inc()
}

// TaskFinished records a task outcome.
func (o *Observer) TaskFinished(kind, status string) {
	if o == nil {
		return
	}

	o.tasks.WithLabelValues(kind, status).Inc()
}
