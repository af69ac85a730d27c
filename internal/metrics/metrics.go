// Package metrics exposes Prometheus collectors for planning operations and
// real-time event delivery.
package metrics

import (
	"context"
	"time"
	"work-allocation/internal/apperr"
	"work-allocation/internal/events"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records operation outcomes and event deliveries.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	published  *prometheus.CounterVec
}

// NewRecorder registers planning metrics on reg. If reg is nil, the default
// registerer is used. Already registered collectors are reused.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planning_operations_total",
		Help: "Planning operations by outcome",
	}, []string{"operation", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planning_operation_duration_seconds",
		Help:    "Duration of planning operations including store round-trips",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planning_events_published_total",
		Help: "Real-time events handed to the transport",
	}, []string{"event", "result"})

	var err error
	if operations, err = register(reg, operations); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if published, err = register(reg, published); err != nil {
		return nil, err
	}

	return &Recorder{operations: operations, latency: latency, published: published}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveOperation records the outcome and duration of one operation.
// The outcome label is "ok" or the error kind.
func (r *Recorder) ObserveOperation(op string, started time.Time, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	r.operations.WithLabelValues(op, outcome).Inc()
	r.latency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// EventPublished counts one event handed to the transport.
func (r *Recorder) EventPublished(name string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.published.WithLabelValues(name, result).Inc()
}

// InstrumentPublisher wraps next so every publish is counted.
func InstrumentPublisher(next events.Publisher, r *Recorder) events.Publisher {
	if r == nil {
		return next
	}
	return events.PublisherFunc(func(ctx context.Context, room, name string, payload any) error {
		err := next.Publish(ctx, room, name, payload)
		r.EventPublished(name, err)
		return err
	})
}
