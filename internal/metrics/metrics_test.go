package metrics

import (
	"context"
	"errors"
	"testing"
	"time"
	"work-allocation/internal/apperr"
	"work-allocation/internal/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	rec.ObserveOperation("assign_worker", time.Now(), nil)
	rec.ObserveOperation("assign_worker", time.Now(), apperr.NotFound("post", "x"))
	rec.ObserveOperation("assign_worker", time.Now(), apperr.NotFound("post", "y"))

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.operations.WithLabelValues("assign_worker", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.operations.WithLabelValues("assign_worker", "not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.latency))
}

func TestRecorderReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewRecorder(reg)
	require.NoError(t, err)
	second, err := NewRecorder(reg)
	require.NoError(t, err)

	first.EventPublished(events.PlanCreated, nil)
	second.EventPublished(events.PlanCreated, nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(first.published.WithLabelValues(events.PlanCreated, "ok")))
}

func TestInstrumentPublisher(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	inner := events.NewRecorder()
	pub := InstrumentPublisher(inner, rec)
	require.NoError(t, pub.Publish(context.Background(), events.DefaultRoom, events.WorkerAssigned, nil))

	inner.Err = errors.New("closed")
	require.Error(t, pub.Publish(context.Background(), events.DefaultRoom, events.WorkerAssigned, nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.published.WithLabelValues(events.WorkerAssigned, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.published.WithLabelValues(events.WorkerAssigned, "error")))
	assert.Len(t, inner.Events(), 2)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.ObserveOperation("create_plan", time.Now(), nil)
		rec.EventPublished(events.PlanCreated, nil)
	})
	inner := events.NewRecorder()
	assert.Equal(t, events.Publisher(inner), InstrumentPublisher(inner, nil))
}
