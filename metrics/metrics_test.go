package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusRecorder(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.ObserveTurn("reply", OutcomeOK, 50*time.Millisecond)
	rec.ObserveTurn("reply", OutcomeOK, 10*time.Millisecond)
	rec.IncSignal(true)
	rec.IncFinalize(FinalizeSuccess)
	rec.IncSeed(false)

	assert.InDelta(t, 2, testutil.ToFloat64(rec.turnsTotal.WithLabelValues("reply", OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(rec.signalsTotal.WithLabelValues("true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(rec.finalizeTotal.WithLabelValues(FinalizeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(rec.seedsTotal.WithLabelValues("error")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(rec.turnDuration))
}

func TestNop(t *testing.T) {
	t.Parallel()
	rec := Nop()
	rec.ObserveTurn("welcome", OutcomeError, time.Second)
	rec.IncSignal(false)
	rec.IncFinalize(FinalizeFailed)
	rec.IncSeed(true)
}
