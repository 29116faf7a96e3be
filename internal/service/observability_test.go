package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Moiss/building/internal/pkg/metrics"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestObserver_ReceivesSuccessAndFailure(t *testing.T) {
	e := newTestEnv(t)
	s := e.seedSite(t)
	rec := &recordingObserver{}
	svc := NewProgressService(e.uow, e.deps, rec)
	ctx := context.Background()

	_, err := svc.Submit(ctx, submitReq(s.work, s.a, 80))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, submitReq(s.work, s.a, 30))
	require.Error(t, err)

	require.Len(t, rec.events, 2)
	ok, failed := rec.events[0], rec.events[1]

	assert.Equal(t, "progress.submit", ok.Name)
	assert.True(t, ok.Success)
	assert.NoError(t, ok.Err)
	assert.Equal(t, s.a.ID, ok.Fields["line_id"])
	assert.NotEmpty(t, ok.Fields["event_id"])

	assert.False(t, failed.Success)
	assert.Equal(t, err, failed.Err)
	assert.NotContains(t, failed.Fields, "event_id")
}

func TestObserver_FansOutToEveryObserver(t *testing.T) {
	e := newTestEnv(t)
	s := e.seedSite(t)
	first, second := &recordingObserver{}, &recordingObserver{}

	_, err := NewAlertService(e.uow, e.deps, first, second).Rebuild(context.Background(), s.work.ID)
	require.NoError(t, err)
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
	assert.Equal(t, "alerts.rebuild", second.events[0].Name)
}

func TestLogUseCaseObserver(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	obs := NewLogUseCaseObserver(zap.New(core))

	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name: "cost.record", Success: true, Fields: map[string]any{"work_id": "w-1"},
	})
	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name: "cost.record", Err: assert.AnError,
	})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "cost.record", entries[0].ContextMap()["use_case"])
	assert.Equal(t, "w-1", entries[0].ContextMap()["work_id"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, assert.AnError.Error(), entries[1].ContextMap()["error"])

	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil))
}

func TestMetricsUseCaseObserver(t *testing.T) {
	counter := metrics.UseCaseTotal.WithLabelValues("test.metrics_observer", "false")
	before := promtest.ToFloat64(counter)

	NewMetricsUseCaseObserver().ObserveUseCase(context.Background(), UseCaseEvent{
		Name: "test.metrics_observer", Err: assert.AnError,
	})
	assert.Equal(t, before+1, promtest.ToFloat64(counter))
}

func TestLedgerMetrics_CountRejections(t *testing.T) {
	e := newTestEnv(t)
	s := e.seedSite(t)
	svc := e.progress()
	ctx := context.Background()

	rejected := metrics.ProgressEventsTotal.WithLabelValues("submit", "rejected")
	before := promtest.ToFloat64(rejected)

	_, err := svc.Submit(ctx, submitReq(s.work, s.a, 0))
	require.Error(t, err)
	assert.Equal(t, before+1, promtest.ToFloat64(rejected))
}
