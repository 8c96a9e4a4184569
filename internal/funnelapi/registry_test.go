package funnelapi

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/fitness-funnel/internal/funnel"
	"github.com/wolfman30/fitness-funnel/internal/observability/metrics"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

func newTestRegistry(t *testing.T, idle time.Duration, m *metrics.WizardMetrics) (*Registry, *time.Time) {
	t.Helper()
	sub := funnel.SubmitterFunc(func(ctx context.Context, rec funnel.SubmissionRecord) funnel.Outcome {
		return funnel.Succeeded()
	})
	r := NewRegistry(func() *funnel.Wizard {
		return funnel.NewWizard(sub, funnel.Options{}, logging.Discard())
	}, idle, m, logging.Discard())
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	seq := 0
	r.newID = func() string {
		seq++
		return fmt.Sprintf("s%d", seq)
	}
	return r, &now
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r, _ := newTestRegistry(t, time.Hour, nil)

	id, w := r.Create()
	assert.Equal(t, "s1", id)
	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, w, got)

	_, ok = r.Get("nope")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SweepEvictsIdle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWizardMetrics(reg)
	r, now := newTestRegistry(t, 30*time.Minute, m)

	stale, _ := r.Create()
	fresh, _ := r.Create()
	assert.EqualValues(t, 2, metrics.Snapshot(reg).ActiveSessions)

	*now = now.Add(20 * time.Minute)
	_, ok := r.Get(fresh)
	require.True(t, ok)

	*now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, r.Sweep())

	_, ok = r.Get(stale)
	assert.False(t, ok)
	_, ok = r.Get(fresh)
	assert.True(t, ok)
	assert.EqualValues(t, 1, metrics.Snapshot(reg).ActiveSessions)
}

func TestRegistry_ZeroIdleKeepsSessions(t *testing.T) {
	r, now := newTestRegistry(t, 0, nil)
	r.Create()
	*now = now.Add(48 * time.Hour)
	assert.Equal(t, 0, r.Sweep())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RunStopsWithContext(t *testing.T) {
	r, _ := newTestRegistry(t, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewRegistry_RequiresFactory(t *testing.T) {
	assert.Panics(t, func() { NewRegistry(nil, time.Hour, nil, nil) })
}
