package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/observability"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func overdueGauge(t *testing.T, m *observability.Metrics) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "gestorcoop_overdue_tasks" {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("gestorcoop_overdue_tasks not registered")
	return 0
}

func TestOverdueSweeper_Run(t *testing.T) {
	store := seededStore()
	metrics := observability.NewMetrics()
	sweeper := service.NewOverdueSweeper(store, metrics, time.Minute, fixedClock(now), zap.NewNop())

	n, err := sweeper.Run(context.Background())
	require.NoError(t, err)

	// 41 (userA, 2025-06-10) and 44 (userB, 2025-01-01); 42 is completed.
	assert.Equal(t, 2, n)
	assert.Equal(t, 2.0, overdueGauge(t, metrics))

	at, last := sweeper.LastRun()
	assert.Equal(t, now, at)
	assert.Equal(t, 2, last)
}

func TestOverdueSweeper_RunUsesUTCDay(t *testing.T) {
	store := seededStore()
	// 22:00 in Brasília on the 20th is already the 21st in UTC, so 43 (due 06-20) counts.
	brt := time.Date(2025, 6, 20, 22, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	sweeper := service.NewOverdueSweeper(store, observability.NewMetrics(), time.Minute, fixedClock(brt), zap.NewNop())

	n, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOverdueSweeper_RunKeepsLastResultOnError(t *testing.T) {
	store := seededStore()
	sweeper := service.NewOverdueSweeper(store, observability.NewMetrics(), time.Minute, fixedClock(now), zap.NewNop())

	_, err := sweeper.Run(context.Background())
	require.NoError(t, err)

	store.err = errors.New("postgrest down")
	_, err = sweeper.Run(context.Background())
	assert.Error(t, err)

	_, last := sweeper.LastRun()
	assert.Equal(t, 2, last)
}

func TestOverdueSweeper_StartRunsImmediately(t *testing.T) {
	store := seededStore()
	sweeper := service.NewOverdueSweeper(store, observability.NewMetrics(), time.Hour, fixedClock(now), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, sweeper.Start(ctx))

	assert.Eventually(t, func() bool {
		return store.count("ListOverdueTarefas") >= 1
	}, 2*time.Second, 10*time.Millisecond)
}
