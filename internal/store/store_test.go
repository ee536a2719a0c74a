package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "fantasy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []rider.Record{
		{Rider: "Tadej Pogačar", Team: "UAE", URL: "https://www.procyclingstats.com/rider/tadej-pogacar", Role: "Leader", Value: 500},
		{Rider: "Domestique", Team: "UAE", Value: 50, Adj: 5},
	}
	run := &Run{Stage: StageValue, Race: "race/tour-de-france/2025", P10: 12, P99: 9000, Target: "data/values.json"}
	require.NoError(t, s.RecordRun(ctx, run, RidersFromRecords(records, []float64{11680, 0})))
	require.NotZero(t, run.ID)
	require.Equal(t, 2, run.Riders)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, StageValue, got.Stage)
	require.Equal(t, "race/tour-de-france/2025", got.Race)
	require.Equal(t, 2, got.Riders)
	require.Equal(t, 9000.0, got.P99)
	require.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Second)

	riders, err := s.ListRunRiders(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, riders, 2)
	require.Equal(t, 1, riders[0].Position)
	require.Equal(t, "Tadej Pogačar", riders[0].Rider)
	require.Equal(t, 11680.0, riders[0].Points)
	require.Equal(t, 5.0, riders[1].Adj)
	require.Equal(t, run.ID, riders[1].RunID)
}

func TestRecordEmptyRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &Run{Stage: StageCollect}
	require.NoError(t, s.RecordRun(ctx, run, nil))

	riders, err := s.ListRunRiders(ctx, run.ID)
	require.NoError(t, err)
	require.Empty(t, riders)
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, stage := range []string{StageCollect, StageValue, StagePublish, StageCollect} {
		require.NoError(t, s.RecordRun(ctx, &Run{Stage: stage}, nil))
	}

	all, err := s.ListRuns(ctx, RunListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Greater(t, all[0].ID, all[1].ID, "newest first")

	collects, err := s.ListRuns(ctx, RunListOpts{Stage: StageCollect})
	require.NoError(t, err)
	require.Len(t, collects, 2)

	limited, err := s.ListRuns(ctx, RunListOpts{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, StageCollect, limited[0].Stage)
}

func TestLatestRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LatestRun(ctx, StageValue)
	require.True(t, errors.Is(err, ErrNotFound))

	first := &Run{Stage: StageValue, Target: "a.json"}
	second := &Run{Stage: StageValue, Target: "b.json"}
	require.NoError(t, s.RecordRun(ctx, first, nil))
	require.NoError(t, s.RecordRun(ctx, &Run{Stage: StagePublish}, nil))
	require.NoError(t, s.RecordRun(ctx, second, nil))

	latest, err := s.LatestRun(ctx, StageValue)
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)
	require.Equal(t, "b.json", latest.Target)
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}
