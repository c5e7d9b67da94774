package runstore

import (
	"context"
	"testing"
	"time"

	"civicsearch-backend/lib/configuration"
	"civicsearch-backend/lib/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "runstore",
		DbSchema: Schema,
	})
	t.Cleanup(cleanup)
	return NewStore(result.DB)
}

func TestOpenDBAppliesSchema(t *testing.T) {
	db, err := OpenDB(configuration.RunDatabaseConfig{File: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	require.NoError(t, store.Record(context.Background(), Row{
		RunId:      uuid.NewString(),
		TargetId:   "springfield",
		State:      "done",
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}))
}

func TestRecordAndHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	older := uuid.NewString()
	newer := uuid.NewString()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, Row{
		RunId:          older,
		TargetId:       "springfield",
		State:          "done",
		UnitsCompleted: 37,
		RecordsWritten: 250,
		RecordsTotal:   250,
		StartedAt:      base,
		FinishedAt:     base.Add(time.Hour),
	}))
	require.NoError(t, store.Record(ctx, Row{
		RunId:        newer,
		TargetId:     "springfield",
		State:        "failed",
		StartedAt:    base.Add(24 * time.Hour),
		FinishedAt:   base.Add(25 * time.Hour),
		Error:        "endpoint discovery: no candidate search endpoint accepted by this deployment",
		RecordsTotal: 250,
	}))
	require.NoError(t, store.Record(ctx, Row{
		RunId:      newer,
		TargetId:   "shelbyville",
		State:      "done",
		StartedAt:  base,
		FinishedAt: base.Add(time.Minute),
	}))

	history, err := store.History(ctx, "springfield")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, newer, history[0].RunId)
	require.Equal(t, "failed", history[0].State)
	require.Equal(t, older, history[1].RunId)
	require.Equal(t, 250, history[1].RecordsWritten)
	require.True(t, history[1].FinishedAt.Equal(base.Add(time.Hour)))
}

func TestRecordIsIdempotentPerRunAndTarget(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runId := uuid.NewString()
	row := Row{
		RunId:      runId,
		TargetId:   "springfield",
		State:      "sweeping",
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}
	require.NoError(t, store.Record(ctx, row))

	row.State = "done"
	row.RecordsWritten = 42
	require.NoError(t, store.Record(ctx, row))

	history, err := store.History(ctx, "springfield")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "done", history[0].State)
	require.Equal(t, 42, history[0].RecordsWritten)
}

func TestHistoryEmptyForUnknownTarget(t *testing.T) {
	store := openTestStore(t)
	history, err := store.History(context.Background(), "nowhere")
	require.NoError(t, err)
	require.Empty(t, history)
}
