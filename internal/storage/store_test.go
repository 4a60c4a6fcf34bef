package storage

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func setupStores(t *testing.T) map[string]Store {
	t.Helper()
	stores := make(map[string]Store)
	for _, backend := range Backends {
		store, err := Open(backend, filepath.Join(t.TempDir(), backend), discardLogger())
		require.NoError(t, err, backend)
		t.Cleanup(func() { store.Close() })
		stores[backend] = store
	}
	return stores
}

func testRecord(id string, start time.Time) history.WorkoutRecord {
	end := start.Add(20 * time.Minute)
	return history.WorkoutRecord{
		ID:        id,
		StartTime: start,
		EndTime:   &end,
		Config:    interval.DefaultPlan(),
		CompletedRounds: []history.CompletedRound{{
			RoundID:          "warmup",
			RoundName:        "Warm-up",
			CompletedRepeats: 1,
			Blocks: []history.CompletedBlock{{
				BlockID: "w1", Tag: interval.TagWarmup, PlannedDuration: 300, ActualDuration: 301, PlannedSpeed: 8,
			}},
		}},
		TotalDuration: 1200,
		Status:        history.StatusCompleted,
	}
}

func TestStore_Plan(t *testing.T) {
	for name, store := range setupStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.LoadPlan()
			assert.ErrorIs(t, err, ErrPlanNotFound)

			fallback, err := LoadPlanOrDefault(store)
			require.NoError(t, err)
			assert.Equal(t, interval.DefaultPlan(), fallback)

			plan := interval.DefaultPlan()
			plan.Rounds[1].Name = "Hills"
			require.NoError(t, store.SavePlan(plan))

			loaded, err := store.LoadPlan()
			require.NoError(t, err)
			assert.Equal(t, plan, loaded)

			require.NoError(t, store.ResetPlan())
			_, err = store.LoadPlan()
			assert.ErrorIs(t, err, ErrPlanNotFound)
			require.NoError(t, store.ResetPlan())
		})
	}
}

func TestStore_RecordCRUD(t *testing.T) {
	base := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)

	for name, store := range setupStores(t) {
		t.Run(name, func(t *testing.T) {
			records, err := store.ListRecords()
			require.NoError(t, err)
			assert.Empty(t, records)

			require.NoError(t, store.AddRecord(testRecord("older", base)))
			require.NoError(t, store.AddRecord(testRecord("newest", base.Add(48*time.Hour))))
			require.NoError(t, store.AddRecord(testRecord("middle", base.Add(24*time.Hour))))
			assert.ErrorIs(t, store.AddRecord(testRecord("older", base)), ErrRecordExists)
			assert.ErrorIs(t, store.AddRecord(history.WorkoutRecord{}), ErrMissingRecordID)

			records, err = store.ListRecords()
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, "newest", records[0].ID)
			assert.Equal(t, "middle", records[1].ID)
			assert.Equal(t, "older", records[2].ID)

			got, err := store.GetRecord("middle")
			require.NoError(t, err)
			assert.True(t, got.StartTime.Equal(base.Add(24*time.Hour)))
			assert.Equal(t, 301, got.CompletedRounds[0].Blocks[0].ActualDuration)
			assert.Len(t, got.Config.Rounds, 4)

			got.Status = history.StatusPaused
			got.StartTime = base.Add(72 * time.Hour)
			require.NoError(t, store.UpdateRecord(got))
			records, err = store.ListRecords()
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, "middle", records[0].ID)
			assert.Equal(t, history.StatusPaused, records[0].Status)

			assert.ErrorIs(t, store.UpdateRecord(testRecord("ghost", base)), ErrRecordNotFound)

			require.NoError(t, store.DeleteRecord("older"))
			assert.ErrorIs(t, store.DeleteRecord("older"), ErrRecordNotFound)
			_, err = store.GetRecord("older")
			assert.ErrorIs(t, err, ErrRecordNotFound)

			require.NoError(t, store.ClearRecords())
			records, err = store.ListRecords()
			require.NoError(t, err)
			assert.Empty(t, records)

			// ids are free again after clearing
			require.NoError(t, store.AddRecord(testRecord("middle", base)))
		})
	}
}

func TestStore_ImplementsRecordWriter(t *testing.T) {
	var _ history.RecordWriter = NewMemoryStore()
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("floppy", t.TempDir(), discardLogger())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestFileStore_Persists(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, discardLogger())
	require.NoError(t, err)
	require.NoError(t, store.AddRecord(testRecord("kept", time.Now())))
	require.NoError(t, store.SavePlan(interval.DefaultPlan()))

	reopened, err := NewFileStore(dir, discardLogger())
	require.NoError(t, err)
	records, err := reopened.ListRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0].ID)

	require.NoError(t, os.WriteFile(filepath.Join(dir, planFileName), []byte("{broken"), 0644))
	_, err = reopened.LoadPlan()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPlanNotFound)
}

func TestBadgerStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBadgerStore(dir, discardLogger())
	require.NoError(t, err)
	require.NoError(t, store.AddRecord(testRecord("kept", time.Now())))
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(dir, discardLogger())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetRecord("kept")
	require.NoError(t, err)
	assert.Equal(t, history.StatusCompleted, got.Status)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.AddRecord(testRecord("a", time.Now())))

	got, err := store.GetRecord("a")
	require.NoError(t, err)
	got.CompletedRounds[0].Blocks[0].ActualDuration = 0

	again, err := store.GetRecord("a")
	require.NoError(t, err)
	assert.Equal(t, 301, again.CompletedRounds[0].Blocks[0].ActualDuration)
}
