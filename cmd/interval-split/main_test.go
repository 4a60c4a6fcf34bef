package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/interval-split/internal/config"
	"github.com/lowaak/interval-split/internal/interval"
	"github.com/lowaak/interval-split/internal/storage"
)

func TestChanWriter_DropsWhenFull(t *testing.T) {
	ch := make(chan string, 1)
	logger := log.New(newChanWriter(ch), "", 0)

	logger.Printf("first")
	logger.Printf("second")

	assert.Equal(t, "first\n", <-ch)
	select {
	case line := <-ch:
		t.Fatalf("unexpected line %q", line)
	default:
	}
}

func TestLoadPlan(t *testing.T) {
	store := storage.NewMemoryStore()

	plan, err := loadPlan(config.Config{}, store)
	require.NoError(t, err)
	assert.Equal(t, interval.DefaultPlan(), plan)

	path := filepath.Join(t.TempDir(), "plan.yaml")
	short := interval.Plan{Rounds: []interval.Round{{ID: "r", Name: "Short", RepeatCount: 2,
		Blocks: []interval.Block{{ID: "b", Tag: interval.TagFast, Duration: 30, Speed: 11}}}}}
	require.NoError(t, interval.SavePlanFile(path, short))

	plan, err = loadPlan(config.Config{PlanFile: path}, store)
	require.NoError(t, err)
	assert.Equal(t, short, plan)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"rounds":[{"id":"r","name":"x","repeatCount":1,"blocks":[{"id":"b","tag":"fast","duration":-5}]}]}`), 0o644))
	_, err = loadPlan(config.Config{PlanFile: bad}, store)
	assert.ErrorIs(t, err, interval.ErrInvalidPlan)
}

func TestStartTreadmill(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	assert.Nil(t, startTreadmill(t.Context(), config.TreadmillConfig{}, logger))

	tm := startTreadmill(t.Context(), config.TreadmillConfig{Enabled: true, Address: "mock"}, logger)
	require.NotNil(t, tm)
	defer tm.Shutdown()
	assert.True(t, tm.State().Connected)
}
