package go_func_utils

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeGo_RunsFunction(t *testing.T) {
	logger := log.New(&bytes.Buffer{}, "", 0)
	done := make(chan struct{})

	SafeGo(logger, "worker", func() { close(done) })

	<-done
}

func TestRecover_ReturnsFunctionError(t *testing.T) {
	logger := log.New(&bytes.Buffer{}, "", 0)
	want := errors.New("boom")

	err := Recover(logger, "server", func() error { return want })
	assert.ErrorIs(t, err, want)

	assert.NoError(t, Recover(logger, "server", func() error { return nil }))
}

func TestRecover_ConvertsPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	err := Recover(logger, "ui", func() error { panic("screen gone") })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ui panicked: screen gone")
	assert.Contains(t, buf.String(), "PANIC in ui: screen gone")
}
