package treadmill

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func blockStarted(speed float64) engine.Event {
	return engine.Event{Kind: engine.EventBlockStarted, Block: interval.Block{ID: "b", Tag: interval.TagFast, Duration: 60, Speed: speed}}
}

// waitForWrites waits until the mock has seen n writes
func waitForWrites(t *testing.T, device *MockDevice, n int) [][]byte {
	t.Helper()
	require.Eventually(t, func() bool { return len(device.Writes()) >= n }, 2*time.Second, time.Millisecond)
	return device.Writes()
}

func TestController_FollowsRun(t *testing.T) {
	device := NewMockDevice(discardLogger())
	c := NewController(device, discardLogger(), 0)
	defer c.Shutdown()

	c.HandleEvent(engine.Event{Kind: engine.EventRunStarted})
	c.HandleEvent(blockStarted(8))
	c.HandleEvent(engine.Event{Kind: engine.EventTicked})
	c.HandleEvent(blockStarted(12))

	writes := waitForWrites(t, device, 4)
	assert.Equal(t, [][]byte{
		RequestControlCommand(),
		StartCommand(),
		SetTargetSpeedCommand(8),
		SetTargetSpeedCommand(12),
	}, writes)
	assert.True(t, device.Running())
	assert.Equal(t, 12.0, device.SpeedKmh())

	c.HandleEvent(engine.Event{Kind: engine.EventRunPaused})
	c.HandleEvent(engine.Event{Kind: engine.EventRunResumed})
	writes = waitForWrites(t, device, 7)
	assert.Equal(t, PauseCommand(), writes[4])
	assert.Equal(t, StartCommand(), writes[5])
	assert.Equal(t, SetTargetSpeedCommand(12), writes[6])

	c.HandleEvent(engine.Event{Kind: engine.EventPlanCompleted, Record: &history.WorkoutRecord{}})
	writes = waitForWrites(t, device, 8)
	assert.Equal(t, StopCommand(), writes[7])

	require.Eventually(t, func() bool { return !c.State().Running }, 2*time.Second, time.Millisecond)
	state := c.State()
	assert.True(t, state.ControlAcquired)
	assert.Equal(t, 0.0, state.TargetSpeedKmh)
	assert.Equal(t, MockAddress, state.Address)
	assert.False(t, device.Running())
}

func TestController_AbandonStops(t *testing.T) {
	device := NewMockDevice(discardLogger())
	c := NewController(device, discardLogger(), 0)
	defer c.Shutdown()

	c.HandleEvent(engine.Event{Kind: engine.EventRunStarted})
	c.HandleEvent(blockStarted(10))
	c.HandleEvent(engine.Event{Kind: engine.EventRunAbandoned})

	writes := waitForWrites(t, device, 4)
	assert.Equal(t, StopCommand(), writes[3])
	assert.Equal(t, 0.0, device.SpeedKmh())
}

func TestController_WriteFailuresAreKept(t *testing.T) {
	device := NewMockDevice(discardLogger())
	device.SetWriteError(errors.New("gatt busy"))
	c := NewController(device, discardLogger(), 0)
	defer c.Shutdown()

	states := make(chan State, 16)
	c.ListenToState(states)

	c.HandleEvent(engine.Event{Kind: engine.EventRunStarted})

	// request control and start both fail
	failures := 0
	timeout := time.After(2 * time.Second)
	for failures < 2 {
		select {
		case s := <-states:
			if s.LastError == "gatt busy" {
				failures++
			}
		case <-timeout:
			t.Fatal("timeout waiting for write failures")
		}
	}
	assert.False(t, c.State().ControlAcquired)
	assert.False(t, c.State().Running)
	assert.Empty(t, device.Writes())

	device.SetWriteError(nil)
	c.HandleEvent(blockStarted(9))
	waitForWrites(t, device, 1)
	require.Eventually(t, func() bool { return c.State().TargetSpeedKmh == 9 }, 2*time.Second, time.Millisecond)
}

func TestController_Responses(t *testing.T) {
	device := NewMockDevice(discardLogger())
	c := NewController(device, discardLogger(), 0)
	defer c.Shutdown()
	require.NoError(t, c.EnableResponses())

	// not yet in control, so the mock refuses
	c.HandleEvent(engine.Event{Kind: engine.EventRunPaused})
	waitForWrites(t, device, 1)
	require.Eventually(t, func() bool {
		return c.State().LastError == "Stop/Pause -> Control Not Permitted"
	}, 2*time.Second, time.Millisecond)

	c.HandleEvent(engine.Event{Kind: engine.EventRunStarted})
	require.Eventually(t, func() bool { return c.State().ControlAcquired }, 2*time.Second, time.Millisecond)
}

func TestController_ShutdownDisconnects(t *testing.T) {
	device := NewMockDevice(discardLogger())
	c := NewController(device, discardLogger(), 0)

	c.Shutdown()
	c.Shutdown()

	assert.False(t, device.IsConnected())
	assert.False(t, c.State().Connected)
	c.HandleEvent(engine.Event{Kind: engine.EventRunStarted})
	assert.Empty(t, device.Writes())
}

func TestNewController_Panics(t *testing.T) {
	assert.Panics(t, func() { NewController(nil, discardLogger(), 0) })
	assert.Panics(t, func() { NewController(NewMockDevice(discardLogger()), nil, 0) })
	assert.Panics(t, func() { NewMockDevice(nil) })
}
