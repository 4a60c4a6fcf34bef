package treadmill

import (
	"log"
	"sync"

	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/events"
	"github.com/lowaak/interval-split/internal/go_func_utils"
)

const defaultQueueSize = 32

// State is what the controller last told the treadmill
type State struct {
	Address         string
	Connected       bool
	ControlAcquired bool
	Running         bool
	TargetSpeedKmh  float64
	LastError       string
}

// Controller follows engine events and mirrors them on the treadmill: the
// run start takes control and starts the belt, every block start sets its
// speed, pause pauses and the end of a run stops. Writes happen on the
// controller's own goroutine so a slow device never holds up the engine.
type Controller struct {
	device Device
	logger *log.Logger

	// protected by mu
	mu    sync.Mutex
	state State

	stateEvent *events.ChannelEvent[State]

	queue        chan engine.Event
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewController starts the controller goroutine. queueSize <= 0 uses a
// default.
func NewController(device Device, logger *log.Logger, queueSize int) *Controller {
	if device == nil {
		panic("Controller: device cannot be nil")
	}
	if logger == nil {
		panic("Controller: logger cannot be nil")
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	c := &Controller{
		device:     device,
		logger:     logger,
		state:      State{Address: device.GetAddressString(), Connected: device.IsConnected()},
		stateEvent: events.NewChannelEvent[State](true),
		queue:      make(chan engine.Event, queueSize),
		doneChan:   make(chan struct{}),
	}
	c.stateEvent.Notify(c.state)

	c.wg.Add(1)
	go_func_utils.SafeGo(logger, "TreadmillController", c.runLoop)
	return c
}

// EnableResponses subscribes to control point indications. Without them
// commands still work but results are not confirmed.
func (c *Controller) EnableResponses() error {
	return c.device.EnableNotifications(ServiceUUIDFTMS, CharUUIDFTMSControlPoint, c.handleResponse)
}

// HandleEvent queues ev without blocking. Events the treadmill does not act
// on are ignored; when the queue is full the event is dropped.
func (c *Controller) HandleEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventRunStarted, engine.EventBlockStarted, engine.EventRunPaused,
		engine.EventRunResumed, engine.EventPlanCompleted, engine.EventRunAbandoned:
	default:
		return
	}
	select {
	case c.queue <- ev:
	default:
		c.logger.Printf("Treadmill: Queue full, dropped %s", ev.Kind)
	}
}

// ListenToState registers a channel for state changes. The current state
// is replayed on registration.
func (c *Controller) ListenToState(ch chan<- State) func() {
	return c.stateEvent.Listen(ch)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Shutdown stops the goroutine and disconnects the device. Queued events are
// discarded.
func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.logger.Printf("Treadmill: Shutting down")
		close(c.doneChan)
		c.wg.Wait()
		if err := c.device.Disconnect(); err != nil {
			c.logger.Printf("Treadmill: Error disconnecting: %v", err)
		}
		c.update(func(s *State) { s.Connected = false })
		c.logger.Printf("Treadmill: Shutdown complete")
	})
}

func (c *Controller) runLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.doneChan:
			return
		case ev := <-c.queue:
			c.apply(ev)
		}
	}
}

func (c *Controller) apply(ev engine.Event) {
	switch ev.Kind {
	case engine.EventRunStarted:
		if c.write("request control", RequestControlCommand()) {
			c.update(func(s *State) { s.ControlAcquired = true })
		}
		if c.write("start", StartCommand()) {
			c.update(func(s *State) { s.Running = true })
		}
	case engine.EventBlockStarted:
		speed := ev.Block.Speed
		if c.write("set target speed", SetTargetSpeedCommand(speed)) {
			c.logger.Printf("Treadmill: Target speed %.1f km/h (%s)", speed, ev.Block.Tag.Label())
			c.update(func(s *State) { s.TargetSpeedKmh = speed })
		}
	case engine.EventRunPaused:
		if c.write("pause", PauseCommand()) {
			c.update(func(s *State) { s.Running = false })
		}
	case engine.EventRunResumed:
		if c.write("resume", StartCommand()) {
			c.update(func(s *State) { s.Running = true })
		}
		// some treadmills come back at their minimum speed
		speed := c.State().TargetSpeedKmh
		c.write("set target speed", SetTargetSpeedCommand(speed))
	case engine.EventPlanCompleted, engine.EventRunAbandoned:
		if c.write("stop", StopCommand()) {
			c.update(func(s *State) {
				s.Running = false
				s.TargetSpeedKmh = 0
			})
		}
	}
}

// write sends one control point command and reports whether it succeeded.
// Failures are logged and kept in the state.
func (c *Controller) write(what string, data []byte) bool {
	err := c.device.WriteCharacteristic(ServiceUUIDFTMS, CharUUIDFTMSControlPoint, data)
	if err != nil {
		c.logger.Printf("Treadmill: Failed to %s: %v", what, err)
		c.update(func(s *State) {
			s.LastError = err.Error()
			s.Connected = c.device.IsConnected()
		})
		return false
	}
	return true
}

func (c *Controller) handleResponse(buf []byte) {
	resp, err := ParseResponse(buf)
	if err != nil {
		c.logger.Printf("Treadmill: %v", err)
		return
	}
	c.logger.Printf("Treadmill: Control point: %s", resp)
	if resp.Result == FTMSResultControlNotPermitted {
		c.update(func(s *State) {
			s.ControlAcquired = false
			s.LastError = resp.String()
		})
	}
}

func (c *Controller) update(fn func(s *State)) {
	c.mu.Lock()
	fn(&c.state)
	state := c.state
	c.mu.Unlock()
	c.stateEvent.Notify(state)
}
