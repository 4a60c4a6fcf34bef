package events

// CallbackEvent invokes listener functions synchronously on the notifying
// goroutine, in registration order.
type CallbackEvent[T any] struct {
	reg *registry[T, func(T)]
}

// NewCallbackEvent creates a CallbackEvent. With replayLast set, a listener
// registered after the first Notify is called immediately with the latest value.
func NewCallbackEvent[T any](replayLast bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{reg: newRegistry[T, func(T)](replayLast)}
}

// Listen registers callback and returns a function that removes it again
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("events: callback cannot be nil")
	}
	id, last, replay := e.reg.add(callback)
	if replay {
		callback(last)
	}
	return func() { e.reg.remove(id) }
}

// Notify calls every registered callback with value. Listeners may
// unregister themselves from inside the callback.
func (e *CallbackEvent[T]) Notify(value T) {
	for _, callback := range e.reg.publish(value) {
		callback(value)
	}
}

// ListenerCount returns the number of registered callbacks
func (e *CallbackEvent[T]) ListenerCount() int {
	return e.reg.count()
}
