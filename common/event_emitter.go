package common

import (
	"sync"

	"github.com/remotepage/remotepage/log"
)

// EventHandler is invoked with the event payload.
type EventHandler func(data any)

type eventListener struct {
	id   int64
	once bool
	fn   EventHandler
}

// countHook observes listener-count changes for an event. The page uses it
// to toggle server-side file chooser interception on 0<->1 transitions.
// added distinguishes a registration from a removal so that a 2->1 removal
// is never mistaken for a 0->1 registration.
type countHook func(event string, count int, added bool)

// baseEventEmitter is the per-object listener registry. Listeners for an
// event are invoked synchronously from the delivery path, in registration
// order; a panicking listener is logged and does not stop dispatch.
type baseEventEmitter struct {
	logger *log.Logger

	mu       sync.Mutex
	nextID   int64
	handlers map[string][]eventListener
	hook     countHook
}

func newBaseEventEmitter(logger *log.Logger) baseEventEmitter {
	return baseEventEmitter{
		logger:   logger,
		handlers: make(map[string][]eventListener),
	}
}

// setCountHook installs the registration-transition observer. It must be
// set before any listener is registered.
func (e *baseEventEmitter) setCountHook(hook countHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hook = hook
}

// on registers fn for event and returns its listener ID for removal.
func (e *baseEventEmitter) on(event string, fn EventHandler) int64 {
	return e.register(event, fn, false)
}

// once registers fn for a single delivery of event.
func (e *baseEventEmitter) once(event string, fn EventHandler) int64 {
	return e.register(event, fn, true)
}

func (e *baseEventEmitter) register(event string, fn EventHandler, once bool) int64 {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers[event] = append(e.handlers[event], eventListener{id: id, once: once, fn: fn})
	count := len(e.handlers[event])
	hook := e.hook
	e.mu.Unlock()

	if hook != nil {
		hook(event, count, true)
	}
	return id
}

// off removes the listener with the given ID. Removing an unknown ID is a
// no-op.
func (e *baseEventEmitter) off(event string, id int64) {
	e.mu.Lock()
	handlers := e.handlers[event]
	removed := false
	for i, h := range handlers {
		if h.id == id {
			e.handlers[event] = append(handlers[:i], handlers[i+1:]...)
			removed = true
			break
		}
	}
	count := len(e.handlers[event])
	hook := e.hook
	e.mu.Unlock()

	if removed && hook != nil {
		hook(event, count, false)
	}
}

// listenerCount returns the number of listeners currently registered for
// event.
func (e *baseEventEmitter) listenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers[event])
}

// emit delivers data to every listener currently registered for event.
// Delivery is against a snapshot: listeners added or removed by a running
// handler take effect from the next emit.
func (e *baseEventEmitter) emit(event string, data any) {
	e.mu.Lock()
	snapshot := make([]eventListener, len(e.handlers[event]))
	copy(snapshot, e.handlers[event])
	e.mu.Unlock()

	for _, h := range snapshot {
		if h.once {
			e.off(event, h.id)
		}
		e.invoke(event, h, data)
	}
}

func (e *baseEventEmitter) invoke(event string, h eventListener, data any) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("EventEmitter:emit", "handler for event %q panicked: %v", event, r)
		}
	}()
	h.fn(data)
}
