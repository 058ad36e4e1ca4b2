package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotepage/remotepage/log"
)

func TestEventEmitterOrderedDelivery(t *testing.T) {
	t.Parallel()

	e := newBaseEventEmitter(log.NewNullLogger())

	var order []string
	e.on("evt", func(any) { order = append(order, "first") })
	e.on("evt", func(any) { order = append(order, "second") })
	e.on("evt", func(any) { order = append(order, "third") })

	e.emit("evt", nil)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestEventEmitterOnce(t *testing.T) {
	t.Parallel()

	e := newBaseEventEmitter(log.NewNullLogger())

	calls := 0
	e.once("evt", func(any) { calls++ })

	e.emit("evt", nil)
	e.emit("evt", nil)
	assert.Equal(t, 1, calls)
	assert.Zero(t, e.listenerCount("evt"))
}

func TestEventEmitterOffUnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	e := newBaseEventEmitter(log.NewNullLogger())

	id := e.on("evt", func(any) {})
	e.off("evt", id+100)
	assert.Equal(t, 1, e.listenerCount("evt"))

	e.off("evt", id)
	assert.Zero(t, e.listenerCount("evt"))
}

func TestEventEmitterEmitWithoutListeners(t *testing.T) {
	t.Parallel()

	e := newBaseEventEmitter(log.NewNullLogger())
	e.emit("evt", "payload")
}

func TestEventEmitterPanickingListenerDoesNotStopDispatch(t *testing.T) {
	t.Parallel()

	e := newBaseEventEmitter(log.NewNullLogger())

	var delivered []string
	e.on("evt", func(any) { delivered = append(delivered, "a") })
	e.on("evt", func(any) { panic("listener failure") })
	e.on("evt", func(any) { delivered = append(delivered, "c") })

	e.emit("evt", nil)
	assert.Equal(t, []string{"a", "c"}, delivered)
}

func TestEventEmitterSnapshotDispatch(t *testing.T) {
	t.Parallel()

	e := newBaseEventEmitter(log.NewNullLogger())

	calls := 0
	e.on("evt", func(any) {
		calls++
		// Registered mid-dispatch, must only fire from the next emit.
		e.on("evt", func(any) { calls += 10 })
	})

	e.emit("evt", nil)
	require.Equal(t, 1, calls)

	e.emit("evt", nil)
	assert.Equal(t, 12, calls)
}

func TestEventEmitterCountHook(t *testing.T) {
	t.Parallel()

	e := newBaseEventEmitter(log.NewNullLogger())

	type transition struct {
		event string
		count int
		added bool
	}
	var transitions []transition
	e.setCountHook(func(event string, count int, added bool) {
		transitions = append(transitions, transition{event, count, added})
	})

	id1 := e.on("evt", func(any) {})
	id2 := e.on("evt", func(any) {})
	e.off("evt", id1)
	e.off("evt", id2)
	e.off("evt", id2) // unknown id, no transition

	assert.Equal(t, []transition{
		{"evt", 1, true},
		{"evt", 2, true},
		{"evt", 1, false},
		{"evt", 0, false},
	}, transitions)
}
