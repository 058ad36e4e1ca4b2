package common

import (
	"context"
	"time"
)

// waitTarget is the surface a waiter needs from the entity it pends on:
// listener registration plus the two one-shot terminal channels.
type waitTarget interface {
	on(event string, fn EventHandler) int64
	off(event string, id int64)
	closedChan() <-chan struct{}
	crashedChan() <-chan struct{}
}

// waiter resolves with the first matching payload for a single event, or
// rejects on timeout or on the target's close/crash, whichever fires
// first. It is single-resolution: the listener is registered at creation
// and always removed when the wait settles.
type waiter struct {
	target     waitTarget
	event      string
	listenerID int64
	matchCh    chan any
	closedCh   <-chan struct{}
	crashedCh  <-chan struct{}
}

// newWaiter registers the event listener and captures the target's
// terminal channels. When the awaited event is itself a terminal event,
// the corresponding rejection is suppressed so the wait resolves with the
// terminal payload instead.
func newWaiter(target waitTarget, event string, predicate func(any) bool) *waiter {
	w := &waiter{
		target:    target,
		event:     event,
		matchCh:   make(chan any, 1),
		closedCh:  target.closedChan(),
		crashedCh: target.crashedChan(),
	}
	if event == EventPageClose {
		w.closedCh = nil
	}
	if event == EventPageCrash {
		w.crashedCh = nil
	}
	w.listenerID = target.on(event, func(data any) {
		if predicate != nil && !predicate(data) {
			return
		}
		// Only the first match is kept; the buffered channel is never
		// drained more than once.
		select {
		case w.matchCh <- data:
		default:
		}
	})
	return w
}

// cancel detaches the waiter's listener without waiting. Safe to call
// after wait has settled; listener removal is idempotent.
func (w *waiter) cancel() {
	w.target.off(w.event, w.listenerID)
}

// wait blocks until the wait settles. A zero timeout disables the
// deadline. A terminal rejection or an already-delivered match always
// takes precedence over a timeout firing at the same step.
func (w *waiter) wait(ctx context.Context, timeout time.Duration) (any, error) {
	defer w.target.off(w.event, w.listenerID)

	var timerCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerCh = timer.C
	}

	// Events are delivered in connection order: a match emitted before a
	// terminal event is already buffered when the terminal channel
	// closes, so it must win even if both are ready by the time this
	// goroutine wakes up.
	select {
	case data := <-w.matchCh:
		return data, nil
	default:
	}

	select {
	case data := <-w.matchCh:
		return data, nil
	case <-w.closedCh:
		return w.settleTerminal(ErrTargetClosed)
	case <-w.crashedCh:
		return w.settleTerminal(ErrTargetCrashed)
	case <-timerCh:
		return w.settleTimeout(timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settleTerminal gives an already-buffered match precedence over the
// terminal rejection that woke us up.
func (w *waiter) settleTerminal(terminal error) (any, error) {
	select {
	case data := <-w.matchCh:
		return data, nil
	default:
		return nil, terminal
	}
}

// settleTimeout checks terminal state and buffered matches before
// declaring a timeout: terminal rejection broadcast happens synchronously
// on emit and beats a deadline firing at the same logical step.
func (w *waiter) settleTimeout(timeout time.Duration) (any, error) {
	select {
	case data := <-w.matchCh:
		return data, nil
	default:
	}
	select {
	case <-w.closedCh:
		return nil, ErrTargetClosed
	case <-w.crashedCh:
		return nil, ErrTargetCrashed
	default:
		return nil, NewTimeoutError(w.event, timeout)
	}
}
