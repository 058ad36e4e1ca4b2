package common

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"

	"github.com/remotepage/remotepage/log"
)

// BindingSource describes where a call-out originated: the frame that
// invoked the binding, its page, and the top-level browser context.
type BindingSource struct {
	Context *BrowserContext
	Page    *Page
	Frame   *Frame
}

// BindingCallFunc is a locally registered function invokable from the
// remote side. A synchronous implementation simply returns; an
// asynchronous one blocks until its work completes. Either way the result
// or error is sent back over the bridge.
type BindingCallFunc func(source *BindingSource, args ...any) (any, error)

// BindingCall is the proxy for one remote-to-local invocation. It is
// ephemeral: created by a bindingCall notification and disposed once its
// resolve/reject response has been sent.
type BindingCall struct {
	RemoteObject
}

// NewBindingCall creates the proxy for a call-out.
func NewBindingCall(
	ctx context.Context, logger *log.Logger, channel Channel, resolver Resolver,
	codec Codec, parent *RemoteObject, guid string, initializer map[string]any,
) *BindingCall {
	b := &BindingCall{
		RemoteObject: newRemoteObject(ctx, logger, channel, resolver, codec, parent, "BindingCall", guid, initializer),
	}
	b.adopt()
	return b
}

// Name returns the binding name the remote side invoked.
func (b *BindingCall) Name() string { return b.initString("name") }

// Call invokes fn with the reconstructed source and arguments, then sends
// back either a serialized result or a serialized error with its stack.
// It never panics or returns an error itself: a failure at any step is
// turned into a reject message, and send failures after that are logged
// and swallowed, since the remote call is already failed from its own
// perspective if the channel is down.
func (b *BindingCall) Call(fn BindingCallFunc) {
	defer func() {
		if r := recover(); r != nil {
			b.reject(errors.Errorf("binding call panicked: %v", r), debug.Stack())
		}
		b.dispose()
	}()

	frame, _ := b.resolveRef(b.snapshot(), "frame").(*Frame)
	source := &BindingSource{Frame: frame}
	if frame != nil {
		source.Page = frame.Page()
		if source.Page != nil {
			source.Context = source.Page.Context()
		}
	}

	args, err := b.decodeArgs()
	if err != nil {
		b.reject(err, nil)
		return
	}

	result, err := fn(source, args...)
	if err != nil {
		b.reject(err, nil)
		return
	}

	wire, err := b.codec.Serialize(result)
	if err != nil {
		b.reject(errors.Wrap(err, "serializing binding result"), nil)
		return
	}
	if _, err := b.send(b.ctx, "resolve", map[string]any{"result": wire}); err != nil {
		b.logger.Debugf("BindingCall:Call", "name:%s resolve failed: %v", b.Name(), err)
	}
}

// decodeArgs reconstructs the invocation arguments: either the single
// resolved handle, or the decoded plain argument list. The two forms are
// mutually exclusive, selected by whether the call declared a handle.
func (b *BindingCall) decodeArgs() ([]any, error) {
	init := b.snapshot()
	if _, ok := refFrom(init, "handle"); ok {
		handle := b.resolveRef(init, "handle")
		if handle == nil {
			return nil, errors.New("binding call handle could not be resolved")
		}
		return []any{handle}, nil
	}

	rawArgs, _ := init["args"].([]any)
	args := make([]any, 0, len(rawArgs))
	for i, raw := range rawArgs {
		arg, err := b.codec.Deserialize(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding binding argument %d", i)
		}
		args = append(args, arg)
	}
	return args, nil
}

// reject sends the error back as a structured descriptor with a stack
// trace so the remote side can reconstruct where the failure originated.
func (b *BindingCall) reject(callErr error, stack []byte) {
	payload := &ErrorPayload{
		Name:    "Error",
		Message: callErr.Error(),
	}
	if stack != nil {
		payload.Stack = string(stack)
	} else {
		// %+v renders the stack recorded by pkg/errors; for plain
		// errors it degrades to the message, which still satisfies a
		// non-empty descriptor.
		payload.Stack = fmt.Sprintf("%+v", callErr)
	}
	_, err := b.send(b.ctx, "reject", map[string]any{
		"error": map[string]any{
			"name":    payload.Name,
			"message": payload.Message,
			"stack":   payload.Stack,
		},
	})
	if err != nil {
		b.logger.Debugf("BindingCall:reject", "name:%s reject failed: %v", b.Name(), err)
	}
}

// snapshot returns the initializer under the read lock.
func (b *BindingCall) snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initializer
}
