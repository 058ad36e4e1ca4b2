package common

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *testEnv) newTestBindingCall(initializer map[string]any) (*BindingCall, *fakeChannel) {
	channel := newFakeChannel()
	guid := newGUID()
	call := NewBindingCall(env.ctx, env.logger, channel, env.resolver, nil, nil, guid, initializer)
	env.resolver.register(guid, call)
	return call, channel
}

func TestBindingCallResolve(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	call, channel := env.newTestBindingCall(map[string]any{
		"name": "compute",
		"args": []any{float64(2), float64(3)},
	})

	call.Call(func(_ *BindingSource, args ...any) (any, error) {
		require.Equal(t, []any{float64(2), float64(3)}, args)
		return float64(5), nil
	})

	sent := channel.lastSend()
	require.Equal(t, "resolve", sent.method)
	assert.Equal(t, float64(5), sent.params["result"])
	assert.True(t, call.isDisposed())
}

func TestBindingCallReject(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	call, channel := env.newTestBindingCall(map[string]any{
		"name": "failing",
		"args": []any{},
	})

	call.Call(func(_ *BindingSource, _ ...any) (any, error) {
		return nil, errors.New("no such record")
	})

	sent := channel.lastSend()
	require.Equal(t, "reject", sent.method)
	payload, ok := sent.params["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Error", payload["name"])
	assert.Equal(t, "no such record", payload["message"])
	// pkg/errors records the stack at creation; the descriptor carries it
	// as text.
	stack, _ := payload["stack"].(string)
	assert.Contains(t, stack, "no such record")
	assert.True(t, call.isDisposed())
}

func TestBindingCallPanicIsRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	call, channel := env.newTestBindingCall(map[string]any{
		"name": "exploding",
		"args": []any{},
	})

	call.Call(func(_ *BindingSource, _ ...any) (any, error) {
		panic("boom")
	})

	sent := channel.lastSend()
	require.Equal(t, "reject", sent.method)
	payload, ok := sent.params["error"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, payload["message"], "binding call panicked: boom")
	stack, _ := payload["stack"].(string)
	assert.Contains(t, stack, "goroutine")
	assert.True(t, call.isDisposed())
}

func TestBindingCallHandleArgument(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	handle := env.newTestRequest("https://example.com/handle")
	call, channel := env.newTestBindingCall(map[string]any{
		"name":   "withHandle",
		"handle": ref(handle.GUID()),
	})

	call.Call(func(_ *BindingSource, args ...any) (any, error) {
		require.Len(t, args, 1)
		require.Same(t, handle, args[0])
		return "ok", nil
	})

	assert.Equal(t, "resolve", channel.lastSend().method)
}

func TestBindingCallSource(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	bc, _ := env.newTestContext()
	page, _ := env.newTestPage(bc)

	call, _ := env.newTestBindingCall(map[string]any{
		"name":  "whereAmI",
		"args":  []any{},
		"frame": ref(page.MainFrame().GUID()),
	})

	var got *BindingSource
	call.Call(func(source *BindingSource, _ ...any) (any, error) {
		got = source
		return nil, nil
	})

	require.NotNil(t, got)
	assert.Same(t, page.MainFrame(), got.Frame)
	assert.Same(t, page, got.Page)
	assert.Same(t, bc, got.Context)
}

func TestBindingCallSendFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	call, channel := env.newTestBindingCall(map[string]any{
		"name": "lost",
		"args": []any{},
	})
	channel.respond = func(string, map[string]any) (any, error) {
		return nil, errors.New("connection gone")
	}

	// Must neither panic nor surface the send failure.
	call.Call(func(_ *BindingSource, _ ...any) (any, error) {
		return "value", nil
	})
	assert.True(t, call.isDisposed())
}
