package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteObjectDisposeSubtree(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	bc, _ := env.newTestContext()
	page, _ := env.newTestPage(bc)
	frame := env.newTestFrame(&page.RemoteObject, "https://example.com/", "")

	bc.dispose()

	assert.True(t, bc.isDisposed())
	assert.True(t, page.isDisposed())
	assert.True(t, frame.isDisposed())
}

func TestRemoteObjectSendAfterDispose(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	req := env.newTestRequest("https://example.com/")
	req.dispose()

	_, err := req.Response(env.ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrObjectDisposed)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "response", transportErr.Method())
}

func TestRemoteObjectSendWrapsFailures(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	channel := newFakeChannel()
	channel.respond = func(string, map[string]any) (any, error) {
		return nil, assert.AnError
	}
	guid := newGUID()
	req := NewRequest(env.ctx, env.logger, channel, env.resolver, nil, nil, guid, map[string]any{
		"url": "https://example.com/",
	})
	env.resolver.register(guid, req)

	_, err := req.Response(env.ctx)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRemoteObjectDisposeDetachesFromParent(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	bc, _ := env.newTestContext()
	page, _ := env.newTestPage(bc)

	page.dispose()
	require.True(t, page.isDisposed())
	assert.False(t, bc.isDisposed())

	// Disposing the parent afterwards must not touch the detached child
	// again; a second dispose is a no-op either way.
	bc.dispose()
	page.dispose()
}

func TestRemoteObjectInitializerSnapshot(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	req := env.newTestRequest("https://example.com/data")
	assert.Equal(t, "https://example.com/data", req.initString("url"))
	assert.Equal(t, "", req.initString("missing"))
	assert.Equal(t, "Request", req.Type())
	assert.NotEmpty(t, req.GUID())
}
