package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameWaitForNavigation(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	page, channel := env.newTestPage(nil)
	main := page.MainFrame()
	other := env.newTestFrame(&page.RemoteObject, "https://example.com/other", "other")
	channel.deliver("frameAttached", map[string]any{"frame": ref(other.GUID())})

	done := make(chan error, 1)
	go func() {
		done <- main.WaitForNavigation(env.ctx, &WaitForNavigationOptions{
			URL: "**/landing", Timeout: time.Second,
		})
	}()
	waitForListener(t, page, EventPageFrameNavigated)

	// Navigations of other frames and of the main frame to other URLs do
	// not settle the wait.
	channel.deliver("frameNavigated", map[string]any{
		"frame": ref(other.GUID()), "url": "https://example.com/landing", "name": "other",
	})
	channel.deliver("frameNavigated", map[string]any{
		"frame": ref(main.GUID()), "url": "https://example.com/detour", "name": "",
	})
	channel.deliver("frameNavigated", map[string]any{
		"frame": ref(main.GUID()), "url": "https://example.com/landing", "name": "",
	})

	require.NoError(t, <-done)
	assert.Equal(t, "https://example.com/landing", main.URL())
}

func TestFrameGotoSendsNavigationParams(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	page, _ := env.newTestPage(nil)
	main := page.MainFrame()

	_, err := main.Goto(env.ctx, "https://example.com/", &GotoOptions{
		Referer:   "https://referrer.example/",
		WaitUntil: "domcontentloaded",
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)

	sent := main.channel.(*fakeChannel).lastSend()
	require.Equal(t, "goto", sent.method)
	assert.Equal(t, "https://example.com/", sent.params["url"])
	assert.Equal(t, "domcontentloaded", sent.params["waitUntil"])
	assert.Equal(t, int64(5000), sent.params["timeout"])
	assert.Equal(t, "https://referrer.example/", sent.params["referer"])
}

func TestFrameParentAndName(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	page, _ := env.newTestPage(nil)
	main := page.MainFrame()

	childGUID := newGUID()
	child := NewFrame(env.ctx, env.logger, newFakeChannel(), env.resolver, nil, &page.RemoteObject, childGUID, map[string]any{
		"url":         "https://example.com/child",
		"name":        "child",
		"parentFrame": ref(main.GUID()),
	})
	env.resolver.register(childGUID, child)

	assert.Same(t, main, child.ParentFrame())
	assert.Nil(t, main.ParentFrame())
	assert.Equal(t, "child", child.Name())
}
