package common

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/remotepage/remotepage/log"
)

// sendCall records one outbound call issued through a fake channel.
type sendCall struct {
	method string
	params map[string]any
}

// fakeChannel is a scripted in-memory stand-in for the connection: it
// records outbound calls, answers them via an optional respond function
// and lets tests inject inbound notifications.
type fakeChannel struct {
	mu       sync.Mutex
	sends    []sendCall
	noReplys []sendCall
	handlers map[string][]func(params map[string]any)
	respond  func(method string, params map[string]any) (any, error)
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: make(map[string][]func(params map[string]any))}
}

func (c *fakeChannel) Send(_ context.Context, method string, params map[string]any) (any, error) {
	c.mu.Lock()
	c.sends = append(c.sends, sendCall{method: method, params: params})
	respond := c.respond
	c.mu.Unlock()
	if respond != nil {
		return respond(method, params)
	}
	return nil, nil
}

func (c *fakeChannel) SendNoReply(method string, params map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noReplys = append(c.noReplys, sendCall{method: method, params: params})
}

func (c *fakeChannel) On(event string, fn func(params map[string]any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], fn)
}

// deliver injects an inbound notification, invoking subscribed handlers
// in registration order on the calling goroutine, like the connection's
// dispatch loop would.
func (c *fakeChannel) deliver(event string, params map[string]any) {
	c.mu.Lock()
	handlers := make([]func(params map[string]any), len(c.handlers[event]))
	copy(handlers, c.handlers[event])
	c.mu.Unlock()
	for _, fn := range handlers {
		fn(params)
	}
}

// sentMethods returns the methods of all recorded request/response calls.
func (c *fakeChannel) sentMethods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	methods := make([]string, 0, len(c.sends))
	for _, s := range c.sends {
		methods = append(methods, s.method)
	}
	return methods
}

// lastSend returns the most recent request/response call, or a zero value
// when none was issued.
func (c *fakeChannel) lastSend() sendCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sends) == 0 {
		return sendCall{}
	}
	return c.sends[len(c.sends)-1]
}

// noReplyCalls returns the recorded fire-and-forget calls.
func (c *fakeChannel) noReplyCalls() []sendCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	calls := make([]sendCall, len(c.noReplys))
	copy(calls, c.noReplys)
	return calls
}

// fakeResolver maps guids to already-created proxies, the way the
// connection's object registry does.
type fakeResolver struct {
	mu      sync.Mutex
	objects map[string]any
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{objects: make(map[string]any)}
}

func (r *fakeResolver) register(guid string, obj any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[guid] = obj
}

func (r *fakeResolver) FromRef(ref ObjectRef) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[ref.GUID]
	if !ok {
		return nil, fmt.Errorf("unknown object %q", ref.GUID)
	}
	return obj, nil
}

// testEnv bundles the shared collaborators. Every proxy gets its own
// fakeChannel, mirroring the per-object channels a real connection hands
// out; only the resolver is shared.
type testEnv struct {
	ctx      context.Context
	logger   *log.Logger
	resolver *fakeResolver
}

func newTestEnv() *testEnv {
	return &testEnv{
		ctx:      context.Background(),
		logger:   log.NewNullLogger(),
		resolver: newFakeResolver(),
	}
}

func newGUID() string { return uuid.NewString() }

// ref builds the wire form of an object reference.
func ref(guid string) map[string]any { return map[string]any{"guid": guid} }

// newTestFrame creates a frame proxy on its own channel.
func (env *testEnv) newTestFrame(parent *RemoteObject, url, name string) *Frame {
	guid := newGUID()
	frame := NewFrame(env.ctx, env.logger, newFakeChannel(), env.resolver, nil, parent, guid, map[string]any{
		"url":  url,
		"name": name,
	})
	env.resolver.register(guid, frame)
	return frame
}

// newTestPage creates a page with its own main frame, optionally under a
// browser context, and returns the page's channel for event injection.
func (env *testEnv) newTestPage(bc *BrowserContext) (*Page, *fakeChannel) {
	var parent *RemoteObject
	if bc != nil {
		parent = &bc.RemoteObject
	}
	frame := env.newTestFrame(parent, "about:blank", "")

	channel := newFakeChannel()
	guid := newGUID()
	page := NewPage(env.ctx, env.logger, channel, env.resolver, nil, bc, guid, map[string]any{
		"mainFrame":    ref(frame.GUID()),
		"viewportSize": map[string]any{"width": float64(1280), "height": float64(720)},
	})
	env.resolver.register(guid, page)
	return page, channel
}

// newTestContext creates a browser context on its own channel.
func (env *testEnv) newTestContext() (*BrowserContext, *fakeChannel) {
	channel := newFakeChannel()
	guid := newGUID()
	bc := NewBrowserContext(env.ctx, env.logger, channel, env.resolver, nil, nil, guid, nil)
	env.resolver.register(guid, bc)
	return bc, channel
}

// newTestRequest creates a request proxy with the given URL.
func (env *testEnv) newTestRequest(url string) *Request {
	guid := newGUID()
	req := NewRequest(env.ctx, env.logger, newFakeChannel(), env.resolver, nil, nil, guid, map[string]any{
		"url":    url,
		"method": "GET",
	})
	env.resolver.register(guid, req)
	return req
}

// newTestRoute creates a route proxy intercepting a request with the
// given URL, returning the route's own channel so verdict sends can be
// inspected.
func (env *testEnv) newTestRoute(url string) (*Route, *Request, *fakeChannel) {
	req := env.newTestRequest(url)
	channel := newFakeChannel()
	guid := newGUID()
	route := NewRoute(env.ctx, env.logger, channel, env.resolver, nil, nil, guid, map[string]any{
		"request": ref(req.GUID()),
	})
	env.resolver.register(guid, route)
	return route, req, channel
}

// newTestWorker creates a worker proxy on its own channel.
func (env *testEnv) newTestWorker(url string) (*Worker, *fakeChannel) {
	channel := newFakeChannel()
	guid := newGUID()
	worker := NewWorker(env.ctx, env.logger, channel, env.resolver, nil, nil, guid, map[string]any{
		"url": url,
	})
	env.resolver.register(guid, worker)
	return worker, channel
}
