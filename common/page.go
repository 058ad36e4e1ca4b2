package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/remotepage/remotepage/log"
)

// ViewportSize is the page viewport in CSS pixels.
type ViewportSize struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// FileChooser is the payload of a filechooser event: the page, the input
// element that opened the chooser, and its multiple-selection flag.
type FileChooser struct {
	Page       *Page
	Element    any
	IsMultiple bool
}

// Page is the proxy for one page of a browser context. It owns the frame
// tree and worker set, the page-level route and binding tables consulted
// before the context's, the pending wait set, and the terminal lifecycle
// state. A page transitions at most once, to either closed or crashed;
// after that inbound notifications are dropped and pending waits have
// already been rejected.
type Page struct {
	RemoteObject

	browserContext  *BrowserContext
	timeoutSettings *TimeoutSettings

	frameMu   sync.RWMutex
	mainFrame *Frame
	frames    []*Frame
	workers   []*Worker

	bindingsMu sync.RWMutex
	bindings   map[string]BindingCallFunc

	routesMu sync.Mutex
	routes   []routeHandlerEntry

	stateMu  sync.RWMutex
	viewport ViewportSize
	closed   bool
	crashed  bool

	closedOnce  sync.Once
	crashedOnce sync.Once
	closedCh    chan struct{}
	crashedCh   chan struct{}
}

// NewPage creates the proxy for a page. The main frame comes from the
// initializer and is never detached for the lifetime of the page; bc may
// be nil for pages created outside a tracked context.
func NewPage(
	ctx context.Context, logger *log.Logger, channel Channel, resolver Resolver,
	codec Codec, bc *BrowserContext, guid string, initializer map[string]any,
) *Page {
	var parent *RemoteObject
	var parentSettings *TimeoutSettings
	if bc != nil {
		parent = &bc.RemoteObject
		parentSettings = bc.timeoutSettings
	}
	p := &Page{
		RemoteObject:    newRemoteObject(ctx, logger, channel, resolver, codec, parent, "Page", guid, initializer),
		browserContext:  bc,
		timeoutSettings: NewTimeoutSettings(parentSettings),
		bindings:        make(map[string]BindingCallFunc),
		closedCh:        make(chan struct{}),
		crashedCh:       make(chan struct{}),
	}
	p.adopt()

	if mf, ok := p.resolveRef(initializer, "mainFrame").(*Frame); ok {
		p.mainFrame = mf
		mf.setPage(p)
		p.adoptChild(&mf.RemoteObject)
		p.frames = append(p.frames, mf)
	}
	if raw, ok := initializer["viewportSize"].(map[string]any); ok {
		p.viewport = viewportFromWire(raw)
	}

	// File chooser events are only produced when at least one listener is
	// interested; the hook mirrors the local 0<->1 transitions to the
	// remote side.
	p.setCountHook(func(event string, count int, added bool) {
		if event != EventPageFileChooser {
			return
		}
		if added && count == 1 {
			p.sendNoReply("setFileChooserInterceptedNoReply", map[string]any{"intercepted": true})
		} else if !added && count == 0 {
			p.sendNoReply("setFileChooserInterceptedNoReply", map[string]any{"intercepted": false})
		}
	})

	p.initEvents()
	return p
}

func (p *Page) initEvents() {
	p.onChannel("bindingCall", func(params map[string]any) {
		call, ok := p.resolveRef(params, "binding").(*BindingCall)
		if !ok {
			return
		}
		p.onBindingCall(call)
	})
	p.onChannel("route", func(params map[string]any) {
		route, _ := p.resolveRef(params, "route").(*Route)
		request, _ := p.resolveRef(params, "request").(*Request)
		if route == nil || request == nil {
			return
		}
		p.onRoute(route, request)
	})
	p.onChannel("console", func(params map[string]any) {
		p.emit(EventPageConsole, params)
	})
	p.onChannel("dialog", func(params map[string]any) {
		p.emit(EventPageDialog, p.resolveRef(params, "dialog"))
	})
	p.onChannel("domcontentloaded", func(_ map[string]any) {
		p.emit(EventPageDOMContentLoaded, p)
	})
	p.onChannel("download", func(params map[string]any) {
		p.emit(EventPageDownload, params)
	})
	p.onChannel("fileChooser", func(params map[string]any) {
		isMultiple, _ := params["isMultiple"].(bool)
		p.emit(EventPageFileChooser, &FileChooser{
			Page:       p,
			Element:    p.resolveRef(params, "element"),
			IsMultiple: isMultiple,
		})
	})
	p.onChannel("frameAttached", func(params map[string]any) {
		frame, ok := p.resolveRef(params, "frame").(*Frame)
		if !ok {
			return
		}
		p.onFrameAttached(frame)
	})
	p.onChannel("frameDetached", func(params map[string]any) {
		frame, ok := p.resolveRef(params, "frame").(*Frame)
		if !ok {
			return
		}
		p.onFrameDetached(frame)
	})
	p.onChannel("frameNavigated", func(params map[string]any) {
		frame, ok := p.resolveRef(params, "frame").(*Frame)
		if !ok {
			return
		}
		url, _ := params["url"].(string)
		name, _ := params["name"].(string)
		frame.onNavigated(url, name)
		p.emit(EventPageFrameNavigated, frame)
	})
	p.onChannel("load", func(_ map[string]any) {
		p.emit(EventPageLoad, p)
	})
	p.onChannel("pageError", func(params map[string]any) {
		raw, _ := params["error"].(map[string]any)
		inner, _ := raw["error"].(map[string]any)
		if inner != nil {
			raw = inner
		}
		p.emit(EventPageError, parseError(raw))
	})
	p.onChannel("popup", func(params map[string]any) {
		p.emit(EventPagePopup, p.resolveRef(params, "page"))
	})
	p.onChannel("request", func(params map[string]any) {
		if request, ok := p.resolveRef(params, "request").(*Request); ok {
			p.emit(EventPageRequest, request)
		}
	})
	p.onChannel("requestFailed", func(params map[string]any) {
		request, ok := p.resolveRef(params, "request").(*Request)
		if !ok {
			return
		}
		if text, ok := params["failureText"].(string); ok {
			request.setFailureText(text)
		}
		p.emit(EventPageRequestFailed, request)
	})
	p.onChannel("requestFinished", func(params map[string]any) {
		if request, ok := p.resolveRef(params, "request").(*Request); ok {
			p.emit(EventPageRequestFinished, request)
		}
	})
	p.onChannel("response", func(params map[string]any) {
		if response, ok := p.resolveRef(params, "response").(*Response); ok {
			p.emit(EventPageResponse, response)
		}
	})
	p.onChannel("webSocket", func(params map[string]any) {
		p.emit(EventPageWebSocket, params)
	})
	p.onChannel("worker", func(params map[string]any) {
		worker, ok := p.resolveRef(params, "worker").(*Worker)
		if !ok {
			return
		}
		p.onWorker(worker)
	})

	// Terminal notifications bypass the terminated guard: they are the
	// transitions themselves.
	p.channel.On("close", func(_ map[string]any) { p.didClose() })
	p.channel.On("crash", func(_ map[string]any) { p.didCrash() })
}

// onChannel subscribes fn to a channel notification, dropping deliveries
// that arrive after the page reached a terminal state.
func (p *Page) onChannel(event string, fn func(params map[string]any)) {
	p.channel.On(event, func(params map[string]any) {
		if p.terminated() {
			p.logger.Debugf("Page:onChannel", "guid:%s dropping %q after terminal state", p.guid, event)
			return
		}
		fn(params)
	})
}

func (p *Page) terminated() bool {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.closed || p.crashed
}

// closedChan returns the channel closed on the page's close transition.
func (p *Page) closedChan() <-chan struct{} { return p.closedCh }

// crashedChan returns the channel closed on the page's crash transition.
func (p *Page) crashedChan() <-chan struct{} { return p.crashedCh }

// didClose performs the single Active to Closed transition: the page
// leaves its context's page set, pending waits are released through the
// closed channel, and the close event fires before the subtree is
// disposed.
func (p *Page) didClose() {
	p.closedOnce.Do(func() {
		p.stateMu.Lock()
		p.closed = true
		p.stateMu.Unlock()

		if p.browserContext != nil {
			p.browserContext.removePage(p)
		}
		close(p.closedCh)
		p.emit(EventPageClose, p)
		p.dispose()
	})
}

// didCrash performs the single Active to Crashed transition. A crashed
// page is not disposed: its proxies stay addressable, but new waits and
// pending waits reject.
func (p *Page) didCrash() {
	p.crashedOnce.Do(func() {
		p.stateMu.Lock()
		p.crashed = true
		p.stateMu.Unlock()

		close(p.crashedCh)
		p.emit(EventPageCrash, p)
	})
}

// Context returns the browser context this page belongs to, or nil.
func (p *Page) Context() *BrowserContext { return p.browserContext }

// MainFrame returns the page's main frame. The main frame is created with
// the page and never detaches.
func (p *Page) MainFrame() *Frame {
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()
	return p.mainFrame
}

// Frames returns all currently attached frames, main frame first.
func (p *Page) Frames() []*Frame {
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()
	frames := make([]*Frame, len(p.frames))
	copy(frames, p.frames)
	return frames
}

// Frame returns the attached frame with the given name, or nil.
func (p *Page) Frame(name string) *Frame {
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()
	for _, f := range p.frames {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// FrameByURL returns the first attached frame whose URL is selected by
// match, or nil.
func (p *Page) FrameByURL(match URLMatch) (*Frame, error) {
	matcher, err := NewURLMatcher(match)
	if err != nil {
		return nil, err
	}
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()
	for _, f := range p.frames {
		if matcher.Matches(f.URL()) {
			return f, nil
		}
	}
	return nil, nil
}

// Workers returns the page's currently running web workers.
func (p *Page) Workers() []*Worker {
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()
	workers := make([]*Worker, len(p.workers))
	copy(workers, p.workers)
	return workers
}

func (p *Page) onFrameAttached(frame *Frame) {
	frame.setPage(p)
	p.adoptChild(&frame.RemoteObject)
	p.frameMu.Lock()
	p.frames = append(p.frames, frame)
	p.frameMu.Unlock()
	p.emit(EventPageFrameAttached, frame)
}

// onFrameDetached removes the frame from the tracked set and marks it
// detached. The main frame is never detached this way; it lives exactly
// as long as the page.
func (p *Page) onFrameDetached(frame *Frame) {
	p.frameMu.Lock()
	if frame == p.mainFrame {
		p.frameMu.Unlock()
		p.logger.Warnf("Page:onFrameDetached", "guid:%s ignoring detach of main frame", p.guid)
		return
	}
	for i, f := range p.frames {
		if f == frame {
			p.frames = append(p.frames[:i], p.frames[i+1:]...)
			break
		}
	}
	p.frameMu.Unlock()

	frame.setDetached()
	p.emit(EventPageFrameDetached, frame)
}

func (p *Page) onWorker(worker *Worker) {
	worker.setPage(p)
	p.adoptChild(&worker.RemoteObject)
	p.frameMu.Lock()
	p.workers = append(p.workers, worker)
	p.frameMu.Unlock()
	p.emit(EventPageWorker, worker)
}

// removeWorker drops the worker from the tracked set; invoked by the
// worker itself on its close notification.
func (p *Page) removeWorker(w *Worker) {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()
	for i, worker := range p.workers {
		if worker == w {
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			return
		}
	}
}

// URL returns the main frame's current URL.
func (p *Page) URL() string { return p.MainFrame().URL() }

// Title returns the main frame's document title.
func (p *Page) Title(ctx context.Context) (string, error) {
	return p.MainFrame().Title(ctx)
}

// Content returns the main frame's HTML content.
func (p *Page) Content(ctx context.Context) (string, error) {
	return p.MainFrame().Content(ctx)
}

// SetContent replaces the main frame's HTML content.
func (p *Page) SetContent(ctx context.Context, html string) error {
	return p.MainFrame().SetContent(ctx, html)
}

// Goto navigates the main frame to the given URL.
func (p *Page) Goto(ctx context.Context, url string, opts *GotoOptions) (*Response, error) {
	return p.MainFrame().Goto(ctx, url, opts)
}

// Evaluate runs the expression in the main frame and returns its decoded
// result.
func (p *Page) Evaluate(ctx context.Context, expression string, args ...any) (any, error) {
	return p.MainFrame().Evaluate(ctx, expression, args...)
}

// Reload reloads the page and returns the main resource response, which
// may be nil.
func (p *Page) Reload(ctx context.Context, opts *GotoOptions) (*Response, error) {
	return p.navigationCall(ctx, "reload", opts)
}

// GoBack navigates back in the page's history. A nil response means there
// was no entry to go back to.
func (p *Page) GoBack(ctx context.Context, opts *GotoOptions) (*Response, error) {
	return p.navigationCall(ctx, "goBack", opts)
}

// GoForward navigates forward in the page's history. A nil response means
// there was no entry to go forward to.
func (p *Page) GoForward(ctx context.Context, opts *GotoOptions) (*Response, error) {
	return p.navigationCall(ctx, "goForward", opts)
}

func (p *Page) navigationCall(ctx context.Context, method string, opts *GotoOptions) (*Response, error) {
	if opts == nil {
		opts = NewGotoOptions(p.timeoutSettings.navigationTimeout())
	}
	result, err := p.send(ctx, method, map[string]any{
		"waitUntil": opts.WaitUntil,
		"timeout":   opts.Timeout.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	raw, ok := result.(map[string]any)
	if !ok {
		return nil, nil
	}
	resp, _ := p.resolveRef(raw, "response").(*Response)
	return resp, nil
}

// BringToFront activates the page's tab.
func (p *Page) BringToFront(ctx context.Context) error {
	_, err := p.send(ctx, "bringToFront", nil)
	return err
}

// AddInitScript registers a script evaluated in every frame of the page
// before any of its own scripts run.
func (p *Page) AddInitScript(ctx context.Context, source string) error {
	_, err := p.send(ctx, "addInitScript", map[string]any{"source": source})
	return err
}

// SetExtraHTTPHeaders sets headers sent with every request issued by the
// page.
func (p *Page) SetExtraHTTPHeaders(ctx context.Context, headers map[string]string) error {
	_, err := p.send(ctx, "setExtraHTTPHeaders", map[string]any{"headers": headerList(headers)})
	return err
}

// ViewportSize returns the current viewport, zero-valued when the page has
// no fixed viewport.
func (p *Page) ViewportSize() ViewportSize {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.viewport
}

// SetViewportSize resizes the page viewport.
func (p *Page) SetViewportSize(ctx context.Context, size ViewportSize) error {
	_, err := p.send(ctx, "setViewportSize", map[string]any{
		"viewportSize": map[string]any{"width": size.Width, "height": size.Height},
	})
	if err != nil {
		return err
	}
	p.stateMu.Lock()
	p.viewport = size
	p.stateMu.Unlock()
	return nil
}

// SetDefaultTimeout sets the page's default wait timeout, overriding the
// context's.
func (p *Page) SetDefaultTimeout(timeout time.Duration) {
	p.timeoutSettings.setDefaultTimeout(timeout)
	p.sendNoReply("setDefaultTimeoutNoReply", map[string]any{"timeout": timeout.Milliseconds()})
}

// SetDefaultNavigationTimeout sets the page's default navigation timeout,
// overriding the context's.
func (p *Page) SetDefaultNavigationTimeout(timeout time.Duration) {
	p.timeoutSettings.setDefaultNavigationTimeout(timeout)
	p.sendNoReply("setDefaultNavigationTimeoutNoReply", map[string]any{"timeout": timeout.Milliseconds()})
}

// Opener returns the page that opened this one, or nil for pages opened
// directly.
func (p *Page) Opener(ctx context.Context) (*Page, error) {
	result, err := p.send(ctx, "opener", nil)
	if err != nil {
		return nil, err
	}
	raw, ok := result.(map[string]any)
	if !ok {
		return nil, nil
	}
	opener, _ := p.resolveRef(raw, "page").(*Page)
	return opener, nil
}

// ExposeBinding registers a page-level binding. The name must be free in
// the page's own table and in the context's; page-level bindings shadow
// context-level ones at dispatch time.
func (p *Page) ExposeBinding(ctx context.Context, name string, fn BindingCallFunc, needsHandle bool) error {
	if p.browserContext != nil && p.browserContext.hasBinding(name) {
		return &DuplicateBindingError{name: name, scope: "browser context"}
	}

	// Check and reserve under one hold so concurrent registrations of the
	// same name cannot both pass.
	p.bindingsMu.Lock()
	if _, ok := p.bindings[name]; ok {
		p.bindingsMu.Unlock()
		return &DuplicateBindingError{name: name, scope: "page"}
	}
	p.bindings[name] = fn
	p.bindingsMu.Unlock()

	if _, err := p.send(ctx, "exposeBinding", map[string]any{"name": name, "needsHandle": needsHandle}); err != nil {
		p.bindingsMu.Lock()
		delete(p.bindings, name)
		p.bindingsMu.Unlock()
		return err
	}
	return nil
}

// ExposeFunction registers a page-level function that receives only the
// call arguments, without the source descriptor.
func (p *Page) ExposeFunction(ctx context.Context, name string, fn func(args ...any) (any, error)) error {
	return p.ExposeBinding(ctx, name, func(_ *BindingSource, args ...any) (any, error) {
		return fn(args...)
	}, false)
}

// hasBinding reports whether name is registered at page scope.
func (p *Page) hasBinding(name string) bool {
	p.bindingsMu.RLock()
	defer p.bindingsMu.RUnlock()
	_, ok := p.bindings[name]
	return ok
}

// onBindingCall dispatches a call-out: the page's own table wins, then the
// context's; an unregistered name is rejected so the remote caller never
// hangs.
func (p *Page) onBindingCall(call *BindingCall) {
	p.bindingsMu.RLock()
	fn := p.bindings[call.Name()]
	p.bindingsMu.RUnlock()

	if fn == nil && p.browserContext != nil {
		fn = p.browserContext.binding(call.Name())
	}
	if fn == nil {
		go call.Call(func(_ *BindingSource, _ ...any) (any, error) {
			return nil, &unknownBindingError{name: call.Name()}
		})
		return
	}
	go call.Call(fn)
}

// Route registers a page-level interception rule. Page routes are
// consulted before context routes, in registration order, first match
// wins. Registering the first route enables server-side interception for
// the page.
func (p *Page) Route(ctx context.Context, match URLMatch, handler RouteHandler) error {
	matcher, err := NewURLMatcher(match)
	if err != nil {
		return err
	}
	p.routesMu.Lock()
	p.routes = append(p.routes, routeHandlerEntry{matcher: matcher, handler: handler})
	first := len(p.routes) == 1
	p.routesMu.Unlock()

	if first {
		if _, err := p.send(ctx, "setNetworkInterceptionEnabled", map[string]any{"enabled": true}); err != nil {
			return err
		}
	}
	return nil
}

// Unroute removes page-level routes matching match (and handler, when
// given). Removing the last route disables interception; removing an
// unknown route is a no-op.
func (p *Page) Unroute(ctx context.Context, match URLMatch, handler RouteHandler) error {
	p.routesMu.Lock()
	kept := p.routes[:0]
	for _, entry := range p.routes {
		if entry.matcher.equals(match) && (handler == nil || handlerEquals(entry.handler, handler)) {
			continue
		}
		kept = append(kept, entry)
	}
	removed := len(p.routes) != len(kept)
	p.routes = kept
	empty := len(p.routes) == 0
	p.routesMu.Unlock()

	if removed && empty {
		if _, err := p.send(ctx, "setNetworkInterceptionEnabled", map[string]any{"enabled": false}); err != nil {
			return err
		}
	}
	return nil
}

// onRoute dispatches an intercepted request: first matching page route
// wins, then the context's routes; with no match anywhere the route is
// continued unmodified.
func (p *Page) onRoute(route *Route, request *Request) {
	p.routesMu.Lock()
	routes := make([]routeHandlerEntry, len(p.routes))
	copy(routes, p.routes)
	p.routesMu.Unlock()

	for _, entry := range routes {
		if entry.matcher.Matches(request.URL()) {
			go runRouteHandler(p.logger, entry.handler, route, request)
			return
		}
	}
	if p.browserContext != nil {
		p.browserContext.onRoute(route, request)
		return
	}
	go func() {
		if err := route.Continue(nil); err != nil {
			p.logger.Debugf("Page:onRoute", "continuing unrouted request %q: %v", request.URL(), err)
		}
	}()
}

// WaitForEventOptions configure a single-event wait.
type WaitForEventOptions struct {
	// Predicate filters candidate payloads; nil accepts the first one.
	Predicate func(data any) bool

	// Timeout bounds the wait; zero disables the deadline.
	Timeout time.Duration
}

// NewWaitForEventOptions creates wait options with the given default
// timeout.
func NewWaitForEventOptions(defaultTimeout time.Duration) *WaitForEventOptions {
	return &WaitForEventOptions{Timeout: defaultTimeout}
}

// WaitForEvent blocks until the next delivery of event whose payload
// passes the predicate, the configured timeout elapses, or the page
// closes or crashes. Waiting on the close or crash event itself resolves
// with the page rather than rejecting.
func (p *Page) WaitForEvent(ctx context.Context, event string, opts *WaitForEventOptions) (any, error) {
	if opts == nil {
		opts = NewWaitForEventOptions(p.timeoutSettings.timeout())
	}
	w := newWaiter(p, event, opts.Predicate)
	return w.wait(ctx, opts.Timeout)
}

// ExpectEvent runs action and waits for the matching event, registering
// the listener before the action so an event fired synchronously by the
// action is not missed. An action error cancels the wait and is returned.
func (p *Page) ExpectEvent(ctx context.Context, event string, action func() error, opts *WaitForEventOptions) (any, error) {
	if opts == nil {
		opts = NewWaitForEventOptions(p.timeoutSettings.timeout())
	}
	w := newWaiter(p, event, opts.Predicate)
	if action != nil {
		if err := action(); err != nil {
			w.cancel()
			return nil, err
		}
	}
	return w.wait(ctx, opts.Timeout)
}

// WaitForLoadState blocks until the page fires the given lifecycle
// state: "load" (also the default for an empty state) or
// "domcontentloaded". The wait rejects on timeout or when the page
// closes or crashes.
func (p *Page) WaitForLoadState(ctx context.Context, state string, opts *WaitForEventOptions) error {
	event := EventPageLoad
	switch state {
	case "", "load":
	case "domcontentloaded":
		event = EventPageDOMContentLoaded
	default:
		return fmt.Errorf("unknown load state %q", state)
	}
	_, err := p.WaitForEvent(ctx, event, opts)
	return err
}

// WaitForRequest blocks until the page issues a request whose URL is
// selected by match. A func(*Request) bool match is applied to the
// request itself.
func (p *Page) WaitForRequest(ctx context.Context, match any, opts *WaitForEventOptions) (*Request, error) {
	predicate, err := requestPredicate(match)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = NewWaitForEventOptions(p.timeoutSettings.timeout())
	}
	data, err := p.WaitForEvent(ctx, EventPageRequest, &WaitForEventOptions{
		Predicate: predicate,
		Timeout:   opts.Timeout,
	})
	if err != nil {
		return nil, err
	}
	req, _ := data.(*Request)
	return req, nil
}

// WaitForResponse blocks until the page receives a response whose URL is
// selected by match. A func(*Response) bool match is applied to the
// response itself.
func (p *Page) WaitForResponse(ctx context.Context, match any, opts *WaitForEventOptions) (*Response, error) {
	predicate, err := responsePredicate(match)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = NewWaitForEventOptions(p.timeoutSettings.timeout())
	}
	data, err := p.WaitForEvent(ctx, EventPageResponse, &WaitForEventOptions{
		Predicate: predicate,
		Timeout:   opts.Timeout,
	})
	if err != nil {
		return nil, err
	}
	resp, _ := data.(*Response)
	return resp, nil
}

func requestPredicate(match any) (func(any) bool, error) {
	if fn, ok := match.(func(*Request) bool); ok {
		return func(data any) bool {
			req, ok := data.(*Request)
			return ok && fn(req)
		}, nil
	}
	matcher, err := NewURLMatcher(match)
	if err != nil {
		return nil, err
	}
	return func(data any) bool {
		req, ok := data.(*Request)
		return ok && matcher.Matches(req.URL())
	}, nil
}

func responsePredicate(match any) (func(any) bool, error) {
	if fn, ok := match.(func(*Response) bool); ok {
		return func(data any) bool {
			resp, ok := data.(*Response)
			return ok && fn(resp)
		}, nil
	}
	matcher, err := NewURLMatcher(match)
	if err != nil {
		return nil, err
	}
	return func(data any) bool {
		resp, ok := data.(*Response)
		return ok && matcher.Matches(resp.URL())
	}, nil
}

// CloseOptions configure a page close.
type CloseOptions struct {
	// RunBeforeUnload lets the page's beforeunload handlers run, which may
	// keep the page open.
	RunBeforeUnload bool
}

// Close closes the page. Errors caused by the page or browser already
// shutting down are tolerated.
func (p *Page) Close(ctx context.Context, opts *CloseOptions) error {
	params := make(map[string]any)
	if opts != nil && opts.RunBeforeUnload {
		params["runBeforeUnload"] = true
	}
	_, err := p.send(ctx, "close", params)
	if err != nil && !isSafeCloseError(err) {
		return err
	}
	return nil
}

// IsClosed reports whether the page reached its closed state.
func (p *Page) IsClosed() bool {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.closed
}

// IsCrashed reports whether the page reached its crashed state.
func (p *Page) IsCrashed() bool {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.crashed
}

func viewportFromWire(raw map[string]any) ViewportSize {
	toInt := func(v any) int64 {
		switch n := v.(type) {
		case int64:
			return n
		case float64:
			return int64(n)
		default:
			return 0
		}
	}
	return ViewportSize{Width: toInt(raw["width"]), Height: toInt(raw["height"])}
}
