package common

import (
	"context"
	"sync"
	"time"

	"github.com/remotepage/remotepage/log"
)

// BrowserContext is the parent scope of its pages. It carries the
// context-level route list and binding table that page dispatch falls back
// to, tracks the active page set, and roots the timeout settings chain.
type BrowserContext struct {
	RemoteObject

	timeoutSettings *TimeoutSettings

	pagesMu        sync.RWMutex
	pages          []*Page
	serviceWorkers []*Worker

	bindingsMu sync.RWMutex
	bindings   map[string]BindingCallFunc

	routesMu sync.Mutex
	routes   []routeHandlerEntry

	closedOnce sync.Once
	closed     bool
}

// NewBrowserContext creates the proxy for a browser context.
func NewBrowserContext(
	ctx context.Context, logger *log.Logger, channel Channel, resolver Resolver,
	codec Codec, parent *RemoteObject, guid string, initializer map[string]any,
) *BrowserContext {
	bc := &BrowserContext{
		RemoteObject:    newRemoteObject(ctx, logger, channel, resolver, codec, parent, "BrowserContext", guid, initializer),
		timeoutSettings: NewTimeoutSettings(nil),
		bindings:        make(map[string]BindingCallFunc),
	}
	bc.adopt()
	bc.initEvents()
	return bc
}

func (bc *BrowserContext) initEvents() {
	bc.channel.On("bindingCall", func(params map[string]any) {
		call, ok := bc.resolveRef(params, "binding").(*BindingCall)
		if !ok {
			return
		}
		bc.onBindingCall(call)
	})
	bc.channel.On("route", func(params map[string]any) {
		route, _ := bc.resolveRef(params, "route").(*Route)
		request, _ := bc.resolveRef(params, "request").(*Request)
		if route == nil || request == nil {
			return
		}
		bc.onRoute(route, request)
	})
	bc.channel.On("page", func(params map[string]any) {
		page, ok := bc.resolveRef(params, "page").(*Page)
		if !ok {
			return
		}
		bc.addPage(page)
		bc.emit(EventContextPage, page)
	})
	bc.channel.On("serviceWorker", func(params map[string]any) {
		worker, ok := bc.resolveRef(params, "worker").(*Worker)
		if !ok {
			return
		}
		worker.setBrowserContext(bc)
		bc.pagesMu.Lock()
		bc.serviceWorkers = append(bc.serviceWorkers, worker)
		bc.pagesMu.Unlock()
	})
	bc.channel.On("close", func(_ map[string]any) { bc.didClose() })
}

// Pages returns the context's currently open pages.
func (bc *BrowserContext) Pages() []*Page {
	bc.pagesMu.RLock()
	defer bc.pagesMu.RUnlock()
	pages := make([]*Page, len(bc.pages))
	copy(pages, bc.pages)
	return pages
}

// ServiceWorkers returns the context's currently tracked service workers.
func (bc *BrowserContext) ServiceWorkers() []*Worker {
	bc.pagesMu.RLock()
	defer bc.pagesMu.RUnlock()
	workers := make([]*Worker, len(bc.serviceWorkers))
	copy(workers, bc.serviceWorkers)
	return workers
}

func (bc *BrowserContext) addPage(p *Page) {
	bc.pagesMu.Lock()
	defer bc.pagesMu.Unlock()
	bc.pages = append(bc.pages, p)
}

// removePage drops p from the active page set; invoked by the page itself
// on its close transition.
func (bc *BrowserContext) removePage(p *Page) {
	bc.pagesMu.Lock()
	defer bc.pagesMu.Unlock()
	for i, page := range bc.pages {
		if page == p {
			bc.pages = append(bc.pages[:i], bc.pages[i+1:]...)
			return
		}
	}
}

func (bc *BrowserContext) removeServiceWorker(w *Worker) {
	bc.pagesMu.Lock()
	defer bc.pagesMu.Unlock()
	for i, worker := range bc.serviceWorkers {
		if worker == w {
			bc.serviceWorkers = append(bc.serviceWorkers[:i], bc.serviceWorkers[i+1:]...)
			return
		}
	}
}

// SetDefaultTimeout sets the default wait timeout inherited by all pages
// of this context.
func (bc *BrowserContext) SetDefaultTimeout(timeout time.Duration) {
	bc.timeoutSettings.setDefaultTimeout(timeout)
	bc.sendNoReply("setDefaultTimeoutNoReply", map[string]any{"timeout": timeout.Milliseconds()})
}

// SetDefaultNavigationTimeout sets the default navigation timeout
// inherited by all pages of this context.
func (bc *BrowserContext) SetDefaultNavigationTimeout(timeout time.Duration) {
	bc.timeoutSettings.setDefaultNavigationTimeout(timeout)
	bc.sendNoReply("setDefaultNavigationTimeoutNoReply", map[string]any{"timeout": timeout.Milliseconds()})
}

// ExposeBinding registers a context-level binding callable from every page
// of the context. The name must be free in the context table and in every
// open page's table.
func (bc *BrowserContext) ExposeBinding(ctx context.Context, name string, fn BindingCallFunc, needsHandle bool) error {
	for _, p := range bc.Pages() {
		if p.hasBinding(name) {
			return &DuplicateBindingError{name: name, scope: "one of the pages"}
		}
	}

	// Check and reserve under one hold so concurrent registrations of the
	// same name cannot both pass.
	bc.bindingsMu.Lock()
	if _, ok := bc.bindings[name]; ok {
		bc.bindingsMu.Unlock()
		return &DuplicateBindingError{name: name, scope: "browser context"}
	}
	bc.bindings[name] = fn
	bc.bindingsMu.Unlock()

	if _, err := bc.send(ctx, "exposeBinding", map[string]any{"name": name, "needsHandle": needsHandle}); err != nil {
		bc.bindingsMu.Lock()
		delete(bc.bindings, name)
		bc.bindingsMu.Unlock()
		return err
	}
	return nil
}

// ExposeFunction registers a context-level function that receives only the
// call arguments, without the source descriptor.
func (bc *BrowserContext) ExposeFunction(ctx context.Context, name string, fn func(args ...any) (any, error)) error {
	return bc.ExposeBinding(ctx, name, func(_ *BindingSource, args ...any) (any, error) {
		return fn(args...)
	}, false)
}

// hasBinding reports whether name is registered at context scope.
func (bc *BrowserContext) hasBinding(name string) bool {
	bc.bindingsMu.RLock()
	defer bc.bindingsMu.RUnlock()
	_, ok := bc.bindings[name]
	return ok
}

// binding returns the registered function for name, or nil.
func (bc *BrowserContext) binding(name string) BindingCallFunc {
	bc.bindingsMu.RLock()
	defer bc.bindingsMu.RUnlock()
	return bc.bindings[name]
}

// Route registers a context-level interception rule consulted when a
// page's own routes have no match. Registering the first route enables
// server-side interception for the context.
func (bc *BrowserContext) Route(ctx context.Context, match URLMatch, handler RouteHandler) error {
	matcher, err := NewURLMatcher(match)
	if err != nil {
		return err
	}
	bc.routesMu.Lock()
	bc.routes = append(bc.routes, routeHandlerEntry{matcher: matcher, handler: handler})
	first := len(bc.routes) == 1
	bc.routesMu.Unlock()

	if first {
		if _, err := bc.send(ctx, "setNetworkInterceptionEnabled", map[string]any{"enabled": true}); err != nil {
			return err
		}
	}
	return nil
}

// Unroute removes context-level routes matching match (and handler, when
// given). Removing the last route disables interception; removing an
// unknown route is a no-op.
func (bc *BrowserContext) Unroute(ctx context.Context, match URLMatch, handler RouteHandler) error {
	bc.routesMu.Lock()
	kept := bc.routes[:0]
	for _, entry := range bc.routes {
		if entry.matcher.equals(match) && (handler == nil || handlerEquals(entry.handler, handler)) {
			continue
		}
		kept = append(kept, entry)
	}
	removed := len(bc.routes) != len(kept)
	bc.routes = kept
	empty := len(bc.routes) == 0
	bc.routesMu.Unlock()

	if removed && empty {
		if _, err := bc.send(ctx, "setNetworkInterceptionEnabled", map[string]any{"enabled": false}); err != nil {
			return err
		}
	}
	return nil
}

// onRoute is the fallback hook for page dispatch: first matching
// context-level handler wins; with no match the route is continued so the
// request never hangs.
func (bc *BrowserContext) onRoute(route *Route, request *Request) {
	bc.routesMu.Lock()
	routes := make([]routeHandlerEntry, len(bc.routes))
	copy(routes, bc.routes)
	bc.routesMu.Unlock()

	for _, entry := range routes {
		if entry.matcher.Matches(request.URL()) {
			go runRouteHandler(bc.logger, entry.handler, route, request)
			return
		}
	}
	go func() {
		if err := route.Continue(nil); err != nil {
			bc.logger.Debugf("BrowserContext:onRoute", "continuing unrouted request %q: %v", request.URL(), err)
		}
	}()
}

// onBindingCall dispatches a call-out arriving on the context channel, or
// one delegated by a page with no matching binding.
func (bc *BrowserContext) onBindingCall(call *BindingCall) {
	fn := bc.binding(call.Name())
	if fn == nil {
		go call.Call(func(_ *BindingSource, _ ...any) (any, error) {
			return nil, &unknownBindingError{name: call.Name()}
		})
		return
	}
	go call.Call(fn)
}

// Close closes the context and all its pages.
func (bc *BrowserContext) Close(ctx context.Context) error {
	_, err := bc.send(ctx, "close", nil)
	if err != nil && !isSafeCloseError(err) {
		return err
	}
	return nil
}

// IsClosed reports whether the context received its close notification.
func (bc *BrowserContext) IsClosed() bool {
	bc.pagesMu.RLock()
	defer bc.pagesMu.RUnlock()
	return bc.closed
}

func (bc *BrowserContext) didClose() {
	bc.closedOnce.Do(func() {
		bc.pagesMu.Lock()
		bc.closed = true
		bc.pagesMu.Unlock()
		bc.emit(EventContextClose, bc)
		bc.dispose()
	})
}
