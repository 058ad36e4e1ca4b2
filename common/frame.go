package common

import (
	"context"
	"time"

	"github.com/remotepage/remotepage/log"
)

// Frame is the proxy for one frame of a page's frame tree. Frame lifetime
// is owned by the connection tree; the page only tracks attach/detach. A
// detached frame stays addressable but rejects operations.
type Frame struct {
	RemoteObject

	page        *Page
	url         string
	name        string
	parentFrame *Frame
	detached    bool
}

// NewFrame creates the proxy for a frame. The frame's url, name and parent
// come from the initializer snapshot.
func NewFrame(
	ctx context.Context, logger *log.Logger, channel Channel, resolver Resolver,
	codec Codec, parent *RemoteObject, guid string, initializer map[string]any,
) *Frame {
	f := &Frame{
		RemoteObject: newRemoteObject(ctx, logger, channel, resolver, codec, parent, "Frame", guid, initializer),
	}
	f.adopt()
	f.url = f.initString("url")
	f.name = f.initString("name")
	if pf, ok := f.resolveRef(initializer, "parentFrame").(*Frame); ok {
		f.parentFrame = pf
	}
	return f
}

// Page returns the page this frame belongs to, nil until attached.
func (f *Frame) Page() *Page {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.page
}

func (f *Frame) setPage(p *Page) {
	f.mu.Lock()
	f.page = p
	f.mu.Unlock()
}

// URL returns the frame's current URL snapshot.
func (f *Frame) URL() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.url
}

// Name returns the frame's name attribute snapshot.
func (f *Frame) Name() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.name
}

// ParentFrame returns the parent frame, nil for the main frame.
func (f *Frame) ParentFrame() *Frame { return f.parentFrame }

// IsDetached reports whether the frame received its detach notification.
// Holders of stale frame references must observe this flag rather than
// assume removal from the page implies destruction.
func (f *Frame) IsDetached() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.detached
}

func (f *Frame) setDetached() {
	f.mu.Lock()
	f.detached = true
	f.mu.Unlock()
}

// onNavigated updates the frame's url/name snapshot from a framenavigated
// notification.
func (f *Frame) onNavigated(url, name string) {
	f.mu.Lock()
	f.url = url
	f.name = name
	f.mu.Unlock()
}

// GotoOptions configure a frame navigation.
type GotoOptions struct {
	Referer   string
	WaitUntil string
	Timeout   time.Duration
}

// NewGotoOptions creates navigation options with the given default
// timeout.
func NewGotoOptions(defaultTimeout time.Duration) *GotoOptions {
	return &GotoOptions{
		WaitUntil: "load",
		Timeout:   defaultTimeout,
	}
}

// Goto navigates the frame to the given URL and returns the main resource
// response, which may be nil for same-document navigations.
func (f *Frame) Goto(ctx context.Context, url string, opts *GotoOptions) (*Response, error) {
	if f.IsDetached() {
		return nil, ErrFrameDetached
	}
	if opts == nil {
		opts = NewGotoOptions(f.navigationTimeout())
	}
	params := map[string]any{
		"url":       url,
		"waitUntil": opts.WaitUntil,
		"timeout":   opts.Timeout.Milliseconds(),
	}
	if opts.Referer != "" {
		params["referer"] = opts.Referer
	}
	result, err := f.send(ctx, "goto", params)
	if err != nil {
		return nil, err
	}
	raw, ok := result.(map[string]any)
	if !ok {
		return nil, nil
	}
	resp, _ := f.resolveRef(raw, "response").(*Response)
	return resp, nil
}

// Evaluate runs the expression in the frame and returns its decoded
// result.
func (f *Frame) Evaluate(ctx context.Context, expression string, args ...any) (any, error) {
	if f.IsDetached() {
		return nil, ErrFrameDetached
	}
	wireArgs := make([]any, 0, len(args))
	for _, arg := range args {
		wire, err := f.codec.Serialize(arg)
		if err != nil {
			return nil, err
		}
		wireArgs = append(wireArgs, wire)
	}
	result, err := f.send(ctx, "evaluateExpression", map[string]any{
		"expression": expression,
		"args":       wireArgs,
	})
	if err != nil {
		return nil, err
	}
	return f.codec.Deserialize(result)
}

// Content returns the frame's HTML content.
func (f *Frame) Content(ctx context.Context) (string, error) {
	result, err := f.send(ctx, "content", nil)
	if err != nil {
		return "", err
	}
	s, _ := result.(string)
	return s, nil
}

// SetContent replaces the frame's HTML content.
func (f *Frame) SetContent(ctx context.Context, html string) error {
	_, err := f.send(ctx, "setContent", map[string]any{"html": html})
	return err
}

// Title returns the frame's document title.
func (f *Frame) Title(ctx context.Context) (string, error) {
	result, err := f.send(ctx, "title", nil)
	if err != nil {
		return "", err
	}
	s, _ := result.(string)
	return s, nil
}

// WaitForNavigationOptions configure a navigation wait.
type WaitForNavigationOptions struct {
	// URL restricts the wait to navigations whose destination it selects;
	// nil accepts any navigation of this frame.
	URL     URLMatch
	Timeout time.Duration
}

// NewWaitForNavigationOptions creates navigation wait options with the
// given default timeout.
func NewWaitForNavigationOptions(defaultTimeout time.Duration) *WaitForNavigationOptions {
	return &WaitForNavigationOptions{Timeout: defaultTimeout}
}

// WaitForNavigation blocks until this frame's next navigation, optionally
// restricted to destination URLs selected by opts.URL. The wait rejects
// on timeout or when the page closes or crashes.
func (f *Frame) WaitForNavigation(ctx context.Context, opts *WaitForNavigationOptions) error {
	page := f.Page()
	if page == nil {
		return ErrFrameDetached
	}
	if opts == nil {
		opts = NewWaitForNavigationOptions(f.navigationTimeout())
	}
	var matcher *URLMatcher
	if opts.URL != nil {
		m, err := NewURLMatcher(opts.URL)
		if err != nil {
			return err
		}
		matcher = m
	}
	_, err := page.WaitForEvent(ctx, EventPageFrameNavigated, &WaitForEventOptions{
		Predicate: func(data any) bool {
			frame, ok := data.(*Frame)
			if !ok || frame != f {
				return false
			}
			return matcher == nil || matcher.Matches(frame.URL())
		},
		Timeout: opts.Timeout,
	})
	return err
}

func (f *Frame) navigationTimeout() time.Duration {
	if p := f.Page(); p != nil {
		return p.timeoutSettings.navigationTimeout()
	}
	return DefaultTimeout
}
