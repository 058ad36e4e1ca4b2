package common

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/remotepage/remotepage/log"
)

// URLMatch selects request URLs for routing: an exact or glob string, a
// compiled regexp, or a predicate function.
type URLMatch any

// RouteHandler handles an intercepted request. Handlers run on their own
// goroutine; they must eventually fulfill, continue or abort the route.
type RouteHandler func(route *Route, request *Request)

// URLMatcher matches URLs against a URLMatch. The original match value is
// kept for identity comparison at unroute time.
type URLMatcher struct {
	raw  URLMatch
	re   *regexp.Regexp
	pred func(string) bool
}

// NewURLMatcher compiles a URLMatch into a matcher. Glob strings support
// "*", "**", "?", "{a,b}" alternation and "[...]" character classes.
func NewURLMatcher(match URLMatch) (*URLMatcher, error) {
	m := &URLMatcher{raw: match}
	switch v := match.(type) {
	case string:
		re, err := regexp.Compile(globToRegexp(v))
		if err != nil {
			return nil, fmt.Errorf("compiling URL pattern %q: %w", v, err)
		}
		m.re = re
	case *regexp.Regexp:
		m.re = v
	case func(string) bool:
		m.pred = v
	default:
		return nil, fmt.Errorf("unsupported URL match type %T", match)
	}
	return m, nil
}

// Matches reports whether url is selected by this matcher. String and
// regexp matchers compare the URL as a normalized string,
// case-sensitively.
func (m *URLMatcher) Matches(url string) bool {
	if m.pred != nil {
		return m.pred(url)
	}
	return m.re.MatchString(url)
}

// equals compares matchers by the identity of their original match value,
// not by semantic equivalence.
func (m *URLMatcher) equals(match URLMatch) bool {
	switch v := match.(type) {
	case string:
		raw, ok := m.raw.(string)
		return ok && raw == v
	case *regexp.Regexp:
		raw, ok := m.raw.(*regexp.Regexp)
		return ok && raw == v
	case func(string) bool:
		raw, ok := m.raw.(func(string) bool)
		return ok && reflect.ValueOf(raw).Pointer() == reflect.ValueOf(v).Pointer()
	default:
		return false
	}
}

// globToRegexp translates a URL glob into an anchored regexp source.
func globToRegexp(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	inGroup := false
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				i++
				b.WriteString(".*")
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString(".")
		case '{':
			inGroup = true
			b.WriteString("(")
		case '}':
			inGroup = false
			b.WriteString(")")
		case ',':
			if inGroup {
				b.WriteString("|")
			} else {
				b.WriteString("\\,")
			}
		case '[', ']':
			b.WriteByte(c)
		case '.', '+', '^', '$', '(', ')', '|', '\\':
			b.WriteString("\\")
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteString("$")
	return b.String()
}

// routeHandlerEntry pairs a compiled matcher with its handler.
type routeHandlerEntry struct {
	matcher *URLMatcher
	handler RouteHandler
}

func handlerEquals(a, b RouteHandler) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// FulfillOptions are the response fields set when fulfilling an
// intercepted request instead of letting it hit the network.
type FulfillOptions struct {
	Status      int64
	ContentType string
	Headers     map[string]string
	Body        string
}

// ContinueOptions override request fields when continuing an intercepted
// request.
type ContinueOptions struct {
	URL      string
	Method   string
	Headers  map[string]string
	PostData string
}

// Route is the proxy for one intercepted request awaiting a verdict. Each
// route accepts exactly one of Fulfill, Continue or Abort.
type Route struct {
	RemoteObject

	request *Request
	handled bool
}

// NewRoute creates the proxy for an intercepted request.
func NewRoute(
	ctx context.Context, logger *log.Logger, channel Channel, resolver Resolver,
	codec Codec, parent *RemoteObject, guid string, initializer map[string]any,
) *Route {
	r := &Route{
		RemoteObject: newRemoteObject(ctx, logger, channel, resolver, codec, parent, "Route", guid, initializer),
	}
	r.adopt()
	if req, ok := r.resolveRef(initializer, "request").(*Request); ok {
		r.request = req
	}
	return r
}

// Request returns the request being intercepted.
func (r *Route) Request() *Request { return r.request }

// Fulfill answers the request with the given response.
func (r *Route) Fulfill(opts *FulfillOptions) error {
	if err := r.startHandling(); err != nil {
		return err
	}
	if opts == nil {
		opts = &FulfillOptions{}
	}
	status := opts.Status
	if status == 0 {
		status = 200
	}
	params := map[string]any{"status": status}
	if opts.ContentType != "" {
		params["contentType"] = opts.ContentType
	}
	if len(opts.Headers) > 0 {
		params["headers"] = headerList(opts.Headers)
	}
	if opts.Body != "" {
		params["body"] = opts.Body
	}
	_, err := r.send(r.ctx, "fulfill", params)
	return err
}

// Continue lets the request proceed, optionally overriding its fields.
func (r *Route) Continue(opts *ContinueOptions) error {
	if err := r.startHandling(); err != nil {
		return err
	}
	params := make(map[string]any)
	if opts != nil {
		if opts.URL != "" {
			params["url"] = opts.URL
		}
		if opts.Method != "" {
			params["method"] = opts.Method
		}
		if len(opts.Headers) > 0 {
			params["headers"] = headerList(opts.Headers)
		}
		if opts.PostData != "" {
			params["postData"] = opts.PostData
		}
	}
	_, err := r.send(r.ctx, "continue", params)
	return err
}

// Abort fails the request with the given error code ("failed" when empty).
func (r *Route) Abort(errorCode string) error {
	if err := r.startHandling(); err != nil {
		return err
	}
	if errorCode == "" {
		errorCode = "failed"
	}
	_, err := r.send(r.ctx, "abort", map[string]any{"errorCode": errorCode})
	return err
}

func (r *Route) startHandling() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handled {
		return ErrRouteHandled
	}
	r.handled = true
	return nil
}

// runRouteHandler invokes a user-supplied route handler on its own
// goroutine. A panic is logged and the route is aborted so the request
// does not hang on a broken handler.
func runRouteHandler(logger *log.Logger, handler RouteHandler, route *Route, request *Request) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Route:dispatch", "route handler for %q panicked: %v", request.URL(), r)
			if err := route.Abort("failed"); err != nil {
				logger.Debugf("Route:dispatch", "aborting after handler panic: %v", err)
			}
		}
	}()
	handler(route, request)
}

func headerList(headers map[string]string) []map[string]string {
	list := make([]map[string]string, 0, len(headers))
	for name, value := range headers {
		list = append(list, map[string]string{"name": name, "value": value})
	}
	return list
}
