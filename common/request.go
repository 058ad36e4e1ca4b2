package common

import (
	"context"

	"github.com/remotepage/remotepage/log"
)

// Request is the proxy for a network request observed by the page. Its
// fields are initializer snapshots; failure text and timing are updated by
// later requestFailed/requestFinished notifications.
type Request struct {
	RemoteObject

	failureText string
}

// NewRequest creates the proxy for an observed network request.
func NewRequest(
	ctx context.Context, logger *log.Logger, channel Channel, resolver Resolver,
	codec Codec, parent *RemoteObject, guid string, initializer map[string]any,
) *Request {
	r := &Request{
		RemoteObject: newRemoteObject(ctx, logger, channel, resolver, codec, parent, "Request", guid, initializer),
	}
	r.adopt()
	return r
}

// URL returns the request URL.
func (r *Request) URL() string { return r.initString("url") }

// Method returns the HTTP method.
func (r *Request) Method() string { return r.initString("method") }

// PostData returns the request body, or "" when there is none.
func (r *Request) PostData() string { return r.initString("postData") }

// Headers returns the request headers as a name to value mapping.
func (r *Request) Headers() map[string]string {
	return headersFromInit(r.initValue("headers"))
}

// Frame returns the frame that issued the request, or nil.
func (r *Request) Frame() *Frame {
	r.mu.RLock()
	init := r.initializer
	r.mu.RUnlock()
	f, _ := r.resolveRef(init, "frame").(*Frame)
	return f
}

// IsNavigationRequest reports whether this request is driving a frame
// navigation.
func (r *Request) IsNavigationRequest() bool {
	b, _ := r.initValue("isNavigationRequest").(bool)
	return b
}

// Failure returns the failure text recorded by a requestFailed
// notification, or "" while the request has not failed.
func (r *Request) Failure() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failureText
}

func (r *Request) setFailureText(text string) {
	r.mu.Lock()
	r.failureText = text
	r.mu.Unlock()
}

// Response fetches the response received for this request, or nil when
// none arrived yet.
func (r *Request) Response(ctx context.Context) (*Response, error) {
	result, err := r.send(ctx, "response", nil)
	if err != nil {
		return nil, err
	}
	raw, ok := result.(map[string]any)
	if !ok {
		return nil, nil
	}
	resp, _ := r.resolveRef(raw, "response").(*Response)
	return resp, nil
}

// Response is the proxy for a network response observed by the page.
type Response struct {
	RemoteObject
}

// NewResponse creates the proxy for an observed network response.
func NewResponse(
	ctx context.Context, logger *log.Logger, channel Channel, resolver Resolver,
	codec Codec, parent *RemoteObject, guid string, initializer map[string]any,
) *Response {
	r := &Response{
		RemoteObject: newRemoteObject(ctx, logger, channel, resolver, codec, parent, "Response", guid, initializer),
	}
	r.adopt()
	return r
}

// URL returns the response URL.
func (r *Response) URL() string { return r.initString("url") }

// Status returns the HTTP status code.
func (r *Response) Status() int64 {
	switch v := r.initValue("status").(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// StatusText returns the HTTP status text.
func (r *Response) StatusText() string { return r.initString("statusText") }

// Ok reports whether the status is in the 2xx range.
func (r *Response) Ok() bool {
	s := r.Status()
	return s >= 200 && s <= 299
}

// Headers returns the response headers as a name to value mapping.
func (r *Response) Headers() map[string]string {
	return headersFromInit(r.initValue("headers"))
}

// Request returns the request this response answers, or nil.
func (r *Response) Request() *Request {
	r.mu.RLock()
	init := r.initializer
	r.mu.RUnlock()
	req, _ := r.resolveRef(init, "request").(*Request)
	return req
}

// headersFromInit converts the wire header list ([{name, value}, ...])
// into a map.
func headersFromInit(raw any) map[string]string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	headers := make(map[string]string, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		value, _ := entry["value"].(string)
		if name != "" {
			headers[name] = value
		}
	}
	return headers
}
