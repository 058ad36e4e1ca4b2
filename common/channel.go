package common

import "context"

// Channel is the per-object view of the connection to the remote driver.
// The connection owns the wire format and message correlation; objects only
// see typed method calls and inbound notifications addressed to them.
type Channel interface {
	// Send issues a request/response call and blocks until the remote
	// side replies or ctx is done.
	Send(ctx context.Context, method string, params map[string]any) (any, error)

	// SendNoReply issues a fire-and-forget notification. Failures beyond
	// local queueing are not surfaced.
	SendNoReply(method string, params map[string]any)

	// On subscribes fn to inbound notifications with the given method
	// name for this object. Handlers are invoked on the connection's
	// single dispatch goroutine, in arrival order.
	On(event string, fn func(params map[string]any))
}

// ObjectRef is a wire-level reference to a remote object.
type ObjectRef struct {
	GUID string
}

// Resolver turns wire-level object references into local proxies, creating
// them if not yet seen. Implemented by the connection.
type Resolver interface {
	FromRef(ref ObjectRef) (any, error)
}

// Codec serializes domain values into their wire representation and back.
// The object model treats it as opaque.
type Codec interface {
	Serialize(v any) (any, error)
	Deserialize(wire any) (any, error)
}

// RawCodec passes values through untouched. It is the default when the
// embedder does not supply a codec.
type RawCodec struct{}

// Serialize implements Codec.
func (RawCodec) Serialize(v any) (any, error) { return v, nil }

// Deserialize implements Codec.
func (RawCodec) Deserialize(wire any) (any, error) { return wire, nil }

// refFrom extracts an object reference stored under key in an event
// payload. The wire encodes references as {"guid": "..."} mappings.
func refFrom(params map[string]any, key string) (ObjectRef, bool) {
	raw, ok := params[key].(map[string]any)
	if !ok {
		return ObjectRef{}, false
	}
	guid, ok := raw["guid"].(string)
	if !ok || guid == "" {
		return ObjectRef{}, false
	}
	return ObjectRef{GUID: guid}, true
}
