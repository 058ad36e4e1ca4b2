package common

import (
	"context"
	"sync"

	"github.com/remotepage/remotepage/log"
)

// RemoteObject is the local stand-in for an entity living in the remote
// driver process. It holds the object's stable guid, its mutable
// initializer snapshot and its position in the ownership tree rooted at the
// connection. Objects are destroyed only by an explicit dispose triggered
// by a close/detach notification, never by local collection; a proxy whose
// remote counterpart is gone rejects further calls.
type RemoteObject struct {
	baseEventEmitter

	ctx      context.Context
	logger   *log.Logger
	channel  Channel
	resolver Resolver
	codec    Codec

	guid       string
	objectType string
	parent     *RemoteObject

	mu          sync.RWMutex
	children    map[string]*RemoteObject
	initializer map[string]any
	disposed    bool
}

func newRemoteObject(
	ctx context.Context, logger *log.Logger, channel Channel, resolver Resolver,
	codec Codec, parent *RemoteObject, objectType, guid string, initializer map[string]any,
) RemoteObject {
	if codec == nil {
		codec = RawCodec{}
	}
	if initializer == nil {
		initializer = make(map[string]any)
	}
	return RemoteObject{
		baseEventEmitter: newBaseEventEmitter(logger),
		ctx:              ctx,
		logger:           logger,
		channel:          channel,
		resolver:         resolver,
		codec:            codec,
		guid:             guid,
		objectType:       objectType,
		parent:           parent,
		children:         make(map[string]*RemoteObject),
		initializer:      initializer,
	}
}

// adopt places o under its parent in the ownership tree. Must be called
// once, after the embedding entity is allocated.
func (o *RemoteObject) adopt() {
	if o.parent == nil {
		return
	}
	o.parent.mu.Lock()
	o.parent.children[o.guid] = o
	o.parent.mu.Unlock()
}

// adoptChild moves child under o in the ownership tree, so child goes
// down with o's subtree on dispose. Used for objects created before
// their logical owner, like a page's main frame.
func (o *RemoteObject) adoptChild(child *RemoteObject) {
	if child.parent == o {
		return
	}
	if child.parent != nil {
		child.parent.mu.Lock()
		delete(child.parent.children, child.guid)
		child.parent.mu.Unlock()
	}
	child.parent = o
	o.mu.Lock()
	o.children[child.guid] = child
	o.mu.Unlock()
}

// GUID returns the object's stable identifier.
func (o *RemoteObject) GUID() string { return o.guid }

// On registers fn for event and returns a listener ID usable with Off.
func (o *RemoteObject) On(event string, fn EventHandler) int64 { return o.on(event, fn) }

// Once registers fn for a single delivery of event.
func (o *RemoteObject) Once(event string, fn EventHandler) int64 { return o.once(event, fn) }

// Off removes the listener with the given ID; unknown IDs are a no-op.
func (o *RemoteObject) Off(event string, id int64) { o.off(event, id) }

// ListenerCount returns the number of listeners registered for event.
func (o *RemoteObject) ListenerCount(event string) int { return o.listenerCount(event) }

// Type returns the remote object's type name.
func (o *RemoteObject) Type() string { return o.objectType }

// initValue returns a field from the initializer snapshot.
func (o *RemoteObject) initValue(key string) any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.initializer[key]
}

// initString returns a string field from the initializer snapshot, or ""
// when absent or of another type.
func (o *RemoteObject) initString(key string) string {
	s, _ := o.initValue(key).(string)
	return s
}

// setInitValue updates a field of the initializer snapshot.
func (o *RemoteObject) setInitValue(key string, v any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.initializer[key] = v
}

// isDisposed reports whether the remote counterpart is gone.
func (o *RemoteObject) isDisposed() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.disposed
}

// dispose detaches o from its parent and marks o and its whole subtree
// disposed. Called from the connection's close/detach notifications.
func (o *RemoteObject) dispose() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	children := make([]*RemoteObject, 0, len(o.children))
	for _, c := range o.children {
		children = append(children, c)
	}
	o.children = make(map[string]*RemoteObject)
	o.mu.Unlock()

	if o.parent != nil {
		o.parent.mu.Lock()
		delete(o.parent.children, o.guid)
		o.parent.mu.Unlock()
	}
	for _, c := range children {
		c.dispose()
	}
}

// send issues a request/response call for this object, rejecting calls on
// disposed proxies and wrapping connection failures.
func (o *RemoteObject) send(ctx context.Context, method string, params map[string]any) (any, error) {
	if o.isDisposed() {
		return nil, &TransportError{method: method, err: ErrObjectDisposed}
	}
	result, err := o.channel.Send(ctx, method, params)
	if err != nil {
		o.logger.Debugf("RemoteObject:send", "guid:%s method:%s err:%v", o.guid, method, err)
		return nil, &TransportError{method: method, err: err}
	}
	return result, nil
}

// sendNoReply issues a fire-and-forget notification for this object.
func (o *RemoteObject) sendNoReply(method string, params map[string]any) {
	if o.isDisposed() {
		return
	}
	o.channel.SendNoReply(method, params)
}

// resolveRef resolves a wire reference under key in params into a local
// proxy, returning nil when the key is missing or unresolvable.
func (o *RemoteObject) resolveRef(params map[string]any, key string) any {
	ref, ok := refFrom(params, key)
	if !ok {
		return nil
	}
	obj, err := o.resolver.FromRef(ref)
	if err != nil {
		o.logger.Errorf("RemoteObject:resolveRef", "guid:%s key:%s ref:%s err:%v", o.guid, key, ref.GUID, err)
		return nil
	}
	return obj
}
