package common

import (
	"context"

	"github.com/remotepage/remotepage/log"
)

// Worker is the proxy for a web worker or service worker. A worker belongs
// to either a page or a browser context and removes itself from its
// owner's tracking set on its own close notification.
type Worker struct {
	RemoteObject

	page           *Page
	browserContext *BrowserContext
}

// NewWorker creates the proxy for a worker.
func NewWorker(
	ctx context.Context, logger *log.Logger, channel Channel, resolver Resolver,
	codec Codec, parent *RemoteObject, guid string, initializer map[string]any,
) *Worker {
	w := &Worker{
		RemoteObject: newRemoteObject(ctx, logger, channel, resolver, codec, parent, "Worker", guid, initializer),
	}
	w.adopt()
	w.channel.On("close", func(_ map[string]any) { w.didClose() })
	return w
}

// URL returns the worker's script URL.
func (w *Worker) URL() string { return w.initString("url") }

// Page returns the owning page, or nil for service workers.
func (w *Worker) Page() *Page {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.page
}

func (w *Worker) setPage(p *Page) {
	w.mu.Lock()
	w.page = p
	w.mu.Unlock()
}

func (w *Worker) setBrowserContext(bc *BrowserContext) {
	w.mu.Lock()
	w.browserContext = bc
	w.mu.Unlock()
}

// Evaluate runs the expression inside the worker and returns its decoded
// result.
func (w *Worker) Evaluate(ctx context.Context, expression string, args ...any) (any, error) {
	wireArgs := make([]any, 0, len(args))
	for _, arg := range args {
		wire, err := w.codec.Serialize(arg)
		if err != nil {
			return nil, err
		}
		wireArgs = append(wireArgs, wire)
	}
	result, err := w.send(ctx, "evaluateExpression", map[string]any{
		"expression": expression,
		"args":       wireArgs,
	})
	if err != nil {
		return nil, err
	}
	return w.codec.Deserialize(result)
}

func (w *Worker) didClose() {
	w.mu.RLock()
	page, bc := w.page, w.browserContext
	w.mu.RUnlock()

	if page != nil {
		page.removeWorker(w)
	}
	if bc != nil {
		bc.removeServiceWorker(w)
	}
	w.emit(EventWorkerClose, w)
	w.dispose()
}
