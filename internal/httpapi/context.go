package httpapi

import (
	"context"
)

// serverBaseCtx is canceled when the daemon shuts down, so handlers can
// abandon in-flight inference calls instead of waiting them out. Defaults
// to Background until SetBaseContext is called.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-level context handlers derive from.
// A nil ctx resets to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts ties the shutdown context and the per-request context
// together: the result is done as soon as either is. Callers must invoke
// the cancel func when the handler returns to release the watcher goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		}
	}()
	return ctx, cancel
}
