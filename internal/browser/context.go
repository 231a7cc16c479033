// File: internal/browser/context.go
package browser

import (
	"context"
	"time"
)

// combineContext derives a context from session, which carries the CDP target,
// that is also canceled when op is. Values come from session only.
func combineContext(session, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(session)
	stop := context.AfterFunc(op, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}

// boundedContext is combineContext with an extra deadline. A zero timeout adds none.
func boundedContext(session, op context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	combined, cancel := combineContext(session, op)
	if timeout <= 0 {
		return combined, cancel
	}
	bounded, cancelTimeout := context.WithTimeout(combined, timeout)
	return bounded, func() {
		cancelTimeout()
		cancel()
	}
}
