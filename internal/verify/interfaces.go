// File: internal/verify/interfaces.go
package verify

import (
	"context"
	"time"

	"github.com/xkilldash9x/dashverify/internal/locator"
)

// Page is one navigable document inside an exclusively owned browser session.
// Every method blocks for at most its own bounded wait.
type Page interface {
	// Navigate loads url and returns once the document is ready.
	Navigate(ctx context.Context, url string) error
	// Click waits for the first visible match of loc and clicks its centre.
	Click(ctx context.Context, loc locator.Locator) error
	// SetChecked brings the first match of loc (a checkbox) into the requested state.
	SetChecked(ctx context.Context, loc locator.Locator, checked bool) error
	// DragTo drags the first match of src onto the first match of dst.
	DragTo(ctx context.Context, src, dst locator.Locator) error
	// Expect polls until cond holds for loc or timeout elapses.
	Expect(ctx context.Context, loc locator.Locator, cond locator.Condition, timeout time.Duration) error
	// Screenshot captures the full page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// Close releases the session. It is safe to call more than once.
	Close(ctx context.Context) error
}

// Viewport pins the window size of a session. The zero value means "use the configured default".
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether no viewport was requested.
func (v Viewport) IsZero() bool { return v.Width == 0 && v.Height == 0 }

// SessionOptions are per-session launch parameters.
type SessionOptions struct {
	Viewport Viewport
	// Label is attached to the session's logs.
	Label string
}

// Launcher acquires isolated browser sessions.
type Launcher interface {
	NewSession(ctx context.Context, opts SessionOptions) (Page, error)
}

// ArtifactWriter persists screenshot files.
type ArtifactWriter interface {
	WriteScreenshot(path string, png []byte) (string, error)
	Remove(path string) error
}
