// File: internal/browser/manager_test.go
package browser

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/dashverify/internal/config"
	"github.com/xkilldash9x/dashverify/internal/verify"
)

func TestManager_RejectsSessionsAfterShutdown(t *testing.T) {
	m := NewManager(config.NewDefaultConfig(), zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx), "second shutdown is a no-op")

	page, err := m.NewSession(context.Background(), verify.SessionOptions{})
	assert.Nil(t, page)
	assert.ErrorIs(t, err, ErrManagerClosed)
}

func TestManager_LaunchFailure(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Browser.ExecPath = "/nonexistent/chrome-binary"
	cfg.Browser.LaunchTimeout = 5 * time.Second
	m := NewManager(cfg, zaptest.NewLogger(t))

	page, err := m.NewSession(context.Background(), verify.SessionOptions{Label: "broken"})
	require.Error(t, err)
	assert.Nil(t, page)
	assert.Equal(t, 0, m.Active())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, m.Shutdown(ctx), "a failed launch must not leave a session behind")
}

func TestManager_ShutdownClosesSessions(t *testing.T) {
	f := newTestFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Manager.NewSession(f.RootCtx, verify.SessionOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 2, f.Manager.Active())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	require.NoError(t, f.Manager.Shutdown(ctx))
	assert.Equal(t, 0, f.Manager.Active())
}

func TestResolveViewport(t *testing.T) {
	fallback := config.ViewportConfig{Width: 1280, Height: 720}
	assert.Equal(t, verify.Viewport{Width: 1280, Height: 720}, resolveViewport(verify.Viewport{}, fallback))
	assert.Equal(t, verify.Viewport{Width: 1280, Height: 1200}, resolveViewport(verify.Viewport{Width: 1280, Height: 1200}, fallback))
	assert.Equal(t, verify.Viewport{Width: 1280, Height: 720}, resolveViewport(verify.Viewport{Width: 800}, fallback))
}

func TestExecOptions(t *testing.T) {
	base := execOptions(config.BrowserConfig{Headless: false}, verify.Viewport{})

	headless := execOptions(config.BrowserConfig{Headless: true}, verify.Viewport{})
	assert.Len(t, headless, len(base)+1, "headless adds disable-gpu")

	full := execOptions(config.BrowserConfig{
		ExecPath: "/usr/bin/chromium",
		Args:     []string{"--lang=en-US", "--disable-extensions", "--", ""},
	}, verify.Viewport{Width: 1280, Height: 800})
	// exec path, window size and the two well-formed args.
	assert.Len(t, full, len(base)+4)
}

// -- Drag interception plumbing --

func TestDragListener(t *testing.T) {
	d := newDragListener()
	data := &input.DragData{DragOperationsMask: 1}

	d.deliver(data) // not armed: dropped without blocking

	ch := d.arm()
	d.deliver(data)
	d.deliver(data) // buffer full: dropped without blocking
	select {
	case got := <-ch:
		assert.Same(t, data, got)
	default:
		t.Fatal("expected an intercepted drag")
	}

	d.disarm()
	d.deliver(data)
	select {
	case <-ch:
		t.Fatal("disarmed listener must not deliver")
	default:
	}
}

func TestDropSequence(t *testing.T) {
	data := &input.DragData{Items: []*input.DragDataItem{{MimeType: "text/plain", Data: "task-4"}}}
	at := point{X: 612.5, Y: 348}

	actions := dropSequence(at, data)
	require.Len(t, actions, 3)

	want := []input.DispatchDragEventType{
		input.DispatchDragEventTypeDragEnter,
		input.DispatchDragEventTypeDragOver,
		input.DispatchDragEventTypeDrop,
	}
	for i, action := range actions {
		ev, ok := action.(*input.DispatchDragEventParams)
		require.True(t, ok, "action %d is %T", i, action)
		assert.Equal(t, want[i], ev.Type)
		assert.Equal(t, at.X, ev.X)
		assert.Equal(t, at.Y, ev.Y)
		assert.Same(t, data, ev.Data)
	}
}

func TestCombineContext(t *testing.T) {
	type key struct{}
	session := context.WithValue(context.Background(), key{}, "target")

	t.Run("inherits session values and op cancellation", func(t *testing.T) {
		op, cancelOp := context.WithCancel(context.Background())
		ctx, cancel := combineContext(session, op)
		defer cancel()

		assert.Equal(t, "target", ctx.Value(key{}))
		cancelOp()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context not canceled with op")
		}
	})

	t.Run("session cancellation wins too", func(t *testing.T) {
		sessionCtx, cancelSession := context.WithCancel(session)
		ctx, cancel := combineContext(sessionCtx, context.Background())
		defer cancel()
		cancelSession()
		<-ctx.Done()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("bounded adds a deadline", func(t *testing.T) {
		ctx, cancel := boundedContext(session, context.Background(), 10*time.Millisecond)
		defer cancel()
		<-ctx.Done()
		assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)

		unbounded, cancelUnbounded := boundedContext(session, context.Background(), 0)
		defer cancelUnbounded()
		_, has := unbounded.Deadline()
		assert.False(t, has)
	})
}
