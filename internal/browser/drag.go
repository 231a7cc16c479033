// File: internal/browser/drag.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dashverify/internal/locator"
)

const (
	// dragSteps is the number of intermediate mouse moves between source and target.
	dragSteps = 10
	// dragStartOffset nudges the pointer past the platform drag threshold.
	dragStartOffset = 5.0
	// interceptGrace is how long to wait for Chrome to report an intercepted drag.
	interceptGrace = 250 * time.Millisecond
)

// dragListener hands Input.dragIntercepted payloads from the target's event
// loop to the goroutine performing a drag. At most one drag is armed at a time.
type dragListener struct {
	mu      sync.Mutex
	pending chan *input.DragData
}

func newDragListener() *dragListener {
	return &dragListener{}
}

// arm starts collecting intercepted drags and returns the channel they arrive on.
func (d *dragListener) arm() <-chan *input.DragData {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = make(chan *input.DragData, 1)
	return d.pending
}

func (d *dragListener) disarm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = nil
}

// deliver runs on the CDP event loop and must never block.
func (d *dragListener) deliver(data *input.DragData) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return
	}
	select {
	case d.pending <- data:
	default:
	}
}

// DragTo drags the first visible match of src onto the first visible match of dst.
//
// Drag interception is enabled for the duration, so HTML5 drag-and-drop
// (dragstart/dragover/drop listeners) receives a real DataTransfer. Pages that
// implement dragging with plain mouse events see the same pointer path.
func (s *Session) DragTo(ctx context.Context, src, dst locator.Locator) error {
	from, err := s.actionPoint(ctx, src)
	if err != nil {
		return fmt.Errorf("drag source: %w", err)
	}

	intercepted := s.drags.arm()
	defer s.drags.disarm()

	if err := s.run(ctx, s.timeouts.Action, input.SetInterceptDrags(true)); err != nil {
		return fmt.Errorf("enable drag interception: %w", err)
	}
	defer func() {
		resetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.run(resetCtx, 0, input.SetInterceptDrags(false)); err != nil {
			s.logger.Debug("Could not disable drag interception.", zap.Error(err))
		}
	}()

	// Press on the source and move just enough to start the drag.
	err = s.run(ctx, s.timeouts.Action,
		mouseEvent(input.MouseMoved, from, false),
		mouseEvent(input.MousePressed, from, true),
		mouseEvent(input.MouseMoved, point{X: from.X + dragStartOffset, Y: from.Y + dragStartOffset}, true),
	)
	if err != nil {
		return fmt.Errorf("start drag at %s: %w", src, err)
	}

	to, err := s.actionPoint(ctx, dst)
	if err != nil {
		s.releaseMouse(ctx, from)
		return fmt.Errorf("drag target: %w", err)
	}

	moves := make([]chromedp.Action, 0, dragSteps)
	for i := 1; i <= dragSteps; i++ {
		f := float64(i) / dragSteps
		moves = append(moves, mouseEvent(input.MouseMoved, point{
			X: from.X + (to.X-from.X)*f,
			Y: from.Y + (to.Y-from.Y)*f,
		}, true))
	}
	if err := s.run(ctx, s.timeouts.Action, moves...); err != nil {
		s.releaseMouse(ctx, to)
		return fmt.Errorf("move to %s: %w", dst, err)
	}

	var data *input.DragData
	select {
	case data = <-intercepted:
	case <-time.After(interceptGrace):
	case <-ctx.Done():
		s.releaseMouse(ctx, to)
		return ctx.Err()
	}

	if data != nil {
		s.logger.Debug("Dispatching intercepted drag.", zap.Int("items", len(data.Items)))
		if err := s.run(ctx, s.timeouts.Action, dropSequence(to, data)...); err != nil {
			s.releaseMouse(ctx, to)
			return fmt.Errorf("drop onto %s: %w", dst, err)
		}
	}

	if err := s.run(ctx, s.timeouts.Action, mouseEvent(input.MouseReleased, to, true)); err != nil {
		return fmt.Errorf("release over %s: %w", dst, err)
	}
	return nil
}

// releaseMouse lets go of the left button after a failed drag so the page is
// not left mid-gesture for the failure screenshot.
func (s *Session) releaseMouse(ctx context.Context, at point) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.run(releaseCtx, 0, mouseEvent(input.MouseReleased, at, true)); err != nil {
		s.logger.Debug("Could not release mouse button.", zap.Error(err))
	}
}

// dropSequence replays an intercepted drag over at: enter, over, then drop.
func dropSequence(at point, data *input.DragData) []chromedp.Action {
	return []chromedp.Action{
		input.DispatchDragEvent(input.DispatchDragEventTypeDragEnter, at.X, at.Y, data),
		input.DispatchDragEvent(input.DispatchDragEventTypeDragOver, at.X, at.Y, data),
		input.DispatchDragEvent(input.DispatchDragEventTypeDrop, at.X, at.Y, data),
	}
}

// mouseEvent builds a left-button mouse event. held marks moves made with the button down.
func mouseEvent(typ input.MouseType, at point, held bool) chromedp.Action {
	ev := input.DispatchMouseEvent(typ, at.X, at.Y)
	switch {
	case typ == input.MousePressed || typ == input.MouseReleased:
		ev = ev.WithButton(input.Left).WithClickCount(1)
	case held:
		ev = ev.WithButton(input.Left).WithButtons(1)
	}
	return ev
}
