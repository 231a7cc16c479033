// File: internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dashverify/internal/locator"
	"github.com/xkilldash9x/dashverify/internal/verify"
)

// sessionTimeouts bound the waits a session performs on its own.
type sessionTimeouts struct {
	Navigation time.Duration
	Action     time.Duration
	Poll       time.Duration
}

// Session is one browser process with a single tab. It implements verify.Page.
type Session struct {
	id       string
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
	timeouts sessionTimeouts
	drags    *dragListener

	onClose func()

	mu       sync.Mutex
	isClosed bool
}

var _ verify.Page = (*Session)(nil)

func newSession(ctx context.Context, cancel context.CancelFunc, timeouts sessionTimeouts, logger *zap.Logger, onClose func()) *Session {
	id := uuid.New().String()
	s := &Session{
		id:       id,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With(zap.String("session_id", id)),
		timeouts: timeouts,
		drags:    newDragListener(),
		onClose:  onClose,
	}
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if ev, ok := ev.(*input.EventDragIntercepted); ok {
			s.drags.deliver(ev.Data)
		}
	})
	return s
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx, s.timeouts.Navigation, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	s.logger.Debug("Navigation complete.", zap.String("url", url))
	return nil
}

// Click waits for loc to become actionable and clicks its center with a real mouse event.
func (s *Session) Click(ctx context.Context, loc locator.Locator) error {
	p, err := s.actionPoint(ctx, loc)
	if err != nil {
		return err
	}
	if err := s.run(ctx, s.timeouts.Action, chromedp.MouseClickXY(p.X, p.Y)); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

// SetChecked clicks the checkbox matched by loc when its state differs from checked,
// then waits for the new state to be observed.
func (s *Session) SetChecked(ctx context.Context, loc locator.Locator, checked bool) error {
	p, err := s.actionPoint(ctx, loc)
	if err != nil {
		return err
	}

	js, err := stateQuery(loc)
	if err != nil {
		return err
	}
	var state string
	if err := s.run(ctx, s.timeouts.Action, chromedp.Evaluate(invoke(js), &state)); err != nil {
		return fmt.Errorf("read checked state of %s: %w", loc, err)
	}
	switch state {
	case "none":
		return fmt.Errorf("%s is not a checkbox: %w", loc, verify.ErrCondition)
	case "on":
		if checked {
			return nil
		}
	case "off":
		if !checked {
			return nil
		}
	}

	if err := s.run(ctx, s.timeouts.Action, chromedp.MouseClickXY(p.X, p.Y)); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}

	js, err = checkedQuery(loc, checked)
	if err != nil {
		return err
	}
	var ok bool
	if err := s.poll(ctx, js, &ok, s.timeouts.Action); err != nil {
		return fmt.Errorf("%s did not become checked=%t: %w", loc, checked, err)
	}
	return nil
}

// Expect polls cond against loc until it holds or timeout elapses.
func (s *Session) Expect(ctx context.Context, loc locator.Locator, cond locator.Condition, timeout time.Duration) error {
	js, err := checkQuery(loc, cond)
	if err != nil {
		return err
	}
	var ok bool
	if err := s.poll(ctx, js, &ok, timeout); err != nil {
		return fmt.Errorf("expect %s %s within %s: %w", loc, cond, timeout, err)
	}
	return nil
}

// Screenshot captures the whole page, beyond the viewport, as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, s.timeouts.Action, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("capture full page: %w", err)
	}
	return buf, nil
}

// Close terminates the browser process. Calling it again is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	// chromedp.Cancel blocks until the browser has exited, so it runs under the caller's bound.
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Cancel(s.ctx)
	}()

	var err error
	select {
	case err = <-done:
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	case <-ctx.Done():
		err = fmt.Errorf("timed out waiting for browser exit: %w", ctx.Err())
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return err
}

// actionPoint waits until loc has a visible match and returns its center,
// scrolled into view.
func (s *Session) actionPoint(ctx context.Context, loc locator.Locator) (point, error) {
	js, err := pointQuery(loc)
	if err != nil {
		return point{}, err
	}
	var p point
	if err := s.poll(ctx, js, &p, s.timeouts.Action); err != nil {
		return point{}, fmt.Errorf("waiting for %s to be actionable: %w", loc, err)
	}
	return p, nil
}

// poll runs a query function until it returns a truthy value. Running out of
// time is reported as locator.ErrConditionTimeout.
func (s *Session) poll(ctx context.Context, js string, res interface{}, timeout time.Duration) error {
	opts := []chromedp.PollOption{chromedp.WithPollingTimeout(timeout)}
	if s.timeouts.Poll > 0 {
		opts = append(opts, chromedp.WithPollingInterval(s.timeouts.Poll))
	}

	// The outer bound only exists so a hung CDP call cannot outlive the poll itself.
	err := s.run(ctx, timeout+s.timeouts.Action, chromedp.PollFunction(js, res, opts...))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, chromedp.ErrPollingTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return locator.ErrConditionTimeout
	}
	return err
}

// run executes actions bounded by both the session lifetime and ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := boundedContext(s.ctx, ctx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}
