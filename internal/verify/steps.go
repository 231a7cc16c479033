// File: internal/verify/steps.go
package verify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dashverify/internal/locator"
)

// Timeouts are the default bounds applied to steps that do not carry their own.
type Timeouts struct {
	Expect time.Duration
	Login  time.Duration
}

// Env is what a step runs against. One Env belongs to exactly one run.
type Env struct {
	Page      Page
	Artifacts ArtifactWriter
	Logger    *zap.Logger
	Timeouts  Timeouts

	written []string
}

// Written lists the artifact paths produced so far, in order.
func (e *Env) Written() []string {
	return append([]string(nil), e.written...)
}

func (e *Env) capture(ctx context.Context, path string) (string, error) {
	png, err := e.Page.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}
	full, err := e.Artifacts.WriteScreenshot(path, png)
	if err != nil {
		return "", fmt.Errorf("writing screenshot %s: %w", path, err)
	}
	e.written = append(e.written, full)
	return full, nil
}

// Step is one scripted action or assertion.
type Step interface {
	Name() string
	Run(ctx context.Context, env *Env) error
}

// -- Actions --

type clickStep struct{ target locator.Locator }

// Click clicks the first visible match of target.
func Click(target locator.Locator) Step { return clickStep{target: target} }

func (s clickStep) Name() string { return "click " + s.target.String() }

func (s clickStep) Run(ctx context.Context, env *Env) error {
	return env.Page.Click(ctx, s.target)
}

type checkStep struct {
	target  locator.Locator
	checked bool
}

// Check ticks the checkbox matched by target.
func Check(target locator.Locator) Step { return checkStep{target: target, checked: true} }

// Uncheck clears the checkbox matched by target.
func Uncheck(target locator.Locator) Step { return checkStep{target: target, checked: false} }

func (s checkStep) Name() string {
	if s.checked {
		return "check " + s.target.String()
	}
	return "uncheck " + s.target.String()
}

func (s checkStep) Run(ctx context.Context, env *Env) error {
	return env.Page.SetChecked(ctx, s.target, s.checked)
}

type dragStep struct{ source, target locator.Locator }

// DragTo drags source onto target. Verify the outcome with a following Expect,
// which polls, so the drop has settled before any text is read.
func DragTo(source, target locator.Locator) Step { return dragStep{source: source, target: target} }

func (s dragStep) Name() string {
	return fmt.Sprintf("drag %s onto %s", s.source, s.target)
}

func (s dragStep) Run(ctx context.Context, env *Env) error {
	return env.Page.DragTo(ctx, s.source, s.target)
}

type pauseStep struct{ d time.Duration }

// Pause waits a fixed duration to let asynchronous rendering settle.
func Pause(d time.Duration) Step { return pauseStep{d: d} }

func (s pauseStep) Name() string { return fmt.Sprintf("pause %s", s.d) }

func (s pauseStep) Run(ctx context.Context, _ *Env) error {
	timer := time.NewTimer(s.d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type screenshotStep struct{ path string }

// Screenshot writes an intermediate full-page checkpoint to path.
func Screenshot(path string) Step { return screenshotStep{path: path} }

func (s screenshotStep) Name() string { return "screenshot " + s.path }

func (s screenshotStep) Run(ctx context.Context, env *Env) error {
	full, err := env.capture(ctx, s.path)
	if err != nil {
		return err
	}
	env.Logger.Info("Screenshot taken.", zap.String("path", full))
	return nil
}

// -- Assertions --

type expectStep struct {
	target  locator.Locator
	cond    locator.Condition
	timeout time.Duration
}

// Expect asserts cond on target within the default expect timeout.
func Expect(target locator.Locator, cond locator.Condition) Step {
	return expectStep{target: target, cond: cond}
}

// ExpectWithin asserts cond on target within timeout.
func ExpectWithin(target locator.Locator, cond locator.Condition, timeout time.Duration) Step {
	return expectStep{target: target, cond: cond, timeout: timeout}
}

func (s expectStep) Name() string {
	return fmt.Sprintf("expect %s %s", s.target, s.cond)
}

func (s expectStep) Run(ctx context.Context, env *Env) error {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = env.Timeouts.Expect
	}
	return env.Page.Expect(ctx, s.target, s.cond, timeout)
}

// -- Login --

// LoginStep clicks the login control and blocks until the post-login container is visible.
type LoginStep struct {
	Button  locator.Locator
	Ready   locator.Locator
	Timeout time.Duration
}

// Login builds the login step used by every script.
func Login(button, ready locator.Locator) *LoginStep {
	return &LoginStep{Button: button, Ready: ready}
}

// Within overrides the login wait bound.
func (s *LoginStep) Within(d time.Duration) *LoginStep {
	s.Timeout = d
	return s
}

func (s *LoginStep) Name() string {
	return fmt.Sprintf("login via %s", s.Button)
}

func (s *LoginStep) Run(ctx context.Context, env *Env) error {
	env.Logger.Info("Logging in...")
	if err := env.Page.Click(ctx, s.Button); err != nil {
		return err
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = env.Timeouts.Login
	}
	return env.Page.Expect(ctx, s.Ready, locator.Visible(), timeout)
}

func (s *LoginStep) validate() error {
	if err := s.Button.Validate(); err != nil {
		return fmt.Errorf("login button: %w", err)
	}
	if err := s.Ready.Validate(); err != nil {
		return fmt.Errorf("login ready locator: %w", err)
	}
	return nil
}

// -- Validation --

type validator interface {
	validate() error
}

func (s clickStep) validate() error { return s.target.Validate() }
func (s checkStep) validate() error { return s.target.Validate() }

func (s dragStep) validate() error {
	if err := s.source.Validate(); err != nil {
		return fmt.Errorf("drag source: %w", err)
	}
	if err := s.target.Validate(); err != nil {
		return fmt.Errorf("drag target: %w", err)
	}
	return nil
}

func (s pauseStep) validate() error {
	if s.d <= 0 {
		return fmt.Errorf("pause duration must be positive")
	}
	return nil
}

func (s screenshotStep) validate() error {
	if s.path == "" {
		return fmt.Errorf("screenshot path is empty")
	}
	return nil
}

func (s expectStep) validate() error {
	if err := s.target.Validate(); err != nil {
		return err
	}
	return s.cond.Validate()
}
