// File: internal/verify/runner.go
package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultExpectTimeout = 5 * time.Second
	defaultLoginTimeout  = 10 * time.Second
	// releaseTimeout bounds session teardown, which runs on a context detached from the caller's.
	releaseTimeout = 15 * time.Second
	// evidenceTimeout bounds the failure screenshot taken while unwinding.
	evidenceTimeout = 10 * time.Second
)

// Runner executes verification scripts. Each Run owns exactly one browser session.
type Runner struct {
	launcher  Launcher
	artifacts ArtifactWriter
	logger    *zap.Logger
	timeouts  Timeouts
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeouts overrides the default expect and login bounds. Zero fields keep the defaults.
func WithTimeouts(t Timeouts) Option {
	return func(r *Runner) {
		if t.Expect > 0 {
			r.timeouts.Expect = t.Expect
		}
		if t.Login > 0 {
			r.timeouts.Login = t.Login
		}
	}
}

// WithClock is useful for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner.
func NewRunner(launcher Launcher, artifacts ArtifactWriter, logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		launcher:  launcher,
		artifacts: artifacts,
		logger:    logger.Named("runner"),
		timeouts:  Timeouts{Expect: defaultExpectTimeout, Login: defaultLoginTimeout},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes script end to end.
//
// The session is released on every path. A navigation failure ends the run
// without writing any artifact. Any later failure writes the failure artifact
// before the error is returned. The returned Result is never nil.
func (r *Runner) Run(ctx context.Context, script Script) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		Script:    script.Name,
		BaseURL:   script.BaseURL,
		StartedAt: r.now(),
	}
	log := r.logger.With(zap.String("script", script.Name), zap.String("run_id", result.RunID))

	if err := script.Validate(); err != nil {
		r.finish(result, StatusInvalid, err)
		return result, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	r.clearStale(script, log)

	log.Info("Launching browser...")
	page, err := r.launcher.NewSession(ctx, SessionOptions{Viewport: script.Viewport, Label: script.Name})
	if err != nil {
		log.Error("Could not acquire a browser session.", zap.Error(err))
		r.finish(result, StatusSessionFailed, err)
		return result, fmt.Errorf("%w: %w", ErrSession, err)
	}
	defer r.release(page, log)

	log.Info("Navigating...", zap.String("url", script.BaseURL))
	if err := page.Navigate(ctx, script.BaseURL); err != nil {
		log.Error("Error navigating.", zap.String("url", script.BaseURL), zap.Error(err))
		navErr := &NavigationError{URL: script.BaseURL, Err: err}
		r.finish(result, StatusNavigationFailed, navErr)
		return result, navErr
	}

	env := &Env{
		Page:      page,
		Artifacts: r.artifacts,
		Logger:    log,
		Timeouts:  r.timeouts,
	}

	if stepName, err := r.execute(ctx, env, script, log); err != nil {
		stepErr := &StepError{Step: stepName, Err: err}
		log.Error("Test failed.", zap.String("step", stepName), zap.Error(err))
		r.captureFailure(ctx, env, script, log)
		result.FailedStep = stepName
		result.Artifacts = env.Written()
		r.finish(result, StatusFailed, stepErr)
		return result, stepErr
	}

	result.Artifacts = env.Written()
	r.finish(result, StatusPassed, nil)
	log.Info("Done.", zap.Duration("elapsed", result.Duration()))
	return result, nil
}

// execute runs login, the scripted steps and the success screenshot, returning
// the name of the step that failed.
func (r *Runner) execute(ctx context.Context, env *Env, script Script, log *zap.Logger) (string, error) {
	steps := make([]Step, 0, len(script.Steps)+1)
	steps = append(steps, script.Login)
	steps = append(steps, script.Steps...)

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return step.Name(), err
		}
		log.Info("Running step.", zap.String("step", step.Name()))
		if err := step.Run(ctx, env); err != nil {
			return step.Name(), err
		}
	}

	log.Info("Taking screenshot...", zap.String("path", script.Artifact))
	if _, err := env.capture(ctx, script.Artifact); err != nil {
		return "screenshot " + script.Artifact, err
	}
	return "", nil
}

// captureFailure keeps evidence of the page at the moment a step failed. It
// runs even if ctx was cancelled, within its own bound.
func (r *Runner) captureFailure(ctx context.Context, env *Env, script Script, log *zap.Logger) {
	evidenceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), evidenceTimeout)
	defer cancel()

	path, err := env.capture(evidenceCtx, script.FailurePath())
	if err != nil {
		log.Warn("Could not capture failure screenshot.", zap.Error(err))
		return
	}
	log.Info("Failure screenshot taken.", zap.String("path", path))
}

// clearStale removes artifacts of a previous run so success and failure
// screenshots never coexist for one script.
func (r *Runner) clearStale(script Script, log *zap.Logger) {
	for _, path := range []string{script.Artifact, script.FailurePath()} {
		if err := r.artifacts.Remove(path); err != nil {
			log.Warn("Could not remove stale artifact.", zap.String("path", path), zap.Error(err))
		}
	}
}

func (r *Runner) release(page Page, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := page.Close(ctx); err != nil {
		log.Warn("Error while closing browser session.", zap.Error(err))
	}
}

func (r *Runner) finish(result *Result, status Status, err error) {
	result.Status = status
	result.FinishedAt = r.now()
	if err != nil {
		result.Error = err.Error()
	}
}
