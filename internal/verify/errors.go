package verify

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/dashverify/internal/locator"
)

var (
	// ErrNavigation marks runs that never reached the target origin.
	ErrNavigation = errors.New("navigation failed")
	// ErrCondition marks runs where an expected UI condition was not met in time
	// or the page contradicted an assertion. Cancellation and I/O failures are not conditions.
	ErrCondition = errors.New("verification step failed")
	// ErrSession marks runs where no browser session could be acquired.
	ErrSession = errors.New("browser session unavailable")
	// ErrInvalidScript is returned before any browser work when a script is malformed.
	ErrInvalidScript = errors.New("invalid script")
)

// NavigationError reports a failed initial navigation.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("error navigating to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() []error { return []error{ErrNavigation, e.Err} }

// StepError reports the step that aborted a run.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() []error {
	if errors.Is(e.Err, locator.ErrConditionTimeout) {
		return []error{ErrCondition, e.Err}
	}
	return []error{e.Err}
}
