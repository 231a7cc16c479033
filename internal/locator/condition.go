package locator

import (
	"errors"
	"fmt"
)

// ErrConditionTimeout is returned when a polled condition does not hold before its deadline.
var ErrConditionTimeout = errors.New("condition not met in time")

// State is the kind of check a Condition performs.
type State string

const (
	StateVisible         State = "visible"
	StateHidden          State = "hidden"
	StateContainsText    State = "contains_text"
	StateNotContainsText State = "not_contains_text"
	StateChecked         State = "checked"
	StateUnchecked       State = "unchecked"
)

// Condition is a predicate over the elements a locator resolves to.
//
// Visible holds when at least one match is visible. Hidden holds when none is
// (zero matches included). ContainsText holds when any match's normalized text
// contains Text; NotContainsText holds when no match's text does. Checked and
// Unchecked look at the first match.
type Condition struct {
	State State  `json:"state"`
	Text  string `json:"text,omitempty"`
}

func Visible() Condition   { return Condition{State: StateVisible} }
func Hidden() Condition    { return Condition{State: StateHidden} }
func Checked() Condition   { return Condition{State: StateChecked} }
func Unchecked() Condition { return Condition{State: StateUnchecked} }

func ContainsText(text string) Condition {
	return Condition{State: StateContainsText, Text: text}
}

func NotContainsText(text string) Condition {
	return Condition{State: StateNotContainsText, Text: text}
}

// Validate rejects unknown states and text conditions without text.
func (c Condition) Validate() error {
	switch c.State {
	case StateVisible, StateHidden, StateChecked, StateUnchecked:
		return nil
	case StateContainsText, StateNotContainsText:
		if c.Text == "" {
			return fmt.Errorf("condition %s requires text", c.State)
		}
		return nil
	default:
		return fmt.Errorf("unknown condition state %q", c.State)
	}
}

func (c Condition) String() string {
	if c.Text != "" {
		return fmt.Sprintf("%s %q", c.State, c.Text)
	}
	return string(c.State)
}
