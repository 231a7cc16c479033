// File: internal/browser/query.go
package browser

import (
	_ "embed"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/dashverify/internal/locator"
)

// The query runtime resolves a locator chain in the page and answers one
// question about the matches. It is a function expression so it can be handed
// to chromedp.PollFunction directly.
//
//go:embed js/query.js
var queryTemplate string

const requestPlaceholder = "/*{{DASHVERIFY_REQUEST}}*/"

// Requests are evaluated over CDP, never embedded in HTML, so selectors keep their literal characters.
var json = jsoniter.Config{EscapeHTML: false, SortMapKeys: true}.Froze()

type queryOp string

const (
	// opCheck returns whether a Condition holds.
	opCheck queryOp = "check"
	// opPoint returns the viewport center of the first visible match, scrolled into view, or null.
	opPoint queryOp = "point"
	// opState returns "on", "off", or "none" for the first match's checked state.
	opState queryOp = "state"
	// opChecked returns whether the first match's checked state equals want.
	opChecked queryOp = "checked"
)

type queryRequest struct {
	Op        queryOp            `json:"op"`
	Chain     []locator.Segment  `json:"chain"`
	Condition *locator.Condition `json:"condition,omitempty"`
	Want      *bool              `json:"want,omitempty"`
}

// point is a position in CSS pixels relative to the viewport.
type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// buildQuery renders the query runtime for one request.
func buildQuery(req queryRequest) (string, error) {
	if len(req.Chain) == 0 {
		return "", fmt.Errorf("query %s: empty locator chain", req.Op)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("query %s: encoding request: %w", req.Op, err)
	}
	if !strings.Contains(queryTemplate, requestPlaceholder) {
		return "", fmt.Errorf("query runtime is missing its request placeholder")
	}
	return strings.Replace(queryTemplate, requestPlaceholder, string(payload), 1), nil
}

// invoke wraps a query function so it can be evaluated as an expression.
func invoke(fn string) string {
	return "(" + fn + ")()"
}

func checkQuery(loc locator.Locator, cond locator.Condition) (string, error) {
	return buildQuery(queryRequest{Op: opCheck, Chain: loc.Chain(), Condition: &cond})
}

func pointQuery(loc locator.Locator) (string, error) {
	return buildQuery(queryRequest{Op: opPoint, Chain: loc.Chain()})
}

func stateQuery(loc locator.Locator) (string, error) {
	return buildQuery(queryRequest{Op: opState, Chain: loc.Chain()})
}

func checkedQuery(loc locator.Locator, want bool) (string, error) {
	return buildQuery(queryRequest{Op: opChecked, Chain: loc.Chain(), Want: &want})
}
