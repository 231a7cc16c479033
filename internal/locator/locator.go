// Package locator describes DOM queries that are resolved against the live page
// every time they are used. A Locator never holds a reference to a node, so it
// can match zero, one, or many elements depending on when it is evaluated.
package locator

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the strategy a single query segment uses to match elements.
type Kind string

const (
	KindCSS  Kind = "css"
	KindText Kind = "text"
)

// OpKind is a narrowing step applied to the matches of a segment.
type OpKind string

const (
	OpHasText OpKind = "has_text"
	OpNth     OpKind = "nth"
)

// Op narrows the matches of a segment. Ops run in the order they were added,
// so Filter(a).First() and First().Filter(a) select different elements.
type Op struct {
	Kind  OpKind `json:"op"`
	Text  string `json:"text,omitempty"`
	Index int    `json:"index"`
}

func (o Op) String() string {
	if o.Kind == OpHasText {
		return fmt.Sprintf("has-text=%q", o.Text)
	}
	return fmt.Sprintf("nth=%d", o.Index)
}

// Segment is one query in a locator chain. Each segment is evaluated inside the
// matches of the previous one.
type Segment struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
	Ops   []Op   `json:"ops,omitempty"`
}

// Locator is an immutable chain of segments. The zero value matches nothing and
// fails validation.
type Locator struct {
	chain []Segment
}

// ByCSS matches elements with a CSS selector.
func ByCSS(selector string) Locator {
	return Locator{chain: []Segment{{Kind: KindCSS, Value: selector}}}
}

// ByID matches the element with the given id. A leading '#' is accepted.
func ByID(id string) Locator {
	return ByCSS("#" + strings.TrimPrefix(id, "#"))
}

// ByText matches the innermost elements whose visible text contains text,
// ignoring case and collapsing whitespace.
func ByText(text string) Locator {
	return Locator{chain: []Segment{{Kind: KindText, Value: text}}}
}

// Locator scopes child inside the current matches.
func (l Locator) Locator(child Locator) Locator {
	out := l.clone(len(child.chain))
	out.chain = append(out.chain, child.chain...)
	return out
}

// Filter keeps only matches whose text contains text (case-insensitive).
// Repeated filters must all match.
func (l Locator) Filter(hasText string) Locator {
	return l.narrow(Op{Kind: OpHasText, Text: hasText})
}

// First narrows the current matches to the first one.
func (l Locator) First() Locator {
	return l.Nth(0)
}

// Nth narrows the current matches to the zero-based index i.
func (l Locator) Nth(i int) Locator {
	return l.narrow(Op{Kind: OpNth, Index: i})
}

// Chain returns a copy of the segments, outermost first.
func (l Locator) Chain() []Segment {
	return l.clone(0).chain
}

// Validate reports whether the locator can be evaluated.
func (l Locator) Validate() error {
	if len(l.chain) == 0 {
		return errors.New("locator is empty")
	}
	for i, seg := range l.chain {
		if strings.TrimSpace(seg.Value) == "" {
			return fmt.Errorf("locator segment %d has an empty query", i)
		}
		for _, op := range seg.Ops {
			switch {
			case op.Kind == OpNth && op.Index < 0:
				return fmt.Errorf("locator segment %d has invalid index %d", i, op.Index)
			case op.Kind == OpHasText && strings.TrimSpace(op.Text) == "":
				return fmt.Errorf("locator segment %d has an empty text filter", i)
			case op.Kind != OpNth && op.Kind != OpHasText:
				return fmt.Errorf("locator segment %d has unknown op %q", i, op.Kind)
			}
		}
		switch seg.Kind {
		case KindCSS, KindText:
		default:
			return fmt.Errorf("locator segment %d has unknown kind %q", i, seg.Kind)
		}
	}
	return nil
}

// String renders the chain in a selector-like form for logs, e.g.
// `css=#coursesList > div >> has-text="AP Physics" >> nth=0 >> css=input[type='checkbox']`.
func (l Locator) String() string {
	if len(l.chain) == 0 {
		return "<empty>"
	}
	parts := make([]string, 0, len(l.chain)*3)
	for _, seg := range l.chain {
		parts = append(parts, fmt.Sprintf("%s=%s", seg.Kind, seg.Value))
		for _, op := range seg.Ops {
			parts = append(parts, op.String())
		}
	}
	return strings.Join(parts, " >> ")
}

// clone deep-copies the chain, ops included, so no two locators share backing arrays.
func (l Locator) clone(extra int) Locator {
	chain := make([]Segment, len(l.chain), len(l.chain)+extra)
	for i, seg := range l.chain {
		seg.Ops = append([]Op(nil), seg.Ops...)
		chain[i] = seg
	}
	return Locator{chain: chain}
}

// narrow appends op to the last segment of a copy of l.
func (l Locator) narrow(op Op) Locator {
	out := l.clone(0)
	if n := len(out.chain); n > 0 {
		out.chain[n-1].Ops = append(out.chain[n-1].Ops, op)
	}
	return out
}
