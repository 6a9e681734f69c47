package workflow

import (
	"fmt"
	"strings"
)

// Label names where a sub-box goes next: a terminal or another rule.
type Label string

const (
	Accept Label = "A"
	Reject Label = "R"
)

func (l Label) Terminal() bool {
	return l == Accept || l == Reject
}

type Comparator byte

const (
	Greater Comparator = '>'
	Less    Comparator = '<'
)

func (op Comparator) String() string {
	return string(op)
}

type Condition struct {
	Category  Category
	Op        Comparator
	Threshold int
	Target    Label
}

func (c Condition) Matches(p Part) bool {
	v := p[c.Category]
	switch c.Op {
	case Greater:
		return v > c.Threshold
	case Less:
		return v < c.Threshold
	}
	return false
}

// Split divides b into the region matching c and the region left for the
// following conditions. Only the condition's axis changes.
func (c Condition) Split(b Box) (applied, remaining Box) {
	iv := b[c.Category]
	var a, r Interval
	switch c.Op {
	case Greater:
		a, r = iv.SplitGreater(c.Threshold)
	case Less:
		a, r = iv.SplitLess(c.Threshold)
	default:
		panic(fmt.Sprintf("workflow: invalid comparator %q", byte(c.Op)))
	}
	return b.With(c.Category, a), b.With(c.Category, r)
}

func (c Condition) String() string {
	return fmt.Sprintf("%s%s%d:%s", c.Category, c.Op, c.Threshold, c.Target)
}

type Rule struct {
	Name       string
	Conditions []Condition
	Default    Label
}

// Targets lists every label the rule can send a box to, default last.
func (r *Rule) Targets() []Label {
	targets := make([]Label, 0, len(r.Conditions)+1)
	for _, c := range r.Conditions {
		targets = append(targets, c.Target)
	}
	return append(targets, r.Default)
}

// Next returns the label a single part is sent to.
func (r *Rule) Next(p Part) Label {
	for _, c := range r.Conditions {
		if c.Matches(p) {
			return c.Target
		}
	}
	return r.Default
}

func (r *Rule) String() string {
	parts := make([]string, 0, len(r.Conditions)+1)
	for _, c := range r.Conditions {
		parts = append(parts, c.String())
	}
	parts = append(parts, string(r.Default))
	return r.Name + "{" + strings.Join(parts, ",") + "}"
}
