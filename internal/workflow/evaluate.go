package workflow

import (
	"context"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Branch is a non-empty sub-box together with the label it is sent to.
type Branch struct {
	Target Label
	Box    Box
}

// Split partitions b among the rule's conditions in declaration order. A
// region claimed by a condition is never offered to the ones after it; what
// is left goes to the default. Empty branches are omitted.
func (r *Rule) Split(b Box) []Branch {
	branches := make([]Branch, 0, len(r.Conditions)+1)
	remaining := b
	for _, c := range r.Conditions {
		if remaining.Empty() {
			return branches
		}
		var applied Box
		applied, remaining = c.Split(remaining)
		if !applied.Empty() {
			branches = append(branches, Branch{Target: c.Target, Box: applied})
		}
	}
	if !remaining.Empty() {
		branches = append(branches, Branch{Target: r.Default, Box: remaining})
	}
	return branches
}

// Region is a sub-box that reached a terminal, along with the rule that
// sent it there.
type Region struct {
	Box     Box    `json:"box"`
	Outcome Label  `json:"outcome"`
	Rule    string `json:"rule"`
}

type walker struct {
	ctx    context.Context
	table  *Table
	visit  func(Region) error
	onPath map[string]bool
}

func newWalker(ctx context.Context, t *Table, visit func(Region) error) *walker {
	return &walker{
		ctx:    ctx,
		table:  t,
		visit:  visit,
		onPath: make(map[string]bool),
	}
}

func (w *walker) send(from string, target Label, b Box) error {
	if b.Empty() {
		return nil
	}
	if target.Terminal() {
		return w.visit(Region{Box: b, Outcome: target, Rule: from})
	}
	r, ok := w.table.Rule(string(target))
	if !ok {
		return &ConfigurationError{
			Kind: ErrDanglingReference, Rule: from, Target: target,
		}
	}
	return w.rule(r, b)
}

func (w *walker) rule(r *Rule, b Box) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	if w.onPath[r.Name] {
		return &ConfigurationError{Kind: ErrRuleCycle, Rule: r.Name}
	}
	w.onPath[r.Name] = true
	defer delete(w.onPath, r.Name)

	if Log.IsLevelEnabled(logrus.DebugLevel) {
		Log.WithFields(logrus.Fields{
			"rule":   r.Name,
			"box":    b.String(),
			"volume": b.Volume(),
		}).Debug("enter rule")
	}

	for _, br := range r.Split(b) {
		if err := w.send(r.Name, br.Target, br.Box); err != nil {
			return err
		}
	}
	return nil
}

// Partition calls visit for every terminal sub-box produced by routing b
// from entry. The visited boxes tile b exactly. The table is validated
// first, so a dangling reference aborts the call even when no part of b
// would reach it. A box with more than math.MaxInt64 points is rejected with
// ErrVolumeOverflow.
func Partition(t *Table, entry string, b Box, visit func(Region) error) error {
	return partition(context.Background(), t, entry, b, visit)
}

func partition(
	ctx context.Context, t *Table, entry string, b Box, visit func(Region) error,
) error {
	if err := t.Validate(entry); err != nil {
		return err
	}
	if _, err := b.CheckedVolume(); err != nil {
		return err
	}
	if b.Empty() {
		return nil
	}
	r, _ := t.Rule(entry)
	return newWalker(ctx, t, visit).rule(r, b)
}

// Count returns the number of integer points of b that reach Accept.
func Count(t *Table, entry string, b Box) (int64, error) {
	var total int64
	err := Partition(t, entry, b, func(r Region) error {
		if r.Outcome == Accept {
			total += r.Box.Volume()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
