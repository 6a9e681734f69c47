package workflow

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// CountParallel is Count with the branches of the entry rule evaluated
// concurrently. The first error cancels the remaining branches.
func CountParallel(ctx context.Context, t *Table, entry string, b Box) (int64, error) {
	if err := t.Validate(entry); err != nil {
		return 0, err
	}
	if _, err := b.CheckedVolume(); err != nil {
		return 0, err
	}
	if b.Empty() {
		return 0, nil
	}

	r, _ := t.Rule(entry)
	branches := r.Split(b)
	counts := make([]int64, len(branches))

	Log.WithFields(logrus.Fields{
		"rule":     entry,
		"branches": len(branches),
	}).Debug("fan out")

	g, gCtx := errgroup.WithContext(ctx)
	for i, br := range branches {
		g.Go(func() error {
			w := newWalker(gCtx, t, func(reg Region) error {
				if reg.Outcome == Accept {
					counts[i] += reg.Box.Volume()
				}
				return nil
			})
			w.onPath[r.Name] = true
			return w.send(r.Name, br.Target, br.Box)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return total, nil
}
