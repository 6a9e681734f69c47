package workflow

import (
	"fmt"
	"math"
)

// Interval is the half-open integer range [Low, High).
type Interval struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Len is the number of integers in iv. The difference is taken in uint64,
// where it is exact for any pair of ints.
func (iv Interval) Len() uint64 {
	if iv.High <= iv.Low {
		return 0 // inverted intervals are empty, never negative
	}
	return uint64(iv.High) - uint64(iv.Low)
}

func (iv Interval) Empty() bool {
	return iv.High <= iv.Low
}

func (iv Interval) Contains(v int) bool {
	return iv.Low <= v && v < iv.High
}

// Intersect clamps iv to [low, high). An empty result keeps its Low so that
// it still reports where the cut happened.
func (iv Interval) Intersect(low, high int) Interval {
	out := Interval{Low: max(iv.Low, low), High: min(iv.High, high)}
	if out.High < out.Low {
		out.High = out.Low
	}
	return out
}

// SplitGreater returns the part of iv above t and the rest.
func (iv Interval) SplitGreater(t int) (applied, remaining Interval) {
	if t == math.MaxInt {
		// nothing is above t, and t+1 would wrap
		return iv.Intersect(iv.High, iv.High), iv.Intersect(iv.Low, iv.High)
	}
	applied = iv.Intersect(t+1, iv.High)
	remaining = iv.Intersect(iv.Low, t+1)
	return
}

// SplitLess returns the part of iv below t and the rest.
func (iv Interval) SplitLess(t int) (applied, remaining Interval) {
	applied = iv.Intersect(iv.Low, t)
	remaining = iv.Intersect(t, iv.High)
	return
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d)", iv.Low, iv.High)
}
