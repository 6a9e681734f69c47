package workflow

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// Box is an axis-aligned region of the rating space, one interval per
// category. It is a value type: With returns a modified copy.
type Box [NumCategories]Interval

// FullBox returns the box spanning [low, high) on every axis.
func FullBox(low, high int) Box {
	var b Box
	for c := range b {
		b[c] = Interval{Low: low, High: high}
	}
	return b
}

// CheckedVolume returns the number of integer points in b, or
// ErrVolumeOverflow when that count does not fit in an int64.
func (b Box) CheckedVolume() (int64, error) {
	if b.Empty() {
		return 0, nil
	}
	var v uint64 = 1
	for _, iv := range b {
		hi, lo := bits.Mul64(v, iv.Len())
		if hi != 0 || lo > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %s", ErrVolumeOverflow, b)
		}
		v = lo
	}
	return int64(v), nil
}

// Volume is CheckedVolume saturated at math.MaxInt64. Boxes accepted by
// Count and its variants never saturate.
func (b Box) Volume() int64 {
	v, err := b.CheckedVolume()
	if err != nil {
		return math.MaxInt64
	}
	return v
}

func (b Box) Empty() bool {
	for _, iv := range b {
		if iv.Empty() {
			return true
		}
	}
	return false
}

// CheckBounds reports whether FullBox(low, high) is a usable initial box.
func CheckBounds(low, high int) error {
	if high < low {
		return fmt.Errorf("high (%d) is less than low (%d)", high, low)
	}
	_, err := FullBox(low, high).CheckedVolume()
	return err
}

func (b Box) With(c Category, iv Interval) Box {
	b[c] = iv
	return b
}

func (b Box) Contains(p Part) bool {
	for c, iv := range b {
		if !iv.Contains(p[c]) {
			return false
		}
	}
	return true
}

func (b Box) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for c, iv := range b {
		if c > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s:%s", Category(c), iv)
	}
	sb.WriteByte('}')
	return sb.String()
}
