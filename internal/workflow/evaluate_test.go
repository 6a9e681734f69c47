package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitBox(x Interval) Box {
	return FullBox(1, 2).With(X, x)
}

func TestCountSingleRule(t *testing.T) {
	table := mustTable(t, Rule{
		Name:       "in",
		Conditions: []Condition{{X, Greater, 10, Accept}},
		Default:    Reject,
	})

	n, err := Count(table, "in", unitBox(Interval{1, 21}))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}

func TestCountChained(t *testing.T) {
	table := mustTable(t,
		Rule{
			Name:       "in",
			Conditions: []Condition{{X, Less, 5, "r2"}},
			Default:    Accept,
		},
		Rule{Name: "r2", Default: Reject},
	)

	n, err := Count(table, "in", unitBox(Interval{1, 11}))
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
}

func TestCountDanglingReference(t *testing.T) {
	table := mustTable(t, Rule{
		Name:       "in",
		Conditions: []Condition{{X, Greater, 10, "ghost"}},
		Default:    Accept,
	})

	_, err := Count(table, "in", unitBox(Interval{1, 21}))
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.ErrorIs(t, err, ErrDanglingReference)
	assert.Equal(t, "in", cfgErr.Rule)
	assert.Equal(t, Label("ghost"), cfgErr.Target)
}

// The reference is reported even though no point of the box can reach it.
func TestCountDanglingReferenceUnreachableRegion(t *testing.T) {
	table := mustTable(t, Rule{
		Name:       "in",
		Conditions: []Condition{{X, Greater, 100, "ghost"}},
		Default:    Accept,
	})

	_, err := Count(table, "in", unitBox(Interval{1, 21}))
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestCountUnknownEntry(t *testing.T) {
	table := mustTable(t, Rule{Name: "in", Default: Accept})

	_, err := Count(table, "start", FullBox(1, 5))
	assert.ErrorIs(t, err, ErrUnknownEntry)
}

func TestCountCycle(t *testing.T) {
	table := mustTable(t,
		Rule{Name: "in", Conditions: []Condition{{M, Less, 3, "b"}}, Default: Accept},
		Rule{Name: "b", Default: "in"},
	)

	_, err := Count(table, "in", FullBox(1, 5))
	assert.ErrorIs(t, err, ErrRuleCycle)
}

func TestCountEmptyBox(t *testing.T) {
	doc := sampleDocument(t)
	for c := range NumCategories {
		b := FullBox(1, 4001).With(Category(c), Interval{100, 100})
		n, err := Count(doc.Table, "in", b)
		require.NoError(t, err)
		assert.Zero(t, n, "empty %s axis", Category(c))
	}
}

func TestCountVolumeOverflow(t *testing.T) {
	table := mustTable(t, Rule{
		Name:       "in",
		Conditions: []Condition{{X, Greater, 50000, Accept}},
		Default:    Reject,
	})
	b := FullBox(1, 100001)

	_, err := Count(table, "in", b)
	assert.ErrorIs(t, err, ErrVolumeOverflow)

	_, err = CountParallel(context.Background(), table, "in", b)
	assert.ErrorIs(t, err, ErrVolumeOverflow)

	err = Partition(table, "in", b, func(Region) error {
		t.Fatal("visited a region of an overflowing box")
		return nil
	})
	assert.ErrorIs(t, err, ErrVolumeOverflow)

	n, err := Count(table, "in", FullBox(1, 50001))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCountSample(t *testing.T) {
	doc := sampleDocument(t)
	n, err := Count(doc.Table, "in", FullBox(1, 4001))
	require.NoError(t, err)
	assert.Equal(t, int64(167409079868000), n)
}

// One level of splitting tiles the box: treating every target as accepted
// gives back the full volume.
func TestSplitConservesVolume(t *testing.T) {
	doc := sampleDocument(t)
	boxes := []Box{
		FullBox(1, 4001),
		FullBox(1000, 3000),
		FullBox(1, 2).With(S, Interval{1, 4001}),
		FullBox(1, 4001).With(A, Interval{3000, 3001}),
	}
	for _, r := range doc.Table.Rules() {
		for _, b := range boxes {
			var sum int64
			for _, br := range r.Split(b) {
				require.False(t, br.Box.Empty())
				sum += br.Box.Volume()
			}
			assert.Equal(t, b.Volume(), sum, "%s on %s", r, b)
		}
	}
}

func TestPartitionTilesBox(t *testing.T) {
	doc := sampleDocument(t)
	full := FullBox(1, 4001)

	var regions []Region
	err := Partition(doc.Table, "in", full, func(r Region) error {
		regions = append(regions, r)
		return nil
	})
	require.NoError(t, err)

	var accepted, total int64
	for _, r := range regions {
		require.True(t, r.Outcome.Terminal())
		total += r.Box.Volume()
		if r.Outcome == Accept {
			accepted += r.Box.Volume()
		}
	}
	assert.Equal(t, full.Volume(), total)
	assert.Equal(t, int64(167409079868000), accepted)

	// Each sample part lies in exactly one region, and that region's outcome
	// agrees with routing the part directly.
	for _, p := range doc.Parts {
		var owners []Region
		for _, r := range regions {
			if r.Box.Contains(p) {
				owners = append(owners, r)
			}
		}
		require.Len(t, owners, 1, p.String())
		label, err := Route(doc.Table, "in", p)
		require.NoError(t, err)
		assert.Equal(t, label, owners[0].Outcome, p.String())
	}
}

// Earlier conditions claim their region first; swapping them changes which
// target gets which sub-box.
func TestSplitOrderIsExclusive(t *testing.T) {
	first := Rule{
		Name: "in",
		Conditions: []Condition{
			{X, Greater, 5, "hi"},
			{X, Greater, 2, "mid"},
		},
		Default: Reject,
	}
	b := unitBox(Interval{1, 11})

	want := []Branch{
		{Target: "hi", Box: unitBox(Interval{6, 11})},
		{Target: "mid", Box: unitBox(Interval{3, 6})},
		{Target: Reject, Box: unitBox(Interval{1, 3})},
	}
	if diff := cmp.Diff(want, first.Split(b)); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}

	swapped := first
	swapped.Conditions = []Condition{first.Conditions[1], first.Conditions[0]}
	want = []Branch{
		{Target: "mid", Box: unitBox(Interval{3, 11})},
		{Target: Reject, Box: unitBox(Interval{1, 3})},
	}
	if diff := cmp.Diff(want, swapped.Split(b)); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
}

func TestPartitionStopsOnVisitError(t *testing.T) {
	doc := sampleDocument(t)
	stop := errors.New("stop")
	calls := 0
	err := Partition(doc.Table, "in", FullBox(1, 4001), func(Region) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestCountParallel(t *testing.T) {
	doc := sampleDocument(t)
	boxes := []Box{
		FullBox(1, 4001),
		FullBox(500, 2500),
		FullBox(1, 4001).With(X, Interval{4000, 4000}),
	}
	for _, b := range boxes {
		want, err := Count(doc.Table, "in", b)
		require.NoError(t, err)
		got, err := CountParallel(context.Background(), doc.Table, "in", b)
		require.NoError(t, err)
		assert.Equal(t, want, got, b.String())
	}
}

func TestCountParallelErrors(t *testing.T) {
	table := mustTable(t,
		Rule{Name: "in", Conditions: []Condition{{A, Less, 3, "b"}}, Default: "c"},
		Rule{Name: "b", Default: Accept},
		Rule{Name: "c", Default: "ghost"},
	)
	_, err := CountParallel(context.Background(), table, "in", FullBox(1, 5))
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestCountParallelCanceled(t *testing.T) {
	doc := sampleDocument(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CountParallel(ctx, doc.Table, "in", FullBox(1, 4001))
	assert.ErrorIs(t, err, context.Canceled)
}
