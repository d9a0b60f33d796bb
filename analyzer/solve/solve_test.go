package solve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thealgebraist/hfdown/analyzer/fuse"
	"github.com/thealgebraist/hfdown/analyzer/set"
)

func chain(n int) []fuse.Candidate {
	cands := make([]fuse.Candidate, n)

	for i := range cands {
		cands[i] = fuse.Candidate{First: i, Second: i + 1, Rule: fuse.RuleMemPair, Weight: 1}
	}

	return cands
}

func checkFeasible(t *testing.T, g *fuse.Graph, r Result) {
	t.Helper()

	claimed := set.MakeBitmap(64)

	for _, i := range r.Chosen {
		c := g.Cand(i)

		span := set.MakeBitmap(c.Second + 1)
		span.Set(c.First)
		span.Set(c.Second)

		assert.False(t, claimed.Intersects(span), "candidate %d claims an instruction twice", i)

		claimed.Or(span)
	}
}

func TestSolveIntervalSingle(t *testing.T) {
	g := fuse.Build(context.Background(), chain(1))

	r := SolveInterval(context.Background(), g)

	assert.Equal(t, 1, r.Reduction)
	assert.Equal(t, []int{0}, r.Chosen)
}

func TestSolveIntervalOverlap(t *testing.T) {
	// Candidates (0,1) and (1,2) conflict: only one fires, the
	// earlier one by the tie break.
	g := fuse.Build(context.Background(), chain(2))

	r := SolveInterval(context.Background(), g)

	assert.Equal(t, 1, r.Reduction)
	assert.Equal(t, []int{0}, r.Chosen)
}

func TestSolveIntervalChain3(t *testing.T) {
	g := fuse.Build(context.Background(), chain(3))

	r := SolveInterval(context.Background(), g)

	assert.Equal(t, 2, r.Reduction)
	assert.Equal(t, []int{0, 2}, r.Chosen)
	checkFeasible(t, g, r)
}

func TestSolveIntervalWeighted(t *testing.T) {
	cands := chain(3)
	cands[1].Weight = 3

	g := fuse.Build(context.Background(), cands)

	r := SolveInterval(context.Background(), g)

	assert.Equal(t, 3, r.Reduction)
	assert.Equal(t, []int{1}, r.Chosen)
}

func TestSolveIntervalEmpty(t *testing.T) {
	g := fuse.Build(context.Background(), nil)

	r := SolveInterval(context.Background(), g)

	assert.Equal(t, 0, r.Reduction)
	assert.Len(t, r.Chosen, 0)
}

func TestSolveIntervalIdempotent(t *testing.T) {
	g := fuse.Build(context.Background(), chain(7))

	a := SolveInterval(context.Background(), g)
	b := SolveInterval(context.Background(), g)

	assert.Equal(t, a, b)
}

func TestSolveIntervalConservation(t *testing.T) {
	for _, n := range []int{1, 2, 5, 10, 31} {
		g := fuse.Build(context.Background(), chain(n))

		r := SolveInterval(context.Background(), g)

		total := n + 1 // instructions touched by the chain

		assert.LessOrEqual(t, r.Reduction, n)
		assert.LessOrEqual(t, r.Reduction, total/2)
		assert.Equal(t, (n+1)/2, r.Reduction)
		checkFeasible(t, g, r)
	}
}

func TestSolveBnBMatchesInterval(t *testing.T) {
	ctx := context.Background()

	for _, cands := range [][]fuse.Candidate{
		chain(1),
		chain(2),
		chain(3),
		chain(8),
		{
			{First: 0, Second: 1, Weight: 1},
			{First: 1, Second: 2, Weight: 3},
			{First: 2, Second: 3, Weight: 1},
		},
		{
			{First: 0, Second: 1, Weight: 2},
			{First: 3, Second: 4, Weight: 1},
			{First: 4, Second: 5, Weight: 1},
		},
	} {
		g := fuse.Build(ctx, cands)

		want := SolveInterval(ctx, g)

		got, err := SolveBnB(ctx, g, ExactConfig{})
		require.NoError(t, err)

		assert.Equal(t, want.Reduction, got.Reduction)
		checkFeasible(t, g, got)

		// Both solvers break weight ties toward smaller first
		// indices; on the small instances the whole selection
		// must agree.
		if len(cands) <= 3 {
			assert.Equal(t, want.Chosen, got.Chosen)
		}
	}
}

func TestSolveBnBNonInterval(t *testing.T) {
	ctx := context.Background()

	cands := []fuse.Candidate{
		{First: 0, Second: 5, Weight: 1},
		{First: 2, Second: 3, Weight: 1},
		{First: 5, Second: 6, Weight: 1},
	}

	g := fuse.Build(ctx, cands)
	require.False(t, g.Interval())

	r, err := SolveBnB(ctx, g, ExactConfig{})
	require.NoError(t, err)

	assert.Equal(t, 2, r.Reduction)
	assert.Equal(t, []int{0, 1}, r.Chosen)
	checkFeasible(t, g, r)
}

func TestSolveBnBEmpty(t *testing.T) {
	r, err := SolveBnB(context.Background(), fuse.Build(context.Background(), nil), ExactConfig{})
	require.NoError(t, err)
	assert.Equal(t, 0, r.Reduction)
}

func TestSolveBnBLimit(t *testing.T) {
	g := fuse.Build(context.Background(), chain(20))

	_, err := SolveBnB(context.Background(), g, ExactConfig{MaxNodes: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSolverLimit)
}

func TestSolveExactDispatch(t *testing.T) {
	ctx := context.Background()

	g := fuse.Build(ctx, chain(5))
	require.True(t, g.Interval())

	r, err := SolveExact(ctx, g, ExactConfig{MaxNodes: 1})
	require.NoError(t, err) // fast path, node budget unused
	assert.Equal(t, 3, r.Reduction)

	ng := fuse.Build(ctx, []fuse.Candidate{
		{First: 0, Second: 5, Weight: 1},
		{First: 5, Second: 6, Weight: 2},
	})
	require.False(t, ng.Interval())

	r, err = SolveExact(ctx, ng, ExactConfig{})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Reduction)
	assert.Equal(t, []int{1}, r.Chosen)
}
