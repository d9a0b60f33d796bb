// Package solve selects a maximum-weight set of pairwise-compatible
// fusion candidates from a conflict graph. Three selectors share the
// Result type: a linear-time exact pass for unit-interval graphs, a
// branch-and-bound exact pass for the general case, and a simulated
// annealer for cheap approximate answers.
package solve

import (
	"context"
	"sort"

	"github.com/thealgebraist/hfdown/analyzer/fuse"
	"tlog.app/go/tlog"
)

type (
	// Result is a feasible selection: Chosen holds candidate
	// indices, ascending, no two of which conflict. Reduction is
	// their weight sum, the number of instructions saved.
	Result struct {
		Chosen    []int
		Reduction int
	}
)

// SolveInterval is the fast path for graphs where every candidate
// spans two consecutive instructions: weighted interval scheduling
// over the candidate spans. Exact, deterministic, ties broken toward
// the candidate with the smaller first index.
func SolveInterval(ctx context.Context, g *fuse.Graph) Result {
	tr := tlog.SpanFromContext(ctx)

	n := g.Len()
	if n == 0 {
		return Result{}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := g.Cand(order[i]), g.Cand(order[j])
		if a.First != b.First {
			return a.First < b.First
		}

		return a.Second < b.Second
	})

	// next[i]: first position after i whose span starts past span i.
	next := make([]int, n)

	for i := range order {
		e := g.Cand(order[i]).Second

		j := sort.Search(n, func(j int) bool {
			return g.Cand(order[j]).First > e
		})

		next[i] = j
	}

	// best[i]: max weight achievable from position i on.
	best := make([]int, n+1)

	for i := n - 1; i >= 0; i-- {
		take := g.Cand(order[i]).Weight + best[next[i]]

		best[i] = best[i+1]
		if take > best[i] {
			best[i] = take
		}
	}

	r := Result{}

	// Walk forward taking a candidate whenever it does not cost
	// anything, which lands ties on the smaller first index.
	for i := 0; i < n; {
		take := g.Cand(order[i]).Weight + best[next[i]]

		if take >= best[i+1] {
			r.Chosen = append(r.Chosen, order[i])
			r.Reduction += g.Cand(order[i]).Weight
			i = next[i]
		} else {
			i++
		}
	}

	sort.Ints(r.Chosen)

	tr.V("solve").Printw("interval solve", "candidates", n, "reduction", r.Reduction, "chosen", len(r.Chosen))

	return r
}
