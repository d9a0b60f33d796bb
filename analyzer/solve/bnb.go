package solve

import (
	"context"

	"github.com/thealgebraist/hfdown/analyzer/fuse"
	"github.com/thealgebraist/hfdown/analyzer/set"
	"nikand.dev/go/heap"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"
)

type (
	// ExactConfig bounds the general-purpose solver. MaxNodes
	// is the search-node budget; exhausting it surfaces as
	// ErrSolverLimit, never as a silently suboptimal answer.
	ExactConfig struct {
		MaxNodes int
	}

	// node is a partial decision: candidates below pos are fixed,
	// blocked ones were excluded by a conflicting pick.
	node struct {
		pos     int
		weight  int
		bound   int
		chosen  []int
		blocked set.Bitmap
	}
)

// ErrSolverLimit is returned when an exact solver runs out of budget
// before proving optimality. The Result alongside it is the best
// incumbent, not the optimum.
var ErrSolverLimit = errors.New("solver limit reached")

const DefaultMaxNodes = 1 << 20

// SolveExact dispatches to the interval fast path when the graph
// structure allows it, otherwise runs branch and bound.
func SolveExact(ctx context.Context, g *fuse.Graph, cfg ExactConfig) (Result, error) {
	if g.Interval() {
		return SolveInterval(ctx, g), nil
	}

	return SolveBnB(ctx, g, cfg)
}

// SolveBnB solves the 0/1 vertex-packing program directly: one binary
// variable per candidate, x_j + x_k <= 1 for every conflict edge,
// maximize the weighted sum. Best-first branch and bound; the bound
// is current weight plus everything still undecided and unblocked.
func SolveBnB(ctx context.Context, g *fuse.Graph, cfg ExactConfig) (_ Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "bnb solve", "candidates", g.Len())
	defer tr.Finish("err", &err)

	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = DefaultMaxNodes
	}

	n := g.Len()
	if n == 0 {
		return Result{}, nil
	}

	// Suffix weight sums for the bound.
	suffix := make([]int, n+1)

	for i := n - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + g.Weight(i)
	}

	q := heap.Heap[node]{Less: nodesLess}
	q.Push(node{bound: suffix[0], blocked: set.MakeBitmap(n)})

	// The empty selection is always feasible, so the incumbent
	// starts valid and infeasibility cannot occur.
	best := Result{Chosen: []int{}}
	visited := 0

	for q.Len() != 0 {
		nd := q.Pop()
		visited++

		if visited > cfg.MaxNodes {
			return best, errors.Wrap(ErrSolverLimit, "after %d nodes, best %d, open bound %d", visited-1, best.Reduction, nd.bound)
		}

		if nd.bound <= best.Reduction && len(best.Chosen) != 0 {
			// Best-first: nothing left can beat the incumbent.
			break
		}

		tr.V("bnb_node").Printw("node", "pos", nd.pos, "weight", nd.weight, "bound", nd.bound, "blocked", nd.blocked, "from", loc.Caller(0))

		if nd.pos == n {
			if better(nd, best) {
				best = Result{Chosen: nd.chosen, Reduction: nd.weight}
			}

			continue
		}

		// Take branch first so equal-weight optima are found in
		// smaller-first-index order.
		if !nd.blocked.IsSet(nd.pos) {
			bl := nd.blocked.Copy()

			for _, j := range g.Neighbors(nd.pos) {
				if j > nd.pos {
					bl.Set(j)
				}
			}

			take := node{
				pos:     nd.pos + 1,
				weight:  nd.weight + g.Weight(nd.pos),
				chosen:  append(dup(nd.chosen), nd.pos),
				blocked: bl,
			}
			take.bound = take.weight + remaining(&take, suffix, n)

			if take.bound > best.Reduction {
				q.Push(take)
			}
		}

		skip := node{
			pos:     nd.pos + 1,
			weight:  nd.weight,
			chosen:  nd.chosen,
			blocked: nd.blocked,
		}
		skip.bound = skip.weight + remaining(&skip, suffix, n)

		if skip.bound > best.Reduction {
			q.Push(skip)
		}
	}

	tr.Printw("bnb done", "visited", visited, "reduction", best.Reduction, "chosen", len(best.Chosen))

	return best, nil
}

// remaining over-approximates what the undecided tail can still add:
// the tail weight sum minus weights already blocked there.
func remaining(nd *node, suffix []int, n int) int {
	r := suffix[nd.pos]

	nd.blocked.Range(func(i int) bool {
		if i >= nd.pos && i < n {
			r -= suffix[i] - suffix[i+1]
		}

		return true
	})

	return r
}

// better prefers higher weight, then the lexicographically smaller
// chosen list, so the reported optimum is unique and reproducible.
func better(nd node, best Result) bool {
	if nd.weight != best.Reduction {
		return nd.weight > best.Reduction
	}

	for i := 0; i < len(nd.chosen) && i < len(best.Chosen); i++ {
		if nd.chosen[i] != best.Chosen[i] {
			return nd.chosen[i] < best.Chosen[i]
		}
	}

	return false
}

func nodesLess(d []node, i, j int) bool {
	if d[i].bound != d[j].bound {
		return d[i].bound > d[j].bound
	}

	if d[i].pos != d[j].pos {
		return d[i].pos > d[j].pos
	}

	return d[i].weight > d[j].weight
}

func (nd node) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 3)

	b = e.AppendKeyInt(b, "pos", nd.pos)
	b = e.AppendKeyInt(b, "weight", nd.weight)
	b = e.AppendKeyInt(b, "bound", nd.bound)

	return b
}

func dup[T any](s []T) []T {
	return append([]T{}, s...)
}
