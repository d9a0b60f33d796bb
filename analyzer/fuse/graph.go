package fuse

import (
	"context"

	"github.com/thealgebraist/hfdown/analyzer/set"
	"tlog.app/go/tlog"
)

type (
	// Graph is the conflict relation over a candidate list: two
	// candidates conflict iff they claim a common instruction
	// index. Built once, read-only to the selectors.
	Graph struct {
		cands []Candidate
		adj   [][]int

		interval bool
	}
)

// Build constructs the conflict graph. Candidates touching the same
// instruction are linked pairwise; edges are symmetric and self-edges
// are not stored.
func Build(ctx context.Context, cands []Candidate) *Graph {
	g := &Graph{
		cands:    cands,
		adj:      make([][]int, len(cands)),
		interval: true,
	}

	byInstr := map[int][]int{}

	for i, c := range cands {
		byInstr[c.First] = append(byInstr[c.First], i)
		byInstr[c.Second] = append(byInstr[c.Second], i)

		if c.Second != c.First+1 {
			g.interval = false
		}
	}

	seen := set.MakeBitmap(len(cands))

	for i, c := range cands {
		seen.Reset()
		seen.Set(i)

		for _, instr := range [2]int{c.First, c.Second} {
			for _, j := range byInstr[instr] {
				if seen.IsSet(j) {
					continue
				}

				seen.Set(j)
				g.adj[i] = append(g.adj[i], j)
			}
		}
	}

	edges := 0
	for _, l := range g.adj {
		edges += len(l)
	}

	tlog.SpanFromContext(ctx).V("graph").Printw("conflict graph", "candidates", len(cands), "edges", edges/2, "interval", g.interval)

	return g
}

func (g *Graph) Len() int { return len(g.cands) }

func (g *Graph) Cand(i int) Candidate { return g.cands[i] }

func (g *Graph) Weight(i int) int { return g.cands[i].Weight }

func (g *Graph) Neighbors(i int) []int { return g.adj[i] }

func (g *Graph) Conflict(i, j int) bool {
	for _, k := range g.adj[i] {
		if k == j {
			return true
		}
	}

	return false
}

// Interval reports whether every candidate spans two consecutive
// instructions. When true the conflict graph is a unit-interval
// graph and SolveInterval is exact in linear time; extended rule
// sets with non-adjacent spans lose the property and fall back to
// branch and bound.
func (g *Graph) Interval() bool { return g.interval }

// TotalWeight is the unconstrained sum, an easy upper bound.
func (g *Graph) TotalWeight() (w int) {
	for _, c := range g.cands {
		w += c.Weight
	}

	return w
}
