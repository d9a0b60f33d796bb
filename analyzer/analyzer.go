// Package analyzer ties the pipeline together: listing text in,
// report text out. Parse, find candidates, build the conflict graph,
// solve exactly (annealing optionally alongside for comparison),
// format.
package analyzer

import (
	"context"
	"fmt"
	"os"

	"github.com/thealgebraist/hfdown/analyzer/asm"
	"github.com/thealgebraist/hfdown/analyzer/fuse"
	"github.com/thealgebraist/hfdown/analyzer/report"
	"github.com/thealgebraist/hfdown/analyzer/solve"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	Options struct {
		Exact solve.ExactConfig

		// Anneal enables the heuristic selector next to the
		// exact one. Nil skips it.
		Anneal *solve.AnnealConfig

		MaxExamples int
	}
)

func AnalyzeFile(ctx context.Context, name string, opt Options) ([]byte, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read listing", "size", len(text), "name", name)

	return Analyze(ctx, name, text, opt)
}

func Analyze(ctx context.Context, name string, text []byte, opt Options) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "analyze listing", "name", name)
	defer tr.Finish("err", &err)

	instrs, err := asm.Parse(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse listing")
	}

	cands := fuse.FindCandidates(instrs)
	g := fuse.Build(ctx, cands)

	r := &report.Report{
		Total:       len(instrs),
		Cands:       cands,
		MaxExamples: opt.MaxExamples,
	}

	r.Exact, err = solve.SolveExact(ctx, g, opt.Exact)
	if errors.Is(err, solve.ErrSolverLimit) {
		// Surfaced, not hidden: the incumbent is a lower bound,
		// not the optimum.
		r.ExactStatus = err.Error()
	} else if err != nil {
		return nil, errors.Wrap(err, "exact selector")
	}

	if opt.Anneal != nil {
		h, err := solve.Anneal(ctx, g, *opt.Anneal)
		if err != nil {
			return nil, errors.Wrap(err, "heuristic selector")
		}

		r.Heur = &h
		r.HeurCfg = fmt.Sprintf("iters %d, seed %d", opt.Anneal.Iters, opt.Anneal.Seed)
	}

	tr.Printw("analyzed", "instructions", r.Total, "candidates", len(cands), "exact_reduction", r.Exact.Reduction)

	return report.Append(nil, r), nil
}

// StatsFile is the classification report: instruction mix by module
// and the largest functions. Independent of the optimizer.
func StatsFile(ctx context.Context, name string, topN int) ([]byte, error) {
	instrs, err := asm.ParseFile(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "parse %v", name)
	}

	return report.AppendStats(nil, asm.CollectStats(instrs), topN), nil
}
