package solve

import (
	"context"
	"math"
	"math/rand"

	"github.com/thealgebraist/hfdown/analyzer/fuse"
	"github.com/thealgebraist/hfdown/analyzer/set"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// AnnealConfig are the explicit annealer inputs. The seed fully
	// determines the run: same graph, same config, same Result.
	AnnealConfig struct {
		Temp    float64 // initial temperature
		Cooling float64 // per-iteration multiplier, in (0,1)
		Iters   int
		Seed    int64
	}
)

func DefaultAnnealConfig() AnnealConfig {
	return AnnealConfig{
		Temp:    10,
		Cooling: 0.995,
		Iters:   2000,
		Seed:    1,
	}
}

func (c AnnealConfig) validate() error {
	if c.Iters <= 0 {
		return errors.New("iterations must be positive, got %d", c.Iters)
	}

	if c.Cooling <= 0 || c.Cooling >= 1 {
		return errors.New("cooling rate must be in (0, 1), got %v", c.Cooling)
	}

	if c.Temp <= 0 {
		return errors.New("initial temperature must be positive, got %v", c.Temp)
	}

	return nil
}

// Anneal approximates the maximum-weight selection by Metropolis
// search over candidate activation bits with geometric cooling.
// Termination is the iteration budget, never wall clock. The best
// state seen is retained, so a longer budget cannot return less.
//
// A state's energy is minus the weight that survives a greedy
// feasibility projection: active candidates claim their instructions
// in candidate order, later actives touching claimed instructions
// are dropped. The projection order is part of the behavior; a mixed
// state's energy depends on it.
func Anneal(ctx context.Context, g *fuse.Graph, cfg AnnealConfig) (_ Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "anneal", "candidates", g.Len(), "iters", cfg.Iters, "seed", cfg.Seed)
	defer tr.Finish("err", &err)

	if err = cfg.validate(); err != nil {
		return Result{}, errors.Wrap(err, "config")
	}

	n := g.Len()
	if n == 0 {
		return Result{}, nil
	}

	rnd := rand.New(rand.NewSource(cfg.Seed))

	state := make([]bool, n)
	for i := range state {
		state[i] = rnd.Float64() > 0.5
	}

	claimed := set.MakeBitmap(g.Cand(n-1).Second + 1)

	energy := func(st []bool) int {
		claimed.Reset()
		e := 0

		for i, active := range st {
			if !active {
				continue
			}

			c := g.Cand(i)

			if claimed.IsSet(c.First) || claimed.IsSet(c.Second) {
				continue
			}

			claimed.Set(c.First)
			claimed.Set(c.Second)
			e -= c.Weight
		}

		return e
	}

	cur := energy(state)
	best := dup(state)
	bestE := cur

	temp := cfg.Temp

	for it := 0; it < cfg.Iters; it++ {
		i := rnd.Intn(n)
		state[i] = !state[i]
		next := energy(state)

		if next < cur || rnd.Float64() < math.Exp(float64(cur-next)/temp) {
			cur = next

			if cur < bestE {
				bestE = cur
				best = dup(state)

				tr.V("anneal_best").Printw("new best", "iter", it, "energy", bestE, "temp", temp)
			}
		} else {
			state[i] = !state[i]
		}

		temp *= cfg.Cooling
	}

	r := decode(g, best, claimed)

	tr.Printw("anneal done", "reduction", r.Reduction, "chosen", len(r.Chosen), "final_temp", temp)

	return r, nil
}

// decode replays the projection on the best state to recover the
// actual feasible selection behind its energy.
func decode(g *fuse.Graph, st []bool, claimed set.Bitmap) Result {
	claimed.Reset()

	r := Result{}

	for i, active := range st {
		if !active {
			continue
		}

		c := g.Cand(i)

		if claimed.IsSet(c.First) || claimed.IsSet(c.Second) {
			continue
		}

		claimed.Set(c.First)
		claimed.Set(c.Second)

		r.Chosen = append(r.Chosen, i)
		r.Reduction += c.Weight
	}

	return r
}
