package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/thealgebraist/hfdown/analyzer"
	"github.com/thealgebraist/hfdown/analyzer/solve"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

func main() {
	analyzeCmd := &cli.Command{
		Name:        "analyze",
		Description: "find fusible instruction pairs in a disassembly listing and the achievable size reduction",
		Action:      analyzeAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("anneal", true, "run the simulated annealing selector next to the exact one"),
			cli.NewFlag("iters", 2000, "annealing iteration budget"),
			cli.NewFlag("temp", "10", "annealing initial temperature"),
			cli.NewFlag("cooling", "0.995", "annealing cooling rate, in (0,1)"),
			cli.NewFlag("seed", 1, "annealing random seed"),
			cli.NewFlag("nodes", solve.DefaultMaxNodes, "exact solver node budget (non-interval graphs only)"),
			cli.NewFlag("examples", 5, "example merges to list"),
		},
	}

	statsCmd := &cli.Command{
		Name:        "stats",
		Description: "instruction mix by module and largest functions",
		Action:      statsAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("top", 10, "largest functions to list"),
		},
	}

	app := &cli.Command{
		Name:        "asmopt",
		Description: "asmopt sizes up instruction-fusion opportunities in arm64 disassembly",
		Commands: []*cli.Command{
			analyzeCmd,
			statsCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func analyzeAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	opt := analyzer.Options{
		Exact:       solve.ExactConfig{MaxNodes: c.Int("nodes")},
		MaxExamples: c.Int("examples"),
	}

	if c.Bool("anneal") {
		cfg := solve.DefaultAnnealConfig()
		cfg.Iters = c.Int("iters")
		cfg.Seed = int64(c.Int("seed"))

		cfg.Temp, err = strconv.ParseFloat(c.String("temp"), 64)
		if err != nil {
			return errors.Wrap(err, "temp")
		}

		cfg.Cooling, err = strconv.ParseFloat(c.String("cooling"), 64)
		if err != nil {
			return errors.Wrap(err, "cooling")
		}

		opt.Anneal = &cfg
	}

	for _, a := range c.Args {
		rep, err := analyzer.AnalyzeFile(ctx, a, opt)
		if err != nil {
			return errors.Wrap(err, "analyze %v", a)
		}

		fmt.Printf("%s", rep)
	}

	return nil
}

func statsAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		rep, err := analyzer.StatsFile(ctx, a, c.Int("top"))
		if err != nil {
			return errors.Wrap(err, "stats %v", a)
		}

		fmt.Printf("%s", rep)
	}

	return nil
}
