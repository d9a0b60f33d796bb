// Package report renders analysis results as text. It only formats:
// nothing here mutates the inputs or recomputes selections.
package report

import (
	"fmt"
	"sort"

	"github.com/thealgebraist/hfdown/analyzer/asm"
	"github.com/thealgebraist/hfdown/analyzer/fuse"
	"github.com/thealgebraist/hfdown/analyzer/solve"
)

type (
	Report struct {
		Total int // instructions parsed

		Cands []fuse.Candidate

		Exact       solve.Result
		ExactStatus string // empty when optimal

		Heur    *solve.Result // nil when the annealer was not run
		HeurCfg string        // one-line parameter echo

		MaxExamples int // 0 means DefaultMaxExamples
	}
)

const DefaultMaxExamples = 5

// Append renders the report. Zero parsed instructions is a valid
// input and produces a "no instructions found" notice instead of a
// division by zero.
func Append(b []byte, r *Report) []byte {
	b = fmt.Appendf(b, "--- instruction fusion analysis ---\n")

	if r.Total == 0 {
		b = fmt.Appendf(b, "no instructions found\n")
		return b
	}

	b = fmt.Appendf(b, "total instructions:   %d\n", r.Total)
	b = fmt.Appendf(b, "fusion candidates:    %d%s\n", len(r.Cands), appendByRule(r.Cands))

	if r.ExactStatus != "" {
		b = fmt.Appendf(b, "exact merges:         %d (%.2f%% size reduction; %s)\n", r.Exact.Reduction, pct(r.Exact.Reduction, r.Total), r.ExactStatus)
	} else {
		b = fmt.Appendf(b, "exact merges:         %d (%.2f%% size reduction)\n", r.Exact.Reduction, pct(r.Exact.Reduction, r.Total))
	}

	if r.Heur != nil {
		b = fmt.Appendf(b, "annealed merges:      %d (%.2f%% size reduction", r.Heur.Reduction, pct(r.Heur.Reduction, r.Total))

		if r.HeurCfg != "" {
			b = fmt.Appendf(b, "; %s", r.HeurCfg)
		}

		b = fmt.Appendf(b, ")\n")
	}

	b = fmt.Appendf(b, "new code size:        %d instructions\n", r.Total-r.Exact.Reduction)

	b = appendExamples(b, r)

	return b
}

func appendExamples(b []byte, r *Report) []byte {
	max := r.MaxExamples
	if max == 0 {
		max = DefaultMaxExamples
	}

	if len(r.Exact.Chosen) == 0 {
		return b
	}

	b = fmt.Appendf(b, "example merges:\n")

	for i, ci := range r.Exact.Chosen {
		if i == max {
			break
		}

		c := r.Cands[ci]

		b = fmt.Appendf(b, "  [%d, %d]  %v\n", c.First, c.Second, c.Rule)
	}

	return b
}

// appendByRule is the per-rule candidate breakdown, e.g.
// " (cmp+branch 2, mem pair 5)". Empty when there are no candidates.
func appendByRule(cands []fuse.Candidate) string {
	if len(cands) == 0 {
		return ""
	}

	byRule := map[fuse.Rule]int{}

	for _, c := range cands {
		byRule[c.Rule]++
	}

	rules := make([]fuse.Rule, 0, len(byRule))
	for r := range byRule {
		rules = append(rules, r)
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i] < rules[j] })

	s := " ("

	for i, r := range rules {
		if i != 0 {
			s += ", "
		}

		s += fmt.Sprintf("%v %d", r, byRule[r])
	}

	return s + ")"
}

func pct(part, total int) float64 {
	return float64(part) / float64(total) * 100
}

// AppendStats renders the classification tables: instruction mix by
// module and the largest functions, the way the size reports always
// looked.
func AppendStats(b []byte, s *asm.Stats, topN int) []byte {
	total := 0
	for _, c := range s.Funcs {
		total += c.Total
	}

	if total == 0 {
		b = fmt.Appendf(b, "no instructions found\n")
		return b
	}

	b = fmt.Appendf(b, "%-18s | %-8s | %-8s | %-8s | %-8s | %-8s\n", "Module", "Total", "ALU", "Mem", "Branch", "FP")

	for i := 0; i < 75; i++ {
		b = append(b, '-')
	}

	b = append(b, '\n')

	mods := s.Modules()

	names := make([]string, 0, len(mods))
	for m := range mods {
		names = append(names, m)
	}

	sort.Slice(names, func(i, j int) bool {
		a, b := mods[names[i]].Total, mods[names[j]].Total
		if a != b {
			return a > b
		}

		return names[i] < names[j]
	})

	for _, m := range names {
		c := mods[m]

		b = fmt.Appendf(b, "%-18s | %-8d | %-8d | %-8d | %-8d | %-8d\n",
			m, c.Total, c.ByCat[asm.CatALU], c.ByCat[asm.CatMem], c.ByCat[asm.CatBranch], c.ByCat[asm.CatFP])
	}

	b = fmt.Appendf(b, "\nTop %d Largest Functions:\n", topN)

	for _, fn := range s.TopFuncs(topN) {
		b = fmt.Appendf(b, "%5d instructions : %s\n", s.Funcs[fn].Total, fn)
	}

	return b
}
