package asm

import (
	"sort"
	"strings"
)

type (
	// Stats aggregates instruction counts by enclosing function,
	// split by mnemonic category. Reporting only, the optimizer
	// never looks at it.
	Stats struct {
		Funcs map[string]*Counts
	}

	Counts struct {
		Total int
		ByCat map[string]int
	}

	modRule struct {
		substr string
		label  string
	}
)

// Mnemonic categories.
const (
	CatBranch = "Branch/Call"
	CatMem    = "Load/Store"
	CatALU    = "ALU/Data"
	CatFP     = "FloatingPoint"
	CatSys    = "System/Other"
	CatOther  = "Other"
)

var (
	branchMn = []string{"b", "bl", "blr", "br", "ret", "cbz", "cbnz", "tbz", "tbnz"}
	memMn    = []string{"ldr", "ldp", "ldrb", "ldrh", "ldur", "ldurb", "str", "stp", "strb", "strh", "stur", "sturb"}
	aluMn    = []string{"add", "sub", "mov", "movk", "movz", "mvn", "cmp", "csel", "cset", "and", "orr", "eor", "lsl", "lsr", "asr"}
	fpMn     = []string{"fadd", "fsub", "fmul", "fdiv", "fmov", "fcmp", "fcvt", "scvtf", "ucvtf"}
	sysMn    = []string{"nop", "hint", "isb", "dsb", "dmb"}

	// Ordered, first match wins. Functions matching nothing fall
	// through to Other/StdLib.
	modRules = []modRule{
		{"HuggingFaceClient", "HuggingFace"},
		{"KaggleClient", "Kaggle"},
		{"HttpClient", "HTTP/1.1"},
		{"Http3Client", "HTTP/3"},
		{"QuicSocket", "QUIC/H3 Core"},
		{"AsyncFileWriter", "IO/MMap"},
		{"SecretScanner", "Security"},
		{"json::", "JSON"},
		{"RsyncClient", "Rsync"},
		{"std::", "StdLib/Templates"},
		{"abi:ne", "StdLib/Templates"},
	}
)

func Categorize(mn string) string {
	mn = strings.ToLower(mn)

	switch {
	case contains(branchMn, mn) || strings.HasPrefix(mn, "b."):
		return CatBranch
	case contains(memMn, mn):
		return CatMem
	case contains(aluMn, mn):
		return CatALU
	case contains(fpMn, mn):
		return CatFP
	case contains(sysMn, mn):
		return CatSys
	}

	return CatOther
}

func ModuleOf(fn string) string {
	for _, r := range modRules {
		if strings.Contains(fn, r.substr) {
			return r.label
		}
	}

	return "Other/StdLib"
}

func CollectStats(instrs []Instruction) *Stats {
	s := &Stats{Funcs: map[string]*Counts{}}

	for _, in := range instrs {
		c := s.Funcs[in.Func]
		if c == nil {
			c = &Counts{ByCat: map[string]int{}}
			s.Funcs[in.Func] = c
		}

		c.Total++
		c.ByCat[Categorize(in.Mnemonic)]++
	}

	return s
}

// Modules folds per-function counts into per-module counts.
func (s *Stats) Modules() map[string]*Counts {
	r := map[string]*Counts{}

	for fn, c := range s.Funcs {
		mod := ModuleOf(fn)

		m := r[mod]
		if m == nil {
			m = &Counts{ByCat: map[string]int{}}
			r[mod] = m
		}

		m.Total += c.Total

		for cat, n := range c.ByCat {
			m.ByCat[cat] += n
		}
	}

	return r
}

// TopFuncs returns up to n function names by instruction count,
// largest first. Equal counts order by name so output is stable.
func (s *Stats) TopFuncs(n int) []string {
	fns := make([]string, 0, len(s.Funcs))

	for fn := range s.Funcs {
		fns = append(fns, fn)
	}

	sort.Slice(fns, func(i, j int) bool {
		a, b := s.Funcs[fns[i]].Total, s.Funcs[fns[j]].Total
		if a != b {
			return a > b
		}

		return fns[i] < fns[j]
	})

	if n < len(fns) {
		fns = fns[:n]
	}

	return fns
}
