// Package fuse finds pairs of adjacent instructions a denser arm64
// encoding could replace with a single one, and builds the conflict
// relation over those candidates for the selectors in analyzer/solve.
//
// The rules are a size-estimation heuristic, not a verified ISA model:
// whether the hardware would really accept a given fusion is out of
// scope here.
package fuse

import (
	"strings"

	"github.com/thealgebraist/hfdown/analyzer/asm"
)

type (
	Rule int

	// Candidate is a fusible pair of instructions, identified by
	// their indices in the parsed sequence. Second == First+1 for
	// every built-in rule. Weight is the instruction count saved.
	Candidate struct {
		First  int
		Second int
		Rule   Rule
		Weight int
	}
)

// Rules in priority order, first match wins.
const (
	RuleCmpBranch Rule = iota // cmp #0 + b.eq/b.ne -> cbz/cbnz
	RuleMemPair               // ldr+ldr / str+str same base -> ldp/stp
	RuleMovAdd                // mov + add consuming it -> add immediate
)

func (r Rule) String() string {
	switch r {
	case RuleCmpBranch:
		return "cmp+branch"
	case RuleMemPair:
		return "mem pair"
	case RuleMovAdd:
		return "mov+add"
	}

	return "unknown"
}

// Match decides whether b can be fused into a. It expects
// b to immediately follow a in the instruction sequence.
// Pure and stateless, selectors never see rule internals.
func Match(a, b asm.Instruction) (Rule, int, bool) {
	if cmpBranch(a, b) {
		return RuleCmpBranch, 1, true
	}

	if memPair(a, b) {
		return RuleMemPair, 1, true
	}

	if movAdd(a, b) {
		return RuleMovAdd, 1, true
	}

	return 0, 0, false
}

// FindCandidates scans adjacent pairs in sequence order.
func FindCandidates(instrs []asm.Instruction) (cands []Candidate) {
	for i := 0; i+1 < len(instrs); i++ {
		r, w, ok := Match(instrs[i], instrs[i+1])
		if !ok {
			continue
		}

		cands = append(cands, Candidate{
			First:  instrs[i].Index,
			Second: instrs[i+1].Index,
			Rule:   r,
			Weight: w,
		})
	}

	return cands
}

func cmpBranch(a, b asm.Instruction) bool {
	if a.Mnemonic != "cmp" {
		return false
	}

	if b.Mnemonic != "b.eq" && b.Mnemonic != "b.ne" {
		return false
	}

	return hasZeroToken(a.Args)
}

func memPair(a, b asm.Instruction) bool {
	if a.Mnemonic != b.Mnemonic {
		return false
	}

	if a.Mnemonic != "ldr" && a.Mnemonic != "str" {
		return false
	}

	ab := baseReg(a.Args)
	bb := baseReg(b.Args)

	return ab != "" && ab == bb
}

func movAdd(a, b asm.Instruction) bool {
	if a.Mnemonic != "mov" || b.Mnemonic != "add" {
		return false
	}

	for _, d := range a.Defs {
		for _, u := range b.Uses {
			if d == u {
				return true
			}
		}
	}

	return false
}

// hasZeroToken reports a literal zero immediate among the operands:
// #0, #0x0, or a bare 0 token.
func hasZeroToken(args string) bool {
	for _, t := range strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		t = strings.TrimPrefix(t, "#")
		t = strings.TrimPrefix(t, "0x")

		if t == "" {
			continue
		}

		zero := true

		for i := 0; i < len(t); i++ {
			if t[i] != '0' {
				zero = false
				break
			}
		}

		if zero {
			return true
		}
	}

	return false
}

// baseReg is the addressing base: the first word token inside the
// first bracketed operand, "" when there is no memory operand.
func baseReg(args string) string {
	i := strings.IndexByte(args, '[')
	if i < 0 {
		return ""
	}

	i++
	e := i

	for e < len(args) && (args[e] >= 'a' && args[e] <= 'z' || args[e] >= 'A' && args[e] <= 'Z' || args[e] >= '0' && args[e] <= '9' || args[e] == '_') {
		e++
	}

	return args[i:e]
}
