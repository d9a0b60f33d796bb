// Package asm parses linear arm64 disassembly listings
// (objdump style: address, hex encoding, mnemonic, operands)
// into instruction records with def/use register sets.
//
// Register extraction is a heuristic: the first comma-separated
// operand token is taken as the defined register. Multi-destination
// forms (ldp, stp) and non-register first operands are mis-classified
// on purpose, the fusion rules only need the common cases.
package asm

import (
	"context"
	"os"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// Instruction is one parsed listing line.
	// Index is its position in the parsed sequence and is the
	// identity used for fusion conflict detection.
	Instruction struct {
		Index    int
		Func     string
		Mnemonic string
		Args     string

		Defs []string
		Uses []string
	}

	LineKind int

	// Line is the tagged result of classifying a single text line.
	Line struct {
		Kind LineKind

		Name string // function name, LineFunc only

		Mnemonic string // LineInst only
		Args     string
	}
)

const (
	LineSkip LineKind = iota
	LineFunc
	LineInst
)

func ParseFile(ctx context.Context, name string) ([]Instruction, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read listing", "size", len(text), "name", name)

	return Parse(ctx, text)
}

// Parse consumes a full listing and returns the instruction sequence.
// Lines matching neither recognized shape are skipped, never an error,
// so truncated listings still yield partial results.
func Parse(ctx context.Context, text []byte) ([]Instruction, error) {
	var instrs []Instruction

	fn := "unknown"
	skipped := 0

	for st := 0; st < len(text); {
		e := st

		for e < len(text) && text[e] != '\n' {
			e++
		}

		l := ClassifyLine(string(text[st:e]))
		st = e + 1

		switch l.Kind {
		case LineFunc:
			fn = l.Name
		case LineInst:
			defs, uses := regSets(l.Args)

			instrs = append(instrs, Instruction{
				Index:    len(instrs),
				Func:     fn,
				Mnemonic: l.Mnemonic,
				Args:     l.Args,
				Defs:     defs,
				Uses:     uses,
			})
		default:
			skipped++
		}
	}

	tlog.SpanFromContext(ctx).V("parse").Printw("parsed listing", "instructions", len(instrs), "skipped_lines", skipped)

	return instrs, nil
}

// ClassifyLine recognizes the two meaningful line shapes.
//
//	100038e0c <__Z9hf_json_tRK5Value>:     function header
//	100038e10: a9ba6ffc     stp x28, x27, [sp, #-0x60]!  instruction
//
// Anything else is LineSkip.
func ClassifyLine(l string) Line {
	if name, ok := funcHeader(l); ok {
		return Line{Kind: LineFunc, Name: name}
	}

	if mn, args, ok := instLine(l); ok {
		return Line{Kind: LineInst, Mnemonic: mn, Args: args}
	}

	return Line{Kind: LineSkip}
}

func funcHeader(l string) (string, bool) {
	i := skipHex(l, 0)
	if i == 0 {
		return "", false
	}

	if i >= len(l) || l[i] != ' ' {
		return "", false
	}

	i++

	if i >= len(l) || l[i] != '<' {
		return "", false
	}

	if !strings.HasSuffix(l, ">:") {
		return "", false
	}

	if i+1 > len(l)-2 {
		return "", false
	}

	return l[i+1 : len(l)-2], true
}

func instLine(l string) (mn, args string, ok bool) {
	i := skipSpaces(l, 0)

	e := skipHex(l, i)
	if e == i {
		return "", "", false
	}

	i = e

	if i >= len(l) || l[i] != ':' {
		return "", "", false
	}

	i = skipSpaces(l, i+1)

	e = skipHex(l, i)
	if e == i {
		return "", "", false
	}

	if e == len(l) || l[e] != ' ' && l[e] != '\t' {
		return "", "", false
	}

	i = skipSpaces(l, e)

	e = i

	for e < len(l) && (isWord(l[e]) || l[e] == '.') {
		e++
	}

	if e == i {
		return "", "", false
	}

	mn = strings.ToLower(l[i:e])
	args = strings.TrimSpace(l[e:])

	return mn, args, true
}

// regSets splits operand text into defined and used register names.
// Defs come from the text before the first comma (none if no comma),
// uses are every other register token.
func regSets(args string) (defs, uses []string) {
	if c := strings.IndexByte(args, ','); c >= 0 {
		defs = regTokens(args[:c])
	}

	for _, r := range regTokens(args) {
		if !contains(defs, r) && !contains(uses, r) {
			uses = append(uses, r)
		}
	}

	return defs, uses
}

// regTokens scans for x<digits> / w<digits> occurrences anywhere in
// the text, the way the surrounding tooling always has. Hex immediates
// such as #0x1c0 therefore contribute a bogus x1; callers that care
// only compare sets on both sides of the same scan.
func regTokens(s string) (r []string) {
	for i := 0; i < len(s); {
		if s[i] != 'x' && s[i] != 'w' {
			i++
			continue
		}

		e := i + 1

		for e < len(s) && s[e] >= '0' && s[e] <= '9' {
			e++
		}

		if e == i+1 {
			i++
			continue
		}

		if !contains(r, s[i:e]) {
			r = append(r, s[i:e])
		}

		i = e
	}

	return r
}

func contains(l []string, x string) bool {
	for _, y := range l {
		if x == y {
			return true
		}
	}

	return false
}

func skipHex(l string, i int) int {
	for i < len(l) && (l[i] >= '0' && l[i] <= '9' || l[i] >= 'a' && l[i] <= 'f') {
		i++
	}

	return i
}

func skipSpaces(l string, i int) int {
	for i < len(l) && (l[i] == ' ' || l[i] == '\t') {
		i++
	}

	return i
}

func isWord(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
