package dso

import "testing"

func TestOpcodeTable(t *testing.T) {
	t.Parallel()

	if OpcodeCount != 91 {
		t.Fatalf("opcode count: got %d want 91", OpcodeCount)
	}
	cases := map[Opcode]string{
		OpFuncDecl:     "OP_FUNC_DECL",
		OpTagToStr:     "OP_TAG_TO_STR",
		OpLoadImmedStr: "OP_LOADIMMED_STR",
		OpDocBlockStr:  "OP_DOCBLOCK_STR",
		OpAssert:       "OP_ASSERT",
		OpInvalid:      "OP_INVALID",
		Opcode(0x5b):   "OP_UNKNOWN(91)",
	}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Fatalf("opcode %d: got %q want %q", uint8(op), got, want)
		}
	}
	if OpLoadImmedStr != 0x46 || OpAssert != 0x54 {
		t.Fatalf("opcode numbering drifted: LOADIMMED_STR=%#x ASSERT=%#x", uint8(OpLoadImmedStr), uint8(OpAssert))
	}
	for i, name := range opcodeNames {
		if name == "" {
			t.Fatalf("opcode %d has no name", i)
		}
	}
}

func TestStringOperandOpcodes(t *testing.T) {
	t.Parallel()

	got := StringOperandOpcodes()
	want := []Opcode{OpTagToStr, OpLoadImmedStr, OpDocBlockStr, OpAssert}
	if len(got) != len(want) {
		t.Fatalf("allowlist: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allowlist: got %v want %v", got, want)
		}
	}
	if OpLoadImmedIdent.HasStringOperand() || Opcode(200).HasStringOperand() {
		t.Fatalf("unexpected string operand opcode")
	}
}
