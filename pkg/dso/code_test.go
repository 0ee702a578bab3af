package dso

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func encodeCodeBody(t *testing.T, code CodeStream) []byte {
	t.Helper()
	w := &writer{}
	if err := w.codeStream(code); err != nil {
		t.Fatalf("encode code: %v", err)
	}
	if got := binary.LittleEndian.Uint32(w.buf[0:4]); got != uint32(len(code.Instructions)) {
		t.Fatalf("instruction count: got %d want %d", got, len(code.Instructions))
	}
	if got := binary.LittleEndian.Uint32(w.buf[4:8]); got != uint32(len(code.LineBreaks)) {
		t.Fatalf("line break pair count: got %d want %d", got, len(code.LineBreaks))
	}
	return w.buf[8:]
}

func TestCodeStreamEncoding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		code []Instruction
		want []byte
	}{
		{
			name: "short and wide zero",
			code: []Instruction{Short(0x00), Wide(0x00000000), Short(0x01)},
			want: []byte{0x00, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x01},
		},
		{
			name: "mixed widths",
			code: []Instruction{Short(0x00), Wide(0), Short(0x01), Short(0x02), Short(0x03), Wide(0x04030201)},
			want: []byte("\x00\xff\x00\x00\x00\x00\x01\x02\x03\xff\x01\x02\x03\x04"),
		},
		{
			name: "empty",
			code: nil,
			want: []byte{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := encodeCodeBody(t, CodeStream{Instructions: tc.code})
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("encoded code mismatch: got % x want % x", got, tc.want)
			}
		})
	}
}

func TestCodeStreamLineBreaksAreUnescaped(t *testing.T) {
	t.Parallel()

	code := CodeStream{
		Instructions: []Instruction{Short(byte(OpReturn))},
		LineBreaks:   []LineBreak{{Position: 0xFFFFFFFF, Line: 7}},
	}
	got := encodeCodeBody(t, code)
	want := []byte{byte(OpReturn), 0xFF, 0xFF, 0xFF, 0xFF, 0x07, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("line break words mismatch: got % x want % x", got, want)
	}
	if code.LineBreakCount() != 2 || code.Len() != 3 {
		t.Fatalf("flat length: got count=%d len=%d", code.LineBreakCount(), code.Len())
	}
}

func TestCodeStreamRoundTripKeepsWidths(t *testing.T) {
	t.Parallel()

	code := CodeStream{
		Instructions: []Instruction{
			Short(byte(OpLoadImmedStr)),
			Wide(1), // fits in a byte but was written wide
			Short(0xFE),
			Wide(0xDEADBEEF),
		},
		LineBreaks: []LineBreak{{Position: 1, Line: 10}, {Position: 3, Line: 11}},
	}
	w := &writer{}
	if err := w.codeStream(code); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := &reader{data: w.buf}
	decoded, err := r.codeStream()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(code) {
		t.Fatalf("round trip mismatch: got %v want %v", decoded, code)
	}
	if r.remaining() != 0 {
		t.Fatalf("decoder left %d bytes", r.remaining())
	}
}

func TestCodeStreamRejectsShortEscape(t *testing.T) {
	t.Parallel()

	w := &writer{}
	err := w.codeStream(CodeStream{Instructions: []Instruction{{Value: EscapeByte}}})
	if !errors.Is(err, ErrEncodingRange) {
		t.Fatalf("expected ErrEncodingRange for short 0xff, got %v", err)
	}
	err = w.codeStream(CodeStream{Instructions: []Instruction{{Value: 0x100}}})
	if !errors.Is(err, ErrEncodingRange) {
		t.Fatalf("expected ErrEncodingRange for short 0x100, got %v", err)
	}
}

func TestCodeStreamTruncated(t *testing.T) {
	t.Parallel()

	cases := map[string][]byte{
		"missing counts":    {0x01, 0x00},
		"missing element":   {0x02, 0, 0, 0, 0, 0, 0, 0, 0x01},
		"short wide":        {0x01, 0, 0, 0, 0, 0, 0, 0, 0xFF, 0x01, 0x02},
		"missing linebreak": {0x00, 0, 0, 0, 0x01, 0, 0, 0, 0x01, 0, 0, 0},
	}
	for name, data := range cases {
		r := &reader{data: data}
		_, err := r.codeStream()
		var fe *FormatError
		if !errors.As(err, &fe) || !errors.Is(err, ErrTruncated) {
			t.Fatalf("%s: expected truncation error, got %v", name, err)
		}
	}
}

func TestInstructionOpcode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   Instruction
		want bool
	}{
		{Short(0x00), true},
		{Short(0x42), true},
		{Short(0x5a), true},
		{Short(0x5b), false},
		{Short(0xFE), false},
		{Wide(0x00), false},
		{Wide(0x42), false},
	}
	for _, tc := range cases {
		if _, got := tc.in.Opcode(); got != tc.want {
			t.Fatalf("%v.Opcode(): got %v want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalized(t *testing.T) {
	t.Parallel()

	a := CodeStream{Instructions: []Instruction{Short(0x54), Short(0x08), Wide(0x101)}}
	b := CodeStream{Instructions: []Instruction{Wide(0x54), Wide(0x08), Wide(0x101)}}
	if a.Equal(b) {
		t.Fatalf("streams with different widths should not be Equal")
	}
	na, nb := a.Normalized(), b.Normalized()
	for i := range na {
		if na[i] != nb[i] {
			t.Fatalf("normalized mismatch at %d: %d vs %d", i, na[i], nb[i])
		}
	}
}

func TestStringOperandPositions(t *testing.T) {
	t.Parallel()

	code := CodeStream{Instructions: []Instruction{
		Short(byte(OpAssert)), Short(0x08),
		Short(byte(OpLoadImmedStr)), Short(byte(OpTagToStr)), // operand that looks like an opcode
		Short(0x01),
		Wide(uint32(OpDocBlockStr)), Short(0x00), // wide elements are never opcodes
		Short(byte(OpLoadImmedIdent)), Wide(3), // not a global string operand
		Short(byte(OpDocBlockStr)), // last slot, no operand
	}}
	got := code.stringOperandPositions()
	want := []int{1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("positions: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("positions: got %v want %v", got, want)
		}
	}
}
