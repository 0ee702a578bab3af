package dso

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func sampleContainer() *Container {
	return &Container{
		Version:         Version,
		GlobalStrings:   NewStringTable("", "second", "third", "fourth", ""),
		FunctionStrings: NewStringTable("", "%this", "%obj", ""),
		GlobalFloats:    NewFloatTable(1.5, -0.25),
		FunctionFloats:  FloatTable{math.Float64bits(math.Pi), 0x7FF8000000000BAD},
		Code: CodeStream{
			Instructions: []Instruction{
				Short(byte(OpLoadImmedStr)), Wide(8),
				Short(byte(OpTagToStr)), Short(1),
				Short(byte(OpLoadImmedIdent)), Wide(0),
				Short(byte(OpReturn)),
			},
			LineBreaks: []LineBreak{{Position: 0, Line: 1}, {Position: 4, Line: 2}},
		},
		StringReferences: []StringReference{
			{Offset: 14, Occurrences: []uint32{5}},
			{Offset: 1, Occurrences: []uint32{}},
		},
	}
}

func mustEncode(t testing.TB, c *Container) []byte {
	t.Helper()
	data, err := c.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func TestContainerRoundTrip(t *testing.T) {
	t.Parallel()

	c := sampleContainer()
	data := mustEncode(t, c)

	decoded, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(c) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, c)
	}
	again := mustEncode(t, decoded)
	if !bytes.Equal(again, data) {
		t.Fatalf("re-encoded bytes differ")
	}
	if got := decoded.FunctionFloats[1]; got != 0x7FF8000000000BAD {
		t.Fatalf("NaN payload not preserved: %#x", got)
	}
	if got := decoded.GlobalFloats.Float(0); got != 1.5 {
		t.Fatalf("float value: got %v want 1.5", got)
	}
	if len(data) != c.encodedSizeHint() {
		t.Fatalf("size hint: got %d want %d", c.encodedSizeHint(), len(data))
	}
}

func TestContainerLayout(t *testing.T) {
	t.Parallel()

	c := New()
	c.GlobalStrings = NewStringTable("", "a", "")
	c.Code = CodeStream{Instructions: []Instruction{Short(byte(OpReturnVoid))}}
	data := mustEncode(t, c)

	var want []byte
	want = binary.LittleEndian.AppendUint32(want, 43)
	want = binary.LittleEndian.AppendUint32(want, 3)
	want = append(want, "\x00a\x00"...)
	want = binary.LittleEndian.AppendUint32(want, 0) // function strings
	want = binary.LittleEndian.AppendUint32(want, 0) // global floats
	want = binary.LittleEndian.AppendUint32(want, 0) // function floats
	want = binary.LittleEndian.AppendUint32(want, 1) // instructions
	want = binary.LittleEndian.AppendUint32(want, 0) // line break pairs
	want = append(want, byte(OpReturnVoid))
	want = binary.LittleEndian.AppendUint32(want, 0) // string references
	if !bytes.Equal(data, want) {
		t.Fatalf("layout mismatch:\n got % x\nwant % x", data, want)
	}
}

func TestDecodeFreshInstances(t *testing.T) {
	t.Parallel()

	data := mustEncode(t, sampleContainer())
	a, err := Parse(data)
	if err != nil {
		t.Fatalf("parse a: %v", err)
	}
	b, err := Parse(data)
	if err != nil {
		t.Fatalf("parse b: %v", err)
	}
	a.GlobalStrings[1][0] = 'X'
	a.StringReferences[0].Occurrences[0] = 99
	a.Code.Instructions[0] = Short(0)
	if string(b.GlobalStrings[1]) != "second" || b.StringReferences[0].Occurrences[0] != 5 || b.Code.Instructions[0] != Short(byte(OpLoadImmedStr)) {
		t.Fatalf("decoded containers share state")
	}
	data[9] = 'Z'
	if string(b.GlobalStrings[1]) != "second" {
		t.Fatalf("decoded container aliases its input")
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	t.Parallel()

	data := mustEncode(t, sampleContainer())
	binary.LittleEndian.PutUint32(data, 44)
	_, err := Parse(data)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}

	c := sampleContainer()
	c.Version = 42
	if _, err := c.Encode(); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("encode: expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestDecodeTruncatedEverywhere(t *testing.T) {
	t.Parallel()

	data := mustEncode(t, sampleContainer())
	for n := 0; n < len(data); n++ {
		c, err := Parse(data[:n])
		if c != nil {
			t.Fatalf("prefix %d: got a partial container", n)
		}
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("prefix %d: expected *FormatError, got %v", n, err)
		}
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("prefix %d: error does not wrap ErrTruncated: %v", n, err)
		}
	}
}

func TestDecodeHostileCounts(t *testing.T) {
	t.Parallel()

	var data []byte
	data = binary.LittleEndian.AppendUint32(data, Version)
	data = binary.LittleEndian.AppendUint32(data, 0) // global strings
	data = binary.LittleEndian.AppendUint32(data, 0) // function strings
	data = binary.LittleEndian.AppendUint32(data, math.MaxUint32)

	_, err := Parse(data)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
	if fe.Field != "global floats" {
		t.Fatalf("unexpected field: %q", fe.Field)
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	t.Parallel()

	c := sampleContainer()
	data := append(mustEncode(t, c), 0xAA, 0xBB)
	decoded, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !decoded.Equal(c) {
		t.Fatalf("trailing bytes changed decoded container")
	}
}

func TestWriteTo(t *testing.T) {
	t.Parallel()

	c := sampleContainer()
	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	if err != nil {
		t.Fatalf("write to: %v", err)
	}
	if n != int64(buf.Len()) || !bytes.Equal(buf.Bytes(), mustEncode(t, c)) {
		t.Fatalf("WriteTo output mismatch")
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	c := sampleContainer()
	s := c.Summary()
	if s.Version != Version || s.GlobalStrings != 5 || s.GlobalStringBytes != 21 {
		t.Fatalf("string summary: %+v", s)
	}
	if s.Instructions != 7 || s.WideInstructions != 2 || s.LineBreakPairs != 2 {
		t.Fatalf("code summary: %+v", s)
	}
	if s.StringOperands != 2 || s.StringReferences != 2 {
		t.Fatalf("operand summary: %+v", s)
	}
	if s.EncodedSize != len(mustEncode(t, c)) {
		t.Fatalf("encoded size: got %d", s.EncodedSize)
	}
}

func TestEncodedSizeCountsEveryHeaderWord(t *testing.T) {
	t.Parallel()

	// Eight u32 words: version, two string table lengths, two float counts,
	// instruction count, line break count and reference count.
	c := New()
	data := mustEncode(t, c)
	if len(data) != 8*u32Bytes {
		t.Fatalf("empty container: got %d bytes want %d", len(data), 8*u32Bytes)
	}
	if got := c.Summary().EncodedSize; got != len(data) {
		t.Fatalf("encoded size: got %d want %d", got, len(data))
	}
}

func TestStringOperands(t *testing.T) {
	t.Parallel()

	sites := sampleContainer().StringOperands()
	if len(sites) != 2 {
		t.Fatalf("site count: got %d want 2", len(sites))
	}
	if sites[0].Position != 1 || sites[0].Opcode != OpLoadImmedStr || sites[0].Text != "third" || sites[0].Index != 2 {
		t.Fatalf("first site: %+v", sites[0])
	}
	if sites[1].Mnemonic != "OP_TAG_TO_STR" || sites[1].Text != "second" || !sites[1].Resolved {
		t.Fatalf("second site: %+v", sites[1])
	}
}
