package dso

import "fmt"

// EscapeByte prefixes a wide instruction element on the wire.
const EscapeByte = 0xFF

// Instruction is one element of the instruction stream. Wide records that the
// element occupies an escape byte plus four bytes on the wire; it is kept
// from decode rather than inferred from Value, so a small value may be wide.
type Instruction struct {
	Value uint32
	Wide  bool
}

// Short returns a one-byte element.
func Short(v uint8) Instruction {
	return Instruction{Value: uint32(v)}
}

// Wide returns an escaped four-byte element.
func Wide(v uint32) Instruction {
	return Instruction{Value: v, Wide: true}
}

// Opcode reports the opcode held by a short element. Wide elements and
// values outside the opcode table are never opcodes.
func (in Instruction) Opcode() (Opcode, bool) {
	if in.Wide || in.Value >= uint32(OpcodeCount) {
		return 0, false
	}
	return Opcode(in.Value), true
}

// Size is the encoded size in bytes.
func (in Instruction) Size() int {
	if in.Wide {
		return 1 + u32Bytes
	}
	return 1
}

func (in Instruction) String() string {
	if in.Wide {
		return fmt.Sprintf("wide(%#x)", in.Value)
	}
	return fmt.Sprintf("short(%#02x)", in.Value)
}

// LineBreak is one debug record appended after the instructions. Both words
// are carried through untouched.
type LineBreak struct {
	Position uint32
	Line     uint32
}

// CodeStream holds the instruction stream and its debug line-break table.
// Positions used by string references index Instructions.
type CodeStream struct {
	Instructions []Instruction
	LineBreaks   []LineBreak
}

// LineBreakCount is the number of raw debug words following the
// instructions (two per line break).
func (c CodeStream) LineBreakCount() int {
	return 2 * len(c.LineBreaks)
}

// Len is the length of the flat sequence: instructions plus debug words.
func (c CodeStream) Len() int {
	return len(c.Instructions) + c.LineBreakCount()
}

// Normalized returns every instruction value with its width discarded.
// Two streams that differ only in element widths normalize equal.
func (c CodeStream) Normalized() []uint32 {
	out := make([]uint32, len(c.Instructions))
	for i, in := range c.Instructions {
		out[i] = in.Value
	}
	return out
}

// Clone returns a deep copy of the stream.
func (c CodeStream) Clone() CodeStream {
	return CodeStream{
		Instructions: append([]Instruction(nil), c.Instructions...),
		LineBreaks:   append([]LineBreak(nil), c.LineBreaks...),
	}
}

// Equal compares instructions including width tags, and line breaks.
func (c CodeStream) Equal(o CodeStream) bool {
	if len(c.Instructions) != len(o.Instructions) || len(c.LineBreaks) != len(o.LineBreaks) {
		return false
	}
	for i := range c.Instructions {
		if c.Instructions[i] != o.Instructions[i] {
			return false
		}
	}
	for i := range c.LineBreaks {
		if c.LineBreaks[i] != o.LineBreaks[i] {
			return false
		}
	}
	return true
}

// stringOperandPositions returns, in order, the positions of instruction
// elements that hold a global string offset: the element right after every
// short string-operand opcode. Every position is scanned, including ones
// that are themselves operands; an opcode in the final slot has no operand.
func (c CodeStream) stringOperandPositions() []int {
	var out []int
	for ip, in := range c.Instructions {
		op, ok := in.Opcode()
		if !ok || !op.HasStringOperand() {
			continue
		}
		if ip+1 >= len(c.Instructions) {
			continue
		}
		out = append(out, ip+1)
	}
	return out
}

func (r *reader) codeStream() (CodeStream, error) {
	// Every instruction takes at least one byte and every line break eight.
	count, err := r.count("instruction count", 1)
	if err != nil {
		return CodeStream{}, err
	}
	pairs, err := r.u32("line break count")
	if err != nil {
		return CodeStream{}, err
	}

	code := CodeStream{Instructions: make([]Instruction, 0, count)}
	for range count {
		b, err := r.peek("instruction")
		if err != nil {
			return CodeStream{}, err
		}
		if b != EscapeByte {
			r.off++
			code.Instructions = append(code.Instructions, Short(b))
			continue
		}
		r.off++
		v, err := r.u32("wide instruction")
		if err != nil {
			return CodeStream{}, err
		}
		code.Instructions = append(code.Instructions, Wide(v))
	}

	if err := r.ensure("line breaks", uint64(pairs)*2*u32Bytes); err != nil {
		return CodeStream{}, err
	}
	code.LineBreaks = make([]LineBreak, pairs)
	for i := range code.LineBreaks {
		pos, err := r.u32("line break position")
		if err != nil {
			return CodeStream{}, err
		}
		line, err := r.u32("line break line")
		if err != nil {
			return CodeStream{}, err
		}
		code.LineBreaks[i] = LineBreak{Position: pos, Line: line}
	}
	return code, nil
}

func (w *writer) codeStream(c CodeStream) error {
	if err := w.length("instruction count", len(c.Instructions)); err != nil {
		return err
	}
	if err := w.length("line break count", len(c.LineBreaks)); err != nil {
		return err
	}
	for _, in := range c.Instructions {
		if !in.Wide {
			if in.Value >= EscapeByte {
				return rangeError("short instruction", uint64(in.Value))
			}
			w.u8(uint8(in.Value))
			continue
		}
		w.u8(EscapeByte)
		w.u32(in.Value)
	}
	for _, lb := range c.LineBreaks {
		w.u32(lb.Position)
		w.u32(lb.Line)
	}
	return nil
}
