package dso

// Summary describes the shape of a container.
type Summary struct {
	Version             uint32 `json:"version" yaml:"version"`
	GlobalStrings       int    `json:"global_strings" yaml:"global_strings"`
	GlobalStringBytes   int    `json:"global_string_bytes" yaml:"global_string_bytes"`
	FunctionStrings     int    `json:"function_strings" yaml:"function_strings"`
	FunctionStringBytes int    `json:"function_string_bytes" yaml:"function_string_bytes"`
	GlobalFloats        int    `json:"global_floats" yaml:"global_floats"`
	FunctionFloats      int    `json:"function_floats" yaml:"function_floats"`
	Instructions        int    `json:"instructions" yaml:"instructions"`
	WideInstructions    int    `json:"wide_instructions" yaml:"wide_instructions"`
	LineBreakPairs      int    `json:"line_break_pairs" yaml:"line_break_pairs"`
	StringReferences    int    `json:"string_references" yaml:"string_references"`
	StringOperands      int    `json:"string_operands" yaml:"string_operands"`
	EncodedSize         int    `json:"encoded_size" yaml:"encoded_size"`
}

// Summary counts the entries of every table.
func (c *Container) Summary() Summary {
	s := Summary{
		Version:             c.Version,
		GlobalStrings:       len(c.GlobalStrings),
		GlobalStringBytes:   c.GlobalStrings.Size(),
		FunctionStrings:     len(c.FunctionStrings),
		FunctionStringBytes: c.FunctionStrings.Size(),
		GlobalFloats:        len(c.GlobalFloats),
		FunctionFloats:      len(c.FunctionFloats),
		Instructions:        len(c.Code.Instructions),
		LineBreakPairs:      len(c.Code.LineBreaks),
		StringReferences:    len(c.StringReferences),
		StringOperands:      len(c.Code.stringOperandPositions()),
		EncodedSize:         c.encodedSizeHint(),
	}
	for _, in := range c.Code.Instructions {
		if in.Wide {
			s.WideInstructions++
		}
	}
	return s
}

// OperandSite is an inline global string offset found in the code stream.
type OperandSite struct {
	Position int    `json:"position" yaml:"position"` // index of the operand element
	Opcode   Opcode `json:"-" yaml:"-"`
	Mnemonic string `json:"opcode" yaml:"opcode"`
	Offset   uint32 `json:"offset" yaml:"offset"`
	Index    int    `json:"index" yaml:"index"` // global string table index the offset resolves to
	Text     string `json:"text" yaml:"text"`
	Resolved bool   `json:"resolved" yaml:"resolved"` // false if Offset lies outside the table
}

// StringOperands lists every inline string offset operand with the entry it
// resolves to, in code order.
func (c *Container) StringOperands() []OperandSite {
	positions := c.Code.stringOperandPositions()
	out := make([]OperandSite, 0, len(positions))
	raw := c.GlobalStrings.Raw()
	for _, pos := range positions {
		op := Opcode(c.Code.Instructions[pos-1].Value)
		off := c.Code.Instructions[pos].Value
		site := OperandSite{
			Position: pos,
			Opcode:   op,
			Mnemonic: op.String(),
			Offset:   off,
			Index:    c.GlobalStrings.OffsetToIndex(int(off)),
		}
		if text, err := stringAt(raw, int(off)); err == nil {
			site.Text = string(text)
			site.Resolved = true
		}
		out = append(out, site)
	}
	return out
}
