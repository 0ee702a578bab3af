package dso

import (
	"slices"
	"strings"
)

// PatchResult counts what a global string patch rewrote.
type PatchResult struct {
	Strings    int // entries replaced
	Operands   int // inline string offset operands rewritten
	References int // string reference offsets rewritten
}

// PatchGlobalStrings replaces global string entries by index and moves every
// offset into the global string table to follow its entry: the operand after
// each string-operand opcode and the offset of every string reference.
//
// All keys are validated first. An index outside the table, a bookend entry
// (an empty first or last entry) given non-empty text, or text containing a
// NUL byte fails with a *PatchIndexError. On any error c is left unchanged;
// on success the string table, code and references are replaced together.
func (c *Container) PatchGlobalStrings(patches map[int]string) (PatchResult, error) {
	old := c.GlobalStrings
	if err := validatePatches(old, patches); err != nil {
		return PatchResult{}, err
	}

	updated := slices.Clone(old)
	for i, text := range patches {
		updated[i] = []byte(text)
	}

	code := c.Code.Clone()
	positions := c.Code.stringOperandPositions()
	for _, pos := range positions {
		off, err := RemapOffset(c.Code.Instructions[pos].Value, old, updated)
		if err != nil {
			return PatchResult{}, err
		}
		code.Instructions[pos] = Wide(off)
	}

	refs := cloneReferences(c.StringReferences)
	for i := range refs {
		off, err := RemapOffset(refs[i].Offset, old, updated)
		if err != nil {
			return PatchResult{}, err
		}
		refs[i].Offset = off
	}

	c.GlobalStrings, c.Code, c.StringReferences = updated, code, refs
	return PatchResult{Strings: len(patches), Operands: len(positions), References: len(refs)}, nil
}

func validatePatches(t StringTable, patches map[int]string) error {
	// Report the lowest bad index so errors are deterministic.
	keys := make([]int, 0, len(patches))
	for i := range patches {
		keys = append(keys, i)
	}
	slices.Sort(keys)

	for _, i := range keys {
		text := patches[i]
		if i < 0 || i >= len(t) {
			return &PatchIndexError{Index: i, Len: len(t), Reason: "out of range"}
		}
		if isBookend(t, i) && text != "" {
			return &PatchIndexError{Index: i, Len: len(t), Reason: "empty bookend entry must stay empty"}
		}
		if strings.IndexByte(text, 0) >= 0 {
			return &PatchIndexError{Index: i, Len: len(t), Reason: "replacement contains a NUL byte"}
		}
	}
	return nil
}

// isBookend reports whether entry i is an empty entry at either end of the
// table. Those entries stand for the leading and trailing NUL of the buffer.
func isBookend(t StringTable, i int) bool {
	return (i == 0 || i == len(t)-1) && len(t[i]) == 0
}
