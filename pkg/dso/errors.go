package dso

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated          = errors.New("dso: truncated input")
	ErrUnsupportedVersion = errors.New("dso: unsupported version")
	ErrEncodingRange      = errors.New("dso: value out of encoding range")
	ErrPatchIndex         = errors.New("dso: invalid patch index")
)

// FormatError reports a field that declares more bytes than the input holds.
type FormatError struct {
	Field  string
	Offset int // cursor position where the field starts
	Need   int
	Have   int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("dso: truncated %s at offset %d: need %d bytes, have %d", e.Field, e.Offset, e.Need, e.Have)
}

func (e *FormatError) Unwrap() error {
	return ErrTruncated
}

// PatchIndexError rejects a patch key that does not address a patchable
// entry of the global string table.
type PatchIndexError struct {
	Index  int
	Len    int
	Reason string
}

func (e *PatchIndexError) Error() string {
	return fmt.Sprintf("dso: patch index %d (table length %d): %s", e.Index, e.Len, e.Reason)
}

func (e *PatchIndexError) Unwrap() error {
	return ErrPatchIndex
}

func rangeError(field string, v uint64) error {
	return fmt.Errorf("%w: %s %d does not fit in u32", ErrEncodingRange, field, v)
}
