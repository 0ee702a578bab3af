package dso

import (
	"bytes"
	"fmt"
	"math"
)

// StringTable is an ordered list of byte strings serialized as one
// NUL-delimited buffer. The index of an entry is its identity: patching
// replaces content at an index but never inserts, removes or reorders.
//
// Compiler output starts and ends the buffer with NUL, so the first and last
// entries are empty bookends.
type StringTable [][]byte

// ParseStringTable splits a raw NUL-delimited buffer into its entries.
// An empty buffer yields a single empty entry.
func ParseStringTable(raw []byte) StringTable {
	parts := bytes.Split(raw, []byte{0})
	t := make(StringTable, len(parts))
	for i, p := range parts {
		t[i] = bytes.Clone(p)
		if t[i] == nil {
			t[i] = []byte{}
		}
	}
	return t
}

// NewStringTable builds a table from string entries.
func NewStringTable(entries ...string) StringTable {
	t := make(StringTable, len(entries))
	for i, s := range entries {
		t[i] = []byte(s)
	}
	return t
}

// Raw returns the serialized buffer: entries joined by single NUL bytes.
func (t StringTable) Raw() []byte {
	return bytes.Join(t, []byte{0})
}

// Size is the length of the serialized buffer.
func (t StringTable) Size() int {
	if len(t) == 0 {
		return 0
	}
	n := len(t) - 1
	for _, s := range t {
		n += len(s)
	}
	return n
}

// Strings returns the entries as Go strings.
func (t StringTable) Strings() []string {
	out := make([]string, len(t))
	for i, s := range t {
		out[i] = string(s)
	}
	return out
}

// Clone returns a deep copy of the table.
func (t StringTable) Clone() StringTable {
	out := make(StringTable, len(t))
	for i, s := range t {
		out[i] = bytes.Clone(s)
		if out[i] == nil {
			out[i] = []byte{}
		}
	}
	return out
}

// Equal reports whether both tables hold the same entries in the same order.
func (t StringTable) Equal(o StringTable) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if !bytes.Equal(t[i], o[i]) {
			return false
		}
	}
	return true
}

// OffsetToIndex returns the index of the entry that begins at byte offset in
// the serialized buffer.
//
// The index is the number of NUL bytes before offset. The final byte of the
// buffer is the terminator of the second to last entry and also the position
// recorded for the trailing empty entry, so it resolves to the last index.
// Offsets past the end count every NUL.
func (t StringTable) OffsetToIndex(offset int) int {
	if len(t) == 0 {
		return 0
	}
	size := t.Size()
	if offset == size-1 {
		return len(t) - 1
	}
	if offset <= 0 {
		return 0
	}
	// Walking entries avoids materializing the buffer: entry i covers
	// [start, start+len(t[i])] with its terminating NUL at the end.
	nuls := 0
	pos := 0
	for i := 0; i < len(t)-1; i++ {
		pos += len(t[i])
		if pos >= offset {
			break
		}
		nuls++
		pos++
	}
	return nuls
}

// IndexToOffset returns the byte offset where entry index begins. The last
// entry is placed on the final byte of the buffer. It returns -1 for an index
// outside the table.
func (t StringTable) IndexToOffset(index int) int {
	if index < 0 || index >= len(t) {
		return -1
	}
	if index == len(t)-1 {
		return t.Size() - 1
	}
	off := 0
	for i := 0; i < index; i++ {
		off += len(t[i]) + 1
	}
	return off
}

// StringAt returns the bytes from offset up to the next NUL.
func (t StringTable) StringAt(offset int) ([]byte, error) {
	return stringAt(t.Raw(), offset)
}

func stringAt(raw []byte, offset int) ([]byte, error) {
	if offset < 0 || offset >= len(raw) {
		return nil, fmt.Errorf("dso: string offset %d outside table of %d bytes", offset, len(raw))
	}
	end := bytes.IndexByte(raw[offset:], 0)
	if end < 0 {
		return raw[offset:], nil
	}
	return raw[offset : offset+end], nil
}

// RemapOffset moves an offset from old to the start of the entry with the
// same index in updated. Both tables must have the same length.
func RemapOffset(offset uint32, old, updated StringTable) (uint32, error) {
	n := updated.IndexToOffset(old.OffsetToIndex(int(offset)))
	if n < 0 || uint64(n) > math.MaxUint32 {
		return 0, rangeError("string offset", uint64(n))
	}
	return uint32(n), nil
}

func (r *reader) stringTable(field string) (StringTable, error) {
	n, err := r.count(field, 1)
	if err != nil {
		return nil, err
	}
	raw, err := r.bytes(field, n)
	if err != nil {
		return nil, err
	}
	return ParseStringTable(raw), nil
}

func (w *writer) stringTable(field string, t StringTable) error {
	if err := w.length(field, t.Size()); err != nil {
		return err
	}
	for i, s := range t {
		if i > 0 {
			w.u8(0)
		}
		w.raw(s)
	}
	return nil
}
