package dso

import (
	"encoding/binary"
	"math"
)

const (
	u32Bytes = 4
	f64Bytes = 8
)

// reader is a forward-only little-endian cursor over a decoded buffer.
type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) need(field string, n int) error {
	if n < 0 || r.remaining() < n {
		return &FormatError{Field: field, Offset: r.off, Need: n, Have: r.remaining()}
	}
	return nil
}

func (r *reader) bytes(field string, n int) ([]byte, error) {
	if err := r.need(field, n); err != nil {
		return nil, err
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8(field string) (uint8, error) {
	if err := r.need(field, 1); err != nil {
		return 0, err
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

func (r *reader) peek(field string) (uint8, error) {
	if err := r.need(field, 1); err != nil {
		return 0, err
	}
	return r.data[r.off], nil
}

func (r *reader) u32(field string) (uint32, error) {
	b, err := r.bytes(field, u32Bytes)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// count reads a u32 element count and checks that count*size bytes remain,
// so callers can allocate without trusting the input.
func (r *reader) count(field string, size int) (int, error) {
	n, err := r.u32(field)
	if err != nil {
		return 0, err
	}
	if err := r.ensure(field, uint64(n)*uint64(size)); err != nil {
		return 0, err
	}
	return int(n), nil
}

// ensure is need for sizes computed from untrusted counts.
func (r *reader) ensure(field string, total uint64) error {
	if total > uint64(r.remaining()) {
		return &FormatError{Field: field, Offset: r.off, Need: int(min(total, math.MaxInt32)), Have: r.remaining()}
	}
	return nil
}

func (r *reader) f64s(field string) ([]uint64, error) {
	n, err := r.count(field, f64Bytes)
	if err != nil {
		return nil, err
	}
	b, err := r.bytes(field, n*f64Bytes)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(b[i*f64Bytes:])
	}
	return out, nil
}

// writer accumulates an encoded container.
type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) raw(p []byte) {
	w.buf = append(w.buf, p...)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// length writes an int length or count as u32.
func (w *writer) length(field string, n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return rangeError(field, uint64(n))
	}
	w.u32(uint32(n))
	return nil
}

func (w *writer) f64s(field string, bits []uint64) error {
	if err := w.length(field, len(bits)); err != nil {
		return err
	}
	for _, v := range bits {
		w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	}
	return nil
}
