// Package dso reads, writes and patches compiled Torque script bytecode
// containers (DSO files).
//
// A container is a version word followed by two string tables, two float
// tables, the instruction stream with its debug line-break table, and the
// string reference table, all little-endian. Decoding keeps the wire width of
// every instruction so that encoding an unmodified container reproduces its
// input byte for byte.
package dso

import (
	"fmt"
	"io"
	"slices"
)

// Version is the only container version this package understands.
const Version uint32 = 43

// Container is a decoded DSO file.
type Container struct {
	Version          uint32
	GlobalStrings    StringTable
	FunctionStrings  StringTable
	GlobalFloats     FloatTable
	FunctionFloats   FloatTable
	Code             CodeStream
	StringReferences []StringReference
}

// New returns an empty container of the supported version. Its string tables
// hold a single empty entry, which is what an empty buffer decodes to.
func New() *Container {
	return &Container{
		Version:         Version,
		GlobalStrings:   StringTable{{}},
		FunctionStrings: StringTable{{}},
	}
}

// Decode reads a whole container from r.
func Decode(r io.Reader) (*Container, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dso: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes a container from data. The returned container does not
// reference data. Bytes after the string reference table are ignored.
func Parse(data []byte) (*Container, error) {
	r := &reader{data: data}

	version, err := r.u32("version")
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %d (supported: %d)", ErrUnsupportedVersion, version, Version)
	}

	c := &Container{Version: version}
	if c.GlobalStrings, err = r.stringTable("global strings"); err != nil {
		return nil, err
	}
	if c.FunctionStrings, err = r.stringTable("function strings"); err != nil {
		return nil, err
	}
	if c.GlobalFloats, err = r.f64s("global floats"); err != nil {
		return nil, err
	}
	if c.FunctionFloats, err = r.f64s("function floats"); err != nil {
		return nil, err
	}
	if c.Code, err = r.codeStream(); err != nil {
		return nil, err
	}
	if c.StringReferences, err = r.stringReferences(); err != nil {
		return nil, err
	}
	return c, nil
}

// Encode serializes the container. Nothing is returned on error.
func (c *Container) Encode() ([]byte, error) {
	if c.Version != Version {
		return nil, fmt.Errorf("%w: %d (supported: %d)", ErrUnsupportedVersion, c.Version, Version)
	}
	w := &writer{buf: make([]byte, 0, c.encodedSizeHint())}
	w.u32(c.Version)
	if err := w.stringTable("global strings", c.GlobalStrings); err != nil {
		return nil, err
	}
	if err := w.stringTable("function strings", c.FunctionStrings); err != nil {
		return nil, err
	}
	if err := w.f64s("global floats", c.GlobalFloats); err != nil {
		return nil, err
	}
	if err := w.f64s("function floats", c.FunctionFloats); err != nil {
		return nil, err
	}
	if err := w.codeStream(c.Code); err != nil {
		return nil, err
	}
	if err := w.stringReferences(c.StringReferences); err != nil {
		return nil, err
	}
	return w.buf, nil
}

// WriteTo encodes the container into w.
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	data, err := c.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Clone returns a deep copy of the container.
func (c *Container) Clone() *Container {
	return &Container{
		Version:          c.Version,
		GlobalStrings:    c.GlobalStrings.Clone(),
		FunctionStrings:  c.FunctionStrings.Clone(),
		GlobalFloats:     slices.Clone(c.GlobalFloats),
		FunctionFloats:   slices.Clone(c.FunctionFloats),
		Code:             c.Code.Clone(),
		StringReferences: cloneReferences(c.StringReferences),
	}
}

// Equal reports whether both containers encode to the same bytes, comparing
// field by field.
func (c *Container) Equal(o *Container) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.Version != o.Version ||
		!c.GlobalStrings.Equal(o.GlobalStrings) ||
		!c.FunctionStrings.Equal(o.FunctionStrings) ||
		!slices.Equal(c.GlobalFloats, o.GlobalFloats) ||
		!slices.Equal(c.FunctionFloats, o.FunctionFloats) ||
		!c.Code.Equal(o.Code) {
		return false
	}
	return slices.EqualFunc(c.StringReferences, o.StringReferences, func(a, b StringReference) bool {
		return a.Offset == b.Offset && slices.Equal(a.Occurrences, b.Occurrences)
	})
}

func (c *Container) encodedSizeHint() int {
	n := 8 * u32Bytes
	n += c.GlobalStrings.Size() + c.FunctionStrings.Size()
	n += (len(c.GlobalFloats) + len(c.FunctionFloats)) * f64Bytes
	for _, in := range c.Code.Instructions {
		n += in.Size()
	}
	n += c.Code.LineBreakCount() * u32Bytes
	for _, ref := range c.StringReferences {
		n += (2 + len(ref.Occurrences)) * u32Bytes
	}
	return n
}
