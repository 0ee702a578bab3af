package dso

import "math"

// FloatTable holds float constants as raw IEEE-754 bit patterns so that
// encoding reproduces every payload exactly, NaNs included.
type FloatTable []uint64

// NewFloatTable builds a table from values.
func NewFloatTable(vals ...float64) FloatTable {
	t := make(FloatTable, len(vals))
	for i, v := range vals {
		t[i] = math.Float64bits(v)
	}
	return t
}

// Float returns entry i as a float64.
func (t FloatTable) Float(i int) float64 {
	return math.Float64frombits(t[i])
}

// Floats returns all entries as float64 values.
func (t FloatTable) Floats() []float64 {
	out := make([]float64, len(t))
	for i, b := range t {
		out[i] = math.Float64frombits(b)
	}
	return out
}
