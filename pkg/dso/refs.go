package dso

import "slices"

// StringReference records a global string offset used at code positions
// whose operand bytes are filled in by the loader rather than stored inline.
// Patching only ever rewrites Offset.
type StringReference struct {
	Offset      uint32
	Occurrences []uint32
}

func cloneReferences(refs []StringReference) []StringReference {
	out := make([]StringReference, len(refs))
	for i, ref := range refs {
		out[i] = StringReference{Offset: ref.Offset, Occurrences: slices.Clone(ref.Occurrences)}
	}
	return out
}

func (r *reader) stringReferences() ([]StringReference, error) {
	// Each entry is at least offset + occurrence count.
	n, err := r.count("string reference count", 2*u32Bytes)
	if err != nil {
		return nil, err
	}
	refs := make([]StringReference, n)
	for i := range refs {
		off, err := r.u32("string reference offset")
		if err != nil {
			return nil, err
		}
		occ, err := r.count("string reference occurrences", u32Bytes)
		if err != nil {
			return nil, err
		}
		positions := make([]uint32, occ)
		for j := range positions {
			if positions[j], err = r.u32("string reference occurrence"); err != nil {
				return nil, err
			}
		}
		refs[i] = StringReference{Offset: off, Occurrences: positions}
	}
	return refs, nil
}

func (w *writer) stringReferences(refs []StringReference) error {
	if err := w.length("string reference count", len(refs)); err != nil {
		return err
	}
	for _, ref := range refs {
		w.u32(ref.Offset)
		if err := w.length("string reference occurrences", len(ref.Occurrences)); err != nil {
			return err
		}
		for _, pos := range ref.Occurrences {
			w.u32(pos)
		}
	}
	return nil
}
