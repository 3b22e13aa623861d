package snapshot

import (
	"bytes"
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/gliokit/glio/lib/schema"
)

// Header holds the decoded header record of a snapshot: one typed Array per
// declared header field, plus whatever bytes sit between the last declared
// field and the schema's fixed header size. Those padding bytes are kept
// verbatim so an encode reproduces the record byte for byte.
type Header struct {
	sch *schema.Schema
	values map[string]Array
	padding []byte
}

// decodeHeader parses a raw header record against the schema's fixed layout:
// each field is read at its cumulative offset, and the residue up to the
// declared header size is stored opaquely as padding.
func decodeHeader(raw []byte, sch *schema.Schema) (*Header, error) {
	if len(raw) < sch.HeaderSize {
		return nil, schema.Errf("The header record has %d bytes, but the " +
			"schema declares a fixed header size of %d bytes.",
			len(raw), sch.HeaderSize)
	}

	hd := &Header{ sch: sch, values: map[string]Array{ } }

	offset := 0
	for i := range sch.HeaderFields {
		f := &sch.HeaderFields[i]
		x, err := readArray(
			raw[offset:offset+f.Width()], sch.ByteOrder, f.Type, f.N,
		)
		if err != nil { return nil, err }
		hd.values[f.Name] = x
		offset += f.Width()
	}

	hd.padding = make([]byte, sch.HeaderSize - offset)
	copy(hd.padding, raw[offset:sch.HeaderSize])

	return hd, nil
}

// encode is the inverse of decodeHeader: every field at its declared offset,
// followed by the stored padding. The result always has exactly the schema's
// fixed header size. A ShapeError is returned if a header array was replaced
// with one of the wrong length or type.
func (hd *Header) encode() ([]byte, error) {
	buf := &bytes.Buffer{ }
	buf.Grow(hd.sch.HeaderSize)

	for i := range hd.sch.HeaderFields {
		f := &hd.sch.HeaderFields[i]
		x := hd.values[f.Name]
		if typeOf(x) != f.Type {
			return nil, shapeErrf("The header field '%s' should hold a " +
				"'%s' array, but holds a '%s' array instead.",
				f.Name, f.Type, typeOf(x))
		}
		if Len(x) != f.N {
			return nil, shapeErrf("The header field '%s' should have %d " +
				"elements, but has %d.", f.Name, f.N, Len(x))
		}
		if err := writeArray(buf, hd.sch.ByteOrder, x); err != nil {
			return nil, err
		}
	}

	buf.Write(hd.padding)
	return buf.Bytes(), nil
}

// Fields returns the header field names in declaration order.
func (hd *Header) Fields() []string {
	names := make([]string, len(hd.sch.HeaderFields))
	for i := range hd.sch.HeaderFields {
		names[i] = hd.sch.HeaderFields[i].Name
	}
	return names
}

// Get returns the Array holding the named header field. The Array is the
// header's own storage, not a copy: mutating its elements mutates the
// header. A SchemaError is returned for names the schema doesn't declare.
func (hd *Header) Get(name string) (Array, error) {
	x, ok := hd.values[name]
	if !ok {
		return nil, schema.Errf("'%s' is not a header field declared by " +
			"the bound schema.", name)
	}
	return x, nil
}

// Set replaces the named header field's Array. The replacement must have the
// field's declared type and element count.
func (hd *Header) Set(name string, x Array) error {
	f, _, ok := hd.sch.HeaderField(name)
	if !ok {
		return schema.Errf("'%s' is not a header field declared by the " +
			"bound schema.", name)
	}
	if typeOf(x) != f.Type {
		return shapeErrf("The header field '%s' holds '%s' arrays, but a " +
			"'%s' array was assigned to it.", name, f.Type, typeOf(x))
	}
	if Len(x) != f.N {
		return shapeErrf("The header field '%s' has %d elements, but an " +
			"array with %d elements was assigned to it.", name, f.N, Len(x))
	}
	hd.values[name] = x
	return nil
}

// GetInt returns the value of a scalar integer header field.
func (hd *Header) GetInt(name string) (int64, error) {
	x, err := hd.Get(name)
	if err != nil { return 0, err }

	switch xx := x.(type) {
	case []int32:
		if len(xx) == 1 { return int64(xx[0]), nil }
	case []uint32:
		if len(xx) == 1 { return int64(xx[0]), nil }
	case []int64:
		if len(xx) == 1 { return xx[0], nil }
	case []uint64:
		if len(xx) == 1 { return int64(xx[0]), nil }
	}
	return 0, fmt.Errorf("The header field '%s' is not a scalar integer.",
		name)
}

// GetFloat returns the value of a scalar float header field.
func (hd *Header) GetFloat(name string) (float64, error) {
	x, err := hd.Get(name)
	if err != nil { return 0, err }

	switch xx := x.(type) {
	case []float32:
		if len(xx) == 1 { return float64(xx[0]), nil }
	case []float64:
		if len(xx) == 1 { return xx[0], nil }
	}
	return 0, fmt.Errorf("The header field '%s' is not a scalar float.",
		name)
}

// Counts returns the category count vector: the current value of the
// schema's count field, one non-negative count per particle category. This
// vector is the sole source of truth for how block data is partitioned, and
// it is re-read on every call so that deliberate header edits take effect.
func (hd *Header) Counts() ([]int, error) {
	x, err := hd.Get(hd.sch.CountField)
	if err != nil { return nil, err }

	var counts []int
	switch xx := x.(type) {
	case []int32: counts = toInts(xx)
	case []uint32: counts = toInts(xx)
	case []int64: counts = toInts(xx)
	case []uint64: counts = toInts(xx)
	default:
		return nil, schema.Errf("The category count field '%s' does not " +
			"hold an integer array.", hd.sch.CountField)
	}

	for p, n := range counts {
		if n < 0 {
			return nil, shapeErrf("The category count vector holds %d for " +
				"category %d, but counts cannot be negative.", n, p)
		}
	}
	return counts, nil
}

func toInts[T constraints.Integer](xs []T) []int {
	out := make([]int, len(xs))
	for i := range xs {
		out[i] = int(xs[i])
	}
	return out
}
