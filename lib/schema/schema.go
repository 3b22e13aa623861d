/*package schema describes the layout of a snapshot file family: the ordered
fields of the fixed-size header record, the ordered block fields that follow
it, how many particle categories the family recognizes, which categories each
block applies to, and the framing convention (byte order and record marker
width).

A Schema is plain data. Format-specific behavior lives in the schema's
predicates and count functions, not in per-format types: adding support for a
new file family means building a new Schema value (in code or from a YAML
declaration), not writing a new codec.
*/
package schema

import (
	"encoding/binary"
	"fmt"
)

// SchemaError is returned when a schema declaration is invalid, when a
// requested field name is not declared in the bound schema, or when a header
// record is shorter than the schema's declared fixed size.
type SchemaError struct {
	msg string
}

func (e *SchemaError) Error() string { return e.msg }

// Errf creates a SchemaError with a fmt.Sprintf-style message.
func Errf(format string, a ...interface{}) *SchemaError {
	return &SchemaError{ fmt.Sprintf(format, a...) }
}

// Field type strings: "u32" and "u64" are unsigned ints, "i32" and "i64"
// are signed ints, "f32" and "f64" are floats, and "v32" and "v64" are
// 3-vectors of 32- and 64-bit floats.
var elemSizes = map[string]int{
	"i32": 4, "u32": 4, "f32": 4,
	"i64": 8, "u64": 8, "f64": 8,
	"v32": 12, "v64": 24,
}

// ElemSize returns the on-disk size in bytes of one element of the given
// type, or -1 if the type string isn't recognized.
func ElemSize(typ string) int {
	size, ok := elemSizes[typ]
	if !ok { return -1 }
	return size
}

// IsVector returns true for the 3-vector types, "v32" and "v64".
func IsVector(typ string) bool { return typ == "v32" || typ == "v64" }

// IsInteger returns true for the integer types.
func IsInteger(typ string) bool {
	switch typ {
	case "i32", "u32", "i64", "u64": return true
	}
	return false
}

// HeaderField describes one entry of the header record: its name, element
// type, and element count. Fields are stored back to back in declaration
// order; a field's offset is the sum of the widths of the fields before it.
type HeaderField struct {
	Name string
	Type string
	N int
}

// Width returns the field's total size in bytes.
func (f *HeaderField) Width() int { return ElemSize(f.Type) * f.N }

// CountFunc computes how many elements of a block belong to one particle
// category. counts is the header's category count vector and ptype is the
// category index. The default, used when a BlockField's Count is nil, is
// counts[ptype].
type CountFunc func(counts []int, ptype int) int

// FixedCount returns a CountFunc that yields n for every category,
// independent of the header's count vector. Some file families carry blocks
// whose size doesn't track the particle counts; this is how their schemas
// say so.
func FixedCount(n int) CountFunc {
	return func(counts []int, ptype int) int { return n }
}

// BlockField describes one data block: its name, element type, and the
// particle categories it applies to. Each block is stored as a single framed
// record holding the applicable categories' data concatenated in category
// order.
type BlockField struct {
	Name string
	Type string

	// Ptypes lists the category indices this block applies to. Categories
	// not listed here get no data from this block, which is different from
	// getting zero elements.
	Ptypes []int

	// Flag optionally names a scalar integer header field. When set, the
	// block is present in the file only if that header value is nonzero.
	Flag string

	// Count optionally overrides the header-derived per-category element
	// count. Leave nil to use the header's count vector.
	Count CountFunc
}

// AppliesTo returns whether the block carries data for category ptype.
func (f *BlockField) AppliesTo(ptype int) bool {
	for _, p := range f.Ptypes {
		if p == ptype { return true }
	}
	return false
}

// CountFor returns the number of elements of this block that belong to
// category ptype, given the header's category count vector. It does not
// check applicability; callers gate on AppliesTo first.
func (f *BlockField) CountFor(counts []int, ptype int) int {
	if f.Count != nil { return f.Count(counts, ptype) }
	return counts[ptype]
}

// Schema is the full declarative description of a snapshot file family.
type Schema struct {
	// NTypes is the number of particle categories the family recognizes.
	NTypes int

	// HeaderSize is the fixed byte size of the header record, including any
	// padding after the last declared field.
	HeaderSize int

	// CountField names the header field holding the category count vector.
	// It must be an integer field with N == NTypes.
	CountField string

	// ByteOrder and MarkerWidth give the file family's framing convention.
	ByteOrder binary.ByteOrder
	MarkerWidth int

	HeaderFields []HeaderField
	BlockFields []BlockField

	// Aliases maps human-readable category names (e.g. "gas") to category
	// indices. It is fixed schema metadata, not mutable state.
	Aliases map[string]int
}

// HeaderField returns the header field with the given name, its byte offset
// within the header record, and whether it exists.
func (s *Schema) HeaderField(name string) (f HeaderField, offset int, ok bool) {
	offset = 0
	for i := range s.HeaderFields {
		if s.HeaderFields[i].Name == name {
			return s.HeaderFields[i], offset, true
		}
		offset += s.HeaderFields[i].Width()
	}
	return HeaderField{ }, 0, false
}

// BlockField returns the block field with the given name, if it exists.
func (s *Schema) BlockField(name string) (f *BlockField, ok bool) {
	for i := range s.BlockFields {
		if s.BlockFields[i].Name == name { return &s.BlockFields[i], true }
	}
	return nil, false
}

// HeaderFieldsWidth returns the summed byte size of the declared header
// fields, excluding padding.
func (s *Schema) HeaderFieldsWidth() int {
	width := 0
	for i := range s.HeaderFields {
		width += s.HeaderFields[i].Width()
	}
	return width
}

// Validate checks that the schema is internally consistent. It is called
// when a schema is bound to a snapshot, so invalid declarations are caught
// at configuration time rather than in the middle of a load.
func (s *Schema) Validate() error {
	if s.NTypes <= 0 {
		return Errf("The schema declares %d particle categories, but at " +
			"least one is required.", s.NTypes)
	}
	if s.ByteOrder == nil {
		return Errf("The schema does not declare a byte order.")
	}
	if s.MarkerWidth != 4 && s.MarkerWidth != 8 {
		return Errf("The schema declares a record marker width of %d " +
			"bytes, but only 4 and 8 are valid.", s.MarkerWidth)
	}

	seen := map[string]bool{ }
	for i := range s.HeaderFields {
		f := &s.HeaderFields[i]
		if ElemSize(f.Type) == -1 {
			return Errf("The header field '%s' has type '%s', but the only " +
				"valid types are 'i32', 'u32', 'i64', 'u64', 'f32', 'f64', " +
				"'v32', and 'v64'.", f.Name, f.Type)
		}
		if f.N <= 0 {
			return Errf("The header field '%s' has element count %d, but " +
				"counts must be positive.", f.Name, f.N)
		}
		if seen[f.Name] {
			return Errf("The field name '%s' is declared more than once.",
				f.Name)
		}
		seen[f.Name] = true
	}

	if width := s.HeaderFieldsWidth(); width > s.HeaderSize {
		return Errf("The declared header fields need %d bytes, but the " +
			"schema declares a fixed header size of only %d bytes.",
			width, s.HeaderSize)
	}

	cf, _, ok := s.HeaderField(s.CountField)
	if !ok {
		return Errf("The schema names '%s' as its category count field, " +
			"but no header field with that name is declared.", s.CountField)
	}
	if !IsInteger(cf.Type) {
		return Errf("The category count field '%s' has type '%s', but it " +
			"must be an integer type.", s.CountField, cf.Type)
	}
	if cf.N != s.NTypes {
		return Errf("The category count field '%s' has %d elements, but " +
			"the schema declares %d particle categories.",
			s.CountField, cf.N, s.NTypes)
	}

	for i := range s.BlockFields {
		f := &s.BlockFields[i]
		if ElemSize(f.Type) == -1 {
			return Errf("The block '%s' has type '%s', but the only valid " +
				"types are 'i32', 'u32', 'i64', 'u64', 'f32', 'f64', 'v32', " +
				"and 'v64'.", f.Name, f.Type)
		}
		if seen[f.Name] {
			return Errf("The field name '%s' is declared more than once.",
				f.Name)
		}
		seen[f.Name] = true

		if len(f.Ptypes) == 0 {
			return Errf("The block '%s' applies to no particle categories.",
				f.Name)
		}
		pSeen := map[int]bool{ }
		for _, p := range f.Ptypes {
			if p < 0 || p >= s.NTypes {
				return Errf("The block '%s' applies to category %d, but " +
					"the schema only declares categories 0 through %d.",
					f.Name, p, s.NTypes - 1)
			}
			if pSeen[p] {
				return Errf("The block '%s' lists category %d more than " +
					"once.", f.Name, p)
			}
			pSeen[p] = true
		}

		if f.Flag != "" {
			ff, _, ok := s.HeaderField(f.Flag)
			if !ok {
				return Errf("The block '%s' is gated on the header field " +
					"'%s', but no header field with that name is declared.",
					f.Name, f.Flag)
			}
			if !IsInteger(ff.Type) || ff.N != 1 {
				return Errf("The block '%s' is gated on the header field " +
					"'%s', but flags must be scalar integer fields.",
					f.Name, f.Flag)
			}
		}
	}

	for alias, p := range s.Aliases {
		if p < 0 || p >= s.NTypes {
			return Errf("The alias '%s' maps to category %d, but the " +
				"schema only declares categories 0 through %d.",
				alias, p, s.NTypes - 1)
		}
	}

	return nil
}
