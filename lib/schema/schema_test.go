package schema

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalSchema is a valid two-category schema that individual tests break
// in exactly one way.
func minimalSchema() *Schema {
	return &Schema{
		NTypes: 2,
		HeaderSize: 32,
		CountField: "npart",
		ByteOrder: binary.LittleEndian,
		MarkerWidth: 4,
		HeaderFields: []HeaderField{
			{Name: "npart", Type: "i32", N: 2},
			{Name: "time", Type: "f64", N: 1},
			{Name: "flag_extra", Type: "i32", N: 1},
		},
		BlockFields: []BlockField{
			{Name: "pos", Type: "v32", Ptypes: []int{0, 1}},
			{Name: "id", Type: "u32", Ptypes: []int{0, 1}},
			{Name: "rho", Type: "f32", Ptypes: []int{0}},
		},
		Aliases: map[string]int{"gas": 0, "halo": 1},
	}
}

func TestValidateAcceptsMinimalSchema(t *testing.T) {
	require.NoError(t, minimalSchema().Validate())
}

func TestValidateRejectsBrokenSchemas(t *testing.T) {
	tests := []struct{
		name string
		breakIt func(s *Schema)
	} {
		{"no categories", func(s *Schema) { s.NTypes = 0 }},
		{"nil byte order", func(s *Schema) { s.ByteOrder = nil }},
		{"bad marker width", func(s *Schema) { s.MarkerWidth = 2 }},
		{"bad header type", func(s *Schema) {
			s.HeaderFields[1].Type = "f16"
		}},
		{"zero header count", func(s *Schema) { s.HeaderFields[1].N = 0 }},
		{"duplicate header name", func(s *Schema) {
			s.HeaderFields[1].Name = "npart"
		}},
		{"header overflows declared size", func(s *Schema) {
			s.HeaderSize = 8
		}},
		{"missing count field", func(s *Schema) { s.CountField = "nope" }},
		{"float count field", func(s *Schema) { s.CountField = "time" }},
		{"count field wrong length", func(s *Schema) {
			s.HeaderFields[0].N = 3
			s.HeaderSize = 64
		}},
		{"bad block type", func(s *Schema) { s.BlockFields[0].Type = "x32" }},
		{"duplicate block name", func(s *Schema) {
			s.BlockFields[1].Name = "pos"
		}},
		{"block name shadows header", func(s *Schema) {
			s.BlockFields[1].Name = "time"
		}},
		{"block with no categories", func(s *Schema) {
			s.BlockFields[0].Ptypes = nil
		}},
		{"block category out of range", func(s *Schema) {
			s.BlockFields[0].Ptypes = []int{0, 2}
		}},
		{"block category repeated", func(s *Schema) {
			s.BlockFields[0].Ptypes = []int{0, 0}
		}},
		{"unknown flag", func(s *Schema) { s.BlockFields[2].Flag = "nope" }},
		{"non-scalar flag", func(s *Schema) {
			s.BlockFields[2].Flag = "npart"
		}},
		{"alias out of range", func(s *Schema) { s.Aliases["disk"] = 5 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := minimalSchema()
			test.breakIt(s)
			err := s.Validate()
			require.Error(t, err)
			assert.IsType(t, &SchemaError{ }, err)
		})
	}
}

func TestElemSize(t *testing.T) {
	assert.Equal(t, 4, ElemSize("i32"))
	assert.Equal(t, 4, ElemSize("u32"))
	assert.Equal(t, 4, ElemSize("f32"))
	assert.Equal(t, 8, ElemSize("i64"))
	assert.Equal(t, 8, ElemSize("u64"))
	assert.Equal(t, 8, ElemSize("f64"))
	assert.Equal(t, 12, ElemSize("v32"))
	assert.Equal(t, 24, ElemSize("v64"))
	assert.Equal(t, -1, ElemSize("f16"))
}

func TestHeaderFieldLookup(t *testing.T) {
	s := minimalSchema()

	f, offset, ok := s.HeaderField("time")
	require.True(t, ok)
	assert.Equal(t, "f64", f.Type)
	assert.Equal(t, 8, offset) // after npart (2 * 4 bytes)

	_, _, ok = s.HeaderField("nope")
	assert.False(t, ok)

	assert.Equal(t, 8 + 8 + 4, s.HeaderFieldsWidth())
}

func TestAppliesToAndCountFor(t *testing.T) {
	s := minimalSchema()
	rho, ok := s.BlockField("rho")
	require.True(t, ok)

	assert.True(t, rho.AppliesTo(0))
	assert.False(t, rho.AppliesTo(1))

	counts := []int{5, 7}
	assert.Equal(t, 5, rho.CountFor(counts, 0))

	rho.Count = FixedCount(3)
	assert.Equal(t, 3, rho.CountFor(counts, 0))
	assert.Equal(t, 3, rho.CountFor(counts, 1))
}
