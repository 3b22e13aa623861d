package schema

import (
	"encoding/binary"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseByteOrder converts the strings "little" and "big" to the
// corresponding binary.ByteOrder.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch s {
	case "little": return binary.LittleEndian, nil
	case "big": return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("'%s' is not a valid byte order. Only 'little' " +
		"and 'big' are valid.", s)
}

// yamlSchema mirrors the on-disk YAML schema declaration. Field order in the
// header and blocks sequences is the on-disk record order.
type yamlSchema struct {
	NTypes int `yaml:"ntypes"`
	HeaderSize int `yaml:"header_size"`
	CountField string `yaml:"count_field"`
	ByteOrder string `yaml:"byte_order"`
	MarkerWidth int `yaml:"marker_width"`
	Header []yamlHeaderField `yaml:"header"`
	Blocks []yamlBlockField `yaml:"blocks"`
	Aliases map[string]int `yaml:"aliases"`
}

type yamlHeaderField struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	N int `yaml:"n"`
}

type yamlBlockField struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Ptypes []int `yaml:"ptypes"`
	Flag string `yaml:"flag"`
}

// FromYAML builds a Schema from a YAML declaration. Omitted values get the
// common Gadget-family defaults: little-endian byte order, 4-byte record
// markers, element count 1 for header fields, and all categories for blocks.
// The returned schema has already been validated.
func FromYAML(data []byte) (*Schema, error) {
	y := &yamlSchema{ }
	if err := yaml.Unmarshal(data, y); err != nil {
		return nil, Errf("The schema declaration cannot be parsed: %s",
			err.Error())
	}

	s := &Schema{
		NTypes: y.NTypes,
		HeaderSize: y.HeaderSize,
		CountField: y.CountField,
		MarkerWidth: y.MarkerWidth,
		Aliases: y.Aliases,
	}

	if y.ByteOrder == "" { y.ByteOrder = "little" }
	order, err := ParseByteOrder(y.ByteOrder)
	if err != nil { return nil, Errf("%s", err.Error()) }
	s.ByteOrder = order

	if s.MarkerWidth == 0 { s.MarkerWidth = 4 }

	for i := range y.Header {
		h := y.Header[i]
		if h.N == 0 { h.N = 1 }
		s.HeaderFields = append(s.HeaderFields, HeaderField{
			Name: h.Name, Type: h.Type, N: h.N,
		})
	}

	for i := range y.Blocks {
		b := y.Blocks[i]
		if b.Ptypes == nil {
			for p := 0; p < s.NTypes; p++ {
				b.Ptypes = append(b.Ptypes, p)
			}
		}
		s.BlockFields = append(s.BlockFields, BlockField{
			Name: b.Name, Type: b.Type, Ptypes: b.Ptypes, Flag: b.Flag,
		})
	}

	if err := s.Validate(); err != nil { return nil, err }
	return s, nil
}

// FromYAMLFile reads a YAML schema declaration from the named file.
func FromYAMLFile(fname string) (*Schema, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("The schema file %s cannot be read: %s",
			fname, err.Error())
	}
	return FromYAML(data)
}
