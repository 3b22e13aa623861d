/*package config parses codec option files. An option file is a small INI
document selecting the framing convention and, optionally, the schema
declaration to bind:

	[codec]
	byte-order = big
	marker-width = 8
	schema = sphray.yaml

All keys are optional. Options are applied on top of a Schema, so a config
file can re-frame a schema (e.g. to read a big-endian copy of a file family)
without redeclaring it.
*/
package config

import (
	"encoding/binary"
	"fmt"

	"gopkg.in/gcfg.v1"

	"github.com/gliokit/glio/lib/schema"
)

// Options holds the recognized codec options. Zero values mean "not set":
// a nil ByteOrder and a zero MarkerWidth leave the bound schema's framing
// untouched.
type Options struct {
	ByteOrder binary.ByteOrder
	MarkerWidth int
	SchemaPath string
}

// codecFile mirrors the INI layout gcfg parses into.
type codecFile struct {
	Codec struct {
		ByteOrder string `gcfg:"byte-order"`
		MarkerWidth int `gcfg:"marker-width"`
		Schema string `gcfg:"schema"`
	}
}

func fromCodecFile(raw *codecFile) (*Options, error) {
	opt := &Options{
		MarkerWidth: raw.Codec.MarkerWidth,
		SchemaPath: raw.Codec.Schema,
	}

	if raw.Codec.ByteOrder != "" {
		order, err := schema.ParseByteOrder(raw.Codec.ByteOrder)
		if err != nil { return nil, err }
		opt.ByteOrder = order
	}

	if opt.MarkerWidth != 0 && opt.MarkerWidth != 4 && opt.MarkerWidth != 8 {
		return nil, fmt.Errorf("The codec option 'marker-width' is %d, but " +
			"only 4 and 8 are valid.", opt.MarkerWidth)
	}

	return opt, nil
}

// Read parses the codec option file with the given name.
func Read(fname string) (*Options, error) {
	raw := &codecFile{ }
	if err := gcfg.ReadFileInto(raw, fname); err != nil {
		return nil, fmt.Errorf("The codec option file %s cannot be " +
			"parsed: %s", fname, err.Error())
	}
	return fromCodecFile(raw)
}

// ReadString parses codec options from an in-memory INI document.
func ReadString(s string) (*Options, error) {
	raw := &codecFile{ }
	if err := gcfg.ReadStringInto(raw, s); err != nil {
		return nil, fmt.Errorf("The codec options cannot be parsed: %s",
			err.Error())
	}
	return fromCodecFile(raw)
}

// Apply overrides the schema's framing convention with any options that were
// set. The schema is modified in place.
func (opt *Options) Apply(sch *schema.Schema) {
	if opt.ByteOrder != nil { sch.ByteOrder = opt.ByteOrder }
	if opt.MarkerWidth != 0 { sch.MarkerWidth = opt.MarkerWidth }
}

// LoadSchema reads the YAML schema named by the options' schema path and
// applies the remaining options to it.
func (opt *Options) LoadSchema() (*schema.Schema, error) {
	if opt.SchemaPath == "" {
		return nil, fmt.Errorf("The codec options do not name a schema file.")
	}
	sch, err := schema.FromYAMLFile(opt.SchemaPath)
	if err != nil { return nil, err }
	opt.Apply(sch)
	return sch, nil
}
