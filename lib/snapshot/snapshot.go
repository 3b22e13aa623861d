/*package snapshot is the schema-driven codec for particle-simulation
snapshot files: a fixed-layout header record followed by one framed record
per block field, each block partitioned across particle categories by the
header's count vector.

A Snapshot is bound to one file path and one schema. Load decodes the whole
file; block arrays can then be read and replaced in place; Save re-encodes
everything, validating every array against the current header before a
single byte is written. Snapshots are not safe for concurrent mutation;
callers that share one across goroutines supply their own locking.
*/
package snapshot

import (
	"fmt"
	"iter"

	"github.com/gliokit/glio/lib/fortio"
	"github.com/gliokit/glio/lib/schema"
)

// Snapshot owns a file's decoded header and blocks. Both live exclusively
// inside the Snapshot; Views and Block values returned by its methods are
// windows into this storage, not copies.
type Snapshot struct {
	fname string
	sch *schema.Schema
	hd *Header
	blocks map[string]Block
	loaded bool
}

// New binds a file path to a schema. The schema is validated here, so
// invalid declarations surface at configuration time. The returned Snapshot
// is empty until Load is called.
func New(fname string, sch *schema.Schema) (*Snapshot, error) {
	if err := sch.Validate(); err != nil { return nil, err }
	return &Snapshot{
		fname: fname, sch: sch, blocks: map[string]Block{ },
	}, nil
}

// Fname returns the file path the snapshot is bound to.
func (s *Snapshot) Fname() string { return s.fname }

// SetFname rebinds the snapshot to a different file path. Subsequent Load
// and Save calls use the new path.
func (s *Snapshot) SetFname(fname string) { s.fname = fname }

// Schema returns the bound schema.
func (s *Snapshot) Schema() *schema.Schema { return s.sch }

// Header returns the decoded header, or nil before a successful Load.
func (s *Snapshot) Header() *Header { return s.hd }

// Load opens the bound file, decodes the header record, and then decodes
// each block record in schema order using the just-decoded header's category
// count vector. On any error the snapshot keeps its previous state: a failed
// load never leaves partially-decoded data behind as "loaded".
func (s *Snapshot) Load() error {
	f, err := fortio.Open(s.fname, s.sch.ByteOrder, s.sch.MarkerWidth)
	if err != nil { return err }
	defer f.Close()

	raw, err := f.ReadRecord()
	if err != nil { return err }
	hd, err := decodeHeader(raw, s.sch)
	if err != nil { return err }

	counts, err := hd.Counts()
	if err != nil { return err }

	blocks := map[string]Block{ }
	for i := range s.sch.BlockFields {
		bf := &s.sch.BlockFields[i]

		on, err := blockPresent(bf, hd)
		if err != nil { return err }
		if !on {
			// Gated off by its header flag: no record in the file, and the
			// field is absent from every category.
			blocks[bf.Name] = make(Block, s.sch.NTypes)
			continue
		}

		raw, err := f.ReadRecord()
		if err != nil { return err }
		blk, err := decodeBlock(raw, bf, counts, s.sch)
		if err != nil { return err }
		blocks[bf.Name] = blk
	}

	s.hd, s.blocks, s.loaded = hd, blocks, true
	return nil
}

// Save re-encodes the snapshot to its bound path. See SaveAs.
func (s *Snapshot) Save() error { return s.SaveAs(s.fname) }

// SaveAs re-encodes the snapshot to the named path, which may differ from
// the bound one; the binding itself is not changed. The header record and
// every block record are encoded and shape-checked against the *current*
// header's count vector before the target file is opened, so a ShapeError
// leaves a pre-existing target untouched. Blocks are written in schema
// order, mirroring Load.
func (s *Snapshot) SaveAs(fname string) error {
	if !s.loaded {
		return fmt.Errorf("The snapshot bound to %s has no data to save: " +
			"Load has not succeeded yet.", s.fname)
	}

	// Validate-then-write: everything is serialized in memory first.
	hdRaw, err := s.hd.encode()
	if err != nil { return err }
	records := [][]byte{ hdRaw }

	counts, err := s.hd.Counts()
	if err != nil { return err }

	for i := range s.sch.BlockFields {
		bf := &s.sch.BlockFields[i]

		on, err := blockPresent(bf, s.hd)
		if err != nil { return err }
		if !on { continue }

		blk, ok := s.blocks[bf.Name]
		if !ok {
			return shapeErrf("The block '%s' is declared by the schema " +
				"but holds no data.", bf.Name)
		}
		raw, err := blk.encode(bf, counts, s.sch)
		if err != nil { return err }
		records = append(records, raw)
	}

	f, err := fortio.Create(fname, s.sch.ByteOrder, s.sch.MarkerWidth)
	if err != nil { return err }

	for _, raw := range records {
		if err := f.WriteRecord(raw); err != nil {
			f.Close()
			return err
		}
	}
	// Close errors matter here: compressed streams flush on close.
	return f.Close()
}

// blockPresent reports whether a block is present in the file at all, i.e.
// whether its gating header flag (if any) is nonzero.
func blockPresent(bf *schema.BlockField, hd *Header) (bool, error) {
	if bf.Flag == "" { return true, nil }
	v, err := hd.GetInt(bf.Flag)
	if err != nil { return false, err }
	return v != 0, nil
}

// Fields returns the names of the currently populated block fields, in
// schema order.
func (s *Snapshot) Fields() []string {
	names := []string{ }
	for i := range s.sch.BlockFields {
		name := s.sch.BlockFields[i].Name
		if _, ok := s.blocks[name]; ok { names = append(names, name) }
	}
	return names
}

// IterFields iterates over (name, block) pairs in schema order. The sequence
// is a pure projection of schema order over the current block state, so it
// can be ranged over any number of times and always reflects the blocks as
// they are at iteration time.
func (s *Snapshot) IterFields() iter.Seq2[string, Block] {
	return func(yield func(string, Block) bool) {
		for i := range s.sch.BlockFields {
			name := s.sch.BlockFields[i].Name
			blk, ok := s.blocks[name]
			if !ok { continue }
			if !yield(name, blk) { return }
		}
	}
}

// Block returns the named block's per-category array list. The returned
// Block is the snapshot's own storage: replacing an entry (blk[p] = ...)
// mutates the snapshot, which is how callers edit block data. A SchemaError
// is returned for names the schema doesn't declare.
func (s *Snapshot) Block(name string) (Block, error) {
	if _, ok := s.sch.BlockField(name); !ok {
		return nil, schema.Errf("'%s' is not a block declared by the " +
			"bound schema.", name)
	}
	blk, ok := s.blocks[name]
	if !ok {
		return nil, fmt.Errorf("The block '%s' has not been loaded.", name)
	}
	return blk, nil
}
