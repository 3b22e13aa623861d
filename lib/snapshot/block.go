package snapshot

import (
	"bytes"

	"github.com/gliokit/glio/lib/fortio"
	"github.com/gliokit/glio/lib/schema"
)

// Block holds one field's decoded data, partitioned by particle category.
// Its length always equals the schema's category count. Entry p is:
//
//   - a typed Array with category p's elements, if the field applies to p
//     (zero-length but non-nil when the category has zero particles), or
//   - nil, if the field does not apply to category p.
//
// The nil/empty distinction is load-bearing: consumers branch on "this field
// is not defined for this category" versus "this category happens to be
// empty", and the codec preserves it through save/load round trips.
type Block []Array

// decodeBlock partitions one framed block record. The file stores all
// applicable categories' data as one contiguous run in category-index order;
// the run is read once and then sliced per category, so the returned arrays
// share the run's backing storage rather than copying it.
func decodeBlock(
	raw []byte, f *schema.BlockField, counts []int, sch *schema.Schema,
) (Block, error) {
	total := 0
	for p := 0; p < sch.NTypes; p++ {
		if f.AppliesTo(p) { total += f.CountFor(counts, p) }
	}

	elemSize := schema.ElemSize(f.Type)
	if len(raw) != total*elemSize {
		return nil, fortio.Errf("The block '%s' should have %d bytes (%d " +
			"'%s' elements over its applicable categories), but its record " +
			"has %d bytes. An earlier block is probably missing, extra, or " +
			"mistyped.", f.Name, total*elemSize, total, f.Type, len(raw))
	}

	run, err := readArray(raw, sch.ByteOrder, f.Type, total)
	if err != nil { return nil, err }

	blk := make(Block, sch.NTypes)
	begin := 0
	for p := 0; p < sch.NTypes; p++ {
		if !f.AppliesTo(p) { continue }
		end := begin + f.CountFor(counts, p)
		blk[p] = slice(run, begin, end)
		begin = end
	}

	return blk, nil
}

// encode concatenates the block's applicable categories in category-index
// order and returns the record payload. Every present array is checked
// against the current counts first, so nothing is emitted for a block whose
// arrays were resized out from under the header.
func (blk Block) encode(
	f *schema.BlockField, counts []int, sch *schema.Schema,
) ([]byte, error) {
	if err := blk.checkShape(f, counts, sch); err != nil { return nil, err }

	buf := &bytes.Buffer{ }
	for p := 0; p < sch.NTypes; p++ {
		if !f.AppliesTo(p) { continue }
		if err := writeArray(buf, sch.ByteOrder, blk[p]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// checkShape verifies that the block's per-category arrays agree with the
// schema and the given category counts.
func (blk Block) checkShape(
	f *schema.BlockField, counts []int, sch *schema.Schema,
) error {
	if len(blk) != sch.NTypes {
		return shapeErrf("The block '%s' has %d category slots, but the " +
			"schema declares %d particle categories.",
			f.Name, len(blk), sch.NTypes)
	}

	for p := 0; p < sch.NTypes; p++ {
		if !f.AppliesTo(p) {
			if blk[p] != nil {
				return shapeErrf("The block '%s' does not apply to " +
					"category %d, but an array is present there.", f.Name, p)
			}
			continue
		}

		n := f.CountFor(counts, p)
		if blk[p] == nil {
			return shapeErrf("The block '%s' applies to category %d with " +
				"%d elements, but the array there is missing.", f.Name, p, n)
		}
		if typeOf(blk[p]) != f.Type {
			return shapeErrf("The block '%s' holds '%s' arrays, but " +
				"category %d holds a '%s' array.",
				f.Name, f.Type, p, typeOf(blk[p]))
		}
		if Len(blk[p]) != n {
			return shapeErrf("The block '%s' should have %d elements for " +
				"category %d according to the header's counts, but has %d. " +
				"If the particle counts were changed deliberately, the " +
				"header's count vector and the block arrays must be " +
				"updated together.", f.Name, n, p, Len(blk[p]))
		}
	}

	return nil
}
