package snapshot

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gliokit/glio/lib/fortio"
	"github.com/gliokit/glio/lib/schema"
)

// testSchema is a small two-category file family used throughout the codec
// tests: category 0 plays the role of gas, category 1 of halo. The header
// fields need 36 bytes; the remaining 12 bytes of the declared 48 are
// padding.
func testSchema() *schema.Schema {
	return &schema.Schema{
		NTypes: 2,
		HeaderSize: 48,
		CountField: "npart",
		ByteOrder: binary.LittleEndian,
		MarkerWidth: 4,
		HeaderFields: []schema.HeaderField{
			{Name: "npart", Type: "i32", N: 2},
			{Name: "mass", Type: "f64", N: 2},
			{Name: "time", Type: "f64", N: 1},
			{Name: "flag_extra", Type: "i32", N: 1},
		},
		BlockFields: []schema.BlockField{
			{Name: "pos", Type: "v32", Ptypes: []int{0, 1}},
			{Name: "id", Type: "u32", Ptypes: []int{0, 1}},
			{Name: "rho", Type: "f32", Ptypes: []int{0}},
			{Name: "extra", Type: "f32", Ptypes: []int{0},
				Flag: "flag_extra"},
		},
		Aliases: map[string]int{"gas": 0, "halo": 1},
	}
}

// testHeaderBytes builds a raw header record for testSchema with the given
// counts and flag value. The padding bytes carry a non-zero pattern so tests
// can tell whether they survive round trips verbatim.
func testHeaderBytes(t *testing.T, npart [2]int32, flagExtra int32) []byte {
	t.Helper()

	buf := &bytes.Buffer{ }
	order := binary.LittleEndian
	binary.Write(buf, order, npart[:])
	binary.Write(buf, order, []float64{1.5, 0.0})
	binary.Write(buf, order, 0.25)
	binary.Write(buf, order, flagExtra)
	for i := 0; buf.Len() < 48; i++ {
		buf.WriteByte(byte(0xA0 + i))
	}
	if buf.Len() != 48 {
		t.Fatalf("Internal test error: header has %d bytes.", buf.Len())
	}
	return buf.Bytes()
}

// testPos and friends are the canonical gas-category contents used by the
// integration tests: three particles in category 0, none in category 1.
var (
	testPos = [][3]float32{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}
	testID = []uint32{10, 11, 12}
	testRho = []float32{0.5, 0.25, 0.125}
	testExtra = []float32{-1, -2, -3}
)

func record(t *testing.T, x interface{}) []byte {
	t.Helper()
	buf := &bytes.Buffer{ }
	if err := binary.Write(buf, binary.LittleEndian, x); err != nil {
		t.Fatalf("Internal test error: %s", err.Error())
	}
	return buf.Bytes()
}

// writeTestFile writes a complete snapshot file for testSchema with counts
// [3, 0]. If flagExtra is nonzero the "extra" block record is included.
func writeTestFile(t *testing.T, fname string, flagExtra int32) {
	t.Helper()

	f, err := fortio.Create(fname, binary.LittleEndian, 4)
	if err != nil { t.Fatalf("%s", err.Error()) }
	defer f.Close()

	records := [][]byte{
		testHeaderBytes(t, [2]int32{3, 0}, flagExtra),
		record(t, flatten(testPos)),
		record(t, testID),
		record(t, testRho),
	}
	if flagExtra != 0 {
		records = append(records, record(t, testExtra))
	}

	for i := range records {
		if err := f.WriteRecord(records[i]); err != nil {
			t.Fatalf("Couldn't write test record %d: %s", i, err.Error())
		}
	}
}

func flatten(vs [][3]float32) []float32 {
	out := make([]float32, 0, len(vs)*3)
	for i := range vs {
		out = append(out, vs[i][0], vs[i][1], vs[i][2])
	}
	return out
}
