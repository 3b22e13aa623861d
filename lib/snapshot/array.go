package snapshot

/* This file handles the typed arrays that header fields and block categories
decode into. Much of it is type switches over the eight supported array
types; every function here has to stay in sync with the schema's type
strings. */

import (
	"bytes"
	"encoding/binary"
	"io"
	"unsafe"
)

// Array holds one typed column of data: a header field's elements or one
// particle category's share of a block. The dynamic type is one of []int32,
// []uint32, []int64, []uint64, []float32, []float64, [][3]float32, or
// [][3]float64, matching the schema type strings "i32", "u32", "i64",
// "u64", "f32", "f64", "v32", and "v64". A nil Array marks a block category
// the field does not apply to, which is different from a zero-length Array.
type Array interface{}

// makeArray allocates an Array of the given schema type with n elements.
// The result is never nil, even for n = 0.
func makeArray(typ string, n int) Array {
	switch typ {
	case "i32": return make([]int32, n)
	case "u32": return make([]uint32, n)
	case "i64": return make([]int64, n)
	case "u64": return make([]uint64, n)
	case "f32": return make([]float32, n)
	case "f64": return make([]float64, n)
	case "v32": return make([][3]float32, n)
	case "v64": return make([][3]float64, n)
	}
	panic("(Supposedly) impossible type configuration.")
}

// Len returns the number of elements in x. Vector arrays count vectors, not
// components. Len of a nil Array is -1, so absent block slots never compare
// equal to empty ones.
func Len(x Array) int {
	switch xx := x.(type) {
	case nil: return -1
	case []int32: return len(xx)
	case []uint32: return len(xx)
	case []int64: return len(xx)
	case []uint64: return len(xx)
	case []float32: return len(xx)
	case []float64: return len(xx)
	case [][3]float32: return len(xx)
	case [][3]float64: return len(xx)
	}
	panic("(Supposedly) impossible type configuration.")
}

// typeOf returns the schema type string for x, or "" if x isn't one of the
// supported array types.
func typeOf(x Array) string {
	switch x.(type) {
	case []int32: return "i32"
	case []uint32: return "u32"
	case []int64: return "i64"
	case []uint64: return "u64"
	case []float32: return "f32"
	case []float64: return "f64"
	case [][3]float32: return "v32"
	case [][3]float64: return "v64"
	}
	return ""
}

// slice returns x[lo:hi] without copying: the result shares x's backing
// storage, so mutating it mutates x.
func slice(x Array, lo, hi int) Array {
	switch xx := x.(type) {
	case []int32: return xx[lo:hi]
	case []uint32: return xx[lo:hi]
	case []int64: return xx[lo:hi]
	case []uint64: return xx[lo:hi]
	case []float32: return xx[lo:hi]
	case []float64: return xx[lo:hi]
	case [][3]float32: return xx[lo:hi]
	case [][3]float64: return xx[lo:hi]
	}
	panic("(Supposedly) impossible type configuration.")
}

// readArray decodes n elements of the given schema type from raw.
func readArray(
	raw []byte, order binary.ByteOrder, typ string, n int,
) (Array, error) {
	x := makeArray(typ, n)
	rd := bytes.NewReader(raw)
	if err := readInto(rd, order, x); err != nil { return nil, err }
	return x, nil
}

// readInto fills x from rd. binary.Read does a heap allocation per element
// when used on [][3]floatN slices, so vector arrays are reinterpreted as
// flat component slices first.
func readInto(rd io.Reader, order binary.ByteOrder, x Array) error {
	switch xx := x.(type) {
	case []int32: return binary.Read(rd, order, xx)
	case []uint32: return binary.Read(rd, order, xx)
	case []int64: return binary.Read(rd, order, xx)
	case []uint64: return binary.Read(rd, order, xx)
	case []float32: return binary.Read(rd, order, xx)
	case []float64: return binary.Read(rd, order, xx)
	case [][3]float32:
		if len(xx) == 0 { return nil }
		flat := unsafe.Slice(&xx[0][0], len(xx)*3)
		return binary.Read(rd, order, flat)
	case [][3]float64:
		if len(xx) == 0 { return nil }
		flat := unsafe.Slice(&xx[0][0], len(xx)*3)
		return binary.Read(rd, order, flat)
	}
	panic("(Supposedly) impossible type configuration.")
}

// writeArray appends x's on-disk form to buf.
func writeArray(buf *bytes.Buffer, order binary.ByteOrder, x Array) error {
	switch xx := x.(type) {
	case []int32: return binary.Write(buf, order, xx)
	case []uint32: return binary.Write(buf, order, xx)
	case []int64: return binary.Write(buf, order, xx)
	case []uint64: return binary.Write(buf, order, xx)
	case []float32: return binary.Write(buf, order, xx)
	case []float64: return binary.Write(buf, order, xx)
	case [][3]float32:
		if len(xx) == 0 { return nil }
		flat := unsafe.Slice(&xx[0][0], len(xx)*3)
		return binary.Write(buf, order, flat)
	case [][3]float64:
		if len(xx) == 0 { return nil }
		flat := unsafe.Slice(&xx[0][0], len(xx)*3)
		return binary.Write(buf, order, flat)
	}
	panic("(Supposedly) impossible type configuration.")
}
