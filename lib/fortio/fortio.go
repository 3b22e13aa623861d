/*package fortio reads and writes files made of Fortran-style records. Each
record is a payload bracketed by two byte-count markers: a leading marker
holding the payload's length, the payload itself, and a trailing marker
holding the same length. Gadget-family snapshot files are laid out this way,
with the marker width (4 or 8 bytes) and the byte order fixed per file family.

Files whose names end in ".zst" are transparently routed through a zstd
stream, so a compressed snapshot round-trips through the same codec as a
plain one.
*/
package fortio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/DataDog/zstd"
)

// FormatError is returned when a file's framing doesn't hold together: a
// record's leading and trailing markers disagree, the file ends in the middle
// of a record, or a record is too large for the configured marker width.
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string { return e.msg }

// Errf creates a FormatError with a fmt.Sprintf-style message. It's exported
// so that higher-level codecs can report framing-class problems (e.g. a block
// record whose size can't be partitioned) with the same type.
func Errf(format string, a ...interface{}) *FormatError {
	return &FormatError{ fmt.Sprintf(format, a...) }
}

// File is a handle to a file of Fortran-style records. A File is opened in
// either read or write mode, used for a single pass over the file, and then
// closed. It keeps no buffered state between records: every ReadRecord and
// WriteRecord call advances the underlying stream cursor and nothing else.
type File struct {
	fname string
	order binary.ByteOrder
	markerWidth int

	f *os.File
	rd io.Reader
	wr io.Writer
	zClose io.Closer
}

// Open opens the named file for reading records. order and markerWidth give
// the file family's framing convention; markerWidth must be 4 or 8.
func Open(
	fname string, order binary.ByteOrder, markerWidth int,
) (*File, error) {
	if err := checkFraming(order, markerWidth); err != nil { return nil, err }

	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("The file %s does not exist or cannot be " +
			"accessed: %s", fname, err.Error())
	}

	file := &File{ fname: fname, order: order, markerWidth: markerWidth, f: f }
	if strings.HasSuffix(fname, ".zst") {
		z := zstd.NewReader(f)
		file.rd, file.zClose = z, z
	} else {
		file.rd = f
	}

	return file, nil
}

// Create creates (or truncates) the named file for writing records. order
// and markerWidth give the file family's framing convention; markerWidth must
// be 4 or 8.
func Create(
	fname string, order binary.ByteOrder, markerWidth int,
) (*File, error) {
	if err := checkFraming(order, markerWidth); err != nil { return nil, err }

	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("The file %s cannot be created: %s",
			fname, err.Error())
	}

	file := &File{ fname: fname, order: order, markerWidth: markerWidth, f: f }
	if strings.HasSuffix(fname, ".zst") {
		z := zstd.NewWriter(f)
		file.wr, file.zClose = z, z
	} else {
		file.wr = f
	}

	return file, nil
}

func checkFraming(order binary.ByteOrder, markerWidth int) error {
	if order == nil {
		return fmt.Errorf("No byte order was given for the record framing.")
	}
	if markerWidth != 4 && markerWidth != 8 {
		return fmt.Errorf("The record marker width must be 4 or 8 bytes, " +
			"but %d was given.", markerWidth)
	}
	return nil
}

// Name returns the name of the underlying file.
func (f *File) Name() string { return f.fname }

// Close releases the underlying file handle. It must be called on every exit
// path, including after a failed read or write.
func (f *File) Close() error {
	if f.zClose != nil {
		// The zstd stream has to be flushed and closed before the file
		// descriptor underneath it.
		if err := f.zClose.Close(); err != nil {
			f.f.Close()
			return err
		}
	}
	return f.f.Close()
}

// maxRecordSize is the largest payload the marker can represent. Fortran
// control words are signed, so the limit is the signed maximum, as in the
// original compilers.
func (f *File) maxRecordSize() int64 {
	if f.markerWidth == 4 { return math.MaxInt32 }
	return math.MaxInt64
}

func (f *File) readMarker() (int64, error) {
	if f.markerWidth == 4 {
		var n int32
		if err := binary.Read(f.rd, f.order, &n); err != nil { return 0, err }
		return int64(n), nil
	}
	var n int64
	if err := binary.Read(f.rd, f.order, &n); err != nil { return 0, err }
	return n, nil
}

func (f *File) writeMarker(n int64) error {
	if f.markerWidth == 4 {
		return binary.Write(f.wr, f.order, int32(n))
	}
	return binary.Write(f.wr, f.order, n)
}

// ReadRecord reads the next record from the file: a leading byte-count
// marker, that many payload bytes, and a trailing marker. It returns a
// FormatError if the two markers disagree or the file is too short for the
// record they describe.
func (f *File) ReadRecord() ([]byte, error) {
	if f.rd == nil {
		return nil, fmt.Errorf("The file %s is open for writing, not " +
			"reading.", f.fname)
	}

	nHead, err := f.readMarker()
	if err != nil {
		return nil, Errf("The file %s ends in the middle of a record " +
			"marker. The file is truncated or the marker width/byte order " +
			"is wrong.", f.fname)
	}
	if nHead < 0 {
		return nil, Errf("The file %s contains a record with a negative " +
			"length, %d. The marker width or byte order is probably wrong.",
			f.fname, nHead)
	}

	payload := make([]byte, nHead)
	if _, err := io.ReadFull(f.rd, payload); err != nil {
		return nil, Errf("The file %s declares a %d-byte record but ends " +
			"before the record does.", f.fname, nHead)
	}

	nTail, err := f.readMarker()
	if err != nil {
		return nil, Errf("The file %s ends before the trailing marker of a " +
			"%d-byte record.", f.fname, nHead)
	}
	if nHead != nTail {
		return nil, Errf("A record in the file %s has mismatched markers: " +
			"the leading marker says %d bytes and the trailing marker says " +
			"%d. The file is corrupted or the framing convention is wrong.",
			f.fname, nHead, nTail)
	}

	return payload, nil
}

// WriteRecord writes b to the file as one record: a leading marker equal to
// len(b), the bytes of b, and a trailing marker equal to the same value. It
// returns a FormatError if the record is too large for the marker width.
func (f *File) WriteRecord(b []byte) error {
	if f.wr == nil {
		return fmt.Errorf("The file %s is open for reading, not writing.",
			f.fname)
	}

	n := int64(len(b))
	if n > f.maxRecordSize() {
		return Errf("A %d-byte record cannot be written to %s: it exceeds " +
			"the %d-byte maximum representable by %d-byte record markers.",
			n, f.fname, f.maxRecordSize(), f.markerWidth)
	}

	if err := f.writeMarker(n); err != nil { return err }
	if _, err := f.wr.Write(b); err != nil { return err }
	return f.writeMarker(n)
}
