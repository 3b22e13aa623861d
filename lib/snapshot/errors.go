package snapshot

import (
	"fmt"
)

// ShapeError is returned when an array's length no longer agrees with what
// the schema and the current header say it should be. It is the main
// integrity check protecting a save from writing a corrupt record after
// out-of-band mutation of block or header arrays.
type ShapeError struct {
	msg string
}

func (e *ShapeError) Error() string { return e.msg }

func shapeErrf(format string, a ...interface{}) *ShapeError {
	return &ShapeError{ fmt.Sprintf(format, a...) }
}

// ImmutableViewError is returned when a caller tries to assign through a
// category View. Views are lookup devices, not owners; mutation has to go
// through the snapshot's block arrays directly.
type ImmutableViewError struct {
	msg string
}

func (e *ImmutableViewError) Error() string { return e.msg }
