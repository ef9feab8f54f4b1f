package extract

import (
	"errors"
	"fmt"
)

// ErrTableNotFound means the expected markup structure is absent. It is
// never fatal: callers log it and move on to the next subject.
var ErrTableNotFound = errors.New("table not found")

// RowShapeError reports a row whose width disagrees with its header.
type RowShapeError struct {
	Label string
	Want  int
	Got   int
}

func (e *RowShapeError) Error() string {
	return fmt.Sprintf("row %q has %d cells, header has %d", e.Label, e.Got, e.Want)
}
