package editor

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange       = errors.New("invalid range")
	ErrOverlappingChanges = errors.New("overlapping changes")
)

// InvalidRangeError reports a change whose bounds are inconsistent, exceed the
// text length, or split a multi-byte code point.
type InvalidRangeError struct {
	Start int
	End   int
	Len   int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("editor: invalid range [%d, %d) for text of length %d", e.Start, e.End, e.Len)
}

// Is matches ErrInvalidRange.
func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// OverlappingChangesError reports two changes of one transaction that intersect
// once sorted by start offset.
type OverlappingChangesError struct {
	FirstStart int
	FirstEnd   int
	NextStart  int
	NextEnd    int
}

func (e *OverlappingChangesError) Error() string {
	return fmt.Sprintf("editor: change [%d, %d) overlaps [%d, %d)", e.NextStart, e.NextEnd, e.FirstStart, e.FirstEnd)
}

// Is matches ErrOverlappingChanges.
func (e *OverlappingChangesError) Is(target error) bool {
	return target == ErrOverlappingChanges
}
