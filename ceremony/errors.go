package ceremony

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch is returned for a batch without sub-ceremonies.
	ErrEmptyBatch = errors.New("ceremony: batch has no contributions")
	// ErrLengthMismatch is returned when a declared power count differs
	// from the length of its sequence.
	ErrLengthMismatch = errors.New("ceremony: declared power count does not match sequence length")
	// ErrExtendedExceedsShort is returned when more G2 than G1 powers are declared.
	ErrExtendedExceedsShort = errors.New("ceremony: more extended powers than short powers")
	// ErrNotInSubgroup is returned for a point outside the prime-order subgroup.
	ErrNotInSubgroup = errors.New("ceremony: point not in prime-order subgroup")
	// ErrMalformedPoint is returned when a stored point fails to decode.
	ErrMalformedPoint = errors.New("ceremony: malformed point")
)

// PointError locates a failing point inside a batch.
type PointError struct {
	Slot  int
	Group string
	Index int
	Err   error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("slot %d: %s power %d: %s", e.Slot, e.Group, e.Index, e.Err)
}

func (e *PointError) Unwrap() error {
	return e.Err
}
