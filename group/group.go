package group

import (
	"io"
)

// Scalar represents an element of the scalar field shared by the groups of
// a pairing-friendly curve. Scalars are integers modulo the group order and
// are used as exponents in scalar multiplication.
//
// All arithmetic methods use a mutable receiver pattern: they modify
// the receiver, store the result in it, and return it.
type Scalar interface {
	// Mul sets the receiver to a*b and returns it.
	Mul(a, b Scalar) Scalar
	// Set sets the receiver to a and returns it.
	Set(a Scalar) Scalar
	// SetOne sets the receiver to the multiplicative identity and returns it.
	SetOne() Scalar
	// Bytes returns the canonical big-endian byte representation of the scalar.
	Bytes() []byte
	// SetBytes sets the receiver from a canonical encoding and returns it.
	// Returns an error if the data is not a reduced field element.
	SetBytes(data []byte) (Scalar, error)
	// Equal reports whether the receiver equals b.
	Equal(b Scalar) bool
	// IsZero reports whether the receiver is zero.
	IsZero() bool
	// Zeroize overwrites the scalar with zero in place.
	Zeroize()
}

// Point represents an element of one of the curve groups.
//
// Like [Scalar], arithmetic methods use a mutable receiver pattern.
type Point interface {
	// ScalarMult sets the receiver to s*p and returns it.
	ScalarMult(s Scalar, p Point) Point
	// Set sets the receiver to a and returns it.
	Set(a Point) Point
	// Bytes returns the compressed encoding of the point.
	Bytes() []byte
	// SetBytes decodes a compressed point into the receiver and returns it.
	// Returns an error if data has the wrong length or is not a curve point
	// of the prime-order subgroup.
	SetBytes(data []byte) (Point, error)
	// Equal reports whether the receiver equals b.
	Equal(b Point) bool
	// IsIdentity reports whether the receiver is the point at infinity.
	IsIdentity() bool
	// InSubgroup reports whether the receiver lies in the prime-order subgroup.
	InSubgroup() bool
}

// Group is a factory for one of the curve groups and the scalar field it
// shares with its sibling groups.
//
// A ceremony uses two groups over the same scalar field: a "short" group in
// which many powers are kept and an "extended" group with larger encodings
// and fewer powers.
type Group interface {
	// Name returns a short human readable name such as "G1".
	Name() string
	// NewScalar returns a new zero scalar.
	NewScalar() Scalar
	// NewPoint returns a new identity point.
	NewPoint() Point
	// Generator returns the group's base point.
	Generator() Point
	// PointSize returns the length in bytes of a compressed point.
	PointSize() int
	// RandomScalar returns a uniformly random scalar read from r.
	RandomScalar(r io.Reader) (Scalar, error)
}
