package bls

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/f3rmion/tau/group"
)

// Compressed point sizes on the wire.
const (
	G1PointSize = bls12381.SizeOfG1AffineCompressed
	G2PointSize = bls12381.SizeOfG2AffineCompressed
	ScalarSize  = fr.Bytes
)

// wideSampleSize is the number of random bytes reduced into one scalar.
// Sampling twice the field size keeps the modular bias negligible.
const wideSampleSize = 2 * fr.Bytes

var (
	// ErrInvalidLength is returned when an encoding has the wrong size.
	ErrInvalidLength = errors.New("bls: invalid encoding length")
	// ErrInvalidPoint is returned when bytes do not decode to a subgroup point.
	ErrInvalidPoint = errors.New("bls: invalid point")
	// ErrInvalidScalar is returned for a non-canonical scalar encoding.
	ErrInvalidScalar = errors.New("bls: invalid scalar")
)

// Scalar is an element of the BLS12-381 scalar field Fr.
// It implements [group.Scalar] by wrapping gnark-crypto's fr.Element.
type Scalar struct {
	inner fr.Element
}

// NewScalar returns a new zero scalar.
func NewScalar() *Scalar {
	return &Scalar{}
}

// SetUint64 sets s to v and returns s.
func (s *Scalar) SetUint64(v uint64) *Scalar {
	s.inner.SetUint64(v)
	return s
}

// Mul sets s to a * b (mod r) and returns s.
func (s *Scalar) Mul(a, b group.Scalar) group.Scalar {
	aScalar := a.(*Scalar)
	bScalar := b.(*Scalar)
	s.inner.Mul(&aScalar.inner, &bScalar.inner)
	return s
}

// Set copies the value of a into s and returns s.
func (s *Scalar) Set(a group.Scalar) group.Scalar {
	aScalar := a.(*Scalar)
	s.inner.Set(&aScalar.inner)
	return s
}

// SetOne sets s to 1 and returns s.
func (s *Scalar) SetOne() group.Scalar {
	s.inner.SetOne()
	return s
}

// Bytes returns the scalar as a 32-byte big-endian representation.
func (s *Scalar) Bytes() []byte {
	b := s.inner.Bytes()
	return b[:]
}

// SetBytes sets s from a canonical 32-byte big-endian encoding.
func (s *Scalar) SetBytes(data []byte) (group.Scalar, error) {
	if len(data) != ScalarSize {
		return nil, fmt.Errorf("%w: scalar has %d bytes, want %d", ErrInvalidLength, len(data), ScalarSize)
	}
	if err := s.inner.SetBytesCanonical(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	return s, nil
}

// Equal reports whether s and b represent the same scalar value.
func (s *Scalar) Equal(b group.Scalar) bool {
	bScalar := b.(*Scalar)
	return s.inner.Equal(&bScalar.inner)
}

// IsZero reports whether s is the zero scalar.
func (s *Scalar) IsZero() bool {
	return s.inner.IsZero()
}

// Zeroize overwrites s with zero.
func (s *Scalar) Zeroize() {
	s.inner.SetZero()
}

// bigInt returns s as a big.Int. Callers holding secret values should
// release it with wipeBig.
func (s *Scalar) bigInt() *big.Int {
	return s.inner.BigInt(new(big.Int))
}

// wipeBig overwrites the words backing b.
func wipeBig(b *big.Int) {
	words := b.Bits()
	for i := range words {
		words[i] = 0
	}
	b.SetInt64(0)
}

// randomScalar reduces a wide sample read from r into Fr.
func randomScalar(r io.Reader) (*Scalar, error) {
	var buf [wideSampleSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("bls: read entropy: %w", err)
	}
	s := NewScalar()
	s.inner.SetBytes(buf[:])
	for i := range buf {
		buf[i] = 0
	}
	return s, nil
}

// G1Point is a point of the BLS12-381 G1 group.
// It implements [group.Point] by wrapping gnark-crypto's G1Affine.
type G1Point struct {
	inner bls12381.G1Affine
}

// ScalarMult sets p to s * q and returns p.
func (p *G1Point) ScalarMult(s group.Scalar, q group.Point) group.Point {
	scalar := s.(*Scalar)
	qPoint := q.(*G1Point)
	k := scalar.bigInt()
	p.inner.ScalarMultiplication(&qPoint.inner, k)
	wipeBig(k)
	return p
}

// Set copies the value of a into p and returns p.
func (p *G1Point) Set(a group.Point) group.Point {
	aPoint := a.(*G1Point)
	p.inner.Set(&aPoint.inner)
	return p
}

// Bytes returns the 48-byte compressed encoding.
func (p *G1Point) Bytes() []byte {
	b := p.inner.Bytes()
	return b[:]
}

// SetBytes decodes a 48-byte compressed encoding into p.
func (p *G1Point) SetBytes(data []byte) (group.Point, error) {
	if len(data) != G1PointSize {
		return nil, fmt.Errorf("%w: G1 point has %d bytes, want %d", ErrInvalidLength, len(data), G1PointSize)
	}
	if _, err := p.inner.SetBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return p, nil
}

// Equal reports whether p and b represent the same point.
func (p *G1Point) Equal(b group.Point) bool {
	bPoint := b.(*G1Point)
	return p.inner.Equal(&bPoint.inner)
}

// IsIdentity reports whether p is the point at infinity.
func (p *G1Point) IsIdentity() bool {
	return p.inner.IsInfinity()
}

// InSubgroup reports whether p lies in the prime-order subgroup.
func (p *G1Point) InSubgroup() bool {
	return p.inner.IsOnCurve() && p.inner.IsInSubGroup()
}

// G2Point is a point of the BLS12-381 G2 group.
type G2Point struct {
	inner bls12381.G2Affine
}

// ScalarMult sets p to s * q and returns p.
func (p *G2Point) ScalarMult(s group.Scalar, q group.Point) group.Point {
	scalar := s.(*Scalar)
	qPoint := q.(*G2Point)
	k := scalar.bigInt()
	p.inner.ScalarMultiplication(&qPoint.inner, k)
	wipeBig(k)
	return p
}

// Set copies the value of a into p and returns p.
func (p *G2Point) Set(a group.Point) group.Point {
	aPoint := a.(*G2Point)
	p.inner.Set(&aPoint.inner)
	return p
}

// Bytes returns the 96-byte compressed encoding.
func (p *G2Point) Bytes() []byte {
	b := p.inner.Bytes()
	return b[:]
}

// SetBytes decodes a 96-byte compressed encoding into p.
func (p *G2Point) SetBytes(data []byte) (group.Point, error) {
	if len(data) != G2PointSize {
		return nil, fmt.Errorf("%w: G2 point has %d bytes, want %d", ErrInvalidLength, len(data), G2PointSize)
	}
	if _, err := p.inner.SetBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return p, nil
}

// Equal reports whether p and b represent the same point.
func (p *G2Point) Equal(b group.Point) bool {
	bPoint := b.(*G2Point)
	return p.inner.Equal(&bPoint.inner)
}

// IsIdentity reports whether p is the point at infinity.
func (p *G2Point) IsIdentity() bool {
	return p.inner.IsInfinity()
}

// InSubgroup reports whether p lies in the prime-order subgroup.
func (p *G2Point) InSubgroup() bool {
	return p.inner.IsOnCurve() && p.inner.IsInSubGroup()
}

// G1 implements [group.Group] for BLS12-381 G1, the ceremony's short group.
type G1 struct{}

// Name returns "G1".
func (g *G1) Name() string { return "G1" }

// NewScalar returns a new zero scalar.
func (g *G1) NewScalar() group.Scalar { return NewScalar() }

// NewPoint returns a new point at infinity.
func (g *G1) NewPoint() group.Point { return &G1Point{} }

// Generator returns the standard G1 generator.
func (g *G1) Generator() group.Point {
	_, _, g1, _ := bls12381.Generators()
	return &G1Point{inner: g1}
}

// PointSize returns 48.
func (g *G1) PointSize() int { return G1PointSize }

// RandomScalar returns a uniformly random scalar read from r.
func (g *G1) RandomScalar(r io.Reader) (group.Scalar, error) {
	return randomScalar(r)
}

// G2 implements [group.Group] for BLS12-381 G2, the ceremony's extended group.
type G2 struct{}

// Name returns "G2".
func (g *G2) Name() string { return "G2" }

// NewScalar returns a new zero scalar.
func (g *G2) NewScalar() group.Scalar { return NewScalar() }

// NewPoint returns a new point at infinity.
func (g *G2) NewPoint() group.Point { return &G2Point{} }

// Generator returns the standard G2 generator.
func (g *G2) Generator() group.Point {
	_, _, _, g2 := bls12381.Generators()
	return &G2Point{inner: g2}
}

// PointSize returns 96.
func (g *G2) PointSize() int { return G2PointSize }

// RandomScalar returns a uniformly random scalar read from r.
func (g *G2) RandomScalar(r io.Reader) (group.Scalar, error) {
	return randomScalar(r)
}
