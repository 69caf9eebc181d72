// Package group defines abstract interfaces for the curve groups used by a
// powers-of-tau ceremony.
//
// This package provides three core interfaces:
//
//   - [Scalar]: Elements of the scalar field (integers modulo the group order)
//   - [Point]: Elements of a group (points on an elliptic curve)
//   - [Group]: Factory methods for creating scalars and points
//
// # Design Philosophy
//
// The interfaces use a mutable receiver pattern. Operations like Mul and
// ScalarMult set the receiver to the result and return it, allowing method
// chaining while minimizing allocations:
//
//	// Compute (a*b)*P
//	s := g.NewScalar().Mul(a, b)
//	q := g.NewPoint().ScalarMult(s, p)
//
// Decoding never panics: malformed encodings, wrong lengths and points
// outside the prime-order subgroup are reported as errors.
//
// See the bls package for the BLS12-381 implementation.
//
// # Security Considerations
//
// Implementations must ensure:
//
//   - Scalar arithmetic is performed modulo the group order
//   - Random scalars are uniformly distributed, not biased by naive truncation
//   - Points outside the prime-order subgroup are rejected in SetBytes
//   - Zeroize really overwrites the scalar's storage
package group
