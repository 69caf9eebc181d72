// Package bls provides a BLS12-381 implementation of the [group.Group]
// interface for use in a powers-of-tau ceremony.
//
// BLS12-381 is a pairing-friendly curve with two groups over the same
// 255-bit scalar field Fr:
//
//   - [G1]: points over Fp, 48-byte compressed encoding (the short group)
//   - [G2]: points over Fp2, 96-byte compressed encoding (the extended group)
//
// This package wraps the BLS12-381 implementation from gnark-crypto. Point
// encodings follow the ZCash compressed serialization used by the Ethereum
// KZG ceremony, and hex strings carry a 0x prefix.
//
// # Decoding
//
// [G1Point.SetBytes] and [G2Point.SetBytes] reject inputs of the wrong
// length before decoding and reject points outside the prime-order
// subgroup. A decode never reads a prefix of a longer buffer.
//
// # Signatures
//
// [Sign] and [Verify] implement minimal-signature-size BLS signatures:
// signatures live in G1 (hashed with [SignatureDST]) and public keys in G2,
// so a ceremony participant's commitment sk*g2 doubles as the public key
// binding the participant's identity.
package bls
