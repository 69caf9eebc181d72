package bls

import (
	"errors"
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/f3rmion/tau/group"
)

// SignatureDST is the hash-to-curve domain separation tag of the
// proof-of-possession BLS ciphersuite with signatures in G1.
const SignatureDST = "BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_POP_"

// ErrZeroKey is returned when signing with the zero scalar.
var ErrZeroKey = errors.New("bls: zero secret key")

// PublicKey returns the G2 public key sk*g2 matching sk.
func PublicKey(sk group.Scalar) *G2Point {
	g := &G2{}
	return g.NewPoint().ScalarMult(sk, g.Generator()).(*G2Point)
}

// Sign returns the G1 signature sk*H(msg).
//
// The secret key is the scalar itself, taken from its canonical encoding,
// so the matching public key is the ceremony commitment sk*g2.
func Sign(sk group.Scalar, msg []byte) (*G1Point, error) {
	s, ok := sk.(*Scalar)
	if !ok {
		return nil, fmt.Errorf("bls: unsupported scalar type %T", sk)
	}
	if s.IsZero() {
		return nil, ErrZeroKey
	}

	h, err := bls12381.HashToG1(msg, []byte(SignatureDST))
	if err != nil {
		return nil, fmt.Errorf("bls: hash to curve: %w", err)
	}

	sig := &G1Point{inner: h}
	sig.ScalarMult(s, &G1Point{inner: h})
	return sig, nil
}

// Verify reports whether sig is a valid signature of msg under pk, by
// checking e(sig, g2) == e(H(msg), pk).
func Verify(pk *G2Point, msg []byte, sig *G1Point) (bool, error) {
	if pk.IsIdentity() || sig.IsIdentity() {
		return false, nil
	}
	if !pk.InSubgroup() || !sig.InSubgroup() {
		return false, nil
	}

	h, err := bls12381.HashToG1(msg, []byte(SignatureDST))
	if err != nil {
		return false, fmt.Errorf("bls: hash to curve: %w", err)
	}
	var negH bls12381.G1Affine
	negH.Neg(&h)

	_, _, _, g2 := bls12381.Generators()
	return bls12381.PairingCheck(
		[]bls12381.G1Affine{sig.inner, negH},
		[]bls12381.G2Affine{g2, pk.inner},
	)
}
