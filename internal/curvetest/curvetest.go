// Package curvetest builds BLS12-381 ceremony fixtures for tests.
package curvetest

import (
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"

	"github.com/f3rmion/tau/bls"
	"github.com/f3rmion/tau/ceremony"
	"github.com/f3rmion/tau/group"
)

// Size declares the power counts of one sub-ceremony.
type Size struct {
	G1 int
	G2 int
}

// Scalar returns the scalar v.
func Scalar(v uint64) *bls.Scalar {
	return bls.NewScalar().SetUint64(v)
}

// Power returns tau^i.
func Power(tau group.Scalar, i int) group.Scalar {
	r := bls.NewScalar().SetOne()
	for ; i > 0; i-- {
		r.Mul(r, tau)
	}
	return r
}

// PointHex returns the hex encoding of s*G for the generator of g.
func PointHex(g group.Group, s group.Scalar) string {
	return bls.PointToHex(g.NewPoint().ScalarMult(s, g.Generator()))
}

// Batch builds a batch whose sub-ceremonies hold the powers of tau for the
// given sizes. Every PotPubkey is set to the G2 generator.
func Batch(tb testing.TB, tau group.Scalar, sizes ...Size) *ceremony.Batch {
	tb.Helper()

	g1, g2 := &bls.G1{}, &bls.G2{}
	batch := &ceremony.Batch{}
	for _, size := range sizes {
		if size.G2 > size.G1 {
			tb.Fatalf("curvetest: G2 size %d exceeds G1 size %d", size.G2, size.G1)
		}
		c := ceremony.SubCeremony{
			NumG1Powers: size.G1,
			NumG2Powers: size.G2,
			PotPubkey:   bls.PointToHex(g2.Generator()),
		}
		ti := bls.NewScalar().SetOne()
		for i := 0; i < size.G1; i++ {
			c.PowersOfTau.G1Powers = append(c.PowersOfTau.G1Powers, PointHex(g1, ti))
			if i < size.G2 {
				c.PowersOfTau.G2Powers = append(c.PowersOfTau.G2Powers, PointHex(g2, ti))
			}
			ti.Mul(ti, tau)
		}
		batch.Contributions = append(batch.Contributions, c)
	}
	return batch
}

// NonSubgroupG1Hex returns the encoding of a point that is on the G1 curve
// but outside its prime-order subgroup.
func NonSubgroupG1Hex(tb testing.TB) string {
	tb.Helper()

	var four fp.Element
	four.SetUint64(4)
	for i := uint64(1); i < 1024; i++ {
		var x, rhs, y fp.Element
		x.SetUint64(i)
		rhs.Square(&x)
		rhs.Mul(&rhs, &x)
		rhs.Add(&rhs, &four)
		if y.Sqrt(&rhs) == nil {
			continue
		}
		p := bls12381.G1Affine{X: x, Y: y}
		if p.IsOnCurve() && !p.IsInSubGroup() {
			b := p.Bytes()
			return bls.EncodeHex(b[:])
		}
	}
	tb.Fatal("curvetest: no non-subgroup point found")
	return ""
}

// NonSubgroupG2Hex returns the encoding of a point that is on the G2 twist
// but outside its prime-order subgroup.
func NonSubgroupG2Hex(tb testing.TB) string {
	tb.Helper()

	// The Fp2 type is only reachable through G2Affine's coordinates.
	var scratch bls12381.G2Affine
	b := scratch.Y // twist coefficient 4(1+u)
	b.A0.SetUint64(4)
	b.A1.SetUint64(4)

	for i := uint64(1); i < 1024; i++ {
		var p bls12381.G2Affine
		p.X.A0.SetUint64(i)
		p.X.A1.SetUint64(1)

		rhs := scratch.X
		rhs.Square(&p.X)
		rhs.Mul(&rhs, &p.X)
		rhs.Add(&rhs, &b)
		if rhs.Legendre() != 1 {
			continue
		}
		p.Y.Sqrt(&rhs)
		if p.IsOnCurve() && !p.IsInSubGroup() {
			enc := p.Bytes()
			return bls.EncodeHex(enc[:])
		}
	}
	tb.Fatal("curvetest: no non-subgroup point found")
	return ""
}
