package bls

import (
	"bytes"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"github.com/f3rmion/tau/group"
)

func TestScalar(t *testing.T) {
	g := &G1{}

	t.Run("MulOne", func(t *testing.T) {
		a, err := g.RandomScalar(rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		one := g.NewScalar().SetOne()
		if !g.NewScalar().Mul(a, one).Equal(a) {
			t.Error("a*1 != a")
		}
	})

	t.Run("BytesRoundTrip", func(t *testing.T) {
		a, _ := g.RandomScalar(rand.Reader)
		b, err := g.NewScalar().SetBytes(a.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		if !a.Equal(b) {
			t.Error("scalar changed through its canonical encoding")
		}
	})

	t.Run("SetBytesRejectsWrongLength", func(t *testing.T) {
		_, err := g.NewScalar().SetBytes(make([]byte, 31))
		if !errors.Is(err, ErrInvalidLength) {
			t.Errorf("expected ErrInvalidLength, got %v", err)
		}
	})

	t.Run("SetBytesRejectsNonCanonical", func(t *testing.T) {
		_, err := g.NewScalar().SetBytes(bytes.Repeat([]byte{0xff}, ScalarSize))
		if !errors.Is(err, ErrInvalidScalar) {
			t.Errorf("expected ErrInvalidScalar, got %v", err)
		}
	})

	t.Run("Zeroize", func(t *testing.T) {
		a, _ := g.RandomScalar(rand.Reader)
		a.Zeroize()
		if !a.IsZero() {
			t.Error("zeroized scalar is not zero")
		}
	})

	t.Run("RandomScalarShortRead", func(t *testing.T) {
		_, err := g.RandomScalar(bytes.NewReader(make([]byte, 10)))
		if err == nil {
			t.Error("expected error on short entropy read")
		}
	})

	t.Run("RandomScalarReducesWideSample", func(t *testing.T) {
		// 64 bytes of 0xff are far above r; the result must still be canonical.
		s, err := g.RandomScalar(bytes.NewReader(bytes.Repeat([]byte{0xff}, wideSampleSize)))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := g.NewScalar().SetBytes(s.Bytes()); err != nil {
			t.Errorf("reduced scalar is not canonical: %v", err)
		}
	})
}

func testGroup(t *testing.T, g group.Group, size int) {
	t.Run("GeneratorRoundTrip", func(t *testing.T) {
		enc := g.Generator().Bytes()
		if len(enc) != size {
			t.Fatalf("encoding has %d bytes, want %d", len(enc), size)
		}
		p, err := g.NewPoint().SetBytes(enc)
		if err != nil {
			t.Fatal(err)
		}
		if !p.Equal(g.Generator()) {
			t.Error("decoded generator differs")
		}
		if !p.InSubgroup() {
			t.Error("generator reported outside subgroup")
		}
	})

	t.Run("ScalarMultComposes", func(t *testing.T) {
		a, _ := g.RandomScalar(rand.Reader)
		b, _ := g.RandomScalar(rand.Reader)

		// b*(a*G) == (a*b)*G
		aG := g.NewPoint().ScalarMult(a, g.Generator())
		left := g.NewPoint().ScalarMult(b, aG)
		right := g.NewPoint().ScalarMult(g.NewScalar().Mul(a, b), g.Generator())
		if !left.Equal(right) {
			t.Error("b*(a*G) != (a*b)*G")
		}
	})

	t.Run("RejectsWrongLength", func(t *testing.T) {
		enc := g.Generator().Bytes()
		for _, data := range [][]byte{enc[:size-1], append(enc, 0)} {
			if _, err := g.NewPoint().SetBytes(data); !errors.Is(err, ErrInvalidLength) {
				t.Errorf("len %d: expected ErrInvalidLength, got %v", len(data), err)
			}
		}
	})

	t.Run("RejectsGarbage", func(t *testing.T) {
		data := bytes.Repeat([]byte{0x9f}, size)
		if _, err := g.NewPoint().SetBytes(data); err == nil {
			t.Error("expected garbage encoding to be rejected")
		}
	})

	t.Run("Identity", func(t *testing.T) {
		if !g.NewPoint().IsIdentity() {
			t.Error("new point is not the identity")
		}
	})
}

func TestG1(t *testing.T) {
	testGroup(t, &G1{}, G1PointSize)
}

func TestG2(t *testing.T) {
	testGroup(t, &G2{}, G2PointSize)
}

func TestHex(t *testing.T) {
	g := &G1{}
	enc := PointToHex(g.Generator())
	if !strings.HasPrefix(enc, "0x") || len(enc) != 2+2*G1PointSize {
		t.Fatalf("unexpected encoding %q", enc)
	}

	for _, s := range []string{enc, strings.TrimPrefix(enc, "0x")} {
		p, err := PointFromHex(g, s)
		if err != nil {
			t.Fatal(err)
		}
		if !p.Equal(g.Generator()) {
			t.Error("hex round trip changed the point")
		}
	}

	if _, err := PointFromHex(g, "0xzz"); err == nil {
		t.Error("expected error for malformed hex")
	}
	if _, err := PointFromHex(g, enc[:len(enc)-2]); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
}

func TestSign(t *testing.T) {
	g := &G1{}
	sk, _ := g.RandomScalar(rand.Reader)
	pk := PublicKey(sk)
	msg := []byte("git|26515232|@kariy")

	sig, err := Sign(sk, msg)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := Verify(pk, msg, sig)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("valid signature rejected")
	}

	t.Run("WrongMessage", func(t *testing.T) {
		ok, _ := Verify(pk, []byte("git|26515232|@other"), sig)
		if ok {
			t.Error("signature verified for a different message")
		}
	})

	t.Run("WrongKey", func(t *testing.T) {
		other, _ := g.RandomScalar(rand.Reader)
		ok, _ := Verify(PublicKey(other), msg, sig)
		if ok {
			t.Error("signature verified under a different key")
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		again, _ := Sign(sk, msg)
		if !again.Equal(sig) {
			t.Error("signing the same message twice gave different signatures")
		}
	})

	t.Run("ZeroKey", func(t *testing.T) {
		if _, err := Sign(NewScalar(), msg); !errors.Is(err, ErrZeroKey) {
			t.Errorf("expected ErrZeroKey, got %v", err)
		}
	})
}
