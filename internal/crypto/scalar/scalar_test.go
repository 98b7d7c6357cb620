package scalar

import (
	"bytes"
	"encoding/hex"
	"math/big"
	mathrand "math/rand"
	"testing"
)

func orderBig(t *testing.T) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(orderHex, 16)
	if !ok {
		t.Fatal("bad order constant")
	}
	return n
}

func fromBig(t *testing.T, v *big.Int) *Scalar {
	t.Helper()
	var buf [Size]byte
	v.FillBytes(buf[:])
	s, err := new(Scalar).SetCanonicalBytes(buf[:])
	if err != nil {
		t.Fatalf("SetCanonicalBytes(%v): %v", v, err)
	}
	return s
}

func toBig(t *testing.T, s *Scalar) *big.Int {
	t.Helper()
	return new(big.Int).SetBytes(s.Bytes())
}

func TestMontgomeryConstants(t *testing.T) {
	n := orderBig(t)

	// montOne must be R mod n and rr must be R² mod n, R = 2^567.
	r := new(big.Int).Lsh(big.NewInt(1), 9*_W)
	wantOne := new(big.Int).Mod(r, n)
	var enc [Size]byte
	fillBytes(&montOne, &enc)
	if new(big.Int).SetBytes(enc[:]).Cmp(wantOne) != 0 {
		t.Fatalf("montOne = %x, want %v", enc, wantOne)
	}

	wantRR := new(big.Int).Mul(r, r)
	wantRR.Mod(wantRR, n)
	fillBytes(&rr, &enc)
	if new(big.Int).SetBytes(enc[:]).Cmp(wantRR) != 0 {
		t.Fatalf("rr = %x, want %v", enc, wantRR)
	}

	// order[0] * orderM0Inv must be -1 mod 2^63.
	if (order[0]*orderM0Inv+1)&_MASK != 0 {
		t.Fatalf("orderM0Inv = %x is not -n⁻¹ mod 2^63", orderM0Inv)
	}

	// n - 2 must reconstruct to the right value.
	nm2 := new(big.Int).Sub(n, big.NewInt(2))
	var want [Size]byte
	nm2.FillBytes(want[:])
	if orderMinusTwo != want {
		t.Fatalf("orderMinusTwo = %x, want %x", orderMinusTwo, want)
	}
}

func TestSetCanonicalBytesRejects(t *testing.T) {
	n := orderBig(t)

	var nEnc [Size]byte
	n.FillBytes(nEnc[:])
	if _, err := new(Scalar).SetCanonicalBytes(nEnc[:]); err == nil {
		t.Fatal("SetCanonicalBytes accepted n")
	}

	over := new(big.Int).Add(n, big.NewInt(12345))
	over.FillBytes(nEnc[:])
	if _, err := new(Scalar).SetCanonicalBytes(nEnc[:]); err == nil {
		t.Fatal("SetCanonicalBytes accepted n + 12345")
	}

	if _, err := new(Scalar).SetCanonicalBytes(bytes.Repeat([]byte{0xff}, Size)); err == nil {
		t.Fatal("SetCanonicalBytes accepted an all-ones encoding")
	}

	if _, err := new(Scalar).SetCanonicalBytes(make([]byte, Size-1)); err == nil {
		t.Fatal("SetCanonicalBytes accepted a short encoding")
	}
	if _, err := new(Scalar).SetCanonicalBytes(make([]byte, Size+1)); err == nil {
		t.Fatal("SetCanonicalBytes accepted a long encoding")
	}

	nm1 := new(big.Int).Sub(n, big.NewInt(1))
	nm1.FillBytes(nEnc[:])
	if _, err := new(Scalar).SetCanonicalBytes(nEnc[:]); err != nil {
		t.Fatalf("SetCanonicalBytes rejected n - 1: %v", err)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	n := orderBig(t)
	rng := mathrand.New(mathrand.NewSource(10))

	for i := 0; i < 128; i++ {
		v := new(big.Int).Rand(rng, n)
		var enc [Size]byte
		v.FillBytes(enc[:])

		s, err := new(Scalar).SetCanonicalBytes(enc[:])
		if err != nil {
			t.Fatalf("SetCanonicalBytes(%x): %v", enc, err)
		}
		if !bytes.Equal(s.Bytes(), enc[:]) {
			t.Fatalf("round trip failed: %x != %x", s.Bytes(), enc)
		}
	}
}

func TestArithmeticAgainstBig(t *testing.T) {
	n := orderBig(t)
	rng := mathrand.New(mathrand.NewSource(11))

	for i := 0; i < 256; i++ {
		abig := new(big.Int).Rand(rng, n)
		bbig := new(big.Int).Rand(rng, n)
		a, b := fromBig(t, abig), fromBig(t, bbig)

		sum := new(Scalar).Add(a, b)
		want := new(big.Int).Add(abig, bbig)
		want.Mod(want, n)
		if toBig(t, sum).Cmp(want) != 0 {
			t.Fatalf("Add(%v, %v) = %v, want %v", abig, bbig, toBig(t, sum), want)
		}

		diff := new(Scalar).Subtract(a, b)
		want = new(big.Int).Sub(abig, bbig)
		want.Mod(want, n)
		if toBig(t, diff).Cmp(want) != 0 {
			t.Fatalf("Subtract(%v, %v) = %v, want %v", abig, bbig, toBig(t, diff), want)
		}

		prod := new(Scalar).Mul(a, b)
		want = new(big.Int).Mul(abig, bbig)
		want.Mod(want, n)
		if toBig(t, prod).Cmp(want) != 0 {
			t.Fatalf("Mul(%v, %v) = %v, want %v", abig, bbig, toBig(t, prod), want)
		}

		neg := new(Scalar).Negate(a)
		want = new(big.Int).Neg(abig)
		want.Mod(want, n)
		if toBig(t, neg).Cmp(want) != 0 {
			t.Fatalf("Negate(%v) = %v, want %v", abig, toBig(t, neg), want)
		}

		sq := new(Scalar).Square(a)
		want = new(big.Int).Mul(abig, abig)
		want.Mod(want, n)
		if toBig(t, sq).Cmp(want) != 0 {
			t.Fatalf("Square(%v) = %v, want %v", abig, toBig(t, sq), want)
		}
	}
}

func TestAliasing(t *testing.T) {
	n := orderBig(t)
	rng := mathrand.New(mathrand.NewSource(12))

	abig := new(big.Int).Rand(rng, n)
	bbig := new(big.Int).Rand(rng, n)

	s := fromBig(t, abig)
	s.Add(s, s)
	want := new(big.Int).Add(abig, abig)
	want.Mod(want, n)
	if toBig(t, s).Cmp(want) != 0 {
		t.Fatal("aliased Add failed")
	}

	s = fromBig(t, abig)
	b := fromBig(t, bbig)
	s.Subtract(b, s)
	want = new(big.Int).Sub(bbig, abig)
	want.Mod(want, n)
	if toBig(t, s).Cmp(want) != 0 {
		t.Fatal("aliased Subtract failed")
	}

	s = fromBig(t, abig)
	s.Mul(s, s)
	want = new(big.Int).Mul(abig, abig)
	want.Mod(want, n)
	if toBig(t, s).Cmp(want) != 0 {
		t.Fatal("aliased Mul failed")
	}
}

func TestNegateAddCancels(t *testing.T) {
	n := orderBig(t)
	rng := mathrand.New(mathrand.NewSource(13))

	for i := 0; i < 32; i++ {
		a := fromBig(t, new(big.Int).Rand(rng, n))
		neg := new(Scalar).Negate(a)
		sum := new(Scalar).Add(a, neg)
		if sum.IsZero() != 1 {
			t.Fatal("a + (-a) != 0")
		}
	}

	zero := new(Scalar)
	if new(Scalar).Negate(zero).IsZero() != 1 {
		t.Fatal("Negate(0) != 0")
	}
}

func TestInverse(t *testing.T) {
	n := orderBig(t)
	rng := mathrand.New(mathrand.NewSource(14))
	one := fromBig(t, big.NewInt(1))

	for i := 0; i < 16; i++ {
		abig := new(big.Int).Rand(rng, n)
		if abig.Sign() == 0 {
			continue
		}
		a := fromBig(t, abig)

		inv := new(Scalar).Inverse(a)
		want := new(big.Int).ModInverse(abig, n)
		if toBig(t, inv).Cmp(want) != 0 {
			t.Fatalf("Inverse(%v) = %v, want %v", abig, toBig(t, inv), want)
		}

		check := new(Scalar).Mul(a, inv)
		if check.Equal(one) != 1 {
			t.Fatal("a * Inverse(a) != 1")
		}
	}

	if new(Scalar).Inverse(new(Scalar)).IsZero() != 1 {
		t.Fatal("Inverse(0) != 0")
	}
}

func TestSetBytesReduced(t *testing.T) {
	n := orderBig(t)

	cases := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		new(big.Int).Sub(n, big.NewInt(1)),
		new(big.Int).Set(n),
		new(big.Int).Add(n, big.NewInt(977)),
		new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 521), big.NewInt(1)),
	}

	for _, v := range cases {
		var enc [Size]byte
		v.FillBytes(enc[:])
		s := new(Scalar).SetBytesReduced(enc[:])
		want := new(big.Int).Mod(v, n)
		if toBig(t, s).Cmp(want) != 0 {
			t.Fatalf("SetBytesReduced(%v) = %v, want %v", v, toBig(t, s), want)
		}
	}

	// Shorter inputs, like SHA-256 digests, are right-aligned.
	digest, _ := hex.DecodeString("a37f9c841156ebb7d22e87fe0ca1880ba2b271e9e9ee0ecb5b2bdb73dcbb5778")
	s := new(Scalar).SetBytesReduced(digest)
	if toBig(t, s).Cmp(new(big.Int).SetBytes(digest)) != 0 {
		t.Fatal("short input was not right-aligned")
	}
}

func TestIsOverHalfOrder(t *testing.T) {
	n := orderBig(t)
	half := new(big.Int).Rsh(new(big.Int).Sub(n, big.NewInt(1)), 1)

	cases := []struct {
		v    *big.Int
		want int
	}{
		{big.NewInt(1), 0},
		{new(big.Int).Set(half), 0},
		{new(big.Int).Add(half, big.NewInt(1)), 1},
		{new(big.Int).Sub(n, big.NewInt(1)), 1},
	}
	for _, tc := range cases {
		if got := fromBig(t, tc.v).IsOverHalfOrder(); got != tc.want {
			t.Fatalf("IsOverHalfOrder(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
}

func TestZeroWipes(t *testing.T) {
	n := orderBig(t)
	s := fromBig(t, new(big.Int).Sub(n, big.NewInt(99)))
	s.Zero()
	if s.IsZero() != 1 {
		t.Fatal("Zero() left a nonzero value")
	}
	for _, l := range s.m {
		if l != 0 {
			t.Fatal("Zero() left limb residue")
		}
	}
}
