package field

import (
	"bytes"
	"math/big"
	mathrand "math/rand"
	"testing"
)

// fieldPrime returns p = 2^521 - 1.
func fieldPrime() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 521)
	return p.Sub(p, big.NewInt(1))
}

func toBig(t *testing.T, v *Element) *big.Int {
	t.Helper()
	return new(big.Int).SetBytes(v.Bytes())
}

func fromBig(t *testing.T, n *big.Int) *Element {
	t.Helper()
	var buf [Size]byte
	n.FillBytes(buf[:])
	v, err := new(Element).SetBytes(buf[:])
	if err != nil {
		t.Fatalf("SetBytes(%v): %v", n, err)
	}
	return v
}

func TestBytesFixedValues(t *testing.T) {
	p := fieldPrime()

	zero := new(Element).Zero().Bytes()
	if !bytes.Equal(zero, make([]byte, Size)) {
		t.Fatalf("Zero().Bytes() = %x", zero)
	}

	one := new(Element).One().Bytes()
	wantOne := make([]byte, Size)
	wantOne[Size-1] = 1
	if !bytes.Equal(one, wantOne) {
		t.Fatalf("One().Bytes() = %x", one)
	}

	pMinusOne := new(big.Int).Sub(p, big.NewInt(1))
	got := fromBig(t, pMinusOne).Bytes()
	var want [Size]byte
	pMinusOne.FillBytes(want[:])
	if !bytes.Equal(got, want[:]) {
		t.Fatalf("(p-1).Bytes() = %x, want %x", got, want)
	}
}

func TestSetBytesRejectsNonCanonical(t *testing.T) {
	p := fieldPrime()

	var pEnc [Size]byte
	p.FillBytes(pEnc[:])
	if _, err := new(Element).SetBytes(pEnc[:]); err == nil {
		t.Fatal("SetBytes accepted the encoding of p")
	}

	allFF := bytes.Repeat([]byte{0xff}, Size)
	if _, err := new(Element).SetBytes(allFF); err == nil {
		t.Fatal("SetBytes accepted an out-of-range encoding")
	}

	if _, err := new(Element).SetBytes(make([]byte, Size-1)); err == nil {
		t.Fatal("SetBytes accepted a short encoding")
	}
	if _, err := new(Element).SetBytes(make([]byte, Size+1)); err == nil {
		t.Fatal("SetBytes accepted a long encoding")
	}

	// p - 1 is the largest canonical value.
	var maxEnc [Size]byte
	new(big.Int).Sub(p, big.NewInt(1)).FillBytes(maxEnc[:])
	if _, err := new(Element).SetBytes(maxEnc[:]); err != nil {
		t.Fatalf("SetBytes rejected p-1: %v", err)
	}
}

func TestArithmeticAgainstBig(t *testing.T) {
	p := fieldPrime()
	rng := mathrand.New(mathrand.NewSource(521))

	for i := 0; i < 512; i++ {
		abig := new(big.Int).Rand(rng, p)
		bbig := new(big.Int).Rand(rng, p)
		a := fromBig(t, abig)
		b := fromBig(t, bbig)

		sum := new(Element).Add(a, b)
		wantSum := new(big.Int).Add(abig, bbig)
		wantSum.Mod(wantSum, p)
		if toBig(t, sum).Cmp(wantSum) != 0 {
			t.Fatalf("Add(%v, %v) = %v, want %v", abig, bbig, toBig(t, sum), wantSum)
		}

		diff := new(Element).Subtract(a, b)
		wantDiff := new(big.Int).Sub(abig, bbig)
		wantDiff.Mod(wantDiff, p)
		if toBig(t, diff).Cmp(wantDiff) != 0 {
			t.Fatalf("Subtract(%v, %v) = %v, want %v", abig, bbig, toBig(t, diff), wantDiff)
		}

		prod := new(Element).Multiply(a, b)
		wantProd := new(big.Int).Mul(abig, bbig)
		wantProd.Mod(wantProd, p)
		if toBig(t, prod).Cmp(wantProd) != 0 {
			t.Fatalf("Multiply(%v, %v) = %v, want %v", abig, bbig, toBig(t, prod), wantProd)
		}

		sq := new(Element).Square(a)
		wantSq := new(big.Int).Mul(abig, abig)
		wantSq.Mod(wantSq, p)
		if toBig(t, sq).Cmp(wantSq) != 0 {
			t.Fatalf("Square(%v) = %v, want %v", abig, toBig(t, sq), wantSq)
		}

		neg := new(Element).Negate(a)
		wantNeg := new(big.Int).Neg(abig)
		wantNeg.Mod(wantNeg, p)
		if toBig(t, neg).Cmp(wantNeg) != 0 {
			t.Fatalf("Negate(%v) = %v, want %v", abig, toBig(t, neg), wantNeg)
		}
	}
}

func TestArithmeticEdgeValues(t *testing.T) {
	p := fieldPrime()
	pMinusOne := new(big.Int).Sub(p, big.NewInt(1))

	edges := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(2),
		pMinusOne,
		new(big.Int).Sub(p, big.NewInt(2)),
		new(big.Int).Lsh(big.NewInt(1), 520),
		new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 464), big.NewInt(1)),
	}

	for _, abig := range edges {
		for _, bbig := range edges {
			a, b := fromBig(t, abig), fromBig(t, bbig)

			prod := new(Element).Multiply(a, b)
			want := new(big.Int).Mul(abig, bbig)
			want.Mod(want, p)
			if toBig(t, prod).Cmp(want) != 0 {
				t.Fatalf("Multiply(%v, %v) = %v, want %v", abig, bbig, toBig(t, prod), want)
			}

			diff := new(Element).Subtract(a, b)
			want = new(big.Int).Sub(abig, bbig)
			want.Mod(want, p)
			if toBig(t, diff).Cmp(want) != 0 {
				t.Fatalf("Subtract(%v, %v) = %v, want %v", abig, bbig, toBig(t, diff), want)
			}
		}
	}
}

func TestAliasing(t *testing.T) {
	p := fieldPrime()
	rng := mathrand.New(mathrand.NewSource(2))

	abig := new(big.Int).Rand(rng, p)
	bbig := new(big.Int).Rand(rng, p)

	// v.Multiply(v, v) must behave like a fresh receiver.
	v := fromBig(t, abig)
	v.Multiply(v, v)
	want := new(big.Int).Mul(abig, abig)
	want.Mod(want, p)
	if toBig(t, v).Cmp(want) != 0 {
		t.Fatalf("aliased Square = %v, want %v", toBig(t, v), want)
	}

	v = fromBig(t, abig)
	b := fromBig(t, bbig)
	v.Add(v, b)
	want = new(big.Int).Add(abig, bbig)
	want.Mod(want, p)
	if toBig(t, v).Cmp(want) != 0 {
		t.Fatalf("aliased Add = %v, want %v", toBig(t, v), want)
	}

	v = fromBig(t, abig)
	v.Subtract(b, v)
	want = new(big.Int).Sub(bbig, abig)
	want.Mod(want, p)
	if toBig(t, v).Cmp(want) != 0 {
		t.Fatalf("aliased Subtract = %v, want %v", toBig(t, v), want)
	}
}

func TestInvert(t *testing.T) {
	p := fieldPrime()
	rng := mathrand.New(mathrand.NewSource(3))
	one := new(Element).One()

	for i := 0; i < 64; i++ {
		abig := new(big.Int).Rand(rng, p)
		if abig.Sign() == 0 {
			continue
		}
		a := fromBig(t, abig)

		inv := new(Element).Invert(a)
		wantInv := new(big.Int).ModInverse(abig, p)
		if toBig(t, inv).Cmp(wantInv) != 0 {
			t.Fatalf("Invert(%v) = %v, want %v", abig, toBig(t, inv), wantInv)
		}

		check := new(Element).Multiply(a, inv)
		if check.Equal(one) != 1 {
			t.Fatalf("a * Invert(a) != 1 for a = %v", abig)
		}
	}

	zeroInv := new(Element).Invert(new(Element).Zero())
	if zeroInv.IsZero() != 1 {
		t.Fatalf("Invert(0) = %v, want 0", toBig(t, zeroInv))
	}
}

func TestSqrt(t *testing.T) {
	p := fieldPrime()
	rng := mathrand.New(mathrand.NewSource(4))

	for i := 0; i < 64; i++ {
		abig := new(big.Int).Rand(rng, p)
		a := fromBig(t, abig)

		// a^2 is always a square, and its roots are a and -a.
		sq := new(Element).Square(a)
		root, ok := new(Element).Sqrt(sq)
		if ok != 1 {
			t.Fatalf("Sqrt(a^2) failed for a = %v", abig)
		}
		negA := new(Element).Negate(a)
		if root.Equal(a) != 1 && root.Equal(negA) != 1 {
			t.Fatalf("Sqrt(a^2) = %v, want ±%v", toBig(t, root), abig)
		}
	}

	for i := 0; i < 64; i++ {
		abig := new(big.Int).Rand(rng, p)
		a := fromBig(t, abig)

		root, ok := new(Element).Sqrt(a)
		if ok == 1 {
			check := new(Element).Square(root)
			if check.Equal(a) != 1 {
				t.Fatalf("Sqrt(%v)^2 != input", abig)
			}
		} else {
			if big.Jacobi(abig, p) != -1 {
				t.Fatalf("Sqrt failed for quadratic residue %v", abig)
			}
			if root.IsZero() != 1 {
				t.Fatal("failed Sqrt did not set the receiver to zero")
			}
		}
	}

	root, ok := new(Element).Sqrt(new(Element).Zero())
	if ok != 1 || root.IsZero() != 1 {
		t.Fatal("Sqrt(0) should return 0, 1")
	}
}

func TestEqualSelectParity(t *testing.T) {
	p := fieldPrime()
	rng := mathrand.New(mathrand.NewSource(5))

	abig := new(big.Int).Rand(rng, p)
	a := fromBig(t, abig)
	b := new(Element).Add(a, new(Element).One())

	if a.Equal(a) != 1 {
		t.Fatal("a != a")
	}
	if a.Equal(b) != 0 {
		t.Fatal("a == a+1")
	}

	sel := new(Element).Select(a, b, 1)
	if sel.Equal(a) != 1 {
		t.Fatal("Select(a, b, 1) != a")
	}
	sel.Select(a, b, 0)
	if sel.Equal(b) != 1 {
		t.Fatal("Select(a, b, 0) != b")
	}

	for i := 0; i < 32; i++ {
		nbig := new(big.Int).Rand(rng, p)
		n := fromBig(t, nbig)
		if got, want := n.IsOdd(), int(nbig.Bit(0)); got != want {
			t.Fatalf("IsOdd(%v) = %d, want %d", nbig, got, want)
		}
	}
}

func TestOperationChainAgainstBig(t *testing.T) {
	// Run long random op sequences in lockstep with math/big to shake out
	// carry bugs that single-operation tests would miss.
	p := fieldPrime()
	rng := mathrand.New(mathrand.NewSource(6))

	acc := new(Element).One()
	accBig := big.NewInt(1)

	for i := 0; i < 2048; i++ {
		operand := new(big.Int).Rand(rng, p)
		x := fromBig(t, operand)

		switch rng.Intn(4) {
		case 0:
			acc.Add(acc, x)
			accBig.Add(accBig, operand)
		case 1:
			acc.Subtract(acc, x)
			accBig.Sub(accBig, operand)
		case 2:
			acc.Multiply(acc, x)
			accBig.Mul(accBig, operand)
		case 3:
			acc.Square(acc)
			accBig.Mul(accBig, accBig)
		}
		accBig.Mod(accBig, p)
	}

	if toBig(t, acc).Cmp(accBig) != 0 {
		t.Fatalf("chain diverged: %v != %v", toBig(t, acc), accBig)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	p := fieldPrime()
	rng := mathrand.New(mathrand.NewSource(7))

	for i := 0; i < 128; i++ {
		nbig := new(big.Int).Rand(rng, p)
		var enc [Size]byte
		nbig.FillBytes(enc[:])

		v, err := new(Element).SetBytes(enc[:])
		if err != nil {
			t.Fatalf("SetBytes(%x): %v", enc, err)
		}
		if !bytes.Equal(v.Bytes(), enc[:]) {
			t.Fatalf("round trip failed: %x != %x", v.Bytes(), enc)
		}
	}
}
