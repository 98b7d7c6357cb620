package p521

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha512"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/smallyu/go-p521/internal/crypto/scalar"
)

func testSignature(t *testing.T) *Signature {
	t.Helper()
	digest := sha512.Sum512([]byte("signature codec input"))
	sig, err := Sign(testKey(t), digest[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return sig
}

func TestSignatureFixedRoundTrip(t *testing.T) {
	sig := testSignature(t)

	b := sig.Bytes()
	if len(b) != SignatureSize {
		t.Fatalf("encoding length = %d, want %d", len(b), SignatureSize)
	}
	if !bytes.Equal(b[:ScalarSize], sig.R()) || !bytes.Equal(b[ScalarSize:], sig.S()) {
		t.Error("Bytes is not R || S")
	}

	back, err := ParseSignature(b)
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if !sig.Equal(back) {
		t.Error("fixed-width round trip changed the signature")
	}
}

func TestParseSignatureRejects(t *testing.T) {
	sig := testSignature(t)
	good := sig.Bytes()

	if _, err := ParseSignature(good[:SignatureSize-1]); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("short input: got %v, want ErrInvalidEncoding", err)
	}

	// r = 0.
	zeroR := append([]byte{}, good...)
	copy(zeroR[:ScalarSize], make([]byte, ScalarSize))
	if _, err := ParseSignature(zeroR); !errors.Is(err, ErrInvalidScalar) {
		t.Errorf("zero r: got %v, want ErrInvalidScalar", err)
	}

	// s = n.
	overS := append([]byte{}, good...)
	copy(overS[ScalarSize:], scalar.OrderBytes())
	if _, err := ParseSignature(overS); !errors.Is(err, ErrInvalidScalar) {
		t.Errorf("s = n: got %v, want ErrInvalidScalar", err)
	}
}

func TestSignatureDERRoundTrip(t *testing.T) {
	sig := testSignature(t)

	der := sig.SerializeDER()
	back, err := ParseDERSignature(der)
	if err != nil {
		t.Fatalf("ParseDERSignature: %v", err)
	}
	if !sig.Equal(back) {
		t.Error("DER round trip changed the signature")
	}
}

// TestSignatureDERAgainstStdlib checks the DER codec against crypto/ecdsa in
// both directions: their encoding parses here, and this encoding verifies
// there.
func TestSignatureDERAgainstStdlib(t *testing.T) {
	priv := testKey(t)
	std := priv.ToECDSA()
	digest := sha512.Sum512([]byte("cross codec"))

	theirDER, err := ecdsa.SignASN1(rand.Reader, std, digest[:])
	if err != nil {
		t.Fatalf("ecdsa.SignASN1: %v", err)
	}
	theirSig, err := ParseDERSignature(theirDER)
	if err != nil {
		t.Fatalf("parsing stdlib DER: %v", err)
	}
	if err := priv.PublicKey().VerifyDigest(digest[:], theirSig); err != nil {
		t.Errorf("stdlib signature rejected: %v", err)
	}
	// Both sides emit minimal DER, so re-encoding must reproduce the input.
	if !bytes.Equal(theirSig.SerializeDER(), theirDER) {
		t.Error("re-encoded DER differs from stdlib encoding")
	}

	ourSig, err := Sign(priv, digest[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !ecdsa.VerifyASN1(&std.PublicKey, digest[:], ourSig.SerializeDER()) {
		t.Error("crypto/ecdsa rejected locally produced DER")
	}
}

func TestParseDERSignatureRejects(t *testing.T) {
	sig := testSignature(t)
	good := sig.SerializeDER()

	cases := map[string][]byte{
		"empty":         {},
		"truncated":     good[:len(good)-2],
		"trailing data": append(append([]byte{}, good...), 0x00),
		// SEQUENCE { INTEGER -1, INTEGER 1 }
		"negative r": {0x30, 0x06, 0x02, 0x01, 0xff, 0x02, 0x01, 0x01},
		// SEQUENCE { INTEGER 0, INTEGER 1 }
		"zero r": {0x30, 0x06, 0x02, 0x01, 0x00, 0x02, 0x01, 0x01},
		// SEQUENCE { INTEGER 1 }
		"missing s": {0x30, 0x03, 0x02, 0x01, 0x01},
		// Non-minimal integer: leading zero before 0x01.
		"padded integer": {0x30, 0x07, 0x02, 0x02, 0x00, 0x01, 0x02, 0x01, 0x01},
	}
	for name, der := range cases {
		if _, err := ParseDERSignature(der); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}

	// r = n, structurally valid DER but out of range.
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addASN1IntBytes(b, scalar.OrderBytes())
		addASN1IntBytes(b, []byte{0x01})
	})
	der, err := b.Bytes()
	if err != nil {
		t.Fatalf("building DER: %v", err)
	}
	if _, err := ParseDERSignature(der); !errors.Is(err, ErrInvalidScalar) {
		t.Errorf("r = n: got %v, want ErrInvalidScalar", err)
	}
}

func TestSignatureNormalized(t *testing.T) {
	priv := testKey(t)
	params := priv.ToECDSA().Params()
	halfOrder := new(big.Int).Rsh(params.N, 1)

	// Walk messages until signing produces a high s, so both branches get
	// exercised.
	var low, high *Signature
	for i := 0; low == nil || high == nil; i++ {
		digest := sha512.Sum512([]byte{byte(i), byte(i >> 8)})
		sig, err := Sign(priv, digest[:])
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		s := new(big.Int).SetBytes(sig.S())
		if s.Cmp(halfOrder) > 0 {
			if sig.IsLowS() {
				t.Fatal("IsLowS true for s above half order")
			}
			high = sig
		} else {
			if !sig.IsLowS() {
				t.Fatal("IsLowS false for s below half order")
			}
			low = sig
		}
		if i > 100 {
			t.Fatal("no high/low s pair in 100 signatures")
		}
	}

	if !low.Normalized().Equal(low) {
		t.Error("Normalized changed an already low signature")
	}

	norm := high.Normalized()
	if !norm.IsLowS() {
		t.Error("Normalized signature still high")
	}
	if !bytes.Equal(norm.R(), high.R()) {
		t.Error("Normalized changed r")
	}
	// s' = n - s.
	wantS := new(big.Int).Sub(params.N, new(big.Int).SetBytes(high.S()))
	if new(big.Int).SetBytes(norm.S()).Cmp(wantS) != 0 {
		t.Error("Normalized s is not n - s")
	}
	// The original stays untouched.
	if high.IsLowS() {
		t.Error("Normalized mutated its receiver")
	}
}
