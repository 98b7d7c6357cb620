package p521

import (
	"math/big"

	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/smallyu/go-p521/internal/crypto/scalar"
)

// Signature is an ECDSA signature. Both halves are guaranteed to be in
// [1, n-1]; a Signature can therefore only be obtained from signing or from
// one of the parse functions.
type Signature struct {
	r, s scalar.Scalar
}

func newSignature(r, s *scalar.Scalar) *Signature {
	sig := &Signature{}
	sig.r.Set(r)
	sig.s.Set(s)
	return sig
}

// ParseSignature parses a signature in the fixed-width form, the big-endian
// encodings of r and s concatenated into 132 bytes.
func ParseSignature(b []byte) (*Signature, error) {
	if len(b) != SignatureSize {
		return nil, errors.Wrap(ErrInvalidEncoding, "signature length")
	}
	r, err := new(scalar.Scalar).SetCanonicalBytes(b[:ScalarSize])
	if err != nil {
		return nil, errors.Wrap(ErrInvalidScalar, "signature r")
	}
	s, err := new(scalar.Scalar).SetCanonicalBytes(b[ScalarSize:])
	if err != nil {
		return nil, errors.Wrap(ErrInvalidScalar, "signature s")
	}
	if r.IsZero() == 1 || s.IsZero() == 1 {
		return nil, errors.Wrap(ErrInvalidScalar, "signature half is zero")
	}
	return newSignature(r, s), nil
}

// ParseDERSignature parses an ASN.1 DER encoded signature, the
// SEQUENCE { r INTEGER, s INTEGER } form used by X.509 and most protocols.
// Trailing data, non-minimal integers, and out-of-range values are all
// rejected.
func ParseDERSignature(der []byte) (*Signature, error) {
	var (
		inner cryptobyte.String
		rInt  = new(big.Int)
		sInt  = new(big.Int)
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(rInt) ||
		!inner.ReadASN1Integer(sInt) ||
		!inner.Empty() {
		return nil, errors.Wrap(ErrInvalidEncoding, "signature DER")
	}
	r, err := scalarFromInt(rInt)
	if err != nil {
		return nil, errors.Wrap(err, "signature r")
	}
	s, err := scalarFromInt(sInt)
	if err != nil {
		return nil, errors.Wrap(err, "signature s")
	}
	return newSignature(r, s), nil
}

// scalarFromInt converts a parsed ASN.1 integer to a scalar in [1, n-1].
func scalarFromInt(v *big.Int) (*scalar.Scalar, error) {
	if v.Sign() <= 0 || v.BitLen() > 8*ScalarSize {
		return nil, ErrInvalidScalar
	}
	var buf [ScalarSize]byte
	v.FillBytes(buf[:])
	s, err := new(scalar.Scalar).SetCanonicalBytes(buf[:])
	if err != nil {
		return nil, ErrInvalidScalar
	}
	return s, nil
}

// R returns the 66-byte big-endian encoding of r.
func (sig *Signature) R() []byte {
	return sig.r.Bytes()
}

// S returns the 66-byte big-endian encoding of s.
func (sig *Signature) S() []byte {
	return sig.s.Bytes()
}

// Bytes returns the fixed-width encoding of sig, r || s in 132 bytes.
func (sig *Signature) Bytes() []byte {
	out := make([]byte, 0, SignatureSize)
	out = append(out, sig.r.Bytes()...)
	out = append(out, sig.s.Bytes()...)
	return out
}

// SerializeDER returns the ASN.1 DER encoding of sig.
func (sig *Signature) SerializeDER() []byte {
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addASN1IntBytes(b, sig.r.Bytes())
		addASN1IntBytes(b, sig.s.Bytes())
	})
	der, err := b.Bytes()
	if err != nil {
		// The builder only fails on malformed input, and signature
		// halves are never zero.
		panic("p521: internal error: DER encoding failed: " + err.Error())
	}
	return der
}

// addASN1IntBytes encodes b as a positive minimal ASN.1 INTEGER.
func addASN1IntBytes(b *cryptobyte.Builder, bytes []byte) {
	for len(bytes) > 0 && bytes[0] == 0 {
		bytes = bytes[1:]
	}
	if len(bytes) == 0 {
		b.SetError(errors.New("invalid integer"))
		return
	}
	b.AddASN1(asn1.INTEGER, func(c *cryptobyte.Builder) {
		if bytes[0]&0x80 != 0 {
			c.AddUint8(0)
		}
		c.AddBytes(bytes)
	})
}

// Equal reports whether sig and x are the same signature.
func (sig *Signature) Equal(x *Signature) bool {
	return sig.r.Equal(&x.r)&sig.s.Equal(&x.s) == 1
}

// IsLowS reports whether s is in the lower half of the scalar range. Both s
// and n-s verify against the same message, so consensus protocols that need
// one canonical signature per message only accept the low form.
func (sig *Signature) IsLowS() bool {
	return sig.s.IsOverHalfOrder() == 0
}

// Normalized returns a signature equivalent to sig whose s is in the lower
// half of the scalar range. Signing itself never normalizes, so that
// deterministic signatures match the published RFC 6979 vectors; callers
// that need low-s signatures apply this explicitly.
func (sig *Signature) Normalized() *Signature {
	out := newSignature(&sig.r, &sig.s)
	if sig.s.IsOverHalfOrder() == 1 {
		out.s.Negate(&sig.s)
	}
	return out
}
