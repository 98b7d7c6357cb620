// Package p521 implements the NIST P-521 elliptic curve and ECDSA over it.
//
// The package is self-contained: field and scalar arithmetic, the group law,
// and the signing operations live in internal packages and never touch
// math/big or crypto/elliptic. Everything that handles secret material runs
// in constant time.
//
// Keys and signatures move across the API as byte strings in the standard
// encodings: SEC 1 points for public keys, fixed-width big-endian integers
// for private scalars and the r || s signature form, ASN.1 DER for the
// interchange signature form. Conversions to the standard library types for
// PEM and x509 interoperability are in this package as well.
package p521

import (
	"io"
	"runtime"

	"github.com/pkg/errors"

	"github.com/smallyu/go-p521/internal/crypto/curve"
	"github.com/smallyu/go-p521/internal/crypto/scalar"
)

const (
	// ScalarSize is the byte length of a private key, nonce, or signature
	// half encoding.
	ScalarSize = scalar.Size
	// ElementSize is the byte length of one field element encoding, and of
	// the shared secret produced by ECDH.
	ElementSize = curve.FieldSize
	// PublicKeySize is the byte length of an uncompressed SEC 1 public key.
	PublicKeySize = curve.UncompressedSize
	// CompressedPublicKeySize is the byte length of a compressed SEC 1
	// public key.
	CompressedPublicKeySize = curve.CompressedSize
	// SignatureSize is the byte length of a signature in the fixed r || s
	// form.
	SignatureSize = 2 * ScalarSize
)

// maxScalarAttempts bounds rejection sampling loops. For this curve the order
// is so close to 2^521 that a single rejection is already a cosmic event, so
// hitting the bound means the randomness source is returning garbage.
const maxScalarAttempts = 100

// zeroize overwrites b with zeros. The KeepAlive stops the compiler from
// discarding the writes as dead stores.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// randomScalar draws a uniform scalar in [1, n-1] from rand by rejection
// sampling: read 521 bits, reject values that are zero or not below n. The
// raw randomness is never reduced, which would bias the low range.
func randomScalar(rand io.Reader) (*scalar.Scalar, error) {
	var buf [ScalarSize]byte
	defer zeroize(buf[:])
	for i := 0; i < maxScalarAttempts; i++ {
		if _, err := io.ReadFull(rand, buf[:]); err != nil {
			return nil, errors.Wrap(err, "reading randomness")
		}
		// Truncate to 521 bits so the candidate range is [0, 2^521).
		buf[0] &= 0x01
		s, err := new(scalar.Scalar).SetCanonicalBytes(buf[:])
		if err != nil || s.IsZero() == 1 {
			continue
		}
		return s, nil
	}
	return nil, errors.New("p521: randomness source keeps producing out-of-range scalars")
}
