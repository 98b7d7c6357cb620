package p521

import (
	"github.com/pkg/errors"

	"github.com/smallyu/go-p521/internal/crypto/curve"
)

// PublicKey is a P-521 public key, a point on the curve. Construct one with
// NewPublicKey or from a PrivateKey.
type PublicKey struct {
	point curve.AffinePoint
}

// NewPublicKey parses a SEC 1 encoded public key, accepting both the
// compressed and the uncompressed form. The point at infinity is a valid
// group element but not a valid public key, and is rejected.
func NewPublicKey(b []byte) (*PublicKey, error) {
	point, err := new(curve.AffinePoint).SetBytes(b)
	if err != nil {
		return nil, wrapCurveError(err, "public key")
	}
	if point.Infinity {
		return nil, errors.Wrap(ErrInvalidEncoding, "public key is the identity")
	}
	return &PublicKey{point: *point}, nil
}

// Bytes returns the uncompressed SEC 1 encoding of pub, 133 bytes.
func (pub *PublicKey) Bytes() []byte {
	return pub.point.Bytes()
}

// BytesCompressed returns the compressed SEC 1 encoding of pub, 67 bytes.
func (pub *PublicKey) BytesCompressed() []byte {
	return pub.point.BytesCompressed()
}

// Equal reports whether pub and x are the same point.
func (pub *PublicKey) Equal(x *PublicKey) bool {
	return pub.point.Equal(&x.point) == 1
}
