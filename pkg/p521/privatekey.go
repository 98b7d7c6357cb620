package p521

import (
	"io"

	"github.com/pkg/errors"

	"github.com/smallyu/go-p521/internal/crypto/curve"
	"github.com/smallyu/go-p521/internal/crypto/scalar"
)

// PrivateKey is a P-521 private key: a secret scalar d in [1, n-1] together
// with the public point d*G. Construct one with GenerateKey or NewPrivateKey.
type PrivateKey struct {
	d   scalar.Scalar
	pub PublicKey
}

// GenerateKey returns a new private key drawn from rand, which must be a
// cryptographically secure source such as crypto/rand.Reader.
func GenerateKey(rand io.Reader) (*PrivateKey, error) {
	d, err := randomScalar(rand)
	if err != nil {
		return nil, errors.WithMessage(err, "p521: generating key")
	}
	defer d.Zero()
	return newPrivateKey(d)
}

// NewPrivateKey parses the 66-byte big-endian encoding of a private scalar
// and derives the matching public key. The value must be in [1, n-1].
func NewPrivateKey(b []byte) (*PrivateKey, error) {
	d, err := new(scalar.Scalar).SetCanonicalBytes(b)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidScalar, "private key")
	}
	if d.IsZero() == 1 {
		return nil, errors.Wrap(ErrInvalidScalar, "private key is zero")
	}
	defer d.Zero()
	return newPrivateKey(d)
}

func newPrivateKey(d *scalar.Scalar) (*PrivateKey, error) {
	dBytes := d.Bytes()
	defer zeroize(dBytes)
	q, err := curve.NewPoint().ScalarBaseMult(dBytes)
	if err != nil {
		// Scalar encodings always have the length ScalarBaseMult checks
		// for.
		panic("p521: internal error: " + err.Error())
	}
	priv := &PrivateKey{}
	priv.d.Set(d)
	priv.pub.point = *q.Affine()
	return priv, nil
}

// Bytes returns the 66-byte big-endian encoding of the private scalar. The
// caller owns the copy and should zeroize it once done.
func (priv *PrivateKey) Bytes() []byte {
	return priv.d.Bytes()
}

// PublicKey returns the public key matching priv.
func (priv *PrivateKey) PublicKey() *PublicKey {
	return &priv.pub
}

// Equal reports whether priv and x hold the same scalar. It runs in constant
// time.
func (priv *PrivateKey) Equal(x *PrivateKey) bool {
	return priv.d.Equal(&x.d) == 1
}

// Zeroize wipes the private scalar from memory. The key must not be used
// afterwards; the public half stays intact.
func (priv *PrivateKey) Zeroize() {
	priv.d.Zero()
}
