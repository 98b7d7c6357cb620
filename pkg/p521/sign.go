package p521

import (
	"io"

	"github.com/pkg/errors"

	"github.com/smallyu/go-p521/internal/crypto/curve"
	"github.com/smallyu/go-p521/internal/crypto/scalar"
)

// maxSignAttempts bounds the retry loop around degenerate candidate
// signatures. One retry already has probability around 2^-521.
const maxSignAttempts = 32

// Sign signs digest with priv and returns the signature. The digest is the
// hash of the message, computed by the caller; SHA-512 is the usual
// companion for this curve.
//
// The nonce is derived deterministically from the key and digest per
// RFC 6979, so equal inputs produce equal signatures and no randomness
// source is involved. The scalar and point operations run in constant time
// with respect to the key and nonce.
func Sign(priv *PrivateKey, digest []byte) (*Signature, error) {
	privBytes := priv.d.Bytes()
	defer zeroize(privBytes)

	for attempt := uint32(0); attempt < maxSignAttempts; attempt++ {
		k := nonceRFC6979(privBytes, digest, attempt)
		sig, ok := signWithNonce(priv, digest, k)
		k.Zero()
		if ok {
			return sig, nil
		}
	}
	return nil, ErrNonceExhausted
}

// SignRandomized signs digest with a fresh nonce drawn from rand. Prefer
// Sign unless the protocol demands distinct signatures for equal inputs.
func SignRandomized(rand io.Reader, priv *PrivateKey, digest []byte) (*Signature, error) {
	for attempt := 0; attempt < maxSignAttempts; attempt++ {
		k, err := randomScalar(rand)
		if err != nil {
			return nil, errors.WithMessage(err, "p521: signing")
		}
		sig, ok := signWithNonce(priv, digest, k)
		k.Zero()
		if ok {
			return sig, nil
		}
	}
	return nil, ErrNonceExhausted
}

// signWithNonce computes one candidate signature with the given nonce. It
// reports ok as false when r or s degenerates to zero, in which case the
// caller retries with the next nonce.
func signWithNonce(priv *PrivateKey, digest []byte, k *scalar.Scalar) (sig *Signature, ok bool) {
	// R = k*G, r = x(R) mod n. R itself is revealed by r, so converting to
	// affine leaks nothing.
	kBytes := k.Bytes()
	R, err := curve.NewPoint().ScalarBaseMult(kBytes)
	zeroize(kBytes)
	if err != nil {
		panic("p521: internal error: " + err.Error())
	}
	r := new(scalar.Scalar).SetBytesReduced(R.Affine().X.Bytes())
	if r.IsZero() == 1 {
		return nil, false
	}

	// s = k⁻¹ * (e + r*d) mod n.
	e := hashToScalar(digest)
	kInv := new(scalar.Scalar).Inverse(k)
	s := new(scalar.Scalar).Mul(r, &priv.d)
	s.Add(s, e)
	s.Mul(s, kInv)
	kInv.Zero()
	if s.IsZero() == 1 {
		return nil, false
	}

	return newSignature(r, s), true
}
