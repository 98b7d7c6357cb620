package p521

import (
	"github.com/pkg/errors"

	"github.com/smallyu/go-p521/internal/crypto/curve"
)

// ECDH computes the Diffie-Hellman shared secret between priv and pub: the
// affine x coordinate of d*Q, as 66 bytes. Both sides of an exchange arrive
// at the same value. The raw coordinate should go through a key derivation
// function before use as a symmetric key.
//
// The scalar multiplication runs in constant time. The caller owns the
// returned secret and should zeroize it once done.
func (priv *PrivateKey) ECDH(pub *PublicKey) ([]byte, error) {
	dBytes := priv.d.Bytes()
	defer zeroize(dBytes)

	q := curve.NewPoint().FromAffine(&pub.point)
	shared, err := curve.NewPoint().ScalarMult(q, dBytes)
	if err != nil {
		panic("p521: internal error: " + err.Error())
	}
	// A valid public key generates the whole prime-order group, so d*Q
	// cannot be the identity. Check anyway rather than hand out a
	// degenerate secret.
	if shared.IsIdentity() == 1 {
		return nil, errors.New("p521: ecdh produced the identity")
	}
	return shared.Affine().X.Bytes(), nil
}
