package p521

import (
	"github.com/smallyu/go-p521/internal/crypto/curve"
	"github.com/smallyu/go-p521/internal/crypto/scalar"
)

// VerifyDigest checks that sig is a valid signature of digest under pub. A
// nil return means the signature verifies; every failure mode reports
// ErrSignatureInvalid. Verification handles no secrets and is therefore not
// constant time.
func (pub *PublicKey) VerifyDigest(digest []byte, sig *Signature) error {
	if sig == nil {
		return ErrSignatureInvalid
	}
	// r and s are in [1, n-1] by construction of Signature.

	// u1 = e*s⁻¹, u2 = r*s⁻¹ mod n.
	e := hashToScalar(digest)
	w := new(scalar.Scalar).Inverse(&sig.s)
	u1 := new(scalar.Scalar).Mul(e, w)
	u2 := new(scalar.Scalar).Mul(&sig.r, w)

	// R = u1*G + u2*Q must be a finite point whose x reduces to r.
	u1G, err := curve.NewPoint().ScalarBaseMult(u1.Bytes())
	if err != nil {
		panic("p521: internal error: " + err.Error())
	}
	Q := curve.NewPoint().FromAffine(&pub.point)
	u2Q, err := curve.NewPoint().ScalarMult(Q, u2.Bytes())
	if err != nil {
		panic("p521: internal error: " + err.Error())
	}
	R := curve.NewPoint().Add(u1G, u2Q)
	if R.IsIdentity() == 1 {
		return ErrSignatureInvalid
	}

	v := new(scalar.Scalar).SetBytesReduced(R.Affine().X.Bytes())
	if v.Equal(&sig.r) != 1 {
		return ErrSignatureInvalid
	}
	return nil
}
