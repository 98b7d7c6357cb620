package p521

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/pem"
	"math/big"

	"github.com/pkg/errors"
)

// ToECDSA returns the standard library form of pub over elliptic.P521, for
// use with x509 certificates and other stdlib consumers.
func (pub *PublicKey) ToECDSA() *ecdsa.PublicKey {
	return &ecdsa.PublicKey{
		Curve: elliptic.P521(),
		X:     new(big.Int).SetBytes(pub.point.X.Bytes()),
		Y:     new(big.Int).SetBytes(pub.point.Y.Bytes()),
	}
}

// ToECDSA returns the standard library form of priv. big.Int values cannot
// be wiped reliably, so the lifetime of the copy is the caller's problem.
func (priv *PrivateKey) ToECDSA() *ecdsa.PrivateKey {
	b := priv.Bytes()
	d := new(big.Int).SetBytes(b)
	zeroize(b)
	return &ecdsa.PrivateKey{
		PublicKey: *priv.pub.ToECDSA(),
		D:         d,
	}
}

// PublicKeyFromECDSA converts a standard library key on elliptic.P521. Keys
// on other curves and off-curve points are rejected.
func PublicKeyFromECDSA(key *ecdsa.PublicKey) (*PublicKey, error) {
	if key == nil || key.Curve != elliptic.P521() {
		return nil, errors.Wrap(ErrInvalidEncoding, "not a P-521 public key")
	}
	if key.X == nil || key.Y == nil ||
		key.X.Sign() < 0 || key.X.BitLen() > 521 ||
		key.Y.Sign() < 0 || key.Y.BitLen() > 521 {
		return nil, errors.Wrap(ErrInvalidEncoding, "coordinate out of range")
	}
	enc := make([]byte, PublicKeySize)
	enc[0] = 0x04
	key.X.FillBytes(enc[1 : 1+ElementSize])
	key.Y.FillBytes(enc[1+ElementSize:])
	return NewPublicKey(enc)
}

// PrivateKeyFromECDSA converts a standard library key on elliptic.P521. The
// public key is rederived from the scalar rather than trusted.
func PrivateKeyFromECDSA(key *ecdsa.PrivateKey) (*PrivateKey, error) {
	if key == nil || key.Curve != elliptic.P521() {
		return nil, errors.Wrap(ErrInvalidEncoding, "not a P-521 private key")
	}
	if key.D == nil || key.D.Sign() <= 0 || key.D.BitLen() > 521 {
		return nil, errors.Wrap(ErrInvalidScalar, "private key")
	}
	buf := make([]byte, ScalarSize)
	key.D.FillBytes(buf)
	defer zeroize(buf)
	return NewPrivateKey(buf)
}

// MarshalPrivateKeyPEM returns priv as a PEM encoded PKCS #8 block, the
// form openssl pkey and most key stores expect.
func MarshalPrivateKeyPEM(priv *PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv.ToECDSA())
	if err != nil {
		return nil, errors.Wrap(err, "p521: marshaling private key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// ParsePrivateKeyPEM parses a PEM encoded private key, accepting both the
// PKCS #8 container and the older SEC 1 one that openssl ecparam emits.
func ParsePrivateKeyPEM(raw []byte) (*PrivateKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.Wrap(ErrInvalidEncoding, "no PEM block")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.Wrap(ErrInvalidEncoding, "not an EC private key")
		}
		return PrivateKeyFromECDSA(ecKey)
	}
	ecKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidEncoding, "parsing private key")
	}
	return PrivateKeyFromECDSA(ecKey)
}

// MarshalPublicKeyPEM returns pub as a PEM encoded PKIX (SubjectPublicKeyInfo)
// block.
func MarshalPublicKeyPEM(pub *PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub.ToECDSA())
	if err != nil {
		return nil, errors.Wrap(err, "p521: marshaling public key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ParsePublicKeyPEM parses a PEM encoded PKIX public key.
func ParsePublicKeyPEM(raw []byte) (*PublicKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.Wrap(ErrInvalidEncoding, "no PEM block")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidEncoding, "parsing public key")
	}
	ecKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.Wrap(ErrInvalidEncoding, "not an EC public key")
	}
	return PublicKeyFromECDSA(ecKey)
}
