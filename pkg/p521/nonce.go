package p521

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"

	"github.com/smallyu/go-p521/internal/crypto/scalar"
)

// truncateToOrderBits implements the bits2int transform from RFC 6979,
// section 2.3.2: keep the leftmost 521 bits of b. Digests of 65 bytes or
// less pass through unchanged; longer ones are cut to 66 bytes and shifted
// right by the 7 excess bits.
func truncateToOrderBits(b []byte) []byte {
	if len(b) < ScalarSize {
		return b
	}
	out := make([]byte, ScalarSize)
	for i := 0; i < ScalarSize; i++ {
		out[i] = b[i] >> 7
		if i > 0 {
			out[i] |= b[i-1] << 1
		}
	}
	return out
}

// hashToScalar converts a message digest to the scalar e used by signing and
// verification: the leftmost 521 bits of the digest, reduced modulo n.
func hashToScalar(digest []byte) *scalar.Scalar {
	return new(scalar.Scalar).SetBytesReduced(truncateToOrderBits(digest))
}

// bits2octets implements the transform from RFC 6979, section 2.3.4: the
// digest as an integer of at most 521 bits, reduced modulo n, re-encoded to
// the 66-byte width of the order.
func bits2octets(digest []byte) []byte {
	e := hashToScalar(digest)
	out := e.Bytes()
	e.Zero()
	return out
}

// nonceRFC6979 derives a deterministic nonce in [1, n-1] from the private
// key and digest with the HMAC-SHA-512 construction of RFC 6979. The same
// key and digest always produce the same nonce, which removes the classic
// failure mode of ECDSA under a weak randomness source.
//
// skip discards that many valid candidates from the stream before accepting
// one. Signing uses it to retry after a degenerate r or s without ever
// reusing a nonce.
func nonceRFC6979(privBytes, digest []byte, skip uint32) *scalar.Scalar {
	// int2octets(x) is the fixed 66-byte key encoding, which is the form
	// the caller already passes in.
	d := privBytes
	h1 := bits2octets(digest)

	// Step B and C: V = 0x01..01, K = 0x00..00, one HMAC output wide.
	v := bytes.Repeat([]byte{0x01}, sha512.Size)
	k := make([]byte, sha512.Size)

	// Step D: K = HMAC_K(V || 0x00 || int2octets(x) || bits2octets(h1)).
	mac := hmac.New(sha512.New, k)
	mac.Write(v)
	mac.Write([]byte{0x00})
	mac.Write(d)
	mac.Write(h1)
	k = mac.Sum(nil)

	// Step E: V = HMAC_K(V).
	mac = hmac.New(sha512.New, k)
	mac.Write(v)
	v = mac.Sum(nil)

	// Step F: K = HMAC_K(V || 0x01 || int2octets(x) || bits2octets(h1)).
	mac = hmac.New(sha512.New, k)
	mac.Write(v)
	mac.Write([]byte{0x01})
	mac.Write(d)
	mac.Write(h1)
	k = mac.Sum(nil)

	// Step G: V = HMAC_K(V).
	mac = hmac.New(sha512.New, k)
	mac.Write(v)
	v = mac.Sum(nil)

	// Step H: squeeze candidates until one lands in [1, n-1].
	for {
		t := make([]byte, 0, 2*sha512.Size)
		for len(t) < ScalarSize {
			mac = hmac.New(sha512.New, k)
			mac.Write(v)
			v = mac.Sum(nil)
			t = append(t, v...)
		}

		candidate := truncateToOrderBits(t[:ScalarSize])
		nonce, err := new(scalar.Scalar).SetCanonicalBytes(candidate)
		zeroize(candidate)
		zeroize(t)
		if err == nil && nonce.IsZero() == 0 {
			if skip == 0 {
				zeroize(k)
				zeroize(v)
				zeroize(h1)
				return nonce
			}
			skip--
			nonce.Zero()
		}

		// Step H3: K = HMAC_K(V || 0x00), V = HMAC_K(V).
		mac = hmac.New(sha512.New, k)
		mac.Write(v)
		mac.Write([]byte{0x00})
		k = mac.Sum(nil)
		mac = hmac.New(sha512.New, k)
		mac.Write(v)
		v = mac.Sum(nil)
	}
}
