// Package curve implements the NIST P-521 group: point arithmetic in
// homogeneous projective coordinates with complete formulas, constant-time
// scalar multiplication, and the SEC 1 affine encodings.
package curve

import (
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/smallyu/go-p521/internal/crypto/field"
)

const (
	// FieldSize is the byte length of one coordinate encoding.
	FieldSize = field.Size
	// UncompressedSize is the byte length of an uncompressed SEC 1 point
	// encoding, 0x04 followed by both coordinates.
	UncompressedSize = 1 + 2*FieldSize
	// CompressedSize is the byte length of a compressed SEC 1 point
	// encoding, 0x02 or 0x03 followed by the x coordinate.
	CompressedSize = 1 + FieldSize
)

// Decoding failures, matched by callers with errors.Is.
var (
	ErrInvalidEncoding = errors.New("curve: invalid point encoding")
	ErrPointNotOnCurve = errors.New("curve: point not on curve")
	ErrNoSquareRoot    = errors.New("curve: no square root for compressed x coordinate")
)

// Curve parameters from SEC 2, Version 2.0, section 2.6.1. The curve is
// y² = x³ - 3x + b over GF(2^521 - 1), with a group of prime order.
const (
	bHex  = "0051953eb9618e1c9a1f929a21a0b68540eea2da725b99b315f3b8b489918ef109e156193951ec7e937b1652c0bd3bb1bf073573df883d2c34f1ef451fd46b503f00"
	gxHex = "00c6858e06b70404e9cd9e3ecb662395b4429c648139053fb521f828af606b4d3dbaa14b5e77efe75928fe1dc127a2ffa8de3348b3c1856a429bf97e7e31c2e5bd66"
	gyHex = "011839296a789a3bc0045c8a5fb42c7d1bd998f54449579b446817afbd17273e662c97ee72995ef42640c550b9013fad0761353c7086a272c24088be94769fd16650"
)

var (
	curveB  = mustFieldElement(bHex)
	curveGx = mustFieldElement(gxHex)
	curveGy = mustFieldElement(gyHex)
)

func mustFieldElement(s string) *field.Element {
	raw, err := hex.DecodeString(s)
	if err != nil {
		panic("curve: invalid parameter constant: " + err.Error())
	}
	e, err := new(field.Element).SetBytes(raw)
	if err != nil {
		panic("curve: invalid parameter constant: " + err.Error())
	}
	return e
}

// AffinePoint is a point on the curve in affine coordinates, or the point at
// infinity. The zero value is not a valid point; decode one with SetBytes or
// start from Generator or NewAffineInfinity.
type AffinePoint struct {
	X, Y field.Element
	// Infinity marks the point at infinity, in which case X and Y are
	// zero and carry no meaning.
	Infinity bool
}

// Generator returns the affine base point G.
func Generator() *AffinePoint {
	var p AffinePoint
	p.X.Set(curveGx)
	p.Y.Set(curveGy)
	return &p
}

// NewAffineInfinity returns the affine point at infinity.
func NewAffineInfinity() *AffinePoint {
	return &AffinePoint{Infinity: true}
}

// polynomial sets v = x³ - 3x + b, the right-hand side of the curve
// equation, and returns v.
func polynomial(v, x *field.Element) *field.Element {
	v.Square(x)
	v.Multiply(v, x)

	threeX := new(field.Element).Add(x, x)
	threeX.Add(threeX, x)
	v.Subtract(v, threeX)

	return v.Add(v, curveB)
}

// isOnCurve returns 1 if (x, y) satisfies the curve equation, and 0
// otherwise.
func isOnCurve(x, y *field.Element) int {
	lhs := new(field.Element).Square(y)
	rhs := polynomial(new(field.Element), x)
	return lhs.Equal(rhs)
}

// OnCurve reports whether p satisfies the curve equation. The point at
// infinity is on the curve.
func (p *AffinePoint) OnCurve() bool {
	if p.Infinity {
		return true
	}
	return isOnCurve(&p.X, &p.Y) == 1
}

// Equal returns 1 if p and q are the same point, and 0 otherwise.
func (p *AffinePoint) Equal(q *AffinePoint) int {
	if p.Infinity || q.Infinity {
		if p.Infinity && q.Infinity {
			return 1
		}
		return 0
	}
	return p.X.Equal(&q.X) & p.Y.Equal(&q.Y)
}

// Bytes returns the SEC 1 uncompressed encoding of p, 0x04 followed by both
// coordinates, or the single byte 0x00 for the point at infinity.
func (p *AffinePoint) Bytes() []byte {
	if p.Infinity {
		return []byte{0x00}
	}
	out := make([]byte, 0, UncompressedSize)
	out = append(out, 0x04)
	out = append(out, p.X.Bytes()...)
	out = append(out, p.Y.Bytes()...)
	return out
}

// BytesCompressed returns the SEC 1 compressed encoding of p, 0x02 or 0x03
// depending on the parity of y, followed by the x coordinate, or the single
// byte 0x00 for the point at infinity.
func (p *AffinePoint) BytesCompressed() []byte {
	if p.Infinity {
		return []byte{0x00}
	}
	out := make([]byte, 0, CompressedSize)
	out = append(out, byte(0x02|p.Y.IsOdd()))
	out = append(out, p.X.Bytes()...)
	return out
}

// SetBytes decodes p from a SEC 1 encoding: the identity byte 0x00, a
// compressed point, or an uncompressed point. It returns p, or an error if
// the encoding is malformed, a coordinate is out of range, the point is not
// on the curve, or a compressed x coordinate has no square root.
func (p *AffinePoint) SetBytes(b []byte) (*AffinePoint, error) {
	switch {
	case len(b) == 1 && b[0] == 0x00:
		p.X.Zero()
		p.Y.Zero()
		p.Infinity = true
		return p, nil

	case len(b) == UncompressedSize && b[0] == 0x04:
		x, err := new(field.Element).SetBytes(b[1 : 1+FieldSize])
		if err != nil {
			return nil, errors.Wrap(ErrInvalidEncoding, "x coordinate")
		}
		y, err := new(field.Element).SetBytes(b[1+FieldSize:])
		if err != nil {
			return nil, errors.Wrap(ErrInvalidEncoding, "y coordinate")
		}
		if isOnCurve(x, y) != 1 {
			return nil, ErrPointNotOnCurve
		}
		p.X.Set(x)
		p.Y.Set(y)
		p.Infinity = false
		return p, nil

	case len(b) == CompressedSize && (b[0] == 0x02 || b[0] == 0x03):
		x, err := new(field.Element).SetBytes(b[1:])
		if err != nil {
			return nil, errors.Wrap(ErrInvalidEncoding, "x coordinate")
		}

		y, ok := new(field.Element).Sqrt(polynomial(new(field.Element), x))
		if ok != 1 {
			return nil, ErrNoSquareRoot
		}

		// Pick the root whose parity matches the tag, with a
		// constant-time conditional negation.
		otherY := new(field.Element).Negate(y)
		wantOdd := int(b[0] & 1)
		y.Select(otherY, y, y.IsOdd()^wantOdd)

		p.X.Set(x)
		p.Y.Set(y)
		p.Infinity = false
		return p, nil

	default:
		return nil, ErrInvalidEncoding
	}
}
