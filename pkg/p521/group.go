package p521

import (
	"io"

	"github.com/pkg/errors"

	"github.com/smallyu/go-p521/internal/crypto/curve"
	"github.com/smallyu/go-p521/internal/crypto/scalar"
)

// GroupScalar is an element of the prime-order scalar field. Operations
// return new values and never mutate the receiver.
type GroupScalar interface {
	// Bytes returns the canonical 66-byte big-endian encoding.
	Bytes() []byte

	// Add returns this scalar plus x.
	Add(x GroupScalar) GroupScalar

	// Mul returns this scalar times x.
	Mul(x GroupScalar) GroupScalar

	// Invert returns the multiplicative inverse, or zero for zero.
	Invert() GroupScalar

	// Equal reports whether both scalars hold the same value.
	Equal(x GroupScalar) bool
}

// GroupPoint is a point on the curve, including the identity.
type GroupPoint interface {
	// Bytes returns the compressed SEC 1 encoding.
	Bytes() []byte

	// Add returns this point plus p.
	Add(p GroupPoint) GroupPoint

	// ScalarMult returns s times this point.
	ScalarMult(s GroupScalar) GroupPoint

	// Equal reports whether both points are the same group element.
	Equal(p GroupPoint) bool
}

// Group exposes the curve behind interfaces, for protocol code that is
// generic over the group it runs on. Code that only needs P-521 should use
// the concrete key and signature types instead.
//
// Scalars and points from one Group implementation cannot be mixed with
// another; operations panic when handed a value this package did not create.
type Group interface {
	// Name returns the curve name.
	Name() string

	// RandomScalar draws a uniform scalar in [1, n-1] from rand.
	RandomScalar(rand io.Reader) (GroupScalar, error)

	// ScalarFromBytes parses a canonical 66-byte scalar encoding.
	ScalarFromBytes(b []byte) (GroupScalar, error)

	// PointFromBytes parses a SEC 1 point encoding.
	PointFromBytes(b []byte) (GroupPoint, error)

	// Generator returns the base point G.
	Generator() GroupPoint

	// Order returns the 66-byte big-endian encoding of the group order n.
	Order() []byte
}

// NewGroup returns the P-521 group.
func NewGroup() Group {
	return group{}
}

type group struct{}

func (group) Name() string {
	return "P-521"
}

func (group) RandomScalar(rand io.Reader) (GroupScalar, error) {
	s, err := randomScalar(rand)
	if err != nil {
		return nil, err
	}
	return groupScalar{v: *s}, nil
}

func (group) ScalarFromBytes(b []byte) (GroupScalar, error) {
	s, err := new(scalar.Scalar).SetCanonicalBytes(b)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidScalar, "group scalar")
	}
	return groupScalar{v: *s}, nil
}

func (group) PointFromBytes(b []byte) (GroupPoint, error) {
	a, err := new(curve.AffinePoint).SetBytes(b)
	if err != nil {
		return nil, wrapCurveError(err, "group point")
	}
	return groupPoint{v: *curve.NewPoint().FromAffine(a)}, nil
}

func (group) Generator() GroupPoint {
	return groupPoint{v: *curve.NewGeneratorPoint()}
}

func (group) Order() []byte {
	return scalar.OrderBytes()
}

type groupScalar struct {
	v scalar.Scalar
}

// asGroupScalar rejects scalars from a foreign Group implementation, which
// this package cannot operate on.
func asGroupScalar(x GroupScalar) groupScalar {
	s, ok := x.(groupScalar)
	if !ok {
		panic("p521: GroupScalar was not created by this package")
	}
	return s
}

func (s groupScalar) Bytes() []byte {
	return s.v.Bytes()
}

func (s groupScalar) Add(x GroupScalar) GroupScalar {
	var out groupScalar
	other := asGroupScalar(x)
	out.v.Add(&s.v, &other.v)
	return out
}

func (s groupScalar) Mul(x GroupScalar) GroupScalar {
	var out groupScalar
	other := asGroupScalar(x)
	out.v.Mul(&s.v, &other.v)
	return out
}

func (s groupScalar) Invert() GroupScalar {
	var out groupScalar
	out.v.Inverse(&s.v)
	return out
}

func (s groupScalar) Equal(x GroupScalar) bool {
	other := asGroupScalar(x)
	return s.v.Equal(&other.v) == 1
}

type groupPoint struct {
	v curve.Point
}

// asGroupPoint rejects points from a foreign Group implementation, which
// this package cannot operate on.
func asGroupPoint(q GroupPoint) groupPoint {
	p, ok := q.(groupPoint)
	if !ok {
		panic("p521: GroupPoint was not created by this package")
	}
	return p
}

func (p groupPoint) Bytes() []byte {
	return p.v.Affine().BytesCompressed()
}

func (p groupPoint) Add(q GroupPoint) GroupPoint {
	var out groupPoint
	other := asGroupPoint(q)
	out.v.Add(&p.v, &other.v)
	return out
}

func (p groupPoint) ScalarMult(s GroupScalar) GroupPoint {
	var out groupPoint
	k := asGroupScalar(s)
	if _, err := out.v.ScalarMult(&p.v, k.v.Bytes()); err != nil {
		panic("p521: internal error: " + err.Error())
	}
	return out
}

func (p groupPoint) Equal(q GroupPoint) bool {
	other := asGroupPoint(q)
	return p.v.Equal(&other.v) == 1
}
