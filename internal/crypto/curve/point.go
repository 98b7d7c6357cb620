package curve

import (
	"crypto/subtle"
	"sync"

	"github.com/pkg/errors"

	"github.com/smallyu/go-p521/internal/crypto/field"
)

// Point is a point on the curve in homogeneous projective coordinates,
// x = X/Z and y = Y/Z. The identity is (0 : 1 : 0), the only class with
// Z = 0.
//
// The zero value is not a valid point; use NewPoint or NewGeneratorPoint.
type Point struct {
	x, y, z field.Element
}

// NewPoint returns a new Point set to the identity.
func NewPoint() *Point {
	var p Point
	p.y.One()
	return &p
}

// NewGeneratorPoint returns a new Point set to the base point G.
func NewGeneratorPoint() *Point {
	var p Point
	p.x.Set(curveGx)
	p.y.Set(curveGy)
	p.z.One()
	return &p
}

// Set sets p = q and returns p.
func (p *Point) Set(q *Point) *Point {
	*p = *q
	return p
}

// Select sets p to a if cond == 1 and to b if cond == 0, in constant time.
func (p *Point) Select(a, b *Point, cond int) *Point {
	p.x.Select(&a.x, &b.x, cond)
	p.y.Select(&a.y, &b.y, cond)
	p.z.Select(&a.z, &b.z, cond)
	return p
}

// IsIdentity returns 1 if p is the identity, and 0 otherwise.
func (p *Point) IsIdentity() int {
	return p.z.IsZero()
}

// Equal returns 1 if p and q represent the same point, and 0 otherwise. The
// comparison cross-multiplies the coordinates, so it needs no inversion and
// handles the identity, and it runs in constant time.
func (p *Point) Equal(q *Point) int {
	var l, r field.Element
	l.Multiply(&p.x, &q.z)
	r.Multiply(&q.x, &p.z)
	eq := l.Equal(&r)
	l.Multiply(&p.y, &q.z)
	r.Multiply(&q.y, &p.z)
	return eq & l.Equal(&r)
}

// FromAffine sets p to the projective form of a and returns p.
func (p *Point) FromAffine(a *AffinePoint) *Point {
	if a.Infinity {
		p.x.Zero()
		p.y.One()
		p.z.Zero()
		return p
	}
	p.x.Set(&a.X)
	p.y.Set(&a.Y)
	p.z.One()
	return p
}

// Affine converts p to affine coordinates. The identity converts to the
// affine point at infinity.
func (p *Point) Affine() *AffinePoint {
	var out AffinePoint
	// Invert returns zero for the identity, so its coordinates collapse
	// to (0, 0) and only the flag distinguishes it.
	zInv := new(field.Element).Invert(&p.z)
	out.X.Multiply(&p.x, zInv)
	out.Y.Multiply(&p.y, zInv)
	out.Infinity = p.z.IsZero() == 1
	return &out
}

// Negate sets p = -q and returns p.
func (p *Point) Negate(q *Point) *Point {
	p.x.Set(&q.x)
	p.y.Negate(&q.y)
	p.z.Set(&q.z)
	return p
}

// Subtract sets p = q - r and returns p.
func (p *Point) Subtract(q, r *Point) *Point {
	neg := new(Point).Negate(r)
	return p.Add(q, neg)
}

// Add sets q = p1 + p2, and returns q. The points may overlap.
func (q *Point) Add(p1, p2 *Point) *Point {
	// Complete addition formula for a = -3 from "Complete addition
	// formulas for prime order elliptic curves"
	// (https://eprint.iacr.org/2015/1060), §A.2. The single evaluation
	// path covers doubling, the identity, and inverse pairs.
	t0 := new(field.Element).Multiply(&p1.x, &p2.x) // t0 := X1 * X2
	t1 := new(field.Element).Multiply(&p1.y, &p2.y) // t1 := Y1 * Y2
	t2 := new(field.Element).Multiply(&p1.z, &p2.z) // t2 := Z1 * Z2
	t3 := new(field.Element).Add(&p1.x, &p1.y)      // t3 := X1 + Y1
	t4 := new(field.Element).Add(&p2.x, &p2.y)      // t4 := X2 + Y2
	t3.Multiply(t3, t4)                             // t3 := t3 * t4
	t4.Add(t0, t1)                                  // t4 := t0 + t1
	t3.Subtract(t3, t4)                             // t3 := t3 - t4
	t4.Add(&p1.y, &p1.z)                            // t4 := Y1 + Z1
	x3 := new(field.Element).Add(&p2.y, &p2.z)      // X3 := Y2 + Z2
	t4.Multiply(t4, x3)                             // t4 := t4 * X3
	x3.Add(t1, t2)                                  // X3 := t1 + t2
	t4.Subtract(t4, x3)                             // t4 := t4 - X3
	x3.Add(&p1.x, &p1.z)                            // X3 := X1 + Z1
	y3 := new(field.Element).Add(&p2.x, &p2.z)      // Y3 := X2 + Z2
	x3.Multiply(x3, y3)                             // X3 := X3 * Y3
	y3.Add(t0, t2)                                  // Y3 := t0 + t2
	y3.Subtract(x3, y3)                             // Y3 := X3 - Y3
	z3 := new(field.Element).Multiply(curveB, t2)   // Z3 := b * t2
	x3.Subtract(y3, z3)                             // X3 := Y3 - Z3
	z3.Add(x3, x3)                                  // Z3 := X3 + X3
	x3.Add(x3, z3)                                  // X3 := X3 + Z3
	z3.Subtract(t1, x3)                             // Z3 := t1 - X3
	x3.Add(t1, x3)                                  // X3 := t1 + X3
	y3.Multiply(curveB, y3)                         // Y3 := b * Y3
	t1.Add(t2, t2)                                  // t1 := t2 + t2
	t2.Add(t1, t2)                                  // t2 := t1 + t2
	y3.Subtract(y3, t2)                             // Y3 := Y3 - t2
	y3.Subtract(y3, t0)                             // Y3 := Y3 - t0
	t1.Add(y3, y3)                                  // t1 := Y3 + Y3
	y3.Add(t1, y3)                                  // Y3 := t1 + Y3
	t1.Add(t0, t0)                                  // t1 := t0 + t0
	t0.Add(t1, t0)                                  // t0 := t1 + t0
	t0.Subtract(t0, t2)                             // t0 := t0 - t2
	t1.Multiply(t4, y3)                             // t1 := t4 * Y3
	t2.Multiply(t0, y3)                             // t2 := t0 * Y3
	y3.Multiply(x3, z3)                             // Y3 := X3 * Z3
	y3.Add(y3, t2)                                  // Y3 := Y3 + t2
	x3.Multiply(t3, x3)                             // X3 := t3 * X3
	x3.Subtract(x3, t1)                             // X3 := X3 - t1
	z3.Multiply(t4, z3)                             // Z3 := t4 * Z3
	t1.Multiply(t3, t0)                             // t1 := t3 * t0
	z3.Add(z3, t1)                                  // Z3 := Z3 + t1

	q.x.Set(x3)
	q.y.Set(y3)
	q.z.Set(z3)
	return q
}

// Double sets q = p + p, and returns q. The points may overlap.
func (q *Point) Double(p *Point) *Point {
	// Complete doubling formula for a = -3 from "Complete addition
	// formulas for prime order elliptic curves"
	// (https://eprint.iacr.org/2015/1060), §A.2.
	t0 := new(field.Element).Square(&p.x)         // t0 := X ^ 2
	t1 := new(field.Element).Square(&p.y)         // t1 := Y ^ 2
	t2 := new(field.Element).Square(&p.z)         // t2 := Z ^ 2
	t3 := new(field.Element).Multiply(&p.x, &p.y) // t3 := X * Y
	t3.Add(t3, t3)                                // t3 := t3 + t3
	z3 := new(field.Element).Multiply(&p.x, &p.z) // Z3 := X * Z
	z3.Add(z3, z3)                                // Z3 := Z3 + Z3
	y3 := new(field.Element).Multiply(curveB, t2) // Y3 := b * t2
	y3.Subtract(y3, z3)                           // Y3 := Y3 - Z3
	x3 := new(field.Element).Add(y3, y3)          // X3 := Y3 + Y3
	y3.Add(x3, y3)                                // Y3 := X3 + Y3
	x3.Subtract(t1, y3)                           // X3 := t1 - Y3
	y3.Add(t1, y3)                                // Y3 := t1 + Y3
	y3.Multiply(x3, y3)                           // Y3 := X3 * Y3
	x3.Multiply(x3, t3)                           // X3 := X3 * t3
	t3.Add(t2, t2)                                // t3 := t2 + t2
	t2.Add(t2, t3)                                // t2 := t2 + t3
	z3.Multiply(curveB, z3)                       // Z3 := b * Z3
	z3.Subtract(z3, t2)                           // Z3 := Z3 - t2
	z3.Subtract(z3, t0)                           // Z3 := Z3 - t0
	t3.Add(z3, z3)                                // t3 := Z3 + Z3
	z3.Add(z3, t3)                                // Z3 := Z3 + t3
	t3.Add(t0, t0)                                // t3 := t0 + t0
	t0.Add(t3, t0)                                // t0 := t3 + t0
	t0.Subtract(t0, t2)                           // t0 := t0 - t2
	t0.Multiply(t0, z3)                           // t0 := t0 * Z3
	y3.Add(y3, t0)                                // Y3 := Y3 + t0
	t0.Multiply(&p.y, &p.z)                       // t0 := Y * Z
	t0.Add(t0, t0)                                // t0 := t0 + t0
	z3.Multiply(t0, z3)                           // Z3 := t0 * Z3
	x3.Subtract(x3, z3)                           // X3 := X3 - Z3
	z3.Multiply(t0, t1)                           // Z3 := t0 * t1
	z3.Add(z3, z3)                                // Z3 := Z3 + Z3
	z3.Add(z3, z3)                                // Z3 := Z3 + Z3

	q.x.Set(x3)
	q.y.Set(y3)
	q.z.Set(z3)
	return q
}

// A pointTable holds the first 15 multiples of a point at offset -1, so [1]P
// is at table[0], and [15]P is at table[14]. [0]P is implicitly the identity.
type pointTable [15]*Point

// newPointTable computes the multiples of base.
func newPointTable(base *Point) *pointTable {
	var table pointTable
	for i := range table {
		table[i] = NewPoint()
	}
	table[0].Set(base)
	for i := 1; i < 15; i += 2 {
		table[i].Double(table[i/2])
		table[i+1].Add(table[i], base)
	}
	return &table
}

// Select sets p to the n-th multiple of the table base, in constant time.
// n must be in [0, 15]. If n == 0, p is set to the identity.
func (table *pointTable) Select(p *Point, n uint8) {
	if n > 15 {
		panic("curve: internal error: pointTable called with out-of-bounds value")
	}
	p.Set(NewPoint())
	for i := uint8(1); i < 16; i++ {
		cond := subtle.ConstantTimeByteEq(i, n)
		p.Select(table[i-1], p, cond)
	}
}

// scalarMultWindowed runs the fixed window pattern over the 66 scalar bytes:
// four doublings, then one table addition, for every half byte. The sequence
// of curve operations does not depend on the scalar bits.
func scalarMultWindowed(p *Point, table *pointTable, k []byte) *Point {
	t := NewPoint()
	p.Set(NewPoint())
	for i, byte := range k {
		// No need to double on the first iteration, as p is the
		// identity at this point, and [N]∞ = ∞.
		if i != 0 {
			p.Double(p)
			p.Double(p)
			p.Double(p)
			p.Double(p)
		}

		windowValue := byte >> 4
		table.Select(t, windowValue)
		p.Add(p, t)

		p.Double(p)
		p.Double(p)
		p.Double(p)
		p.Double(p)

		windowValue = byte & 0b1111
		table.Select(t, windowValue)
		p.Add(p, t)
	}
	return p
}

// ScalarMult sets p = k * q, where k is a 66-byte big-endian value, and
// returns p. The run time depends only on the length of k.
func (p *Point) ScalarMult(q *Point, k []byte) (*Point, error) {
	if len(k) != FieldSize {
		return nil, errors.New("curve: invalid scalar length")
	}
	return scalarMultWindowed(p, newPointTable(q), k), nil
}

var generatorTable *pointTable
var generatorTableOnce sync.Once

// ScalarBaseMult sets p = k * G, where k is a 66-byte big-endian value, and
// returns p. The multiples table for G is computed once and cached.
func (p *Point) ScalarBaseMult(k []byte) (*Point, error) {
	if len(k) != FieldSize {
		return nil, errors.New("curve: invalid scalar length")
	}
	generatorTableOnce.Do(func() {
		generatorTable = newPointTable(NewGeneratorPoint())
	})
	return scalarMultWindowed(p, generatorTable, k), nil
}
