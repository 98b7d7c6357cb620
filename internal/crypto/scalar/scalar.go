// Package scalar implements constant-time arithmetic modulo n, the order of
// the NIST P-521 group.
//
// Unlike the field prime, n has no special structure to exploit, so values
// are kept in the Montgomery domain with unsaturated 63-bit limbs. All the
// Montgomery constants are derived at startup from the published big-endian
// encoding of n, never from hand-computed limb values.
package scalar

import (
	"encoding/hex"
	"math/bits"

	"github.com/pkg/errors"
)

// Size is the length of a canonical scalar encoding in bytes.
const Size = 66

const (
	_W    = 63
	_MASK = (1 << _W) - 1
)

// orderHex is the group order n from SEC 2, Version 2.0, section 2.6.1.
const orderHex = "01fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffa51868783bf2f966b7fcc0148f709a5d03bb5c9b8899c47aebb6fb71e91386409"

// Scalar is an integer modulo n. The zero value is a valid zero scalar.
type Scalar struct {
	// m is the value in the Montgomery domain, x*R mod n with R = 2^567,
	// as nine 63-bit little-endian limbs, always fully reduced below n.
	m [9]uint64
}

var (
	// order holds n in 63-bit limbs.
	order [9]uint64
	// orderM0Inv is -n⁻¹ mod 2^63, the Montgomery multiplication constant.
	orderM0Inv uint64
	// rr is R² mod n, the conversion factor into the Montgomery domain.
	rr [9]uint64
	// montOne is R mod n, the scalar 1 in the Montgomery domain.
	montOne [9]uint64
	// halfOrder is (n-1)/2, outside the Montgomery domain.
	halfOrder [9]uint64
	// orderMinusTwo is the big-endian inversion exponent n-2.
	orderMinusTwo [Size]byte
)

func init() {
	raw, err := hex.DecodeString(orderHex)
	if err != nil || len(raw) != Size {
		panic("scalar: invalid group order constant")
	}
	setLimbsFromBytes(&order, raw)
	orderM0Inv = minusInverseModW(order[0])

	// R mod n by 567 modular doublings of 1, then R² mod n by 567 more.
	montOne[0] = 1
	for i := 0; i < 9*_W; i++ {
		modAdd(&montOne, &montOne)
	}
	rr = montOne
	for i := 0; i < 9*_W; i++ {
		modAdd(&rr, &rr)
	}

	// n is odd, so (n-1)/2 is a plain shift.
	for i := 0; i < 9; i++ {
		halfOrder[i] = order[i] >> 1
		if i+1 < 9 {
			halfOrder[i] |= (order[i+1] & 1) << (_W - 1)
		}
	}

	// n ends in 0x09, so subtracting 2 only touches the last byte.
	copy(orderMinusTwo[:], raw)
	orderMinusTwo[Size-1] -= 2
}

// OrderBytes returns the canonical 66-byte big-endian encoding of the group
// order n.
func OrderBytes() []byte {
	raw, err := hex.DecodeString(orderHex)
	if err != nil {
		panic("scalar: invalid group order constant")
	}
	return raw
}

// minusInverseModW computes -x⁻¹ mod 2^63. x must be odd.
//
// Every iteration of the Newton loop doubles the number of correct
// least-significant bits of the inverse. The first three bits are already
// correct (1⁻¹ = 1, 3⁻¹ = 3, 5⁻¹ = 5, and 7⁻¹ = 7 mod 8), so five doublings
// reach 96 bits, more than enough for 63.
func minusInverseModW(x uint64) uint64 {
	y := x
	for i := 0; i < 5; i++ {
		y = y * (2 - x*y)
	}
	return (1 << _W) - (y & _MASK)
}

type choice = uint64

func not(c choice) choice { return 1 ^ c }

// ctSelect returns x if on == 1, and y if on == 0, in constant time.
func ctSelect(on choice, x, y uint64) uint64 {
	mask := -on
	return y ^ (mask & (y ^ x))
}

// ctEq returns 1 if x == y, and 0 otherwise, in constant time.
func ctEq(x, y uint64) choice {
	// If x != y, then either x - y or y - x will generate a carry.
	_, c1 := bits.Sub64(x, y, 0)
	_, c2 := bits.Sub64(y, x, 0)
	return not(choice(c1 | c2))
}

// add computes x += y if on == 1, and leaves x alone otherwise. It returns
// the carry of the unconditional sum.
func add(x *[9]uint64, on choice, y *[9]uint64) (c uint64) {
	for i := 0; i < 9; i++ {
		res := x[i] + y[i] + c
		c = res >> _W
		x[i] = ctSelect(on, res&_MASK, x[i])
	}
	return
}

// sub computes x -= y if on == 1, and leaves x alone otherwise. It returns
// the borrow of the unconditional difference.
func sub(x *[9]uint64, on choice, y *[9]uint64) (c uint64) {
	for i := 0; i < 9; i++ {
		res := x[i] - y[i] - c
		c = res >> _W & 1
		x[i] = ctSelect(on, res&_MASK, x[i])
	}
	return
}

// cmpGeq returns 1 if x >= y, and 0 otherwise, in constant time.
func cmpGeq(x, y *[9]uint64) choice {
	var c uint64
	for i := 0; i < 9; i++ {
		c = (x[i] - y[i] - c) >> _W & 1
	}
	// If the subtraction borrowed, x is smaller than y.
	return not(choice(c))
}

// assign sets x to y if on == 1, in constant time.
func assign(x *[9]uint64, on choice, y *[9]uint64) {
	for i := 0; i < 9; i++ {
		x[i] = ctSelect(on, y[i], x[i])
	}
}

// modAdd computes x = x + y mod n. Both inputs must be reduced.
func modAdd(x, y *[9]uint64) {
	overflow := add(x, 1, y)
	underflow := not(cmpGeq(x, &order))
	// If the sum overflowed 2^567, subtracting n wraps it back; if it only
	// exceeded n, subtracting n reduces it; if both flags disagree the sum
	// is already reduced.
	needSubtraction := ctEq(overflow, underflow)
	sub(x, needSubtraction, &order)
}

// modSub computes x = x - y mod n. Both inputs must be reduced.
func modSub(x, y *[9]uint64) {
	underflow := sub(x, 1, y)
	add(x, choice(underflow), &order)
}

// montMul sets d = a * b / R mod n, the Montgomery product, using the CIOS
// algorithm. d must not alias a or b.
//
// See https://bearssl.org/bigint.html#montgomery-multiplication for a
// description of the algorithm and a correctness proof.
func montMul(d, a, b *[9]uint64) {
	for i := range d {
		d[i] = 0
	}

	var overflow uint64
	for _, ai := range a {
		// First inner iteration, unrolled to derive the Montgomery
		// factor f. The low 63 bits of d[0] + ai*b[0] + f*n[0] are zero
		// by construction, so only the carry survives.
		hi, lo := bits.Mul64(ai, b[0])
		zLo, c := bits.Add64(d[0], lo, 0)
		f := (zLo * orderM0Inv) & _MASK
		zHi, _ := bits.Add64(0, hi, c)
		hi, lo = bits.Mul64(f, order[0])
		zLo, c = bits.Add64(zLo, lo, 0)
		zHi, _ = bits.Add64(zHi, hi, c)
		carry := zHi<<1 | zLo>>_W

		for j := 1; j < 9; j++ {
			hi, lo := bits.Mul64(ai, b[j])
			zLo, c := bits.Add64(d[j], lo, 0)
			zHi, _ := bits.Add64(0, hi, c)
			hi, lo = bits.Mul64(f, order[j])
			zLo, c = bits.Add64(zLo, lo, 0)
			zHi, _ = bits.Add64(zHi, hi, c)
			zLo, c = bits.Add64(zLo, carry, 0)
			zHi, _ = bits.Add64(zHi, 0, c)
			d[j-1] = zLo & _MASK
			carry = zHi<<1 | zLo>>_W
		}

		z := overflow + carry
		d[8] = z & _MASK
		overflow = z >> _W
	}

	underflow := not(cmpGeq(d, &order))
	needSubtraction := ctEq(overflow, underflow)
	sub(d, needSubtraction, &order)
}

// setLimbsFromBytes packs a big-endian byte string into 63-bit limbs. The
// value must fit 567 bits.
func setLimbsFromBytes(out *[9]uint64, b []byte) {
	for i := range out {
		out[i] = 0
	}
	bitPos := 0
	for i := len(b) - 1; i >= 0; i-- {
		v := uint64(b[i])
		limb := bitPos / _W
		off := bitPos % _W
		if limb < 9 {
			out[limb] |= (v << off) & _MASK
		}
		if off > _W-8 && limb+1 < 9 {
			out[limb+1] |= v >> (_W - off)
		}
		bitPos += 8
	}
}

// fillBytes writes the big-endian encoding of x to out. The value must fit
// 528 bits.
func fillBytes(x *[9]uint64, out *[Size]byte) {
	bitPos := 0
	for i := Size - 1; i >= 0; i-- {
		limb := bitPos / _W
		off := bitPos % _W
		v := x[limb] >> off
		if off > _W-8 && limb+1 < 9 {
			v |= x[limb+1] << (_W - off)
		}
		out[i] = byte(v)
		bitPos += 8
	}
}

func wipeLimbs(x *[9]uint64) {
	for i := range x {
		x[i] = 0
	}
}

// SetCanonicalBytes sets s to the value of the 66-byte big-endian encoding b
// and returns s, or an error if b has the wrong length or encodes a value
// greater than or equal to n.
func (s *Scalar) SetCanonicalBytes(b []byte) (*Scalar, error) {
	if len(b) != Size {
		return nil, errors.New("scalar: invalid scalar encoding length")
	}
	var plain [9]uint64
	setLimbsFromBytes(&plain, b)
	if cmpGeq(&plain, &order) == 1 {
		wipeLimbs(&plain)
		return nil, errors.New("scalar: non-canonical scalar encoding")
	}
	montMul(&s.m, &plain, &rr)
	wipeLimbs(&plain)
	return s, nil
}

// SetBytesReduced sets s to b mod n, interpreting b as a big-endian value,
// and returns s. b must be at most 66 bytes and must encode a value below
// 2^521; callers convert longer bit strings by truncating to the leftmost
// 521 bits first. Under that bound a single conditional subtraction
// completes the reduction.
func (s *Scalar) SetBytesReduced(b []byte) *Scalar {
	var buf [Size]byte
	copy(buf[Size-len(b):], b)
	var plain [9]uint64
	setLimbsFromBytes(&plain, buf[:])
	sub(&plain, cmpGeq(&plain, &order), &order)
	montMul(&s.m, &plain, &rr)
	wipeLimbs(&plain)
	for i := range buf {
		buf[i] = 0
	}
	return s
}

// Bytes returns the canonical 66-byte big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	// This function is outlined to make the allocation inline in the
	// caller rather than happen on the heap.
	var out [Size]byte
	return s.bytes(&out)
}

func (s *Scalar) bytes(out *[Size]byte) []byte {
	var one, plain [9]uint64
	one[0] = 1
	// Multiplying by the plain 1 divides by R, leaving the Montgomery
	// domain.
	montMul(&plain, &s.m, &one)
	fillBytes(&plain, out)
	wipeLimbs(&plain)
	return out[:]
}

// Set sets s = a and returns s.
func (s *Scalar) Set(a *Scalar) *Scalar {
	s.m = a.m
	return s
}

// Zero sets s to zero in constant time. It is used to clear secret scalars
// from memory and deliberately returns nothing, so that it cannot end up in
// an expression chain.
func (s *Scalar) Zero() {
	wipeLimbs(&s.m)
}

// Add sets s = a + b mod n and returns s.
func (s *Scalar) Add(a, b *Scalar) *Scalar {
	t := a.m
	modAdd(&t, &b.m)
	s.m = t
	wipeLimbs(&t)
	return s
}

// Subtract sets s = a - b mod n and returns s.
func (s *Scalar) Subtract(a, b *Scalar) *Scalar {
	t := a.m
	modSub(&t, &b.m)
	s.m = t
	wipeLimbs(&t)
	return s
}

// Negate sets s = -a mod n and returns s. Zero maps to zero.
func (s *Scalar) Negate(a *Scalar) *Scalar {
	var t [9]uint64
	underflow := sub(&t, 1, &a.m)
	add(&t, choice(underflow), &order)
	s.m = t
	wipeLimbs(&t)
	return s
}

// Mul sets s = a * b mod n and returns s.
func (s *Scalar) Mul(a, b *Scalar) *Scalar {
	var t [9]uint64
	montMul(&t, &a.m, &b.m)
	s.m = t
	wipeLimbs(&t)
	return s
}

// Square sets s = a * a mod n and returns s.
func (s *Scalar) Square(a *Scalar) *Scalar {
	return s.Mul(a, a)
}

// Equal returns 1 if s and t are equal, and 0 otherwise.
func (s *Scalar) Equal(t *Scalar) int {
	acc := choice(1)
	for i := 0; i < 9; i++ {
		acc &= ctEq(s.m[i], t.m[i])
	}
	return int(acc)
}

// IsZero returns 1 if s is zero, and 0 otherwise.
func (s *Scalar) IsZero() int {
	acc := choice(1)
	for i := 0; i < 9; i++ {
		acc &= ctEq(s.m[i], 0)
	}
	return int(acc)
}

// IsOverHalfOrder returns 1 if s > (n-1)/2, and 0 otherwise. This is the
// boundary used to produce non-malleable ECDSA s values.
func (s *Scalar) IsOverHalfOrder() int {
	var one, plain [9]uint64
	one[0] = 1
	montMul(&plain, &s.m, &one)
	t := halfOrder
	borrow := sub(&t, 1, &plain)
	wipeLimbs(&plain)
	wipeLimbs(&t)
	return int(borrow)
}

// Inverse sets s = a⁻¹ mod n and returns s, computing a^(n-2) by Fermat's
// little theorem with 4-bit fixed windows and constant-time table lookups.
// The inverse of zero is zero.
func (s *Scalar) Inverse(a *Scalar) *Scalar {
	// table[i] = a^(i+1) in the Montgomery domain.
	var table [15][9]uint64
	table[0] = a.m
	for i := 1; i < len(table); i++ {
		montMul(&table[i], &table[i-1], &table[0])
	}

	out := montOne
	var t0, t1 [9]uint64
	for _, b := range orderMinusTwo {
		for _, j := range []int{4, 0} {
			// Square four times.
			montMul(&t1, &out, &out)
			montMul(&out, &t1, &t1)
			montMul(&t1, &out, &out)
			montMul(&out, &t1, &t1)

			// Select a^k from the table in constant time.
			k := uint64((b >> uint(j)) & 0b1111)
			for i := range table {
				assign(&t0, ctEq(k, uint64(i+1)), &table[i])
			}

			// Multiply by a^k, keeping the old value when k = 0.
			montMul(&t1, &out, &t0)
			assign(&out, not(ctEq(k, 0)), &t1)
		}
	}

	s.m = out
	wipeLimbs(&out)
	wipeLimbs(&t0)
	wipeLimbs(&t1)
	for i := range table {
		wipeLimbs(&table[i])
	}
	return s
}
