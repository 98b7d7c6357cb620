// Package field implements fast arithmetic modulo p = 2^521 - 1, the field
// prime of the NIST P-521 curve.
//
// All arithmetic runs in constant time with respect to the values of the
// operands. Conditional logic is expressed through masks, never branches.
package field

import (
	"crypto/subtle"
	"encoding/binary"
	"math/bits"

	"github.com/pkg/errors"
)

// Size is the length of a canonical field element encoding in bytes.
const Size = 66

// Element represents an element of the field GF(2^521 - 1). Note that this
// is not a cryptographically secure group, and should only be used to
// interact with curve points.
//
// This type works similarly to math/big.Int, and all arguments and receivers
// are allowed to alias.
//
// The zero value is a valid zero element.
type Element struct {
	// An element t represents the integer
	//     t.l0 + t.l1*2^58 + t.l2*2^116 + t.l3*2^174 + t.l4*2^232 +
	//     t.l5*2^290 + t.l6*2^348 + t.l7*2^406 + t.l8*2^464
	//
	// Between operations, l0 through l7 are expected to be below 2^59 and
	// l8 below 2^58, carrying at most a few bits above the nominal 58-bit
	// (57-bit for l8) radix.
	l0 uint64
	l1 uint64
	l2 uint64
	l3 uint64
	l4 uint64
	l5 uint64
	l6 uint64
	l7 uint64
	l8 uint64
}

const (
	maskLow57Bits uint64 = (1 << 57) - 1
	maskLow58Bits uint64 = (1 << 58) - 1
)

var (
	feZero = Element{}
	feOne  = Element{l0: 1}
)

// minusOneEncoding is the canonical encoding of p - 1, used by SetBytes to
// reject non-canonical inputs.
var minusOneEncoding = new(Element).Subtract(&feZero, &feOne).Bytes()

// Zero sets v = 0 and returns v.
func (v *Element) Zero() *Element {
	*v = feZero
	return v
}

// One sets v = 1 and returns v.
func (v *Element) One() *Element {
	*v = feOne
	return v
}

// Set sets v = a and returns v.
func (v *Element) Set(a *Element) *Element {
	*v = *a
	return v
}

// carryPropagate brings the limbs below 58 (57 for the top limb) bits, up to
// the carry folded back into the next limb. The carry out of the top limb has
// weight 2^521 = 1 mod p, so it wraps around to the bottom limb.
func (v *Element) carryPropagate() *Element {
	c0 := v.l0 >> 58
	c1 := v.l1 >> 58
	c2 := v.l2 >> 58
	c3 := v.l3 >> 58
	c4 := v.l4 >> 58
	c5 := v.l5 >> 58
	c6 := v.l6 >> 58
	c7 := v.l7 >> 58
	c8 := v.l8 >> 57

	v.l0 = v.l0&maskLow58Bits + c8
	v.l1 = v.l1&maskLow58Bits + c0
	v.l2 = v.l2&maskLow58Bits + c1
	v.l3 = v.l3&maskLow58Bits + c2
	v.l4 = v.l4&maskLow58Bits + c3
	v.l5 = v.l5&maskLow58Bits + c4
	v.l6 = v.l6&maskLow58Bits + c5
	v.l7 = v.l7&maskLow58Bits + c6
	v.l8 = v.l8&maskLow57Bits + c7

	return v
}

// reduce reduces v modulo p and brings it to its canonical representative,
// with every limb strictly below its radix.
func (v *Element) reduce() *Element {
	v.carryPropagate()

	// After the light reduction we now have a value v < 2p. Compute
	// c = 1 if v >= p and 0 otherwise, by checking whether v + 1
	// overflows 521 bits. This works because p + 1 = 2^521.
	c := (v.l0 + 1) >> 58
	c = (v.l1 + c) >> 58
	c = (v.l2 + c) >> 58
	c = (v.l3 + c) >> 58
	c = (v.l4 + c) >> 58
	c = (v.l5 + c) >> 58
	c = (v.l6 + c) >> 58
	c = (v.l7 + c) >> 58
	c = (v.l8 + c) >> 57

	// If v < p, c is zero and this is a no-op. Otherwise, subtracting p is
	// the same as adding 1 and discarding the 2^521 bit.
	v.l0 += c
	c = v.l0 >> 58
	v.l0 &= maskLow58Bits
	v.l1 += c
	c = v.l1 >> 58
	v.l1 &= maskLow58Bits
	v.l2 += c
	c = v.l2 >> 58
	v.l2 &= maskLow58Bits
	v.l3 += c
	c = v.l3 >> 58
	v.l3 &= maskLow58Bits
	v.l4 += c
	c = v.l4 >> 58
	v.l4 &= maskLow58Bits
	v.l5 += c
	c = v.l5 >> 58
	v.l5 &= maskLow58Bits
	v.l6 += c
	c = v.l6 >> 58
	v.l6 &= maskLow58Bits
	v.l7 += c
	c = v.l7 >> 58
	v.l7 &= maskLow58Bits
	v.l8 += c
	v.l8 &= maskLow57Bits

	return v
}

// Add sets v = a + b and returns v.
func (v *Element) Add(a, b *Element) *Element {
	v.l0 = a.l0 + b.l0
	v.l1 = a.l1 + b.l1
	v.l2 = a.l2 + b.l2
	v.l3 = a.l3 + b.l3
	v.l4 = a.l4 + b.l4
	v.l5 = a.l5 + b.l5
	v.l6 = a.l6 + b.l6
	v.l7 = a.l7 + b.l7
	v.l8 = a.l8 + b.l8
	return v.carryPropagate()
}

// Subtract sets v = a - b and returns v.
func (v *Element) Subtract(a, b *Element) *Element {
	// We first add 2p, to guarantee the subtraction won't underflow. The
	// limbs of 2p are 2^59 - 2 except the top one, which is 2^58 - 2.
	v.l0 = (a.l0 + 0x7FFFFFFFFFFFFFE) - b.l0
	v.l1 = (a.l1 + 0x7FFFFFFFFFFFFFE) - b.l1
	v.l2 = (a.l2 + 0x7FFFFFFFFFFFFFE) - b.l2
	v.l3 = (a.l3 + 0x7FFFFFFFFFFFFFE) - b.l3
	v.l4 = (a.l4 + 0x7FFFFFFFFFFFFFE) - b.l4
	v.l5 = (a.l5 + 0x7FFFFFFFFFFFFFE) - b.l5
	v.l6 = (a.l6 + 0x7FFFFFFFFFFFFFE) - b.l6
	v.l7 = (a.l7 + 0x7FFFFFFFFFFFFFE) - b.l7
	v.l8 = (a.l8 + 0x3FFFFFFFFFFFFFE) - b.l8
	return v.carryPropagate()
}

// Negate sets v = -a and returns v.
func (v *Element) Negate(a *Element) *Element {
	return v.Subtract(&feZero, a)
}

// Invert sets v = 1/a mod p and returns v.
//
// If a == 0, Invert returns v = 0.
func (v *Element) Invert(a *Element) *Element {
	// Inversion is implemented as exponentiation with exponent p - 2, by
	// Fermat's little theorem. The addition chain exploits the shape
	// p - 2 = (2^519 - 1) * 4 + 1, building up runs of ones by doubling
	// their length. It requires 520 squarings and 13 multiplications.
	var x2, x4, x8, x16, x32, x64, x128, x256, x512 Element
	var x516, x518, x519, t Element

	t.Square(a)
	x2.Multiply(&t, a) // a^(2^2-1)
	t.pow2k(&x2, 2)
	x4.Multiply(&t, &x2) // a^(2^4-1)
	t.pow2k(&x4, 4)
	x8.Multiply(&t, &x4) // a^(2^8-1)
	t.pow2k(&x8, 8)
	x16.Multiply(&t, &x8) // a^(2^16-1)
	t.pow2k(&x16, 16)
	x32.Multiply(&t, &x16) // a^(2^32-1)
	t.pow2k(&x32, 32)
	x64.Multiply(&t, &x32) // a^(2^64-1)
	t.pow2k(&x64, 64)
	x128.Multiply(&t, &x64) // a^(2^128-1)
	t.pow2k(&x128, 128)
	x256.Multiply(&t, &x128) // a^(2^256-1)
	t.pow2k(&x256, 256)
	x512.Multiply(&t, &x256) // a^(2^512-1)

	t.pow2k(&x512, 4)
	x516.Multiply(&t, &x4) // a^(2^516-1)
	t.pow2k(&x516, 2)
	x518.Multiply(&t, &x2) // a^(2^518-1)
	t.pow2k(&x518, 1)
	x519.Multiply(&t, a) // a^(2^519-1)

	t.pow2k(&x519, 2)        // a^(2^521-4)
	return v.Multiply(&t, a) // a^(2^521-3) = a^(p-2)
}

// pow2k sets v = a^(2^k) and returns v. k must be at least 1.
func (v *Element) pow2k(a *Element, k int) *Element {
	v.Square(a)
	for i := 1; i < k; i++ {
		v.Square(v)
	}
	return v
}

// Sqrt sets v to a square root of a mod p, if one exists, and returns v and
// 1. If a is not a square, Sqrt sets v = 0 and returns 0.
//
// Since p = 3 mod 4, the candidate root is a^((p+1)/4) = a^(2^519), and it
// is confirmed by squaring.
func (v *Element) Sqrt(a *Element) (*Element, int) {
	var candidate, square Element
	candidate.pow2k(a, 519)
	square.Square(&candidate)
	ok := square.Equal(a)
	return v.Select(&candidate, &feZero, ok), ok
}

// Equal returns 1 if v and u are equal, and 0 otherwise.
func (v *Element) Equal(u *Element) int {
	sv, su := v.Bytes(), u.Bytes()
	return subtle.ConstantTimeCompare(sv, su)
}

// IsZero returns 1 if v is equal to zero, and 0 otherwise.
func (v *Element) IsZero() int {
	zero := make([]byte, Size)
	return subtle.ConstantTimeCompare(v.Bytes(), zero)
}

// IsOdd returns 1 if the canonical representative of v is odd, and 0
// otherwise.
func (v *Element) IsOdd() int {
	return int(v.Bytes()[Size-1] & 1)
}

// mask64Bits returns 0xffffffffffffffff if cond is 1, and 0 otherwise.
func mask64Bits(cond int) uint64 { return ^(uint64(cond) - 1) }

// Select sets v to a if cond == 1, and to b if cond == 0.
func (v *Element) Select(a, b *Element, cond int) *Element {
	m := mask64Bits(cond)
	v.l0 = (m & a.l0) | (^m & b.l0)
	v.l1 = (m & a.l1) | (^m & b.l1)
	v.l2 = (m & a.l2) | (^m & b.l2)
	v.l3 = (m & a.l3) | (^m & b.l3)
	v.l4 = (m & a.l4) | (^m & b.l4)
	v.l5 = (m & a.l5) | (^m & b.l5)
	v.l6 = (m & a.l6) | (^m & b.l6)
	v.l7 = (m & a.l7) | (^m & b.l7)
	v.l8 = (m & a.l8) | (^m & b.l8)
	return v
}

// SetBytes sets v to x, where x is a 66-byte big-endian encoding of v. If x
// is not of the right length or encodes a value >= p, SetBytes returns nil
// and an error, and the receiver is unchanged.
func (v *Element) SetBytes(x []byte) (*Element, error) {
	if len(x) != Size {
		return nil, errors.New("field: invalid element encoding length")
	}

	// Reject values >= p by comparing with the encoding of p - 1.
	for i := range x {
		if x[i] < minusOneEncoding[i] {
			break
		}
		if x[i] > minusOneEncoding[i] {
			return nil, errors.New("field: non-canonical element encoding")
		}
	}

	var le [Size]byte
	for i := range x {
		le[i] = x[Size-1-i]
	}

	// Bits 0:58 (bytes 0:8, shift 0, mask 58).
	v.l0 = binary.LittleEndian.Uint64(le[0:8]) & maskLow58Bits
	// Bits 58:116 (bytes 7:15, shift 2, mask 58).
	v.l1 = (binary.LittleEndian.Uint64(le[7:15]) >> 2) & maskLow58Bits
	// Bits 116:174 (bytes 14:22, shift 4, mask 58).
	v.l2 = (binary.LittleEndian.Uint64(le[14:22]) >> 4) & maskLow58Bits
	// Bits 174:232 (bytes 21:29, shift 6, mask 58).
	v.l3 = (binary.LittleEndian.Uint64(le[21:29]) >> 6) & maskLow58Bits
	// Bits 232:290 (bytes 29:37, shift 0, mask 58).
	v.l4 = binary.LittleEndian.Uint64(le[29:37]) & maskLow58Bits
	// Bits 290:348 (bytes 36:44, shift 2, mask 58).
	v.l5 = (binary.LittleEndian.Uint64(le[36:44]) >> 2) & maskLow58Bits
	// Bits 348:406 (bytes 43:51, shift 4, mask 58).
	v.l6 = (binary.LittleEndian.Uint64(le[43:51]) >> 4) & maskLow58Bits
	// Bits 406:464 (bytes 50:58, shift 6, mask 58).
	v.l7 = (binary.LittleEndian.Uint64(le[50:58]) >> 6) & maskLow58Bits
	// Bits 464:521 (bytes 58:66, shift 0, mask 57).
	v.l8 = binary.LittleEndian.Uint64(le[58:66]) & maskLow57Bits

	return v, nil
}

// Bytes returns the canonical 66-byte big-endian encoding of v.
func (v *Element) Bytes() []byte {
	// This function is outlined to make the allocations inline in the
	// caller rather than happen on the heap.
	var out [Size]byte
	return v.bytes(&out)
}

func (v *Element) bytes(out *[Size]byte) []byte {
	t := *v
	t.reduce()

	var buf [8]byte
	for i, l := range [9]uint64{t.l0, t.l1, t.l2, t.l3, t.l4, t.l5, t.l6, t.l7, t.l8} {
		bitsOffset := i * 58
		binary.LittleEndian.PutUint64(buf[:], l<<uint(bitsOffset%8))
		for i, bb := range buf {
			off := bitsOffset/8 + i
			if off >= len(out) {
				break
			}
			out[off] |= bb
		}
	}

	invertEndianness(out[:])
	return out[:]
}

func invertEndianness(v []byte) {
	for i := 0; i < len(v)/2; i++ {
		v[i], v[len(v)-1-i] = v[len(v)-1-i], v[i]
	}
}

// uint128 holds a 128-bit number as two 64-bit limbs, for use with the
// bits.Mul64 and bits.Add64 intrinsics.
type uint128 struct {
	lo, hi uint64
}

// mul64 returns a * b.
func mul64(a, b uint64) uint128 {
	hi, lo := bits.Mul64(a, b)
	return uint128{lo, hi}
}

// addMul64 returns v + a * b.
func addMul64(v uint128, a, b uint64) uint128 {
	hi, lo := bits.Mul64(a, b)
	lo, c := bits.Add64(lo, v.lo, 0)
	hi, _ = bits.Add64(hi, v.hi, c)
	return uint128{lo, hi}
}

// shiftRightBy58 returns a >> 58. a is assumed to be at most 122 bits.
func shiftRightBy58(a uint128) uint64 {
	return (a.lo >> 58) | (a.hi << 6)
}

// shiftRightBy57 returns a >> 57. a is assumed to be at most 121 bits.
func shiftRightBy57(a uint128) uint64 {
	return (a.lo >> 57) | (a.hi << 7)
}

// Multiply sets v = a * b mod p and returns v.
func (v *Element) Multiply(a, b *Element) *Element {
	a0 := a.l0
	a1 := a.l1
	a2 := a.l2
	a3 := a.l3
	a4 := a.l4
	a5 := a.l5
	a6 := a.l6
	a7 := a.l7
	a8 := a.l8

	b0 := b.l0
	b1 := b.l1
	b2 := b.l2
	b3 := b.l3
	b4 := b.l4
	b5 := b.l5
	b6 := b.l6
	b7 := b.l7
	b8 := b.l8

	// Limbs ai and bj with i+j > 8 multiply to a term of weight
	// 2^(58*(i+j)) = 2^(58*(i+j-9)) * 2^522, and 2^522 = 2 mod p, so those
	// products fold into column i+j-9 with an extra factor of two.
	a1_2 := a1 << 1
	a2_2 := a2 << 1
	a3_2 := a3 << 1
	a4_2 := a4 << 1
	a5_2 := a5 << 1
	a6_2 := a6 << 1
	a7_2 := a7 << 1
	a8_2 := a8 << 1

	// r0 = a0×b0 + 2×(a1×b8 + a2×b7 + a3×b6 + a4×b5 + a5×b4 + a6×b3 +
	//      a7×b2 + a8×b1)
	r0 := mul64(a0, b0)
	r0 = addMul64(r0, a1_2, b8)
	r0 = addMul64(r0, a2_2, b7)
	r0 = addMul64(r0, a3_2, b6)
	r0 = addMul64(r0, a4_2, b5)
	r0 = addMul64(r0, a5_2, b4)
	r0 = addMul64(r0, a6_2, b3)
	r0 = addMul64(r0, a7_2, b2)
	r0 = addMul64(r0, a8_2, b1)

	// r1 = a0×b1 + a1×b0 + 2×(a2×b8 + a3×b7 + a4×b6 + a5×b5 + a6×b4 +
	//      a7×b3 + a8×b2)
	r1 := mul64(a0, b1)
	r1 = addMul64(r1, a1, b0)
	r1 = addMul64(r1, a2_2, b8)
	r1 = addMul64(r1, a3_2, b7)
	r1 = addMul64(r1, a4_2, b6)
	r1 = addMul64(r1, a5_2, b5)
	r1 = addMul64(r1, a6_2, b4)
	r1 = addMul64(r1, a7_2, b3)
	r1 = addMul64(r1, a8_2, b2)

	// r2 = a0×b2 + a1×b1 + a2×b0 + 2×(a3×b8 + a4×b7 + a5×b6 + a6×b5 +
	//      a7×b4 + a8×b3)
	r2 := mul64(a0, b2)
	r2 = addMul64(r2, a1, b1)
	r2 = addMul64(r2, a2, b0)
	r2 = addMul64(r2, a3_2, b8)
	r2 = addMul64(r2, a4_2, b7)
	r2 = addMul64(r2, a5_2, b6)
	r2 = addMul64(r2, a6_2, b5)
	r2 = addMul64(r2, a7_2, b4)
	r2 = addMul64(r2, a8_2, b3)

	// r3 = a0×b3 + a1×b2 + a2×b1 + a3×b0 + 2×(a4×b8 + a5×b7 + a6×b6 +
	//      a7×b5 + a8×b4)
	r3 := mul64(a0, b3)
	r3 = addMul64(r3, a1, b2)
	r3 = addMul64(r3, a2, b1)
	r3 = addMul64(r3, a3, b0)
	r3 = addMul64(r3, a4_2, b8)
	r3 = addMul64(r3, a5_2, b7)
	r3 = addMul64(r3, a6_2, b6)
	r3 = addMul64(r3, a7_2, b5)
	r3 = addMul64(r3, a8_2, b4)

	// r4 = a0×b4 + a1×b3 + a2×b2 + a3×b1 + a4×b0 + 2×(a5×b8 + a6×b7 +
	//      a7×b6 + a8×b5)
	r4 := mul64(a0, b4)
	r4 = addMul64(r4, a1, b3)
	r4 = addMul64(r4, a2, b2)
	r4 = addMul64(r4, a3, b1)
	r4 = addMul64(r4, a4, b0)
	r4 = addMul64(r4, a5_2, b8)
	r4 = addMul64(r4, a6_2, b7)
	r4 = addMul64(r4, a7_2, b6)
	r4 = addMul64(r4, a8_2, b5)

	// r5 = a0×b5 + a1×b4 + a2×b3 + a3×b2 + a4×b1 + a5×b0 + 2×(a6×b8 +
	//      a7×b7 + a8×b6)
	r5 := mul64(a0, b5)
	r5 = addMul64(r5, a1, b4)
	r5 = addMul64(r5, a2, b3)
	r5 = addMul64(r5, a3, b2)
	r5 = addMul64(r5, a4, b1)
	r5 = addMul64(r5, a5, b0)
	r5 = addMul64(r5, a6_2, b8)
	r5 = addMul64(r5, a7_2, b7)
	r5 = addMul64(r5, a8_2, b6)

	// r6 = a0×b6 + a1×b5 + a2×b4 + a3×b3 + a4×b2 + a5×b1 + a6×b0 +
	//      2×(a7×b8 + a8×b7)
	r6 := mul64(a0, b6)
	r6 = addMul64(r6, a1, b5)
	r6 = addMul64(r6, a2, b4)
	r6 = addMul64(r6, a3, b3)
	r6 = addMul64(r6, a4, b2)
	r6 = addMul64(r6, a5, b1)
	r6 = addMul64(r6, a6, b0)
	r6 = addMul64(r6, a7_2, b8)
	r6 = addMul64(r6, a8_2, b7)

	// r7 = a0×b7 + a1×b6 + a2×b5 + a3×b4 + a4×b3 + a5×b2 + a6×b1 +
	//      a7×b0 + 2×a8×b8
	r7 := mul64(a0, b7)
	r7 = addMul64(r7, a1, b6)
	r7 = addMul64(r7, a2, b5)
	r7 = addMul64(r7, a3, b4)
	r7 = addMul64(r7, a4, b3)
	r7 = addMul64(r7, a5, b2)
	r7 = addMul64(r7, a6, b1)
	r7 = addMul64(r7, a7, b0)
	r7 = addMul64(r7, a8_2, b8)

	// r8 = a0×b8 + a1×b7 + a2×b6 + a3×b5 + a4×b4 + a5×b3 + a6×b2 +
	//      a7×b1 + a8×b0
	r8 := mul64(a0, b8)
	r8 = addMul64(r8, a1, b7)
	r8 = addMul64(r8, a2, b6)
	r8 = addMul64(r8, a3, b5)
	r8 = addMul64(r8, a4, b4)
	r8 = addMul64(r8, a5, b3)
	r8 = addMul64(r8, a6, b2)
	r8 = addMul64(r8, a7, b1)
	r8 = addMul64(r8, a8, b0)

	c0 := shiftRightBy58(r0)
	c1 := shiftRightBy58(r1)
	c2 := shiftRightBy58(r2)
	c3 := shiftRightBy58(r3)
	c4 := shiftRightBy58(r4)
	c5 := shiftRightBy58(r5)
	c6 := shiftRightBy58(r6)
	c7 := shiftRightBy58(r7)
	c8 := shiftRightBy57(r8)

	// The carry out of column 8 has weight 2^521 = 1 mod p.
	rr0 := r0.lo&maskLow58Bits + c8
	rr1 := r1.lo&maskLow58Bits + c0
	rr2 := r2.lo&maskLow58Bits + c1
	rr3 := r3.lo&maskLow58Bits + c2
	rr4 := r4.lo&maskLow58Bits + c3
	rr5 := r5.lo&maskLow58Bits + c4
	rr6 := r6.lo&maskLow58Bits + c5
	rr7 := r7.lo&maskLow58Bits + c6
	rr8 := r8.lo&maskLow57Bits + c7

	*v = Element{rr0, rr1, rr2, rr3, rr4, rr5, rr6, rr7, rr8}
	return v.carryPropagate()
}

// Square sets v = a * a mod p and returns v.
func (v *Element) Square(a *Element) *Element {
	a0 := a.l0
	a1 := a.l1
	a2 := a.l2
	a3 := a.l3
	a4 := a.l4
	a5 := a.l5
	a6 := a.l6
	a7 := a.l7
	a8 := a.l8

	// Cross products appear twice, and products folding across the 2^522
	// boundary pick up another factor of two, as in Multiply.
	a0_2 := a0 << 1
	a1_2 := a1 << 1
	a2_2 := a2 << 1
	a3_2 := a3 << 1
	a5_2 := a5 << 1
	a6_2 := a6 << 1
	a7_2 := a7 << 1
	a8_2 := a8 << 1

	a1_4 := a1 << 2
	a2_4 := a2 << 2
	a3_4 := a3 << 2
	a4_4 := a4 << 2
	a5_4 := a5 << 2
	a6_4 := a6 << 2
	a7_4 := a7 << 2

	// r0 = a0×a0 + 4×(a1×a8 + a2×a7 + a3×a6 + a4×a5)
	r0 := mul64(a0, a0)
	r0 = addMul64(r0, a1_4, a8)
	r0 = addMul64(r0, a2_4, a7)
	r0 = addMul64(r0, a3_4, a6)
	r0 = addMul64(r0, a4_4, a5)

	// r1 = 2×a0×a1 + 4×(a2×a8 + a3×a7 + a4×a6) + 2×a5×a5
	r1 := mul64(a0_2, a1)
	r1 = addMul64(r1, a2_4, a8)
	r1 = addMul64(r1, a3_4, a7)
	r1 = addMul64(r1, a4_4, a6)
	r1 = addMul64(r1, a5_2, a5)

	// r2 = 2×a0×a2 + a1×a1 + 4×(a3×a8 + a4×a7 + a5×a6)
	r2 := mul64(a0_2, a2)
	r2 = addMul64(r2, a1, a1)
	r2 = addMul64(r2, a3_4, a8)
	r2 = addMul64(r2, a4_4, a7)
	r2 = addMul64(r2, a5_4, a6)

	// r3 = 2×(a0×a3 + a1×a2) + 4×(a4×a8 + a5×a7) + 2×a6×a6
	r3 := mul64(a0_2, a3)
	r3 = addMul64(r3, a1_2, a2)
	r3 = addMul64(r3, a4_4, a8)
	r3 = addMul64(r3, a5_4, a7)
	r3 = addMul64(r3, a6_2, a6)

	// r4 = 2×(a0×a4 + a1×a3) + a2×a2 + 4×(a5×a8 + a6×a7)
	r4 := mul64(a0_2, a4)
	r4 = addMul64(r4, a1_2, a3)
	r4 = addMul64(r4, a2, a2)
	r4 = addMul64(r4, a5_4, a8)
	r4 = addMul64(r4, a6_4, a7)

	// r5 = 2×(a0×a5 + a1×a4 + a2×a3) + 4×a6×a8 + 2×a7×a7
	r5 := mul64(a0_2, a5)
	r5 = addMul64(r5, a1_2, a4)
	r5 = addMul64(r5, a2_2, a3)
	r5 = addMul64(r5, a6_4, a8)
	r5 = addMul64(r5, a7_2, a7)

	// r6 = 2×(a0×a6 + a1×a5 + a2×a4) + a3×a3 + 4×a7×a8
	r6 := mul64(a0_2, a6)
	r6 = addMul64(r6, a1_2, a5)
	r6 = addMul64(r6, a2_2, a4)
	r6 = addMul64(r6, a3, a3)
	r6 = addMul64(r6, a7_4, a8)

	// r7 = 2×(a0×a7 + a1×a6 + a2×a5 + a3×a4) + 2×a8×a8
	r7 := mul64(a0_2, a7)
	r7 = addMul64(r7, a1_2, a6)
	r7 = addMul64(r7, a2_2, a5)
	r7 = addMul64(r7, a3_2, a4)
	r7 = addMul64(r7, a8_2, a8)

	// r8 = 2×(a0×a8 + a1×a7 + a2×a6 + a3×a5) + a4×a4
	r8 := mul64(a0_2, a8)
	r8 = addMul64(r8, a1_2, a7)
	r8 = addMul64(r8, a2_2, a6)
	r8 = addMul64(r8, a3_2, a5)
	r8 = addMul64(r8, a4, a4)

	c0 := shiftRightBy58(r0)
	c1 := shiftRightBy58(r1)
	c2 := shiftRightBy58(r2)
	c3 := shiftRightBy58(r3)
	c4 := shiftRightBy58(r4)
	c5 := shiftRightBy58(r5)
	c6 := shiftRightBy58(r6)
	c7 := shiftRightBy58(r7)
	c8 := shiftRightBy57(r8)

	rr0 := r0.lo&maskLow58Bits + c8
	rr1 := r1.lo&maskLow58Bits + c0
	rr2 := r2.lo&maskLow58Bits + c1
	rr3 := r3.lo&maskLow58Bits + c2
	rr4 := r4.lo&maskLow58Bits + c3
	rr5 := r5.lo&maskLow58Bits + c4
	rr6 := r6.lo&maskLow58Bits + c5
	rr7 := r7.lo&maskLow58Bits + c6
	rr8 := r8.lo&maskLow57Bits + c7

	*v = Element{rr0, rr1, rr2, rr3, rr4, rr5, rr6, rr7, rr8}
	return v.carryPropagate()
}
