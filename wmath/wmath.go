// Package wmath provides overflow-checked 256-bit arithmetic for amount math.
//
// Every pool-scale product or quotient in the curve code must go through
// these helpers so the overflow-safety argument lives in one place. Each
// operation reports success with a comma-ok bool instead of wrapping or
// panicking; a false result means the whole enclosing computation has to be
// abandoned.
package wmath

import (
	"github.com/holiman/uint256"
)

var one = uint256.NewInt(1)

// MaxU128 is the largest value representable in the 128-bit amount domain.
var MaxU128 = func() *uint256.Int {
	z := new(uint256.Int)
	z[0] = ^uint64(0)
	z[1] = ^uint64(0)
	return z
}()

// IsU128 reports whether x fits the 128-bit amount domain. Narrowing a wide
// intermediate back to an amount must be gated on this.
func IsU128(x *uint256.Int) bool {
	return x != nil && x.BitLen() <= 128
}

// Mul returns a*b, failing on 256-bit overflow.
func Mul(a, b *uint256.Int) (*uint256.Int, bool) {
	res, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, false
	}
	return res, true
}

// Div returns a/b truncated toward zero, failing on division by zero.
func Div(a, b *uint256.Int) (*uint256.Int, bool) {
	if b.IsZero() {
		return nil, false
	}
	return new(uint256.Int).Div(a, b), true
}

// Add returns a+b, failing on 256-bit overflow.
func Add(a, b *uint256.Int) (*uint256.Int, bool) {
	res, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, false
	}
	return res, true
}

// Sub returns a-b, failing when b > a.
func Sub(a, b *uint256.Int) (*uint256.Int, bool) {
	if a.Lt(b) {
		return nil, false
	}
	return new(uint256.Int).Sub(a, b), true
}

// CeilDiv returns ceil(a/b) computed as (a+b-1)/b with every step checked,
// so the rounding add can never silently overflow.
func CeilDiv(a, b *uint256.Int) (*uint256.Int, bool) {
	if b.IsZero() {
		return nil, false
	}
	bm1 := new(uint256.Int).Sub(b, one)
	sum, overflow := new(uint256.Int).AddOverflow(a, bm1)
	if overflow {
		return nil, false
	}
	return sum.Div(sum, b), true
}
