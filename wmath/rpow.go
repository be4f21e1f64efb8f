package wmath

import (
	"github.com/holiman/uint256"
)

// Rpow computes (x/ray)^n scaled back by ray, where x is itself a ray-scaled
// fixed-point value. Binary exponentiation with round-to-nearest at every
// squaring and fold step: each intermediate product gets ray/2 added before
// the divide, so exact integer powers come out exact and fractional bases
// stay within one unit per step.
//
// Ported from the SSR oracle rpow:
// https://github.com/sparkdotfi/xchain-ssr-oracle/blob/0593279e/src/SSROracleBase.sol#L123-L146
//
// Any detected overflow aborts the whole computation; there is no partial
// result. Cost is O(log n) multiplications, so a long elapsed duration stays
// cheap.
func Rpow(x, n, ray *uint256.Int) (*uint256.Int, bool) {
	if ray == nil || ray.IsZero() {
		return nil, false
	}
	if x.IsZero() {
		if n.IsZero() {
			// 0^0 = 1.0 by definition
			return new(uint256.Int).Set(ray), true
		}
		return new(uint256.Int), true
	}

	z := new(uint256.Int)
	if n[0]&1 == 0 {
		z.Set(ray)
	} else {
		z.Set(x)
	}

	half := new(uint256.Int).Rsh(ray, 1)
	base := new(uint256.Int).Set(x)
	exp := new(uint256.Int).Rsh(n, 1)

	var scratch uint256.Int
	for !exp.IsZero() {
		if _, overflow := scratch.MulOverflow(base, base); overflow {
			return nil, false
		}
		if _, overflow := scratch.AddOverflow(&scratch, half); overflow {
			return nil, false
		}
		base.Div(&scratch, ray)

		if exp[0]&1 == 1 {
			if _, overflow := scratch.MulOverflow(z, base); overflow {
				return nil, false
			}
			if _, overflow := scratch.AddOverflow(&scratch, half); overflow {
				return nil, false
			}
			z.Div(&scratch, ray)
		}

		exp.Rsh(exp, 1)
	}
	return z, true
}
