package wmath

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

var ray = uint256.MustFromDecimal("1000000000000000000000000000") // 10^27

const (
	secondsPerYear = 365 * 24 * 60 * 60
)

var (
	// Per-second rates equivalent to 5% and 100% APY, ray-scaled.
	fivePctAPYSSR       = uint256.MustFromDecimal("1000000001547125957863212448")
	oneHundredPctAPYSSR = uint256.MustFromDecimal("1000000021979553151239153020")
)

func mustRpow(t *testing.T, x, n *uint256.Int) *uint256.Int {
	t.Helper()
	z, ok := Rpow(x, n, ray)
	if !ok {
		t.Fatalf("Rpow(%s, %s) failed unexpectedly", x, n)
	}
	return z
}

func rayMul(k uint64) *uint256.Int {
	return new(uint256.Int).Mul(ray, uint256.NewInt(k))
}

func rayDiv(k uint64) *uint256.Int {
	return new(uint256.Int).Div(ray, uint256.NewInt(k))
}

// assertCloseToFloat checks actual against expected*ray within tolerancePct
// percent (1.0 means 1%).
func assertCloseToFloat(t *testing.T, actual *uint256.Int, expected float64, tolerancePct float64) {
	t.Helper()
	rayFloat := new(big.Float).SetInt(ray.ToBig())
	want, _ := new(big.Float).Mul(big.NewFloat(expected), rayFloat).Int(nil)
	got := actual.ToBig()
	diff := new(big.Int).Sub(got, want)
	diff.Abs(diff)
	tolerance := new(big.Int).Mul(want, big.NewInt(int64(tolerancePct*1000)))
	tolerance.Div(tolerance, big.NewInt(100000))
	if diff.Cmp(tolerance) > 0 {
		t.Fatalf("values not close enough: actual %s, expected %s, diff %s, tolerance %s (%v%%)",
			got, want, diff, tolerance, tolerancePct)
	}
}

func TestRpowIdentityCases(t *testing.T) {
	zero := new(uint256.Int)

	// x^0 = 1.0 for any x > 0
	if got := mustRpow(t, ray, zero); !got.Eq(ray) {
		t.Fatalf("ray^0 = %s, want ray", got)
	}
	if got := mustRpow(t, rayMul(2), zero); !got.Eq(ray) {
		t.Fatalf("(2*ray)^0 = %s, want ray", got)
	}

	// 0^0 = 1.0 by definition
	if got := mustRpow(t, zero, zero); !got.Eq(ray) {
		t.Fatalf("0^0 = %s, want ray", got)
	}

	// 0^n = 0 for n > 0
	if got := mustRpow(t, zero, uint256.NewInt(1)); !got.IsZero() {
		t.Fatalf("0^1 = %s, want 0", got)
	}
	if got := mustRpow(t, zero, uint256.NewInt(100)); !got.IsZero() {
		t.Fatalf("0^100 = %s, want 0", got)
	}

	// x^1 = x
	if got := mustRpow(t, ray, uint256.NewInt(1)); !got.Eq(ray) {
		t.Fatalf("ray^1 = %s, want ray", got)
	}
	if got := mustRpow(t, rayMul(2), uint256.NewInt(1)); !got.Eq(rayMul(2)) {
		t.Fatalf("(2*ray)^1 = %s, want 2*ray", got)
	}

	// ray^n = ray for any n
	for _, n := range []uint64{2, 7, 1000, secondsPerYear} {
		if got := mustRpow(t, ray, uint256.NewInt(n)); !got.Eq(ray) {
			t.Fatalf("ray^%d = %s, want ray", n, got)
		}
	}
}

func TestRpowIntegerPowers(t *testing.T) {
	// base = k*ray for small k must come out exactly k^e * ray
	for k := uint64(1); k <= 20; k++ {
		for e := uint64(1); e <= 10; e++ {
			exact := uint64(1)
			for i := uint64(0); i < e; i++ {
				exact *= k
			}
			got := mustRpow(t, rayMul(k), uint256.NewInt(e))
			if !got.Eq(rayMul(exact)) {
				t.Fatalf("(%d*ray)^%d = %s, want %d*ray", k, e, got, exact)
			}
		}
	}
}

func TestRpowFractionalBase(t *testing.T) {
	// (1/d)^e stays within one unit of ray/d^e
	for d := uint64(2); d <= 20; d++ {
		for e := uint64(1); e <= 5; e++ {
			denomPower := uint64(1)
			for i := uint64(0); i < e; i++ {
				denomPower *= d
			}
			want := rayDiv(denomPower)
			got := mustRpow(t, rayDiv(d), uint256.NewInt(e))
			diff := new(uint256.Int)
			if got.Gt(want) {
				diff.Sub(got, want)
			} else {
				diff.Sub(want, got)
			}
			if diff.GtUint64(1) {
				t.Fatalf("(ray/%d)^%d = %s, want %s, diff %s", d, e, got, want, diff)
			}
		}
	}
}

func TestRpowSpecificFractionalCases(t *testing.T) {
	cases := []struct {
		base, want *uint256.Int
		exp        uint64
	}{
		{rayDiv(2), rayDiv(4), 2},    // 0.5^2 = 0.25
		{rayDiv(2), rayDiv(8), 3},    // 0.5^3 = 0.125
		{rayDiv(10), rayDiv(100), 2}, // 0.1^2 = 0.01
		{rayDiv(4), rayDiv(256), 4},  // 0.25^4
		{rayDiv(5), rayDiv(125), 3},  // 0.2^3
	}
	for _, c := range cases {
		if got := mustRpow(t, c.base, uint256.NewInt(c.exp)); !got.Eq(c.want) {
			t.Fatalf("%s^%d = %s, want %s", c.base, c.exp, got, c.want)
		}
	}
}

func TestRpowAgainstFloatingPoint(t *testing.T) {
	// 1.5^2 = 2.25
	base := new(uint256.Int).Add(ray, rayDiv(2))
	assertCloseToFloat(t, mustRpow(t, base, uint256.NewInt(2)), 2.25, 1.0)

	// 1.1^10 ≈ 2.5937...
	base = new(uint256.Int).Add(ray, rayDiv(10))
	assertCloseToFloat(t, mustRpow(t, base, uint256.NewInt(10)), 2.5937424601, 1.0)

	// 0.9^5 ≈ 0.59049
	base = new(uint256.Int).Sub(ray, rayDiv(10))
	assertCloseToFloat(t, mustRpow(t, base, uint256.NewInt(5)), 0.59049, 1.0)
}

func TestRpowInterestRates(t *testing.T) {
	year := uint256.NewInt(secondsPerYear)

	assertCloseToFloat(t, mustRpow(t, fivePctAPYSSR, year), 1.05, 0.001)

	twoYears := uint256.NewInt(2 * secondsPerYear)
	assertCloseToFloat(t, mustRpow(t, fivePctAPYSSR, twoYears), 1.1025, 0.001)

	assertCloseToFloat(t, mustRpow(t, oneHundredPctAPYSSR, year), 2.0, 0.001)

	// (1.05)^50 ≈ 11.4673965971
	fiftyYears := uint256.NewInt(50 * secondsPerYear)
	assertCloseToFloat(t, mustRpow(t, fivePctAPYSSR, fiftyYears), 11.467396597107005, 0.01)

	// (1.05)^100 ≈ 131.5012578491
	hundredYears := uint256.NewInt(100 * secondsPerYear)
	assertCloseToFloat(t, mustRpow(t, fivePctAPYSSR, hundredYears), 131.5012578490916, 0.1)
}

func TestRpowRoundingBehavior(t *testing.T) {
	// 1.5^2 = 2.25 exactly, no rounding needed
	base := new(uint256.Int).Add(ray, rayDiv(2))
	want := new(uint256.Int).Div(rayMul(9), uint256.NewInt(4))
	if got := mustRpow(t, base, uint256.NewInt(2)); !got.Eq(want) {
		t.Fatalf("1.5^2 = %s, want %s", got, want)
	}

	// 1.1^3 = 1.331 exactly representable in ray
	base = new(uint256.Int).Add(ray, rayDiv(10))
	want = new(uint256.Int).Div(rayMul(1331), uint256.NewInt(1000))
	if got := mustRpow(t, base, uint256.NewInt(3)); !got.Eq(want) {
		t.Fatalf("1.1^3 = %s, want %s", got, want)
	}

	// base just above 1.0: round-to-nearest keeps each fold within one unit
	baseSmall := new(uint256.Int).AddUint64(ray, 1)
	wantOdd := new(uint256.Int).AddUint64(ray, 3)
	wantEven := new(uint256.Int).AddUint64(ray, 4)
	gotOdd := mustRpow(t, baseSmall, uint256.NewInt(3))
	gotEven := mustRpow(t, baseSmall, uint256.NewInt(4))
	if !gotOdd.Eq(wantOdd) {
		t.Fatalf("(ray+1)^3 = %s, want %s", gotOdd, wantOdd)
	}
	if !gotEven.Eq(wantEven) {
		t.Fatalf("(ray+1)^4 = %s, want %s", gotEven, wantEven)
	}
	if !gotEven.Gt(gotOdd) {
		t.Fatalf("higher exponent should yield larger result")
	}
}

func TestRpowLargeExponentGrowth(t *testing.T) {
	year := uint256.NewInt(secondsPerYear)
	twoYears := uint256.NewInt(2 * secondsPerYear)
	exp1y := mustRpow(t, fivePctAPYSSR, year)
	exp2y := mustRpow(t, fivePctAPYSSR, twoYears)
	if !exp2y.Gt(exp1y) {
		t.Fatalf("two years of accrual must exceed one year")
	}
	expectedMin := new(uint256.Int).Add(ray, rayDiv(20)) // 5% growth
	diff := new(uint256.Int)
	if exp1y.Gt(expectedMin) {
		diff.Sub(exp1y, expectedMin)
	} else {
		diff.Sub(expectedMin, exp1y)
	}
	if diff.Gt(uint256.NewInt(100_000_000_000)) {
		t.Fatalf("one-year accrual off by %s", diff)
	}
}

func TestRpowOverflowProtection(t *testing.T) {
	// 100% APY compounded over 10 years: must produce a bounded value or a
	// clean failure, never a wrapped result.
	tenYears := uint256.NewInt(10 * secondsPerYear)
	z, ok := Rpow(oneHundredPctAPYSSR, tenYears, ray)
	if !ok {
		t.Fatalf("10-year accrual at 100%% APY should still fit 256 bits")
	}
	if z.IsZero() {
		t.Fatalf("accrual result must be positive")
	}
	// ~2^10 = 1024x growth
	assertCloseToFloat(t, z, 1024.0, 1.0)
}

func TestRpowZeroRay(t *testing.T) {
	if _, ok := Rpow(ray, uint256.NewInt(2), new(uint256.Int)); ok {
		t.Fatalf("expected failure for zero scaling factor")
	}
}
