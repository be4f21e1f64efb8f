// Package curve implements the swap program's pricing curves: the
// constant-price curve and the redemption-rate curve with its compounding
// conversion index. All amount math runs through the checked 256-bit helpers
// in wmath; amounts themselves are 128-bit values carried in uint256.Int.
package curve

import (
	"errors"

	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"

	"hadydotai/redemption-swap/wmath"
)

// Ray is the fixed-point scaling factor representing 1.0 (10^27).
var Ray = uint256.MustFromDecimal("1000000000000000000000000000")

var two = uint256.NewInt(2)

// Named failures, one per violated invariant, so callers can report
// precisely which check rejected an operation.
var (
	// ErrCalculation covers arithmetic overflow, underflow and division by
	// zero anywhere in the amount math. The whole operation is abandoned.
	ErrCalculation = errors.New("curve calculation failed")
	// ErrZeroTradingTokens rejects a swap that would move zero of either side.
	ErrZeroTradingTokens = errors.New("swap would transfer zero trading tokens")
	// ErrInvalidCurve rejects a curve whose effective price or rate is zero.
	ErrInvalidCurve = errors.New("curve parameters are invalid")
	// ErrEmptySupply rejects pool initialization with no reference token.
	ErrEmptySupply = errors.New("pool supply of the reference token is empty")
	// ErrMissingTimestamp rejects rate-based operations with no timestamp.
	ErrMissingTimestamp = errors.New("timestamp required but not supplied")
	// ErrInvalidRho rejects a rate update whose rho decreases or sits in the future.
	ErrInvalidRho = errors.New("rho must not decrease or be in the future")
	// ErrInvalidSsr rejects a rate update whose ssr is outside [ray, max_ssr].
	ErrInvalidSsr = errors.New("ssr outside the allowed rate band")
	// ErrInvalidChi rejects a rate update whose chi decreases or grows
	// faster than max_ssr allows.
	ErrInvalidChi = errors.New("chi must not decrease or outgrow the rate cap")
)

// TradeDirection names which side of the pair the source amount is on.
type TradeDirection uint8

const (
	// TradeDirectionAtoB sells token A for token B.
	TradeDirectionAtoB TradeDirection = iota
	// TradeDirectionBtoA sells token B for token A.
	TradeDirectionBtoA
)

// Opposite returns the reversed direction.
func (d TradeDirection) Opposite() TradeDirection {
	if d == TradeDirectionAtoB {
		return TradeDirectionBtoA
	}
	return TradeDirectionAtoB
}

// RoundDirection selects which party absorbs the integer-truncation
// remainder: Floor favors the user, Ceiling favors the pool.
type RoundDirection uint8

const (
	// RoundFloor truncates down.
	RoundFloor RoundDirection = iota
	// RoundCeiling rounds up.
	RoundCeiling
)

// SwapWithoutFeesResult holds both legs of a computed swap.
type SwapWithoutFeesResult struct {
	SourceAmountSwapped      *uint256.Int
	DestinationAmountSwapped *uint256.Int
}

// TradingTokenResult holds the two token amounts a pool-token conversion
// resolves to.
type TradingTokenResult struct {
	TokenAAmount *uint256.Int
	TokenBAmount *uint256.Int
}

// CurveCalculator is the contract every curve variant implements. The
// timestamp parameter is required by the redemption-rate curve and ignored
// by the constant-price curve; nil means "not supplied".
type CurveCalculator interface {
	// SwapWithoutFees computes both legs of a swap at the curve's price,
	// before any fee logic.
	SwapWithoutFees(sourceAmount, swapSourceAmount, swapDestinationAmount *uint256.Int, direction TradeDirection, timestamp *uint256.Int) (*SwapWithoutFeesResult, error)
	// PoolTokensToTradingTokens converts pool tokens into the proportional
	// amounts of each trading token, rounding per round.
	PoolTokensToTradingTokens(poolTokens, poolTokenSupply, swapTokenAAmount, swapTokenBAmount *uint256.Int, round RoundDirection, timestamp *uint256.Int) (*TradingTokenResult, error)
	// DepositSingleTokenType prices a one-sided deposit in pool tokens,
	// always flooring so the pool is never over-credited.
	DepositSingleTokenType(sourceAmount, swapTokenAAmount, swapTokenBAmount, poolSupply *uint256.Int, direction TradeDirection, timestamp *uint256.Int) (*uint256.Int, error)
	// WithdrawSingleTokenTypeExactOut prices a one-sided withdrawal for an
	// exact output amount, rounding per round.
	WithdrawSingleTokenTypeExactOut(sourceAmount, swapTokenAAmount, swapTokenBAmount, poolSupply *uint256.Int, direction TradeDirection, round RoundDirection, timestamp *uint256.Int) (*uint256.Int, error)
	// NormalizedValue measures total pool worth in a common unit,
	// (reserveA + reserveB converted to A) / 2.
	NormalizedValue(swapTokenAAmount, swapTokenBAmount *uint256.Int, timestamp *uint256.Int) (*uint256.Int, error)
	// Validate rejects a degenerate curve.
	Validate(timestamp *uint256.Int) error
	// ValidateSupply rejects pool initialization with zero reference tokens.
	ValidateSupply(tokenAAmount, tokenBAmount uint64) error
	// Type returns the wire discriminant of the variant.
	Type() CurveType
	// Pack serializes the variant's fields as consecutive 16-byte
	// little-endian values in declared order.
	Pack() ([]byte, error)
}

// zeroToErr mirrors the program's map_zero_to_none: a computed amount of
// zero rejects the whole swap.
func zeroToErr(amount *uint256.Int) (*uint256.Int, error) {
	if amount.IsZero() {
		return nil, ErrZeroTradingTokens
	}
	return amount, nil
}

// narrow checks that a wide intermediate fits back into the 128-bit amount
// domain.
func narrow(x *uint256.Int) (*uint256.Int, error) {
	if !wmath.IsU128(x) {
		return nil, ErrCalculation
	}
	return x, nil
}

func toUint128(v *uint256.Int) (bin.Uint128, bool) {
	if v == nil || !wmath.IsU128(v) {
		return bin.Uint128{}, false
	}
	return bin.Uint128{Lo: v[0], Hi: v[1]}, true
}

func fromUint128(u bin.Uint128) *uint256.Int {
	z := new(uint256.Int)
	z[0], z[1] = u.Lo, u.Hi
	return z
}

// tradingTokensToPoolTokens prices an amount of token A or B in pool tokens
// against the pool's total normalized value. Shared by both curve variants;
// only the price source differs.
func tradingTokensToPoolTokens(tokenBPrice, ray, sourceAmount, swapTokenAAmount, swapTokenBAmount, poolSupply *uint256.Int, direction TradeDirection, round RoundDirection) (*uint256.Int, error) {
	var givenValue *uint256.Int
	switch direction {
	case TradeDirectionAtoB:
		givenValue = new(uint256.Int).Set(sourceAmount)
	case TradeDirectionBtoA:
		prod, ok := wmath.Mul(sourceAmount, tokenBPrice)
		if !ok {
			return nil, ErrCalculation
		}
		givenValue, ok = wmath.Div(prod, ray)
		if !ok {
			return nil, ErrCalculation
		}
	}

	bValue, ok := wmath.Mul(swapTokenBAmount, tokenBPrice)
	if !ok {
		return nil, ErrCalculation
	}
	bValue, ok = wmath.Div(bValue, ray)
	if !ok {
		return nil, ErrCalculation
	}
	totalValue, ok := wmath.Add(bValue, swapTokenAAmount)
	if !ok {
		return nil, ErrCalculation
	}

	num, ok := wmath.Mul(poolSupply, givenValue)
	if !ok {
		return nil, ErrCalculation
	}
	var poolTokens *uint256.Int
	switch round {
	case RoundFloor:
		poolTokens, ok = wmath.Div(num, totalValue)
	case RoundCeiling:
		poolTokens, ok = wmath.CeilDiv(num, totalValue)
	}
	if !ok {
		return nil, ErrCalculation
	}
	return narrow(poolTokens)
}
