package curve

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"

	"hadydotai/redemption-swap/wmath"
)

// RedemptionRateCurveLen is the packed byte length of the curve's fields.
const RedemptionRateCurveLen = 80

// RedemptionRateCurve prices token B through a continuously-compounding
// conversion index, in the manner of the Spark PSM3 savings-rate oracle.
// The stored record is a checkpoint: Chi is the index value observed at
// time Rho, and Ssr compounds it forward per second from there.
type RedemptionRateCurve struct {
	// Ray is the fixed-point scaling factor, set once at pool creation.
	Ray *uint256.Int
	// MaxSsr caps how fast the index may be claimed to grow between
	// checkpoints. Zero disables the cap.
	MaxSsr *uint256.Int
	// Ssr is the per-second compounding multiplier, scaled by Ray.
	Ssr *uint256.Int
	// Rho is the timestamp (seconds) of the last committed checkpoint.
	Rho *uint256.Int
	// Chi is the accumulated conversion index at Rho, scaled by Ray.
	Chi *uint256.Int
}

// ConversionRate projects the conversion index from the last checkpoint to
// the supplied timestamp: chi * ssr^(timestamp-rho). At the checkpoint
// itself the stored chi is returned untouched. This is the only place
// elapsed time affects pricing.
func (c *RedemptionRateCurve) ConversionRate(timestamp *uint256.Int) (*uint256.Int, error) {
	if timestamp == nil {
		return nil, ErrMissingTimestamp
	}
	if timestamp.Eq(c.Rho) {
		return new(uint256.Int).Set(c.Chi), nil
	}
	duration, ok := wmath.Sub(timestamp, c.Rho)
	if !ok {
		return nil, ErrCalculation
	}
	growth, ok := wmath.Rpow(c.Ssr, duration, c.Ray)
	if !ok {
		return nil, ErrCalculation
	}
	rate, ok := wmath.Mul(growth, c.Chi)
	if !ok {
		return nil, ErrCalculation
	}
	rate, ok = wmath.Div(rate, c.Ray)
	if !ok {
		return nil, ErrCalculation
	}
	return rate, nil
}

// SetRates validates a new checkpoint against the stored one and returns a
// fresh curve carrying it; the receiver is never mutated. The very first
// commit (stored rho of zero) skips the roll-forward comparisons, since
// there is no prior checkpoint to compare against.
func (c *RedemptionRateCurve) SetRates(ssr, rho, chi, now *uint256.Int) (*RedemptionRateCurve, error) {
	if rho.Gt(now) {
		return nil, fmt.Errorf("rho %s ahead of current timestamp %s: %w", rho, now, ErrInvalidRho)
	}
	if ssr.Lt(c.Ray) {
		return nil, fmt.Errorf("ssr %s below ray: %w", ssr, ErrInvalidSsr)
	}
	if !c.MaxSsr.IsZero() && ssr.Gt(c.MaxSsr) {
		return nil, fmt.Errorf("ssr %s above max %s: %w", ssr, c.MaxSsr, ErrInvalidSsr)
	}

	if !c.Rho.IsZero() {
		if rho.Lt(c.Rho) {
			return nil, fmt.Errorf("rho %s before checkpoint %s: %w", rho, c.Rho, ErrInvalidRho)
		}
		if chi.Lt(c.Chi) {
			return nil, fmt.Errorf("chi %s below checkpoint %s: %w", chi, c.Chi, ErrInvalidChi)
		}
		if !c.MaxSsr.IsZero() {
			duration, ok := wmath.Sub(rho, c.Rho)
			if !ok {
				return nil, ErrCalculation
			}
			growth, ok := wmath.Rpow(c.MaxSsr, duration, c.Ray)
			if !ok {
				return nil, ErrCalculation
			}
			chiMax, ok := wmath.Mul(growth, c.Chi)
			if !ok {
				return nil, ErrCalculation
			}
			chiMax, ok = wmath.Div(chiMax, c.Ray)
			if !ok {
				return nil, ErrCalculation
			}
			if chi.Gt(chiMax) {
				return nil, fmt.Errorf("chi %s exceeds max realizable %s: %w", chi, chiMax, ErrInvalidChi)
			}
		}
	}

	return &RedemptionRateCurve{
		Ray:    new(uint256.Int).Set(c.Ray),
		MaxSsr: new(uint256.Int).Set(c.MaxSsr),
		Ssr:    new(uint256.Int).Set(ssr),
		Rho:    new(uint256.Int).Set(rho),
		Chi:    new(uint256.Int).Set(chi),
	}, nil
}

// SwapWithoutFees swaps at the conversion index projected to timestamp. The
// reserves play no part in pricing; the curve is a pure rate.
func (c *RedemptionRateCurve) SwapWithoutFees(sourceAmount, _, _ *uint256.Int, direction TradeDirection, timestamp *uint256.Int) (*SwapWithoutFeesResult, error) {
	tokenBPrice, err := c.ConversionRate(timestamp)
	if err != nil {
		return nil, err
	}
	return swapAtPrice(sourceAmount, tokenBPrice, c.Ray, direction)
}

// PoolTokensToTradingTokens converts pool tokens into amounts of each
// trading token against the pool's normalized value at timestamp. Floored
// results are clamped to the reserves so a redemption can never pay out
// more than the pool holds.
func (c *RedemptionRateCurve) PoolTokensToTradingTokens(poolTokens, poolTokenSupply, swapTokenAAmount, swapTokenBAmount *uint256.Int, round RoundDirection, timestamp *uint256.Int) (*TradingTokenResult, error) {
	tokenBPrice, err := c.ConversionRate(timestamp)
	if err != nil {
		return nil, err
	}
	totalValue, err := c.NormalizedValue(swapTokenAAmount, swapTokenBAmount, timestamp)
	if err != nil {
		return nil, err
	}

	valueShare, ok := wmath.Mul(poolTokens, totalValue)
	if !ok {
		return nil, ErrCalculation
	}

	var amountA, amountB *uint256.Int
	switch round {
	case RoundFloor:
		if amountA, ok = wmath.Div(valueShare, poolTokenSupply); !ok {
			return nil, ErrCalculation
		}
		if amountA.Gt(swapTokenAAmount) {
			amountA = new(uint256.Int).Set(swapTokenAAmount)
		}
		shareAsB, okB := wmath.Mul(valueShare, c.Ray)
		if !okB {
			return nil, ErrCalculation
		}
		if shareAsB, okB = wmath.Div(shareAsB, tokenBPrice); !okB {
			return nil, ErrCalculation
		}
		if amountB, okB = wmath.Div(shareAsB, poolTokenSupply); !okB {
			return nil, ErrCalculation
		}
		if amountB.Gt(swapTokenBAmount) {
			amountB = new(uint256.Int).Set(swapTokenBAmount)
		}
	case RoundCeiling:
		if amountA, ok = wmath.CeilDiv(valueShare, poolTokenSupply); !ok {
			return nil, ErrCalculation
		}
		shareAsB, okB := wmath.Mul(valueShare, c.Ray)
		if !okB {
			return nil, ErrCalculation
		}
		if shareAsB, okB = wmath.CeilDiv(shareAsB, tokenBPrice); !okB {
			return nil, ErrCalculation
		}
		if amountB, okB = wmath.CeilDiv(shareAsB, poolTokenSupply); !okB {
			return nil, ErrCalculation
		}
	}

	if amountA, err = narrow(amountA); err != nil {
		return nil, err
	}
	if amountB, err = narrow(amountB); err != nil {
		return nil, err
	}
	return &TradingTokenResult{TokenAAmount: amountA, TokenBAmount: amountB}, nil
}

// DepositSingleTokenType prices a one-sided deposit in pool tokens at the
// projected conversion index, flooring in the pool's favor.
func (c *RedemptionRateCurve) DepositSingleTokenType(sourceAmount, swapTokenAAmount, swapTokenBAmount, poolSupply *uint256.Int, direction TradeDirection, timestamp *uint256.Int) (*uint256.Int, error) {
	tokenBPrice, err := c.ConversionRate(timestamp)
	if err != nil {
		return nil, err
	}
	return tradingTokensToPoolTokens(tokenBPrice, c.Ray, sourceAmount, swapTokenAAmount, swapTokenBAmount, poolSupply, direction, RoundFloor)
}

// WithdrawSingleTokenTypeExactOut prices the pool tokens needed for an
// exact one-sided withdrawal at the projected conversion index.
func (c *RedemptionRateCurve) WithdrawSingleTokenTypeExactOut(sourceAmount, swapTokenAAmount, swapTokenBAmount, poolSupply *uint256.Int, direction TradeDirection, round RoundDirection, timestamp *uint256.Int) (*uint256.Int, error) {
	tokenBPrice, err := c.ConversionRate(timestamp)
	if err != nil {
		return nil, err
	}
	return tradingTokensToPoolTokens(tokenBPrice, c.Ray, sourceAmount, swapTokenAAmount, swapTokenBAmount, poolSupply, direction, round)
}

// Validate requires a timestamp and a non-zero projected rate.
func (c *RedemptionRateCurve) Validate(timestamp *uint256.Int) error {
	if timestamp == nil {
		return ErrMissingTimestamp
	}
	rate, err := c.ConversionRate(timestamp)
	if err != nil {
		return err
	}
	if rate.IsZero() {
		return ErrInvalidCurve
	}
	return nil
}

// ValidateSupply rejects pool initialization without token A.
func (c *RedemptionRateCurve) ValidateSupply(tokenAAmount, _ uint64) error {
	if tokenAAmount == 0 {
		return ErrEmptySupply
	}
	return nil
}

// NormalizedValue is (tokenA + tokenB converted to A) / 2 at the projected
// rate. When the converted token-B value runs close to the 128-bit limit,
// both operands are halved before summing instead of after, so the sum
// itself cannot leave the amount domain.
func (c *RedemptionRateCurve) NormalizedValue(swapTokenAAmount, swapTokenBAmount *uint256.Int, timestamp *uint256.Int) (*uint256.Int, error) {
	tokenBPrice, err := c.ConversionRate(timestamp)
	if err != nil {
		return nil, err
	}
	bValue, ok := wmath.Mul(swapTokenBAmount, tokenBPrice)
	if !ok {
		return nil, ErrCalculation
	}
	bValue, ok = wmath.Div(bValue, c.Ray)
	if !ok {
		return nil, ErrCalculation
	}

	var value *uint256.Int
	if nearAmountLimit(bValue) {
		halfB, okH := wmath.Div(bValue, two)
		if !okH {
			return nil, ErrCalculation
		}
		halfA, okH := wmath.Div(swapTokenAAmount, two)
		if !okH {
			return nil, ErrCalculation
		}
		if value, okH = wmath.Add(halfB, halfA); !okH {
			return nil, ErrCalculation
		}
	} else {
		sum, okS := wmath.Add(swapTokenAAmount, bValue)
		if !okS {
			return nil, ErrCalculation
		}
		if value, okS = wmath.Div(sum, two); !okS {
			return nil, ErrCalculation
		}
	}
	return narrow(value)
}

var maxU64 = uint256.NewInt(^uint64(0))

// nearAmountLimit reports whether a converted value is within one u64 of
// the 128-bit boundary, the trigger for the halve-before-sum path above.
func nearAmountLimit(v *uint256.Int) bool {
	lhs := new(uint256.Int)
	if v.Gt(maxU64) {
		lhs.Sub(v, maxU64)
	}
	threshold := new(uint256.Int).Sub(wmath.MaxU128, maxU64)
	return lhs.Gt(threshold)
}

// Type returns the redemption-rate wire discriminant.
func (c *RedemptionRateCurve) Type() CurveType {
	return CurveTypeRedemptionRate
}

// Pack writes ray, max_ssr, ssr, rho, chi as consecutive 16-byte
// little-endian fields, 80 bytes total. This layout is depended on by the
// on-chain account format and must not change.
func (c *RedemptionRateCurve) Pack() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	for _, field := range []*uint256.Int{c.Ray, c.MaxSsr, c.Ssr, c.Rho, c.Chi} {
		u, ok := toUint128(field)
		if !ok {
			return nil, fmt.Errorf("pack redemption rate curve: %w", ErrInvalidCurve)
		}
		if err := enc.WriteUint128(u, binary.LittleEndian); err != nil {
			return nil, fmt.Errorf("pack redemption rate curve: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// UnpackRedemptionRateCurve decodes the 80-byte little-endian field layout.
// Longer input is allowed; the curve reads only its own prefix.
func UnpackRedemptionRateCurve(data []byte) (*RedemptionRateCurve, error) {
	if len(data) < RedemptionRateCurveLen {
		return nil, fmt.Errorf("redemption rate curve blob too short: %d < %d", len(data), RedemptionRateCurveLen)
	}
	dec := bin.NewBinDecoder(data[:RedemptionRateCurveLen])
	fields := make([]*uint256.Int, 5)
	for i := range fields {
		u, err := dec.ReadUint128(binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("unpack redemption rate curve: %w", err)
		}
		fields[i] = fromUint128(u)
	}
	return &RedemptionRateCurve{
		Ray:    fields[0],
		MaxSsr: fields[1],
		Ssr:    fields[2],
		Rho:    fields[3],
		Chi:    fields[4],
	}, nil
}
