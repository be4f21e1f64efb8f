package curve

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"

	"hadydotai/redemption-swap/wmath"
)

// ConstantPriceCurveLen is the packed byte length of the curve's fields.
const ConstantPriceCurveLen = 16

// ConstantPriceCurve prices token B at a fixed ratio set at pool creation.
// TokenBPrice is the amount of token A required to get one token B, scaled
// by Ray.
type ConstantPriceCurve struct {
	TokenBPrice *uint256.Int
}

// SwapWithoutFees charges only full multiples of the price on the A-to-B
// side: the destination is floored, then the source is recomputed with a
// ceiling so the pool never gives tokens away below price and never takes
// more than offered.
func (c *ConstantPriceCurve) SwapWithoutFees(sourceAmount, _, _ *uint256.Int, direction TradeDirection, _ *uint256.Int) (*SwapWithoutFeesResult, error) {
	return swapAtPrice(sourceAmount, c.TokenBPrice, Ray, direction)
}

// swapAtPrice computes both swap legs at a ray-scaled token-B price. Shared
// by both curve variants; the redemption-rate curve supplies its projected
// conversion index as the price.
func swapAtPrice(sourceAmount, tokenBPrice, ray *uint256.Int, direction TradeDirection) (*SwapWithoutFeesResult, error) {
	var sourceSwapped, destSwapped *uint256.Int

	switch direction {
	case TradeDirectionBtoA:
		prod, ok := wmath.Mul(sourceAmount, tokenBPrice)
		if !ok {
			return nil, ErrCalculation
		}
		dest, ok := wmath.Div(prod, ray)
		if !ok {
			return nil, ErrCalculation
		}
		sourceSwapped = new(uint256.Int).Set(sourceAmount)
		destSwapped = dest
	case TradeDirectionAtoB:
		scaled, ok := wmath.Mul(sourceAmount, ray)
		if !ok {
			return nil, ErrCalculation
		}
		dest, ok := wmath.Div(scaled, tokenBPrice)
		if !ok {
			return nil, ErrCalculation
		}
		// re-apply the price and ceil to find the exact cost of the
		// floored destination
		cost, ok := wmath.Mul(dest, tokenBPrice)
		if !ok {
			return nil, ErrCalculation
		}
		used, ok := wmath.CeilDiv(cost, ray)
		if !ok {
			return nil, ErrCalculation
		}
		if used.Gt(sourceAmount) {
			return nil, ErrCalculation
		}
		sourceSwapped = used
		destSwapped = dest
	}

	sourceSwapped, err := narrow(sourceSwapped)
	if err != nil {
		return nil, err
	}
	destSwapped, err = narrow(destSwapped)
	if err != nil {
		return nil, err
	}
	if sourceSwapped, err = zeroToErr(sourceSwapped); err != nil {
		return nil, err
	}
	if destSwapped, err = zeroToErr(destSwapped); err != nil {
		return nil, err
	}
	return &SwapWithoutFeesResult{
		SourceAmountSwapped:      sourceSwapped,
		DestinationAmountSwapped: destSwapped,
	}, nil
}

// PoolTokensToTradingTokens converts pool tokens into proportional amounts
// of each trading token, rounding per round.
func (c *ConstantPriceCurve) PoolTokensToTradingTokens(poolTokens, poolTokenSupply, swapTokenAAmount, swapTokenBAmount *uint256.Int, round RoundDirection, _ *uint256.Int) (*TradingTokenResult, error) {
	numA, ok := wmath.Mul(poolTokens, swapTokenAAmount)
	if !ok {
		return nil, ErrCalculation
	}
	numB, ok := wmath.Mul(poolTokens, swapTokenBAmount)
	if !ok {
		return nil, ErrCalculation
	}

	var amountA, amountB *uint256.Int
	switch round {
	case RoundFloor:
		if amountA, ok = wmath.Div(numA, poolTokenSupply); !ok {
			return nil, ErrCalculation
		}
		if amountB, ok = wmath.Div(numB, poolTokenSupply); !ok {
			return nil, ErrCalculation
		}
	case RoundCeiling:
		if amountA, ok = wmath.CeilDiv(numA, poolTokenSupply); !ok {
			return nil, ErrCalculation
		}
		if amountB, ok = wmath.CeilDiv(numB, poolTokenSupply); !ok {
			return nil, ErrCalculation
		}
	}

	var err error
	if amountA, err = narrow(amountA); err != nil {
		return nil, err
	}
	if amountB, err = narrow(amountB); err != nil {
		return nil, err
	}
	return &TradingTokenResult{TokenAAmount: amountA, TokenBAmount: amountB}, nil
}

// DepositSingleTokenType prices a one-sided deposit in pool tokens. The
// pool's total value is weighted by the token-B price; flooring keeps the
// pool from over-crediting the depositor.
func (c *ConstantPriceCurve) DepositSingleTokenType(sourceAmount, swapTokenAAmount, swapTokenBAmount, poolSupply *uint256.Int, direction TradeDirection, _ *uint256.Int) (*uint256.Int, error) {
	return tradingTokensToPoolTokens(c.TokenBPrice, Ray, sourceAmount, swapTokenAAmount, swapTokenBAmount, poolSupply, direction, RoundFloor)
}

// WithdrawSingleTokenTypeExactOut prices the pool tokens needed for an
// exact one-sided withdrawal.
func (c *ConstantPriceCurve) WithdrawSingleTokenTypeExactOut(sourceAmount, swapTokenAAmount, swapTokenBAmount, poolSupply *uint256.Int, direction TradeDirection, round RoundDirection, _ *uint256.Int) (*uint256.Int, error) {
	return tradingTokensToPoolTokens(c.TokenBPrice, Ray, sourceAmount, swapTokenAAmount, swapTokenBAmount, poolSupply, direction, round)
}

// Validate rejects a zero price.
func (c *ConstantPriceCurve) Validate(_ *uint256.Int) error {
	if c.TokenBPrice == nil || c.TokenBPrice.IsZero() {
		return ErrInvalidCurve
	}
	return nil
}

// ValidateSupply rejects pool initialization without token A.
func (c *ConstantPriceCurve) ValidateSupply(tokenAAmount, _ uint64) error {
	if tokenAAmount == 0 {
		return ErrEmptySupply
	}
	return nil
}

// NormalizedValue is (tokenA + tokenB*price) / 2: the curve's invariant is
// additive, unlike the multiplicative constant-product pools, and dividing
// by two normalizes across the two token types.
func (c *ConstantPriceCurve) NormalizedValue(swapTokenAAmount, swapTokenBAmount *uint256.Int, _ *uint256.Int) (*uint256.Int, error) {
	bValue, ok := wmath.Mul(swapTokenBAmount, c.TokenBPrice)
	if !ok {
		return nil, ErrCalculation
	}
	bValue, ok = wmath.Div(bValue, Ray)
	if !ok {
		return nil, ErrCalculation
	}
	sum, ok := wmath.Add(swapTokenAAmount, bValue)
	if !ok {
		return nil, ErrCalculation
	}
	value, ok := wmath.Div(sum, two)
	if !ok {
		return nil, ErrCalculation
	}
	return narrow(value)
}

// Type returns the constant-price wire discriminant.
func (c *ConstantPriceCurve) Type() CurveType {
	return CurveTypeConstantPrice
}

// Pack writes TokenBPrice as one 16-byte little-endian field.
func (c *ConstantPriceCurve) Pack() ([]byte, error) {
	price, ok := toUint128(c.TokenBPrice)
	if !ok {
		return nil, fmt.Errorf("pack constant price curve: %w", ErrInvalidCurve)
	}
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUint128(price, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("pack constant price curve: %w", err)
	}
	return buf.Bytes(), nil
}

// UnpackConstantPriceCurve decodes the 16-byte little-endian field layout.
// Longer input is allowed; the curve reads only its own prefix.
func UnpackConstantPriceCurve(data []byte) (*ConstantPriceCurve, error) {
	if len(data) < ConstantPriceCurveLen {
		return nil, fmt.Errorf("constant price curve blob too short: %d < %d", len(data), ConstantPriceCurveLen)
	}
	dec := bin.NewBinDecoder(data[:ConstantPriceCurveLen])
	price, err := dec.ReadUint128(binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("unpack constant price curve: %w", err)
	}
	return &ConstantPriceCurve{TokenBPrice: fromUint128(price)}, nil
}
