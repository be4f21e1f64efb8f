// Package redemptionswap exposes the swap program's pricing engine to
// off-chain callers: quote a swap, price a deposit or withdrawal, and
// measure pool value, all against a decoded curve and a caller-supplied
// timestamp. The engine owns no storage and performs no I/O; every answer
// is a pure function of its inputs.
package redemptionswap

import (
	"errors"

	"github.com/holiman/uint256"

	"hadydotai/redemption-swap/curve"
)

// Engine answers quote questions through a chosen curve calculator.
type Engine struct {
	calc curve.CurveCalculator
}

// New builds an engine over a calculator.
func New(calc curve.CurveCalculator) (*Engine, error) {
	if calc == nil {
		return nil, errors.New("engine needs a curve calculator")
	}
	return &Engine{calc: calc}, nil
}

// NewFromSwapCurve builds an engine from a decoded tagged curve.
func NewFromSwapCurve(sc *curve.SwapCurve) (*Engine, error) {
	if sc == nil {
		return nil, errors.New("engine needs a swap curve")
	}
	return New(sc.Calculator)
}

// Calculator returns the underlying curve calculator.
func (e *Engine) Calculator() curve.CurveCalculator {
	return e.calc
}

func checkAmounts(amounts ...*uint256.Int) error {
	for _, a := range amounts {
		if a == nil {
			return errors.New("amount cannot be nil")
		}
	}
	return nil
}

// Swap answers "if I swap sourceAmount, what moves on each side", before
// fees. The caller applies the resulting amounts to balances, or nothing
// at all on error.
func (e *Engine) Swap(sourceAmount, swapSourceReserve, swapDestinationReserve *uint256.Int, direction curve.TradeDirection, timestamp *uint256.Int) (*curve.SwapWithoutFeesResult, error) {
	if err := checkAmounts(sourceAmount, swapSourceReserve, swapDestinationReserve); err != nil {
		return nil, err
	}
	return e.calc.SwapWithoutFees(sourceAmount, swapSourceReserve, swapDestinationReserve, direction, timestamp)
}

// Deposit answers "how many pool tokens is a one-sided deposit of
// sourceAmount worth".
func (e *Engine) Deposit(sourceAmount, reserveA, reserveB, poolSupply *uint256.Int, direction curve.TradeDirection, timestamp *uint256.Int) (*uint256.Int, error) {
	if err := checkAmounts(sourceAmount, reserveA, reserveB, poolSupply); err != nil {
		return nil, err
	}
	return e.calc.DepositSingleTokenType(sourceAmount, reserveA, reserveB, poolSupply, direction, timestamp)
}

// WithdrawExactOut answers "how many pool tokens must be burned to take
// exactly destinationAmount out one-sided".
func (e *Engine) WithdrawExactOut(destinationAmount, reserveA, reserveB, poolSupply *uint256.Int, direction curve.TradeDirection, round curve.RoundDirection, timestamp *uint256.Int) (*uint256.Int, error) {
	if err := checkAmounts(destinationAmount, reserveA, reserveB, poolSupply); err != nil {
		return nil, err
	}
	return e.calc.WithdrawSingleTokenTypeExactOut(destinationAmount, reserveA, reserveB, poolSupply, direction, round, timestamp)
}

// Redeem answers "what does burning poolTokens pay out of each reserve",
// rounding per round.
func (e *Engine) Redeem(poolTokens, poolSupply, reserveA, reserveB *uint256.Int, round curve.RoundDirection, timestamp *uint256.Int) (*curve.TradingTokenResult, error) {
	if err := checkAmounts(poolTokens, poolSupply, reserveA, reserveB); err != nil {
		return nil, err
	}
	return e.calc.PoolTokensToTradingTokens(poolTokens, poolSupply, reserveA, reserveB, round, timestamp)
}

// PoolValue answers "what is the pool worth in the common unit".
func (e *Engine) PoolValue(reserveA, reserveB *uint256.Int, timestamp *uint256.Int) (*uint256.Int, error) {
	if err := checkAmounts(reserveA, reserveB); err != nil {
		return nil, err
	}
	return e.calc.NormalizedValue(reserveA, reserveB, timestamp)
}

// Validate rejects a degenerate curve before any quoting begins.
func (e *Engine) Validate(timestamp *uint256.Int) error {
	return e.calc.Validate(timestamp)
}
