package curve

import (
	"fmt"
)

// CurveType is the explicit wire discriminant stored ahead of the packed
// calculator fields. The byte layout is part of the account contract, so
// the tag is stored and matched explicitly rather than derived from the
// runtime type.
type CurveType uint8

const (
	// CurveTypeConstantProduct is the upstream token-swap xy=k tag. The
	// program no longer ships that curve; the tag stays reserved so the
	// others keep their values.
	CurveTypeConstantProduct CurveType = iota
	// CurveTypeConstantPrice tags the fixed-ratio curve.
	CurveTypeConstantPrice
	// CurveTypeRedemptionRate tags the compounding-index curve.
	CurveTypeRedemptionRate
)

func (t CurveType) String() string {
	switch t {
	case CurveTypeConstantProduct:
		return "constant product"
	case CurveTypeConstantPrice:
		return "constant price"
	case CurveTypeRedemptionRate:
		return "redemption rate"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

const (
	// CalculatorLen is the fixed size of the calculator blob; shorter
	// variants are zero-padded up to it.
	CalculatorLen = 80
	// SwapCurveLen is tag byte + calculator blob.
	SwapCurveLen = 1 + CalculatorLen
	// SwapAccountLen is the packed size of the program's swap account.
	SwapAccountLen = 372
	// swapCurveOffset locates the curve inside a packed swap account; the
	// curve is packed last.
	swapCurveOffset = SwapAccountLen - SwapCurveLen
)

// SwapCurve pairs the wire discriminant with the calculator it tags.
type SwapCurve struct {
	Type       CurveType
	Calculator CurveCalculator
}

// Pack serializes the tag byte followed by the calculator's fields,
// zero-padded to the fixed blob size.
func (sc *SwapCurve) Pack() ([]byte, error) {
	if sc.Calculator == nil {
		return nil, fmt.Errorf("pack swap curve: no calculator")
	}
	if sc.Type != sc.Calculator.Type() {
		return nil, fmt.Errorf("pack swap curve: tag %s does not match calculator %s", sc.Type, sc.Calculator.Type())
	}
	fields, err := sc.Calculator.Pack()
	if err != nil {
		return nil, err
	}
	if len(fields) > CalculatorLen {
		return nil, fmt.Errorf("pack swap curve: calculator blob %d exceeds %d", len(fields), CalculatorLen)
	}
	out := make([]byte, SwapCurveLen)
	out[0] = byte(sc.Type)
	copy(out[1:], fields)
	return out, nil
}

// UnpackSwapCurve decodes a tag byte plus calculator blob. Unknown tags are
// rejected; the account never stores a curve this program cannot price.
func UnpackSwapCurve(data []byte) (*SwapCurve, error) {
	if len(data) < SwapCurveLen {
		return nil, fmt.Errorf("swap curve blob too short: %d < %d", len(data), SwapCurveLen)
	}
	tag := CurveType(data[0])
	blob := data[1:SwapCurveLen]
	switch tag {
	case CurveTypeConstantPrice:
		calc, err := UnpackConstantPriceCurve(blob)
		if err != nil {
			return nil, err
		}
		return &SwapCurve{Type: tag, Calculator: calc}, nil
	case CurveTypeRedemptionRate:
		calc, err := UnpackRedemptionRateCurve(blob)
		if err != nil {
			return nil, err
		}
		return &SwapCurve{Type: tag, Calculator: calc}, nil
	default:
		return nil, fmt.Errorf("unsupported curve type tag %d", data[0])
	}
}

// ExtractCurveFromSwapAccount unpacks the curve packed at the tail of a
// swap account record.
func ExtractCurveFromSwapAccount(data []byte) (*SwapCurve, error) {
	if len(data) < SwapAccountLen {
		return nil, fmt.Errorf("swap account data too short: %d < %d", len(data), SwapAccountLen)
	}
	return UnpackSwapCurve(data[swapCurveOffset:])
}
