package main

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// rayForDisplay renders a ray-scaled fixed-point value as a plain decimal,
// trimmed of trailing zeros.
func rayForDisplay(raw, ray *uint256.Int, precision int) string {
	if raw == nil || ray == nil || ray.IsZero() {
		return "0"
	}
	rat := new(big.Rat).SetFrac(raw.ToBig(), ray.ToBig())
	formatted := strings.TrimRight(rat.FloatString(precision), "0")
	formatted = strings.TrimSuffix(formatted, ".")
	if formatted == "" {
		formatted = "0"
	}
	return formatted
}

// parseAmount parses a whole-number token amount into the 128-bit domain.
func parseAmount(amountStr string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(amountStr))
	if err != nil {
		return nil, fmt.Errorf("the amount provided is an invalid whole number: %q", amountStr)
	}
	if v.IsZero() {
		return nil, errors.New("amount must be greater than zero")
	}
	if v.BitLen() > 128 {
		return nil, fmt.Errorf("amount %s exceeds the 128-bit range", amountStr)
	}
	return v, nil
}

// parseTimestamp parses a unix-seconds timestamp.
func parseTimestamp(tsStr string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(tsStr))
	if err != nil {
		return nil, fmt.Errorf("the timestamp provided is an invalid unix time: %q", tsStr)
	}
	return v, nil
}
