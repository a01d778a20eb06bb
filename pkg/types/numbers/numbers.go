package numbers

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUnits renders a base unit amount as a decimal token amount, e.g. 1500000000000000000
// with 18 decimals is "1.5".
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}

// ParseUnits converts a decimal token amount into base units. Amounts with more fractional
// digits than decimals are rejected.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount '%s': %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount '%s': must not be negative", s)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("invalid amount '%s': more than %d decimals", s, decimals)
	}
	return shifted.BigInt(), nil
}

// ParseBaseUnits parses a non-negative integer amount given in base units, either decimal or
// 0x prefixed hex.
func ParseBaseUnits(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	digits, base := s, 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits, base = s[2:], 16
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("invalid amount '%s'", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount '%s': must not be negative", s)
	}
	return v, nil
}

// Tokens returns n whole tokens in base units.
func Tokens(n int64, decimals uint8) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
}
