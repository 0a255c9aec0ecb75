package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
)

// EtherDecimals is the decimals of 18-decimal ERC20 tokens.
const EtherDecimals = 18

// ParseUnits converts a decimal string such as "1250.5" into base units.
// Digits beyond decimals are rejected rather than rounded.
func ParseUnits(value string, decimals int) (*big.Int, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}

	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		if strings.Trim(frac[decimals:], "0") != "" {
			return nil, fmt.Errorf("amount %q has more than %d decimals", value, decimals)
		}
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", decimals-len(frac))

	out, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if neg {
		out.Neg(out)
	}
	return out, nil
}

// FormatUnits renders base units as a decimal string without trailing zeros.
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	unit := math.BigPow(10, int64(decimals))

	abs := new(big.Int).Abs(value)
	whole, frac := new(big.Int).QuoRem(abs, unit, new(big.Int))

	sign := ""
	if value.Sign() < 0 {
		sign = "-"
	}
	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	fs := frac.String()
	fs = strings.Repeat("0", decimals-len(fs)) + fs
	return sign + whole.String() + "." + strings.TrimRight(fs, "0")
}

// MulShare returns floor(amount * share). share is used with its exact
// binary value.
func MulShare(amount *big.Int, share float64) *big.Int {
	if share == 0 || amount.Sign() == 0 {
		return new(big.Int)
	}
	f := new(big.Float).SetPrec(512).SetInt(amount)
	f.Mul(f, new(big.Float).SetPrec(512).SetFloat64(share))
	out, _ := f.Int(nil)
	return out
}

// RoundShare rounds share half away from zero to the given decimals and
// returns it as an integer numerator over 10^decimals.
func RoundShare(share float64, decimals int) *big.Int {
	f := new(big.Float).SetPrec(512).SetFloat64(share)
	f.Mul(f, new(big.Float).SetPrec(512).SetInt(math.BigPow(10, int64(decimals))))
	half := big.NewFloat(0.5)
	if f.Sign() < 0 {
		f.Sub(f, half)
	} else {
		f.Add(f, half)
	}
	out, _ := f.Int(nil)
	return out
}
