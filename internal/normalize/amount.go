package normalize

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	xerrors "BNBChain-Agent/internal/errors"
)

var amountPattern = regexp.MustCompile(`^(\d*)(?:\.(\d+))?$`)

// ToBaseUnits converts a human decimal amount into integer base units.
// Signs, exponents and more fractional digits than decimals are rejected.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, xerrors.New(xerrors.CodeValidationFailed, fmt.Sprintf("invalid token decimals %d", decimals))
	}
	amount = strings.TrimSpace(amount)
	m := amountPattern.FindStringSubmatch(amount)
	if m == nil || (m[1] == "" && m[2] == "") {
		return nil, xerrors.New(xerrors.CodeValidationFailed, fmt.Sprintf("invalid amount %q", amount),
			xerrors.WithMetadata("field", "amount"))
	}
	whole, frac := m[1], m[2]
	if len(frac) > decimals {
		return nil, xerrors.New(xerrors.CodeValidationFailed,
			fmt.Sprintf("amount %q has more than %d decimal places", amount, decimals),
			xerrors.WithMetadata("field", "amount"))
	}

	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(big.Int), nil
	}
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, xerrors.New(xerrors.CodeValidationFailed, fmt.Sprintf("invalid amount %q", amount))
	}
	return value, nil
}

// ToPositiveBaseUnits is ToBaseUnits for call sites that cannot move zero.
func ToPositiveBaseUnits(amount string, decimals int) (*big.Int, error) {
	value, err := ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}
	if value.Sign() <= 0 {
		return nil, xerrors.New(xerrors.CodeValidationFailed, "amount must be greater than zero",
			xerrors.WithMetadata("field", "amount"))
	}
	return value, nil
}

// FromBaseUnits formats base units as a decimal string without trailing zeros.
func FromBaseUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	if decimals <= 0 {
		return value.String()
	}
	abs := new(big.Int).Abs(value)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, rem := new(big.Int).QuoRem(abs, scale, new(big.Int))

	sign := ""
	if value.Sign() < 0 {
		sign = "-"
	}
	if rem.Sign() == 0 {
		return sign + whole.String()
	}
	frac := rem.String()
	frac = strings.Repeat("0", decimals-len(frac)) + frac
	frac = strings.TrimRight(frac, "0")
	return sign + whole.String() + "." + frac
}

// GasReserve is the native amount held back when a transfer sends "everything".
func GasReserve(gasLimit uint64, gasPrice *big.Int) *big.Int {
	if gasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPrice)
}
