package depth

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var (
	// ErrAmountTooSmall means the USD target converts to zero base units.
	ErrAmountTooSmall = errors.New("amount too small: converts to zero raw units")
	// ErrAmountOverflow means the converted raw amount exceeds the uint64
	// ceiling of the quote wire format. Detected locally, before any network
	// call is attempted.
	ErrAmountOverflow = errors.New("amount overflow: exceeds uint64 raw amount ceiling")
)

// maxRawAmount is the representable ceiling for raw amounts, inherited from
// the upstream wire format (raw amounts travel as uint64 decimal strings).
var maxRawAmount = decimal.RequireFromString("18446744073709551615")

// ToRawAmount converts a USD notional into raw base units of the spend token.
// tokenUnitPrice is the USD price of one whole spend token; Buy-direction
// callers pass 1 since the spend token is USD-pegged by convention.
//
// The USD/price division stays in float64 (the domain tolerates it); the
// scaling by 10^decimals is done in fixed-point so a large target cannot
// silently wrap or lose integer precision.
func ToRawAmount(usdTarget float64, tokenDecimals uint8, tokenUnitPrice float64) (uint64, error) {
	if usdTarget <= 0 || math.IsNaN(usdTarget) || math.IsInf(usdTarget, 0) {
		return 0, ErrAmountTooSmall
	}
	if tokenUnitPrice <= 0 || math.IsNaN(tokenUnitPrice) || math.IsInf(tokenUnitPrice, 0) {
		return 0, ErrAmountTooSmall
	}

	tokenAmount := usdTarget / tokenUnitPrice
	if math.IsInf(tokenAmount, 0) || math.IsNaN(tokenAmount) {
		return 0, ErrAmountOverflow
	}

	raw := decimal.NewFromFloat(tokenAmount).
		Mul(decimal.New(1, int32(tokenDecimals))).
		Floor()

	if raw.Sign() <= 0 {
		return 0, ErrAmountTooSmall
	}
	if raw.Cmp(maxRawAmount) > 0 {
		return 0, ErrAmountOverflow
	}

	return raw.BigInt().Uint64(), nil
}

// MaxSafeUSD returns the largest USD notional whose raw amount still fits the
// wire format for a token with the given decimals and unit price. Callers use
// it as the restart ceiling after an overflow.
func MaxSafeUSD(tokenDecimals uint8, tokenUnitPrice float64) float64 {
	if tokenUnitPrice <= 0 || math.IsNaN(tokenUnitPrice) || math.IsInf(tokenUnitPrice, 0) {
		return 0
	}
	maxTokens, _ := maxRawAmount.Div(decimal.New(1, int32(tokenDecimals))).Float64()
	return maxTokens * tokenUnitPrice
}

// uiAmount converts a raw base-unit amount back to a human-readable quantity.
func uiAmount(raw uint64, decimals uint8) float64 {
	return float64(raw) / math.Pow10(int(decimals))
}
