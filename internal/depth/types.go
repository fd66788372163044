package depth

import (
	"context"
	"time"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/jupiter"
)

// Direction selects which side of the pair is spent for a USD-denominated
// probe. Buy spends the output token to acquire the input token; Sell spends
// the input token to acquire the output token.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// ParseDirection normalizes a direction string.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionBuy:
		return DirectionBuy, true
	case DirectionSell:
		return DirectionSell, true
	}
	return "", false
}

// TokenRef identifies one side of a pair. Decimals determine the base-unit
// scale for raw-amount conversion.
type TokenRef struct {
	Mint     string `json:"mint"`
	Decimals uint8  `json:"decimals"`
}

// Pair is the token pair a depth calculation measures. By convention of this
// system the output token is USD-pegged (USDC/USDT), which is what lets USD
// notionals double as spend amounts in the Buy direction.
type Pair struct {
	Input  TokenRef `json:"input"`
	Output TokenRef `json:"output"`
}

// spend returns the token sold for a probe in the given direction.
func (p Pair) spend(dir Direction) TokenRef {
	if dir == DirectionBuy {
		return p.Output
	}
	return p.Input
}

// receive returns the token bought for a probe in the given direction.
func (p Pair) receive(dir Direction) TokenRef {
	if dir == DirectionBuy {
		return p.Input
	}
	return p.Output
}

// ErrorKind mirrors the quote client's taxonomy plus the local, pre-network
// failure kinds of the amount converter.
type ErrorKind string

const (
	KindRateLimited    ErrorKind = ErrorKind(jupiter.KindRateLimited)
	KindNoRoute        ErrorKind = ErrorKind(jupiter.KindNoRoute)
	KindInvalid        ErrorKind = ErrorKind(jupiter.KindInvalid)
	KindTransport      ErrorKind = ErrorKind(jupiter.KindTransport)
	KindAmountTooSmall ErrorKind = "amount_too_small"
	KindAmountOverflow ErrorKind = "amount_overflow"
)

// DepthPoint is one measured point of the depth curve. TradeUSDValue is the
// USD size this point represents: the requested ladder size for ordinary
// samples, or the actually-achieved size for points recovered by the
// overflow-shrink and max-liquidity paths.
type DepthPoint struct {
	TradeUSDValue             float64 `json:"trade_usd_value"`
	InputAmount               float64 `json:"input_amount"`
	OutputAmount              float64 `json:"output_amount"`
	ExecutionPrice            float64 `json:"execution_price"`
	PriceImpactPct            float64 `json:"price_impact_pct"`
	CumulativeInputLiquidity  float64 `json:"cumulative_input_liquidity"`
	CumulativeOutputLiquidity float64 `json:"cumulative_output_liquidity"`
}

// ProbeError is an append-only diagnostic record for a failed or skipped
// target size. It is never used for control flow.
type ProbeError struct {
	TradeUSDValue float64   `json:"trade_usd_value"`
	Kind          ErrorKind `json:"kind"`
	Message       string    `json:"message"`
	HTTPStatus    int       `json:"http_status,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Result is the outcome of one depth calculation. It is owned by the caller
// and never mutated after return. An empty Points with non-empty Errors means
// "no liquidity data obtainable"; both empty means the caller asked for
// nothing (e.g. an empty ladder).
type Result struct {
	Pair      Pair      `json:"pair"`
	Direction Direction `json:"direction"`

	Points        []DepthPoint `json:"points"`
	Errors        []ProbeError `json:"errors"`
	BaselinePrice *float64     `json:"baseline_price"`
	ElapsedMs     int64        `json:"elapsed_ms"`

	// Truncated is set when the time budget expired before the ladder was
	// exhausted. Informational, not an error.
	Truncated bool     `json:"truncated,omitempty"`
	Notes     []string `json:"notes,omitempty"`
}

// Quoter is the single-point quote oracle the depth core probes. Satisfied by
// *jupiter.Client; tests substitute a synthetic oracle.
type Quoter interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error)
}

// Resolver supplies token decimals. Satisfied by the catalog; must never fail,
// falling back to a conservative default instead.
type Resolver interface {
	Decimals(ctx context.Context, mint string) uint8
}
