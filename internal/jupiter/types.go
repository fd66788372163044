package jupiter

import "strconv"

type QuoteRequest struct {
	InputMint  string
	OutputMint string
	Amount     uint64 // raw base units of the input mint

	SlippageBps uint16
	SwapMode    string // ExactIn | ExactOut

	RestrictIntermediateTokens *bool
	OnlyDirectRoutes           *bool
}

type QuoteResponse struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          uint16          `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []RoutePlanStep `json:"routePlan"`

	ContextSlot uint64  `json:"contextSlot,omitempty"`
	TimeTaken   float64 `json:"timeTaken,omitempty"`
}

type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  *uint8   `json:"percent,omitempty"`
	Bps      uint16   `json:"bps"`
}

type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label,omitempty"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

// InAmountRaw parses the quoted input amount. The wire format carries raw
// uint64 amounts as decimal strings.
func (r *QuoteResponse) InAmountRaw() (uint64, error) {
	return strconv.ParseUint(r.InAmount, 10, 64)
}

// OutAmountRaw parses the quoted output amount.
func (r *QuoteResponse) OutAmountRaw() (uint64, error) {
	return strconv.ParseUint(r.OutAmount, 10, 64)
}

// PriceImpact parses the oracle's own routing-aware price impact figure.
// Returns ok=false when the field is absent or malformed.
func (r *QuoteResponse) PriceImpact() (float64, bool) {
	if r.PriceImpactPct == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(r.PriceImpactPct, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
