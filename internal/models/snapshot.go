package models

import (
	"fmt"
	"time"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/depth"
)

// DepthSnapshot is the published record of one completed depth calculation
type DepthSnapshot struct {
	Pair          string             `json:"pair"`
	InputMint     string             `json:"input_mint"`
	OutputMint    string             `json:"output_mint"`
	Direction     string             `json:"direction"`
	Timestamp     time.Time          `json:"timestamp"`
	BaselinePrice float64            `json:"baseline_price"`
	MaxDepthUSD   float64            `json:"max_depth_usd"`
	PointCount    int                `json:"point_count"`
	ErrorCount    int                `json:"error_count"`
	Truncated     bool               `json:"truncated"`
	ElapsedMs     int64              `json:"elapsed_ms"`
	Points        []depth.DepthPoint `json:"points"`
}

// SnapshotFromResult flattens a depth result into its published form.
// pairLabel is a display name like "SOL/USDC".
func SnapshotFromResult(res *depth.Result, pairLabel string) *DepthSnapshot {
	s := &DepthSnapshot{
		Pair:       pairLabel,
		InputMint:  res.Pair.Input.Mint,
		OutputMint: res.Pair.Output.Mint,
		Direction:  string(res.Direction),
		Timestamp:  time.Now().UTC(),
		PointCount: len(res.Points),
		ErrorCount: len(res.Errors),
		Truncated:  res.Truncated,
		ElapsedMs:  res.ElapsedMs,
		Points:     res.Points,
	}
	if res.BaselinePrice != nil {
		s.BaselinePrice = *res.BaselinePrice
	}
	if n := len(res.Points); n > 0 {
		s.MaxDepthUSD = res.Points[n-1].TradeUSDValue
	}
	return s
}

// Key identifies the snapshot's pair and direction, e.g. for cache keys and
// pub/sub channel names.
func (s *DepthSnapshot) Key() string {
	return fmt.Sprintf("%s:%s:%s", s.InputMint, s.OutputMint, s.Direction)
}
