package depth

import (
	"math"
	"sort"
)

// Assemble sorts points ascending by USD size, computes running cumulative
// liquidity, and settles the baseline price. Pure: inputs are copied, never
// mutated, and calling it twice yields identical output.
//
// When no baseline was established but points exist, the smallest point's
// execution price is promoted retroactively; that point's stored impact is
// left untouched (it is trivially ~0 against itself).
func Assemble(points []DepthPoint, baselinePrice *float64) ([]DepthPoint, *float64) {
	out := make([]DepthPoint, len(points))
	copy(out, points)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TradeUSDValue < out[j].TradeUSDValue
	})

	if baselinePrice == nil && len(out) > 0 && validPrice(out[0].ExecutionPrice) {
		b := out[0].ExecutionPrice
		baselinePrice = &b
	}

	// Cumulative sums run only over valid points; invalid ones inherit the
	// previous cumulative value rather than corrupting the running total.
	var cumIn, cumOut float64
	for i := range out {
		if pointValid(out[i]) {
			cumIn += out[i].InputAmount
			cumOut += out[i].OutputAmount
		}
		out[i].CumulativeInputLiquidity = cumIn
		out[i].CumulativeOutputLiquidity = cumOut
	}

	return out, baselinePrice
}

func pointValid(p DepthPoint) bool {
	return p.InputAmount > 0 && !math.IsNaN(p.InputAmount) && !math.IsInf(p.InputAmount, 0) &&
		validPrice(p.ExecutionPrice)
}
