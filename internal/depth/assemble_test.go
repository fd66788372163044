package depth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble_SortsAndAccumulates(t *testing.T) {
	base := 100.0
	points := []DepthPoint{
		{TradeUSDValue: 10_000, InputAmount: 100, OutputAmount: 9_900, ExecutionPrice: 99},
		{TradeUSDValue: 500, InputAmount: 5, OutputAmount: 500, ExecutionPrice: 100},
		{TradeUSDValue: 1_000, InputAmount: 10, OutputAmount: 999, ExecutionPrice: 99.9},
	}

	out, baseline := Assemble(points, &base)
	require.Len(t, out, 3)
	require.NotNil(t, baseline)
	assert.Equal(t, 100.0, *baseline)

	for i := 1; i < len(out); i++ {
		assert.Greater(t, out[i].TradeUSDValue, out[i-1].TradeUSDValue, "strictly ascending by USD size")
		assert.GreaterOrEqual(t, out[i].CumulativeInputLiquidity, out[i-1].CumulativeInputLiquidity)
	}

	assert.Equal(t, 5.0, out[0].CumulativeInputLiquidity)
	assert.Equal(t, 15.0, out[1].CumulativeInputLiquidity)
	assert.Equal(t, 115.0, out[2].CumulativeInputLiquidity)
	assert.Equal(t, 500.0, out[0].CumulativeOutputLiquidity)
}

func TestAssemble_InvalidPointsInheritCumulative(t *testing.T) {
	base := 100.0
	points := []DepthPoint{
		{TradeUSDValue: 500, InputAmount: 5, OutputAmount: 500, ExecutionPrice: 100},
		{TradeUSDValue: 1_000, InputAmount: 0, OutputAmount: 0, ExecutionPrice: 0},
		{TradeUSDValue: 10_000, InputAmount: math.NaN(), OutputAmount: 1, ExecutionPrice: 100},
		{TradeUSDValue: 100_000, InputAmount: 1_000, OutputAmount: 99_000, ExecutionPrice: 99},
	}

	out, _ := Assemble(points, &base)
	require.Len(t, out, 4)

	assert.Equal(t, 5.0, out[0].CumulativeInputLiquidity)
	assert.Equal(t, 5.0, out[1].CumulativeInputLiquidity, "invalid point inherits previous cumulative")
	assert.Equal(t, 5.0, out[2].CumulativeInputLiquidity)
	assert.Equal(t, 1005.0, out[3].CumulativeInputLiquidity)
}

func TestAssemble_PromotesBaselineFromFirstPoint(t *testing.T) {
	points := []DepthPoint{
		{TradeUSDValue: 1_000, InputAmount: 10, OutputAmount: 995, ExecutionPrice: 99.5},
		{TradeUSDValue: 500, InputAmount: 5, OutputAmount: 500, ExecutionPrice: 100},
	}

	out, baseline := Assemble(points, nil)
	require.NotNil(t, baseline)
	assert.Equal(t, 100.0, *baseline, "smallest point's execution price becomes baseline")
	assert.Equal(t, 500.0, out[0].TradeUSDValue)
}

func TestAssemble_Idempotent(t *testing.T) {
	base := 42.0
	points := []DepthPoint{
		{TradeUSDValue: 1_000, InputAmount: 10, OutputAmount: 420, ExecutionPrice: 42},
		{TradeUSDValue: 500, InputAmount: 5, OutputAmount: 210, ExecutionPrice: 42},
	}

	first, b1 := Assemble(points, &base)
	second, b2 := Assemble(first, b1)

	assert.Equal(t, first, second)
	assert.Equal(t, *b1, *b2)
}

func TestAssemble_Empty(t *testing.T) {
	out, baseline := Assemble(nil, nil)
	assert.Empty(t, out)
	assert.Nil(t, baseline)
}
