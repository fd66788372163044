package depth

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/jupiter"
)

const (
	mintSOL  = "So11111111111111111111111111111111111111112"
	mintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type staticResolver map[string]uint8

func (s staticResolver) Decimals(_ context.Context, mint string) uint8 {
	if d, ok := s[mint]; ok {
		return d
	}
	return 6
}

var testResolver = staticResolver{mintSOL: 9, mintUSDC: 6}

// fakeOracle is a synthetic quote oracle with a flat SOL/USDC price and an
// optional routable-size window.
type fakeOracle struct {
	price          float64 // USDC per SOL
	minRoutableUSD float64 // rejects below when > 0
	maxRoutableUSD float64 // rejects above when > 0
	perCallDelay   time.Duration
	omitImpact     bool

	mu      sync.Mutex
	calls   int
	rejects int
}

func (f *fakeOracle) Quote(_ context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.perCallDelay > 0 {
		time.Sleep(f.perCallDelay)
	}

	var usd float64
	var outRaw uint64
	switch req.InputMint {
	case mintUSDC:
		usd = float64(req.Amount) / 1e6
		outRaw = uint64(usd / f.price * 1e9)
	case mintSOL:
		tokens := float64(req.Amount) / 1e9
		usd = tokens * f.price
		outRaw = uint64(usd * 1e6)
	default:
		return nil, &jupiter.QuoteError{Kind: jupiter.KindInvalid, Message: "unknown mint"}
	}

	if (f.maxRoutableUSD > 0 && usd > f.maxRoutableUSD) || (f.minRoutableUSD > 0 && usd < f.minRoutableUSD) {
		f.mu.Lock()
		f.rejects++
		f.mu.Unlock()
		return nil, &jupiter.QuoteError{
			Kind:       jupiter.KindNoRoute,
			HTTPStatus: 400,
			Message:    "COULD_NOT_FIND_ANY_ROUTE",
		}
	}

	res := &jupiter.QuoteResponse{
		InputMint:  req.InputMint,
		OutputMint: req.OutputMint,
		InAmount:   strconv.FormatUint(req.Amount, 10),
		OutAmount:  strconv.FormatUint(outRaw, 10),
		SwapMode:   "ExactIn",
	}
	if !f.omitImpact {
		res.PriceImpactPct = "0"
	}
	return res, nil
}

func (f *fakeOracle) counts() (calls, rejects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.rejects
}

func newTestEngine(t *testing.T, q Quoter, ladder []float64, budget time.Duration) *Engine {
	t.Helper()
	e, err := NewEngine(EngineConfig{
		Quoter:     q,
		Resolver:   testResolver,
		USDLadder:  ladder,
		TimeBudget: budget,
	})
	require.NoError(t, err)
	return e
}

func TestCalculateDepth_SellFlatPrice(t *testing.T) {
	oracle := &fakeOracle{price: 100}
	e := newTestEngine(t, oracle, []float64{500, 1_000, 10_000}, 30*time.Second)

	res, err := e.CalculateDepth(context.Background(), mintSOL, mintUSDC, DirectionSell)
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Len(t, res.Points, 3)
	assert.Empty(t, res.Errors)
	require.NotNil(t, res.BaselinePrice)
	assert.InDelta(t, 100, *res.BaselinePrice, 0.01)

	for i, p := range res.Points {
		assert.GreaterOrEqual(t, p.PriceImpactPct, 0.0)
		assert.InDelta(t, 0, p.PriceImpactPct, 0.01)
		if i > 0 {
			assert.Greater(t, p.TradeUSDValue, res.Points[i-1].TradeUSDValue)
		}
	}

	// $500 + $1000 + $10000 at 100 USDC/SOL: 5 + 10 + 100 SOL
	assert.InDelta(t, 5, res.Points[0].InputAmount, 1e-9)
	assert.InDelta(t, 10, res.Points[1].InputAmount, 1e-9)
	assert.InDelta(t, 100, res.Points[2].InputAmount, 1e-9)
	assert.InDelta(t, 115, res.Points[2].CumulativeInputLiquidity, 1e-9)
	assert.GreaterOrEqual(t, res.ElapsedMs, int64(0))
}

func TestCalculateDepth_Validation(t *testing.T) {
	e := newTestEngine(t, &fakeOracle{price: 100}, nil, time.Second)

	_, err := e.CalculateDepth(context.Background(), "", mintUSDC, DirectionSell)
	assert.Error(t, err)

	_, err = e.CalculateDepth(context.Background(), mintSOL, mintUSDC, Direction("sideways"))
	assert.Error(t, err)
}

func TestSample_MaxLiquiditySearchConvergence(t *testing.T) {
	oracle := &fakeOracle{price: 100, maxRoutableUSD: 7_300_000}
	e := newTestEngine(t, oracle, []float64{5_000_000, 10_000_000}, 30*time.Second)

	res, err := e.CalculateDepth(context.Background(), mintSOL, mintUSDC, DirectionSell)
	require.NoError(t, err)

	// the rejected $10M target is still recorded for audit
	var sawNoRoute bool
	for _, pe := range res.Errors {
		if pe.Kind == KindNoRoute && pe.TradeUSDValue == 10_000_000 {
			sawNoRoute = true
		}
	}
	assert.True(t, sawNoRoute)

	require.NotEmpty(t, res.Points)
	best := res.Points[len(res.Points)-1]
	assert.LessOrEqual(t, best.TradeUSDValue, 7_300_000.0)
	// converges to within one $100K tier step of the true limit
	assert.InDelta(t, 7_300_000, best.TradeUSDValue, 150_000)

	_, rejects := oracle.counts()
	assert.LessOrEqual(t, rejects, maxSearchProbes+1, "search probes stay bounded")

	// intermediate successful midpoints are kept, sorted strictly ascending
	for i := 1; i < len(res.Points); i++ {
		assert.Greater(t, res.Points[i].TradeUSDValue, res.Points[i-1].TradeUSDValue)
		assert.GreaterOrEqual(t, res.Points[i].CumulativeInputLiquidity, res.Points[i-1].CumulativeInputLiquidity)
	}
}

func TestSample_SearchExhausted(t *testing.T) {
	// nothing routes at all: the search below the first rejected ladder
	// entry finds no floor
	oracle := &fakeOracle{price: 100, maxRoutableUSD: 1}
	e := newTestEngine(t, oracle, []float64{10_000}, 30*time.Second)

	// Buy avoids the baseline dependency (unit price is known)
	res, err := e.CalculateDepth(context.Background(), mintSOL, mintUSDC, DirectionBuy)
	require.NoError(t, err)

	assert.Empty(t, res.Points)
	assert.NotEmpty(t, res.Errors, "empty points with errors means no liquidity data obtainable")
	assert.Nil(t, res.BaselinePrice)
}

func TestSample_TimeBudgetTruncates(t *testing.T) {
	ladder := make([]float64, 10)
	for i := range ladder {
		ladder[i] = float64((i + 1) * 1000)
	}
	oracle := &fakeOracle{price: 100, perCallDelay: 10 * time.Millisecond}
	e := newTestEngine(t, oracle, ladder, 55*time.Millisecond)

	res, err := e.CalculateDepth(context.Background(), mintSOL, mintUSDC, DirectionSell)
	require.NoError(t, err)

	// one interval goes to the baseline probe, roughly four to the ladder
	assert.GreaterOrEqual(t, len(res.Points), 3)
	assert.LessOrEqual(t, len(res.Points), 6)
	assert.True(t, res.Truncated)
	assert.NotEmpty(t, res.Notes)
	// truncation is informational, not a probe error
	assert.Empty(t, res.Errors)
}

func TestSample_CancelledContextReturnsPartial(t *testing.T) {
	oracle := &fakeOracle{price: 100, perCallDelay: 10 * time.Millisecond}
	e := newTestEngine(t, oracle, []float64{500, 1_000, 10_000, 100_000}, 30*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	res, err := e.CalculateDepth(ctx, mintSOL, mintUSDC, DirectionSell)
	require.NoError(t, err, "cancellation yields partial results, not an error")
	assert.True(t, res.Truncated)
	assert.Less(t, len(res.Points), 4)
}

func TestSample_BaselinePromotionOnBuy(t *testing.T) {
	// small trial probes are rejected, so no baseline is established before
	// the first ladder entry quotes
	oracle := &fakeOracle{price: 100, minRoutableUSD: 200}
	e := newTestEngine(t, oracle, []float64{500, 1_000}, 30*time.Second)

	res, err := e.CalculateDepth(context.Background(), mintSOL, mintUSDC, DirectionBuy)
	require.NoError(t, err)

	require.Len(t, res.Points, 2)
	require.NotNil(t, res.BaselinePrice)
	// Buy execution price is tokens per USD
	assert.InDelta(t, 0.01, *res.BaselinePrice, 1e-6)
	assert.Equal(t, res.Points[0].ExecutionPrice, *res.BaselinePrice)
}

func TestSample_SellWithoutBaselineSkipsEntries(t *testing.T) {
	// every quote fails, so Sell can never size a probe
	oracle := &fakeOracle{price: 100, maxRoutableUSD: 0.5}
	e := newTestEngine(t, oracle, []float64{500, 1_000}, 30*time.Second)

	res, err := e.CalculateDepth(context.Background(), mintSOL, mintUSDC, DirectionSell)
	require.NoError(t, err)

	assert.Empty(t, res.Points)
	require.NotEmpty(t, res.Errors)
	for _, pe := range res.Errors {
		assert.Equal(t, KindInvalid, pe.Kind)
	}
}

func TestSlippageBpsForTarget(t *testing.T) {
	assert.Equal(t, uint16(250), slippageBpsForTarget(500))
	assert.Equal(t, uint16(1000), slippageBpsForTarget(1_000_000))
	assert.Equal(t, uint16(2500), slippageBpsForTarget(10_000_000))
	assert.Equal(t, uint16(5000), slippageBpsForTarget(50_000_000))
}

func TestSearchStepFloor(t *testing.T) {
	assert.Equal(t, 100_000.0, searchStepFloor(10_000_000))
	assert.Equal(t, 10_000.0, searchStepFloor(1_000_000))
	assert.Equal(t, 1_000.0, searchStepFloor(100_000))
	assert.Equal(t, 100.0, searchStepFloor(10_000))
	assert.Equal(t, 10.0, searchStepFloor(900))
}
