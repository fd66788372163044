package depth

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Tuning constants for the probe algorithm. Applied uniformly; see the
// per-function comments for how each is used.
const (
	// DedupToleranceFrac is the relative USD tolerance within which two depth
	// points are considered the same size and the later one is dropped.
	DedupToleranceFrac = 0.02

	// overflowShrinkFactor is the geometric step the sampler descends by when
	// a converted amount overflows the wire format.
	overflowShrinkFactor = 0.85
	maxOverflowShrinks   = 25

	// priceSanityCeiling rejects corrupted upstream prices.
	priceSanityCeiling = 1e9

	// baselineProbeUSD is the small reference size used to establish the
	// baseline (spot) price.
	baselineProbeUSD = 100
)

// baselineTrialUSD and baselineUnitPriceGuesses drive the fallback ladder when
// the reverse-direction baseline probe fails: each trial USD amount is
// converted with each assumed unit price until one yields a positive raw
// amount that quotes successfully.
var (
	baselineTrialUSD         = []float64{100, 50, 10}
	baselineUnitPriceGuesses = []float64{100, 10, 1, 0.1}
)

// slippageBpsForTarget widens the quoted slippage tolerance with target size.
// At large notionals the point is discovering whether any route exists at
// all, not bounding execution risk.
func slippageBpsForTarget(usd float64) uint16 {
	switch {
	case usd >= 50_000_000:
		return 5000
	case usd >= 10_000_000:
		return 2500
	case usd >= 1_000_000:
		return 1000
	default:
		return 250
	}
}

// searchStepFloor is the binary-search granularity floor for a given target
// tier: coarser steps at larger notionals keep total probe work predictable.
func searchStepFloor(target float64) float64 {
	switch {
	case target >= 5_000_000:
		return 100_000
	case target >= 500_000:
		return 10_000
	case target >= 50_000:
		return 1_000
	case target >= 5_000:
		return 100
	default:
		return 10
	}
}

// Engine runs depth calculations. It holds no per-calculation state; multiple
// calculations may run concurrently and share only the quote client's pacing
// gate.
type Engine struct {
	quoter   Quoter
	resolver Resolver

	usdLadder  []float64
	timeBudget time.Duration
	logger     *logrus.Logger
}

// EngineConfig holds dependencies and tuning for the depth engine.
type EngineConfig struct {
	Quoter   Quoter
	Resolver Resolver

	USDLadder  []float64
	TimeBudget time.Duration
	Logger     *logrus.Logger
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Quoter == nil {
		return nil, fmt.Errorf("depth engine requires a quoter")
	}
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("depth engine requires a decimals resolver")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = 45 * time.Second
	}
	if len(cfg.USDLadder) == 0 {
		cfg.USDLadder = []float64{500, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 50_000_000, 100_000_000}
	}

	return &Engine{
		quoter:     cfg.Quoter,
		resolver:   cfg.Resolver,
		usdLadder:  cfg.USDLadder,
		timeBudget: cfg.TimeBudget,
		logger:     cfg.Logger,
	}, nil
}
