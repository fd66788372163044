package depth

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/jupiter"
)

// CalculateDepth resolves the pair's decimals and samples the configured USD
// ladder. It is synchronous and may take up to the time budget; it always
// returns a Result, possibly partial: probe failures are recorded, never
// propagated.
func (e *Engine) CalculateDepth(ctx context.Context, inputMint, outputMint string, dir Direction) (*Result, error) {
	if inputMint == "" || outputMint == "" {
		return nil, fmt.Errorf("input and output mints are required")
	}
	if dir != DirectionBuy && dir != DirectionSell {
		return nil, fmt.Errorf("unknown direction %q", dir)
	}

	pair := Pair{
		Input:  TokenRef{Mint: inputMint, Decimals: e.resolver.Decimals(ctx, inputMint)},
		Output: TokenRef{Mint: outputMint, Decimals: e.resolver.Decimals(ctx, outputMint)},
	}

	return e.Sample(ctx, pair, dir, e.usdLadder, e.timeBudget), nil
}

// Sample probes each ladder size in ascending order within the time budget
// and assembles the collected points into a Result.
func (e *Engine) Sample(ctx context.Context, pair Pair, dir Direction, usdLadder []float64, timeBudget time.Duration) *Result {
	r := &run{
		e:        e,
		pair:     pair,
		dir:      dir,
		start:    time.Now(),
		deadline: time.Now().Add(timeBudget),
		log: e.logger.WithFields(logrus.Fields{
			"input":     pair.Input.Mint,
			"output":    pair.Output.Mint,
			"direction": dir,
		}),
	}

	r.baseline = r.estimateBaseline(ctx)

	for _, usd := range usdLadder {
		if r.expired(ctx) {
			r.note(fmt.Sprintf("time budget exhausted before $%.0f target", usd))
			break
		}
		r.probeLadderEntry(ctx, usd)
	}

	points, baseline := Assemble(r.points, r.baseline)

	return &Result{
		Pair:          pair,
		Direction:     dir,
		Points:        points,
		Errors:        r.errs,
		BaselinePrice: baseline,
		ElapsedMs:     time.Since(r.start).Milliseconds(),
		Truncated:     r.truncated,
		Notes:         r.notes,
	}
}

// run carries the mutable state of a single depth calculation. It is never
// shared across goroutines.
type run struct {
	e    *Engine
	pair Pair
	dir  Direction

	start    time.Time
	deadline time.Time
	log      *logrus.Entry

	baseline  *float64
	points    []DepthPoint
	errs      []ProbeError
	notes     []string
	truncated bool
}

func (r *run) expired(ctx context.Context) bool {
	if ctx.Err() != nil || time.Now().After(r.deadline) {
		r.truncated = true
		return true
	}
	return false
}

func (r *run) note(msg string) {
	r.notes = append(r.notes, msg)
	r.log.Info(msg)
}

func (r *run) recordError(usd float64, kind ErrorKind, msg string, httpStatus int) {
	r.errs = append(r.errs, ProbeError{
		TradeUSDValue: usd,
		Kind:          kind,
		Message:       msg,
		HTTPStatus:    httpStatus,
		Timestamp:     time.Now().UTC(),
	})
	r.log.WithFields(logrus.Fields{
		"usd":  usd,
		"kind": kind,
	}).Debug(msg)
}

// spendUnitPrice is the USD price of one whole spend token, used to size
// probes. Buy spends the USD-pegged output token, so it is exactly 1; Sell
// needs the baseline price.
func (r *run) spendUnitPrice() (float64, bool) {
	if r.dir == DirectionBuy {
		return 1, true
	}
	if r.baseline == nil {
		return 0, false
	}
	return *r.baseline, true
}

// probeLadderEntry handles one ladder size end to end: conversion, overflow
// recovery, quoting, and the no-route max-liquidity search. No failure here
// aborts the run.
func (r *run) probeLadderEntry(ctx context.Context, usd float64) {
	unitPrice, ok := r.spendUnitPrice()
	if !ok {
		r.recordError(usd, KindInvalid, "no baseline price available to size probe", 0)
		return
	}

	spend := r.pair.spend(r.dir)
	raw, err := ToRawAmount(usd, spend.Decimals, unitPrice)
	switch err {
	case nil:
	case ErrAmountTooSmall:
		r.recordError(usd, KindAmountTooSmall, err.Error(), 0)
		return
	case ErrAmountOverflow:
		r.recordError(usd, KindAmountOverflow, err.Error(), 0)
		r.shrinkAndProbe(ctx, usd, unitPrice)
		return
	default:
		r.recordError(usd, KindInvalid, err.Error(), 0)
		return
	}

	r.quotePoint(ctx, usd, raw, true)
}

// shrinkAndProbe descends geometrically from the overflow ceiling looking for
// the largest USD size whose raw amount fits the wire format, then quotes it.
// The recovered point is keyed by the size actually traded, never the
// original aspiration.
func (r *run) shrinkAndProbe(ctx context.Context, usd, unitPrice float64) {
	spend := r.pair.spend(r.dir)

	target := usd
	if ceiling := MaxSafeUSD(spend.Decimals, unitPrice); ceiling > 0 && ceiling < target {
		target = ceiling
	}

	for i := 0; i < maxOverflowShrinks; i++ {
		if r.expired(ctx) {
			return
		}
		raw, err := ToRawAmount(target, spend.Decimals, unitPrice)
		if err == nil {
			r.quotePoint(ctx, target, raw, true)
			return
		}
		if err == ErrAmountTooSmall {
			r.recordError(target, KindAmountTooSmall, "overflow recovery shrank below one raw unit", 0)
			return
		}
		target *= overflowShrinkFactor
	}
}

// quotePoint issues one paced quote for the given raw amount and records the
// outcome. allowSearch gates the no-route max-liquidity search so the search
// itself does not recurse.
func (r *run) quotePoint(ctx context.Context, usd float64, raw uint64, allowSearch bool) bool {
	res, err := r.e.quoter.Quote(ctx, jupiter.QuoteRequest{
		InputMint:   r.pair.spend(r.dir).Mint,
		OutputMint:  r.pair.receive(r.dir).Mint,
		Amount:      raw,
		SlippageBps: slippageBpsForTarget(usd),
		SwapMode:    "ExactIn",
	})
	if err != nil {
		kind, status, msg := KindTransport, 0, err.Error()
		if qe, ok := jupiter.AsQuoteError(err); ok {
			kind, status, msg = ErrorKind(qe.Kind), qe.HTTPStatus, qe.Message
		}
		r.recordError(usd, kind, msg, status)

		if kind == KindNoRoute && allowSearch {
			r.findMaxRoutable(ctx, usd, r.largestSampledUSD())
		}
		return false
	}

	return r.recordQuote(usd, res)
}

// recordQuote turns a successful quote into a DepthPoint keyed by the
// requested USD value. Promotes the execution price to baseline when none was
// established; dedupes against already-recorded sizes.
func (r *run) recordQuote(usd float64, res *jupiter.QuoteResponse) bool {
	inRaw, errIn := res.InAmountRaw()
	outRaw, errOut := res.OutAmountRaw()
	if errIn != nil || errOut != nil || inRaw == 0 {
		r.recordError(usd, KindInvalid, "quote response carried unparseable amounts", 0)
		return false
	}

	in := uiAmount(inRaw, r.pair.spend(r.dir).Decimals)
	out := uiAmount(outRaw, r.pair.receive(r.dir).Decimals)
	exec := out / in

	if r.baseline == nil && validPrice(exec) {
		b := exec
		r.baseline = &b
		r.note(fmt.Sprintf("baseline price %.8g promoted from $%.0f sample", exec, usd))
	}

	impact := 0.0
	if oracle, ok := res.PriceImpact(); ok && oracle >= 0 {
		// Prefer the oracle's own routing-aware figure when present.
		impact = oracle
	} else if r.baseline != nil && *r.baseline > 0 {
		impact = math.Abs(exec-*r.baseline) / *r.baseline * 100
	}

	if r.hasPointNear(usd) {
		return true
	}

	r.points = append(r.points, DepthPoint{
		TradeUSDValue:  usd,
		InputAmount:    in,
		OutputAmount:   out,
		ExecutionPrice: exec,
		PriceImpactPct: impact,
	})

	r.log.WithFields(logrus.Fields{
		"usd":    usd,
		"in":     in,
		"out":    out,
		"price":  exec,
		"impact": impact,
	}).Debug("recorded depth point")
	return true
}

// hasPointNear reports whether a point within the dedup tolerance of usd was
// already recorded.
func (r *run) hasPointNear(usd float64) bool {
	for _, p := range r.points {
		if math.Abs(p.TradeUSDValue-usd) <= usd*DedupToleranceFrac {
			return true
		}
	}
	return false
}

// largestSampledUSD returns the biggest size that has quoted successfully so
// far, or 0 when none has.
func (r *run) largestSampledUSD() float64 {
	best := 0.0
	for _, p := range r.points {
		if p.TradeUSDValue > best {
			best = p.TradeUSDValue
		}
	}
	return best
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0) && p < priceSanityCeiling
}
