package depth

import (
	"context"
	"fmt"
)

const (
	// descendLadderStepFrac and descendLadderFloorFrac bound phase one of the
	// search: candidates run from 95% of the rejected target down to 20% of
	// it in 5% decrements.
	descendLadderStepFrac  = 0.05
	descendLadderFloorFrac = 0.20

	// maxSearchProbes caps the total quotes one search may issue, both
	// phases combined, so a pathological pair cannot eat the whole budget.
	maxSearchProbes = 24
)

// findMaxRoutable locates the largest routable USD size between lastKnownGood
// and the rejected target. Phase one walks a descending ladder of candidates
// below the rejected size until one quotes; phase two binary-searches the
// remaining interval down to a tier-appropriate step floor. Every successful
// probe along the way is recorded as a depth point, so intermediate
// discoveries survive even if the search is cut short.
//
// All probes go through quotePoint and therefore through the client's pacing
// gate. Returns false when nothing routable was found.
func (r *run) findMaxRoutable(ctx context.Context, rejected, lastKnownGood float64) bool {
	probes := 0

	quote := func(usd float64) bool {
		probes++
		unitPrice, ok := r.spendUnitPrice()
		if !ok {
			return false
		}
		raw, err := ToRawAmount(usd, r.pair.spend(r.dir).Decimals, unitPrice)
		if err != nil {
			r.recordError(usd, kindForConvertErr(err), err.Error(), 0)
			return false
		}
		return r.quotePoint(ctx, usd, raw, false)
	}

	// Phase one: descending ladder below the rejected target.
	lo := 0.0
	floor := rejected * descendLadderFloorFrac
	for frac := 1 - descendLadderStepFrac; ; frac -= descendLadderStepFrac {
		candidate := rejected * frac
		if candidate < floor || probes >= maxSearchProbes {
			break
		}
		if candidate <= lastKnownGood {
			// Everything at or below this size is already known to route.
			lo = lastKnownGood
			break
		}
		if r.expired(ctx) {
			return false
		}
		if quote(candidate) {
			lo = candidate
			break
		}
	}

	if lo <= 0 {
		r.recordError(rejected, KindNoRoute,
			fmt.Sprintf("max-liquidity search exhausted below $%.0f", rejected), 0)
		return false
	}

	// Phase two: binary narrowing of (lo, rejected) down to the tier's step
	// floor. Successful midpoints raise lo and are recorded; failures lower
	// hi.
	hi := rejected
	step := searchStepFloor(rejected)
	for hi-lo > step && probes < maxSearchProbes {
		if r.expired(ctx) {
			break
		}
		mid := (lo + hi) / 2
		if quote(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}

	r.note(fmt.Sprintf("max routable size near $%.0f (rejected $%.0f)", lo, rejected))
	return true
}

func kindForConvertErr(err error) ErrorKind {
	switch err {
	case ErrAmountTooSmall:
		return KindAmountTooSmall
	case ErrAmountOverflow:
		return KindAmountOverflow
	default:
		return KindInvalid
	}
}
