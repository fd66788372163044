package depth

import (
	"context"
	"fmt"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/jupiter"
)

// estimateBaseline obtains a small-size reference price. For Sell it first
// probes the reverse direction, spending a small fixed USD amount of the
// output token, which yields a price without needing a price to size the
// probe. If that fails it walks a ladder of decreasing trial USD amounts
// converted under a sequence of assumed unit prices until one quotes.
//
// Returns nil when every trial fails; the sampler then promotes the first
// successful ladder point's execution price instead.
func (r *run) estimateBaseline(ctx context.Context) *float64 {
	if r.dir == DirectionSell {
		if price := r.reverseBaselineProbe(ctx); price != nil {
			return price
		}
	}

	return r.trialBaselineLadder(ctx)
}

// reverseBaselineProbe spends baselineProbeUSD of the USD-pegged output token
// buying the input token, and derives the input token's spot price from what
// came back.
func (r *run) reverseBaselineProbe(ctx context.Context) *float64 {
	if r.expired(ctx) {
		return nil
	}

	raw, err := ToRawAmount(baselineProbeUSD, r.pair.Output.Decimals, 1)
	if err != nil {
		return nil
	}

	res, err := r.e.quoter.Quote(ctx, jupiter.QuoteRequest{
		InputMint:   r.pair.Output.Mint,
		OutputMint:  r.pair.Input.Mint,
		Amount:      raw,
		SlippageBps: slippageBpsForTarget(baselineProbeUSD),
		SwapMode:    "ExactIn",
	})
	if err != nil {
		r.log.WithError(err).Debug("reverse baseline probe failed")
		return nil
	}

	inRaw, errIn := res.InAmountRaw()
	outRaw, errOut := res.OutAmountRaw()
	if errIn != nil || errOut != nil || outRaw == 0 {
		return nil
	}

	usdSpent := uiAmount(inRaw, r.pair.Output.Decimals)
	tokensBought := uiAmount(outRaw, r.pair.Input.Decimals)
	if tokensBought <= 0 {
		return nil
	}

	price := usdSpent / tokensBought
	if !validPrice(price) {
		return nil
	}

	r.note(fmt.Sprintf("baseline price %.8g from reverse probe", price))
	return &price
}

// trialBaselineLadder tries decreasing small USD amounts under assumed unit
// prices; the first trial producing a positive raw amount and a valid quote
// fixes the baseline.
func (r *run) trialBaselineLadder(ctx context.Context) *float64 {
	spend := r.pair.spend(r.dir)
	receive := r.pair.receive(r.dir)

	guesses := baselineUnitPriceGuesses
	if r.dir == DirectionBuy {
		// Buy spends the USD-pegged token; its unit price is known.
		guesses = []float64{1}
	}

	for _, trialUSD := range baselineTrialUSD {
		for _, guess := range guesses {
			if r.expired(ctx) {
				return nil
			}

			raw, err := ToRawAmount(trialUSD, spend.Decimals, guess)
			if err != nil || raw == 0 {
				continue
			}

			res, err := r.e.quoter.Quote(ctx, jupiter.QuoteRequest{
				InputMint:   spend.Mint,
				OutputMint:  receive.Mint,
				Amount:      raw,
				SlippageBps: slippageBpsForTarget(trialUSD),
				SwapMode:    "ExactIn",
			})
			if err != nil {
				continue
			}

			inRaw, errIn := res.InAmountRaw()
			outRaw, errOut := res.OutAmountRaw()
			if errIn != nil || errOut != nil || inRaw == 0 {
				continue
			}

			price := uiAmount(outRaw, receive.Decimals) / uiAmount(inRaw, spend.Decimals)
			if !validPrice(price) {
				continue
			}

			r.note(fmt.Sprintf("baseline price %.8g from $%.0f trial probe", price, trialUSD))
			return &price
		}
	}

	return nil
}
