package podcast

import "math/big"

const (
	// SecondsPerDay is the billing-day unit prices are quoted against.
	SecondsPerDay = 86_400
	// MaxFeeBps caps the platform fee at 10%.
	MaxFeeBps = 1_000
	bpsDenom  = 10_000
)

// prorate converts a per-day price and a requested duration into the owed
// amount via linear scaling and floor division. Short durations relative to
// the price can legitimately cost zero; there is no minimum charge.
func prorate(pricePerDay *big.Int, duration int64) *big.Int {
	if pricePerDay == nil || pricePerDay.Sign() <= 0 || duration <= 0 {
		return big.NewInt(0)
	}
	cost := new(big.Int).Mul(pricePerDay, big.NewInt(duration))
	return cost.Div(cost, big.NewInt(SecondsPerDay))
}

// splitFee divides a sale between the platform and the creator. The fee is
// floor(cost*bps/10000), so any rounding dust stays with the creator and
// fee+payout always equals cost exactly.
func splitFee(cost *big.Int, bps uint32) (fee *big.Int, payout *big.Int) {
	if cost == nil || cost.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	if bps == 0 {
		return big.NewInt(0), new(big.Int).Set(cost)
	}
	fee = new(big.Int).Mul(cost, big.NewInt(int64(bps)))
	fee = fee.Div(fee, big.NewInt(bpsDenom))
	payout = new(big.Int).Sub(cost, fee)
	return fee, payout
}
