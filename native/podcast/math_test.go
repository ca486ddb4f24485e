package podcast

import (
	"math/big"
	"testing"
)

func TestProrate(t *testing.T) {
	cases := []struct {
		name     string
		price    int64
		duration int64
		want     int64
	}{
		{"full day", 50, SecondsPerDay, 50},
		{"three days", 50, 3 * SecondsPerDay, 150},
		{"half day", 100, SecondsPerDay / 2, 50},
		{"half day floors", 333, SecondsPerDay / 2, 166},
		{"tiny duration floors to zero", 1, 1, 0},
		{"hundred seconds", 1_000, 100, 1},
		{"zero price", 0, SecondsPerDay, 0},
		{"zero duration", 50, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := prorate(big.NewInt(tc.price), tc.duration)
			if got.Cmp(big.NewInt(tc.want)) != 0 {
				t.Fatalf("prorate(%d, %d) = %s, want %d", tc.price, tc.duration, got, tc.want)
			}
		})
	}
	if got := prorate(nil, SecondsPerDay); got.Sign() != 0 {
		t.Fatalf("prorate(nil) = %s, want 0", got)
	}
}

func TestSplitFeeConservesCost(t *testing.T) {
	cases := []struct {
		name       string
		cost       int64
		bps        uint32
		wantFee    int64
		wantPayout int64
	}{
		{"quarter percent", 1_000, 250, 25, 975},
		{"max fee", 1_000, MaxFeeBps, 100, 900},
		{"zero fee", 1_000, 0, 0, 1_000},
		{"dust stays with creator", 3, 250, 0, 3},
		{"single unit", 1, MaxFeeBps, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee, payout := splitFee(big.NewInt(tc.cost), tc.bps)
			if fee.Cmp(big.NewInt(tc.wantFee)) != 0 || payout.Cmp(big.NewInt(tc.wantPayout)) != 0 {
				t.Fatalf("splitFee(%d, %d) = %s, %s; want %d, %d", tc.cost, tc.bps, fee, payout, tc.wantFee, tc.wantPayout)
			}
			if sum := new(big.Int).Add(fee, payout); sum.Cmp(big.NewInt(tc.cost)) != 0 {
				t.Fatalf("fee %s + payout %s != cost %d", fee, payout, tc.cost)
			}
		})
	}
	fee, payout := splitFee(nil, 250)
	if fee.Sign() != 0 || payout.Sign() != 0 {
		t.Fatalf("splitFee(nil) = %s, %s; want zeros", fee, payout)
	}
}
