package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"podledger/core/types"
	"podledger/native/podcast"
	"podledger/storage"
)

func testAddr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func TestPodcastRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	_, ok, err := mgr.PodcastGet(0)
	require.NoError(t, err)
	require.False(t, ok)

	pod := &podcast.Podcast{
		ID:          0,
		Creator:     testAddr(0x01),
		Title:       "Signal & Noise",
		MediaURI:    "ipfs://feed",
		PricePerDay: big.NewInt(50),
		CreatedAt:   1_000,
		Active:      true,
		TotalSales:  big.NewInt(0),
	}
	require.NoError(t, mgr.PodcastPut(pod))

	loaded, ok, err := mgr.PodcastGet(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pod.Title, loaded.Title)
	require.Equal(t, pod.Creator, loaded.Creator)
	require.Zero(t, pod.PricePerDay.Cmp(loaded.PricePerDay))

	// Mutating the loaded copy must not leak back into the store.
	loaded.Title = "mutated"
	again, _, err := mgr.PodcastGet(0)
	require.NoError(t, err)
	require.Equal(t, "Signal & Noise", again.Title)
}

func TestPodcastCounterRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	next, err := mgr.PodcastCounter()
	require.NoError(t, err)
	require.Zero(t, next)

	require.NoError(t, mgr.PodcastSetCounter(7))
	next, err = mgr.PodcastCounter()
	require.NoError(t, err)
	require.Equal(t, uint64(7), next)
}

func TestCreatorIndexRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	creator := testAddr(0x02)

	ids, err := mgr.PodcastsByCreatorGet(creator)
	require.NoError(t, err)
	require.Empty(t, ids)

	require.NoError(t, mgr.PodcastsByCreatorPut(creator, []uint64{0, 3, 5}))
	ids, err = mgr.PodcastsByCreatorGet(creator)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 3, 5}, ids)
}

func TestSubscriptionLifecycle(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	fan := testAddr(0x03)

	sub := &podcast.Subscription{
		PodcastID:  2,
		Subscriber: fan,
		ExpiresAt:  90_000,
		Active:     true,
		StartedAt:  1_000,
	}
	require.NoError(t, mgr.SubscriptionPut(sub))

	loaded, ok, err := mgr.SubscriptionGet(2, fan)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(90_000), loaded.ExpiresAt)

	// The record is keyed by pair, not by podcast alone.
	_, ok, err = mgr.SubscriptionGet(2, testAddr(0x04))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.SubscriptionDelete(2, fan))
	_, ok, err = mgr.SubscriptionGet(2, fan)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBalancesSumAcrossCreators(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	sum, err := mgr.BalancesSum()
	require.NoError(t, err)
	require.Zero(t, sum.Sign())

	require.NoError(t, mgr.BalancePut(&podcast.CreatorBalance{
		Creator: testAddr(0x01), Pending: big.NewInt(975), TotalEarned: big.NewInt(975),
	}))
	require.NoError(t, mgr.BalancePut(&podcast.CreatorBalance{
		Creator: testAddr(0x02), Pending: big.NewInt(162), TotalEarned: big.NewInt(162),
	}))
	require.NoError(t, mgr.BalancePut(&podcast.CreatorBalance{
		Creator: testAddr(0x03), Pending: big.NewInt(0), TotalEarned: big.NewInt(500),
	}))

	sum, err = mgr.BalancesSum()
	require.NoError(t, err)
	require.Zero(t, sum.Cmp(big.NewInt(1_137)))
}

func TestFeePolicyRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	_, ok, err := mgr.FeePolicyGet()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.FeePolicyPut(&podcast.FeePolicy{FeeBps: 250, UpdatedAt: 1_000}))
	policy, ok, err := mgr.FeePolicyGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(250), policy.FeeBps)
}

func TestAccountsAndTransfer(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	fan := testAddr(0x05)

	acc, err := mgr.GetAccount(fan[:])
	require.NoError(t, err)
	require.Nil(t, acc)

	require.NoError(t, mgr.Transfer(fan, big.NewInt(1_000)))
	acc, err = mgr.GetAccount(fan[:])
	require.NoError(t, err)
	require.NotNil(t, acc)
	require.Zero(t, acc.Balance.Cmp(big.NewInt(1_000)))

	require.NoError(t, mgr.Transfer(fan, big.NewInt(500)))
	acc, err = mgr.GetAccount(fan[:])
	require.NoError(t, err)
	require.Zero(t, acc.Balance.Cmp(big.NewInt(1_500)))

	require.Error(t, mgr.Transfer(fan, big.NewInt(-1)))
	require.NoError(t, mgr.Transfer(fan, big.NewInt(0)))

	require.NoError(t, mgr.PutAccount(fan[:], &types.Account{Nonce: 3, Balance: big.NewInt(42)}))
	acc, err = mgr.GetAccount(fan[:])
	require.NoError(t, err)
	require.Equal(t, uint64(3), acc.Nonce)

	require.NoError(t, mgr.PutAccount(fan[:], nil))
	acc, err = mgr.GetAccount(fan[:])
	require.NoError(t, err)
	require.Nil(t, acc)
}
