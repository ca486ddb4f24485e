package podcast

import "math/big"

// Podcast represents a premium content entry registered by a creator. IDs are
// dense and monotonically assigned starting at zero; the creator is fixed at
// registration and never changes.
type Podcast struct {
	ID          uint64   `json:"id"`
	Creator     [20]byte `json:"creator"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	MediaURI    string   `json:"mediaUri"`
	PricePerDay *big.Int `json:"pricePerDay"`
	CreatedAt   int64    `json:"createdAt"`
	Active      bool     `json:"active"`

	// Lifetime tallies, informational only.
	TotalSales       *big.Int `json:"totalSales"`
	SubscriberEpochs uint64   `json:"subscriberEpochs"`
}

// Clone returns a deep copy of the podcast record.
func (p *Podcast) Clone() *Podcast {
	if p == nil {
		return nil
	}
	clone := *p
	if p.PricePerDay != nil {
		clone.PricePerDay = new(big.Int).Set(p.PricePerDay)
	}
	if p.TotalSales != nil {
		clone.TotalSales = new(big.Int).Set(p.TotalSales)
	}
	return &clone
}

// Subscription records premium access for a (podcast, subscriber) pair. At
// most one record exists per pair; a repeat purchase replaces it with an
// extended expiry.
type Subscription struct {
	PodcastID  uint64   `json:"podcastId"`
	Subscriber [20]byte `json:"subscriber"`
	ExpiresAt  int64    `json:"expiresAt"`
	Active     bool     `json:"active"`
	StartedAt  int64    `json:"startedAt"`
	RenewedAt  int64    `json:"renewedAt"`
	Renewals   uint64   `json:"renewals"`
}

// Clone returns a copy of the subscription record.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// CreatorBalance maintains the accrued earnings owed to a creator. Pending is
// incremented on every sale and reset to zero on withdrawal.
type CreatorBalance struct {
	Creator        [20]byte `json:"creator"`
	Pending        *big.Int `json:"pending"`
	TotalEarned    *big.Int `json:"totalEarned"`
	LastWithdrawal int64    `json:"lastWithdrawal"`
}

// Clone returns a deep copy of the balance ledger.
func (b *CreatorBalance) Clone() *CreatorBalance {
	if b == nil {
		return nil
	}
	clone := *b
	if b.Pending != nil {
		clone.Pending = new(big.Int).Set(b.Pending)
	}
	if b.TotalEarned != nil {
		clone.TotalEarned = new(big.Int).Set(b.TotalEarned)
	}
	return &clone
}

// FeePolicy captures the platform fee applied at the time of each sale. The
// policy is persisted so an owner-set rate survives restarts; it never
// reprices balances accrued under an earlier rate.
type FeePolicy struct {
	FeeBps    uint32 `json:"feeBps"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Clone returns a copy of the fee policy.
func (f *FeePolicy) Clone() *FeePolicy {
	if f == nil {
		return nil
	}
	clone := *f
	return &clone
}

// Receipt summarises a completed subscription purchase.
type Receipt struct {
	PodcastID     uint64   `json:"podcastId"`
	Subscriber    [20]byte `json:"subscriber"`
	Duration      int64    `json:"duration"`
	Cost          *big.Int `json:"cost"`
	Fee           *big.Int `json:"fee"`
	CreatorPayout *big.Int `json:"creatorPayout"`
	Change        *big.Int `json:"change"`
	ExpiresAt     int64    `json:"expiresAt"`
}

func newBalance(creator [20]byte) *CreatorBalance {
	return &CreatorBalance{
		Creator:     creator,
		Pending:     big.NewInt(0),
		TotalEarned: big.NewInt(0),
	}
}
