package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"podledger/core/events"
	"podledger/core/state"
	"podledger/core/types"
	"podledger/native/podcast"
	"podledger/observability/metrics"
)

// ErrInsufficientFunds rejects a purchase whose payment exceeds the
// subscriber's settlement balance.
var ErrInsufficientFunds = errors.New("node: insufficient funds for payment")

// NodeConfig carries the process-wide ledger configuration. Owner and vault
// are fixed at initialization; the fee rate moves only through the owner-only
// setter afterwards.
type NodeConfig struct {
	Owner         [20]byte
	Vault         [20]byte
	DefaultFeeBps uint32
	Logger        *slog.Logger
	Metrics       *metrics.PodcastMetrics
	FeedCapacity  int
}

// Node hosts the podcast engine. It provides the guarantees the engine
// assumes from its environment: state-mutating operations run one at a time
// to completion, the payment for a purchase is collected before the engine
// runs and returned in full if the engine aborts, and emitted events are
// bridged into the feed, logs, and metrics.
type Node struct {
	mu      sync.Mutex
	state   *state.Manager
	engine  *podcast.Engine
	log     *slog.Logger
	metrics *metrics.PodcastMetrics
	feed    *EventFeed
	owner   [20]byte
}

// NewNode wires an engine against the state manager and returns the host.
func NewNode(mgr *state.Manager, cfg NodeConfig) *Node {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := podcast.NewEngine()
	engine.SetState(mgr)
	engine.SetTransferer(mgr)
	engine.SetOwner(cfg.Owner)
	engine.SetVault(cfg.Vault)
	engine.SetDefaultFeeRate(cfg.DefaultFeeBps)
	n := &Node{
		state:   mgr,
		engine:  engine,
		log:     logger,
		metrics: cfg.Metrics,
		feed:    NewEventFeed(cfg.FeedCapacity),
		owner:   cfg.Owner,
	}
	engine.SetEmitter(n)
	if rate, err := engine.FeeRate(); err == nil {
		n.metrics.SetFeeRate(rate)
	}
	return n
}

// Emit implements events.Emitter, fanning engine events into the feed and
// the structured log. Fire-and-forget: the ledger never reads events back.
func (n *Node) Emit(evt events.Event) {
	if n == nil || evt == nil {
		return
	}
	payload, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	raw := payload.Event()
	if raw == nil {
		return
	}
	n.feed.Publish(raw)
	attrs := make([]any, 0, len(raw.Attributes)*2)
	for k, v := range raw.Attributes {
		attrs = append(attrs, slog.String(k, v))
	}
	n.log.Info(raw.Type, attrs...)
}

// Events exposes the node's event feed for streaming consumers.
func (n *Node) Events() *EventFeed { return n.feed }

// SetNowFunc overrides the engine clock. Intended for tests.
func (n *Node) SetNowFunc(now func() int64) { n.engine.SetNowFunc(now) }

func bigFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

func (n *Node) refreshPoolGauge() {
	if n.metrics == nil {
		return
	}
	if pool, err := n.engine.PlatformPool(); err == nil {
		n.metrics.SetPlatformPool(bigFloat(pool))
	}
}

// CreatePodcast registers a podcast on behalf of the creator.
func (n *Node) CreatePodcast(creator [20]byte, title, description, mediaURI string, pricePerDay *big.Int) (*podcast.Podcast, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	pod, err := n.engine.CreatePodcast(creator, title, description, mediaURI, pricePerDay)
	if err != nil {
		return nil, err
	}
	n.metrics.ObservePodcastCreated()
	return pod, nil
}

// DeactivatePodcast switches a podcast off on behalf of its creator.
func (n *Node) DeactivatePodcast(caller [20]byte, id uint64) (*podcast.Podcast, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	pod, err := n.engine.DeactivatePodcast(caller, id)
	if err != nil {
		return nil, err
	}
	n.metrics.ObserveDeactivation()
	return pod, nil
}

// Subscribe collects the payment from the caller's settlement account, runs
// the purchase, and returns the payment in full when the engine aborts.
func (n *Node) Subscribe(caller [20]byte, podcastID uint64, duration int64, payment *big.Int) (*podcast.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if payment == nil || payment.Sign() < 0 {
		return nil, fmt.Errorf("%w: payment must not be negative", podcast.ErrInvalidInput)
	}
	acc, err := n.state.GetAccount(caller[:])
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.Balance == nil || acc.Balance.Cmp(payment) < 0 {
		return nil, ErrInsufficientFunds
	}
	acc.Balance = new(big.Int).Sub(acc.Balance, payment)
	if err := n.state.PutAccount(caller[:], acc); err != nil {
		return nil, err
	}
	receipt, err := n.engine.Subscribe(caller, podcastID, duration, payment)
	if err != nil {
		if refundErr := n.state.Transfer(caller, payment); refundErr != nil {
			return nil, errors.Join(err, refundErr)
		}
		return nil, err
	}
	n.metrics.ObserveSale(bigFloat(receipt.Cost))
	n.refreshPoolGauge()
	return receipt, nil
}

// Withdraw settles a creator's accrued balance to their account.
func (n *Node) Withdraw(caller [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	amount, err := n.engine.Withdraw(caller)
	if err != nil {
		return nil, err
	}
	n.metrics.ObservePayout(bigFloat(amount))
	n.refreshPoolGauge()
	return amount, nil
}

// SetFeeRate persists a new platform fee rate on behalf of the owner.
func (n *Node) SetFeeRate(caller [20]byte, bps uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.engine.SetFeeRate(caller, bps); err != nil {
		return err
	}
	n.metrics.SetFeeRate(bps)
	return nil
}

// WithdrawPlatformFees drains the derived fee pool to the owner's account.
func (n *Node) WithdrawPlatformFees(caller [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	amount, err := n.engine.WithdrawPlatformFees(caller)
	if err != nil {
		return nil, err
	}
	n.refreshPoolGauge()
	return amount, nil
}

// FundAccount credits a settlement account. Owner-only: it stands in for the
// external settlement rail that tops up subscriber accounts.
func (n *Node) FundAccount(caller [20]byte, to [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if caller != n.owner || types.IsZeroAddress(n.owner) {
		return fmt.Errorf("%w: owner only", podcast.ErrUnauthorized)
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", podcast.ErrInvalidInput)
	}
	return n.state.Transfer(to, amount)
}

// Podcast returns the record for an assigned id.
func (n *Node) Podcast(id uint64) (*podcast.Podcast, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.Podcast(id)
}

// PodcastsByCreator lists the ids registered by a creator.
func (n *Node) PodcastsByCreator(creator [20]byte) ([]uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.PodcastsByCreator(creator)
}

// Subscription returns the record for a (podcast, subscriber) pair.
func (n *Node) Subscription(podcastID uint64, subscriber [20]byte) (*podcast.Subscription, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.Subscription(podcastID, subscriber)
}

// HasActiveAccess reports whether the subscriber holds unexpired access.
func (n *Node) HasActiveAccess(podcastID uint64, subscriber [20]byte) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.HasActiveAccess(podcastID, subscriber)
}

// Balance returns a creator's accrued earnings ledger.
func (n *Node) Balance(creator [20]byte) (*podcast.CreatorBalance, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.Balance(creator)
}

// FeeRate returns the fee rate in force, in basis points.
func (n *Node) FeeRate() (uint32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.FeeRate()
}

// PlatformPool returns the derived platform share of the held funds.
func (n *Node) PlatformPool() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.PlatformPool()
}

// Account returns the settlement account for an address, zero-valued when
// the address has never held funds.
func (n *Node) Account(addr [20]byte) (*types.Account, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	acc, err := n.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	return acc.Clone(), nil
}
