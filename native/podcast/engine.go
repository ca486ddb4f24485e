package podcast

import (
	"encoding/hex"
	"math/big"
	"time"

	"podledger/core/events"
	"podledger/core/types"
)

type engineState interface {
	PodcastCounter() (uint64, error)
	PodcastSetCounter(next uint64) error
	PodcastGet(id uint64) (*Podcast, bool, error)
	PodcastPut(p *Podcast) error
	PodcastsByCreatorGet(creator [20]byte) ([]uint64, error)
	PodcastsByCreatorPut(creator [20]byte, ids []uint64) error
	SubscriptionGet(podcastID uint64, subscriber [20]byte) (*Subscription, bool, error)
	SubscriptionPut(sub *Subscription) error
	SubscriptionDelete(podcastID uint64, subscriber [20]byte) error
	BalanceGet(creator [20]byte) (*CreatorBalance, bool, error)
	BalancePut(balance *CreatorBalance) error
	BalancesSum() (*big.Int, error)
	FeePolicyGet() (*FeePolicy, bool, error)
	FeePolicyPut(policy *FeePolicy) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Transferer settles funds out of the module. A failed transfer aborts the
// enclosing operation; the engine restores every prior write before returning.
type Transferer interface {
	Transfer(to [20]byte, amount *big.Int) error
}

// Engine wires the podcast monetization logic with persistence, settlement,
// and event emission. The engine performs no internal locking; the hosting
// layer is expected to serialize state-mutating operations.
type Engine struct {
	state         engineState
	transferer    Transferer
	emitter       events.Emitter
	nowFn         func() int64
	owner         [20]byte
	vault         [20]byte
	defaultFeeBps uint32
}

// NewEngine constructs a podcast engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTransferer configures the settlement backend used for refunds and
// withdrawals.
func (e *Engine) SetTransferer(t Transferer) { e.transferer = t }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetOwner configures the platform owner allowed to manage fees.
func (e *Engine) SetOwner(addr [20]byte) { e.owner = addr }

// SetVault configures the account holding the module's collected funds.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetDefaultFeeRate configures the fee rate applied before the owner persists
// a policy. Values above the cap are clamped.
func (e *Engine) SetDefaultFeeRate(bps uint32) {
	if bps > MaxFeeBps {
		bps = MaxFeeBps
	}
	e.defaultFeeBps = bps
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// feeBps resolves the fee rate in force: the persisted policy when one
// exists, the configured default otherwise.
func (e *Engine) feeBps() (uint32, error) {
	policy, ok, err := e.state.FeePolicyGet()
	if err != nil {
		return 0, err
	}
	if !ok || policy == nil {
		return e.defaultFeeBps, nil
	}
	return policy.FeeBps, nil
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}
