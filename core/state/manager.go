package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"podledger/core/types"
	"podledger/native/podcast"
	"podledger/storage"
)

// Manager persists the ledger's records in a key-value database. Records are
// JSON-encoded under typed key prefixes; reads decode into fresh values, so
// callers never alias stored state. The manager doubles as the engine's
// settlement backend by crediting accounts held in the same store.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func podcastKey(id uint64) []byte {
	buf := make([]byte, len(podcastPrefix)+8)
	copy(buf, podcastPrefix)
	binary.BigEndian.PutUint64(buf[len(podcastPrefix):], id)
	return buf
}

func creatorIndexKey(creator [20]byte) []byte {
	buf := make([]byte, len(creatorIndexPrefix)+len(creator))
	copy(buf, creatorIndexPrefix)
	copy(buf[len(creatorIndexPrefix):], creator[:])
	return buf
}

func subscriptionKey(podcastID uint64, subscriber [20]byte) []byte {
	buf := make([]byte, len(subscriptionPrefix)+8+len(subscriber))
	copy(buf, subscriptionPrefix)
	binary.BigEndian.PutUint64(buf[len(subscriptionPrefix):], podcastID)
	copy(buf[len(subscriptionPrefix)+8:], subscriber[:])
	return buf
}

func balanceKey(creator [20]byte) []byte {
	buf := make([]byte, len(balancePrefix)+len(creator))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], creator[:])
	return buf
}

func accountKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return buf
}

func (m *Manager) getJSON(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putJSON(key []byte, in interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, raw)
}

// PodcastCounter returns the next podcast id to assign.
func (m *Manager) PodcastCounter() (uint64, error) {
	raw, err := m.db.Get(podcastCounterKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("state: malformed podcast counter")
	}
	return binary.BigEndian.Uint64(raw), nil
}

// PodcastSetCounter stores the next podcast id to assign.
func (m *Manager) PodcastSetCounter(next uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	return m.db.Put(podcastCounterKey, buf)
}

// PodcastGet loads a podcast record by id.
func (m *Manager) PodcastGet(id uint64) (*podcast.Podcast, bool, error) {
	var pod podcast.Podcast
	ok, err := m.getJSON(podcastKey(id), &pod)
	if err != nil || !ok {
		return nil, false, err
	}
	return &pod, true, nil
}

// PodcastPut stores a podcast record.
func (m *Manager) PodcastPut(pod *podcast.Podcast) error {
	if pod == nil {
		return nil
	}
	return m.putJSON(podcastKey(pod.ID), pod)
}

// PodcastsByCreatorGet loads the id index for a creator.
func (m *Manager) PodcastsByCreatorGet(creator [20]byte) ([]uint64, error) {
	var ids []uint64
	if _, err := m.getJSON(creatorIndexKey(creator), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// PodcastsByCreatorPut stores the id index for a creator.
func (m *Manager) PodcastsByCreatorPut(creator [20]byte, ids []uint64) error {
	return m.putJSON(creatorIndexKey(creator), ids)
}

// SubscriptionGet loads the record for a (podcast, subscriber) pair.
func (m *Manager) SubscriptionGet(podcastID uint64, subscriber [20]byte) (*podcast.Subscription, bool, error) {
	var sub podcast.Subscription
	ok, err := m.getJSON(subscriptionKey(podcastID, subscriber), &sub)
	if err != nil || !ok {
		return nil, false, err
	}
	return &sub, true, nil
}

// SubscriptionPut stores a subscription record.
func (m *Manager) SubscriptionPut(sub *podcast.Subscription) error {
	if sub == nil {
		return nil
	}
	return m.putJSON(subscriptionKey(sub.PodcastID, sub.Subscriber), sub)
}

// SubscriptionDelete removes the record for a (podcast, subscriber) pair.
func (m *Manager) SubscriptionDelete(podcastID uint64, subscriber [20]byte) error {
	return m.db.Delete(subscriptionKey(podcastID, subscriber))
}

// BalanceGet loads a creator's accrued balance ledger.
func (m *Manager) BalanceGet(creator [20]byte) (*podcast.CreatorBalance, bool, error) {
	var balance podcast.CreatorBalance
	ok, err := m.getJSON(balanceKey(creator), &balance)
	if err != nil || !ok {
		return nil, false, err
	}
	return &balance, true, nil
}

// BalancePut stores a creator's accrued balance ledger.
func (m *Manager) BalancePut(balance *podcast.CreatorBalance) error {
	if balance == nil {
		return nil
	}
	return m.putJSON(balanceKey(balance.Creator), balance)
}

// BalancesSum walks every balance record and totals the outstanding amounts.
// Keeping the platform pool derived from this sum avoids a stored counter
// that could drift from the per-creator ledgers.
func (m *Manager) BalancesSum() (*big.Int, error) {
	total := big.NewInt(0)
	var iterErr error
	err := m.db.Iterate(balancePrefix, func(key, value []byte) bool {
		var balance podcast.CreatorBalance
		if err := json.Unmarshal(value, &balance); err != nil {
			iterErr = fmt.Errorf("state: decode %q: %w", key, err)
			return false
		}
		if balance.Pending != nil {
			total = total.Add(total, balance.Pending)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return total, nil
}

// FeePolicyGet loads the persisted platform fee policy.
func (m *Manager) FeePolicyGet() (*podcast.FeePolicy, bool, error) {
	var policy podcast.FeePolicy
	ok, err := m.getJSON(feePolicyKey, &policy)
	if err != nil || !ok {
		return nil, false, err
	}
	return &policy, true, nil
}

// FeePolicyPut stores the platform fee policy.
func (m *Manager) FeePolicyPut(policy *podcast.FeePolicy) error {
	if policy == nil {
		return nil
	}
	return m.putJSON(feePolicyKey, policy)
}

// GetAccount loads the settlement account for an address, or nil when the
// address has never held funds.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	var acc types.Account
	ok, err := m.getJSON(accountKey(addr), &acc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

// PutAccount stores the settlement account for an address. A nil account
// removes the record.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return m.db.Delete(accountKey(addr))
	}
	return m.putJSON(accountKey(addr), account)
}

// Transfer credits the recipient's settlement account. It backs the engine's
// refund and withdrawal settlement.
func (m *Manager) Transfer(to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: transfer amount must not be negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	acc, err := m.GetAccount(to[:])
	if err != nil {
		return err
	}
	if acc == nil {
		acc = &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	return m.PutAccount(to[:], acc)
}
