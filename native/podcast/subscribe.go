package podcast

import (
	"errors"
	"fmt"
	"math/big"

	"podledger/core/types"
)

// subscribeSnapshot captures every record a purchase touches so a failed
// refund can restore them. Compensation instead of journaling: the hosting
// layer serializes operations, so nobody observes the intermediate state.
type subscribeSnapshot struct {
	caller  [20]byte
	creator [20]byte
	pod     *Podcast
	sub     *Subscription
	hadSub  bool
	balance *CreatorBalance
	hadBal  bool
	vault   *types.Account
}

func (e *Engine) restoreSubscribe(snap subscribeSnapshot) error {
	var errs []error
	if snap.hadSub {
		if err := e.state.SubscriptionPut(snap.sub); err != nil {
			errs = append(errs, err)
		}
	} else if err := e.state.SubscriptionDelete(snap.pod.ID, snap.caller); err != nil {
		errs = append(errs, err)
	}
	balance := snap.balance
	if !snap.hadBal {
		balance = newBalance(snap.creator)
	}
	if err := e.state.BalancePut(balance); err != nil {
		errs = append(errs, err)
	}
	if err := e.state.PutAccount(e.vault[:], snap.vault); err != nil {
		errs = append(errs, err)
	}
	if err := e.state.PodcastPut(snap.pod); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Subscribe sells premium access to a podcast. The payment is prorated
// against the per-day price with floor division, split between the platform
// fee pool and the creator's accrued balance, and any overpayment is refunded
// through the settlement backend. A refund failure undoes every write made by
// the purchase, so the operation commits all-or-nothing.
//
// An unexpired subscriber stacks: the new expiry extends from the current
// expiry, never losing unused time. A lapsed or first-time subscriber starts
// fresh from now.
func (e *Engine) Subscribe(caller [20]byte, podcastID uint64, duration int64, payment *big.Int) (*Receipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	if payment == nil || payment.Sign() < 0 {
		return nil, fmt.Errorf("%w: payment must not be negative", ErrInvalidInput)
	}
	if isZeroAddress(e.vault) {
		return nil, errVaultNotSet
	}
	pod, err := e.requirePodcast(podcastID)
	if err != nil {
		return nil, err
	}
	if !pod.Active {
		return nil, fmt.Errorf("%w: id %d", ErrInactive, podcastID)
	}
	if pod.PricePerDay == nil || pod.PricePerDay.Sign() == 0 {
		return nil, fmt.Errorf("%w: id %d", ErrNotSubscribable, podcastID)
	}

	cost := prorate(pod.PricePerDay, duration)
	if payment.Cmp(cost) < 0 {
		return nil, fmt.Errorf("%w: cost %s, payment %s", ErrInsufficientPayment, cost, payment)
	}
	bps, err := e.feeBps()
	if err != nil {
		return nil, err
	}
	fee, payout := splitFee(cost, bps)
	now := e.now()

	prevSub, hadSub, err := e.state.SubscriptionGet(podcastID, caller)
	if err != nil {
		return nil, err
	}
	prevBal, hadBal, err := e.state.BalanceGet(pod.Creator)
	if err != nil {
		return nil, err
	}
	vaultAcc, err := e.state.GetAccount(e.vault[:])
	if err != nil {
		return nil, err
	}
	vaultAcc = ensureAccount(vaultAcc)
	snap := subscribeSnapshot{
		caller:  caller,
		creator: pod.Creator,
		pod:     pod.Clone(),
		sub:     prevSub,
		hadSub:  hadSub,
		balance: prevBal,
		hadBal:  hadBal,
		vault:   vaultAcc.Clone(),
	}

	balance := prevBal.Clone()
	if balance == nil {
		balance = newBalance(pod.Creator)
	}
	if payout.Sign() > 0 {
		balance.Pending = new(big.Int).Add(balance.Pending, payout)
		balance.TotalEarned = new(big.Int).Add(balance.TotalEarned, payout)
	}

	newExpiry := now + duration
	startedAt := now
	renewals := uint64(0)
	if hadSub && prevSub != nil {
		if prevSub.ExpiresAt > now {
			newExpiry = prevSub.ExpiresAt + duration
		}
		startedAt = prevSub.StartedAt
		renewals = prevSub.Renewals + 1
	}
	sub := &Subscription{
		PodcastID:  podcastID,
		Subscriber: caller,
		ExpiresAt:  newExpiry,
		Active:     true,
		StartedAt:  startedAt,
		RenewedAt:  now,
		Renewals:   renewals,
	}

	vaultAcc.Balance = new(big.Int).Add(vaultAcc.Balance, cost)
	pod.TotalSales = new(big.Int).Add(pod.TotalSales, cost)
	pod.SubscriberEpochs++

	if err := e.state.BalancePut(balance); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(e.vault[:], vaultAcc); err != nil {
		return nil, err
	}
	if err := e.state.PodcastPut(pod); err != nil {
		return nil, err
	}
	if err := e.state.SubscriptionPut(sub); err != nil {
		return nil, err
	}

	change := new(big.Int).Sub(payment, cost)
	if change.Sign() > 0 {
		if e.transferer == nil {
			if rbErr := e.restoreSubscribe(snap); rbErr != nil {
				return nil, errors.Join(errTransferNotSet, rbErr)
			}
			return nil, errTransferNotSet
		}
		if err := e.transferer.Transfer(caller, change); err != nil {
			wrapped := fmt.Errorf("refund change: %w", err)
			if rbErr := e.restoreSubscribe(snap); rbErr != nil {
				return nil, errors.Join(wrapped, rbErr)
			}
			return nil, wrapped
		}
	}

	e.emit(SubscriptionPurchasedEvent(podcastID, hexAddr(caller), duration, cost, newExpiry))
	return &Receipt{
		PodcastID:     podcastID,
		Subscriber:    caller,
		Duration:      duration,
		Cost:          cost,
		Fee:           fee,
		CreatorPayout: payout,
		Change:        change,
		ExpiresAt:     newExpiry,
	}, nil
}

// HasActiveAccess reports whether the subscriber currently holds unexpired
// premium access. Deactivating a podcast does not revoke access already
// granted before its expiry.
func (e *Engine) HasActiveAccess(podcastID uint64, subscriber [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	sub, ok, err := e.state.SubscriptionGet(podcastID, subscriber)
	if err != nil {
		return false, err
	}
	if !ok || sub == nil || !sub.Active {
		return false, nil
	}
	return sub.ExpiresAt > e.now(), nil
}

// Subscription returns the current record for a (podcast, subscriber) pair,
// or nil when the subscriber never purchased access.
func (e *Engine) Subscription(podcastID uint64, subscriber [20]byte) (*Subscription, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	sub, ok, err := e.state.SubscriptionGet(podcastID, subscriber)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return sub.Clone(), nil
}
