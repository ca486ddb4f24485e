package podcast

import (
	"errors"
	"fmt"
	"math/big"
)

// Balance returns the accrued earnings ledger for a creator, zero-valued when
// the creator has never earned.
func (e *Engine) Balance(creator [20]byte) (*CreatorBalance, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	balance, ok, err := e.state.BalanceGet(creator)
	if err != nil {
		return nil, err
	}
	if !ok || balance == nil {
		return newBalance(creator), nil
	}
	return balance.Clone(), nil
}

// Withdraw pays out the caller's full accrued balance. The balance is zeroed
// and the vault debited before the settlement backend is invoked; both writes
// are restored if the transfer fails. Zeroing first keeps the operation safe
// against re-entrant double withdrawal even outside a serialized host.
func (e *Engine) Withdraw(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if isZeroAddress(e.vault) {
		return nil, errVaultNotSet
	}
	if e.transferer == nil {
		return nil, errTransferNotSet
	}
	balance, ok, err := e.state.BalanceGet(caller)
	if err != nil {
		return nil, err
	}
	if !ok || balance == nil || balance.Pending == nil || balance.Pending.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	amount := new(big.Int).Set(balance.Pending)

	vaultAcc, err := e.state.GetAccount(e.vault[:])
	if err != nil {
		return nil, err
	}
	vaultAcc = ensureAccount(vaultAcc)
	if vaultAcc.Balance.Cmp(amount) < 0 {
		return nil, errVaultUnderfunded
	}
	prevBalance := balance.Clone()
	prevVault := vaultAcc.Clone()

	balance.Pending = big.NewInt(0)
	balance.LastWithdrawal = e.now()
	vaultAcc.Balance = new(big.Int).Sub(vaultAcc.Balance, amount)
	if err := e.state.BalancePut(balance); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(e.vault[:], vaultAcc); err != nil {
		return nil, err
	}

	if err := e.transferer.Transfer(caller, amount); err != nil {
		wrapped := fmt.Errorf("settle payout: %w", err)
		var errs []error
		if rbErr := e.state.BalancePut(prevBalance); rbErr != nil {
			errs = append(errs, rbErr)
		}
		if rbErr := e.state.PutAccount(e.vault[:], prevVault); rbErr != nil {
			errs = append(errs, rbErr)
		}
		if len(errs) > 0 {
			return nil, errors.Join(append([]error{wrapped}, errs...)...)
		}
		return nil, wrapped
	}

	e.emit(CreatorPaidOutEvent(hexAddr(caller), amount))
	return amount, nil
}

// SetFeeRate persists a new platform fee rate. Owner-only; rates above the
// 10% cap are rejected. The new rate applies to subsequent sales only and
// never reprices balances accrued under an earlier rate.
func (e *Engine) SetFeeRate(caller [20]byte, bps uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if bps > MaxFeeBps {
		return fmt.Errorf("%w: fee rate %d exceeds %d bps cap", ErrInvalidInput, bps, MaxFeeBps)
	}
	if err := e.state.FeePolicyPut(&FeePolicy{FeeBps: bps, UpdatedAt: e.now()}); err != nil {
		return err
	}
	e.emit(FeeRateUpdatedEvent(bps))
	return nil
}

// FeeRate returns the fee rate currently in force, in basis points.
func (e *Engine) FeeRate() (uint32, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.feeBps()
}

// PlatformPool returns the platform's share of the held funds. The pool is
// derived rather than stored: vault balance minus the sum of outstanding
// creator balances, so there is no second source of truth to drift.
func (e *Engine) PlatformPool() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if isZeroAddress(e.vault) {
		return nil, errVaultNotSet
	}
	vaultAcc, err := e.state.GetAccount(e.vault[:])
	if err != nil {
		return nil, err
	}
	vaultAcc = ensureAccount(vaultAcc)
	owed, err := e.state.BalancesSum()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(vaultAcc.Balance, owed), nil
}

// WithdrawPlatformFees drains the derived platform pool to the owner.
// Owner-only; the vault debit is restored if the transfer fails.
func (e *Engine) WithdrawPlatformFees(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	if e.transferer == nil {
		return nil, errTransferNotSet
	}
	pool, err := e.PlatformPool()
	if err != nil {
		return nil, err
	}
	if pool.Sign() <= 0 {
		return nil, ErrNothingToWithdraw
	}
	vaultAcc, err := e.state.GetAccount(e.vault[:])
	if err != nil {
		return nil, err
	}
	vaultAcc = ensureAccount(vaultAcc)
	prevVault := vaultAcc.Clone()

	vaultAcc.Balance = new(big.Int).Sub(vaultAcc.Balance, pool)
	if err := e.state.PutAccount(e.vault[:], vaultAcc); err != nil {
		return nil, err
	}
	if err := e.transferer.Transfer(caller, pool); err != nil {
		wrapped := fmt.Errorf("settle platform fees: %w", err)
		if rbErr := e.state.PutAccount(e.vault[:], prevVault); rbErr != nil {
			return nil, errors.Join(wrapped, rbErr)
		}
		return nil, wrapped
	}

	e.emit(PlatformFeesWithdrawnEvent(hexAddr(caller), pool))
	return pool, nil
}
