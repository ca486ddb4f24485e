package podcast

import (
	"errors"
	"math/big"
	"testing"
)

func TestWithdrawPaysOutAndResets(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, 1_000)
	engine.SetDefaultFeeRate(250)
	creator := addr(0x01)
	fan := addr(0x02)
	pod := mustCreate(t, engine, creator, 1_000)

	if _, err := engine.Subscribe(fan, pod.ID, SecondsPerDay, big.NewInt(1_000)); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	amount, err := engine.Withdraw(creator)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amount.Cmp(big.NewInt(975)) != 0 {
		t.Fatalf("withdrew %s, want 975", amount)
	}
	if got := state.account(creator).Balance; got.Cmp(big.NewInt(975)) != 0 {
		t.Fatalf("creator account holds %s, want 975", got)
	}
	balance, err := engine.Balance(creator)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Pending.Sign() != 0 {
		t.Fatalf("pending not reset, %s remains", balance.Pending)
	}
	if balance.TotalEarned.Cmp(big.NewInt(975)) != 0 {
		t.Fatalf("lifetime earnings %s, want 975", balance.TotalEarned)
	}

	if _, err := engine.Withdraw(creator); !errors.Is(err, ErrNothingToWithdraw) {
		t.Fatalf("expected nothing to withdraw on repeat, got %v", err)
	}
	// The fee share stays behind for the platform.
	if got := state.account(testVault).Balance; got.Cmp(big.NewInt(25)) != 0 {
		t.Fatalf("vault holds %s after payout, want 25", got)
	}
}

func TestWithdrawNeverEarned(t *testing.T) {
	engine := newTestEngine(newMockState(), 1_000)
	if _, err := engine.Withdraw(addr(0x05)); !errors.Is(err, ErrNothingToWithdraw) {
		t.Fatalf("expected nothing to withdraw, got %v", err)
	}
}

func TestWithdrawTransferFailureRestoresState(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, 1_000)
	creator := addr(0x01)
	fan := addr(0x02)
	pod := mustCreate(t, engine, creator, 100)

	if _, err := engine.Subscribe(fan, pod.ID, SecondsPerDay, big.NewInt(100)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	vaultBefore := state.account(testVault).Balance

	engine.SetTransferer(failingTransferer{})
	if _, err := engine.Withdraw(creator); err == nil {
		t.Fatalf("expected withdraw to fail with settlement offline")
	}

	balance, err := engine.Balance(creator)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Pending.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("failed withdraw lost the balance: %s", balance.Pending)
	}
	if got := state.account(testVault).Balance; got.Cmp(vaultBefore) != 0 {
		t.Fatalf("failed withdraw moved vault funds: %s", got)
	}
	if got := state.account(creator).Balance; got.Sign() != 0 {
		t.Fatalf("failed withdraw credited the creator: %s", got)
	}
}

func TestWithdrawPlatformFeesOwnerOnly(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, 1_000)
	engine.SetDefaultFeeRate(250)
	creator := addr(0x01)
	fan := addr(0x02)
	pod := mustCreate(t, engine, creator, 1_000)

	if _, err := engine.Subscribe(fan, pod.ID, SecondsPerDay, big.NewInt(1_000)); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if _, err := engine.WithdrawPlatformFees(creator); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for non-owner, got %v", err)
	}

	pool, err := engine.WithdrawPlatformFees(testOwner)
	if err != nil {
		t.Fatalf("withdraw platform fees: %v", err)
	}
	if pool.Cmp(big.NewInt(25)) != 0 {
		t.Fatalf("drained %s, want 25", pool)
	}
	if got := state.account(testOwner).Balance; got.Cmp(big.NewInt(25)) != 0 {
		t.Fatalf("owner account holds %s, want 25", got)
	}
	if _, err := engine.WithdrawPlatformFees(testOwner); !errors.Is(err, ErrNothingToWithdraw) {
		t.Fatalf("expected empty pool on repeat, got %v", err)
	}

	// The creator's share must survive the platform drain untouched.
	amount, err := engine.Withdraw(creator)
	if err != nil {
		t.Fatalf("creator withdraw after drain: %v", err)
	}
	if amount.Cmp(big.NewInt(975)) != 0 {
		t.Fatalf("creator withdrew %s, want 975", amount)
	}
}

func TestWithdrawPlatformFeesTransferFailureRestoresVault(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, 1_000)
	engine.SetDefaultFeeRate(250)
	creator := addr(0x01)
	fan := addr(0x02)
	pod := mustCreate(t, engine, creator, 1_000)

	if _, err := engine.Subscribe(fan, pod.ID, SecondsPerDay, big.NewInt(1_000)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	vaultBefore := state.account(testVault).Balance

	engine.SetTransferer(failingTransferer{})
	if _, err := engine.WithdrawPlatformFees(testOwner); err == nil {
		t.Fatalf("expected platform drain to fail with settlement offline")
	}
	if got := state.account(testVault).Balance; got.Cmp(vaultBefore) != 0 {
		t.Fatalf("failed drain moved vault funds: %s", got)
	}
	pool, err := engine.PlatformPool()
	if err != nil {
		t.Fatalf("platform pool: %v", err)
	}
	if pool.Cmp(big.NewInt(25)) != 0 {
		t.Fatalf("failed drain lost the pool: %s", pool)
	}
}

func TestVaultReconcilesAgainstBalancesAndPool(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, 1_000)
	engine.SetDefaultFeeRate(250)
	alice := addr(0x01)
	bob := addr(0x02)
	fan := addr(0x03)

	showA := mustCreate(t, engine, alice, 1_000)
	showB := mustCreate(t, engine, bob, 333)

	if _, err := engine.Subscribe(fan, showA.ID, SecondsPerDay, big.NewInt(1_000)); err != nil {
		t.Fatalf("purchase A: %v", err)
	}
	if _, err := engine.Subscribe(fan, showB.ID, SecondsPerDay/2, big.NewInt(500)); err != nil {
		t.Fatalf("purchase B: %v", err)
	}
	if _, err := engine.Subscribe(fan, showA.ID, 3*SecondsPerDay, big.NewInt(3_000)); err != nil {
		t.Fatalf("purchase A again: %v", err)
	}
	if _, err := engine.Withdraw(alice); err != nil {
		t.Fatalf("alice withdraw: %v", err)
	}

	owed, err := state.BalancesSum()
	if err != nil {
		t.Fatalf("balances sum: %v", err)
	}
	pool, err := engine.PlatformPool()
	if err != nil {
		t.Fatalf("platform pool: %v", err)
	}
	vault := state.account(testVault).Balance
	if total := new(big.Int).Add(owed, pool); vault.Cmp(total) != 0 {
		t.Fatalf("vault %s does not reconcile: owed %s + pool %s", vault, owed, pool)
	}
	if pool.Sign() < 0 {
		t.Fatalf("derived pool went negative: %s", pool)
	}
}
