package podcast

import "errors"

// Precondition failures surfaced to callers. Every failure aborts the
// enclosing operation before or together with its state writes; none leaves a
// partial mutation behind. The RPC layer maps these onto response codes with
// errors.Is, so they are exported sentinels rather than package-private ones.
var (
	// ErrInvalidInput rejects empty required text, negative prices, and fee
	// rates above the cap.
	ErrInvalidInput = errors.New("podcast engine: invalid input")
	// ErrNotFound signals an unassigned podcast id.
	ErrNotFound = errors.New("podcast engine: podcast not found")
	// ErrUnauthorized signals the wrong caller for an owner- or creator-gated
	// operation.
	ErrUnauthorized = errors.New("podcast engine: caller not authorized")
	// ErrInactive rejects purchases against a deactivated podcast.
	ErrInactive = errors.New("podcast engine: podcast inactive")
	// ErrNotSubscribable rejects purchases against a zero-price podcast.
	ErrNotSubscribable = errors.New("podcast engine: podcast not subscribable")
	// ErrInsufficientPayment rejects payments below the prorated cost.
	ErrInsufficientPayment = errors.New("podcast engine: payment below cost")
	// ErrNothingToWithdraw rejects withdrawals against a zero balance.
	ErrNothingToWithdraw = errors.New("podcast engine: nothing to withdraw")
)

// Wiring failures. These indicate a misconfigured engine, not caller error.
var (
	errNilState         = errors.New("podcast engine: state not configured")
	errVaultNotSet      = errors.New("podcast engine: vault not configured")
	errTransferNotSet   = errors.New("podcast engine: transfer backend not configured")
	errVaultUnderfunded = errors.New("podcast engine: vault underfunded")
)
