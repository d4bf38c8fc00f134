package claims

import "github.com/pkg/errors"

// Claim failure kinds. All are local and non-fatal: they are reported to the
// caller as typed errors and never crash the engine. Callers match them with
// errors.Is.
var (
	// ErrInvalidProof means the proof path does not reconstruct the current
	// root for the claimed entitlement. Malformed and oversized proofs
	// degrade to this error as well.
	ErrInvalidProof = errors.New("invalid merkle proof")

	// ErrAlreadyClaimed means the recipient's entitlement has already been
	// redeemed under the current root.
	ErrAlreadyClaimed = errors.New("entitlement already claimed")

	// ErrClaimsPaused means the operational mode disallows claims.
	ErrClaimsPaused = errors.New("claims are paused")

	// ErrUnauthorized means the caller lacks authority for an
	// administrative action.
	ErrUnauthorized = errors.New("caller not authorized")

	// ErrTransferFailed means the external token ledger rejected the
	// transfer. The redemption record is rolled back with it.
	ErrTransferFailed = errors.New("token transfer failed")

	// ErrInvalidAmount means the claimed entitlement itself is malformed
	// (nil, negative, or oversized amount, or zero recipient).
	ErrInvalidAmount = errors.New("invalid claim amount")
)
