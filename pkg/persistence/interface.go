package persistence

import "github.com/ethereum/go-ethereum/common"

// IClaimStore defines the interface for the durable state owned by the claim
// engine: the current merkle root, the per-recipient redemption records, and
// the operational flags (pause, authority, pending authority).
// All implementations must be thread-safe as claim processing is concurrent.
//
// Redemption records grow monotonically. UnmarkClaimed exists solely so a
// failed token transfer can roll its mark back within the same claim attempt;
// it is never part of the normal flow.
type IClaimStore interface {
	// Root Commitment

	// GetRoot returns the current merkle root.
	// Returns the zero digest if no root has been set yet (first run).
	GetRoot() ([32]byte, error)

	// SetRoot atomically replaces the current merkle root.
	// Never partially updates; a concurrent GetRoot sees either the old or
	// the new value, never a torn read.
	SetRoot(root [32]byte) error

	// Redemption Records

	// IsClaimed reports whether the recipient's entitlement has been redeemed.
	// Returns false if no record exists, error only on storage failure.
	IsClaimed(recipient common.Address) (bool, error)

	// MarkClaimed records the recipient's entitlement as redeemed.
	// Idempotent - marking an already-claimed recipient is not an error.
	MarkClaimed(recipient common.Address) error

	// UnmarkClaimed clears the recipient's redemption record.
	// Only used to roll back a mark after a failed transfer.
	// Idempotent - returns nil if no record exists.
	UnmarkClaimed(recipient common.Address) error

	// ClaimedCount returns the number of redeemed entitlements.
	ClaimedCount() (int64, error)

	// Operational State

	// IsPaused reports whether claim processing is suspended.
	// Returns false if never set (claims accepted by default).
	IsPaused() (bool, error)

	// SetPaused sets the pause flag.
	SetPaused(paused bool) error

	// GetAuthority returns the administrative authority address.
	// Returns the zero address if none has been set (first run).
	GetAuthority() (common.Address, error)

	// SetAuthority replaces the administrative authority address.
	SetAuthority(authority common.Address) error

	// GetPendingAuthority returns the nominated-but-unconfirmed authority.
	// Returns the zero address if no handoff is in progress.
	GetPendingAuthority() (common.Address, error)

	// SetPendingAuthority records a nominated authority. Setting the zero
	// address clears the pending handoff.
	SetPendingAuthority(nominee common.Address) error

	// Lifecycle Management

	// Close cleanly shuts down the store.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations should return errors.
	Close() error

	// HealthCheck verifies the store is operational.
	// Returns nil if healthy, error describing the problem if not.
	// Should be called during service startup to fail fast.
	HealthCheck() error
}
