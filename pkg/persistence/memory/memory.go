package memory

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryClaimStore is an in-memory implementation of IClaimStore.
// This implementation is intended for TESTING and local development ONLY.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
type MemoryClaimStore struct {
	mu sync.RWMutex

	root             [32]byte
	claimed          map[common.Address]bool
	paused           bool
	authority        common.Address
	pendingAuthority common.Address
	closed           bool
}

// NewMemoryClaimStore creates a new in-memory claim store.
// Prints a loud warning since redemption records do not survive a restart.
func NewMemoryClaimStore() *MemoryClaimStore {
	fmt.Println("⚠️  WARNING: Using in-memory claim store - ALL REDEMPTION RECORDS WILL BE LOST ON RESTART")
	fmt.Println("⚠️  This should ONLY be used for testing. Set CLAIMS_STORE_TYPE=badger for production")

	return &MemoryClaimStore{
		claimed: make(map[common.Address]bool),
	}
}

// GetRoot returns the current merkle root.
func (m *MemoryClaimStore) GetRoot() ([32]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return [32]byte{}, fmt.Errorf("claim store is closed")
	}

	return m.root, nil
}

// SetRoot atomically replaces the current merkle root.
func (m *MemoryClaimStore) SetRoot(root [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("claim store is closed")
	}

	m.root = root
	return nil
}

// IsClaimed reports whether a recipient's entitlement has been redeemed.
func (m *MemoryClaimStore) IsClaimed(recipient common.Address) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, fmt.Errorf("claim store is closed")
	}

	return m.claimed[recipient], nil
}

// MarkClaimed records a recipient's entitlement as redeemed.
func (m *MemoryClaimStore) MarkClaimed(recipient common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("claim store is closed")
	}

	m.claimed[recipient] = true
	return nil
}

// UnmarkClaimed clears a recipient's redemption record.
func (m *MemoryClaimStore) UnmarkClaimed(recipient common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("claim store is closed")
	}

	delete(m.claimed, recipient)
	return nil
}

// ClaimedCount returns the number of redeemed entitlements.
func (m *MemoryClaimStore) ClaimedCount() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, fmt.Errorf("claim store is closed")
	}

	return int64(len(m.claimed)), nil
}

// IsPaused reports whether claim processing is suspended.
func (m *MemoryClaimStore) IsPaused() (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, fmt.Errorf("claim store is closed")
	}

	return m.paused, nil
}

// SetPaused sets the pause flag.
func (m *MemoryClaimStore) SetPaused(paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("claim store is closed")
	}

	m.paused = paused
	return nil
}

// GetAuthority returns the administrative authority address.
func (m *MemoryClaimStore) GetAuthority() (common.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return common.Address{}, fmt.Errorf("claim store is closed")
	}

	return m.authority, nil
}

// SetAuthority replaces the administrative authority address.
func (m *MemoryClaimStore) SetAuthority(authority common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("claim store is closed")
	}

	m.authority = authority
	return nil
}

// GetPendingAuthority returns the nominated-but-unconfirmed authority.
func (m *MemoryClaimStore) GetPendingAuthority() (common.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return common.Address{}, fmt.Errorf("claim store is closed")
	}

	return m.pendingAuthority, nil
}

// SetPendingAuthority records a nominated authority.
func (m *MemoryClaimStore) SetPendingAuthority(nominee common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("claim store is closed")
	}

	m.pendingAuthority = nominee
	return nil
}

// Close shuts down the store. Idempotent.
func (m *MemoryClaimStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the store is operational.
func (m *MemoryClaimStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("claim store is closed")
	}

	return nil
}
