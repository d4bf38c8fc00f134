package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Entitlement is one (recipient, amount) pair from the committed distribution
// set. Entitlements are never stored by the claim engine; they are supplied by
// callers on each claim and proven against the current merkle root.
type Entitlement struct {
	Recipient common.Address `json:"recipient"`
	Amount    *big.Int       `json:"amount"`
}

// Validate checks that an entitlement is well-formed: a non-zero recipient and
// a non-nil, non-negative amount that fits in 256 bits (the leaf encoding
// packs the amount into a fixed 32-byte field).
func (e *Entitlement) Validate() error {
	if e == nil {
		return fmt.Errorf("entitlement cannot be nil")
	}
	if e.Recipient == (common.Address{}) {
		return fmt.Errorf("entitlement recipient cannot be the zero address")
	}
	if e.Amount == nil {
		return fmt.Errorf("entitlement amount cannot be nil")
	}
	if e.Amount.Sign() < 0 {
		return fmt.Errorf("entitlement amount cannot be negative: %s", e.Amount.String())
	}
	if e.Amount.BitLen() > 256 {
		return fmt.Errorf("entitlement amount exceeds 256 bits: %s", e.Amount.String())
	}
	return nil
}

// TransferInstruction is the payout handed to the token ledger collaborator
// after a claim passes verification and the redemption record is committed.
type TransferInstruction struct {
	To     common.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

// ClaimEvent is delivered to subscribers after a claim has fully finalized:
// redemption record committed and token transfer confirmed. It is never
// emitted for a failed or rolled-back claim.
type ClaimEvent struct {
	Recipient common.Address `json:"recipient"`
	Amount    *big.Int       `json:"amount"`
	Root      [32]byte       `json:"root"`
}

// Administrative actions checked against the access controller. Every
// privileged operation names one of these; the permission check is
// centralized in the access controller rather than duplicated per call site.
const (
	ActionRotateRoot        = "rotate_root"
	ActionPause             = "pause"
	ActionUnpause           = "unpause"
	ActionNominateAuthority = "nominate_authority"
	ActionSweep             = "sweep"
)
