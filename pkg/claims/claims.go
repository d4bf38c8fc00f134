package claims

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/access"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/ledger"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/merkle"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/persistence"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/types"
)

// ClaimLedger orchestrates the claim protocol: it derives the leaf for a
// caller-supplied entitlement, verifies it against the current merkle root,
// enforces at-most-once redemption, and instructs the token ledger to pay
// out.
//
// Every recipient moves through a two-state machine per distributor
// lifetime: Unclaimed -> Claimed, terminal. Root rotation does not reset
// redemption records; a recipient paid under one root stays paid under every
// later root.
//
// The check-mark-transfer sequence runs under a single mutex so no two
// concurrent claims for the same recipient can both observe Unclaimed, and
// so every claim sees one consistent root for its whole verification.
type ClaimLedger struct {
	store  persistence.IClaimStore
	ledger ledger.ITokenLedger
	access *access.Controller
	logger *zap.Logger

	mu sync.Mutex

	subsMu sync.RWMutex
	subs   []chan *types.ClaimEvent
}

// NewClaimLedger wires the claim engine over its collaborators.
func NewClaimLedger(
	store persistence.IClaimStore,
	tokenLedger ledger.ITokenLedger,
	accessController *access.Controller,
	logger *zap.Logger,
) *ClaimLedger {
	return &ClaimLedger{
		store:  store,
		ledger: tokenLedger,
		access: accessController,
		logger: logger,
	}
}

// Claim redeems the entitlement (claimant, amount) against the current root.
//
// The amount is caller-supplied: the engine stores no entitlement list, so
// correctness rests entirely on proof verification. A wrong amount produces a
// different leaf and fails as ErrInvalidProof.
//
// The redemption record is committed before the transfer is issued, so a
// reentrant or concurrent retry observes Claimed and cannot double-spend. If
// the transfer then fails, the mark is rolled back in the same locked
// section and the whole attempt is reported as ErrTransferFailed - the claim
// never ends up consumed-but-unpaid.
func (cl *ClaimLedger) Claim(
	ctx context.Context,
	claimant common.Address,
	amount *big.Int,
	proof [][32]byte,
) (*types.TransferInstruction, error) {
	accepting, err := cl.access.IsAcceptingClaims()
	if err != nil {
		return nil, errors.Wrap(err, "failed to check operational mode")
	}
	if !accepting {
		return nil, ErrClaimsPaused
	}

	ent := &types.Entitlement{Recipient: claimant, Amount: amount}
	leaf, err := merkle.LeafHash(ent)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidAmount, err.Error())
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	root, err := cl.store.GetRoot()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read current root")
	}

	if !merkle.Verify(leaf, proof, root) {
		cl.logger.Sugar().Infow("Rejected claim with invalid proof",
			"claimant", claimant.Hex(),
			"amount", amount.String(),
			"proof_len", len(proof),
		)
		return nil, ErrInvalidProof
	}

	claimed, err := cl.store.IsClaimed(claimant)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read redemption record")
	}
	if claimed {
		return nil, ErrAlreadyClaimed
	}

	// Commit the redemption record before any externally observable effect.
	if err := cl.store.MarkClaimed(claimant); err != nil {
		return nil, errors.Wrap(err, "failed to commit redemption record")
	}

	if err := cl.ledger.Transfer(ctx, claimant, amount); err != nil {
		// Roll the mark back so the entitlement is not consumed-but-unpaid.
		if rollbackErr := cl.store.UnmarkClaimed(claimant); rollbackErr != nil {
			// The record says claimed but no funds moved; this needs an
			// operator to reconcile, so make it loud.
			cl.logger.Sugar().Errorw("CRITICAL: failed to roll back redemption record after failed transfer",
				"claimant", claimant.Hex(),
				"amount", amount.String(),
				"transfer_error", err,
				"rollback_error", rollbackErr,
			)
			return nil, errors.Wrapf(ErrTransferFailed, "transfer failed (%v) and rollback failed (%v)", err, rollbackErr)
		}
		return nil, errors.Wrap(ErrTransferFailed, err.Error())
	}

	instruction := &types.TransferInstruction{To: claimant, Amount: new(big.Int).Set(amount)}

	cl.logger.Sugar().Infow("Claim finalized",
		"claimant", claimant.Hex(),
		"amount", amount.String(),
		"root", common.Bytes2Hex(root[:]),
	)

	// Notify only after all state mutation and transfer side effects are
	// finalized.
	cl.publish(&types.ClaimEvent{
		Recipient: claimant,
		Amount:    new(big.Int).Set(amount),
		Root:      root,
	})

	return instruction, nil
}

// RotateRoot atomically replaces the current commitment. Restricted to the
// administrative authority. The new root is opaque to the engine; whether it
// commits to a sane entitlement set is an off-system responsibility.
// Redemption records are untouched.
func (cl *ClaimLedger) RotateRoot(caller common.Address, newRoot [32]byte) error {
	allowed, err := cl.access.IsAuthorityFor(types.ActionRotateRoot, caller)
	if err != nil {
		return errors.Wrap(err, "failed to check authority")
	}
	if !allowed {
		return ErrUnauthorized
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	oldRoot, err := cl.store.GetRoot()
	if err != nil {
		return errors.Wrap(err, "failed to read current root")
	}

	if err := cl.store.SetRoot(newRoot); err != nil {
		return errors.Wrap(err, "failed to persist new root")
	}

	cl.logger.Sugar().Infow("Rotated merkle root",
		"caller", caller.Hex(),
		"old_root", common.Bytes2Hex(oldRoot[:]),
		"new_root", common.Bytes2Hex(newRoot[:]),
	)

	return nil
}

// CurrentRoot returns the active commitment.
func (cl *ClaimLedger) CurrentRoot() ([32]byte, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.store.GetRoot()
}

// IsClaimed reports whether a recipient has already redeemed.
func (cl *ClaimLedger) IsClaimed(recipient common.Address) (bool, error) {
	return cl.store.IsClaimed(recipient)
}

// ClaimedCount returns the number of redeemed entitlements.
func (cl *ClaimLedger) ClaimedCount() (int64, error) {
	return cl.store.ClaimedCount()
}

// Subscribe registers a claim event listener. Events are delivered on a
// buffered channel; a subscriber that falls behind loses events rather than
// blocking claim processing.
func (cl *ClaimLedger) Subscribe() <-chan *types.ClaimEvent {
	cl.subsMu.Lock()
	defer cl.subsMu.Unlock()

	ch := make(chan *types.ClaimEvent, 64)
	cl.subs = append(cl.subs, ch)
	return ch
}

func (cl *ClaimLedger) publish(event *types.ClaimEvent) {
	cl.subsMu.RLock()
	defer cl.subsMu.RUnlock()

	for _, ch := range cl.subs {
		select {
		case ch <- event:
		default:
			cl.logger.Sugar().Warnw("Dropped claim event for slow subscriber",
				"recipient", event.Recipient.Hex(),
			)
		}
	}
}
