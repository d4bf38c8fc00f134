package claims

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/access"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/ledger/memoryLedger"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/logger"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/merkle"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/types"
)

var adminAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")

// flakyLedger wraps a memory ledger with switchable failure injection.
type flakyLedger struct {
	*memoryLedger.MemoryLedger

	mu        sync.Mutex
	failNext  bool
	transfers int
}

func (f *flakyLedger) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	f.mu.Lock()
	fail := f.failNext
	f.mu.Unlock()

	if fail {
		return fmt.Errorf("ledger unavailable")
	}

	if err := f.MemoryLedger.Transfer(ctx, to, amount); err != nil {
		return err
	}

	f.mu.Lock()
	f.transfers++
	f.mu.Unlock()
	return nil
}

func (f *flakyLedger) setFailing(fail bool) {
	f.mu.Lock()
	f.failNext = fail
	f.mu.Unlock()
}

func (f *flakyLedger) transferCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transfers
}

type testEngine struct {
	cl           *ClaimLedger
	access       *access.Controller
	ledger       *flakyLedger
	tree         *merkle.Tree
	entitlements []*types.Entitlement
}

// fourEntitlements is the canonical test distribution:
// [(A,10),(B,20),(C,30),(D,40)]
func fourEntitlements() []*types.Entitlement {
	ents := make([]*types.Entitlement, 4)
	for i := 0; i < 4; i++ {
		ents[i] = &types.Entitlement{
			Recipient: common.BigToAddress(big.NewInt(int64(0xA0 + i))),
			Amount:    big.NewInt(int64((i + 1) * 10)),
		}
	}
	return ents
}

func newTestEngine(t *testing.T, ents []*types.Entitlement) *testEngine {
	t.Helper()

	store := memory.NewMemoryClaimStore()
	t.Cleanup(func() { _ = store.Close() })

	ctrl, err := access.NewController(store, adminAddr, logger.NewNopLogger())
	require.NoError(t, err)

	tree, err := merkle.BuildTree(ents)
	require.NoError(t, err)
	require.NoError(t, store.SetRoot(tree.Root))

	fl := &flakyLedger{MemoryLedger: memoryLedger.NewMemoryLedger(big.NewInt(1_000_000))}

	return &testEngine{
		cl:           NewClaimLedger(store, fl, ctrl, logger.NewNopLogger()),
		access:       ctrl,
		ledger:       fl,
		tree:         tree,
		entitlements: ents,
	}
}

func (e *testEngine) proofFor(t *testing.T, ent *types.Entitlement) [][32]byte {
	t.Helper()
	proof, err := e.tree.ProofFor(ent)
	require.NoError(t, err)
	return proof
}

// TestClaimScenario walks the canonical distribution: claim for B with its
// correct 2-element proof succeeds once and transfers 20; a repeat fails
// with AlreadyClaimed; a wrong-amount claim with the same proof fails with
// InvalidProof.
func TestClaimScenario(t *testing.T) {
	e := newTestEngine(t, fourEntitlements())
	ctx := context.Background()

	b := e.entitlements[1]
	proof := e.proofFor(t, b)
	require.Len(t, proof, 2)

	instruction, err := e.cl.Claim(ctx, b.Recipient, b.Amount, proof)
	require.NoError(t, err)
	require.NotNil(t, instruction)
	assert.Equal(t, b.Recipient, instruction.To)
	assert.Equal(t, int64(20), instruction.Amount.Int64())

	bal, err := e.ledger.BalanceOf(ctx, b.Recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(20), bal.Int64())

	// Repeat claim with the same valid proof
	instruction, err = e.cl.Claim(ctx, b.Recipient, b.Amount, proof)
	require.ErrorIs(t, err, ErrAlreadyClaimed)
	require.Nil(t, instruction)
	assert.Equal(t, 1, e.ledger.transferCount())

	// Wrong amount, same proof: different leaf, so the proof cannot
	// reconstruct the root
	instruction, err = e.cl.Claim(ctx, b.Recipient, big.NewInt(21), proof)
	require.ErrorIs(t, err, ErrInvalidProof)
	require.Nil(t, instruction)
}

// TestClaimAtMostOnce verifies every recipient can claim exactly once and
// only their own entitlement.
func TestClaimAtMostOnce(t *testing.T) {
	e := newTestEngine(t, fourEntitlements())
	ctx := context.Background()

	for _, ent := range e.entitlements {
		proof := e.proofFor(t, ent)

		_, err := e.cl.Claim(ctx, ent.Recipient, ent.Amount, proof)
		require.NoError(t, err)

		_, err = e.cl.Claim(ctx, ent.Recipient, ent.Amount, proof)
		require.ErrorIs(t, err, ErrAlreadyClaimed)
	}

	assert.Equal(t, len(e.entitlements), e.ledger.transferCount())

	count, err := e.cl.ClaimedCount()
	require.NoError(t, err)
	assert.Equal(t, int64(len(e.entitlements)), count)
}

// TestClaimRejectsForeignProof verifies a recipient cannot redeem with
// another recipient's proof or amount.
func TestClaimRejectsForeignProof(t *testing.T) {
	e := newTestEngine(t, fourEntitlements())
	ctx := context.Background()

	a, b := e.entitlements[0], e.entitlements[1]

	// A presenting B's proof
	_, err := e.cl.Claim(ctx, a.Recipient, a.Amount, e.proofFor(t, b))
	require.ErrorIs(t, err, ErrInvalidProof)

	// A presenting B's amount with A's proof
	_, err = e.cl.Claim(ctx, a.Recipient, b.Amount, e.proofFor(t, a))
	require.ErrorIs(t, err, ErrInvalidProof)

	// Outsider presenting A's proof
	outsider := common.HexToAddress("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	_, err = e.cl.Claim(ctx, outsider, a.Amount, e.proofFor(t, a))
	require.ErrorIs(t, err, ErrInvalidProof)
}

// TestClaimTransferFailureRollsBack verifies failure atomicity: a failed
// transfer leaves no redemption record, and a retry after the ledger
// recovers succeeds exactly once.
func TestClaimTransferFailureRollsBack(t *testing.T) {
	e := newTestEngine(t, fourEntitlements())
	ctx := context.Background()

	a := e.entitlements[0]
	proof := e.proofFor(t, a)

	e.ledger.setFailing(true)

	_, err := e.cl.Claim(ctx, a.Recipient, a.Amount, proof)
	require.ErrorIs(t, err, ErrTransferFailed)

	// No redemption record persists
	claimed, err := e.cl.IsClaimed(a.Recipient)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, 0, e.ledger.transferCount())

	// Ledger recovers; the retry succeeds exactly once
	e.ledger.setFailing(false)

	_, err = e.cl.Claim(ctx, a.Recipient, a.Amount, proof)
	require.NoError(t, err)

	_, err = e.cl.Claim(ctx, a.Recipient, a.Amount, proof)
	require.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, 1, e.ledger.transferCount())
}

// TestClaimPauseGating verifies that while paused every claim fails with
// ClaimsPaused regardless of proof validity, with no state mutation.
func TestClaimPauseGating(t *testing.T) {
	e := newTestEngine(t, fourEntitlements())
	ctx := context.Background()

	a := e.entitlements[0]
	proof := e.proofFor(t, a)

	require.NoError(t, e.access.Pause(adminAddr))

	_, err := e.cl.Claim(ctx, a.Recipient, a.Amount, proof)
	require.ErrorIs(t, err, ErrClaimsPaused)

	// Garbage proof fails the same way
	_, err = e.cl.Claim(ctx, a.Recipient, a.Amount, [][32]byte{{0x01}})
	require.ErrorIs(t, err, ErrClaimsPaused)

	claimed, err := e.cl.IsClaimed(a.Recipient)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, 0, e.ledger.transferCount())

	require.NoError(t, e.access.Unpause(adminAddr))

	_, err = e.cl.Claim(ctx, a.Recipient, a.Amount, proof)
	require.NoError(t, err)
}

// TestRotateRoot verifies rotation isolation: records survive rotation, old
// proofs die with the old root, and entitlements committed by the new root
// become claimable.
func TestRotateRoot(t *testing.T) {
	e := newTestEngine(t, fourEntitlements())
	ctx := context.Background()

	a := e.entitlements[0]
	_, err := e.cl.Claim(ctx, a.Recipient, a.Amount, e.proofFor(t, a))
	require.NoError(t, err)

	// New distribution: same A (already claimed) plus a fresh recipient
	fresh := &types.Entitlement{
		Recipient: common.HexToAddress("0x00000000000000000000000000000000000000F0"),
		Amount:    big.NewInt(77),
	}
	newEnts := []*types.Entitlement{a, fresh}
	newTree, err := merkle.BuildTree(newEnts)
	require.NoError(t, err)

	require.NoError(t, e.cl.RotateRoot(adminAddr, newTree.Root))

	root, err := e.cl.CurrentRoot()
	require.NoError(t, err)
	assert.Equal(t, newTree.Root, root)

	// Redemption records are not retroactively invalidated
	claimed, err := e.cl.IsClaimed(a.Recipient)
	require.NoError(t, err)
	assert.True(t, claimed)

	// A proof valid under the old root fails under the new one
	b := e.entitlements[1]
	_, err = e.cl.Claim(ctx, b.Recipient, b.Amount, e.proofFor(t, b))
	require.ErrorIs(t, err, ErrInvalidProof)

	// The fresh entitlement committed by the new root is claimable
	freshProof, err := newTree.ProofFor(fresh)
	require.NoError(t, err)
	_, err = e.cl.Claim(ctx, fresh.Recipient, fresh.Amount, freshProof)
	require.NoError(t, err)

	// A stays claimed across rotation - no re-claim under the new root
	newAProof, err := newTree.ProofFor(a)
	require.NoError(t, err)
	_, err = e.cl.Claim(ctx, a.Recipient, a.Amount, newAProof)
	require.ErrorIs(t, err, ErrAlreadyClaimed)
}

// TestRotateRootUnauthorized verifies rotation is authority-gated.
func TestRotateRootUnauthorized(t *testing.T) {
	e := newTestEngine(t, fourEntitlements())

	stranger := common.HexToAddress("0x9999999999999999999999999999999999999999")
	err := e.cl.RotateRoot(stranger, [32]byte{0x01})
	require.ErrorIs(t, err, ErrUnauthorized)

	// Root unchanged
	root, err := e.cl.CurrentRoot()
	require.NoError(t, err)
	assert.Equal(t, e.tree.Root, root)
}

// TestClaimInvalidAmount verifies malformed entitlements are rejected before
// any verification work.
func TestClaimInvalidAmount(t *testing.T) {
	e := newTestEngine(t, fourEntitlements())
	ctx := context.Background()

	a := e.entitlements[0]
	proof := e.proofFor(t, a)

	_, err := e.cl.Claim(ctx, a.Recipient, nil, proof)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.cl.Claim(ctx, a.Recipient, big.NewInt(-5), proof)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.cl.Claim(ctx, common.Address{}, a.Amount, proof)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

// TestClaimEvents verifies notifications fire only after a claim fully
// finalizes, never for failed attempts.
func TestClaimEvents(t *testing.T) {
	e := newTestEngine(t, fourEntitlements())
	ctx := context.Background()

	events := e.cl.Subscribe()

	a := e.entitlements[0]
	proof := e.proofFor(t, a)

	// Failed transfer: no event
	e.ledger.setFailing(true)
	_, err := e.cl.Claim(ctx, a.Recipient, a.Amount, proof)
	require.ErrorIs(t, err, ErrTransferFailed)
	select {
	case ev := <-events:
		t.Fatalf("unexpected event for failed claim: %+v", ev)
	default:
	}

	// Successful claim: exactly one event carrying (recipient, amount)
	e.ledger.setFailing(false)
	_, err = e.cl.Claim(ctx, a.Recipient, a.Amount, proof)
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, a.Recipient, ev.Recipient)
		assert.Equal(t, a.Amount.Int64(), ev.Amount.Int64())
		assert.Equal(t, e.tree.Root, ev.Root)
	default:
		t.Fatal("expected a claim event after finalization")
	}
}

// TestClaimConcurrentSameRecipient verifies serializability: N concurrent
// claims for one recipient yield exactly one transfer.
func TestClaimConcurrentSameRecipient(t *testing.T) {
	e := newTestEngine(t, fourEntitlements())
	ctx := context.Background()

	a := e.entitlements[0]
	proof := e.proofFor(t, a)

	const n = 16
	results := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.cl.Claim(ctx, a.Recipient, a.Amount, proof)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, alreadyClaimed int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, ErrAlreadyClaimed):
			alreadyClaimed++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, alreadyClaimed)
	assert.Equal(t, 1, e.ledger.transferCount())
}
