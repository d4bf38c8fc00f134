package merkle

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/types"
)

// FuzzVerifyMutatedProof checks soundness: flipping any bit of a valid
// proof path, the leaf, or the root must make verification fail.
func FuzzVerifyMutatedProof(f *testing.F) {
	f.Add(uint8(0), uint8(0), uint8(0x01))
	f.Add(uint8(3), uint8(31), uint8(0x80))
	f.Add(uint8(255), uint8(16), uint8(0xFF))

	ents := createTestEntitlements(8)
	tree, err := BuildTree(ents)
	if err != nil {
		f.Fatal(err)
	}
	leaf, _ := LeafHash(ents[2])
	proof, _ := tree.ProofFor(ents[2])

	f.Fuzz(func(t *testing.T, position uint8, byteIndex uint8, mask uint8) {
		if mask == 0 {
			return // No mutation, nothing to assert
		}

		idx := int(byteIndex) % 32

		// position selects what gets mutated: a proof element, the leaf, or the root
		slot := int(position) % (len(proof) + 2)
		switch {
		case slot < len(proof):
			mutated := make([][32]byte, len(proof))
			copy(mutated, proof)
			mutated[slot][idx] ^= mask
			require.False(t, Verify(leaf, mutated, tree.Root))
		case slot == len(proof):
			mutatedLeaf := leaf
			mutatedLeaf[idx] ^= mask
			require.False(t, Verify(mutatedLeaf, proof, tree.Root))
		default:
			mutatedRoot := tree.Root
			mutatedRoot[idx] ^= mask
			require.False(t, Verify(leaf, proof, mutatedRoot))
		}
	})
}

// FuzzLeafHashInjective checks that distinct (recipient, amount) pairs never
// collide under the fixed-width packed encoding.
func FuzzLeafHashInjective(f *testing.F) {
	f.Add(int64(1), int64(10), int64(2), int64(10))
	f.Add(int64(1), int64(10), int64(1), int64(20))
	f.Add(int64(5), int64(0), int64(5), int64(0))

	f.Fuzz(func(t *testing.T, addr1, amt1, addr2, amt2 int64) {
		if addr1 <= 0 || addr2 <= 0 || amt1 < 0 || amt2 < 0 {
			return
		}

		e1 := &types.Entitlement{Recipient: common.BigToAddress(big.NewInt(addr1)), Amount: big.NewInt(amt1)}
		e2 := &types.Entitlement{Recipient: common.BigToAddress(big.NewInt(addr2)), Amount: big.NewInt(amt2)}

		h1, err := LeafHash(e1)
		require.NoError(t, err)
		h2, err := LeafHash(e2)
		require.NoError(t, err)

		if addr1 == addr2 && amt1 == amt2 {
			require.Equal(t, h1, h2)
		} else {
			require.NotEqual(t, h1, h2)
		}
	})
}
