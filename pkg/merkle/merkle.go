package merkle

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/types"
)

// MaxProofDepth bounds the length of an accepted proof path. A depth of 32
// covers trees of up to 2^32 leaves; anything longer is malformed and fails
// verification outright.
const MaxProofDepth = 32

// LeafHash computes the merkle leaf for an entitlement:
// keccak256(recipient (20 bytes) || amount (32 bytes, big-endian)).
//
// Both fields are fixed-width, so no two distinct (recipient, amount) pairs
// can produce the same packed bytes. This matches
// keccak256(abi.encodePacked(address, uint256)) on the Solidity side.
func LeafHash(ent *types.Entitlement) ([32]byte, error) {
	if err := ent.Validate(); err != nil {
		return [32]byte{}, fmt.Errorf("invalid entitlement: %w", err)
	}

	data := make([]byte, 0, 20+32)
	data = append(data, ent.Recipient.Bytes()...)
	data = append(data, ent.Amount.FillBytes(make([]byte, 32))...)

	hash := crypto.Keccak256Hash(data)
	return [32]byte(hash), nil
}

// Verify checks that leaf is a member of the tree committed to by root, using
// the supplied proof path of sibling hashes.
//
// Each step combines the running hash with the next sibling using the
// canonical value ordering: keccak256(min(a,b) || max(a,b)). Because the
// combine is commutative, proofs carry no index or direction data. The
// ordering rule must match the one used when the tree was built (BuildTree
// below, or any compatible off-system builder).
//
// An empty proof is valid only for a single-leaf tree where leaf == root.
// Proofs longer than MaxProofDepth fail verification.
func Verify(leaf [32]byte, proof [][32]byte, root [32]byte) bool {
	if len(proof) > MaxProofDepth {
		return false
	}

	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}

	return computed == root
}

// BuildTree creates a binary merkle tree over the given entitlements.
// Leaves are sorted bytewise before building so the same entitlement set
// always produces the same root regardless of input order. If a level has an
// odd number of nodes, the last node is duplicated.
//
// Interior nodes use the same sorted-pair keccak256 combine as Verify.
func BuildTree(entitlements []*types.Entitlement) (*Tree, error) {
	if len(entitlements) == 0 {
		return nil, fmt.Errorf("cannot build merkle tree from empty entitlement list")
	}

	seen := make(map[[20]byte]struct{}, len(entitlements))
	leaves := make([][32]byte, len(entitlements))
	for i, ent := range entitlements {
		leaf, err := LeafHash(ent)
		if err != nil {
			return nil, fmt.Errorf("entitlement %d: %w", i, err)
		}
		if _, dup := seen[ent.Recipient]; dup {
			return nil, fmt.Errorf("duplicate recipient %s: each recipient may hold at most one entitlement", ent.Recipient.Hex())
		}
		seen[ent.Recipient] = struct{}{}
		leaves[i] = leaf
	}

	// Sort leaves bytewise for deterministic construction.
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i][:], leaves[j][:]) < 0
	})

	levels := make([][][32]byte, 0)
	levels = append(levels, leaves)

	currentLevel := leaves
	for len(currentLevel) > 1 {
		nextLevel := make([][32]byte, 0, (len(currentLevel)+1)/2)

		for i := 0; i < len(currentLevel); i += 2 {
			left := currentLevel[i]
			right := left
			if i+1 < len(currentLevel) {
				right = currentLevel[i+1]
			}
			nextLevel = append(nextLevel, hashPair(left, right))
		}

		levels = append(levels, nextLevel)
		currentLevel = nextLevel
	}

	return &Tree{
		Leaves: leaves,
		Root:   currentLevel[0],
		levels: levels,
	}, nil
}

// ProofFor generates the proof path for the given entitlement. Returns an
// error if the entitlement's leaf is not in the tree.
func (t *Tree) ProofFor(ent *types.Entitlement) ([][32]byte, error) {
	leaf, err := LeafHash(ent)
	if err != nil {
		return nil, err
	}

	index := -1
	for i, l := range t.Leaves {
		if l == leaf {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("entitlement for %s not found in tree", ent.Recipient.Hex())
	}

	return t.GenerateProof(index)
}

// GenerateProof creates the proof path for the leaf at the given index.
// The proof is the sequence of sibling hashes from the leaf up to the root.
func (t *Tree) GenerateProof(leafIndex int) ([][32]byte, error) {
	if leafIndex < 0 || leafIndex >= len(t.Leaves) {
		return nil, fmt.Errorf("leaf index %d out of bounds (tree has %d leaves)", leafIndex, len(t.Leaves))
	}

	proof := make([][32]byte, 0, len(t.levels)-1)
	index := leafIndex

	for level := 0; level < len(t.levels)-1; level++ {
		currentLevel := t.levels[level]

		siblingIndex := index + 1
		if index%2 == 1 {
			siblingIndex = index - 1
		}
		// Odd node at the end of the level pairs with itself.
		if siblingIndex >= len(currentLevel) {
			siblingIndex = index
		}

		proof = append(proof, currentLevel[siblingIndex])
		index = index / 2
	}

	return proof, nil
}

// hashPair combines two nodes with the canonical value ordering:
// keccak256(min(a,b) || max(a,b)).
func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}

	data := make([]byte, 64)
	copy(data[0:32], a[:])
	copy(data[32:64], b[:])

	hash := crypto.Keccak256Hash(data)
	return [32]byte(hash)
}
