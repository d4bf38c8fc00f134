package merkle

// Tree is a binary merkle tree over entitlement leaves. The tree uses
// keccak256 hashing with the sorted-pair combine so that proofs are
// position-free and Solidity-compatible.
type Tree struct {
	// Leaves contains the leaf hashes, sorted bytewise.
	Leaves [][32]byte

	// Root is the merkle root committing to the full entitlement set.
	Root [32]byte

	// levels stores all tree levels for proof generation.
	// levels[0] = leaves, levels[len-1] = the root level.
	levels [][][32]byte
}
