package merkle

import (
	"fmt"
	"testing"
)

// BenchmarkBuildTree benchmarks tree construction with various sizes
func BenchmarkBuildTree(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Entitlements_%d", size), func(b *testing.B) {
			ents := createTestEntitlements(size)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _ = BuildTree(ents)
			}
		})
	}
}

// BenchmarkGenerateProof benchmarks proof generation
func BenchmarkGenerateProof(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}

	for _, size := range sizes {
		ents := createTestEntitlements(size)
		tree, _ := BuildTree(ents)

		b.Run(fmt.Sprintf("Entitlements_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _ = tree.GenerateProof(i % size)
			}
		})
	}
}

// BenchmarkVerify benchmarks proof verification
func BenchmarkVerify(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}

	for _, size := range sizes {
		ents := createTestEntitlements(size)
		tree, _ := BuildTree(ents)
		leaf, _ := LeafHash(ents[0])
		proof, _ := tree.ProofFor(ents[0])

		b.Run(fmt.Sprintf("Entitlements_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_ = Verify(leaf, proof, tree.Root)
			}
		})
	}
}

// BenchmarkLeafHash benchmarks entitlement leaf hashing
func BenchmarkLeafHash(b *testing.B) {
	ent := createTestEntitlements(1)[0]

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = LeafHash(ent)
	}
}
