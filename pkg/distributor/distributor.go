package distributor

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/access"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/claims"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/ledger"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/merkle"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/persistence"
)

// Distributor bundles the claim engine with its collaborators for the HTTP
// surface. Sweeper is nil when the configured token ledger cannot move
// foreign assets (the in-memory ledger); the sweep endpoint then reports the
// capability as unavailable.
type Distributor struct {
	Claims  *claims.ClaimLedger
	Access  *access.Controller
	Store   persistence.IClaimStore
	Sweeper ledger.IForeignAssetSweeper

	logger *zap.Logger
}

// NewDistributor assembles the service façade over an already-wired claim
// engine.
func NewDistributor(
	claimLedger *claims.ClaimLedger,
	accessController *access.Controller,
	store persistence.IClaimStore,
	sweeper ledger.IForeignAssetSweeper,
	logger *zap.Logger,
) *Distributor {
	return &Distributor{
		Claims:  claimLedger,
		Access:  accessController,
		Store:   store,
		Sweeper: sweeper,
		logger:  logger,
	}
}

// parseAddress decodes a 0x-prefixed hex address, rejecting malformed and
// zero values.
func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s must be a hex address, got %q", field, s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s must not be the zero address", field)
	}
	return addr, nil
}

// parseAmount decodes a non-negative decimal token amount.
func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("amount must be a decimal integer, got %q", s)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative, got %s", s)
	}
	return amount, nil
}

// parseDigest decodes a 0x-prefixed 32-byte hex digest.
func parseDigest(field, s string) ([32]byte, error) {
	var digest [32]byte
	raw := strings.TrimPrefix(s, "0x")
	if len(raw) != 64 {
		return digest, fmt.Errorf("%s must be 32 hex-encoded bytes, got %q", field, s)
	}
	decoded := common.FromHex(s)
	if len(decoded) != 32 {
		return digest, fmt.Errorf("%s must be 32 hex-encoded bytes, got %q", field, s)
	}
	copy(digest[:], decoded)
	return digest, nil
}

// parseProof decodes a hex-encoded proof path, bounding its length before
// any hashing work happens.
func parseProof(elements []string) ([][32]byte, error) {
	if len(elements) > merkle.MaxProofDepth {
		return nil, fmt.Errorf("proof exceeds maximum depth %d", merkle.MaxProofDepth)
	}
	proof := make([][32]byte, len(elements))
	for i, el := range elements {
		digest, err := parseDigest(fmt.Sprintf("proof[%d]", i), el)
		if err != nil {
			return nil, err
		}
		proof[i] = digest
	}
	return proof, nil
}
