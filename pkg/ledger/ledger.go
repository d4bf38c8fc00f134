package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ITokenLedger is the external token ledger the claim engine instructs to
// move funds. A nil error means the transfer is final; any error means no
// funds moved and the claim must be treated as not having happened.
type ITokenLedger interface {
	// Transfer moves amount of the distributed token to the recipient.
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error

	// BalanceOf returns the distributable balance held for an address.
	BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error)
}

// IForeignAssetSweeper recovers tokens of a different contract that were
// mistakenly sent to the distributor. Only implemented by on-chain ledgers;
// gated behind the access controller at the call site.
type IForeignAssetSweeper interface {
	SweepToken(ctx context.Context, token common.Address, to common.Address, amount *big.Int) error
}
