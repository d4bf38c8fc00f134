package erc20

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethereumTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Minimal ERC20 surface: transfer for payouts, balanceOf for status.
const erc20ABIJSON = `[
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// ERC20Ledger executes claim payouts as ERC20 transfers from the
// distributor's operator account. A transfer is only reported as successful
// once its transaction is mined with a success status; anything else is a
// transfer failure and the claim engine rolls the redemption record back.
type ERC20Ledger struct {
	client   *ethclient.Client
	token    common.Address
	tokenABI abi.ABI
	signOpts *bind.TransactOpts
	from     common.Address
	logger   *zap.Logger
}

// NewERC20Ledger creates a ledger bound to the given token contract.
// privateKeyHex is the operator key holding the distributable balance.
func NewERC20Ledger(
	client *ethclient.Client,
	token common.Address,
	privateKeyHex string,
	chainID *big.Int,
	logger *zap.Logger,
) (*ERC20Ledger, error) {
	parsedABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse operator private key: %w", err)
	}

	signOpts, err := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	return &ERC20Ledger{
		client:   client,
		token:    token,
		tokenABI: parsedABI,
		signOpts: signOpts,
		from:     crypto.PubkeyToAddress(privateKey.PublicKey),
		logger:   logger,
	}, nil
}

// Transfer sends amount of the distribution token to the recipient and waits
// for the transaction to be mined.
func (l *ERC20Ledger) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return l.transferToken(ctx, l.token, to, amount)
}

// SweepToken recovers a foreign token balance mistakenly sent to the
// operator account. Same transfer mechanics against a different contract.
func (l *ERC20Ledger) SweepToken(ctx context.Context, token common.Address, to common.Address, amount *big.Int) error {
	l.logger.Sugar().Infow("Sweeping foreign token",
		"token", token.Hex(),
		"to", to.Hex(),
		"amount", amount.String(),
	)
	return l.transferToken(ctx, token, to, amount)
}

func (l *ERC20Ledger) transferToken(ctx context.Context, token common.Address, to common.Address, amount *big.Int) error {
	bound := bind.NewBoundContract(token, l.tokenABI, l.client, l.client, l.client)

	opts := *l.signOpts
	opts.Context = ctx

	tx, err := bound.Transact(&opts, "transfer", to, amount)
	if err != nil {
		return fmt.Errorf("failed to send transfer transaction: %w", err)
	}

	l.logger.Sugar().Infow("Submitted token transfer",
		"token", token.Hex(),
		"from", l.from.Hex(),
		"to", to.Hex(),
		"amount", amount.String(),
		"tx", tx.Hash().Hex(),
	)

	receipt, err := bind.WaitMined(ctx, l.client, tx)
	if err != nil {
		return fmt.Errorf("failed waiting for transfer transaction %s: %w", tx.Hash().Hex(), err)
	}

	if receipt.Status != ethereumTypes.ReceiptStatusSuccessful {
		return fmt.Errorf("transfer transaction %s reverted", tx.Hash().Hex())
	}

	return nil
}

// BalanceOf queries the token balance of an address.
func (l *ERC20Ledger) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	bound := bind.NewBoundContract(l.token, l.tokenABI, l.client, l.client, l.client)

	var out []interface{}
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", addr); err != nil {
		return nil, fmt.Errorf("failed to query balance of %s: %w", addr.Hex(), err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected balanceOf output length: %d", len(out))
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf output type %T", out[0])
	}

	return balance, nil
}

// From returns the operator account funding the payouts.
func (l *ERC20Ledger) From() common.Address {
	return l.from
}
