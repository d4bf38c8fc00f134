package memoryLedger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryLedger is an in-memory token ledger for testing and local
// development. It holds a single funded pool that transfers draw down;
// a transfer exceeding the pool fails and moves nothing.
type MemoryLedger struct {
	mu       sync.Mutex
	pool     *big.Int
	balances map[common.Address]*big.Int
}

// NewMemoryLedger creates a ledger funded with the given pool amount.
func NewMemoryLedger(pool *big.Int) *MemoryLedger {
	if pool == nil {
		pool = big.NewInt(0)
	}
	return &MemoryLedger{
		pool:     new(big.Int).Set(pool),
		balances: make(map[common.Address]*big.Int),
	}
}

// Transfer moves amount from the pool to the recipient. Fails without any
// state change if the pool cannot cover the amount.
func (l *MemoryLedger) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid transfer amount")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pool.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient pool balance: have %s, need %s", l.pool.String(), amount.String())
	}

	l.pool.Sub(l.pool, amount)

	bal, ok := l.balances[to]
	if !ok {
		bal = big.NewInt(0)
		l.balances[to] = bal
	}
	bal.Add(bal, amount)

	return nil
}

// BalanceOf returns the recipient's credited balance.
func (l *MemoryLedger) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[addr]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

// PoolBalance returns the remaining undistributed pool.
func (l *MemoryLedger) PoolBalance() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.pool)
}
