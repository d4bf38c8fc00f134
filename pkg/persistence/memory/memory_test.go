package memory

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClaimStore_RootRoundTrip(t *testing.T) {
	ms := NewMemoryClaimStore()
	defer func() { _ = ms.Close() }()

	root, err := ms.GetRoot()
	require.NoError(t, err)
	assert.Equal(t, [32]byte{}, root)

	newRoot := [32]byte{0x01, 0x02}
	require.NoError(t, ms.SetRoot(newRoot))

	root, err = ms.GetRoot()
	require.NoError(t, err)
	assert.Equal(t, newRoot, root)
}

func TestMemoryClaimStore_ClaimLifecycle(t *testing.T) {
	ms := NewMemoryClaimStore()
	defer func() { _ = ms.Close() }()

	addr := common.HexToAddress("0x1234567890123456789012345678901234567890")

	claimed, err := ms.IsClaimed(addr)
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, ms.MarkClaimed(addr))
	claimed, err = ms.IsClaimed(addr)
	require.NoError(t, err)
	assert.True(t, claimed)

	count, err := ms.ClaimedCount()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, ms.UnmarkClaimed(addr))
	claimed, err = ms.IsClaimed(addr)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestMemoryClaimStore_PauseAndAuthority(t *testing.T) {
	ms := NewMemoryClaimStore()
	defer func() { _ = ms.Close() }()

	paused, err := ms.IsPaused()
	require.NoError(t, err)
	assert.False(t, paused)

	require.NoError(t, ms.SetPaused(true))
	paused, err = ms.IsPaused()
	require.NoError(t, err)
	assert.True(t, paused)

	authority := common.HexToAddress("0x1111111111111111111111111111111111111111")
	require.NoError(t, ms.SetAuthority(authority))
	got, err := ms.GetAuthority()
	require.NoError(t, err)
	assert.Equal(t, authority, got)

	nominee := common.HexToAddress("0x2222222222222222222222222222222222222222")
	require.NoError(t, ms.SetPendingAuthority(nominee))
	got, err = ms.GetPendingAuthority()
	require.NoError(t, err)
	assert.Equal(t, nominee, got)
}

func TestMemoryClaimStore_ClosedOperationsFail(t *testing.T) {
	ms := NewMemoryClaimStore()
	require.NoError(t, ms.Close())
	require.NoError(t, ms.Close()) // Idempotent

	_, err := ms.GetRoot()
	require.Error(t, err)
	err = ms.MarkClaimed(common.Address{0x01})
	require.Error(t, err)
	require.Error(t, ms.HealthCheck())
}

func TestMemoryClaimStore_ConcurrentAccess(t *testing.T) {
	ms := NewMemoryClaimStore()
	defer func() { _ = ms.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr := common.BytesToAddress([]byte{byte(i + 1)})
			assert.NoError(t, ms.MarkClaimed(addr))
			_, err := ms.IsClaimed(addr)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	count, err := ms.ClaimedCount()
	require.NoError(t, err)
	assert.Equal(t, int64(50), count)
}
