package access

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/logger"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/types"
)

var (
	adminAddr    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	nomineeAddr  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	strangerAddr = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	store := memory.NewMemoryClaimStore()
	t.Cleanup(func() { _ = store.Close() })

	c, err := NewController(store, adminAddr, logger.NewNopLogger())
	require.NoError(t, err)
	return c
}

func TestNewController_RequiresBootstrapAuthority(t *testing.T) {
	store := memory.NewMemoryClaimStore()
	defer func() { _ = store.Close() }()

	c, err := NewController(store, common.Address{}, logger.NewNopLogger())
	require.Error(t, err)
	require.Nil(t, c)
}

func TestNewController_PersistedAuthorityWins(t *testing.T) {
	store := memory.NewMemoryClaimStore()
	defer func() { _ = store.Close() }()

	require.NoError(t, store.SetAuthority(adminAddr))

	// A different configured bootstrap value must not replace it
	c, err := NewController(store, strangerAddr, logger.NewNopLogger())
	require.NoError(t, err)

	authority, err := c.Authority()
	require.NoError(t, err)
	assert.Equal(t, adminAddr, authority)
}

func TestIsAuthorityFor(t *testing.T) {
	c := newTestController(t)

	allowed, err := c.IsAuthorityFor(types.ActionRotateRoot, adminAddr)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = c.IsAuthorityFor(types.ActionRotateRoot, strangerAddr)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestPauseUnpause(t *testing.T) {
	c := newTestController(t)

	accepting, err := c.IsAcceptingClaims()
	require.NoError(t, err)
	assert.True(t, accepting)

	// Only the authority may pause
	require.Error(t, c.Pause(strangerAddr))
	require.NoError(t, c.Pause(adminAddr))

	accepting, err = c.IsAcceptingClaims()
	require.NoError(t, err)
	assert.False(t, accepting)

	require.Error(t, c.Unpause(strangerAddr))
	require.NoError(t, c.Unpause(adminAddr))

	accepting, err = c.IsAcceptingClaims()
	require.NoError(t, err)
	assert.True(t, accepting)
}

func TestAuthorityHandoff_TwoPhase(t *testing.T) {
	c := newTestController(t)

	// Nominee cannot accept before nomination
	require.Error(t, c.AcceptAuthority(nomineeAddr))

	// Only the authority may nominate
	require.Error(t, c.NominateAuthority(strangerAddr, nomineeAddr))
	require.NoError(t, c.NominateAuthority(adminAddr, nomineeAddr))

	// Nomination alone moves no power
	allowed, err := c.IsAuthorityFor(types.ActionPause, nomineeAddr)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Only the nominee may accept
	require.Error(t, c.AcceptAuthority(strangerAddr))
	require.NoError(t, c.AcceptAuthority(nomineeAddr))

	// Power has moved, pending slot cleared
	authority, err := c.Authority()
	require.NoError(t, err)
	assert.Equal(t, nomineeAddr, authority)

	allowed, err = c.IsAuthorityFor(types.ActionPause, adminAddr)
	require.NoError(t, err)
	assert.False(t, allowed)

	// A second accept fails - handoff already completed
	require.Error(t, c.AcceptAuthority(nomineeAddr))
}

func TestAuthorityHandoff_ClearNomination(t *testing.T) {
	c := newTestController(t)

	require.NoError(t, c.NominateAuthority(adminAddr, nomineeAddr))
	require.NoError(t, c.NominateAuthority(adminAddr, common.Address{}))

	// Cleared nomination cannot be accepted
	require.Error(t, c.AcceptAuthority(nomineeAddr))

	authority, err := c.Authority()
	require.NoError(t, err)
	assert.Equal(t, adminAddr, authority)
}

func TestAuthorityHandoff_Renomination(t *testing.T) {
	c := newTestController(t)

	// A typo'd nomination is overwritten harmlessly
	require.NoError(t, c.NominateAuthority(adminAddr, strangerAddr))
	require.NoError(t, c.NominateAuthority(adminAddr, nomineeAddr))

	require.Error(t, c.AcceptAuthority(strangerAddr))
	require.NoError(t, c.AcceptAuthority(nomineeAddr))
}
