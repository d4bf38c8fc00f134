package access

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/persistence"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/types"
)

// ErrNotAuthority is returned when a caller attempts a privileged operation
// without holding (or being nominated for) the required authority.
var ErrNotAuthority = errors.New("caller is not the administrative authority")

// Controller is the single capability-check collaborator for the claim
// engine. Every privileged operation consults it; permission logic lives
// here and nowhere else.
//
// Authority handoff is two-phase: the current authority nominates a
// successor, and the successor must accept before any power moves. A typo'd
// nomination is harmless and can be overwritten or cleared; the single-step
// overwrite that can lock an administrator out does not exist.
type Controller struct {
	store  persistence.IClaimStore
	logger *zap.Logger
}

// NewController creates an access controller over the given store. If the
// store has no authority yet (first run), initialAuthority is persisted as
// the bootstrap authority.
func NewController(store persistence.IClaimStore, initialAuthority common.Address, logger *zap.Logger) (*Controller, error) {
	c := &Controller{
		store:  store,
		logger: logger,
	}

	current, err := c.store.GetAuthority()
	if err != nil {
		return nil, fmt.Errorf("failed to read authority: %w", err)
	}

	if current == (common.Address{}) {
		if initialAuthority == (common.Address{}) {
			return nil, fmt.Errorf("no authority persisted and no initial authority configured")
		}
		if err := c.store.SetAuthority(initialAuthority); err != nil {
			return nil, fmt.Errorf("failed to persist initial authority: %w", err)
		}
		logger.Sugar().Infow("Bootstrapped administrative authority", "authority", initialAuthority.Hex())
	} else if initialAuthority != (common.Address{}) && current != initialAuthority {
		// Persisted authority wins; the flag is only a bootstrap value.
		logger.Sugar().Warnw("Configured authority differs from persisted authority; using persisted value",
			"configured", initialAuthority.Hex(),
			"persisted", current.Hex(),
		)
	}

	return c, nil
}

// IsAcceptingClaims reports whether claim processing is currently enabled.
func (c *Controller) IsAcceptingClaims() (bool, error) {
	paused, err := c.store.IsPaused()
	if err != nil {
		return false, fmt.Errorf("failed to read pause flag: %w", err)
	}
	return !paused, nil
}

// IsAuthorityFor reports whether the caller may perform the named
// administrative action. All actions are currently held by the single
// authority address.
func (c *Controller) IsAuthorityFor(action string, caller common.Address) (bool, error) {
	authority, err := c.store.GetAuthority()
	if err != nil {
		return false, fmt.Errorf("failed to read authority: %w", err)
	}
	if authority == (common.Address{}) {
		return false, fmt.Errorf("no authority configured")
	}

	allowed := caller == authority
	if !allowed {
		c.logger.Sugar().Warnw("Rejected unauthorized administrative action",
			"action", action,
			"caller", caller.Hex(),
		)
	}
	return allowed, nil
}

// Pause suspends claim processing. Authority-gated.
func (c *Controller) Pause(caller common.Address) error {
	if err := c.requireAuthority(types.ActionPause, caller); err != nil {
		return err
	}
	if err := c.store.SetPaused(true); err != nil {
		return fmt.Errorf("failed to set pause flag: %w", err)
	}
	c.logger.Sugar().Infow("Claims paused", "caller", caller.Hex())
	return nil
}

// Unpause resumes claim processing. Authority-gated.
func (c *Controller) Unpause(caller common.Address) error {
	if err := c.requireAuthority(types.ActionUnpause, caller); err != nil {
		return err
	}
	if err := c.store.SetPaused(false); err != nil {
		return fmt.Errorf("failed to clear pause flag: %w", err)
	}
	c.logger.Sugar().Infow("Claims unpaused", "caller", caller.Hex())
	return nil
}

// NominateAuthority records a successor for the administrative authority.
// Nominating the zero address clears a pending handoff.
func (c *Controller) NominateAuthority(caller common.Address, nominee common.Address) error {
	if err := c.requireAuthority(types.ActionNominateAuthority, caller); err != nil {
		return err
	}
	if err := c.store.SetPendingAuthority(nominee); err != nil {
		return fmt.Errorf("failed to persist pending authority: %w", err)
	}

	if nominee == (common.Address{}) {
		c.logger.Sugar().Infow("Cleared pending authority handoff", "caller", caller.Hex())
	} else {
		c.logger.Sugar().Infow("Nominated new authority", "caller", caller.Hex(), "nominee", nominee.Hex())
	}
	return nil
}

// AcceptAuthority completes a handoff: the caller must be the pending
// nominee. On success the caller becomes the authority and the pending slot
// is cleared.
func (c *Controller) AcceptAuthority(caller common.Address) error {
	pending, err := c.store.GetPendingAuthority()
	if err != nil {
		return fmt.Errorf("failed to read pending authority: %w", err)
	}
	if pending == (common.Address{}) {
		return errors.Wrap(ErrNotAuthority, "no authority handoff in progress")
	}
	if caller != pending {
		return errors.Wrapf(ErrNotAuthority, "caller %s is not the nominated authority", caller.Hex())
	}

	if err := c.store.SetAuthority(caller); err != nil {
		return fmt.Errorf("failed to persist new authority: %w", err)
	}
	if err := c.store.SetPendingAuthority(common.Address{}); err != nil {
		return fmt.Errorf("failed to clear pending authority: %w", err)
	}

	c.logger.Sugar().Infow("Authority handoff completed", "authority", caller.Hex())
	return nil
}

// Authority returns the current administrative authority address.
func (c *Controller) Authority() (common.Address, error) {
	return c.store.GetAuthority()
}

func (c *Controller) requireAuthority(action string, caller common.Address) error {
	allowed, err := c.IsAuthorityFor(action, caller)
	if err != nil {
		return err
	}
	if !allowed {
		return errors.Wrapf(ErrNotAuthority, "caller %s lacks authority for %s", caller.Hex(), action)
	}
	return nil
}
