// Package gate holds the access checks every mutating validator operation
// passes through: owner-only authorization and the two pause switches. The
// checks are pure functions over a state snapshot so they can be unit-tested
// without stores or services.
package gate

import (
	"attestor/internal/validator/models"
	id "attestor/pkg/domain"
)

// RequireOwner fails unless caller is the initialized owner.
func RequireOwner(state *models.ValidatorState, caller id.Address) error {
	if state == nil {
		return models.ErrNotInitialized
	}
	if caller.IsZero() || caller != state.Owner {
		return models.ErrUnauthorized
	}
	return nil
}

// RequireNotPaused fails while the whole validator is paused.
func RequireNotPaused(state *models.ValidatorState) error {
	if state == nil {
		return models.ErrNotInitialized
	}
	if state.Paused {
		return models.ErrPaused
	}
	return nil
}

// RequireIssuanceActive fails while issuance is paused. Revocation is not
// gated by this check, only by RequireNotPaused.
func RequireIssuanceActive(state *models.ValidatorState) error {
	if state == nil {
		return models.ErrNotInitialized
	}
	if state.IssuancePaused {
		return models.ErrIssuancePaused
	}
	return nil
}
