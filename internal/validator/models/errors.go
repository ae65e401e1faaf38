package models

import (
	dErrors "attestor/pkg/domain-errors"
)

// Domain error kinds for the validator. Services return these exact values
// (possibly wrapped with %w) so callers can test with errors.Is, and each
// carries a code for transport mapping.
var (
	// ErrInvalidAddress rejects the zero address as owner, organization, or
	// attribute target.
	ErrInvalidAddress = dErrors.New(dErrors.CodeValidation, "address is the zero address")

	// ErrUnauthorized covers both non-owner admin calls and attribute calls
	// from addresses that are not registered organizations.
	ErrUnauthorized = dErrors.New(dErrors.CodeUnauthorized, "caller is not authorized")

	// ErrAlreadyExists rejects re-registration of an organization address.
	ErrAlreadyExists = dErrors.New(dErrors.CodeConflict, "organization already registered")

	// ErrNotFound reports an organization address that was never registered.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "organization not registered")

	// ErrAlreadyInitialized rejects a second Initialize call.
	ErrAlreadyInitialized = dErrors.New(dErrors.CodeConflict, "validator already initialized")

	// ErrNotInitialized reports a mutating call before Initialize.
	ErrNotInitialized = dErrors.New(dErrors.CodeInvariantViolation, "validator not initialized")

	// ErrCapacityExceeded rejects issuance that would put an organization over
	// its maximum address count.
	ErrCapacityExceeded = dErrors.New(dErrors.CodeConflict, "organization capacity exceeded")

	// ErrCapacityBelowUsage rejects lowering capacity below the current number
	// of issued addresses.
	ErrCapacityBelowUsage = dErrors.New(dErrors.CodeConflict, "capacity below current usage")

	// ErrAlreadyIssued rejects duplicate issuance to the same target.
	ErrAlreadyIssued = dErrors.New(dErrors.CodeConflict, "attribute already issued to target")

	// ErrNotIssued rejects revocation of an attribute the organization never
	// issued (or already revoked).
	ErrNotIssued = dErrors.New(dErrors.CodeConflict, "attribute not issued to target")

	// ErrPaused blocks every mutating attribute operation while the validator
	// is paused.
	ErrPaused = dErrors.New(dErrors.CodeUnavailable, "validator is paused")

	// ErrIssuancePaused blocks issuance only; revocation stays available.
	ErrIssuancePaused = dErrors.New(dErrors.CodeUnavailable, "attribute issuance is paused")

	// ErrRegistryDesync reports that the jurisdiction registry did not confirm
	// a grant or revoke on read-back. Local state is left untouched.
	ErrRegistryDesync = dErrors.New(dErrors.CodeUnavailable, "jurisdiction registry did not confirm the change")
)
