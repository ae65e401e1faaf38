package models

import (
	"time"

	id "attestor/pkg/domain"
)

// ValidatorState is the singleton configuration and gating state, created once
// by Initialize and mutated for the validator's lifetime. JurisdictionAddress
// and AttributeID are fixed at initialization.
type ValidatorState struct {
	Owner               id.Address
	Paused              bool
	IssuancePaused      bool
	JurisdictionAddress id.Address
	AttributeID         uint64
	InitializedAt       time.Time
}

// Clone returns a copy so stores never hand out their internal pointer.
func (s *ValidatorState) Clone() *ValidatorState {
	c := *s
	return &c
}
