package handler

import (
	"time"

	"attestor/internal/validator/models"
	id "attestor/pkg/domain"
)

// OrganizationResponse is the query snapshot for one organization.
type OrganizationResponse struct {
	Exists           bool     `json:"exists"`
	MaximumAddresses uint64   `json:"maximum_addresses"`
	Name             string   `json:"name"`
	IssuedAddresses  []string `json:"issued_addresses"`
}

func FromRecord(record models.Record) OrganizationResponse {
	issued := make([]string, len(record.IssuedAddresses))
	for i, addr := range record.IssuedAddresses {
		issued[i] = addr.String()
	}
	return OrganizationResponse{
		Exists:           record.Exists,
		MaximumAddresses: record.MaxAddresses,
		Name:             record.Name,
		IssuedAddresses:  issued,
	}
}

// ListOrganizationsResponse enumerates organizations in registration order.
type ListOrganizationsResponse struct {
	Organizations []string `json:"organizations"`
}

func FromAddresses(addrs []id.Address) ListOrganizationsResponse {
	out := make([]string, len(addrs))
	for i, addr := range addrs {
		out[i] = addr.String()
	}
	return ListOrganizationsResponse{Organizations: out}
}

// ValidatorResponse is the GET /validator snapshot.
type ValidatorResponse struct {
	Owner               string    `json:"owner"`
	Paused              bool      `json:"paused"`
	IssuancePaused      bool      `json:"issuance_paused"`
	JurisdictionAddress string    `json:"jurisdiction_address"`
	AttributeID         uint64    `json:"attribute_id"`
	InitializedAt       time.Time `json:"initialized_at"`
}

func FromState(state *models.ValidatorState) ValidatorResponse {
	return ValidatorResponse{
		Owner:               state.Owner.String(),
		Paused:              state.Paused,
		IssuancePaused:      state.IssuancePaused,
		JurisdictionAddress: state.JurisdictionAddress.String(),
		AttributeID:         state.AttributeID,
		InitializedAt:       state.InitializedAt,
	}
}
