package handler

import (
	id "attestor/pkg/domain"
	dErrors "attestor/pkg/domain-errors"
)

// InitializeRequest is the body for POST /admin/initialize.
type InitializeRequest struct {
	JurisdictionAddress string `json:"jurisdiction_address"`
	AttributeID         uint64 `json:"attribute_id"`
}

func (r InitializeRequest) ParsedJurisdiction() (id.Address, error) {
	addr, err := id.ParseAddress(r.JurisdictionAddress)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid jurisdiction_address")
	}
	return addr, nil
}

// AddOrganizationRequest is the body for POST /admin/organizations.
type AddOrganizationRequest struct {
	Address          string `json:"address"`
	MaximumAddresses uint64 `json:"maximum_addresses"`
	Name             string `json:"name"`
}

func (r AddOrganizationRequest) ParsedAddress() (id.Address, error) {
	addr, err := id.ParseAddress(r.Address)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid address")
	}
	return addr, nil
}

// SetCapacityRequest is the body for PUT /admin/organizations/{address}/capacity.
type SetCapacityRequest struct {
	MaximumAddresses uint64 `json:"maximum_addresses"`
}

// AttributeRequest is the body for POST /attributes/issue and
// POST /attributes/revoke.
type AttributeRequest struct {
	Address string `json:"address"`
}

func (r AttributeRequest) ParsedAddress() (id.Address, error) {
	addr, err := id.ParseAddress(r.Address)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid address")
	}
	return addr, nil
}
