package models

import id "attestor/pkg/domain"

// Domain events recorded for every committed mutation. The audit trail is the
// observable record of these; field sets are part of the public contract.

// OrganizationAdded is emitted when the owner registers a new organization.
type OrganizationAdded struct {
	Organization id.Address
	Name         string
}

// AttributeIssued is emitted when an organization's issuance commits.
type AttributeIssued struct {
	Organization      id.Address
	AttributedAddress id.Address
}

// AttributeRevoked is emitted when an organization's revocation commits.
type AttributeRevoked struct {
	Organization      id.Address
	AttributedAddress id.Address
}
