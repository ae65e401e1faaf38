package audit

import (
	"time"

	id "attestor/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// Attribute issuance and revocation land here: they are the record of who
	// attested what, and regulators expect long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// pause toggles, rejected owner actions, registry verification failures.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine events useful for debugging and
	// operational visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Organization is the delegate the event concerns, when applicable.
	Organization id.Address
	// Subject is the end-user address an attribute action targeted.
	Subject id.Address
	Action  string
	// Actor is the authenticated caller address.
	Actor id.Address
	// Name carries the organization display name for registration events.
	Name string
	// Reason carries failure detail for desync events.
	Reason string
	// RequestID is the correlation ID from the request context.
	RequestID string
}

// AuditEvent names every action the validator records.
type AuditEvent string

const (
	EventValidatorInitialized AuditEvent = "validator_initialized"

	// Organization events
	EventOrganizationAdded AuditEvent = "organization_added"
	EventCapacityChanged   AuditEvent = "capacity_changed"

	// Attribute events
	EventAttributeIssued  AuditEvent = "attribute_issued"
	EventAttributeRevoked AuditEvent = "attribute_revoked"
	EventRegistryDesync   AuditEvent = "registry_desync"

	// Pause events
	EventValidatorPaused   AuditEvent = "validator_paused"
	EventValidatorUnpaused AuditEvent = "validator_unpaused"
	EventIssuancePaused    AuditEvent = "issuance_paused"
	EventIssuanceUnpaused  AuditEvent = "issuance_unpaused"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventValidatorInitialized: CategoryCompliance,
	EventOrganizationAdded:    CategoryCompliance,
	EventAttributeIssued:      CategoryCompliance,
	EventAttributeRevoked:     CategoryCompliance,

	EventRegistryDesync:    CategorySecurity,
	EventValidatorPaused:   CategorySecurity,
	EventValidatorUnpaused: CategorySecurity,
	EventIssuancePaused:    CategorySecurity,
	EventIssuanceUnpaused:  CategorySecurity,

	EventCapacityChanged: CategoryOperations,
}

// Category returns the category for this event, defaulting to operations for
// unknown actions so nothing is silently dropped.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}
