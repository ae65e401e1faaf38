package validator

import (
	"log/slog"

	"attestor/internal/jurisdiction"
	"attestor/internal/validator/handler"
	"attestor/internal/validator/service"
)

// Service exposes validator orchestration: organization administration and
// verified attribute issuance.
type Service = service.ValidatorService

// Handler wires HTTP endpoints to the validator service.
type Handler = handler.Handler

// NewService constructs the validator service with required dependencies.
func NewService(states service.StateStore, orgs service.OrganizationStore, registry jurisdiction.Client, opts ...service.Option) *Service {
	return service.New(states, orgs, registry, opts...)
}

// NewHandler constructs an HTTP handler for validator routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
