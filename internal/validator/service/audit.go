package service

import (
	"context"

	dErrors "attestor/pkg/domain-errors"
	"attestor/pkg/platform/audit"
	"attestor/pkg/requestcontext"
)

// emit fills the envelope fields and publishes the event. The publisher is
// fail-closed: a failed append fails the operation so the audit trail never
// lags committed state silently. A nil publisher disables auditing.
func (s *ValidatorService) emit(ctx context.Context, action audit.AuditEvent, event audit.Event) error {
	if s.audit == nil {
		return nil
	}

	event.Action = string(action)
	event.Category = action.Category()
	event.Timestamp = requestcontext.Now(ctx)
	event.Actor = requestcontext.Actor(ctx)
	event.RequestID = requestcontext.RequestID(ctx)

	if err := s.audit.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "recording audit event")
	}
	return nil
}
