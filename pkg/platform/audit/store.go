package audit

import "context"

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByOrganization(ctx context.Context, organization string) ([]Event, error)
}

// Publisher emits audit events from domain services. The compliance publisher
// is fail-closed: if Emit returns an error the calling operation must fail.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
