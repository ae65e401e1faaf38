// Package worker drains buffered audit events into a store. Operations-grade
// events go through this channel path so the hot path never blocks on storage.
package worker

import (
	"context"

	audit "attestor/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them.
type Worker struct {
	store audit.Store
	inbox <-chan audit.Event
}

func New(store audit.Store, inbox <-chan audit.Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

// Run processes events until the context is canceled or a write fails.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
