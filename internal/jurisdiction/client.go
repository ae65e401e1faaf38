// Package jurisdiction talks to the external attribute registry. The
// validator never trusts its own bookkeeping alone: every grant is read
// back through Has before it is committed locally.
package jurisdiction

import (
	"context"

	id "attestor/pkg/domain"
)

//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks

// Client writes and reads a single attribute in the jurisdiction
// registry. Implementations must make Has reflect a completed Grant
// immediately; the validator aborts issuance when it does not.
type Client interface {
	Grant(ctx context.Context, subject id.Address, attributeID uint64) error
	Revoke(ctx context.Context, subject id.Address, attributeID uint64) error
	Has(ctx context.Context, subject id.Address, attributeID uint64) (bool, error)
}
