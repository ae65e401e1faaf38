package validator_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"attestor/internal/jurisdiction"
	"attestor/internal/validator"
	"attestor/internal/validator/models"
	"attestor/internal/validator/service"
	orgstore "attestor/internal/validator/store/organization"
	statestore "attestor/internal/validator/store/state"
	id "attestor/pkg/domain"
	"attestor/pkg/requestcontext"
	"attestor/pkg/testutil"
)

// TestDelegatedIssuanceFlow walks the whole lifecycle the way an operator
// would: initialize, register a delegate, issue up to capacity, revoke, and
// confirm the registry tracked every step.
func TestDelegatedIssuanceFlow(t *testing.T) {
	owner := id.Address(fmt.Sprintf("0x%040x", 1))
	org := id.Address(fmt.Sprintf("0x%040x", 2))
	jurisdictionAddr := id.Address(fmt.Sprintf("0x%040x", 3))
	a1 := id.Address(fmt.Sprintf("0x%040x", 0xa1))
	a2 := id.Address(fmt.Sprintf("0x%040x", 0xa2))

	registry := jurisdiction.NewMockClient(0)
	svc := validator.NewService(
		statestore.NewInMemory(),
		orgstore.NewInMemory(),
		registry,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	as := func(actor id.Address) context.Context {
		return requestcontext.WithActor(context.Background(), actor)
	}

	testutil.Given(t, "an initialized validator with one registered organization", func(t *testing.T) {
		require.NoError(t, svc.Initialize(as(owner), jurisdictionAddr, 19))
		require.NoError(t, svc.AddOrganization(as(owner), org, 2, "Mock ZEP Organization"))
	})

	testutil.When(t, "the organization issues to two addresses", func(t *testing.T) {
		require.NoError(t, svc.IssueAttribute(as(org), a1))
		require.NoError(t, svc.IssueAttribute(as(org), a2))
	})

	testutil.Then(t, "the issued set is full and the registry confirms both grants", func(t *testing.T) {
		record, err := svc.GetOrganization(as(owner), org)
		require.NoError(t, err)
		require.Equal(t, []id.Address{a1, a2}, record.IssuedAddresses)

		for _, target := range []id.Address{a1, a2} {
			held, err := registry.Has(context.Background(), target, 19)
			require.NoError(t, err)
			require.True(t, held)
		}

		require.ErrorIs(t, svc.IssueAttribute(as(org), id.Address(fmt.Sprintf("0x%040x", 0xa3))), models.ErrCapacityExceeded)
	})

	testutil.When(t, "the organization revokes the first address", func(t *testing.T) {
		require.NoError(t, svc.RevokeAttribute(as(org), a1))
	})

	testutil.Then(t, "the registry drops the grant and capacity frees up", func(t *testing.T) {
		held, err := registry.Has(context.Background(), a1, 19)
		require.NoError(t, err)
		require.False(t, held)

		require.NoError(t, svc.IssueAttribute(as(org), a1))
	})
}
