package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository/memory"
	"rentchain-backend/internal/service"
)

var (
	admin     = domain.Caller{AccountID: "admin", Role: domain.RoleAdmin}
	landlord  = domain.Caller{AccountID: "landlord", Role: domain.RoleLandlord}
	landlord2 = domain.Caller{AccountID: "landlord2", Role: domain.RoleLandlord}
	tenant    = domain.Caller{AccountID: "tenant", Role: domain.RoleTenant}
	tenant2   = domain.Caller{AccountID: "tenant2", Role: domain.RoleTenant}
	v1        = domain.Caller{AccountID: "v1", Role: domain.RoleValidator}
	v2        = domain.Caller{AccountID: "v2", Role: domain.RoleValidator}
	v3        = domain.Caller{AccountID: "v3", Role: domain.RoleValidator}
	v4        = domain.Caller{AccountID: "v4", Role: domain.RoleValidator}
)

type fixture struct {
	ctx  context.Context
	core *service.Core
	now  time.Time
}

func newFixture(t *testing.T, sinks ...service.EventSink) *fixture {
	t.Helper()
	f := &fixture{
		ctx: context.Background(),
		now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.core = service.NewCore(memory.NewStore(), domain.DefaultFeeSchedule(), sinks...)
	f.core.SetNowFunc(func() time.Time { return f.now })
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// fund mints native units for each caller; every unit is 100 credits.
func (f *fixture) fund(t *testing.T, native int64, callers ...domain.Caller) {
	t.Helper()
	for _, c := range callers {
		_, err := f.core.Ledger.Mint(f.ctx, admin, c.AccountID, native)
		require.NoError(t, err)
	}
}

func (f *fixture) balance(t *testing.T, c domain.Caller) int64 {
	t.Helper()
	b, err := f.core.Ledger.BalanceOf(f.ctx, c.AccountID)
	require.NoError(t, err)
	return b
}

// assertConserved checks that every minted credit sits either in an account
// or in escrow.
func (f *fixture) assertConserved(t *testing.T) {
	t.Helper()
	balances, err := f.core.Ledger.Balances(f.ctx)
	require.NoError(t, err)
	var sum int64
	for _, b := range balances {
		require.GreaterOrEqual(t, b.Balance, int64(0), b.AccountID)
		sum += b.Balance
	}
	escrowed, err := f.core.Vault.TotalEscrowed(f.ctx)
	require.NoError(t, err)
	supply, err := f.core.Ledger.TotalSupply(f.ctx)
	require.NoError(t, err)
	require.Equal(t, supply, sum+escrowed)
}

func defaultFields() domain.PropertyFields {
	return domain.PropertyFields{
		Location:       "1 Orchard Road",
		PostalCode:     "238823",
		UnitNumber:     "#12-01",
		PropertyType:   domain.PropertyTypeCondo,
		Description:    "two bedroom",
		TenantCapacity: 2,
		RentalPrice:    10,
		LeaseMonths:    3,
	}
}

// listedProperty adds and lists a property with a deposit of 50.
func (f *fixture) listedProperty(t *testing.T) *domain.Property {
	t.Helper()
	p, err := f.core.Properties.AddProperty(f.ctx, landlord, defaultFields())
	require.NoError(t, err)
	p, err = f.core.Properties.List(f.ctx, landlord, p.ID, 50)
	require.NoError(t, err)
	return p
}

func (f *fixture) apply(t *testing.T, c domain.Caller, propertyID int64) *domain.Application {
	t.Helper()
	a, err := f.core.Marketplace.Apply(f.ctx, c, propertyID, domain.ContactInfo{Name: c.AccountID, Email: c.AccountID + "@example.com"}, "looking to rent")
	require.NoError(t, err)
	return a
}

// completedTenancy runs an application through acceptance and the full lease.
func (f *fixture) completedTenancy(t *testing.T, c domain.Caller, p *domain.Property) *domain.Application {
	t.Helper()
	a := f.apply(t, c, p.ID)
	_, err := f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, a.ID)
	require.NoError(t, err)
	for i := int32(0); i < p.LeaseMonths; i++ {
		_, err = f.core.Marketplace.MakePayment(f.ctx, c, p.ID, a.ID)
		require.NoError(t, err)
		a, err = f.core.Marketplace.AcceptPayment(f.ctx, landlord, p.ID, a.ID)
		require.NoError(t, err)
	}
	require.Equal(t, domain.ApplicationStatusCompleted, a.Status)
	return a
}
