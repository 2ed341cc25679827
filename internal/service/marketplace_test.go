package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentchain-backend/internal/domain"
)

var tenant3 = domain.Caller{AccountID: "tenant3", Role: domain.RoleTenant}

func TestRentalMarketplace_Apply(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord, tenant, tenant2)
	p := f.listedProperty(t)

	a := f.apply(t, tenant, p.ID)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, domain.ApplicationStatusPending, a.Status)
	assert.Equal(t, int64(50), a.DepositAmount)
	assert.Equal(t, int64(50), f.balance(t, tenant))

	deposit, err := f.core.Vault.PoolBalance(f.ctx, domain.DepositPool(p.ID, a.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(50), deposit)

	b := f.apply(t, tenant2, p.ID)
	assert.Equal(t, int64(2), b.ID)

	after, err := f.core.Properties.GetProperty(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), after.OutstandingApplications)

	t.Run("Duplicate", func(t *testing.T) {
		_, err := f.core.Marketplace.Apply(f.ctx, tenant, p.ID, domain.ContactInfo{}, "again")
		assert.ErrorIs(t, err, domain.ErrDuplicateApplication)
		assert.Equal(t, int64(50), f.balance(t, tenant))
	})

	t.Run("Landlord cannot apply", func(t *testing.T) {
		_, err := f.core.Marketplace.Apply(f.ctx, landlord, p.ID, domain.ContactInfo{}, "")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Unknown property", func(t *testing.T) {
		_, err := f.core.Marketplace.Apply(f.ctx, tenant, 99, domain.ContactInfo{}, "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRentalMarketplace_ApplyGuards(t *testing.T) {
	t.Run("Not listed", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, 1, tenant)
		p, err := f.core.Properties.AddProperty(f.ctx, landlord, defaultFields())
		require.NoError(t, err)

		_, err = f.core.Marketplace.Apply(f.ctx, tenant, p.ID, domain.ContactInfo{}, "")
		assert.ErrorIs(t, err, domain.ErrNotListed)
	})

	t.Run("Insufficient balance leaves no trace", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, 1, landlord)
		p := f.listedProperty(t)

		_, err := f.core.Marketplace.Apply(f.ctx, tenant, p.ID, domain.ContactInfo{}, "")
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

		after, err := f.core.Properties.GetProperty(f.ctx, p.ID)
		require.NoError(t, err)
		assert.Zero(t, after.OutstandingApplications)
		assert.Zero(t, after.ApplicationSeq)
		apps, err := f.core.Marketplace.ListApplicationsByTenant(f.ctx, tenant.AccountID)
		require.NoError(t, err)
		assert.Empty(t, apps)
	})
}

func TestRentalMarketplace_CancelOrReject(t *testing.T) {
	for _, closer := range []domain.Caller{tenant, landlord} {
		t.Run(string(closer.Role), func(t *testing.T) {
			f := newFixture(t)
			f.fund(t, 1, landlord, tenant)
			p := f.listedProperty(t)
			a := f.apply(t, tenant, p.ID)

			require.NoError(t, f.core.Marketplace.CancelOrReject(f.ctx, closer, p.ID, a.ID))
			assert.Equal(t, int64(100), f.balance(t, tenant))

			_, err := f.core.Marketplace.GetApplication(f.ctx, admin, p.ID, a.ID)
			assert.ErrorIs(t, err, domain.ErrNotFound)

			after, err := f.core.Properties.GetProperty(f.ctx, p.ID)
			require.NoError(t, err)
			assert.Zero(t, after.OutstandingApplications)

			// a fresh application gets a new id
			again := f.apply(t, tenant, p.ID)
			assert.Equal(t, a.ID+1, again.ID)
			f.assertConserved(t)
		})
	}

	t.Run("Strangers and accepted applications", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, 1, landlord, tenant)
		p := f.listedProperty(t)
		a := f.apply(t, tenant, p.ID)

		err := f.core.Marketplace.CancelOrReject(f.ctx, tenant2, p.ID, a.ID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		err = f.core.Marketplace.CancelOrReject(f.ctx, landlord2, p.ID, a.ID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)

		_, err = f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, a.ID)
		require.NoError(t, err)
		err = f.core.Marketplace.CancelOrReject(f.ctx, tenant, p.ID, a.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidApplicationState)
	})
}

func TestRentalMarketplace_AcceptApplication(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord, tenant, tenant2, tenant3)
	p := f.listedProperty(t)
	a := f.apply(t, tenant, p.ID)
	b := f.apply(t, tenant2, p.ID)
	c := f.apply(t, tenant3, p.ID)

	_, err := f.core.Marketplace.AcceptApplication(f.ctx, landlord2, p.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	accepted, err := f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusOngoing, accepted.Status)
	// deposit goes straight to the landlord
	assert.Equal(t, int64(100), f.balance(t, landlord))

	_, err = f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidApplicationState)

	_, err = f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, b.ID)
	require.NoError(t, err)

	_, err = f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	pending, active, err := f.core.Marketplace.ListApplicationsByProperty(f.ctx, admin, p.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, c.ID, pending[0].ID)
	assert.Len(t, active, 2)
	f.assertConserved(t)
}

func TestRentalMarketplace_Payments(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord, tenant)
	p := f.listedProperty(t)
	a := f.apply(t, tenant, p.ID)

	_, err := f.core.Marketplace.MakePayment(f.ctx, tenant, p.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidApplicationState)

	_, err = f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, a.ID)
	require.NoError(t, err)

	_, err = f.core.Marketplace.AcceptPayment(f.ctx, landlord, p.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrPaymentNotMade)
	assert.ErrorIs(t, err, domain.ErrInvalidApplicationState)

	paid, err := f.core.Marketplace.MakePayment(f.ctx, tenant, p.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusMadePayment, paid.Status)
	assert.Len(t, paid.PaymentIDs, 1)
	assert.Equal(t, int64(40), f.balance(t, tenant))

	_, err = f.core.Marketplace.MakePayment(f.ctx, tenant, p.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidApplicationState)

	_, err = f.core.Marketplace.MakePayment(f.ctx, tenant2, p.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	month, err := f.core.Marketplace.AcceptPayment(f.ctx, landlord, p.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), month.MonthsPaid)
	assert.Equal(t, domain.ApplicationStatusOngoing, month.Status)
	assert.Equal(t, int64(110), f.balance(t, landlord))

	rent, err := f.core.Vault.PoolBalance(f.ctx, domain.RentPool(p.ID, a.ID))
	require.NoError(t, err)
	assert.Zero(t, rent)
	f.assertConserved(t)
}

func TestRentalMarketplace_MoveOut(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord, tenant)
	p := f.listedProperty(t)
	a := f.apply(t, tenant, p.ID)
	_, err := f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, a.ID)
	require.NoError(t, err)

	err = f.core.Marketplace.MoveOut(f.ctx, tenant, p.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrApplicationNotCompleted)

	for i := int32(0); i < p.LeaseMonths; i++ {
		_, err = f.core.Marketplace.MakePayment(f.ctx, tenant, p.ID, a.ID)
		require.NoError(t, err)
		a, err = f.core.Marketplace.AcceptPayment(f.ctx, landlord, p.ID, a.ID)
		require.NoError(t, err)
	}
	require.Equal(t, domain.ApplicationStatusCompleted, a.Status)
	assert.Equal(t, p.LeaseMonths, a.MonthsPaid)
	assert.Len(t, a.PaymentIDs, int(p.LeaseMonths))

	err = f.core.Marketplace.MoveOut(f.ctx, landlord, p.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	tenantBefore, landlordBefore := f.balance(t, tenant), f.balance(t, landlord)
	require.NoError(t, f.core.Marketplace.MoveOut(f.ctx, tenant, p.ID, a.ID))
	assert.Equal(t, tenantBefore+50, f.balance(t, tenant))
	assert.Equal(t, landlordBefore-50, f.balance(t, landlord))

	_, err = f.core.Marketplace.GetApplication(f.ctx, admin, p.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	refunded, err := f.core.Properties.Unlist(f.ctx, landlord, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), refunded)
	f.assertConserved(t)
}

func TestRentalMarketplace_MoveOutLandlordShort(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord, tenant)
	p := f.listedProperty(t)
	a := f.completedTenancy(t, tenant, p)

	// landlord spends the deposit and rent
	require.NoError(t, f.core.Ledger.Transfer(f.ctx, landlord, tenant2.AccountID, f.balance(t, landlord)))

	err := f.core.Marketplace.MoveOut(f.ctx, tenant, p.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	still, err := f.core.Marketplace.GetApplication(f.ctx, admin, p.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusCompleted, still.Status)
	f.assertConserved(t)
}

func TestRentalMarketplace_Queries(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 2, landlord, tenant)
	first := f.listedProperty(t)
	second := f.listedProperty(t)

	current, err := f.core.Marketplace.CurrentApplication(f.ctx, tenant.AccountID)
	require.NoError(t, err)
	assert.Nil(t, current)

	f.apply(t, tenant, first.ID)
	f.advance(1)
	latest := f.apply(t, tenant, second.ID)

	current, err = f.core.Marketplace.CurrentApplication(f.ctx, tenant.AccountID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, latest.PropertyID, current.PropertyID)

	apps, err := f.core.Marketplace.ListApplicationsByTenant(f.ctx, tenant.AccountID)
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	deposit, err := f.core.Marketplace.DepositAmount(f.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), deposit)

	_, _, err = f.core.Marketplace.ListApplicationsByProperty(f.ctx, admin, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRentalMarketplace_ApplicationVisibility(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord, landlord2, tenant, tenant2)
	p := f.listedProperty(t)
	a := f.apply(t, tenant, p.ID)

	for _, c := range []domain.Caller{tenant, landlord, admin} {
		got, err := f.core.Marketplace.GetApplication(f.ctx, c, p.ID, a.ID)
		require.NoError(t, err, c.AccountID)
		assert.Equal(t, "tenant@example.com", got.Contact.Email)
	}
	for _, c := range []domain.Caller{tenant2, landlord2, v1} {
		got, err := f.core.Marketplace.GetApplication(f.ctx, c, p.ID, a.ID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized, c.AccountID)
		assert.Nil(t, got)
	}

	_, _, err := f.core.Marketplace.ListApplicationsByProperty(f.ctx, landlord, p.ID)
	require.NoError(t, err)
	for _, c := range []domain.Caller{tenant, landlord2, v1} {
		_, _, err := f.core.Marketplace.ListApplicationsByProperty(f.ctx, c, p.ID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized, c.AccountID)
	}
}
