package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentchain-backend/internal/domain"
)

func TestPropertyRegistry_AddProperty(t *testing.T) {
	f := newFixture(t)

	t.Run("Sequential ids starting at one", func(t *testing.T) {
		p1, err := f.core.Properties.AddProperty(f.ctx, landlord, defaultFields())
		require.NoError(t, err)
		p2, err := f.core.Properties.AddProperty(f.ctx, landlord, defaultFields())
		require.NoError(t, err)
		assert.Equal(t, int64(1), p1.ID)
		assert.Equal(t, int64(2), p2.ID)
		assert.False(t, p1.IsListed)
		assert.Equal(t, landlord.AccountID, p1.Landlord)
	})

	t.Run("Tenants cannot add", func(t *testing.T) {
		_, err := f.core.Properties.AddProperty(f.ctx, tenant, defaultFields())
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Validates fields", func(t *testing.T) {
		fields := defaultFields()
		fields.TenantCapacity = 0
		_, err := f.core.Properties.AddProperty(f.ctx, landlord, fields)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)

		fields = defaultFields()
		fields.PropertyType = "CASTLE"
		_, err = f.core.Properties.AddProperty(f.ctx, landlord, fields)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestPropertyRegistry_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord)
	p, err := f.core.Properties.AddProperty(f.ctx, landlord, defaultFields())
	require.NoError(t, err)

	t.Run("Update while unlisted", func(t *testing.T) {
		fields := defaultFields()
		fields.RentalPrice = 25
		updated, err := f.core.Properties.UpdateProperty(f.ctx, landlord, p.ID, fields)
		require.NoError(t, err)
		assert.Equal(t, int64(25), updated.RentalPrice)
	})

	t.Run("Other landlord", func(t *testing.T) {
		_, err := f.core.Properties.UpdateProperty(f.ctx, landlord2, p.ID, defaultFields())
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Locked while listed", func(t *testing.T) {
		_, err := f.core.Properties.List(f.ctx, landlord, p.ID, 10)
		require.NoError(t, err)

		_, err = f.core.Properties.UpdateProperty(f.ctx, landlord, p.ID, defaultFields())
		assert.ErrorIs(t, err, domain.ErrPropertyLocked)
		assert.ErrorIs(t, f.core.Properties.DeleteProperty(f.ctx, landlord, p.ID), domain.ErrPropertyLocked)
	})

	t.Run("Delete after unlist", func(t *testing.T) {
		_, err := f.core.Properties.Unlist(f.ctx, landlord, p.ID)
		require.NoError(t, err)
		require.NoError(t, f.core.Properties.DeleteProperty(f.ctx, landlord, p.ID))

		_, err = f.core.Properties.GetProperty(f.ctx, p.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Ids are not reused", func(t *testing.T) {
		next, err := f.core.Properties.AddProperty(f.ctx, landlord, defaultFields())
		require.NoError(t, err)
		assert.Equal(t, p.ID+1, next.ID)
	})
}

func TestPropertyRegistry_ListUnlist(t *testing.T) {
	t.Run("Reversible under vacancy", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, 1, landlord)
		p, err := f.core.Properties.AddProperty(f.ctx, landlord, defaultFields())
		require.NoError(t, err)

		listed, err := f.core.Properties.List(f.ctx, landlord, p.ID, 30)
		require.NoError(t, err)
		assert.True(t, listed.IsListed)
		assert.Equal(t, int64(30), listed.DepositFee)
		assert.NotZero(t, listed.PaymentID)
		assert.Equal(t, int64(50), f.balance(t, landlord))

		refunded, err := f.core.Properties.Unlist(f.ctx, landlord, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(50), refunded)
		assert.Equal(t, int64(100), f.balance(t, landlord))
		f.assertConserved(t)
	})

	t.Run("Insufficient balance changes nothing", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, transferFromNewAccount(f, t, landlord, 40))
		p, err := f.core.Properties.AddProperty(f.ctx, landlord, defaultFields())
		require.NoError(t, err)

		_, err = f.core.Properties.List(f.ctx, landlord, p.ID, 30)
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		assert.Equal(t, int64(40), f.balance(t, landlord))

		after, err := f.core.Properties.GetProperty(f.ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, after.IsListed)
		assert.Zero(t, after.DepositFee)
	})

	t.Run("Double list and unlisted unlist", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, 2, landlord)
		p, err := f.core.Properties.AddProperty(f.ctx, landlord, defaultFields())
		require.NoError(t, err)

		_, err = f.core.Properties.Unlist(f.ctx, landlord, p.ID)
		assert.ErrorIs(t, err, domain.ErrNotListed)

		_, err = f.core.Properties.List(f.ctx, landlord, p.ID, 30)
		require.NoError(t, err)
		_, err = f.core.Properties.List(f.ctx, landlord, p.ID, 30)
		assert.ErrorIs(t, err, domain.ErrPropertyLocked)
	})

	t.Run("Not vacant", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, 1, landlord, tenant)
		p := f.listedProperty(t)
		f.apply(t, tenant, p.ID)

		_, err := f.core.Properties.Unlist(f.ctx, landlord, p.ID)
		assert.ErrorIs(t, err, domain.ErrPropertyNotVacant)
		_, err = f.core.Properties.UpdateProperty(f.ctx, landlord, p.ID, defaultFields())
		assert.ErrorIs(t, err, domain.ErrPropertyLocked)
		assert.ErrorIs(t, f.core.Properties.DeleteProperty(f.ctx, landlord, p.ID), domain.ErrPropertyLocked)
	})
}

func TestPropertyRegistry_UpdateDepositFee(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord, tenant, tenant2)
	p := f.listedProperty(t)
	first := f.apply(t, tenant, p.ID)

	updated, err := f.core.Properties.UpdateDepositFee(f.ctx, landlord, p.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(20), updated.DepositFee)

	second := f.apply(t, tenant2, p.ID)
	assert.Equal(t, int64(50), first.DepositAmount)
	assert.Equal(t, int64(20), second.DepositAmount)
	assert.Equal(t, int64(80), f.balance(t, tenant2))

	// refunds use what the tenant actually paid
	require.NoError(t, f.core.Marketplace.CancelOrReject(f.ctx, tenant, p.ID, first.ID))
	assert.Equal(t, int64(100), f.balance(t, tenant))

	_, err = f.core.Properties.UpdateDepositFee(f.ctx, landlord, p.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	f.assertConserved(t)
}

func TestPropertyRegistry_Queries(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord)
	listed := f.listedProperty(t)
	unlisted, err := f.core.Properties.AddProperty(f.ctx, landlord, defaultFields())
	require.NoError(t, err)
	_, err = f.core.Properties.AddProperty(f.ctx, landlord2, defaultFields())
	require.NoError(t, err)

	all, err := f.core.Properties.ListByLandlord(f.ctx, landlord.AccountID, domain.ListingAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyListed, err := f.core.Properties.ListByLandlord(f.ctx, landlord.AccountID, domain.ListingListed)
	require.NoError(t, err)
	require.Len(t, onlyListed, 1)
	assert.Equal(t, listed.ID, onlyListed[0].ID)

	onlyUnlisted, err := f.core.Properties.ListByLandlord(f.ctx, landlord.AccountID, domain.ListingUnlisted)
	require.NoError(t, err)
	require.Len(t, onlyUnlisted, 1)
	assert.Equal(t, unlisted.ID, onlyUnlisted[0].ID)

	market, err := f.core.Properties.ListListed(f.ctx)
	require.NoError(t, err)
	assert.Len(t, market, 1)
}

// transferFromNewAccount gives c an exact credit amount via a funded donor.
func transferFromNewAccount(f *fixture, t *testing.T, c domain.Caller, amount int64) error {
	donor := domain.Caller{AccountID: "donor", Role: domain.RoleTenant}
	f.fund(t, 1, donor)
	return f.core.Ledger.Transfer(f.ctx, donor, c.AccountID, amount)
}
