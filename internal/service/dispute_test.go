package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentchain-backend/internal/domain"
)

type disputeFixture struct {
	*fixture
	property    *domain.Property
	application *domain.Application
	dispute     *domain.Dispute
}

// newDisputeFixture opens a dispute on a completed tenancy with funded
// validators standing by.
func newDisputeFixture(t *testing.T) *disputeFixture {
	t.Helper()
	f := newFixture(t)
	f.fund(t, 1, landlord, v1, v2, v3, v4)
	f.fund(t, 2, tenant)
	p := f.listedProperty(t)
	a := f.completedTenancy(t, tenant, p)

	d, err := f.core.Disputes.CreateDispute(f.ctx, tenant, p.ID, a.ID, domain.DisputeTypeMaintenance, "leaking roof")
	require.NoError(t, err)
	return &disputeFixture{fixture: f, property: p, application: a, dispute: d}
}

func (f *disputeFixture) vote(t *testing.T, c domain.Caller, choice domain.VoteChoice) {
	t.Helper()
	require.NoError(t, f.core.Disputes.Vote(f.ctx, c, f.dispute.ID, choice))
}

func TestDisputeEngine_CreateDispute(t *testing.T) {
	f := newDisputeFixture(t)

	assert.Equal(t, int64(1), f.dispute.ID)
	assert.Equal(t, domain.DisputeStatusPending, f.dispute.Status)
	assert.Equal(t, f.now.Add(7*24*time.Hour), f.dispute.EndTime)
	// 200 less the deposit, three months of rent and the stake
	assert.Equal(t, int64(70), f.balance(t, tenant))

	a, err := f.core.Marketplace.GetApplication(f.ctx, admin, f.property.ID, f.application.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusDispute, a.Status)
	assert.Equal(t, domain.ApplicationStatusCompleted, a.PreviousStatus)
	assert.Equal(t, f.dispute.ID, a.DisputeID)

	pool, err := f.core.Vault.PoolBalance(f.ctx, domain.DisputePool(f.dispute.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(50), pool)

	t.Run("Duplicate while pending", func(t *testing.T) {
		_, err := f.core.Disputes.CreateDispute(f.ctx, tenant, f.property.ID, f.application.ID, domain.DisputeTypeOther, "")
		assert.ErrorIs(t, err, domain.ErrDuplicateDispute)
	})

	t.Run("Move out blocked", func(t *testing.T) {
		err := f.core.Marketplace.MoveOut(f.ctx, tenant, f.property.ID, f.application.ID)
		assert.ErrorIs(t, err, domain.ErrApplicationNotCompleted)
	})

	t.Run("Only the tenant", func(t *testing.T) {
		_, err := f.core.Disputes.CreateDispute(f.ctx, landlord, f.property.ID, f.application.ID, domain.DisputeTypeOther, "")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
	f.assertConserved(t)
}

func TestDisputeEngine_CreateDisputeGuards(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord, tenant)
	p := f.listedProperty(t)
	a := f.apply(t, tenant, p.ID)

	_, err := f.core.Disputes.CreateDispute(f.ctx, tenant, p.ID, a.ID, domain.DisputeTypeMaintenance, "")
	assert.ErrorIs(t, err, domain.ErrInvalidApplicationState)

	_, err = f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, a.ID)
	require.NoError(t, err)

	_, err = f.core.Disputes.CreateDispute(f.ctx, tenant, p.ID, a.ID, "HAUNTING", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	// tenant holds 50 after the deposit; the stake is 50
	require.NoError(t, f.core.Ledger.Transfer(f.ctx, tenant, tenant2.AccountID, 1))
	_, err = f.core.Disputes.CreateDispute(f.ctx, tenant, p.ID, a.ID, domain.DisputeTypeMaintenance, "")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	after, err := f.core.Marketplace.GetApplication(f.ctx, admin, p.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusOngoing, after.Status)
	assert.Zero(t, after.DisputeID)

	all, err := f.core.Disputes.ListAll(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	f.assertConserved(t)
}

func TestDisputeEngine_Vote(t *testing.T) {
	f := newDisputeFixture(t)

	f.vote(t, v1, domain.VoteApprove)
	assert.Equal(t, int64(99), f.balance(t, v1))

	count, err := f.core.Disputes.VoterCount(f.ctx, f.dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	tests := []struct {
		name   string
		caller domain.Caller
		choice domain.VoteChoice
		want   error
	}{
		{"Already voted", v1, domain.VoteReject, domain.ErrAlreadyVoted},
		{"Void choice", v2, domain.VoteVoid, domain.ErrInvalidArgument},
		{"Non validator", tenant2, domain.VoteApprove, domain.ErrUnauthorized},
		{"Landlord party", domain.Caller{AccountID: landlord.AccountID, Role: domain.RoleValidator}, domain.VoteReject, domain.ErrUnauthorized},
		{"Tenant party", domain.Caller{AccountID: tenant.AccountID, Role: domain.RoleValidator}, domain.VoteApprove, domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.core.Disputes.Vote(f.ctx, tt.caller, f.dispute.ID, tt.choice)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("Unknown dispute", func(t *testing.T) {
		err := f.core.Disputes.Vote(f.ctx, v2, 99, domain.VoteApprove)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Voting closed", func(t *testing.T) {
		f.advance(7 * 24 * time.Hour)
		err := f.core.Disputes.Vote(f.ctx, v2, f.dispute.ID, domain.VoteApprove)
		assert.ErrorIs(t, err, domain.ErrVotingClosed)
		assert.Equal(t, int64(100), f.balance(t, v2))
	})
	f.assertConserved(t)
}

func TestDisputeEngine_ResolveDrawWithoutVotes(t *testing.T) {
	f := newDisputeFixture(t)
	before := f.balance(t, tenant)

	d, err := f.core.Disputes.Resolve(f.ctx, admin, f.dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusDraw, d.Status)
	require.NotNil(t, d.ResolvedAt)
	assert.Equal(t, before+50, f.balance(t, tenant))

	a, err := f.core.Marketplace.GetApplication(f.ctx, admin, f.property.ID, f.application.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusCompleted, a.Status)
	f.assertConserved(t)
}

func TestDisputeEngine_ResolveApproved(t *testing.T) {
	f := newDisputeFixture(t)
	v3Before := f.balance(t, v3)
	f.vote(t, v1, domain.VoteApprove)
	f.vote(t, v2, domain.VoteApprove)
	f.vote(t, v3, domain.VoteReject)

	v1After, v2After := f.balance(t, v1), f.balance(t, v2)
	tenantBefore, landlordBefore := f.balance(t, tenant), f.balance(t, landlord)

	d, err := f.core.Disputes.Resolve(f.ctx, admin, f.dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusApproved, d.Status)

	// pool of 53 split two ways, one credit left over
	assert.Equal(t, v1After+26, f.balance(t, v1))
	assert.Equal(t, v2After+26, f.balance(t, v2))
	assert.Equal(t, v3Before-1, f.balance(t, v3))
	assert.Equal(t, tenantBefore+25, f.balance(t, tenant))
	assert.Equal(t, landlordBefore, f.balance(t, landlord))
	treasury, err := f.core.Ledger.BalanceOf(f.ctx, domain.DefaultFeeSchedule().TreasuryAccount)
	require.NoError(t, err)
	assert.Equal(t, int64(1), treasury)

	pool, err := f.core.Vault.PoolBalance(f.ctx, domain.DisputePool(f.dispute.ID))
	require.NoError(t, err)
	assert.Zero(t, pool)

	a, err := f.core.Marketplace.GetApplication(f.ctx, admin, f.property.ID, f.application.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusCompleted, a.Status)

	t.Run("No second dispute", func(t *testing.T) {
		_, err := f.core.Disputes.CreateDispute(f.ctx, tenant, f.property.ID, f.application.ID, domain.DisputeTypeOther, "")
		assert.ErrorIs(t, err, domain.ErrDuplicateDispute)
	})

	t.Run("Resolved disputes are closed", func(t *testing.T) {
		_, err := f.core.Disputes.Resolve(f.ctx, admin, f.dispute.ID)
		assert.ErrorIs(t, err, domain.ErrDisputeNotPending)
		err = f.core.Disputes.Vote(f.ctx, v4, f.dispute.ID, domain.VoteApprove)
		assert.ErrorIs(t, err, domain.ErrDisputeNotPending)
	})

	t.Run("Unlist refunds what remains", func(t *testing.T) {
		require.NoError(t, f.core.Marketplace.MoveOut(f.ctx, tenant, f.property.ID, f.application.ID))
		refunded, err := f.core.Properties.Unlist(f.ctx, landlord, f.property.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(25), refunded)
	})
	f.assertConserved(t)
}

func TestDisputeEngine_ResolveRejected(t *testing.T) {
	f := newDisputeFixture(t)
	f.vote(t, v1, domain.VoteReject)
	f.vote(t, v2, domain.VoteReject)
	f.vote(t, v3, domain.VoteApprove)
	tenantBefore := f.balance(t, tenant)
	v1After := f.balance(t, v1)

	d, err := f.core.Disputes.Resolve(f.ctx, admin, f.dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusRejected, d.Status)
	assert.Equal(t, tenantBefore, f.balance(t, tenant))
	assert.Equal(t, v1After+26, f.balance(t, v1))

	protection, err := f.core.Vault.PoolBalance(f.ctx, domain.ProtectionPool(f.property.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(50), protection)
	f.assertConserved(t)
}

func TestDisputeEngine_ResolveReadiness(t *testing.T) {
	t.Run("Not ready", func(t *testing.T) {
		f := newDisputeFixture(t)
		f.vote(t, v1, domain.VoteApprove)
		_, err := f.core.Disputes.Resolve(f.ctx, tenant, f.dispute.ID)
		assert.ErrorIs(t, err, domain.ErrResolutionNotReady)
	})

	t.Run("Quorum lets anyone resolve", func(t *testing.T) {
		f := newDisputeFixture(t)
		f.vote(t, v1, domain.VoteApprove)
		f.vote(t, v2, domain.VoteApprove)
		f.vote(t, v3, domain.VoteApprove)
		f.vote(t, v4, domain.VoteReject)

		d, err := f.core.Disputes.Resolve(f.ctx, tenant, f.dispute.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DisputeStatusApproved, d.Status)
		f.assertConserved(t)
	})

	t.Run("Tie is a draw", func(t *testing.T) {
		f := newDisputeFixture(t)
		f.vote(t, v1, domain.VoteApprove)
		f.vote(t, v2, domain.VoteReject)
		v1Before := f.balance(t, v1)

		d, err := f.core.Disputes.Resolve(f.ctx, admin, f.dispute.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DisputeStatusDraw, d.Status)
		assert.Equal(t, v1Before+1, f.balance(t, v1))
		f.assertConserved(t)
	})
}

func TestDisputeEngine_ResolveExpired(t *testing.T) {
	f := newDisputeFixture(t)
	f.vote(t, v1, domain.VoteApprove)
	f.vote(t, v2, domain.VoteApprove)

	resolved, err := f.core.Disputes.ResolveExpired(f.ctx, domain.SystemCaller())
	require.NoError(t, err)
	assert.Empty(t, resolved)

	f.advance(7 * 24 * time.Hour)
	tenantBefore := f.balance(t, tenant)

	resolved, err = f.core.Disputes.ResolveExpired(f.ctx, domain.SystemCaller())
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	// window ran out short of quorum
	assert.Equal(t, domain.DisputeStatusDraw, resolved[0].Status)
	assert.Equal(t, tenantBefore+50, f.balance(t, tenant))
	assert.Equal(t, int64(100), f.balance(t, v1))

	byTenant, err := f.core.Disputes.ListByTenant(f.ctx, tenant.AccountID)
	require.NoError(t, err)
	assert.Len(t, byTenant, 1)
	byLandlord, err := f.core.Disputes.ListByLandlord(f.ctx, landlord.AccountID)
	require.NoError(t, err)
	assert.Len(t, byLandlord, 1)
	f.assertConserved(t)
}
