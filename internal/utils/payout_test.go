package utils

import (
	"testing"

	"rentchain-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func votes(choices ...domain.VoteChoice) *domain.Dispute {
	d := &domain.Dispute{ID: 1}
	for i, c := range choices {
		d.Votes = append(d.Votes, domain.Vote{DisputeID: 1, Validator: string(rune('a' + i)), Choice: c})
	}
	return d
}

func TestValidatorShare(t *testing.T) {
	t.Run("Even split", func(t *testing.T) {
		share, rem := ValidatorShare(54, 2)
		assert.Equal(t, int64(27), share)
		assert.Equal(t, int64(0), rem)
	})

	t.Run("Remainder", func(t *testing.T) {
		share, rem := ValidatorShare(53, 2)
		assert.Equal(t, int64(26), share)
		assert.Equal(t, int64(1), rem)
	})

	t.Run("No winners", func(t *testing.T) {
		share, rem := ValidatorShare(53, 0)
		assert.Equal(t, int64(0), share)
		assert.Equal(t, int64(53), rem)
	})
}

func TestTenantReward(t *testing.T) {
	assert.Equal(t, int64(25), TenantReward(50, 2, 50))
	assert.Equal(t, int64(50), TenantReward(50, 1, 50))
	assert.Equal(t, int64(16), TenantReward(50, 3, 50))
	assert.Equal(t, int64(10), TenantReward(50, 2, 10), "capped at the remaining pool")
	assert.Equal(t, int64(50), TenantReward(50, 0, 50), "zero capacity treated as one")
}

func TestSettleDispute(t *testing.T) {
	fees := domain.DefaultFeeSchedule()

	t.Run("Approved two of three", func(t *testing.T) {
		d := votes(domain.VoteApprove, domain.VoteApprove, domain.VoteReject)
		s := SettleDispute(d, domain.DisputeStatusApproved, fees, 2, 50)

		assert.Equal(t, []Payout{{AccountID: "a", Amount: 26}, {AccountID: "b", Amount: 26}}, s.ValidatorPayouts)
		assert.Equal(t, int64(25), s.TenantReward)
		assert.Equal(t, int64(1), s.Treasury)
		assert.Equal(t, int64(0), s.TenantRefund)
		assert.Equal(t, StakePool(fees, 3), s.Total())
	})

	t.Run("Rejected", func(t *testing.T) {
		d := votes(domain.VoteReject, domain.VoteApprove, domain.VoteReject, domain.VoteReject)
		s := SettleDispute(d, domain.DisputeStatusRejected, fees, 2, 50)

		assert.Len(t, s.ValidatorPayouts, 3)
		assert.Equal(t, int64(18), s.ValidatorPayouts[0].Amount)
		assert.Equal(t, int64(0), s.TenantReward)
		assert.Equal(t, StakePool(fees, 4), s.Total())
	})

	t.Run("Draw refunds everyone", func(t *testing.T) {
		d := votes(domain.VoteApprove, domain.VoteReject)
		s := SettleDispute(d, domain.DisputeStatusDraw, fees, 2, 50)

		assert.Equal(t, fees.VoterReward, s.TenantRefund)
		assert.Equal(t, []Payout{{AccountID: "a", Amount: 1}, {AccountID: "b", Amount: 1}}, s.ValidatorPayouts)
		assert.Equal(t, int64(0), s.TenantReward)
		assert.Equal(t, StakePool(fees, 2), s.Total())
	})

	t.Run("Draw with no voters", func(t *testing.T) {
		s := SettleDispute(votes(), domain.DisputeStatusDraw, fees, 2, 50)
		assert.Empty(t, s.ValidatorPayouts)
		assert.Equal(t, fees.VoterReward, s.Total())
	})
}
