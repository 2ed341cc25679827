package utils

import "rentchain-backend/internal/domain"

// Payout is a single credit to an account.
type Payout struct {
	AccountID string
	Amount    int64
}

// DisputeSettlement describes where every credit staked on a dispute goes
// once the dispute is resolved with the given outcome.
type DisputeSettlement struct {
	Outcome          domain.DisputeStatus
	ValidatorPayouts []Payout
	TenantRefund     int64 // tenant's own stake coming back (draw only)
	TenantReward     int64 // drawn from the landlord's protection pool (approved only)
	Treasury         int64 // rounding remainder of the validator split
}

// StakePool is the amount escrowed for a dispute with n votes.
func StakePool(fees domain.FeeSchedule, votes int) int64 {
	return fees.VoterReward + int64(votes)*fees.VotePrice
}

// ValidatorShare splits the stake pool between winners, returning the
// per-winner share and the integer-division remainder.
func ValidatorShare(pool int64, winners int) (share, remainder int64) {
	if winners <= 0 {
		return 0, pool
	}
	share = pool / int64(winners)
	return share, pool - share*int64(winners)
}

// TenantReward is the protection fee divided across the tenant capacity,
// capped at what is left in the protection pool.
func TenantReward(protectionFee int64, capacity int32, protectionPool int64) int64 {
	if capacity < 1 {
		capacity = 1
	}
	reward := protectionFee / int64(capacity)
	if reward > protectionPool {
		reward = protectionPool
	}
	if reward < 0 {
		return 0
	}
	return reward
}

// SettleDispute computes the payouts for a dispute resolved with outcome.
func SettleDispute(d *domain.Dispute, outcome domain.DisputeStatus, fees domain.FeeSchedule, capacity int32, protectionPool int64) DisputeSettlement {
	s := DisputeSettlement{Outcome: outcome}

	if outcome == domain.DisputeStatusDraw {
		s.TenantRefund = fees.VoterReward
		for _, v := range d.Votes {
			s.ValidatorPayouts = append(s.ValidatorPayouts, Payout{AccountID: v.Validator, Amount: fees.VotePrice})
		}
		return s
	}

	winning := domain.VoteApprove
	if outcome == domain.DisputeStatusRejected {
		winning = domain.VoteReject
	}
	var winners []string
	for _, v := range d.Votes {
		if v.Choice == winning {
			winners = append(winners, v.Validator)
		}
	}

	share, remainder := ValidatorShare(StakePool(fees, len(d.Votes)), len(winners))
	for _, w := range winners {
		s.ValidatorPayouts = append(s.ValidatorPayouts, Payout{AccountID: w, Amount: share})
	}
	s.Treasury = remainder

	if outcome == domain.DisputeStatusApproved {
		s.TenantReward = TenantReward(fees.ProtectionFee, capacity, protectionPool)
	}
	return s
}

// Total is the amount paid out of the dispute pool, excluding the tenant
// reward which comes from the protection pool.
func (s DisputeSettlement) Total() int64 {
	total := s.TenantRefund + s.Treasury
	for _, p := range s.ValidatorPayouts {
		total += p.Amount
	}
	return total
}
