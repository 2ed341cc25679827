package domain

import "time"

type PoolPurpose string

const (
	PoolProtectionFee PoolPurpose = "PROTECTION_FEE" // keyed by property
	PoolDeposit       PoolPurpose = "DEPOSIT"        // keyed by property + application
	PoolRent          PoolPurpose = "RENT"           // keyed by property + application
	PoolDispute       PoolPurpose = "DISPUTE"        // keyed by dispute
)

// PoolKey identifies one escrow bucket. RefB is zero for pools keyed by a
// single id.
type PoolKey struct {
	Purpose PoolPurpose `json:"purpose"`
	RefA    int64       `json:"ref_a"`
	RefB    int64       `json:"ref_b"`
}

func ProtectionPool(propertyID int64) PoolKey {
	return PoolKey{Purpose: PoolProtectionFee, RefA: propertyID}
}

func DepositPool(propertyID, applicationID int64) PoolKey {
	return PoolKey{Purpose: PoolDeposit, RefA: propertyID, RefB: applicationID}
}

func RentPool(propertyID, applicationID int64) PoolKey {
	return PoolKey{Purpose: PoolRent, RefA: propertyID, RefB: applicationID}
}

func DisputePool(disputeID int64) PoolKey {
	return PoolKey{Purpose: PoolDispute, RefA: disputeID}
}

type EscrowPool struct {
	Key     PoolKey `json:"key"`
	Balance int64   `json:"balance"`
}

// FeeSchedule holds the platform-wide constants fixed at deployment.
type FeeSchedule struct {
	ProtectionFee        int64         `json:"protection_fee"`
	VoterReward          int64         `json:"voter_reward"`
	VotePrice            int64         `json:"vote_price"`
	MinimumVotes         int           `json:"minimum_votes"`
	DisputeWindow        time.Duration `json:"dispute_window"`
	CreditsPerNativeUnit int64         `json:"credits_per_native_unit"`
	TreasuryAccount      string        `json:"treasury_account"`
}

// DefaultFeeSchedule mirrors the values the platform was deployed with.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		ProtectionFee:        50,
		VoterReward:          50,
		VotePrice:            1,
		MinimumVotes:         4,
		DisputeWindow:        7 * 24 * time.Hour,
		CreditsPerNativeUnit: 100,
		TreasuryAccount:      "treasury",
	}
}
