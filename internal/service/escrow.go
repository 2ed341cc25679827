package service

import (
	"context"
	"fmt"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository"
	"rentchain-backend/internal/utils"
)

// EscrowVault holds credits on behalf of the marketplace and the dispute
// engine. Every pay-in and pay-out goes through the CreditLedger.
type EscrowVault struct {
	rt     *runner
	ledger *CreditLedger
	fees   domain.FeeSchedule
}

func (v *EscrowVault) FeeSchedule() domain.FeeSchedule { return v.fees }
func (v *EscrowVault) ProtectionFee() int64            { return v.fees.ProtectionFee }
func (v *EscrowVault) VoterReward() int64              { return v.fees.VoterReward }
func (v *EscrowVault) VotePrice() int64                { return v.fees.VotePrice }

func (v *EscrowVault) PoolBalance(ctx context.Context, key domain.PoolKey) (int64, error) {
	var balance int64
	err := v.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		balance, err = tx.Escrow().GetPool(ctx, key)
		return err
	})
	return balance, err
}

func (v *EscrowVault) Pools(ctx context.Context) ([]domain.EscrowPool, error) {
	var pools []domain.EscrowPool
	err := v.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		pools, err = tx.Escrow().ListPools(ctx)
		return err
	})
	return pools, err
}

func (v *EscrowVault) TotalEscrowed(ctx context.Context) (int64, error) {
	pools, err := v.Pools(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, p := range pools {
		total += p.Balance
	}
	return total, nil
}

func refsOf(key domain.PoolKey) refs {
	switch key.Purpose {
	case domain.PoolDispute:
		return refs{disputeID: key.RefA}
	case domain.PoolProtectionFee:
		return refs{propertyID: key.RefA}
	}
	return refs{propertyID: key.RefA, applicationID: key.RefB}
}

func (v *EscrowVault) payIn(ctx context.Context, tx repository.Tx, j *journal, account string, key domain.PoolKey, amount int64, description string) (int64, error) {
	if amount == 0 {
		return 0, nil
	}
	id, err := v.ledger.debit(ctx, tx, posting{
		account:     account,
		amount:      amount,
		kind:        domain.TransactionTypeEscrowIn,
		pool:        key.Purpose,
		refs:        refsOf(key),
		description: description,
	})
	if err != nil {
		return 0, err
	}
	balance, err := tx.Escrow().GetPool(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := tx.Escrow().SetPool(ctx, key, balance+amount); err != nil {
		return 0, err
	}
	j.flow(key.Purpose, "in", amount)
	return id, nil
}

func (v *EscrowVault) payOut(ctx context.Context, tx repository.Tx, j *journal, key domain.PoolKey, account string, amount int64, description string) error {
	if amount == 0 {
		return nil
	}
	balance, err := tx.Escrow().GetPool(ctx, key)
	if err != nil {
		return err
	}
	if amount < 0 || amount > balance {
		return domain.Errorf(domain.KindInvariantViolation, "pool %s/%d/%d holds %d, cannot pay out %d", key.Purpose, key.RefA, key.RefB, balance, amount)
	}
	if err := tx.Escrow().SetPool(ctx, key, balance-amount); err != nil {
		return err
	}
	if _, err := v.ledger.credit(ctx, tx, posting{
		account:     account,
		amount:      amount,
		kind:        domain.TransactionTypeEscrowOut,
		pool:        key.Purpose,
		refs:        refsOf(key),
		description: description,
	}); err != nil {
		return err
	}
	j.flow(key.Purpose, "out", amount)
	return nil
}

func (v *EscrowVault) collectProtectionFee(ctx context.Context, tx repository.Tx, j *journal, landlord string, propertyID int64) (int64, error) {
	return v.payIn(ctx, tx, j, landlord, domain.ProtectionPool(propertyID), v.fees.ProtectionFee, "protection fee")
}

// refundProtectionFee returns what is left of the property's protection pool
// after any tenant rewards paid from it.
func (v *EscrowVault) refundProtectionFee(ctx context.Context, tx repository.Tx, j *journal, landlord string, propertyID int64) (int64, error) {
	key := domain.ProtectionPool(propertyID)
	remaining, err := tx.Escrow().GetPool(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := v.payOut(ctx, tx, j, key, landlord, remaining, "protection fee refund"); err != nil {
		return 0, err
	}
	return remaining, nil
}

func (v *EscrowVault) collectDeposit(ctx context.Context, tx repository.Tx, j *journal, tenant string, propertyID, applicationID, amount int64) (int64, error) {
	return v.payIn(ctx, tx, j, tenant, domain.DepositPool(propertyID, applicationID), amount, "application deposit")
}

func (v *EscrowVault) refundDeposit(ctx context.Context, tx repository.Tx, j *journal, tenant string, propertyID, applicationID, amount int64) error {
	return v.payOut(ctx, tx, j, domain.DepositPool(propertyID, applicationID), tenant, amount, "deposit refund")
}

func (v *EscrowVault) releaseDepositToLandlord(ctx context.Context, tx repository.Tx, j *journal, landlord string, propertyID, applicationID, amount int64) error {
	return v.payOut(ctx, tx, j, domain.DepositPool(propertyID, applicationID), landlord, amount, "deposit released to landlord")
}

// fundDepositRefund moves the deposit back from the landlord into escrow at
// move-out so it can be refunded to the tenant.
func (v *EscrowVault) fundDepositRefund(ctx context.Context, tx repository.Tx, j *journal, landlord string, propertyID, applicationID, amount int64) error {
	_, err := v.payIn(ctx, tx, j, landlord, domain.DepositPool(propertyID, applicationID), amount, "deposit returned for move-out")
	return err
}

func (v *EscrowVault) collectRent(ctx context.Context, tx repository.Tx, j *journal, tenant string, propertyID, applicationID, amount int64) (int64, error) {
	return v.payIn(ctx, tx, j, tenant, domain.RentPool(propertyID, applicationID), amount, "monthly rent")
}

// releaseRent pays everything held for the application to the landlord.
func (v *EscrowVault) releaseRent(ctx context.Context, tx repository.Tx, j *journal, landlord string, propertyID, applicationID int64) (int64, error) {
	key := domain.RentPool(propertyID, applicationID)
	held, err := tx.Escrow().GetPool(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := v.payOut(ctx, tx, j, key, landlord, held, "rent released to landlord"); err != nil {
		return 0, err
	}
	return held, nil
}

func (v *EscrowVault) collectVoterReward(ctx context.Context, tx repository.Tx, j *journal, tenant string, disputeID int64) error {
	_, err := v.payIn(ctx, tx, j, tenant, domain.DisputePool(disputeID), v.fees.VoterReward, "dispute stake")
	return err
}

func (v *EscrowVault) collectVoteStake(ctx context.Context, tx repository.Tx, j *journal, validator string, disputeID int64) error {
	_, err := v.payIn(ctx, tx, j, validator, domain.DisputePool(disputeID), v.fees.VotePrice, "vote stake")
	return err
}

// distributeDisputeOutcome settles a resolved dispute. The dispute pool must
// be drained exactly; anything else means a stake went missing.
func (v *EscrowVault) distributeDisputeOutcome(ctx context.Context, tx repository.Tx, j *journal, d *domain.Dispute, s utils.DisputeSettlement) error {
	key := domain.DisputePool(d.ID)
	held, err := tx.Escrow().GetPool(ctx, key)
	if err != nil {
		return err
	}
	if held != s.Total() {
		return domain.Errorf(domain.KindInvariantViolation, "dispute %d pool holds %d but settlement pays %d", d.ID, held, s.Total())
	}

	for _, p := range s.ValidatorPayouts {
		if err := v.payOut(ctx, tx, j, key, p.AccountID, p.Amount, fmt.Sprintf("dispute %d validator payout", d.ID)); err != nil {
			return err
		}
	}
	if err := v.payOut(ctx, tx, j, key, d.Tenant, s.TenantRefund, fmt.Sprintf("dispute %d stake refund", d.ID)); err != nil {
		return err
	}
	if err := v.payOut(ctx, tx, j, key, v.fees.TreasuryAccount, s.Treasury, fmt.Sprintf("dispute %d rounding remainder", d.ID)); err != nil {
		return err
	}
	return v.payOut(ctx, tx, j, domain.ProtectionPool(d.PropertyID), d.Tenant, s.TenantReward, fmt.Sprintf("dispute %d tenant reward", d.ID))
}
