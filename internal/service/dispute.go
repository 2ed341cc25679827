package service

import (
	"context"
	"errors"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/repository"
	"rentchain-backend/internal/utils"
)

// DisputeEngine runs validator voting on tenant disputes and settles the
// stakes once a dispute resolves.
type DisputeEngine struct {
	rt          *runner
	vault       *EscrowVault
	marketplace *RentalMarketplace
	fees        domain.FeeSchedule
}

func disputeAttrs(d *domain.Dispute, a *domain.Application) map[string]string {
	attrs := map[string]string{
		"tenant":       d.Tenant,
		"landlord":     d.Landlord,
		"dispute_type": string(d.Type),
		"status":       string(d.Status),
	}
	if a != nil {
		attrs["contact_name"] = a.Contact.Name
		attrs["contact_email"] = a.Contact.Email
	}
	return attrs
}

func (e *DisputeEngine) CreateDispute(ctx context.Context, caller domain.Caller, propertyID, applicationID int64, disputeType domain.DisputeType, reason string) (*domain.Dispute, error) {
	var created *domain.Dispute
	err := e.rt.run(ctx, "DisputeEngine.CreateDispute", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		a, err := e.marketplace.asTenant(ctx, tx, caller, propertyID, applicationID)
		if err != nil {
			return err
		}
		if !disputeType.Valid() {
			return domain.Errorf(domain.KindInvalidArgument, "unknown dispute type %q", disputeType)
		}
		if a.DisputeID != 0 {
			return domain.Errorf(domain.KindDuplicateDispute, "tenant has already made dispute %d on application %d/%d", a.DisputeID, propertyID, applicationID)
		}
		if a.Status != domain.ApplicationStatusOngoing && a.Status != domain.ApplicationStatusCompleted {
			return domain.Errorf(domain.KindInvalidApplicationState, "application %d/%d is %s, disputes need an active tenancy", propertyID, applicationID, a.Status)
		}

		d := &domain.Dispute{
			PropertyID:    propertyID,
			ApplicationID: applicationID,
			Tenant:        a.Tenant,
			Landlord:      a.Landlord,
			Type:          disputeType,
			Reason:        reason,
			StartTime:     j.now,
			EndTime:       j.now.Add(e.fees.DisputeWindow),
			Status:        domain.DisputeStatusPending,
			Votes:         []domain.Vote{},
		}
		if err := tx.Disputes().Create(ctx, d); err != nil {
			return err
		}
		if err := e.vault.collectVoterReward(ctx, tx, j, a.Tenant, d.ID); err != nil {
			return err
		}
		if err := e.marketplace.markDisputed(ctx, tx, a, d.ID, j); err != nil {
			return err
		}
		created = d
		j.record(domain.EventDisputeCreated, refs{propertyID: propertyID, applicationID: applicationID, disputeID: d.ID}, disputeAttrs(d, a))
		return nil
	})
	return created, err
}

func (e *DisputeEngine) Vote(ctx context.Context, caller domain.Caller, disputeID int64, choice domain.VoteChoice) error {
	return e.rt.run(ctx, "DisputeEngine.Vote", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		if !caller.Is(domain.RoleValidator) {
			return domain.Errorf(domain.KindUnauthorized, "only validators may vote")
		}
		if choice != domain.VoteApprove && choice != domain.VoteReject {
			return domain.Errorf(domain.KindInvalidArgument, "vote must approve or reject, got %q", choice)
		}
		d, err := tx.Disputes().GetByID(ctx, disputeID)
		if err != nil {
			return err
		}
		if d.Status != domain.DisputeStatusPending {
			return domain.Errorf(domain.KindDisputeNotPending, "dispute %d is %s", disputeID, d.Status)
		}
		if caller.AccountID == d.Tenant || caller.AccountID == d.Landlord {
			return domain.Errorf(domain.KindUnauthorized, "parties to dispute %d cannot vote on it", disputeID)
		}
		if d.HasVoted(caller.AccountID) {
			return domain.Errorf(domain.KindAlreadyVoted, "validator %s already voted on dispute %d", caller.AccountID, disputeID)
		}
		if d.Expired(j.now) {
			return domain.Errorf(domain.KindVotingClosed, "voting on dispute %d closed at %s", disputeID, d.EndTime.Format("2006-01-02T15:04:05Z"))
		}

		if err := e.vault.collectVoteStake(ctx, tx, j, caller.AccountID, disputeID); err != nil {
			return err
		}
		if err := tx.Disputes().AddVote(ctx, &domain.Vote{DisputeID: disputeID, Validator: caller.AccountID, Choice: choice, CastAt: j.now}); err != nil {
			return err
		}
		attrs := disputeAttrs(d, nil)
		attrs["validator"] = caller.AccountID
		attrs["choice"] = string(choice)
		attrs["votes"] = itoa(int64(len(d.Votes) + 1))
		j.record(domain.EventVoteCast, refs{propertyID: d.PropertyID, applicationID: d.ApplicationID, disputeID: disputeID}, attrs)
		return nil
	})
}

// Resolve settles a pending dispute. Admins may trigger it at any time and
// get the current tally. Anyone else needs quorum, or an elapsed voting
// window, in which case a dispute that never reached quorum is a draw.
func (e *DisputeEngine) Resolve(ctx context.Context, caller domain.Caller, disputeID int64) (*domain.Dispute, error) {
	var resolved *domain.Dispute
	err := e.rt.run(ctx, "DisputeEngine.Resolve", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		d, err := tx.Disputes().GetByID(ctx, disputeID)
		if err != nil {
			return err
		}
		if d.Status != domain.DisputeStatusPending {
			return domain.Errorf(domain.KindDisputeNotPending, "dispute %d is already %s", disputeID, d.Status)
		}

		quorum := len(d.Votes) >= e.fees.MinimumVotes
		var outcome domain.DisputeStatus
		switch {
		case caller.Is(domain.RoleAdmin), quorum:
			outcome = d.Outcome()
		case d.Expired(j.now):
			outcome = domain.DisputeStatusDraw
		default:
			return domain.Errorf(domain.KindResolutionNotReady, "dispute %d has %d of %d votes and closes at %s",
				disputeID, len(d.Votes), e.fees.MinimumVotes, d.EndTime.Format("2006-01-02T15:04:05Z"))
		}

		p, err := tx.Properties().GetByID(ctx, d.PropertyID)
		if err != nil {
			return err
		}
		protection, err := tx.Escrow().GetPool(ctx, domain.ProtectionPool(d.PropertyID))
		if err != nil {
			return err
		}
		settlement := utils.SettleDispute(d, outcome, e.fees, p.TenantCapacity, protection)
		if err := e.vault.distributeDisputeOutcome(ctx, tx, j, d, settlement); err != nil {
			return err
		}

		now := j.now
		d.Status = outcome
		d.ResolvedAt = &now
		if err := tx.Disputes().UpdateStatus(ctx, d); err != nil {
			return err
		}
		a, err := e.marketplace.restoreAfterDispute(ctx, tx, d.PropertyID, d.ApplicationID, j)
		if err != nil {
			return err
		}
		resolved = d

		attrs := disputeAttrs(d, a)
		attrs["outcome"] = string(outcome)
		attrs["votes"] = itoa(int64(len(d.Votes)))
		attrs["tenant_reward"] = itoa(settlement.TenantReward)
		attrs["treasury"] = itoa(settlement.Treasury)
		j.record(domain.EventDisputeResolved, refs{propertyID: d.PropertyID, applicationID: d.ApplicationID, disputeID: d.ID}, attrs)
		return nil
	})
	return resolved, err
}

// ResolveExpired resolves every pending dispute whose voting window has
// elapsed. Failures are logged and collected; the sweep carries on.
func (e *DisputeEngine) ResolveExpired(ctx context.Context, caller domain.Caller) ([]domain.Dispute, error) {
	var expired []domain.Dispute
	err := e.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		expired, err = tx.Disputes().ListPendingEndedBefore(ctx, e.rt.clock())
		return err
	})
	if err != nil {
		return nil, err
	}

	var (
		resolved []domain.Dispute
		errs     []error
	)
	for _, d := range expired {
		r, err := e.Resolve(ctx, caller, d.ID)
		if err != nil {
			logger.Error("Failed to resolve expired dispute", "dispute_id", d.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		resolved = append(resolved, *r)
	}
	return resolved, errors.Join(errs...)
}

func (e *DisputeEngine) GetDispute(ctx context.Context, id int64) (*domain.Dispute, error) {
	var d *domain.Dispute
	err := e.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		d, err = tx.Disputes().GetByID(ctx, id)
		return err
	})
	return d, err
}

func (e *DisputeEngine) ListByTenant(ctx context.Context, tenant string) ([]domain.Dispute, error) {
	return e.list(ctx, func(ctx context.Context, r repository.DisputeRepository) ([]domain.Dispute, error) {
		return r.ListByTenant(ctx, tenant)
	})
}

func (e *DisputeEngine) ListByLandlord(ctx context.Context, landlord string) ([]domain.Dispute, error) {
	return e.list(ctx, func(ctx context.Context, r repository.DisputeRepository) ([]domain.Dispute, error) {
		return r.ListByLandlord(ctx, landlord)
	})
}

func (e *DisputeEngine) ListAll(ctx context.Context) ([]domain.Dispute, error) {
	return e.list(ctx, func(ctx context.Context, r repository.DisputeRepository) ([]domain.Dispute, error) {
		return r.ListAll(ctx)
	})
}

func (e *DisputeEngine) VoterCount(ctx context.Context, id int64) (int, error) {
	d, err := e.GetDispute(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(d.Votes), nil
}

func (e *DisputeEngine) list(ctx context.Context, fn func(context.Context, repository.DisputeRepository) ([]domain.Dispute, error)) ([]domain.Dispute, error) {
	var out []domain.Dispute
	err := e.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = fn(ctx, tx.Disputes())
		return err
	})
	return out, err
}
