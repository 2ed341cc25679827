package service

import (
	"context"
	"time"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository"
)

// PropertyRegistry owns the property table.
type PropertyRegistry struct {
	rt    *runner
	vault *EscrowVault
}

func (r *PropertyRegistry) AddProperty(ctx context.Context, caller domain.Caller, fields domain.PropertyFields) (*domain.Property, error) {
	var created *domain.Property
	err := r.rt.run(ctx, "PropertyRegistry.AddProperty", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		if !caller.Is(domain.RoleLandlord) {
			return domain.Errorf(domain.KindUnauthorized, "only landlords may add properties")
		}
		if err := fields.Validate(); err != nil {
			return err
		}
		p := &domain.Property{Landlord: caller.AccountID, CreatedAt: j.now, UpdatedAt: j.now}
		p.Apply(fields)
		if err := tx.Properties().Create(ctx, p); err != nil {
			return err
		}
		created = p
		j.record(domain.EventPropertyCreated, refs{propertyID: p.ID}, map[string]string{"landlord": p.Landlord})
		return nil
	})
	return created, err
}

func (r *PropertyRegistry) UpdateProperty(ctx context.Context, caller domain.Caller, id int64, fields domain.PropertyFields) (*domain.Property, error) {
	var updated *domain.Property
	err := r.rt.run(ctx, "PropertyRegistry.UpdateProperty", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		p, err := r.ownedBy(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if err := fields.Validate(); err != nil {
			return err
		}
		if !p.Mutable() {
			return domain.Errorf(domain.KindPropertyLocked, "property %d is listed or has outstanding applications", id)
		}
		p.Apply(fields)
		p.UpdatedAt = j.now
		if err := tx.Properties().Update(ctx, p); err != nil {
			return err
		}
		updated = p
		j.record(domain.EventPropertyUpdated, refs{propertyID: p.ID}, map[string]string{"landlord": p.Landlord})
		return nil
	})
	return updated, err
}

func (r *PropertyRegistry) DeleteProperty(ctx context.Context, caller domain.Caller, id int64) error {
	return r.rt.run(ctx, "PropertyRegistry.DeleteProperty", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		p, err := r.ownedBy(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if !p.Mutable() {
			return domain.Errorf(domain.KindPropertyLocked, "property %d is listed or has outstanding applications", id)
		}
		if err := tx.Properties().Delete(ctx, id); err != nil {
			return err
		}
		j.record(domain.EventPropertyDeleted, refs{propertyID: id}, map[string]string{"landlord": p.Landlord})
		return nil
	})
}

// List stakes the protection fee and opens the property to applications at
// the given per-tenant deposit.
func (r *PropertyRegistry) List(ctx context.Context, caller domain.Caller, id int64, depositFee int64) (*domain.Property, error) {
	var listed *domain.Property
	err := r.rt.run(ctx, "PropertyRegistry.List", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		p, err := r.ownedBy(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if depositFee < 0 {
			return domain.Errorf(domain.KindInvalidArgument, "deposit fee must not be negative")
		}
		if p.IsListed {
			return domain.Errorf(domain.KindPropertyLocked, "property %d is already listed", id)
		}

		paymentID, err := r.vault.collectProtectionFee(ctx, tx, j, caller.AccountID, id)
		if err != nil {
			return err
		}
		p.IsListed = true
		p.DepositFee = depositFee
		p.PaymentID = paymentID
		p.UpdatedAt = j.now
		if err := tx.Properties().Update(ctx, p); err != nil {
			return err
		}
		listed = p
		j.record(domain.EventPropertyListed, refs{propertyID: id}, map[string]string{
			"landlord":    p.Landlord,
			"deposit_fee": itoa(depositFee),
		})
		return nil
	})
	return listed, err
}

// Unlist closes the property and returns the refunded protection fee.
func (r *PropertyRegistry) Unlist(ctx context.Context, caller domain.Caller, id int64) (int64, error) {
	var refunded int64
	err := r.rt.run(ctx, "PropertyRegistry.Unlist", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		p, err := r.ownedBy(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if !p.IsListed {
			return domain.Errorf(domain.KindNotListed, "property %d is not listed", id)
		}
		if p.OutstandingApplications > 0 {
			return domain.Errorf(domain.KindPropertyNotVacant, "property %d has %d outstanding applications", id, p.OutstandingApplications)
		}

		refunded, err = r.vault.refundProtectionFee(ctx, tx, j, p.Landlord, id)
		if err != nil {
			return err
		}
		p.IsListed = false
		p.UpdatedAt = j.now
		if err := tx.Properties().Update(ctx, p); err != nil {
			return err
		}
		j.record(domain.EventPropertyUnlisted, refs{propertyID: id}, map[string]string{
			"landlord": p.Landlord,
			"refunded": itoa(refunded),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return refunded, nil
}

// UpdateDepositFee changes the deposit charged to future applicants. Existing
// applications keep the deposit they paid.
func (r *PropertyRegistry) UpdateDepositFee(ctx context.Context, caller domain.Caller, id int64, depositFee int64) (*domain.Property, error) {
	var updated *domain.Property
	err := r.rt.run(ctx, "PropertyRegistry.UpdateDepositFee", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		p, err := r.ownedBy(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if depositFee < 0 {
			return domain.Errorf(domain.KindInvalidArgument, "deposit fee must not be negative")
		}
		if !p.IsListed {
			return domain.Errorf(domain.KindNotListed, "property %d is not listed", id)
		}
		previous := p.DepositFee
		p.DepositFee = depositFee
		p.UpdatedAt = j.now
		if err := tx.Properties().Update(ctx, p); err != nil {
			return err
		}
		updated = p
		j.record(domain.EventDepositFeeUpdated, refs{propertyID: id}, map[string]string{
			"landlord": p.Landlord,
			"previous": itoa(previous),
			"current":  itoa(depositFee),
		})
		return nil
	})
	return updated, err
}

func (r *PropertyRegistry) GetProperty(ctx context.Context, id int64) (*domain.Property, error) {
	var p *domain.Property
	err := r.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		p, err = tx.Properties().GetByID(ctx, id)
		return err
	})
	return p, err
}

func (r *PropertyRegistry) ListByLandlord(ctx context.Context, landlord string, filter domain.ListingFilter) ([]domain.Property, error) {
	var props []domain.Property
	err := r.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		props, err = tx.Properties().ListByLandlord(ctx, landlord, filter)
		return err
	})
	return props, err
}

func (r *PropertyRegistry) ListListed(ctx context.Context) ([]domain.Property, error) {
	var props []domain.Property
	err := r.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		props, err = tx.Properties().ListListed(ctx)
		return err
	})
	return props, err
}

func (r *PropertyRegistry) ownedBy(ctx context.Context, tx repository.Tx, caller domain.Caller, id int64) (*domain.Property, error) {
	p, err := tx.Properties().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Is(domain.RoleLandlord) || p.Landlord != caller.AccountID {
		return nil, domain.Errorf(domain.KindUnauthorized, "property %d belongs to another landlord", id)
	}
	return p, nil
}

// attachApplication reserves the next application id on the property and
// counts it as outstanding.
func (r *PropertyRegistry) attachApplication(ctx context.Context, tx repository.Tx, p *domain.Property, now time.Time) (int64, error) {
	p.ApplicationSeq++
	p.OutstandingApplications++
	p.UpdatedAt = now
	if err := tx.Properties().Update(ctx, p); err != nil {
		return 0, err
	}
	return p.ApplicationSeq, nil
}

func (r *PropertyRegistry) detachApplication(ctx context.Context, tx repository.Tx, propertyID int64, now time.Time) error {
	p, err := tx.Properties().GetByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if p.OutstandingApplications <= 0 {
		return domain.Errorf(domain.KindInvariantViolation, "property %d has no outstanding applications", propertyID)
	}
	p.OutstandingApplications--
	p.UpdatedAt = now
	return tx.Properties().Update(ctx, p)
}
