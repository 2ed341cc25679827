package service

import (
	"context"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository"
)

// RentalMarketplace drives the tenant application lifecycle.
type RentalMarketplace struct {
	rt         *runner
	vault      *EscrowVault
	properties *PropertyRegistry
}

func applicationAttrs(a *domain.Application) map[string]string {
	return map[string]string{
		"tenant":        a.Tenant,
		"landlord":      a.Landlord,
		"contact_name":  a.Contact.Name,
		"contact_email": a.Contact.Email,
		"status":        string(a.Status),
	}
}

func appRefs(a *domain.Application) refs {
	return refs{propertyID: a.PropertyID, applicationID: a.ID}
}

func (m *RentalMarketplace) Apply(ctx context.Context, caller domain.Caller, propertyID int64, contact domain.ContactInfo, description string) (*domain.Application, error) {
	var created *domain.Application
	err := m.rt.run(ctx, "RentalMarketplace.Apply", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		if !caller.Is(domain.RoleTenant) {
			return domain.Errorf(domain.KindUnauthorized, "only tenants may apply")
		}
		p, err := tx.Properties().GetByID(ctx, propertyID)
		if err != nil {
			return err
		}
		if p.Landlord == caller.AccountID {
			return domain.Errorf(domain.KindUnauthorized, "landlords cannot apply to their own property")
		}
		if !p.IsListed {
			return domain.Errorf(domain.KindNotListed, "property %d is not listed", propertyID)
		}
		existing, err := tx.Applications().FindByTenant(ctx, propertyID, caller.AccountID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.Errorf(domain.KindDuplicateApplication, "tenant %s already holds application %d on property %d", caller.AccountID, existing.ID, propertyID)
		}

		applicationID, err := m.properties.attachApplication(ctx, tx, p, j.now)
		if err != nil {
			return err
		}
		if _, err := m.vault.collectDeposit(ctx, tx, j, caller.AccountID, propertyID, applicationID, p.DepositFee); err != nil {
			return err
		}

		a := &domain.Application{
			PropertyID:    propertyID,
			ID:            applicationID,
			Tenant:        caller.AccountID,
			Landlord:      p.Landlord,
			Contact:       contact,
			Description:   description,
			DepositAmount: p.DepositFee,
			Status:        domain.ApplicationStatusPending,
			PaymentIDs:    []int64{},
			CreatedAt:     j.now,
			UpdatedAt:     j.now,
		}
		if err := tx.Applications().Create(ctx, a); err != nil {
			return err
		}
		created = a
		j.record(domain.EventApplicationSubmitted, appRefs(a), applicationAttrs(a))
		return nil
	})
	return created, err
}

func (m *RentalMarketplace) AcceptApplication(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error) {
	var accepted *domain.Application
	err := m.rt.run(ctx, "RentalMarketplace.AcceptApplication", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		a, err := m.asLandlord(ctx, tx, caller, propertyID, applicationID)
		if err != nil {
			return err
		}
		if a.Status != domain.ApplicationStatusPending {
			return domain.Errorf(domain.KindInvalidApplicationState, "application %d/%d is %s, not PENDING", propertyID, applicationID, a.Status)
		}
		p, err := tx.Properties().GetByID(ctx, propertyID)
		if err != nil {
			return err
		}
		tenants, err := m.acceptedCount(ctx, tx, propertyID)
		if err != nil {
			return err
		}
		if tenants >= p.TenantCapacity {
			return domain.Errorf(domain.KindCapacityExceeded, "property %d already houses %d of %d tenants", propertyID, tenants, p.TenantCapacity)
		}

		if err := m.vault.releaseDepositToLandlord(ctx, tx, j, a.Landlord, propertyID, applicationID, a.DepositAmount); err != nil {
			return err
		}
		a.Status = domain.ApplicationStatusOngoing
		a.UpdatedAt = j.now
		if err := tx.Applications().Update(ctx, a); err != nil {
			return err
		}
		accepted = a
		j.record(domain.EventApplicationAccepted, appRefs(a), applicationAttrs(a))
		return nil
	})
	return accepted, err
}

// CancelOrReject withdraws a pending application. The tenant cancels, the
// landlord rejects; either way the deposit goes back to the tenant.
func (m *RentalMarketplace) CancelOrReject(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) error {
	return m.rt.run(ctx, "RentalMarketplace.CancelOrReject", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		a, err := tx.Applications().Get(ctx, propertyID, applicationID)
		if err != nil {
			return err
		}
		var closedBy domain.Role
		switch {
		case caller.Is(domain.RoleTenant) && caller.AccountID == a.Tenant:
			closedBy = domain.RoleTenant
		case caller.Is(domain.RoleLandlord) && caller.AccountID == a.Landlord:
			closedBy = domain.RoleLandlord
		default:
			return domain.Errorf(domain.KindUnauthorized, "only the tenant or landlord may withdraw application %d/%d", propertyID, applicationID)
		}
		if a.Status != domain.ApplicationStatusPending {
			return domain.Errorf(domain.KindInvalidApplicationState, "application %d/%d is %s, not PENDING", propertyID, applicationID, a.Status)
		}

		if err := m.vault.refundDeposit(ctx, tx, j, a.Tenant, propertyID, applicationID, a.DepositAmount); err != nil {
			return err
		}
		if err := tx.Applications().Delete(ctx, propertyID, applicationID); err != nil {
			return err
		}
		if err := m.properties.detachApplication(ctx, tx, propertyID, j.now); err != nil {
			return err
		}
		attrs := applicationAttrs(a)
		attrs["closed_by"] = string(closedBy)
		j.record(domain.EventApplicationClosed, appRefs(a), attrs)
		return nil
	})
}

func (m *RentalMarketplace) MakePayment(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error) {
	var paid *domain.Application
	err := m.rt.run(ctx, "RentalMarketplace.MakePayment", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		a, err := m.asTenant(ctx, tx, caller, propertyID, applicationID)
		if err != nil {
			return err
		}
		if a.Status != domain.ApplicationStatusOngoing {
			return domain.Errorf(domain.KindInvalidApplicationState, "application %d/%d is %s, not ONGOING", propertyID, applicationID, a.Status)
		}
		p, err := tx.Properties().GetByID(ctx, propertyID)
		if err != nil {
			return err
		}

		paymentID, err := m.vault.collectRent(ctx, tx, j, a.Tenant, propertyID, applicationID, p.RentalPrice)
		if err != nil {
			return err
		}
		a.PaymentIDs = append(a.PaymentIDs, paymentID)
		a.Status = domain.ApplicationStatusMadePayment
		a.UpdatedAt = j.now
		if err := tx.Applications().Update(ctx, a); err != nil {
			return err
		}
		paid = a
		attrs := applicationAttrs(a)
		attrs["amount"] = itoa(p.RentalPrice)
		j.record(domain.EventPaymentMade, appRefs(a), attrs)
		return nil
	})
	return paid, err
}

func (m *RentalMarketplace) AcceptPayment(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error) {
	var accepted *domain.Application
	err := m.rt.run(ctx, "RentalMarketplace.AcceptPayment", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		a, err := m.asLandlord(ctx, tx, caller, propertyID, applicationID)
		if err != nil {
			return err
		}
		if a.Status != domain.ApplicationStatusMadePayment {
			return domain.Reasonf(domain.ErrPaymentNotMade, "application %d/%d is %s, no payment to accept", propertyID, applicationID, a.Status)
		}
		p, err := tx.Properties().GetByID(ctx, propertyID)
		if err != nil {
			return err
		}

		released, err := m.vault.releaseRent(ctx, tx, j, a.Landlord, propertyID, applicationID)
		if err != nil {
			return err
		}
		a.MonthsPaid++
		if a.MonthsPaid >= p.LeaseMonths {
			a.Status = domain.ApplicationStatusCompleted
		} else {
			a.Status = domain.ApplicationStatusOngoing
		}
		a.UpdatedAt = j.now
		if err := tx.Applications().Update(ctx, a); err != nil {
			return err
		}
		accepted = a
		attrs := applicationAttrs(a)
		attrs["amount"] = itoa(released)
		attrs["months_paid"] = itoa(int64(a.MonthsPaid))
		j.record(domain.EventPaymentAccepted, appRefs(a), attrs)
		return nil
	})
	return accepted, err
}

// MoveOut ends a completed tenancy. The landlord funds the deposit refund
// since the deposit was released to them on acceptance.
func (m *RentalMarketplace) MoveOut(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) error {
	return m.rt.run(ctx, "RentalMarketplace.MoveOut", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		a, err := m.asTenant(ctx, tx, caller, propertyID, applicationID)
		if err != nil {
			return err
		}
		if a.Status != domain.ApplicationStatusCompleted {
			return domain.Reasonf(domain.ErrApplicationNotCompleted, "application %d/%d is %s", propertyID, applicationID, a.Status)
		}

		if err := m.vault.fundDepositRefund(ctx, tx, j, a.Landlord, propertyID, applicationID, a.DepositAmount); err != nil {
			return err
		}
		if err := m.vault.refundDeposit(ctx, tx, j, a.Tenant, propertyID, applicationID, a.DepositAmount); err != nil {
			return err
		}
		if err := tx.Applications().Delete(ctx, propertyID, applicationID); err != nil {
			return err
		}
		if err := m.properties.detachApplication(ctx, tx, propertyID, j.now); err != nil {
			return err
		}
		j.record(domain.EventTenantMovedOut, appRefs(a), applicationAttrs(a))
		return nil
	})
}

// GetApplication is visible to the application's tenant, the property's
// landlord and admins. It carries the tenant's contact details.
func (m *RentalMarketplace) GetApplication(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error) {
	var a *domain.Application
	err := m.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		a, err = tx.Applications().Get(ctx, propertyID, applicationID)
		if err != nil {
			return err
		}
		if caller.AccountID != a.Tenant && caller.AccountID != a.Landlord && !caller.Is(domain.RoleAdmin) {
			return domain.Errorf(domain.KindUnauthorized, "%s is not a party to application %d/%d", caller.AccountID, propertyID, applicationID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListApplicationsByProperty splits the property's applications into those
// awaiting the landlord and those already accepted. Only the landlord and
// admins may list them.
func (m *RentalMarketplace) ListApplicationsByProperty(ctx context.Context, caller domain.Caller, propertyID int64) ([]domain.Application, []domain.Application, error) {
	var all []domain.Application
	err := m.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Properties().GetByID(ctx, propertyID)
		if err != nil {
			return err
		}
		if caller.AccountID != p.Landlord && !caller.Is(domain.RoleAdmin) {
			return domain.Errorf(domain.KindUnauthorized, "%s does not own property %d", caller.AccountID, propertyID)
		}
		all, err = tx.Applications().ListByProperty(ctx, propertyID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	var pending, active []domain.Application
	for _, a := range all {
		if a.Accepted() {
			active = append(active, a)
		} else {
			pending = append(pending, a)
		}
	}
	return pending, active, nil
}

func (m *RentalMarketplace) ListApplicationsByTenant(ctx context.Context, tenant string) ([]domain.Application, error) {
	var apps []domain.Application
	err := m.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		apps, err = tx.Applications().ListByTenant(ctx, tenant)
		return err
	})
	return apps, err
}

// CurrentApplication is the tenant's most recent application, or nil.
func (m *RentalMarketplace) CurrentApplication(ctx context.Context, tenant string) (*domain.Application, error) {
	apps, err := m.ListApplicationsByTenant(ctx, tenant)
	if err != nil || len(apps) == 0 {
		return nil, err
	}
	current := apps[0]
	for _, a := range apps[1:] {
		if a.CreatedAt.After(current.CreatedAt) {
			current = a
		}
	}
	return &current, nil
}

func (m *RentalMarketplace) DepositAmount(ctx context.Context, propertyID int64) (int64, error) {
	p, err := m.properties.GetProperty(ctx, propertyID)
	if err != nil {
		return 0, err
	}
	return p.DepositFee, nil
}

func (m *RentalMarketplace) asTenant(ctx context.Context, tx repository.Tx, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error) {
	a, err := tx.Applications().Get(ctx, propertyID, applicationID)
	if err != nil {
		return nil, err
	}
	if !caller.Is(domain.RoleTenant) || caller.AccountID != a.Tenant {
		return nil, domain.Errorf(domain.KindUnauthorized, "application %d/%d belongs to another tenant", propertyID, applicationID)
	}
	return a, nil
}

func (m *RentalMarketplace) asLandlord(ctx context.Context, tx repository.Tx, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error) {
	a, err := tx.Applications().Get(ctx, propertyID, applicationID)
	if err != nil {
		return nil, err
	}
	if !caller.Is(domain.RoleLandlord) || caller.AccountID != a.Landlord {
		return nil, domain.Errorf(domain.KindUnauthorized, "only the landlord of property %d may do this", propertyID)
	}
	return a, nil
}

func (m *RentalMarketplace) acceptedCount(ctx context.Context, tx repository.Tx, propertyID int64) (int32, error) {
	apps, err := tx.Applications().ListByProperty(ctx, propertyID)
	if err != nil {
		return 0, err
	}
	var n int32
	for _, a := range apps {
		if a.Accepted() {
			n++
		}
	}
	return n, nil
}

// markDisputed puts an application on hold while dispute disputeID is open.
func (m *RentalMarketplace) markDisputed(ctx context.Context, tx repository.Tx, a *domain.Application, disputeID int64, j *journal) error {
	a.PreviousStatus = a.Status
	a.Status = domain.ApplicationStatusDispute
	a.DisputeID = disputeID
	a.UpdatedAt = j.now
	return tx.Applications().Update(ctx, a)
}

// restoreAfterDispute puts the application back where it was before the
// dispute. The dispute id stays set so the tenant cannot dispute again.
func (m *RentalMarketplace) restoreAfterDispute(ctx context.Context, tx repository.Tx, propertyID, applicationID int64, j *journal) (*domain.Application, error) {
	a, err := tx.Applications().Get(ctx, propertyID, applicationID)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.ApplicationStatusDispute {
		return nil, domain.Errorf(domain.KindInvariantViolation, "application %d/%d is %s while its dispute resolves", propertyID, applicationID, a.Status)
	}
	a.Status = a.PreviousStatus
	a.PreviousStatus = ""
	a.UpdatedAt = j.now
	return a, tx.Applications().Update(ctx, a)
}
