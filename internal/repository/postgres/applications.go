package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository"
)

const applicationColumns = `property_id, id, tenant, landlord, contact_name, contact_email, contact_phone, description,
	deposit_amount, months_paid, status, previous_status, payment_ids, dispute_id, created_on, updated_on`

type applicationRepository struct {
	db DBTX
}

func NewApplicationRepository(db DBTX) repository.ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, a *domain.Application) error {
	query := `INSERT INTO applications (` + applicationColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.db.ExecContext(ctx, query, a.PropertyID, a.ID, a.Tenant, a.Landlord, a.Contact.Name, a.Contact.Email,
		a.Contact.Phone, a.Description, a.DepositAmount, a.MonthsPaid, a.Status, a.PreviousStatus,
		pq.Array(paymentIDs(a)), a.DisputeID, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *applicationRepository) Get(ctx context.Context, propertyID, applicationID int64) (*domain.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE property_id = $1 AND id = $2`,
		propertyID, applicationID)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Errorf(domain.KindNotFound, "application %d/%d not found", propertyID, applicationID)
	}
	return a, err
}

func (r *applicationRepository) FindByTenant(ctx context.Context, propertyID int64, tenant string) (*domain.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE property_id = $1 AND tenant = $2`,
		propertyID, tenant)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *applicationRepository) Update(ctx context.Context, a *domain.Application) error {
	query := `UPDATE applications SET contact_name = $3, contact_email = $4, contact_phone = $5, description = $6,
	          deposit_amount = $7, months_paid = $8, status = $9, previous_status = $10, payment_ids = $11,
	          dispute_id = $12, updated_on = $13 WHERE property_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, a.PropertyID, a.ID, a.Contact.Name, a.Contact.Email, a.Contact.Phone,
		a.Description, a.DepositAmount, a.MonthsPaid, a.Status, a.PreviousStatus, pq.Array(paymentIDs(a)),
		a.DisputeID, a.UpdatedAt)
	return expectRow(res, err, "application %d/%d not found", a.PropertyID, a.ID)
}

func (r *applicationRepository) Delete(ctx context.Context, propertyID, applicationID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE property_id = $1 AND id = $2`, propertyID, applicationID)
	return expectRow(res, err, "application %d/%d not found", propertyID, applicationID)
}

func (r *applicationRepository) ListByProperty(ctx context.Context, propertyID int64) ([]domain.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE property_id = $1 ORDER BY id`, propertyID)
}

func (r *applicationRepository) ListByTenant(ctx context.Context, tenant string) ([]domain.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE tenant = $1 ORDER BY created_on, property_id`, tenant)
}

func (r *applicationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

func paymentIDs(a *domain.Application) []int64 {
	if a.PaymentIDs == nil {
		return []int64{}
	}
	return a.PaymentIDs
}

func scanApplication(s scanner) (*domain.Application, error) {
	var (
		a   domain.Application
		ids pq.Int64Array
	)
	err := s.Scan(&a.PropertyID, &a.ID, &a.Tenant, &a.Landlord, &a.Contact.Name, &a.Contact.Email, &a.Contact.Phone,
		&a.Description, &a.DepositAmount, &a.MonthsPaid, &a.Status, &a.PreviousStatus, &ids, &a.DisputeID,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.PaymentIDs = []int64(ids)
	if a.PaymentIDs == nil {
		a.PaymentIDs = []int64{}
	}
	return &a, nil
}
