package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/repository"
)

const propertyColumns = `id, landlord, location, postal_code, unit_number, property_type, description, tenant_capacity,
	rental_price, lease_months, is_listed, deposit_fee, payment_id, outstanding_applications, application_seq, created_on, updated_on`

type propertyRepository struct {
	db DBTX
}

func NewPropertyRepository(db DBTX) repository.PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, p *domain.Property) error {
	logger.EnterMethod("propertyRepository.Create", "landlord", p.Landlord)

	id, err := nextID(ctx, r.db, "properties")
	if err != nil {
		logger.ExitMethodWithError("propertyRepository.Create", err, "reason", "failed to reserve id")
		return err
	}
	p.ID = id

	query := `INSERT INTO properties (` + propertyColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	logger.DatabaseCall("INSERT", "properties", "propertyID", p.ID)
	_, err = r.db.ExecContext(ctx, query, p.ID, p.Landlord, p.Location, p.PostalCode, p.UnitNumber, p.PropertyType, p.Description,
		p.TenantCapacity, p.RentalPrice, p.LeaseMonths, p.IsListed, p.DepositFee, p.PaymentID, p.OutstandingApplications,
		p.ApplicationSeq, p.CreatedAt, p.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "propertyID", p.ID)

	if err != nil {
		logger.ExitMethodWithError("propertyRepository.Create", err, "propertyID", p.ID)
	} else {
		logger.ExitMethod("propertyRepository.Create", "propertyID", p.ID)
	}
	return err
}

func (r *propertyRepository) GetByID(ctx context.Context, id int64) (*domain.Property, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Errorf(domain.KindNotFound, "property %d not found", id)
	}
	return p, err
}

func (r *propertyRepository) Update(ctx context.Context, p *domain.Property) error {
	query := `UPDATE properties SET location = $2, postal_code = $3, unit_number = $4, property_type = $5, description = $6,
	          tenant_capacity = $7, rental_price = $8, lease_months = $9, is_listed = $10, deposit_fee = $11, payment_id = $12,
	          outstanding_applications = $13, application_seq = $14, updated_on = $15 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, p.ID, p.Location, p.PostalCode, p.UnitNumber, p.PropertyType, p.Description,
		p.TenantCapacity, p.RentalPrice, p.LeaseMonths, p.IsListed, p.DepositFee, p.PaymentID,
		p.OutstandingApplications, p.ApplicationSeq, p.UpdatedAt)
	return expectRow(res, err, "property %d not found", p.ID)
}

func (r *propertyRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, id)
	return expectRow(res, err, "property %d not found", id)
}

func (r *propertyRepository) ListByLandlord(ctx context.Context, landlord string, filter domain.ListingFilter) ([]domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE landlord = $1`
	switch filter {
	case domain.ListingListed:
		query += ` AND is_listed`
	case domain.ListingUnlisted:
		query += ` AND NOT is_listed`
	}
	return r.list(ctx, query+` ORDER BY id`, landlord)
}

func (r *propertyRepository) ListListed(ctx context.Context) ([]domain.Property, error) {
	return r.list(ctx, `SELECT `+propertyColumns+` FROM properties WHERE is_listed ORDER BY id`)
}

func (r *propertyRepository) list(ctx context.Context, query string, args ...any) ([]domain.Property, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var props []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, *p)
	}
	return props, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(s scanner) (*domain.Property, error) {
	var p domain.Property
	err := s.Scan(&p.ID, &p.Landlord, &p.Location, &p.PostalCode, &p.UnitNumber, &p.PropertyType, &p.Description,
		&p.TenantCapacity, &p.RentalPrice, &p.LeaseMonths, &p.IsListed, &p.DepositFee, &p.PaymentID,
		&p.OutstandingApplications, &p.ApplicationSeq, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// expectRow turns a write that touched no rows into a NotFound error.
func expectRow(res sql.Result, err error, format string, args ...any) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Errorf(domain.KindNotFound, format, args...)
	}
	return nil
}
