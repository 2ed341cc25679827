package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository"
)

const disputeColumns = `id, property_id, application_id, tenant, landlord, dispute_type, reason, start_time, end_time, status, resolved_at`

type disputeRepository struct {
	db DBTX
}

func NewDisputeRepository(db DBTX) repository.DisputeRepository {
	return &disputeRepository{db: db}
}

func (r *disputeRepository) Create(ctx context.Context, d *domain.Dispute) error {
	id, err := nextID(ctx, r.db, "disputes")
	if err != nil {
		return err
	}
	d.ID = id
	query := `INSERT INTO disputes (` + disputeColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, query, d.ID, d.PropertyID, d.ApplicationID, d.Tenant, d.Landlord, d.Type, d.Reason,
		d.StartTime, d.EndTime, d.Status, d.ResolvedAt)
	return err
}

func (r *disputeRepository) GetByID(ctx context.Context, id int64) (*domain.Dispute, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id)
	d, err := scanDispute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Errorf(domain.KindNotFound, "dispute %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if d.Votes, err = r.votes(ctx, id); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *disputeRepository) UpdateStatus(ctx context.Context, d *domain.Dispute) error {
	res, err := r.db.ExecContext(ctx, `UPDATE disputes SET status = $2, resolved_at = $3 WHERE id = $1`, d.ID, d.Status, d.ResolvedAt)
	return expectRow(res, err, "dispute %d not found", d.ID)
}

func (r *disputeRepository) AddVote(ctx context.Context, v *domain.Vote) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO dispute_votes (dispute_id, validator, choice, cast_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (dispute_id, validator) DO NOTHING`, v.DisputeID, v.Validator, v.Choice, v.CastAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Errorf(domain.KindAlreadyVoted, "validator %s already voted on dispute %d", v.Validator, v.DisputeID)
	}
	return nil
}

func (r *disputeRepository) ListByTenant(ctx context.Context, tenant string) ([]domain.Dispute, error) {
	return r.list(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE tenant = $1 ORDER BY id`, tenant)
}

func (r *disputeRepository) ListByLandlord(ctx context.Context, landlord string) ([]domain.Dispute, error) {
	return r.list(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE landlord = $1 ORDER BY id`, landlord)
}

func (r *disputeRepository) ListAll(ctx context.Context) ([]domain.Dispute, error) {
	return r.list(ctx, `SELECT `+disputeColumns+` FROM disputes ORDER BY id`)
}

func (r *disputeRepository) ListPendingEndedBefore(ctx context.Context, t time.Time) ([]domain.Dispute, error) {
	return r.list(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE status = $1 AND end_time <= $2 ORDER BY id`,
		domain.DisputeStatusPending, t)
}

func (r *disputeRepository) list(ctx context.Context, query string, args ...any) ([]domain.Dispute, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var disputes []domain.Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		disputes = append(disputes, *d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range disputes {
		if disputes[i].Votes, err = r.votes(ctx, disputes[i].ID); err != nil {
			return nil, err
		}
	}
	return disputes, nil
}

func (r *disputeRepository) votes(ctx context.Context, disputeID int64) ([]domain.Vote, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT dispute_id, validator, choice, cast_at FROM dispute_votes WHERE dispute_id = $1 ORDER BY cast_at, validator`, disputeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []domain.Vote{}
	for rows.Next() {
		var v domain.Vote
		if err := rows.Scan(&v.DisputeID, &v.Validator, &v.Choice, &v.CastAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func scanDispute(s scanner) (*domain.Dispute, error) {
	var (
		d          domain.Dispute
		resolvedAt sql.NullTime
	)
	err := s.Scan(&d.ID, &d.PropertyID, &d.ApplicationID, &d.Tenant, &d.Landlord, &d.Type, &d.Reason,
		&d.StartTime, &d.EndTime, &d.Status, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		d.ResolvedAt = &t
	}
	return &d, nil
}
