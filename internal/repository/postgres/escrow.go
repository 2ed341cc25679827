package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository"
)

type escrowRepository struct {
	db DBTX
}

func NewEscrowRepository(db DBTX) repository.EscrowRepository {
	return &escrowRepository{db: db}
}

func (r *escrowRepository) GetPool(ctx context.Context, key domain.PoolKey) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM escrow_pools WHERE purpose = $1 AND ref_a = $2 AND ref_b = $3`,
		key.Purpose, key.RefA, key.RefB).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

// SetPool stores the pool balance; empty pools are removed.
func (r *escrowRepository) SetPool(ctx context.Context, key domain.PoolKey, balance int64) error {
	if balance == 0 {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM escrow_pools WHERE purpose = $1 AND ref_a = $2 AND ref_b = $3`,
			key.Purpose, key.RefA, key.RefB)
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO escrow_pools (purpose, ref_a, ref_b, balance) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (purpose, ref_a, ref_b) DO UPDATE SET balance = EXCLUDED.balance`,
		key.Purpose, key.RefA, key.RefB, balance)
	return err
}

func (r *escrowRepository) ListPools(ctx context.Context) ([]domain.EscrowPool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT purpose, ref_a, ref_b, balance FROM escrow_pools ORDER BY purpose, ref_a, ref_b`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []domain.EscrowPool
	for rows.Next() {
		var p domain.EscrowPool
		if err := rows.Scan(&p.Key.Purpose, &p.Key.RefA, &p.Key.RefB, &p.Balance); err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}
