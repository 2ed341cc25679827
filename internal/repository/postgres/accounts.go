package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/repository"
)

type accountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE account_id = $1`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

func (r *accountRepository) SetBalance(ctx context.Context, accountID string, balance int64) error {
	logger.DatabaseCall("UPSERT", "accounts", "accountID", accountID, "balance", balance)
	var err error
	if balance == 0 {
		_, err = r.db.ExecContext(ctx, `DELETE FROM accounts WHERE account_id = $1`, accountID)
	} else {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO accounts (account_id, balance) VALUES ($1, $2)
			 ON CONFLICT (account_id) DO UPDATE SET balance = EXCLUDED.balance`, accountID, balance)
	}
	logger.DatabaseResult("UPSERT", 1, err, "accountID", accountID)
	return err
}

func (r *accountRepository) ListBalances(ctx context.Context) ([]domain.AccountBalance, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT account_id, balance FROM accounts ORDER BY account_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AccountBalance
	for rows.Next() {
		var b domain.AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Balance); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *accountRepository) GetSupply(ctx context.Context) (int64, error) {
	var supply int64
	err := r.db.QueryRowContext(ctx, `SELECT supply FROM ledger_supply WHERE id = 1`).Scan(&supply)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return supply, err
}

func (r *accountRepository) SetSupply(ctx context.Context, supply int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_supply (id, supply) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET supply = EXCLUDED.supply`, supply)
	return err
}

func (r *accountRepository) CreateTransaction(ctx context.Context, tx *domain.LedgerTransaction) error {
	query := `INSERT INTO ledger_transactions (account_id, amount, type, counterparty, pool_purpose, property_id, application_id, dispute_id, description, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	return r.db.QueryRowContext(ctx, query, tx.AccountID, tx.Amount, tx.Type, tx.Counterparty, tx.PoolPurpose,
		tx.PropertyID, tx.ApplicationID, tx.DisputeID, tx.Description, tx.CreatedAt).Scan(&tx.ID)
}

func (r *accountRepository) ListTransactions(ctx context.Context, accountID string, page, pageSize int32) ([]domain.LedgerTransaction, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT id, account_id, amount, type, counterparty, pool_purpose, property_id, application_id, dispute_id, description, created_on
	          FROM ledger_transactions WHERE account_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, accountID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.LedgerTransaction
	for rows.Next() {
		var tx domain.LedgerTransaction
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Amount, &tx.Type, &tx.Counterparty, &tx.PoolPurpose,
			&tx.PropertyID, &tx.ApplicationID, &tx.DisputeID, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, 0, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	err = r.db.QueryRowContext(ctx, `SELECT count(*) FROM ledger_transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}
	return txs, count, nil
}
