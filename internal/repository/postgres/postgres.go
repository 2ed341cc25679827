// Package postgres is the durable Store. Every unit of work runs in one
// SERIALIZABLE transaction, retried when Postgres reports a serialization
// failure.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"

	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db         *sql.DB
	maxElapsed time.Duration
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, maxElapsed: 5 * time.Second}
}

// Connect opens the database and waits for it to answer a ping, backing off
// between attempts until maxWait has elapsed.
func Connect(ctx context.Context, dsn string, maxWait time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = maxWait

	var attempt int
	err = backoff.RetryNotify(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		attempt++
		logger.Warn("Database not ready, retrying", "attempt", attempt, "next_retry_in", next, "error", err)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt+1, err)
	}
	return db, nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = s.maxElapsed

	return backoff.RetryNotify(func() error {
		err := s.attempt(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
		if err != nil && !isSerializationFailure(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		logger.Debug("Serialization failure, retrying transaction", "next_retry_in", next)
	})
}

// View runs fn in a read-only transaction that is always rolled back.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer sqlTx.Rollback()
	return fn(ctx, newTx(sqlTx))
}

func (s *Store) attempt(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(ctx, newTx(sqlTx)); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

type tx struct {
	db DBTX
}

func newTx(db DBTX) *tx {
	return &tx{db: db}
}

func (t *tx) Accounts() repository.AccountRepository           { return NewAccountRepository(t.db) }
func (t *tx) Escrow() repository.EscrowRepository               { return NewEscrowRepository(t.db) }
func (t *tx) Properties() repository.PropertyRepository         { return NewPropertyRepository(t.db) }
func (t *tx) Applications() repository.ApplicationRepository    { return NewApplicationRepository(t.db) }
func (t *tx) Disputes() repository.DisputeRepository            { return NewDisputeRepository(t.db) }
func (t *tx) Events() repository.EventRepository                { return NewEventRepository(t.db) }
func (t *tx) Notifications() repository.NotificationRepository { return NewNotificationRepository(t.db) }

var _ repository.Store = (*Store)(nil)

// nextID hands out gap-free ids from the id_counters table.
func nextID(ctx context.Context, db DBTX, name string) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`INSERT INTO id_counters (name, value) VALUES ($1, 1)
		 ON CONFLICT (name) DO UPDATE SET value = id_counters.value + 1 RETURNING value`, name).Scan(&id)
	return id, err
}
