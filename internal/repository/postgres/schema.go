package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS id_counters (
		name  TEXT PRIMARY KEY,
		value BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		account_id TEXT PRIMARY KEY,
		balance    BIGINT NOT NULL CHECK (balance >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_supply (
		id     SMALLINT PRIMARY KEY CHECK (id = 1),
		supply BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_transactions (
		id             BIGSERIAL PRIMARY KEY,
		account_id     TEXT NOT NULL,
		amount         BIGINT NOT NULL,
		type           TEXT NOT NULL,
		counterparty   TEXT NOT NULL DEFAULT '',
		pool_purpose   TEXT NOT NULL DEFAULT '',
		property_id    BIGINT NOT NULL DEFAULT 0,
		application_id BIGINT NOT NULL DEFAULT 0,
		dispute_id     BIGINT NOT NULL DEFAULT 0,
		description    TEXT NOT NULL DEFAULT '',
		created_on     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ledger_transactions_account_idx ON ledger_transactions (account_id, id DESC)`,
	`CREATE TABLE IF NOT EXISTS escrow_pools (
		purpose TEXT NOT NULL,
		ref_a   BIGINT NOT NULL,
		ref_b   BIGINT NOT NULL,
		balance BIGINT NOT NULL CHECK (balance >= 0),
		PRIMARY KEY (purpose, ref_a, ref_b)
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id                       BIGINT PRIMARY KEY,
		landlord                 TEXT NOT NULL,
		location                 TEXT NOT NULL,
		postal_code              TEXT NOT NULL,
		unit_number              TEXT NOT NULL,
		property_type            TEXT NOT NULL,
		description              TEXT NOT NULL,
		tenant_capacity          INTEGER NOT NULL,
		rental_price             BIGINT NOT NULL,
		lease_months             INTEGER NOT NULL,
		is_listed                BOOLEAN NOT NULL DEFAULT FALSE,
		deposit_fee              BIGINT NOT NULL DEFAULT 0,
		payment_id               BIGINT NOT NULL DEFAULT 0,
		outstanding_applications INTEGER NOT NULL DEFAULT 0,
		application_seq          BIGINT NOT NULL DEFAULT 0,
		created_on               TIMESTAMPTZ NOT NULL,
		updated_on               TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS properties_landlord_idx ON properties (landlord)`,
	`CREATE TABLE IF NOT EXISTS applications (
		property_id     BIGINT NOT NULL,
		id              BIGINT NOT NULL,
		tenant          TEXT NOT NULL,
		landlord        TEXT NOT NULL,
		contact_name    TEXT NOT NULL,
		contact_email   TEXT NOT NULL,
		contact_phone   TEXT NOT NULL,
		description     TEXT NOT NULL,
		deposit_amount  BIGINT NOT NULL,
		months_paid     INTEGER NOT NULL DEFAULT 0,
		status          TEXT NOT NULL,
		previous_status TEXT NOT NULL DEFAULT '',
		payment_ids     BIGINT[] NOT NULL DEFAULT '{}',
		dispute_id      BIGINT NOT NULL DEFAULT 0,
		created_on      TIMESTAMPTZ NOT NULL,
		updated_on      TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (property_id, id),
		UNIQUE (property_id, tenant)
	)`,
	`CREATE INDEX IF NOT EXISTS applications_tenant_idx ON applications (tenant)`,
	`CREATE TABLE IF NOT EXISTS disputes (
		id             BIGINT PRIMARY KEY,
		property_id    BIGINT NOT NULL,
		application_id BIGINT NOT NULL,
		tenant         TEXT NOT NULL,
		landlord       TEXT NOT NULL,
		dispute_type   TEXT NOT NULL,
		reason         TEXT NOT NULL,
		start_time     TIMESTAMPTZ NOT NULL,
		end_time       TIMESTAMPTZ NOT NULL,
		status         TEXT NOT NULL,
		resolved_at    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS disputes_pending_idx ON disputes (end_time) WHERE status = 'PENDING'`,
	`CREATE TABLE IF NOT EXISTS dispute_votes (
		dispute_id BIGINT NOT NULL REFERENCES disputes (id),
		validator  TEXT NOT NULL,
		choice     TEXT NOT NULL,
		cast_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (dispute_id, validator)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		seq            BIGSERIAL PRIMARY KEY,
		id             TEXT NOT NULL UNIQUE,
		type           TEXT NOT NULL,
		actor          TEXT NOT NULL,
		property_id    BIGINT NOT NULL DEFAULT 0,
		application_id BIGINT NOT NULL DEFAULT 0,
		dispute_id     BIGINT NOT NULL DEFAULT 0,
		attributes     JSONB,
		created_on     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         BIGSERIAL PRIMARY KEY,
		account_id TEXT NOT NULL,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL,
		is_read    BOOLEAN NOT NULL DEFAULT FALSE,
		attributes JSONB,
		created_on TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_account_idx ON notifications (account_id, id DESC)`,
}

// CreateSchema creates any missing tables. It is safe to run on every start.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
