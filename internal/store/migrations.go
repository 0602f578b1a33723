package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SchemaVersion is the schema level written by the newest migration.
const SchemaVersion = 1

var ErrSchemaTooNew = errors.New("book written by a newer release")

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version > SchemaVersion {
		return fmt.Errorf("%w: schema version %d, supported up to %d", ErrSchemaTooNew, version, SchemaVersion)
	}

	if version < 1 {
		if err := migrateV1(ctx, tx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return tx.Commit()
}

func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			id          INTEGER PRIMARY KEY CHECK (id = 1),
			version     TEXT NOT NULL,
			book_id     TEXT NOT NULL,
			standard    TEXT NOT NULL,
			company     TEXT NOT NULL,
			month_from  TEXT NOT NULL,
			month_until TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS currencies (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			name     TEXT NOT NULL UNIQUE,
			is_local INTEGER NOT NULL DEFAULT 0
		)`,
		// At most one local currency.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_currencies_local ON currencies(is_local) WHERE is_local = 1`,

		`CREATE TABLE IF NOT EXISTS exchange_rates (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			currency_id    INTEGER NOT NULL REFERENCES currencies(id) ON DELETE CASCADE,
			rate           TEXT NOT NULL,
			effective_date TEXT NOT NULL,
			UNIQUE (currency_id, effective_date)
		)`,

		`CREATE TABLE IF NOT EXISTS accounts (
			id                         INTEGER PRIMARY KEY AUTOINCREMENT,
			code                       TEXT NOT NULL UNIQUE,
			name                       TEXT NOT NULL UNIQUE,
			qualname                   TEXT NOT NULL UNIQUE,
			parent_id                  INTEGER REFERENCES accounts(id),
			major_category             TEXT NOT NULL,
			direction                  TEXT NOT NULL CHECK (direction IN ('借','贷')),
			is_custom                  INTEGER NOT NULL DEFAULT 0,
			currency_id                INTEGER REFERENCES currencies(id),
			need_exchange_gains_losses INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_parent ON accounts(parent_id)`,

		`CREATE TABLE IF NOT EXISTS vouchers (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			number   TEXT NOT NULL UNIQUE,
			date     TEXT NOT NULL,
			category TEXT NOT NULL,
			note     TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vouchers_date ON vouchers(date)`,

		`CREATE TABLE IF NOT EXISTS debit_entries (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			voucher_id       INTEGER NOT NULL REFERENCES vouchers(id) ON DELETE CASCADE,
			account_id       INTEGER NOT NULL REFERENCES accounts(id),
			currency         TEXT NOT NULL,
			amount           TEXT NOT NULL,
			exchange_rate    TEXT NOT NULL,
			exchange_rate_id INTEGER REFERENCES exchange_rates(id),
			brief            TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_debit_entries_voucher ON debit_entries(voucher_id)`,
		`CREATE INDEX IF NOT EXISTS idx_debit_entries_account ON debit_entries(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_debit_entries_rate ON debit_entries(exchange_rate_id)`,

		`CREATE TABLE IF NOT EXISTS credit_entries (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			voucher_id       INTEGER NOT NULL REFERENCES vouchers(id) ON DELETE CASCADE,
			account_id       INTEGER NOT NULL REFERENCES accounts(id),
			currency         TEXT NOT NULL,
			amount           TEXT NOT NULL,
			exchange_rate    TEXT NOT NULL,
			exchange_rate_id INTEGER REFERENCES exchange_rates(id),
			brief            TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_credit_entries_voucher ON credit_entries(voucher_id)`,
		`CREATE INDEX IF NOT EXISTS idx_credit_entries_account ON credit_entries(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_credit_entries_rate ON credit_entries(exchange_rate_id)`,

		`CREATE TABLE IF NOT EXISTS balance_sheet_templates (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS balance_sheet_entries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			template_id INTEGER NOT NULL REFERENCES balance_sheet_templates(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			category    TEXT NOT NULL CHECK (category IN ('assets','liabilities_equity')),
			item        TEXT NOT NULL,
			line_number INTEGER,
			formula     TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_balance_sheet_entries_template ON balance_sheet_entries(template_id, position)`,

		`CREATE TABLE IF NOT EXISTS mru_accounts (
			account_code TEXT PRIMARY KEY,
			hits         INTEGER NOT NULL DEFAULT 0
		)`,

		`INSERT INTO schema_version (version) VALUES (1)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	for i, r := range stmt {
		if r == '\n' {
			return stmt[:i]
		}
	}
	return stmt
}
