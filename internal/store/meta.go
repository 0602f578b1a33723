package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/simonvc/ledgerbook/internal/ledger"
)

// ErrNoMeta means the database has never been initialised as a book.
var ErrNoMeta = errors.New("book metadata missing")

func (t *Tx) InsertMeta(ctx context.Context, m ledger.Meta) error {
	_, err := t.exec(ctx, "insert meta",
		`INSERT INTO meta (id, version, book_id, standard, company, month_from, month_until) VALUES (1, ?, ?, ?, ?, ?, ?)`,
		m.Version, m.BookID, m.Standard, m.Company, formatDate(m.MonthFrom), formatDate(m.MonthUntil),
	)
	return err
}

func (t *Tx) GetMeta(ctx context.Context) (*ledger.Meta, error) {
	var m ledger.Meta
	var from, until string
	err := t.tx.QueryRowContext(ctx,
		`SELECT version, book_id, standard, company, month_from, month_until,
			(SELECT COALESCE(MAX(version), 0) FROM schema_version)
		FROM meta WHERE id = 1`,
	).Scan(&m.Version, &m.BookID, &m.Standard, &m.Company, &from, &until, &m.SchemaVersion)
	if err == sql.ErrNoRows {
		return nil, ErrNoMeta
	}
	if err != nil {
		return nil, fmt.Errorf("get meta: %w", err)
	}
	if m.MonthFrom, err = parseDate(from); err != nil {
		return nil, err
	}
	if m.MonthUntil, err = parseDate(until); err != nil {
		return nil, err
	}
	return &m, nil
}

func (t *Tx) SetMonthUntil(ctx context.Context, month time.Time) error {
	_, err := t.exec(ctx, "update meta",
		`UPDATE meta SET month_until = ? WHERE id = 1`, formatDate(month))
	return err
}
