package store

import (
	"context"
	"fmt"
)

// MRUAccount is a usage counter for account pickers.
type MRUAccount struct {
	AccountCode string `json:"account_code"`
	Hits        int    `json:"hits"`
}

func (t *Tx) TouchMRU(ctx context.Context, code string) error {
	_, err := t.exec(ctx, "touch mru account",
		`INSERT INTO mru_accounts (account_code, hits) VALUES (?, 1)
		ON CONFLICT(account_code) DO UPDATE SET hits = hits + 1`, code)
	return err
}

// TopMRU returns up to n accounts by descending hits.
func (t *Tx) TopMRU(ctx context.Context, n int) ([]MRUAccount, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT account_code, hits FROM mru_accounts ORDER BY hits DESC, account_code LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("top mru accounts: %w", err)
	}
	defer rows.Close()

	var out []MRUAccount
	for rows.Next() {
		var m MRUAccount
		if err := rows.Scan(&m.AccountCode, &m.Hits); err != nil {
			return nil, fmt.Errorf("scan mru account: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *Tx) DeleteMRU(ctx context.Context, code string) error {
	_, err := t.exec(ctx, "delete mru account", `DELETE FROM mru_accounts WHERE account_code = ?`, code)
	return err
}
