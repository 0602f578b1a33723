package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/simonvc/ledgerbook/internal/ledger"
)

const accountColumns = `a.code, a.name, a.qualname, COALESCE(p.code, ''), a.major_category, a.direction,
	a.is_custom, COALESCE(c.name, ''), a.need_exchange_gains_losses
	FROM accounts a
	LEFT JOIN accounts p ON p.id = a.parent_id
	LEFT JOIN currencies c ON c.id = a.currency_id`

// InsertAccount stores acct. ParentCode and Currency are resolved to rows;
// an empty value stores NULL.
func (t *Tx) InsertAccount(ctx context.Context, acct ledger.Account) error {
	_, err := t.exec(ctx, "insert account",
		`INSERT INTO accounts (code, name, qualname, parent_id, major_category, direction, is_custom, currency_id, need_exchange_gains_losses)
		VALUES (?, ?, ?,
			(SELECT id FROM accounts WHERE code = ?),
			?, ?, ?,
			(SELECT id FROM currencies WHERE name = ?),
			?)`,
		acct.Code, acct.Name, acct.Qualname, acct.ParentCode,
		acct.MajorCategory, string(acct.Direction), boolToInt(acct.IsCustom),
		acct.Currency, boolToInt(acct.NeedExchangeGainsLosses),
	)
	return err
}

func (t *Tx) GetAccount(ctx context.Context, code string) (*ledger.Account, error) {
	return t.getAccountBy(ctx, "a.code", code)
}

func (t *Tx) GetAccountByName(ctx context.Context, name string) (*ledger.Account, error) {
	return t.getAccountBy(ctx, "a.name", name)
}

func (t *Tx) GetAccountByQualname(ctx context.Context, qualname string) (*ledger.Account, error) {
	return t.getAccountBy(ctx, "a.qualname", qualname)
}

func (t *Tx) getAccountBy(ctx context.Context, column, key string) (*ledger.Account, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+accountColumns+` WHERE `+column+` = ?`, key)
	acct, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, ledger.NotFound(ledger.KindAccount, key)
	}
	return acct, err
}

// ListAccounts returns every account ordered by code segments.
func (t *Tx) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	return t.queryAccounts(ctx, `SELECT `+accountColumns)
}

// Children returns the direct children of code ordered by code segments.
func (t *Tx) Children(ctx context.Context, code string) ([]ledger.Account, error) {
	return t.queryAccounts(ctx, `SELECT `+accountColumns+` WHERE p.code = ?`, code)
}

func (t *Tx) queryAccounts(ctx context.Context, query string, args ...any) ([]ledger.Account, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.SortFunc(accounts, func(a, b ledger.Account) int {
		return ledger.CompareCodes(a.Code, b.Code)
	})
	return accounts, nil
}

func (t *Tx) CountChildren(ctx context.Context, code string) (int, error) {
	return t.count(ctx,
		`SELECT COUNT(*) FROM accounts a JOIN accounts p ON p.id = a.parent_id WHERE p.code = ?`, code)
}

// CountAccountEntries counts debit and credit entries posted to code.
func (t *Tx) CountAccountEntries(ctx context.Context, code string) (int, error) {
	return t.count(ctx, `SELECT
		(SELECT COUNT(*) FROM debit_entries e JOIN accounts a ON a.id = e.account_id WHERE a.code = ?) +
		(SELECT COUNT(*) FROM credit_entries e JOIN accounts a ON a.id = e.account_id WHERE a.code = ?)`,
		code, code)
}

func (t *Tx) SetAccountCurrency(ctx context.Context, code, currency string, needExchangeGainsLosses bool) error {
	_, err := t.exec(ctx, "set account currency",
		`UPDATE accounts SET currency_id = (SELECT id FROM currencies WHERE name = ?), need_exchange_gains_losses = ? WHERE code = ?`,
		currency, boolToInt(needExchangeGainsLosses), code)
	return err
}

func (t *Tx) SetNeedExchangeGainsLosses(ctx context.Context, code string, need bool) error {
	_, err := t.exec(ctx, "set exchange gains losses flag",
		`UPDATE accounts SET need_exchange_gains_losses = ? WHERE code = ?`, boolToInt(need), code)
	return err
}

func (t *Tx) DeleteAccount(ctx context.Context, code string) error {
	res, err := t.exec(ctx, "delete account", `DELETE FROM accounts WHERE code = ?`, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.NotFound(ledger.KindAccount, code)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*ledger.Account, error) {
	var acct ledger.Account
	var direction string
	var isCustom, needEGL int
	err := row.Scan(&acct.Code, &acct.Name, &acct.Qualname, &acct.ParentCode, &acct.MajorCategory,
		&direction, &isCustom, &acct.Currency, &needEGL)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	acct.Direction = ledger.Direction(direction)
	acct.IsCustom = isCustom == 1
	acct.NeedExchangeGainsLosses = needEGL == 1
	return &acct, nil
}
