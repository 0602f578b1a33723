package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/simonvc/ledgerbook/internal/ledger"
)

func (t *Tx) InsertTemplate(ctx context.Context, name string) error {
	_, err := t.exec(ctx, "insert balance sheet template",
		`INSERT INTO balance_sheet_templates (name) VALUES (?)`, name)
	return err
}

func (t *Tx) TemplateExists(ctx context.Context, name string) (bool, error) {
	n, err := t.count(ctx, `SELECT COUNT(*) FROM balance_sheet_templates WHERE name = ?`, name)
	return n > 0, err
}

func (t *Tx) ListTemplates(ctx context.Context) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT name FROM balance_sheet_templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list balance sheet templates: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan template name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetTemplate loads a template with its lines in authoring order.
func (t *Tx) GetTemplate(ctx context.Context, name string) (*ledger.BalanceSheetTemplate, error) {
	ok, err := t.TemplateExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ledger.NotFound(ledger.KindTemplate, name)
	}

	rows, err := t.tx.QueryContext(ctx, `SELECT e.category, e.item, e.line_number, e.formula
		FROM balance_sheet_entries e
		JOIN balance_sheet_templates t ON t.id = e.template_id
		WHERE t.name = ? ORDER BY e.position`, name)
	if err != nil {
		return nil, fmt.Errorf("get balance sheet template: %w", err)
	}
	defer rows.Close()

	tmpl := &ledger.BalanceSheetTemplate{Name: name}
	for rows.Next() {
		var l ledger.BalanceSheetLine
		var category string
		var line sql.NullInt64
		if err := rows.Scan(&category, &l.Item, &line, &l.Formula); err != nil {
			return nil, fmt.Errorf("scan balance sheet entry: %w", err)
		}
		l.Category = ledger.BalanceSheetCategory(category)
		if line.Valid {
			n := int(line.Int64)
			l.LineNumber = &n
		}
		if l.Category == ledger.SectionAssets {
			tmpl.Assets = append(tmpl.Assets, l)
		} else {
			tmpl.LiabilitiesEquity = append(tmpl.LiabilitiesEquity, l)
		}
	}
	return tmpl, rows.Err()
}

// ReplaceTemplateLines swaps every line of the named template for lines.
func (t *Tx) ReplaceTemplateLines(ctx context.Context, name string, lines []ledger.BalanceSheetLine) error {
	if _, err := t.exec(ctx, "clear balance sheet entries", `DELETE FROM balance_sheet_entries
		WHERE template_id = (SELECT id FROM balance_sheet_templates WHERE name = ?)`, name); err != nil {
		return err
	}
	for i, l := range lines {
		var line any
		if l.LineNumber != nil {
			line = *l.LineNumber
		}
		if _, err := t.exec(ctx, "insert balance sheet entry", `INSERT INTO balance_sheet_entries
			(template_id, position, category, item, line_number, formula)
			VALUES ((SELECT id FROM balance_sheet_templates WHERE name = ?), ?, ?, ?, ?, ?)`,
			name, i, string(l.Category), l.Item, line, l.Formula); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) RenameTemplate(ctx context.Context, oldName, newName string) error {
	res, err := t.exec(ctx, "rename balance sheet template",
		`UPDATE balance_sheet_templates SET name = ? WHERE name = ?`, newName, oldName)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.NotFound(ledger.KindTemplate, oldName)
	}
	return nil
}

func (t *Tx) DeleteTemplate(ctx context.Context, name string) error {
	res, err := t.exec(ctx, "delete balance sheet template",
		`DELETE FROM balance_sheet_templates WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.NotFound(ledger.KindTemplate, name)
	}
	return nil
}
