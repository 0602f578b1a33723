package book

import (
	"context"
	"strings"
	"time"

	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/simonvc/ledgerbook/internal/store"
	"go.uber.org/zap"
)

func checkTemplateName(ctx context.Context, tx *store.Tx, name string) error {
	if name == "" || strings.TrimSpace(name) != name {
		return ledger.Illegal(ledger.CodeInvalidName, name)
	}
	exists, err := tx.TemplateExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return ledger.Illegal(ledger.CodeDuplicateTemplate, name)
	}
	return nil
}

// CreateBalanceSheetTemplate adds an empty template.
func (b *Book) CreateBalanceSheetTemplate(ctx context.Context, name string) error {
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		if err := checkTemplateName(ctx, tx, name); err != nil {
			return err
		}
		return tx.InsertTemplate(ctx, name)
	})
	if err != nil {
		return err
	}
	b.log.Info("balance sheet template created", zap.String("template", name))
	return nil
}

// UpdateBalanceSheetTemplate replaces every line of a template.
func (b *Book) UpdateBalanceSheetTemplate(ctx context.Context, name string, assets, liabilitiesEquity []ledger.BalanceSheetLine) error {
	t := ledger.BalanceSheetTemplate{Name: name, Assets: assets, LiabilitiesEquity: liabilitiesEquity}
	if err := t.Normalize(); err != nil {
		return err
	}
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		exists, err := tx.TemplateExists(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			return ledger.NotFound(ledger.KindTemplate, name)
		}
		return tx.ReplaceTemplateLines(ctx, name, t.Lines())
	})
	if err != nil {
		return err
	}
	b.log.Info("balance sheet template updated", zap.String("template", name), zap.Int("lines", len(t.Lines())))
	return nil
}

// ImportBalanceSheetTemplate stores a parsed template, creating it when
// missing and replacing its lines otherwise.
func (b *Book) ImportBalanceSheetTemplate(ctx context.Context, t ledger.BalanceSheetTemplate) error {
	if err := t.Normalize(); err != nil {
		return err
	}
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		exists, err := tx.TemplateExists(ctx, t.Name)
		if err != nil {
			return err
		}
		if !exists {
			if err := checkTemplateName(ctx, tx, t.Name); err != nil {
				return err
			}
			if err := tx.InsertTemplate(ctx, t.Name); err != nil {
				return err
			}
		}
		return tx.ReplaceTemplateLines(ctx, t.Name, t.Lines())
	})
	if err != nil {
		return err
	}
	b.log.Info("balance sheet template imported", zap.String("template", t.Name))
	return nil
}

func (b *Book) RenameBalanceSheetTemplate(ctx context.Context, oldName, newName string) error {
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		if err := checkTemplateName(ctx, tx, newName); err != nil {
			return err
		}
		return tx.RenameTemplate(ctx, oldName, newName)
	})
	if err != nil {
		return err
	}
	b.log.Info("balance sheet template renamed", zap.String("from", oldName), zap.String("to", newName))
	return nil
}

// CopyBalanceSheetTemplate duplicates src under a new name.
func (b *Book) CopyBalanceSheetTemplate(ctx context.Context, src, dst string) error {
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		t, err := tx.GetTemplate(ctx, src)
		if err != nil {
			return err
		}
		if err := checkTemplateName(ctx, tx, dst); err != nil {
			return err
		}
		if err := tx.InsertTemplate(ctx, dst); err != nil {
			return err
		}
		return tx.ReplaceTemplateLines(ctx, dst, t.Lines())
	})
	if err != nil {
		return err
	}
	b.log.Info("balance sheet template copied", zap.String("from", src), zap.String("to", dst))
	return nil
}

func (b *Book) DeleteBalanceSheetTemplate(ctx context.Context, name string) error {
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		return tx.DeleteTemplate(ctx, name)
	})
	if err != nil {
		return err
	}
	b.log.Info("balance sheet template deleted", zap.String("template", name))
	return nil
}

// BalanceSheetTemplates lists template names.
func (b *Book) BalanceSheetTemplates(ctx context.Context) ([]string, error) {
	var out []string
	err := b.store.View(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.ListTemplates(ctx)
		return err
	})
	return out, err
}

func (b *Book) BalanceSheetTemplate(ctx context.Context, name string) (*ledger.BalanceSheetTemplate, error) {
	var t *ledger.BalanceSheetTemplate
	err := b.store.View(ctx, func(tx *store.Tx) error {
		var err error
		t, err = tx.GetTemplate(ctx, name)
		return err
	})
	return t, err
}

// BalanceSheet evaluates a template over [first day of until's year, until].
// Lines are evaluated in template order; a reference to a line that has not
// been evaluated yet reads zero.
func (b *Book) BalanceSheet(ctx context.Context, name string, until time.Time) (*ledger.BalanceSheet, error) {
	until = ledger.Day(until)
	from := ledger.FirstDayOfYear(until)
	var sheet *ledger.BalanceSheet
	err := b.store.View(ctx, func(tx *store.Tx) error {
		t, err := tx.GetTemplate(ctx, name)
		if err != nil {
			return err
		}
		s, err := takeSnapshot(ctx, tx, from, until)
		if err != nil {
			return err
		}
		sheet, err = evaluateBalanceSheet(*t, s, from, until)
		return err
	})
	return sheet, err
}

type lineTotals struct {
	beginning, ending ledger.Amount
}

func evaluateBalanceSheet(t ledger.BalanceSheetTemplate, s *snapshot, from, until time.Time) (*ledger.BalanceSheet, error) {
	sheet := &ledger.BalanceSheet{Template: t.Name, From: from, Until: until}
	computed := make(map[int]lineTotals)

	eval := func(l ledger.BalanceSheetLine) (ledger.BalanceSheetRow, error) {
		row := ledger.BalanceSheetRow{BalanceSheetLine: l}
		if l.Formula == "" {
			return row, nil
		}
		terms, err := ledger.ParseFormula(l.Formula)
		if err != nil {
			return row, err
		}
		var tot lineTotals
		for _, term := range terms {
			var begin, end ledger.Amount
			if term.IsLine() {
				ref := computed[term.Line]
				begin, end = ref.beginning, ref.ending
			} else {
				i, ok := s.tree.byQualname(term.Qualname)
				if !ok {
					return row, ledger.Illegal(ledger.CodeUnknownFormulaAccount, term.Qualname)
				}
				bal := s.balancesAt(i)
				begin, end = bal.BeginningLocal, bal.EndingLocal
			}
			if term.Sign < 0 {
				begin, end = begin.Neg(), end.Neg()
			}
			tot.beginning = tot.beginning.Add(begin)
			tot.ending = tot.ending.Add(end)
		}
		if l.LineNumber != nil {
			computed[*l.LineNumber] = tot
		}
		row.Beginning, row.Ending = ptr(tot.beginning), ptr(tot.ending)
		return row, nil
	}

	for _, l := range t.Assets {
		row, err := eval(l)
		if err != nil {
			return nil, err
		}
		sheet.Assets = append(sheet.Assets, row)
	}
	for _, l := range t.LiabilitiesEquity {
		row, err := eval(l)
		if err != nil {
			return nil, err
		}
		sheet.LiabilitiesEquity = append(sheet.LiabilitiesEquity, row)
	}
	return sheet, nil
}
