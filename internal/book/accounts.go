package book

import (
	"context"
	"errors"
	"strings"

	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/simonvc/ledgerbook/internal/store"
	"go.uber.org/zap"
)

// CreateAccount adds a custom account under parentCode. The new account
// inherits its parent's major category and direction.
func (b *Book) CreateAccount(ctx context.Context, parentCode, code, name string) (*ledger.Account, error) {
	if err := ledger.ValidateChildCode(parentCode, code); err != nil {
		return nil, err
	}
	if name == "" || strings.ContainsAny(name, "/+-") || strings.TrimSpace(name) != name {
		return nil, ledger.Illegal(ledger.CodeInvalidName, name)
	}

	var acct *ledger.Account
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		parent, err := tx.GetAccount(ctx, parentCode)
		if errors.Is(err, ledger.ErrNotFound) {
			return ledger.Illegal(ledger.CodeParentNotFound, parentCode)
		}
		if err != nil {
			return err
		}
		if parent.HasCurrency() {
			return ledger.Illegal(ledger.CodeParentHasCurrency, parentCode)
		}

		_, err = tx.GetAccountByName(ctx, name)
		ok, err := found(err)
		if err != nil {
			return err
		}
		if ok {
			return ledger.Illegal(ledger.CodeDuplicateAccountName, name)
		}
		_, err = tx.GetAccount(ctx, code)
		if ok, err = found(err); err != nil {
			return err
		}
		if ok {
			return ledger.Illegal(ledger.CodeDuplicateAccountCode, code)
		}

		acct = &ledger.Account{
			Code:          code,
			Name:          name,
			Qualname:      ledger.QualifiedName(parent.Qualname, name),
			ParentCode:    parentCode,
			MajorCategory: parent.MajorCategory,
			Direction:     parent.Direction,
			IsCustom:      true,
		}
		return tx.InsertAccount(ctx, *acct)
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("account created", zap.String("code", code), zap.String("qualname", acct.Qualname))
	return acct, nil
}

// DeleteAccount removes a custom leaf account that was never activated.
func (b *Book) DeleteAccount(ctx context.Context, code string) error {
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		acct, err := tx.GetAccount(ctx, code)
		if err != nil {
			return err
		}
		if acct.HasCurrency() {
			return ledger.Illegal(ledger.CodeAccountInUse, code)
		}
		if !acct.IsCustom {
			return ledger.Illegal(ledger.CodeProtectedAccount, code)
		}
		n, err := tx.CountChildren(ctx, code)
		if err != nil {
			return err
		}
		if n > 0 {
			return ledger.Illegal(ledger.CodeAccountHasChildren, code)
		}
		if n, err = tx.CountAccountEntries(ctx, code); err != nil {
			return err
		}
		if n > 0 {
			return ledger.Illegal(ledger.CodeAccountInUse, code)
		}
		if err := tx.DeleteMRU(ctx, code); err != nil {
			return err
		}
		return tx.DeleteAccount(ctx, code)
	})
	if err != nil {
		return err
	}
	b.log.Info("account deleted", zap.String("code", code))
	return nil
}

// SetAccountCurrency activates a leaf account for posting in currency.
func (b *Book) SetAccountCurrency(ctx context.Context, code, currency string, needExchangeGainsLosses bool) error {
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		acct, err := tx.GetAccount(ctx, code)
		if err != nil {
			return err
		}
		if acct.HasCurrency() {
			return ledger.Illegal(ledger.CodeCurrencyAlreadySet, code)
		}
		n, err := tx.CountChildren(ctx, code)
		if err != nil {
			return err
		}
		if n > 0 {
			return ledger.Illegal(ledger.CodeBranchCurrency, code)
		}
		cur, err := tx.GetCurrency(ctx, currency)
		if err != nil {
			return err
		}
		if needExchangeGainsLosses && cur.IsLocal {
			return ledger.Illegal(ledger.CodeGainsLossesNotAllowed, code)
		}
		return tx.SetAccountCurrency(ctx, code, currency, needExchangeGainsLosses)
	})
	if err != nil {
		return err
	}
	b.log.Info("account currency set",
		zap.String("code", code),
		zap.String("currency", currency),
		zap.Bool("exchange_gains_losses", needExchangeGainsLosses),
	)
	return nil
}

// SetNeedExchangeGainsLosses toggles revaluation for an activated
// foreign-currency leaf.
func (b *Book) SetNeedExchangeGainsLosses(ctx context.Context, code string, need bool) error {
	return b.store.Update(ctx, func(tx *store.Tx) error {
		acct, err := tx.GetAccount(ctx, code)
		if err != nil {
			return err
		}
		if !acct.HasCurrency() {
			return ledger.Illegal(ledger.CodeGainsLossesNotAllowed, code)
		}
		if need {
			cur, err := tx.GetCurrency(ctx, acct.Currency)
			if err != nil {
				return err
			}
			if cur.IsLocal {
				return ledger.Illegal(ledger.CodeGainsLossesNotAllowed, code)
			}
		}
		return tx.SetNeedExchangeGainsLosses(ctx, code, need)
	})
}

func (b *Book) Account(ctx context.Context, code string) (*ledger.Account, error) {
	return b.viewAccount(ctx, func(tx *store.Tx) (*ledger.Account, error) { return tx.GetAccount(ctx, code) })
}

func (b *Book) AccountByName(ctx context.Context, name string) (*ledger.Account, error) {
	return b.viewAccount(ctx, func(tx *store.Tx) (*ledger.Account, error) { return tx.GetAccountByName(ctx, name) })
}

func (b *Book) AccountByQualname(ctx context.Context, qualname string) (*ledger.Account, error) {
	return b.viewAccount(ctx, func(tx *store.Tx) (*ledger.Account, error) { return tx.GetAccountByQualname(ctx, qualname) })
}

// Parent returns the parent of code, or nil for a root account.
func (b *Book) Parent(ctx context.Context, code string) (*ledger.Account, error) {
	return b.viewAccount(ctx, func(tx *store.Tx) (*ledger.Account, error) {
		acct, err := tx.GetAccount(ctx, code)
		if err != nil || acct.ParentCode == "" {
			return nil, err
		}
		return tx.GetAccount(ctx, acct.ParentCode)
	})
}

func (b *Book) viewAccount(ctx context.Context, get func(*store.Tx) (*ledger.Account, error)) (*ledger.Account, error) {
	var acct *ledger.Account
	err := b.store.View(ctx, func(tx *store.Tx) error {
		var err error
		acct, err = get(tx)
		return err
	})
	return acct, err
}

// Accounts lists every account ordered by code.
func (b *Book) Accounts(ctx context.Context) ([]ledger.Account, error) {
	var out []ledger.Account
	err := b.store.View(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.ListAccounts(ctx)
		return err
	})
	return out, err
}

func (b *Book) Children(ctx context.Context, code string) ([]ledger.Account, error) {
	var out []ledger.Account
	err := b.store.View(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetAccount(ctx, code); err != nil {
			return err
		}
		var err error
		out, err = tx.Children(ctx, code)
		return err
	})
	return out, err
}

// Subtree returns code and every account below it, in chart order.
func (b *Book) Subtree(ctx context.Context, code string) ([]ledger.Account, error) {
	var out []ledger.Account
	err := b.store.View(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetAccount(ctx, code); err != nil {
			return err
		}
		all, err := tx.ListAccounts(ctx)
		if err != nil {
			return err
		}
		for _, a := range all {
			if a.Code == code || ledger.IsDescendantCode(code, a.Code) {
				out = append(out, a)
			}
		}
		return nil
	})
	return out, err
}

// TouchAccount records one use of an account for TopAccounts.
func (b *Book) TouchAccount(ctx context.Context, code string) error {
	return b.store.Update(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetAccount(ctx, code); err != nil {
			return err
		}
		return tx.TouchMRU(ctx, code)
	})
}

// TopAccounts returns up to n most used accounts.
func (b *Book) TopAccounts(ctx context.Context, n int) ([]ledger.Account, error) {
	var out []ledger.Account
	err := b.store.View(ctx, func(tx *store.Tx) error {
		top, err := tx.TopMRU(ctx, n)
		if err != nil {
			return err
		}
		for _, m := range top {
			acct, err := tx.GetAccount(ctx, m.AccountCode)
			if ok, ferr := found(err); ferr != nil {
				return ferr
			} else if ok {
				out = append(out, *acct)
			}
		}
		return nil
	})
	return out, err
}
