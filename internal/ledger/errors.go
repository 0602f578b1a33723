package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalOperation matches every business-rule violation, including
	// EntryNotFound.
	ErrIllegalOperation = errors.New("illegal operation")
	// ErrNotFound matches every EntryNotFound.
	ErrNotFound = errors.New("entry not found")
)

// Code identifies one business rule. Codes are stable and part of the API.
type Code string

const (
	CodeDuplicateAccountCode   Code = "A1.1/2"
	CodeProtectedAccount       Code = "A1.1/5"
	CodeParentNotFound         Code = "A1.2.1/2"
	CodeParentHasCurrency      Code = "A1.2.1/4"
	CodeAccountInUse           Code = "A1.2.1/5"
	CodeAccountHasChildren     Code = "A1.2.1/6"
	CodeDuplicateAccountName   Code = "A1.2.1/8"
	CodeAccountCodeFormat      Code = "A1.2.1.2/1"
	CodeCurrencyAlreadySet     Code = "A2.1/1"
	CodeCurrencyInUse          Code = "A2.1/2"
	CodeRateInUse              Code = "A2.1/3"
	CodeBranchCurrency         Code = "A2.1/4"
	CodeGainsLossesNotAllowed  Code = "A2.1/5"
	CodeLocalCurrency          Code = "A2.2/1"
	CodeDuplicateCurrency      Code = "A2.2/2"
	CodeInvalidRate            Code = "A2.2/3"
	CodeDuplicateRate          Code = "A2.2/6"
	CodeEntryAccountCurrency   Code = "A3.2/1"
	CodeDebitCreditMismatch    Code = "A3.2/2"
	CodeInvalidEntry           Code = "A3.2/3"
	CodeDuplicateVoucher       Code = "A3.2/4"
	CodeVoucherDate            Code = "A3.2/5"
	CodeMalformedFormula       Code = "A5.1/1"
	CodeUnknownFormulaAccount  Code = "A5.1/2"
	CodeDuplicateTemplate      Code = "A5.1/3"
	CodeInvalidName            Code = "A0.1/1"
	CodeInvalidStandard        Code = "A6.1/1"
	CodeInvalidVoucherCategory Code = "A6.1/2"
)

var codeText = map[Code]string{
	CodeDuplicateAccountCode:   "account code already exists",
	CodeProtectedAccount:       "standard accounts cannot be deleted",
	CodeParentNotFound:         "parent account not found",
	CodeParentHasCurrency:      "parent account has a currency",
	CodeAccountInUse:           "account has a currency or entries",
	CodeAccountHasChildren:     "account has child accounts",
	CodeDuplicateAccountName:   "account name already exists",
	CodeAccountCodeFormat:      "malformed account code or parent mismatch",
	CodeCurrencyAlreadySet:     "account currency already set",
	CodeCurrencyInUse:          "currency is used by accounts",
	CodeRateInUse:              "exchange rate is referenced by entries",
	CodeBranchCurrency:         "accounts with children cannot hold a currency",
	CodeGainsLossesNotAllowed:  "exchange gains and losses not applicable",
	CodeLocalCurrency:          "local currency is protected",
	CodeDuplicateCurrency:      "currency already exists",
	CodeInvalidRate:            "exchange rate must be positive",
	CodeDuplicateRate:          "exchange rate already exists at that date",
	CodeEntryAccountCurrency:   "entry account has no currency",
	CodeDebitCreditMismatch:    "debit and credit totals differ",
	CodeInvalidEntry:           "entry amount and rate must be positive",
	CodeDuplicateVoucher:       "voucher number already exists",
	CodeVoucherDate:            "voucher date outside its month",
	CodeMalformedFormula:       "malformed formula",
	CodeUnknownFormulaAccount:  "formula references an unknown account",
	CodeDuplicateTemplate:      "balance sheet template already exists",
	CodeInvalidName:            "invalid name",
	CodeInvalidStandard:        "unknown accounting standard",
	CodeInvalidVoucherCategory: "unknown voucher category",
}

// Sentinels for errors.Is. They match any IllegalOperation with the same code.
var (
	ErrDuplicateAccountCode   = &IllegalOperation{Code: CodeDuplicateAccountCode}
	ErrProtectedAccount       = &IllegalOperation{Code: CodeProtectedAccount}
	ErrParentNotFound         = &IllegalOperation{Code: CodeParentNotFound}
	ErrParentHasCurrency      = &IllegalOperation{Code: CodeParentHasCurrency}
	ErrAccountInUse           = &IllegalOperation{Code: CodeAccountInUse}
	ErrAccountHasChildren     = &IllegalOperation{Code: CodeAccountHasChildren}
	ErrDuplicateAccountName   = &IllegalOperation{Code: CodeDuplicateAccountName}
	ErrAccountCodeFormat      = &IllegalOperation{Code: CodeAccountCodeFormat}
	ErrCurrencyAlreadySet     = &IllegalOperation{Code: CodeCurrencyAlreadySet}
	ErrCurrencyInUse          = &IllegalOperation{Code: CodeCurrencyInUse}
	ErrRateInUse              = &IllegalOperation{Code: CodeRateInUse}
	ErrBranchCurrency         = &IllegalOperation{Code: CodeBranchCurrency}
	ErrGainsLossesNotAllowed  = &IllegalOperation{Code: CodeGainsLossesNotAllowed}
	ErrLocalCurrency          = &IllegalOperation{Code: CodeLocalCurrency}
	ErrDuplicateCurrency      = &IllegalOperation{Code: CodeDuplicateCurrency}
	ErrInvalidRate            = &IllegalOperation{Code: CodeInvalidRate}
	ErrDuplicateRate          = &IllegalOperation{Code: CodeDuplicateRate}
	ErrEntryAccountCurrency   = &IllegalOperation{Code: CodeEntryAccountCurrency}
	ErrDebitCreditMismatch    = &IllegalOperation{Code: CodeDebitCreditMismatch}
	ErrInvalidEntry           = &IllegalOperation{Code: CodeInvalidEntry}
	ErrDuplicateVoucher       = &IllegalOperation{Code: CodeDuplicateVoucher}
	ErrVoucherDate            = &IllegalOperation{Code: CodeVoucherDate}
	ErrMalformedFormula       = &IllegalOperation{Code: CodeMalformedFormula}
	ErrUnknownFormulaAccount  = &IllegalOperation{Code: CodeUnknownFormulaAccount}
	ErrDuplicateTemplate      = &IllegalOperation{Code: CodeDuplicateTemplate}
	ErrInvalidName            = &IllegalOperation{Code: CodeInvalidName}
	ErrInvalidStandard        = &IllegalOperation{Code: CodeInvalidStandard}
	ErrInvalidVoucherCategory = &IllegalOperation{Code: CodeInvalidVoucherCategory}
)

// IllegalOperation is a business-rule violation. Subject names the offending
// account code, currency, voucher number or similar.
type IllegalOperation struct {
	Code    Code
	Subject string
}

// Illegal builds an IllegalOperation for code about subject.
func Illegal(code Code, subject string) error {
	return &IllegalOperation{Code: code, Subject: subject}
}

func (e *IllegalOperation) Error() string {
	msg := codeText[e.Code]
	if msg == "" {
		msg = "illegal operation"
	}
	if e.Subject == "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, msg, e.Subject)
}

func (e *IllegalOperation) Is(target error) bool {
	if target == ErrIllegalOperation {
		return true
	}
	t, ok := target.(*IllegalOperation)
	return ok && t.Code == e.Code && (t.Subject == "" || t.Subject == e.Subject)
}

// Kind names the entity an EntryNotFound refers to.
type Kind string

const (
	KindAccount  Kind = "account"
	KindCurrency Kind = "currency"
	KindRate     Kind = "exchange rate"
	KindVoucher  Kind = "voucher"
	KindTemplate Kind = "balance sheet template"
)

// EntryNotFound reports a missing entity by lookup key. It also satisfies
// errors.Is(err, ErrIllegalOperation).
type EntryNotFound struct {
	Kind Kind
	Key  string
}

func NotFound(kind Kind, key string) error {
	return &EntryNotFound{Kind: kind, Key: key}
}

var (
	ErrAccountNotFound  = &EntryNotFound{Kind: KindAccount}
	ErrCurrencyNotFound = &EntryNotFound{Kind: KindCurrency}
	ErrRateNotFound     = &EntryNotFound{Kind: KindRate}
	ErrVoucherNotFound  = &EntryNotFound{Kind: KindVoucher}
	ErrTemplateNotFound = &EntryNotFound{Kind: KindTemplate}
)

func (e *EntryNotFound) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func (e *EntryNotFound) Is(target error) bool {
	if target == ErrIllegalOperation || target == ErrNotFound {
		return true
	}
	t, ok := target.(*EntryNotFound)
	return ok && t.Kind == e.Kind && (t.Key == "" || t.Key == e.Key)
}

// CodeOf returns the rule code carried by err, or "" when err is not an
// IllegalOperation.
func CodeOf(err error) Code {
	var op *IllegalOperation
	if errors.As(err, &op) {
		return op.Code
	}
	return ""
}
