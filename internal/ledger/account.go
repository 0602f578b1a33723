package ledger

import (
	"strconv"
	"strings"
)

// Direction is the normal-balance side of an account.
type Direction string

const (
	DirectionDebit  Direction = "借"
	DirectionCredit Direction = "贷"
)

func (d Direction) Valid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

type Account struct {
	Code                    string    `json:"code"`
	Name                    string    `json:"name"`
	Qualname                string    `json:"qualname"`
	ParentCode              string    `json:"parent_code,omitempty"`
	MajorCategory           string    `json:"major_category"`
	Direction               Direction `json:"direction"`
	IsCustom                bool      `json:"is_custom"`
	Currency                string    `json:"currency,omitempty"`
	NeedExchangeGainsLosses bool      `json:"need_exchange_gains_losses"`
}

// HasCurrency reports whether the account has been activated as a posting leaf.
func (a Account) HasCurrency() bool {
	return a.Currency != ""
}

// QualifiedName joins a parent qualname and a child name.
func QualifiedName(parentQualname, name string) string {
	if parentQualname == "" {
		return name
	}
	return parentQualname + "/" + name
}

// ValidCode reports whether code is a non-empty sequence of dot-separated
// non-negative integers, e.g. "1002.01.05".
func ValidCode(code string) bool {
	if strings.TrimSpace(code) == "" || code != strings.TrimSpace(code) {
		return false
	}
	for _, seg := range strings.Split(code, ".") {
		if seg == "" {
			return false
		}
		for _, r := range seg {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// ParentCode returns code without its last segment, or "" for a root code.
func ParentCode(code string) string {
	i := strings.LastIndexByte(code, '.')
	if i < 0 {
		return ""
	}
	return code[:i]
}

// ValidateChildCode checks both codes and that parentCode is exactly code
// minus its last segment.
func ValidateChildCode(parentCode, code string) error {
	if !ValidCode(code) {
		return Illegal(CodeAccountCodeFormat, code)
	}
	if !ValidCode(parentCode) {
		return Illegal(CodeAccountCodeFormat, parentCode)
	}
	if ParentCode(code) != parentCode {
		return Illegal(CodeAccountCodeFormat, parentCode+" -> "+code)
	}
	return nil
}

// CompareCodes orders codes segment by segment numerically, so "1002.2"
// sorts before "1002.10". Equal numeric segments fall back to string order.
func CompareCodes(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, aerr := strconv.ParseUint(as[i], 10, 64)
		bi, berr := strconv.ParseUint(bs[i], 10, 64)
		if aerr == nil && berr == nil && ai != bi {
			if ai < bi {
				return -1
			}
			return 1
		}
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

// IsDescendantCode reports whether code lies strictly below ancestor.
func IsDescendantCode(ancestor, code string) bool {
	return strings.HasPrefix(code, ancestor+".")
}
