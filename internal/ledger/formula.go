package ledger

import (
	"strconv"
	"strings"
	"unicode"
)

// FormulaTerm is one signed token of a balance sheet formula. A term refers
// either to another line (Line > 0) or to an account by qualified name.
type FormulaTerm struct {
	Sign     int    `json:"sign"`
	Line     int    `json:"line,omitempty"`
	Qualname string `json:"qualname,omitempty"`
}

func (t FormulaTerm) IsLine() bool { return t.Qualname == "" }

// ParseFormula splits a formula such as "1+2-应付账款" into signed terms.
// Whitespace is ignored and a leading unsigned term counts as positive.
// An empty formula yields no terms.
func ParseFormula(formula string) ([]FormulaTerm, error) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, formula)
	if s == "" {
		return nil, nil
	}

	var terms []FormulaTerm
	rest := s
	for rest != "" {
		sign := 1
		switch rest[0] {
		case '+':
			rest = rest[1:]
		case '-':
			sign = -1
			rest = rest[1:]
		}
		end := strings.IndexAny(rest, "+-")
		if end < 0 {
			end = len(rest)
		}
		token := rest[:end]
		rest = rest[end:]
		if token == "" {
			return nil, Illegal(CodeMalformedFormula, formula)
		}

		term := FormulaTerm{Sign: sign}
		if isDigits(token) {
			n, err := strconv.Atoi(token)
			if err != nil || n <= 0 {
				return nil, Illegal(CodeMalformedFormula, formula)
			}
			term.Line = n
		} else {
			term.Qualname = token
		}
		terms = append(terms, term)
	}
	return terms, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
