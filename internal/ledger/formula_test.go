package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormula(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		want    []FormulaTerm
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"lines", "1+2+3", []FormulaTerm{{Sign: 1, Line: 1}, {Sign: 1, Line: 2}, {Sign: 1, Line: 3}}},
		{"leading minus", "-应付账款", []FormulaTerm{{Sign: -1, Qualname: "应付账款"}}},
		{"leading plus", "+10-银行存款/基本存款账户", []FormulaTerm{
			{Sign: 1, Line: 10},
			{Sign: -1, Qualname: "银行存款/基本存款账户"},
		}},
		{"spaces", " 固定资产 + 累计折旧 ", []FormulaTerm{
			{Sign: 1, Qualname: "固定资产"},
			{Sign: 1, Qualname: "累计折旧"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormula(tt.formula)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormulaMalformed(t *testing.T) {
	for _, f := range []string{"1++2", "1+", "-", "0", "3-+x"} {
		_, err := ParseFormula(f)
		assert.ErrorIs(t, err, ErrMalformedFormula, f)
		assert.Equal(t, CodeMalformedFormula, CodeOf(err))
	}
}
