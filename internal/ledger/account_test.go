package ledger

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCode(t *testing.T) {
	for _, c := range []string{"1", "1002", "1002.01", "1002.01.05", "0.0"} {
		assert.True(t, ValidCode(c), c)
	}
	for _, c := range []string{"", " ", ".1002", "1002.", "1002..01", "10a2", " 1002", "1002.-1"} {
		assert.False(t, ValidCode(c), c)
	}
}

func TestValidateChildCode(t *testing.T) {
	assert.NoError(t, ValidateChildCode("1002.01", "1002.01.05"))

	for _, tc := range [][2]string{
		{"1002.01", "1002.02.05"},
		{"1002", "1002.01.05"},
		{"1002.01.", "1002.01.05"},
		{"1002.01", "1002.01.x"},
	} {
		err := ValidateChildCode(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrAccountCodeFormat, "%s -> %s", tc[0], tc[1])
	}
}

func TestParentCodeAndQualname(t *testing.T) {
	assert.Equal(t, "1002.01", ParentCode("1002.01.05"))
	assert.Equal(t, "", ParentCode("1002"))
	assert.Equal(t, "银行存款", QualifiedName("", "银行存款"))
	assert.Equal(t, "银行存款/基本存款账户", QualifiedName("银行存款", "基本存款账户"))
	assert.True(t, IsDescendantCode("1002", "1002.01.05"))
	assert.False(t, IsDescendantCode("100", "1002"))
}

func TestCompareCodes(t *testing.T) {
	codes := []string{"1002.10", "2001", "1002", "1002.2", "1001", "1002.01"}
	slices.SortFunc(codes, CompareCodes)
	assert.Equal(t, []string{"1001", "1002", "1002.01", "1002.2", "1002.10", "2001"}, codes)
}
