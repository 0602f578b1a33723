package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIllegalOperationMatching(t *testing.T) {
	err := fmt.Errorf("post voucher: %w", Illegal(CodeDebitCreditMismatch, "2024-01/0001"))

	assert.ErrorIs(t, err, ErrIllegalOperation)
	assert.ErrorIs(t, err, ErrDebitCreditMismatch)
	assert.NotErrorIs(t, err, ErrInvalidEntry)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, CodeDebitCreditMismatch, CodeOf(err))
	assert.Equal(t, "A3.2/2: debit and credit totals differ: 2024-01/0001", Illegal(CodeDebitCreditMismatch, "2024-01/0001").Error())
	assert.Equal(t, Code(""), CodeOf(errors.New("disk full")))
}

func TestEntryNotFound(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound(KindAccount, "9999"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrIllegalOperation)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.NotErrorIs(t, err, ErrVoucherNotFound)
	assert.EqualError(t, NotFound(KindAccount, "9999"), "account not found: 9999")
	assert.EqualError(t, NotFound(KindTemplate, ""), "balance sheet template not found")

	var nf *EntryNotFound
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, "9999", nf.Key)
}
