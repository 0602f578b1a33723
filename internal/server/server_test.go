package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/simonvc/ledgerbook/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newTestServer(t *testing.T) (*httptest.Server, *book.Book) {
	t.Helper()
	log := zaptest.NewLogger(t)
	b, err := book.New(context.Background(), filepath.Join(t.TempDir(), "api.db"), book.NewParams{
		Company:  "接口",
		Standard: ledger.StandardEnterprise2018,
		Month:    ledger.Date(2024, time.January, 1),
	}, book.WithLogger(log))
	require.NoError(t, err)
	srv := httptest.NewServer(New(b, "", log).Handler())
	t.Cleanup(func() {
		srv.Close()
		b.Close()
	})
	return srv, b
}

// call sends body as JSON and decodes the response into out when non-nil.
func call(t *testing.T, srv *httptest.Server, method, path string, body, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func voucherPath(number string) string {
	return "/api/v1/vouchers/" + url.PathEscape(number)
}

func TestMeta(t *testing.T) {
	srv, _ := newTestServer(t)

	var m ledger.Meta
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/meta", nil, &m))
	assert.Equal(t, "接口", m.Company)

	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/api/v1/meta/forward", nil, &m))
	assert.Equal(t, "2024-02", ledger.FormatMonth(m.MonthUntil))
}

func TestErrorStatusMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	var created ledger.Account
	status := call(t, srv, http.MethodPost, "/api/v1/accounts",
		createAccountRequest{ParentCode: "1002.01", Code: "1002.01.05", Name: "xxx"}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "银行存款/基本存款账户/xxx", created.Qualname)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   ledger.Code
	}{
		{"not found", http.MethodGet, "/api/v1/accounts/9999", nil, http.StatusNotFound, ""},
		{"duplicate", http.MethodPost, "/api/v1/accounts",
			createAccountRequest{ParentCode: "1002.01", Code: "1002.01.05", Name: "yyy"}, http.StatusConflict, ledger.CodeDuplicateAccountCode},
		{"rule violation", http.MethodDelete, "/api/v1/accounts/1002", nil, http.StatusUnprocessableEntity, ledger.CodeProtectedAccount},
		{"branch currency", http.MethodPut, "/api/v1/accounts/1002/currency",
			setCurrencyRequest{Currency: ledger.LocalCurrencyName}, http.StatusUnprocessableEntity, ledger.CodeBranchCurrency},
		{"bad date", http.MethodGet, "/api/v1/reports/trial-balance?until=yesterday", nil, http.StatusBadRequest, ""},
		{"unknown closing", http.MethodGet, "/api/v1/closing/quarter-end?month=2024-01", nil, http.StatusBadRequest, ""},
		{"missing month", http.MethodGet, "/api/v1/closing/month-end", nil, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp errorResponse
			assert.Equal(t, tt.status, call(t, srv, tt.method, tt.path, tt.body, &resp))
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Client().Post(srv.URL+"/api/v1/currencies", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVoucherLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, code := range []string{"1001", "6602"} {
		require.Equal(t, http.StatusOK, call(t, srv, http.MethodPut, "/api/v1/accounts/"+code+"/currency",
			setCurrencyRequest{Currency: ledger.LocalCurrencyName}, nil))
	}

	var v ledger.Voucher
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/v1/vouchers",
		createVoucherRequest{Date: "2024-01-08", Note: "办公用品"}, &v))
	assert.Equal(t, "2024-01/0001", v.Number)
	assert.Equal(t, ledger.CategoryPosting, v.Category)

	// Entries without a currency post in the account's currency.
	status := call(t, srv, http.MethodPut, voucherPath(v.Number)+"/entries", entriesRequest{
		Debits:  []ledger.Entry{{AccountCode: "6602", Amount: ledger.MustParseAmount("120")}},
		Credits: []ledger.Entry{{AccountCode: "1001", Amount: ledger.MustParseAmount("120")}},
	}, &v)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, v.Debits, 1)
	assert.Equal(t, ledger.LocalCurrencyName, v.Debits[0].Currency)
	assert.True(t, v.Balanced())

	var resp errorResponse
	status = call(t, srv, http.MethodPut, voucherPath(v.Number)+"/entries", entriesRequest{
		Debits:  []ledger.Entry{{AccountCode: "6602", Amount: ledger.MustParseAmount("120")}},
		Credits: []ledger.Entry{{AccountCode: "1001", Amount: ledger.MustParseAmount("100")}},
	}, &resp)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, ledger.CodeDebitCreditMismatch, resp.Code)

	var got ledger.Voucher
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, voucherPath("2024-01/0001"), nil, &got))
	assert.Equal(t, "120.00", got.Credits[0].Amount.Plain())

	note, number := "改", "2024-01/0005"
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPatch, voucherPath("2024-01/0001"),
		patchVoucherRequest{Note: &note, Number: &number}, &got))
	assert.Equal(t, "2024-01/0005", got.Number)
	assert.Equal(t, "改", got.Note)

	var renumbered map[string]int
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/api/v1/vouchers/renumber?month=2024-01", nil, &renumbered))
	assert.Equal(t, 1, renumbered["renumbered"])

	var list []ledger.Voucher
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/vouchers?month=2024-01", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "2024-01/0001", list[0].Number)

	assert.Equal(t, http.StatusNoContent, call(t, srv, http.MethodDelete, voucherPath("2024-01/0001"), nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, voucherPath("2024-01/0001"), nil, &resp))
}

func TestPatchVoucherIsAtomic(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, number := range []string{"2024-01/0001", "2024-01/0002"} {
		require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/v1/vouchers",
			createVoucherRequest{Number: number, Date: "2024-01-08", Note: "原"}, nil))
	}

	date, note, number := "2024-01-20", "改", "2024-01/0002"
	var resp errorResponse
	status := call(t, srv, http.MethodPatch, voucherPath("2024-01/0001"),
		patchVoucherRequest{Date: &date, Note: &note, Number: &number}, &resp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, ledger.CodeDuplicateVoucher, resp.Code)

	var got ledger.Voucher
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, voucherPath("2024-01/0001"), nil, &got))
	assert.Equal(t, "原", got.Note)
	assert.True(t, got.Date.Equal(ledger.Date(2024, time.January, 8)), got.Date)

	date = "2024-02-01"
	status = call(t, srv, http.MethodPatch, voucherPath("2024-01/0001"),
		patchVoucherRequest{Date: &date, Note: &note}, &resp)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, voucherPath("2024-01/0001"), nil, &got))
	assert.Equal(t, "原", got.Note)
}

func TestTouchAccountsLogsFailures(t *testing.T) {
	_, b := newTestServer(t)
	s := New(b, "", zaptest.NewLogger(t))
	require.NoError(t, b.Close())

	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))
	s.touchAccounts(ctx, []ledger.Entry{{AccountCode: "1001"}, {AccountCode: "6001"}})

	entries := logs.FilterMessage("touch account failed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "1001", entries[0].ContextMap()["account"])
	assert.Equal(t, "6001", entries[1].ContextMap()["account"])
}

func TestClosingPreviewAndApply(t *testing.T) {
	srv, b := newTestServer(t)
	ctx := context.Background()
	for _, code := range []string{"1001", "6602"} {
		require.NoError(t, b.SetAccountCurrency(ctx, code, ledger.LocalCurrencyName, false))
	}
	_, err := b.CreateVoucher(ctx, "2024-01/0001", ledger.Date(2024, time.January, 8), ledger.CategoryPosting, "")
	require.NoError(t, err)
	local := func(code string) []ledger.Entry {
		return []ledger.Entry{{AccountCode: code, Currency: ledger.LocalCurrencyName, Amount: ledger.MustParseAmount("80"), ExchangeRate: ledger.OneRate}}
	}
	require.NoError(t, b.UpdateDebitCreditEntries(ctx, "2024-01/0001", local("6602"), local("1001")))

	var pv book.Preview
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/closing/month-end?month=2024-01", nil, &pv))
	assert.False(t, pv.UpToDate)
	assert.Equal(t, "2024-01/MECF", pv.Proposal.Number)
	require.Len(t, pv.Proposal.Credits, 1)
	assert.Equal(t, "6602", pv.Proposal.Credits[0].AccountCode)

	var v ledger.Voucher
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/api/v1/closing/month-end?month=2024-01", nil, &v))
	assert.Equal(t, ledger.CategoryMonthEnd, v.Category)

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/closing/month-end?month=2024-01", nil, &pv))
	assert.True(t, pv.UpToDate)

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/closing/year-end?year=2024", nil, &pv))
	assert.Equal(t, "2024-12/YECF", pv.Proposal.Number)

	// Nothing to revalue: applying an empty proposal writes nothing.
	assert.Equal(t, http.StatusNoContent,
		call(t, srv, http.MethodPost, "/api/v1/closing/exchange-gains-losses?month=2024-01", nil, nil))
}

func TestReports(t *testing.T) {
	srv, _ := newTestServer(t)

	var bal ledger.Balances
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/reports/balances/1002?until=2024-01-31", nil, &bal))
	assert.Equal(t, "1002", bal.AccountCode)
	assert.True(t, bal.EndingLocal.IsZero())

	var sheet ledger.BalanceSheet
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/reports/balance-sheet?until=2024-01-31", nil, &sheet))
	assert.NotEmpty(t, sheet.Assets)
	assert.NotEmpty(t, sheet.LiabilitiesEquity)

	var resp errorResponse
	assert.Equal(t, http.StatusNotFound,
		call(t, srv, http.MethodGet, "/api/v1/reports/balance-sheet?template="+url.QueryEscape("没有"), nil, &resp))
}

func TestCurrencyRates(t *testing.T) {
	srv, _ := newTestServer(t)
	path := "/api/v1/currencies/" + url.PathEscape("美元")

	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/v1/currencies", map[string]string{"name": "美元"}, nil))
	var resp errorResponse
	assert.Equal(t, http.StatusConflict, call(t, srv, http.MethodPost, "/api/v1/currencies", map[string]string{"name": "美元"}, &resp))
	assert.Equal(t, ledger.CodeDuplicateCurrency, resp.Code)

	var rates []ledger.ExchangeRate
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, path+"/rates", nil, &rates))
	assert.Len(t, rates, 1)

	assert.Equal(t, http.StatusUnprocessableEntity,
		call(t, srv, http.MethodDelete, "/api/v1/currencies/"+url.PathEscape(ledger.LocalCurrencyName), nil, &resp))
	assert.Equal(t, ledger.CodeLocalCurrency, resp.Code)

	assert.Equal(t, http.StatusNoContent, call(t, srv, http.MethodDelete, path, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, path, nil, &resp))
}
