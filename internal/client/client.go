// Package client is a typed client for the ledgerbook HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/simonvc/ledgerbook/internal/ledger"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response. It unwraps to the matching ledger error so
// callers can use errors.Is with the ledger sentinels.
type APIError struct {
	Status  int
	Message string
	Code    ledger.Code
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return ledger.ErrNotFound
	case e.Code != "":
		return ledger.Illegal(e.Code, "")
	}
	return nil
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/api/v1/meta", nil, nil)
}

func (c *Client) Meta(ctx context.Context) (*ledger.Meta, error) {
	var m ledger.Meta
	if err := c.get(ctx, "/api/v1/meta", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Accounts(ctx context.Context) ([]ledger.Account, error) {
	var out []ledger.Account
	if err := c.get(ctx, "/api/v1/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) IncurredBalances(ctx context.Context, code string, from, until time.Time) (*ledger.Balances, error) {
	var out ledger.Balances
	if err := c.get(ctx, "/api/v1/reports/balances/"+url.PathEscape(code), window(from, until), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TrialBalance(ctx context.Context, from, until time.Time) ([]ledger.Balances, error) {
	var out []ledger.Balances
	if err := c.get(ctx, "/api/v1/reports/trial-balance", window(from, until), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BalanceSheet(ctx context.Context, template string, until time.Time) (*ledger.BalanceSheet, error) {
	params := url.Values{"until": {ledger.FormatDate(until)}}
	if template != "" {
		params.Set("template", template)
	}
	var out ledger.BalanceSheet
	if err := c.get(ctx, "/api/v1/reports/balance-sheet", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BalanceSheetTemplates(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.get(ctx, "/api/v1/templates", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Voucher fetches one voucher; numbers may contain "/".
func (c *Client) Voucher(ctx context.Context, number string) (*ledger.Voucher, error) {
	var out ledger.Voucher
	if err := c.get(ctx, "/api/v1/vouchers/"+url.PathEscape(number), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func window(from, until time.Time) url.Values {
	return url.Values{
		"from":  {ledger.FormatDate(from)},
		"until": {ledger.FormatDate(until)},
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, result)
}

type apiError struct {
	Error string      `json:"error"`
	Code  ledger.Code `json:"code"`
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var body apiError
		if json.Unmarshal(bodyBytes, &body) == nil && body.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: body.Error, Code: body.Code}
		}
		return &APIError{Status: resp.StatusCode, Message: string(bodyBytes)}
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
