package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jointly-dev/jointly/internal/ledger"
	"github.com/jointly-dev/jointly/internal/models"
	"github.com/jointly-dev/jointly/internal/storage/memory"
)

type allowAll struct{}

func (allowAll) IsMember(ctx context.Context, accountID, userID string) (bool, error) {
	return true, nil
}

type denyAll struct{}

func (denyAll) IsMember(ctx context.Context, accountID, userID string) (bool, error) {
	return false, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.MirrorStore) {
	t.Helper()

	store := memory.NewStore()
	mirrors := memory.NewMirrorStore()
	mirrors.Put(models.MirrorAccount{AccountNumber: "777-1111", BankName: "Shinhan", Balance: decimal.NewFromInt(50_000)})

	svc := ledger.NewTransferService(store, mirrors, memory.NewLinkedMirrorStore(), nil, time.Second)
	ts := httptest.NewServer(NewServer(svc, allowAll{}).Router())
	t.Cleanup(ts.Close)
	return ts, mirrors
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func openTestAccount(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/accounts", map[string]string{
		"name":           "family fund",
		"account_number": "110-2345",
		"creator_id":     "user-mom",
		"password":       "1234",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var acct struct {
		ID      string          `json:"id"`
		Balance decimal.Decimal `json:"balance"`
		Status  string          `json:"status"`
	}
	decode(t, resp, &acct)
	require.NotEmpty(t, acct.ID)
	assert.True(t, acct.Balance.IsZero())
	assert.Equal(t, "ACTIVE", acct.Status)
	return acct.ID
}

func depositBody(accountID string, amount int64, password string) map[string]any {
	return map[string]any{
		"account_id":            accountID,
		"user_id":               "user-mom",
		"amount":                amount,
		"password":              password,
		"source_account_number": "777-1111",
		"source_bank_name":      "Shinhan",
		"description":           "allowance",
	}
}

func TestDepositAndBalance(t *testing.T) {
	ts, _ := newTestServer(t)
	accountID := openTestAccount(t, ts)

	resp := postJSON(t, ts.URL+"/transfers/deposit", depositBody(accountID, 10_000, "1234"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Transaction models.Transaction `json:"transaction"`
		Warnings    []string           `json:"warnings"`
	}
	decode(t, resp, &out)
	assert.Empty(t, out.Warnings)
	assert.True(t, out.Transaction.BalanceAfter.Equal(decimal.NewFromInt(10_000)))

	resp, err := http.Get(ts.URL + "/accounts/balance?account_id=" + accountID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bal struct {
		Balance decimal.Decimal `json:"balance"`
	}
	decode(t, resp, &bal)
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(10_000)))
}

func TestWithdrawErrorsMapToStatus(t *testing.T) {
	ts, _ := newTestServer(t)
	accountID := openTestAccount(t, ts)

	resp := postJSON(t, ts.URL+"/transfers/deposit", depositBody(accountID, 10_000, "1234"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	withdraw := func(amount int64, password string) *http.Response {
		return postJSON(t, ts.URL+"/transfers/withdraw", map[string]any{
			"account_id":            accountID,
			"user_id":               "user-mom",
			"amount":                amount,
			"password":              password,
			"target_account_number": "777-1111",
			"target_bank_name":      "Shinhan",
		})
	}

	resp = withdraw(15_000, "1234")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "insufficient balance")
	resp.Body.Close()

	resp = withdraw(1_000, "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "wrong password")
	resp.Body.Close()

	resp = withdraw(4_000, "1234")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestUnknownAccountIs404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/transfers/deposit", depositBody("no-such-id", 100, "1234"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUnknownMirrorReturnsWarningNotError(t *testing.T) {
	ts, _ := newTestServer(t)
	accountID := openTestAccount(t, ts)

	body := depositBody(accountID, 2_500, "1234")
	body["source_account_number"] = "999-UNKNOWN"

	resp := postJSON(t, ts.URL+"/transfers/deposit", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "transfer must succeed")

	var out struct {
		Warnings []string `json:"warnings"`
	}
	decode(t, resp, &out)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "999-UNKNOWN")
}

func TestTransactionsListing(t *testing.T) {
	ts, _ := newTestServer(t)
	accountID := openTestAccount(t, ts)

	for i := 0; i < 3; i++ {
		resp := postJSON(t, ts.URL+"/transfers/deposit", depositBody(accountID, 1_000, "1234"))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/transactions?account_id=" + accountID + "&limit=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Transactions  []models.Transaction `json:"transactions"`
		NextPageToken string               `json:"next_page_token"`
	}
	decode(t, resp, &out)
	assert.Len(t, out.Transactions, 2)
	require.NotEmpty(t, out.NextPageToken)

	resp, err = http.Get(ts.URL + "/transactions?account_id=" + accountID + "&limit=2&page_token=" + out.NextPageToken)
	require.NoError(t, err)
	out.Transactions, out.NextPageToken = nil, ""
	decode(t, resp, &out)
	assert.Len(t, out.Transactions, 1)
	assert.Empty(t, out.NextPageToken)
}

func TestSummary(t *testing.T) {
	ts, _ := newTestServer(t)
	accountID := openTestAccount(t, ts)

	resp := postJSON(t, ts.URL+"/transfers/deposit", depositBody(accountID, 5_000, "1234"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/accounts/summary?account_id=" + accountID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var totals models.AccountTotals
	decode(t, resp, &totals)
	assert.True(t, totals.DepositTotal.Equal(decimal.NewFromInt(5_000)))
	assert.True(t, totals.Balance.Equal(decimal.NewFromInt(5_000)))
}

func TestNonMemberIsForbidden(t *testing.T) {
	store := memory.NewStore()
	mirrors := memory.NewMirrorStore()
	svc := ledger.NewTransferService(store, mirrors, nil, nil, time.Second)
	ts := httptest.NewServer(NewServer(svc, denyAll{}).Router())
	t.Cleanup(ts.Close)

	resp := postJSON(t, ts.URL+"/transfers/deposit", depositBody("any", 100, "1234"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestCloseAccountEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	accountID := openTestAccount(t, ts)

	resp := postJSON(t, ts.URL+"/accounts/close", map[string]string{
		"account_id": accountID,
		"password":   "1234",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/transfers/deposit", depositBody(accountID, 100, "1234"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "closed account refuses transfers")
	resp.Body.Close()
}
