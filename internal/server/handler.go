package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jointly-dev/jointly/internal/ledger"
	"github.com/jointly-dev/jointly/internal/models"
)

// accountResponse is the outward shape of a group account. The credential
// digest never leaves the process.
type accountResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	AccountNumber string          `json:"account_number"`
	CreatorID     string          `json:"creator_id"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toAccountResponse(acct models.GroupAccount) accountResponse {
	return accountResponse{
		ID:            acct.ID,
		Name:          acct.Name,
		AccountNumber: acct.AccountNumber,
		CreatorID:     acct.CreatorID,
		Balance:       acct.CachedBalance,
		Status:        string(acct.Status),
		CreatedAt:     acct.CreatedAt,
	}
}

type transferResponse struct {
	Transaction models.Transaction `json:"transaction"`
	Warnings    []string           `json:"warnings,omitempty"`
}

func toTransferResponse(res *ledger.TransferResult) transferResponse {
	out := transferResponse{Transaction: res.Transaction}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	return out
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// openAccount handles POST /accounts.
func (s *Server) openAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		AccountNumber string `json:"account_number"`
		CreatorID     string `json:"creator_id"`
		Password      string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	acct, err := s.svc.OpenAccount(r.Context(), ledger.OpenAccountParams{
		Name:          req.Name,
		AccountNumber: req.AccountNumber,
		CreatorID:     req.CreatorID,
		Password:      req.Password,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(acct))
}

// closeAccount handles POST /accounts/close.
func (s *Server) closeAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"account_id"`
		Password  string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := s.svc.CloseAccount(r.Context(), req.AccountID, req.Password); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// deposit handles POST /transfers/deposit. The source fields name the
// external account the money is pulled from.
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID           string          `json:"account_id"`
		UserID              string          `json:"user_id"`
		Amount              decimal.Decimal `json:"amount"`
		Password            string          `json:"password"`
		SourceAccountNumber string          `json:"source_account_number"`
		SourceBankName      string          `json:"source_bank_name"`
		Description         string          `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !s.authorize(w, r, req.AccountID, req.UserID) {
		return
	}

	res, err := s.svc.Deposit(r.Context(), ledger.TransferParams{
		AccountID:             req.AccountID,
		UserID:                req.UserID,
		Amount:                req.Amount,
		Password:              req.Password,
		ExternalAccountNumber: req.SourceAccountNumber,
		ExternalBankName:      req.SourceBankName,
		Description:           req.Description,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransferResponse(res))
}

// withdraw handles POST /transfers/withdraw. The target fields name the
// external account the money is paid into.
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID           string          `json:"account_id"`
		UserID              string          `json:"user_id"`
		Amount              decimal.Decimal `json:"amount"`
		Password            string          `json:"password"`
		TargetAccountNumber string          `json:"target_account_number"`
		TargetBankName      string          `json:"target_bank_name"`
		Description         string          `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !s.authorize(w, r, req.AccountID, req.UserID) {
		return
	}

	res, err := s.svc.Withdraw(r.Context(), ledger.TransferParams{
		AccountID:             req.AccountID,
		UserID:                req.UserID,
		Amount:                req.Amount,
		Password:              req.Password,
		ExternalAccountNumber: req.TargetAccountNumber,
		ExternalBankName:      req.TargetBankName,
		Description:           req.Description,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransferResponse(res))
}

// balance handles GET /accounts/balance?account_id=...
func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "account_id is required"})
		return
	}

	bal, err := s.svc.Balance(r.Context(), accountID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		AccountID string          `json:"account_id"`
		Balance   decimal.Decimal `json:"balance"`
	}{accountID, bal})
}

// summary handles GET /accounts/summary?account_id=...
func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "account_id is required"})
		return
	}

	totals, err := s.svc.Totals(r.Context(), accountID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// transactions handles GET /transactions?account_id=...&user_id=...&page_token=...&limit=...
func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accountID := q.Get("account_id")
	if accountID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "account_id is required"})
		return
	}

	page := models.Page{Token: q.Get("page_token")}
	if limit := q.Get("limit"); limit != "" {
		n, err := parseLimit(limit)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		page.Limit = n
	}

	var (
		entries []models.Transaction
		next    string
		err     error
	)
	if userID := q.Get("user_id"); userID != "" {
		entries, next, err = s.svc.HistoryForUser(r.Context(), accountID, userID, page)
	} else {
		entries, next, err = s.svc.History(r.Context(), accountID, page)
	}
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Transactions  []models.Transaction `json:"transactions"`
		NextPageToken string               `json:"next_page_token,omitempty"`
	}{entries, next})
}

func parseLimit(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", s)
	}
	return n, nil
}

// authorize consults the membership boundary before a transfer. A false
// answer means the surrounding application never granted this user access
// to the account.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, accountID, userID string) bool {
	ok, err := s.members.IsMember(r.Context(), accountID, userID)
	if err != nil {
		writeErr(w, err)
		return false
	}
	if !ok {
		writeErr(w, ledger.ErrNotAMember)
		return false
	}
	return true
}
