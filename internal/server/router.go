package server

import "net/http"

// Router binds every endpoint. Method matching uses the 1.22 pattern syntax
// so handlers stay free of method switches.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("POST /accounts", s.openAccount)
	mux.HandleFunc("POST /accounts/close", s.closeAccount)
	mux.HandleFunc("GET /accounts/balance", s.balance)
	mux.HandleFunc("GET /accounts/summary", s.summary)

	mux.HandleFunc("POST /transfers/deposit", s.deposit)
	mux.HandleFunc("POST /transfers/withdraw", s.withdraw)

	mux.HandleFunc("GET /transactions", s.transactions)

	return mux
}
