package server

import (
	"net/http"

	"github.com/foliolabs/folio/internal/models"
)

// handleAccounts handles /api/accounts — POST creates, GET lists.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAccountCreate(w, r)
	case http.MethodGet:
		s.handleAccountList(w, r)
	default:
		RequireMethod(w, r, http.MethodPost, http.MethodGet)
	}
}

func (s *Server) handleAccountCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	accountType := models.AccountType(req.Type)
	if !accountType.Valid() {
		WriteError(w, http.StatusBadRequest, "Account type must be one of: tfsa, rrsp, margin, individual")
		return
	}

	account, err := s.app.PortfolioService.CreateAccount(r.Context(), req.Name, accountType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, account)
}

func (s *Server) handleAccountList(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.app.PortfolioService.ListAccounts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, accounts)
}

// routeAccounts handles /api/accounts/{id} and /api/accounts/{id}/holdings.
func (s *Server) routeAccounts(w http.ResponseWriter, r *http.Request) {
	accountID := PathParam(r, "/api/accounts/", "")
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "Account ID is required")
		return
	}

	if PathParam(r, "/api/accounts/", "/holdings") == accountID &&
		r.URL.Path == "/api/accounts/"+accountID+"/holdings" {
		s.handleAccountHoldings(w, r, accountID)
		return
	}

	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	if err := s.app.PortfolioService.DeleteAccount(r.Context(), accountID); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "account_id": accountID})
}

// handleAccountHoldings handles GET /api/accounts/{id}/holdings.
func (s *Server) handleAccountHoldings(w http.ResponseWriter, r *http.Request, accountID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	holdings, err := s.app.PortfolioService.ListHoldings(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, holdings)
}
