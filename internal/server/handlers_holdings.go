package server

import (
	"fmt"
	"net/http"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/models"
)

// handleHoldings handles /api/holdings — POST adds a stock, GET lists all
// holdings for the session user (optionally filtered by ?account=).
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleHoldingAdd(w, r)
	case http.MethodGet:
		s.handleHoldingList(w, r)
	default:
		RequireMethod(w, r, http.MethodPost, http.MethodGet)
	}
}

func (s *Server) handleHoldingAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string  `json:"account_id"`
		Query     string  `json:"query"`
		Exchange  string  `json:"exchange"`
		Shares    float64 `json:"shares"`
		AvgCost   float64 `json:"avg_cost"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	exchange := models.Exchange(req.Exchange)
	if !exchange.Valid() {
		WriteError(w, http.StatusBadRequest, "Exchange must be USA or CANADA")
		return
	}

	asset, err := s.app.PortfolioService.AddStock(r.Context(), req.AccountID, req.Query, exchange, req.Shares, req.AvgCost)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, asset)
}

func (s *Server) handleHoldingList(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account")

	holdings, err := s.app.PortfolioService.ListHoldings(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Listing the portfolio counts as view activity for the refresh loops.
	s.app.MarkPortfolioActive(common.ResolveUserID(r.Context()))

	WriteJSON(w, http.StatusOK, holdings)
}

// handleHoldingDelete handles DELETE /api/holdings/{id}.
func (s *Server) handleHoldingDelete(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	assetID := PathParam(r, "/api/holdings/", "")
	if assetID == "" {
		WriteError(w, http.StatusBadRequest, "Holding ID is required")
		return
	}

	if err := s.app.PortfolioService.DeleteHolding(r.Context(), assetID); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "holding_id": assetID})
}

// handleCashDeposit handles POST /api/holdings/cash.
func (s *Server) handleCashDeposit(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		AccountID string  `json:"account_id"`
		Currency  string  `json:"currency"`
		Amount    float64 `json:"amount"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	currency := models.Currency(req.Currency)
	if !currency.Valid() {
		WriteError(w, http.StatusBadRequest, "Currency must be USD or CAD")
		return
	}
	if req.Amount <= 0 {
		WriteError(w, http.StatusBadRequest, "Deposit amount must be positive")
		return
	}

	asset, err := s.app.PortfolioService.DepositCash(r.Context(), req.AccountID, currency, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, asset)
}

// handleHoldingsWatch handles GET /api/holdings/watch — a server-sent event
// stream that emits a change event after every write to the user's holdings.
// Clients re-fetch the views they care about; the event carries no payload.
func (s *Server) handleHoldingsWatch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := common.ResolveUserID(r.Context())
	if userID == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Coalescing channel: a burst of writes collapses into one pending event.
	changes := make(chan struct{}, 1)
	unsubscribe := s.app.Storage.Holdings().Subscribe(userID, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	fmt.Fprint(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-changes:
			fmt.Fprint(w, "event: change\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}

// handleSummary handles GET /api/summary — portfolio-wide by default, one
// account with ?account=.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	accountID := r.URL.Query().Get("account")

	summary, err := s.app.PortfolioService.Summary(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.app.MarkPortfolioActive(common.ResolveUserID(r.Context()))

	WriteJSON(w, http.StatusOK, summary)
}

// handleRefresh handles POST /api/holdings/refresh — manually trigger a
// staleness sweep and price sync.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	refreshed, err := s.app.PortfolioService.RefreshStaleMetrics(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	synced, err := s.app.PortfolioService.SyncPrices(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int{
		"metrics_refreshed": refreshed,
		"prices_synced":     synced,
	})
}
