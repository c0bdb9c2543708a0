package server

import (
	"net/http"
	"strings"

	"github.com/foliolabs/folio/internal/models"
)

// parseExchangeParam reads the ?exchange= query parameter, defaulting to USA.
func parseExchangeParam(r *http.Request) (models.Exchange, bool) {
	raw := r.URL.Query().Get("exchange")
	if raw == "" {
		return models.ExchangeUSA, true
	}
	exchange := models.Exchange(strings.ToUpper(raw))
	return exchange, exchange.Valid()
}

// handleMarketLookup handles GET /api/market/lookup/{query}.
func (s *Server) handleMarketLookup(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := PathParam(r, "/api/market/lookup/", "")
	if query == "" {
		WriteError(w, http.StatusBadRequest, "Ticker or company name is required")
		return
	}
	exchange, ok := parseExchangeParam(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Exchange must be USA or CANADA")
		return
	}

	snapshot, err := s.app.MarketService.LookupStock(r.Context(), query, exchange)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

// handleMarketHistory handles GET /api/market/history/{ticker}?range=1M.
func (s *Server) handleMarketHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := PathParam(r, "/api/market/history/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}
	exchange, ok := parseExchangeParam(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Exchange must be USA or CANADA")
		return
	}

	historyRange := models.HistoryRange(strings.ToUpper(r.URL.Query().Get("range")))
	if historyRange == "" {
		historyRange = models.RangeOneMonth
	}
	if !historyRange.Valid() {
		WriteError(w, http.StatusBadRequest, "Range must be one of: 1D, 5D, 1M, 1Y, 5Y, 10Y")
		return
	}

	points, err := s.app.MarketService.FetchHistory(r.Context(), ticker, exchange, historyRange)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, points)
}

// handleMarketNews handles GET /api/market/news/{ticker}.
func (s *Server) handleMarketNews(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := PathParam(r, "/api/market/news/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}
	exchange, ok := parseExchangeParam(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Exchange must be USA or CANADA")
		return
	}

	items, err := s.app.MarketService.FetchNews(r.Context(), ticker, exchange)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

// handleMarketChart handles GET /api/market/chart/{ticker}?range=1M.
// Responds with image/svg+xml rather than JSON.
func (s *Server) handleMarketChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := PathParam(r, "/api/market/chart/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}
	exchange, ok := parseExchangeParam(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Exchange must be USA or CANADA")
		return
	}

	historyRange := models.HistoryRange(strings.ToUpper(r.URL.Query().Get("range")))
	if historyRange == "" {
		historyRange = models.RangeOneMonth
	}
	if !historyRange.Valid() {
		WriteError(w, http.StatusBadRequest, "Range must be one of: 1D, 5D, 1M, 1Y, 5Y, 10Y")
		return
	}

	svg, err := s.app.MarketService.FetchChart(r.Context(), ticker, exchange, historyRange)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(svg))
}

// handleMarketRate handles GET /api/market/rate?from=CAD&to=USD.
func (s *Server) handleMarketRate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	from := models.Currency(strings.ToUpper(r.URL.Query().Get("from")))
	to := models.Currency(strings.ToUpper(r.URL.Query().Get("to")))
	if from == "" {
		from = models.CurrencyCAD
	}
	if to == "" {
		to = models.CurrencyUSD
	}
	if !from.Valid() || !to.Valid() {
		WriteError(w, http.StatusBadRequest, "Currencies must be USD or CAD")
		return
	}

	rate, err := s.app.MarketService.FetchExchangeRate(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"from": from,
		"to":   to,
		"rate": rate,
	})
}
