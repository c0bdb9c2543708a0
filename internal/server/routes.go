package server

import (
	"net/http"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth
	mux.HandleFunc("/api/auth/register", s.handleAuthRegister)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/validate", s.handleAuthValidate)

	// Accounts
	mux.HandleFunc("/api/accounts/", s.routeAccounts)
	mux.HandleFunc("/api/accounts", s.handleAccounts)

	// Holdings
	mux.HandleFunc("/api/holdings/cash", s.handleCashDeposit)
	mux.HandleFunc("/api/holdings/watch", s.handleHoldingsWatch)
	mux.HandleFunc("/api/holdings/refresh", s.handleRefresh)
	mux.HandleFunc("/api/holdings/", s.handleHoldingDelete)
	mux.HandleFunc("/api/holdings", s.handleHoldings)

	// Portfolio summary
	mux.HandleFunc("/api/summary", s.handleSummary)

	// Profile
	mux.HandleFunc("/api/profile", s.handleProfile)

	// Market data
	mux.HandleFunc("/api/market/lookup/", s.handleMarketLookup)
	mux.HandleFunc("/api/market/history/", s.handleMarketHistory)
	mux.HandleFunc("/api/market/news/", s.handleMarketNews)
	mux.HandleFunc("/api/market/chart/", s.handleMarketChart)
	mux.HandleFunc("/api/market/rate", s.handleMarketRate)
}
