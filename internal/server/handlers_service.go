package server

import (
	"net/http"
	"time"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/models"
)

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"full":    common.GetFullVersion(),
	})
}

// handleProfile handles /api/profile — GET reads, PUT merges.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		profile, err := s.app.PortfolioService.GetProfile(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, profile)

	case http.MethodPut:
		var req struct {
			EstimatedAnnualEarnings *float64 `json:"estimated_annual_earnings"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.EstimatedAnnualEarnings != nil && *req.EstimatedAnnualEarnings < 0 {
			WriteError(w, http.StatusBadRequest, "Estimated annual earnings cannot be negative")
			return
		}

		profile, err := s.app.PortfolioService.UpdateProfile(r.Context(), &models.UserProfile{
			EstimatedAnnualEarnings: req.EstimatedAnnualEarnings,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, profile)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut)
	}
}
