package portfolio

import (
	"context"

	"github.com/foliolabs/folio/internal/models"
)

// Summary aggregates valuation over the whole portfolio, or one account when
// accountID is non-empty. Always recomputed from the live holding set.
func (s *Service) Summary(ctx context.Context, accountID string) (*models.PortfolioSummary, error) {
	holdings, err := s.ListHoldings(ctx, accountID)
	if err != nil {
		return nil, err
	}

	rate := s.cadToUSD(ctx)
	summary := &models.PortfolioSummary{}

	for _, h := range holdings {
		switch h.Kind {
		case models.AssetKindStock:
			if h.Stock == nil {
				continue
			}
			factor := 1.0
			if h.Stock.Exchange == models.ExchangeCanada {
				factor = rate
			}
			summary.MarketValue += h.Stock.Shares * h.Stock.CurrentPrice * factor
			summary.TotalCost += h.Stock.Shares * h.Stock.AvgCost * factor
		case models.AssetKindCash:
			if h.Cash == nil {
				continue
			}
			factor := 1.0
			if h.Cash.Currency == models.CurrencyCAD {
				factor = rate
			}
			// Cash carries no gain/loss: it counts equally on both sides.
			value := h.Cash.Amount * factor
			summary.MarketValue += value
			summary.TotalCost += value
		}
	}

	summary.GainLoss = summary.MarketValue - summary.TotalCost
	if summary.TotalCost > 0 {
		summary.ReturnPct = summary.GainLoss / summary.TotalCost * 100
	}
	// DayGainLoss stays zero: the shape is present for the front-end but no
	// intraday delta feeds it.

	return summary, nil
}

// WarmCaches primes the CAD→USD rate at startup.
func (s *Service) WarmCaches(ctx context.Context) error {
	s.cadToUSD(ctx)
	return nil
}

// cadToUSD returns the session's CAD→USD conversion rate. Fetched from the
// oracle once; on failure the rate falls back to 1.0 with a warning so
// valuation never blocks on a missing rate.
func (s *Service) cadToUSD(ctx context.Context) float64 {
	s.fxMu.Lock()
	defer s.fxMu.Unlock()

	if s.fxFetched {
		return s.fxRate
	}

	rate, err := s.market.FetchExchangeRate(ctx, models.CurrencyCAD, models.CurrencyUSD)
	if err != nil || rate <= 0 {
		s.logger.Warn().Err(err).Msg("CAD/USD rate unavailable, treating CAD as USD")
		rate = 1.0
	}

	s.fxRate = rate
	s.fxFetched = true
	return rate
}
