package portfolio

import (
	"context"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/models"
)

// RefreshStaleMetrics runs one staleness sweep over the user's stock
// holdings. The stale set is computed once up front; refreshes run strictly
// sequentially with an enforced pause between calls. A failure on one
// holding is logged and does not abort the rest.
func (s *Service) RefreshStaleMetrics(ctx context.Context) (int, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return 0, err
	}

	holdings, err := s.storage.Holdings().List(ctx, userID)
	if err != nil {
		return 0, err
	}

	var stale []*models.Asset
	for _, h := range holdings {
		if h.Kind != models.AssetKindStock || h.Stock == nil {
			continue
		}
		if !common.IsFresh(h.Stock.MetricsUpdatedAt, common.MetricsTTL) {
			stale = append(stale, h)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	s.logger.Info().Int("stale", len(stale)).Msg("Starting metrics refresh sweep")

	refreshed := 0
	for i, h := range stale {
		if i > 0 {
			if err := s.pause(ctx, common.RefreshSpacing); err != nil {
				return refreshed, err
			}
		}

		if err := s.refreshHoldingMetrics(ctx, userID, h.ID, h.Stock.Ticker, h.Stock.Exchange); err != nil {
			s.logger.Warn().Err(err).Str("ticker", h.Stock.Ticker).Msg("Metrics refresh failed, continuing sweep")
			continue
		}
		refreshed++
	}

	s.logger.Info().Int("refreshed", refreshed).Int("stale", len(stale)).Msg("Metrics refresh sweep complete")
	return refreshed, nil
}

// refreshHoldingMetrics fetches metrics for one holding and merges them.
// The merge re-reads the holding so it applies against the latest persisted
// state, not the snapshot taken when the sweep started.
func (s *Service) refreshHoldingMetrics(ctx context.Context, userID, assetID, ticker string, exchange models.Exchange) error {
	update, err := s.market.FetchMetrics(ctx, ticker, exchange)
	if err != nil {
		return err
	}

	current, err := s.storage.Holdings().Get(ctx, userID, assetID)
	if err != nil {
		return err
	}
	if current.Kind != models.AssetKindStock || current.Stock == nil {
		return nil
	}

	mergeMetrics(current.Stock, update)
	current.Stock.MetricsUpdatedAt = s.now()
	current.UpdatedAt = s.now()

	return s.storage.Holdings().Save(ctx, current)
}

// mergeMetrics applies only the fields the oracle returned. A nil field
// means "unavailable" and must never erase a previously known value.
func mergeMetrics(stock *models.StockPosition, update *models.MetricsUpdate) {
	if update.YearlyDividend != nil {
		stock.YearlyDividend = update.YearlyDividend
	}
	if update.TrailingPE != nil {
		stock.TrailingPE = update.TrailingPE
	}
	if update.ForwardPE != nil {
		stock.ForwardPE = update.ForwardPE
	}
	if update.Low52Week != nil {
		stock.Low52Week = update.Low52Week
	}
	if update.High52Week != nil {
		stock.High52Week = update.High52Week
	}
	if update.Profile != nil {
		stock.Profile = *update.Profile
	}
	if update.MarketCap != nil {
		stock.MarketCap = update.MarketCap
	}
	if update.DividendYield != nil {
		stock.DividendYield = update.DividendYield
	}
}

// SyncPrices re-fetches every stock holding's price in a single batched call
// and merges matches back by exact (ticker, exchange). Returned entries with
// no matching holding are discarded; holdings absent from the reply are left
// unchanged. Only the price fields are touched — the metrics sweep owns the
// rest, so the two can overlap safely.
func (s *Service) SyncPrices(ctx context.Context) (int, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return 0, err
	}

	holdings, err := s.storage.Holdings().List(ctx, userID)
	if err != nil {
		return 0, err
	}

	var pairs []models.PriceQuote
	for _, h := range holdings {
		if h.Kind == models.AssetKindStock && h.Stock != nil {
			pairs = append(pairs, models.PriceQuote{Ticker: h.Stock.Ticker, Exchange: h.Stock.Exchange})
		}
	}
	if len(pairs) == 0 {
		return 0, nil
	}

	quotes, err := s.market.FetchPrices(ctx, pairs)
	if err != nil {
		return 0, err
	}

	type key struct {
		ticker   string
		exchange models.Exchange
	}
	byKey := make(map[key]float64, len(quotes))
	for _, q := range quotes {
		byKey[key{q.Ticker, q.Exchange}] = q.Price
	}

	updated := 0
	for _, h := range holdings {
		if h.Kind != models.AssetKindStock || h.Stock == nil {
			continue
		}
		price, ok := byKey[key{h.Stock.Ticker, h.Stock.Exchange}]
		if !ok || price <= 0 {
			continue
		}

		// Re-read before writing so concurrent metrics merges aren't clobbered.
		current, err := s.storage.Holdings().Get(ctx, userID, h.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", h.Stock.Ticker).Msg("Price sync: holding re-read failed")
			continue
		}
		if current.Kind != models.AssetKindStock || current.Stock == nil {
			continue
		}

		current.Stock.CurrentPrice = price
		current.Stock.PriceUpdatedAt = s.now()
		current.UpdatedAt = s.now()
		if err := s.storage.Holdings().Save(ctx, current); err != nil {
			s.logger.Warn().Err(err).Str("ticker", h.Stock.Ticker).Msg("Price sync: save failed")
			continue
		}
		updated++
	}

	s.logger.Debug().Int("updated", updated).Int("holdings", len(pairs)).Msg("Price sync complete")
	return updated, nil
}
