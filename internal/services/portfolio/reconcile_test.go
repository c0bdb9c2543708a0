package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/models"
)

// seedStock writes a stock holding directly into storage with a controlled
// metrics timestamp.
func seedStock(t *testing.T, storage *memStorage, id, ticker string, metricsAge time.Duration) *models.Asset {
	t.Helper()
	now := time.Now()
	pe := 20.0
	asset := &models.Asset{
		ID:        id,
		UserID:    testUserID,
		AccountID: "acct-1",
		Kind:      models.AssetKindStock,
		Stock: &models.StockPosition{
			Ticker:           ticker,
			Name:             ticker + " Corp",
			Exchange:         models.ExchangeUSA,
			Shares:           1,
			AvgCost:          100,
			CurrentPrice:     100,
			TrailingPE:       &pe,
			Profile:          "Original profile.",
			PriceUpdatedAt:   now,
			MetricsUpdatedAt: now.Add(-metricsAge),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := storage.holdings.Save(context.Background(), asset); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}
	return asset
}

func TestRefreshStaleMetrics_OnlyStaleRefreshed(t *testing.T) {
	var fetched []string
	market := &mockMarket{
		fetchMetrics: func(ctx context.Context, ticker string, exchange models.Exchange) (*models.MetricsUpdate, error) {
			fetched = append(fetched, ticker)
			return &models.MetricsUpdate{}, nil
		},
	}
	svc, storage := newTestService(t, market)

	seedStock(t, storage, "h1", "OLD", 25*time.Hour)   // stale
	seedStock(t, storage, "h2", "FRESH", 23*time.Hour) // within TTL
	seedStock(t, storage, "h3", "NEVER", 0)            // just updated

	// A holding that was never refreshed has a zero timestamp: always stale.
	never := seedStock(t, storage, "h4", "ZERO", 0)
	never.Stock.MetricsUpdatedAt = time.Time{}
	if err := storage.holdings.Save(context.Background(), never); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	refreshed, err := svc.RefreshStaleMetrics(sessionCtx())
	if err != nil {
		t.Fatalf("RefreshStaleMetrics failed: %v", err)
	}
	if refreshed != 2 {
		t.Errorf("expected 2 refreshed, got %d (fetched %v)", refreshed, fetched)
	}
	for _, ticker := range fetched {
		if ticker == "FRESH" || ticker == "NEVER" {
			t.Errorf("fresh holding %s must not be refreshed", ticker)
		}
	}
}

func TestRefreshStaleMetrics_SequentialWithSpacing(t *testing.T) {
	var inFlight, maxInFlight int
	var pauses []time.Duration

	market := &mockMarket{
		fetchMetrics: func(ctx context.Context, ticker string, exchange models.Exchange) (*models.MetricsUpdate, error) {
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			inFlight--
			return &models.MetricsUpdate{}, nil
		},
	}
	svc, storage := newTestService(t, market)
	svc.pause = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}

	seedStock(t, storage, "h1", "AAA", 25*time.Hour)
	seedStock(t, storage, "h2", "BBB", 25*time.Hour)
	seedStock(t, storage, "h3", "CCC", 25*time.Hour)

	refreshed, err := svc.RefreshStaleMetrics(sessionCtx())
	if err != nil {
		t.Fatalf("RefreshStaleMetrics failed: %v", err)
	}
	if refreshed != 3 {
		t.Errorf("expected 3 refreshed, got %d", refreshed)
	}
	if maxInFlight != 1 {
		t.Errorf("refreshes must be strictly sequential, max in flight %d", maxInFlight)
	}
	// N holdings, N-1 pauses between them, each at the configured spacing.
	if len(pauses) != 2 {
		t.Fatalf("expected 2 pauses, got %d", len(pauses))
	}
	for _, d := range pauses {
		if d != common.RefreshSpacing {
			t.Errorf("expected pause %v, got %v", common.RefreshSpacing, d)
		}
	}
}

func TestRefreshStaleMetrics_FailureDoesNotAbortSweep(t *testing.T) {
	market := &mockMarket{
		fetchMetrics: func(ctx context.Context, ticker string, exchange models.Exchange) (*models.MetricsUpdate, error) {
			if ticker == "BAD" {
				return nil, errors.New("oracle blocked the request")
			}
			return &models.MetricsUpdate{}, nil
		},
	}
	svc, storage := newTestService(t, market)

	seedStock(t, storage, "h1", "BAD", 25*time.Hour)
	seedStock(t, storage, "h2", "GOOD", 25*time.Hour)

	refreshed, err := svc.RefreshStaleMetrics(sessionCtx())
	if err != nil {
		t.Fatalf("sweep must not fail on one bad holding: %v", err)
	}
	if refreshed != 1 {
		t.Errorf("expected 1 refreshed, got %d", refreshed)
	}
}

func TestRefreshStaleMetrics_CancelledContextStopsSweep(t *testing.T) {
	market := &mockMarket{
		fetchMetrics: func(ctx context.Context, ticker string, exchange models.Exchange) (*models.MetricsUpdate, error) {
			return &models.MetricsUpdate{}, nil
		},
	}
	svc, storage := newTestService(t, market)
	svc.pause = sleepCtx // real pause honors cancellation

	seedStock(t, storage, "h1", "AAA", 25*time.Hour)
	seedStock(t, storage, "h2", "BBB", 25*time.Hour)

	ctx, cancel := context.WithCancel(sessionCtx())
	cancel()

	refreshed, err := svc.RefreshStaleMetrics(ctx)
	if err == nil {
		t.Error("expected context error from interrupted sweep")
	}
	if refreshed > 1 {
		t.Errorf("sweep should stop at the pause, refreshed %d", refreshed)
	}
}

func TestMergeMetrics_PreservesOnNull(t *testing.T) {
	oldPE := 20.0
	newYield := 0.8
	stock := &models.StockPosition{
		Ticker:     "AAPL",
		TrailingPE: &oldPE,
		Profile:    "Original profile.",
	}

	mergeMetrics(stock, &models.MetricsUpdate{
		TrailingPE:    nil, // unavailable this time
		DividendYield: &newYield,
	})

	if stock.TrailingPE == nil || *stock.TrailingPE != 20 {
		t.Errorf("nil update must preserve existing trailingPE, got %v", stock.TrailingPE)
	}
	if stock.DividendYield == nil || *stock.DividendYield != 0.8 {
		t.Errorf("non-nil update must apply, got %v", stock.DividendYield)
	}
	if stock.Profile != "Original profile." {
		t.Errorf("nil profile must preserve existing text, got %q", stock.Profile)
	}
}

func TestRefreshStaleMetrics_MergeAgainstLatestState(t *testing.T) {
	pe := 25.0
	market := &mockMarket{}
	svc, storage := newTestService(t, market)

	asset := seedStock(t, storage, "h1", "AAPL", 25*time.Hour)

	market.fetchMetrics = func(ctx context.Context, ticker string, exchange models.Exchange) (*models.MetricsUpdate, error) {
		// A price sync lands while the metrics fetch is in flight.
		concurrent, _ := storage.holdings.Get(context.Background(), testUserID, asset.ID)
		concurrent.Stock.CurrentPrice = 135
		if err := storage.holdings.Save(context.Background(), concurrent); err != nil {
			t.Fatalf("concurrent save failed: %v", err)
		}
		return &models.MetricsUpdate{TrailingPE: &pe}, nil
	}

	if _, err := svc.RefreshStaleMetrics(sessionCtx()); err != nil {
		t.Fatalf("RefreshStaleMetrics failed: %v", err)
	}

	got, _ := storage.holdings.Get(context.Background(), testUserID, asset.ID)
	if got.Stock.CurrentPrice != 135 {
		t.Errorf("metrics merge clobbered the concurrent price update: %f", got.Stock.CurrentPrice)
	}
	if got.Stock.TrailingPE == nil || *got.Stock.TrailingPE != 25 {
		t.Errorf("metrics update not applied: %v", got.Stock.TrailingPE)
	}
	if !common.IsFresh(got.Stock.MetricsUpdatedAt, common.MetricsTTL) {
		t.Error("metrics timestamp must be refreshed after the sweep")
	}
}

func TestRefreshStaleMetrics_NothingStale(t *testing.T) {
	called := false
	market := &mockMarket{
		fetchMetrics: func(ctx context.Context, ticker string, exchange models.Exchange) (*models.MetricsUpdate, error) {
			called = true
			return &models.MetricsUpdate{}, nil
		},
	}
	svc, storage := newTestService(t, market)
	seedStock(t, storage, "h1", "FRESH", time.Hour)

	refreshed, err := svc.RefreshStaleMetrics(sessionCtx())
	if err != nil || refreshed != 0 {
		t.Fatalf("RefreshStaleMetrics = (%d, %v)", refreshed, err)
	}
	if called {
		t.Error("fresh portfolio must not trigger any oracle calls")
	}
}
