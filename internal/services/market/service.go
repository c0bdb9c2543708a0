// Package market shapes oracle replies into typed market data.
package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/interfaces"
	"github.com/foliolabs/folio/internal/models"
	"github.com/foliolabs/folio/internal/oracle"
)

// Service implements MarketService on top of the oracle client. Every method
// is prompt construction, one oracle call, then parsing — no persistence.
type Service struct {
	client interfaces.OracleClient
	logger *common.Logger
}

// NewService creates a new market service.
func NewService(client interfaces.OracleClient, logger *common.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// LookupStock performs a full lookup for a new holding.
func (s *Service) LookupStock(ctx context.Context, query string, exchange models.Exchange) (*models.StockSnapshot, error) {
	raw, err := s.client.Generate(ctx, interfaces.OracleRequest{
		Prompt: oracle.FullLookupPrompt(query, exchange),
		Search: true,
	})
	if err != nil {
		return nil, fmt.Errorf("stock lookup for %q failed: %w", query, err)
	}

	snapshot, err := oracle.ParseStockSnapshot(raw, exchange)
	if err != nil {
		s.logger.Warn().Str("query", query).Msg("Stock lookup returned no usable data")
		return nil, err
	}

	s.logger.Debug().
		Str("query", query).
		Str("ticker", snapshot.Ticker).
		Float64("price", snapshot.Price).
		Msg("Stock lookup complete")

	return snapshot, nil
}

// FetchPrices requests price-only updates for all pairs in one batched call
// using the structured price-list schema.
func (s *Service) FetchPrices(ctx context.Context, pairs []models.PriceQuote) ([]models.PriceQuote, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	raw, err := s.client.Generate(ctx, interfaces.OracleRequest{
		Prompt: oracle.BatchPricesPrompt(pairs, true),
		Search: true,
		Schema: interfaces.SchemaPriceList,
	})
	if err != nil {
		return nil, fmt.Errorf("batch price fetch failed: %w", err)
	}

	quotes, err := oracle.ParseBatchPricesJSON(raw)
	if err != nil {
		// Some replies ignore the schema and come back as delimited text.
		quotes = oracle.ParseBatchPricesText(raw)
		if len(quotes) == 0 {
			return nil, err
		}
	}
	return quotes, nil
}

// FetchMetrics refreshes the slow-changing fields of one holding.
func (s *Service) FetchMetrics(ctx context.Context, ticker string, exchange models.Exchange) (*models.MetricsUpdate, error) {
	raw, err := s.client.Generate(ctx, interfaces.OracleRequest{
		Prompt: oracle.MetricsPrompt(ticker, exchange),
		Search: true,
	})
	if err != nil {
		return nil, fmt.Errorf("metrics fetch for %s failed: %w", ticker, err)
	}
	return oracle.ParseMetrics(raw), nil
}

// FetchHistory requests a price-history series for the range.
func (s *Service) FetchHistory(ctx context.Context, ticker string, exchange models.Exchange, r models.HistoryRange) ([]models.PricePoint, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unsupported history range %q", r)
	}

	raw, err := s.client.Generate(ctx, interfaces.OracleRequest{
		Prompt: oracle.HistoryPrompt(ticker, exchange, r),
		Search: true,
	})
	if err != nil {
		return nil, fmt.Errorf("history fetch for %s failed: %w", ticker, err)
	}

	points := oracle.ParseOHLCVSeries(raw)
	s.logger.Debug().
		Str("ticker", ticker).
		Str("range", string(r)).
		Int("points", len(points)).
		Msg("History fetch complete")

	return points, nil
}

// FetchNews requests the top recent articles for a ticker.
func (s *Service) FetchNews(ctx context.Context, ticker string, exchange models.Exchange) ([]models.NewsItem, error) {
	raw, err := s.client.Generate(ctx, interfaces.OracleRequest{
		Prompt: oracle.NewsPrompt(ticker, exchange),
		Search: true,
		Schema: interfaces.SchemaNewsList,
	})
	if err != nil {
		return nil, fmt.Errorf("news fetch for %s failed: %w", ticker, err)
	}
	return oracle.ParseNewsJSON(raw)
}

// FetchExchangeRate returns the scalar conversion rate between two currencies.
func (s *Service) FetchExchangeRate(ctx context.Context, from, to models.Currency) (float64, error) {
	raw, err := s.client.Generate(ctx, interfaces.OracleRequest{
		Prompt: oracle.ExchangeRatePrompt(from, to),
		Search: true,
	})
	if err != nil {
		return 0, fmt.Errorf("exchange rate fetch failed: %w", err)
	}

	rate, ok := oracle.ParseRate(raw)
	if !ok {
		return 0, fmt.Errorf("exchange rate reply %q is not numeric", strings.TrimSpace(raw))
	}
	return rate, nil
}

// FetchChart asks the oracle to draw the chart. When the reply contains no
// usable SVG span, a chart is rendered locally from history data instead.
func (s *Service) FetchChart(ctx context.Context, ticker string, exchange models.Exchange, r models.HistoryRange) (string, error) {
	raw, err := s.client.Generate(ctx, interfaces.OracleRequest{
		Prompt: oracle.ChartPrompt(ticker, exchange, r),
		Search: true,
	})
	if err == nil {
		if svg := oracle.ExtractSVG(raw); svg != "" {
			return svg, nil
		}
		s.logger.Warn().Str("ticker", ticker).Msg("Oracle chart reply contained no SVG, rendering locally")
	} else {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Oracle chart call failed, rendering locally")
	}

	points, err := s.FetchHistory(ctx, ticker, exchange, r)
	if err != nil {
		return "", err
	}
	return RenderPriceChart(ticker, points)
}

// Ensure Service implements MarketService
var _ interfaces.MarketService = (*Service)(nil)
