package interfaces

import (
	"context"

	"github.com/foliolabs/folio/internal/models"
)

// MarketService shapes oracle replies into typed market data. It owns prompt
// construction and response parsing; callers never see raw oracle text.
type MarketService interface {
	// LookupStock performs a full lookup for a new holding. Returns
	// oracle.ErrNoData when the essential fields (ticker, name, price)
	// are missing.
	LookupStock(ctx context.Context, query string, exchange models.Exchange) (*models.StockSnapshot, error)

	// FetchPrices requests price-only updates for all pairs in one call.
	// Entries the oracle could not price are simply absent from the result.
	FetchPrices(ctx context.Context, pairs []models.PriceQuote) ([]models.PriceQuote, error)

	// FetchMetrics refreshes the slow-changing fields of one holding.
	FetchMetrics(ctx context.Context, ticker string, exchange models.Exchange) (*models.MetricsUpdate, error)

	FetchHistory(ctx context.Context, ticker string, exchange models.Exchange, r models.HistoryRange) ([]models.PricePoint, error)
	FetchNews(ctx context.Context, ticker string, exchange models.Exchange) ([]models.NewsItem, error)

	// FetchExchangeRate returns the scalar conversion rate from one currency
	// to another.
	FetchExchangeRate(ctx context.Context, from, to models.Currency) (float64, error)

	// FetchChart returns an SVG chart of the ticker's price history. When
	// the oracle reply contains no usable SVG, a locally rendered chart
	// built from FetchHistory data is returned instead.
	FetchChart(ctx context.Context, ticker string, exchange models.Exchange, r models.HistoryRange) (string, error)
}

// PortfolioService manages accounts and holdings for the session user and
// computes valuation summaries. All methods resolve the user from the
// session in ctx and fail on unauthenticated contexts.
type PortfolioService interface {
	CreateAccount(ctx context.Context, name string, accountType models.AccountType) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	DeleteAccount(ctx context.Context, accountID string) error

	// AddStock looks the query up via the oracle and creates a stock holding.
	// Rejected when a holding with the same (ticker, exchange, account)
	// already exists, or when the lookup fails the essential-field gate.
	AddStock(ctx context.Context, accountID, query string, exchange models.Exchange, shares, avgCost float64) (*models.Asset, error)

	// DepositCash adds to the account's cash record for the currency,
	// creating it on first deposit. Amounts accumulate, never replace.
	DepositCash(ctx context.Context, accountID string, currency models.Currency, amount float64) (*models.Asset, error)

	ListHoldings(ctx context.Context, accountID string) ([]*models.Asset, error)
	DeleteHolding(ctx context.Context, assetID string) error

	// Summary aggregates over the whole portfolio, or one account when
	// accountID is non-empty. Recomputed from persisted state on every call.
	Summary(ctx context.Context, accountID string) (*models.PortfolioSummary, error)

	// RefreshStaleMetrics runs one staleness sweep: holdings whose metrics
	// are older than the TTL are refreshed strictly sequentially with an
	// enforced inter-call pause. Returns the number of holdings refreshed.
	RefreshStaleMetrics(ctx context.Context) (int, error)

	// SyncPrices re-fetches all stock holdings' prices in one batched call
	// and merges matches back by exact (ticker, exchange). Returns the
	// number of holdings updated.
	SyncPrices(ctx context.Context) (int, error)

	GetProfile(ctx context.Context) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)

	// WarmCaches primes session-lifetime caches (the CAD→USD rate) so the
	// first portfolio view never blocks on an oracle call.
	WarmCaches(ctx context.Context) error
}
