package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/foliolabs/folio/internal/app"
	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/interfaces"
	"github.com/foliolabs/folio/internal/models"
	"github.com/foliolabs/folio/internal/storage/surrealdb"
)

// --- In-memory storage for auth tests ---

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (m *memUserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, surrealdb.ErrUserNotFound
}

func (m *memUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, surrealdb.ErrUserNotFound
}

func (m *memUserStore) SaveUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UserID] = user
	return nil
}

type memStorage struct {
	users    *memUserStore
	holdings *surrealdb.HoldingStore
}

func newMemStorage() *memStorage {
	return &memStorage{
		users: &memUserStore{users: make(map[string]*models.User)},
		// Connectionless store: the watch tests only exercise the
		// in-memory subscription hub.
		holdings: surrealdb.NewHoldingStore(nil, common.NewSilentLogger()),
	}
}

func (m *memStorage) Users() interfaces.UserStore       { return m.users }
func (m *memStorage) Accounts() interfaces.AccountStore { return nil }
func (m *memStorage) Holdings() interfaces.HoldingStore { return m.holdings }
func (m *memStorage) Profiles() interfaces.ProfileStore { return nil }
func (m *memStorage) Close() error                      { return nil }

// --- Portfolio service mock ---

type mockPortfolioService struct {
	createAccount func(ctx context.Context, name string, accountType models.AccountType) (*models.Account, error)
	listAccounts  func(ctx context.Context) ([]*models.Account, error)
	deleteAccount func(ctx context.Context, accountID string) error
	addStock      func(ctx context.Context, accountID, query string, exchange models.Exchange, shares, avgCost float64) (*models.Asset, error)
	depositCash   func(ctx context.Context, accountID string, currency models.Currency, amount float64) (*models.Asset, error)
	listHoldings  func(ctx context.Context, accountID string) ([]*models.Asset, error)
	summary       func(ctx context.Context, accountID string) (*models.PortfolioSummary, error)
	getProfile    func(ctx context.Context) (*models.UserProfile, error)
	updateProfile func(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
}

func (m *mockPortfolioService) CreateAccount(ctx context.Context, name string, accountType models.AccountType) (*models.Account, error) {
	if m.createAccount != nil {
		return m.createAccount(ctx, name, accountType)
	}
	return &models.Account{ID: "acct-1", Name: name, Type: accountType}, nil
}

func (m *mockPortfolioService) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	if m.listAccounts != nil {
		return m.listAccounts(ctx)
	}
	return nil, nil
}

func (m *mockPortfolioService) DeleteAccount(ctx context.Context, accountID string) error {
	if m.deleteAccount != nil {
		return m.deleteAccount(ctx, accountID)
	}
	return nil
}

func (m *mockPortfolioService) AddStock(ctx context.Context, accountID, query string, exchange models.Exchange, shares, avgCost float64) (*models.Asset, error) {
	if m.addStock != nil {
		return m.addStock(ctx, accountID, query, exchange, shares, avgCost)
	}
	return &models.Asset{ID: "asset-1", Kind: models.AssetKindStock}, nil
}

func (m *mockPortfolioService) DepositCash(ctx context.Context, accountID string, currency models.Currency, amount float64) (*models.Asset, error) {
	if m.depositCash != nil {
		return m.depositCash(ctx, accountID, currency, amount)
	}
	return &models.Asset{ID: "asset-1", Kind: models.AssetKindCash}, nil
}

func (m *mockPortfolioService) ListHoldings(ctx context.Context, accountID string) ([]*models.Asset, error) {
	if m.listHoldings != nil {
		return m.listHoldings(ctx, accountID)
	}
	return nil, nil
}

func (m *mockPortfolioService) DeleteHolding(ctx context.Context, assetID string) error {
	return nil
}

func (m *mockPortfolioService) Summary(ctx context.Context, accountID string) (*models.PortfolioSummary, error) {
	if m.summary != nil {
		return m.summary(ctx, accountID)
	}
	return &models.PortfolioSummary{}, nil
}

func (m *mockPortfolioService) RefreshStaleMetrics(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *mockPortfolioService) SyncPrices(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *mockPortfolioService) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	if m.getProfile != nil {
		return m.getProfile(ctx)
	}
	return &models.UserProfile{}, nil
}

func (m *mockPortfolioService) UpdateProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	if m.updateProfile != nil {
		return m.updateProfile(ctx, profile)
	}
	return profile, nil
}

func (m *mockPortfolioService) WarmCaches(ctx context.Context) error { return nil }

var _ interfaces.PortfolioService = (*mockPortfolioService)(nil)

// --- Market service mock ---

type mockMarketService struct {
	lookupStock  func(ctx context.Context, query string, exchange models.Exchange) (*models.StockSnapshot, error)
	fetchHistory func(ctx context.Context, ticker string, exchange models.Exchange, r models.HistoryRange) ([]models.PricePoint, error)
	fetchChart   func(ctx context.Context, ticker string, exchange models.Exchange, r models.HistoryRange) (string, error)
}

func (m *mockMarketService) LookupStock(ctx context.Context, query string, exchange models.Exchange) (*models.StockSnapshot, error) {
	if m.lookupStock != nil {
		return m.lookupStock(ctx, query, exchange)
	}
	return nil, errors.New("not implemented")
}

func (m *mockMarketService) FetchPrices(ctx context.Context, pairs []models.PriceQuote) ([]models.PriceQuote, error) {
	return nil, nil
}

func (m *mockMarketService) FetchMetrics(ctx context.Context, ticker string, exchange models.Exchange) (*models.MetricsUpdate, error) {
	return &models.MetricsUpdate{}, nil
}

func (m *mockMarketService) FetchHistory(ctx context.Context, ticker string, exchange models.Exchange, r models.HistoryRange) ([]models.PricePoint, error) {
	if m.fetchHistory != nil {
		return m.fetchHistory(ctx, ticker, exchange, r)
	}
	return nil, nil
}

func (m *mockMarketService) FetchNews(ctx context.Context, ticker string, exchange models.Exchange) ([]models.NewsItem, error) {
	return nil, nil
}

func (m *mockMarketService) FetchExchangeRate(ctx context.Context, from, to models.Currency) (float64, error) {
	return 1, nil
}

func (m *mockMarketService) FetchChart(ctx context.Context, ticker string, exchange models.Exchange, r models.HistoryRange) (string, error) {
	if m.fetchChart != nil {
		return m.fetchChart(ctx, ticker, exchange, r)
	}
	return "<svg></svg>", nil
}

var _ interfaces.MarketService = (*mockMarketService)(nil)

// --- Test server construction ---

func newTestServer(portfolioSvc interfaces.PortfolioService) *Server {
	logger := common.NewSilentLogger()
	a := &app.App{
		Config:           common.NewDefaultConfig(),
		Logger:           logger,
		Storage:          newMemStorage(),
		PortfolioService: portfolioSvc,
		MarketService:    &mockMarketService{},
	}
	return &Server{app: a, logger: logger}
}

func newTestServerWithStorage() *Server {
	return newTestServer(&mockPortfolioService{})
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return bytes.NewBuffer(data)
}
