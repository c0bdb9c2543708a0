// Package portfolio manages accounts and holdings and keeps oracle-sourced
// data on them fresh.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/interfaces"
	"github.com/foliolabs/folio/internal/models"
)

var (
	// ErrUnauthenticated: the request context carries no session.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrDuplicateHolding: the account already holds this (ticker, exchange).
	ErrDuplicateHolding = errors.New("a holding for this ticker already exists in the account")
)

// Service implements PortfolioService.
type Service struct {
	storage interfaces.StorageManager
	market  interfaces.MarketService
	logger  *common.Logger

	now   func() time.Time                         // injectable clock for testing
	pause func(context.Context, time.Duration) error // injectable sleep for testing

	// Session-cached CAD→USD conversion rate (4.4): fetched once, fallback
	// 1.0 with a warning. Valuation never blocks on a missing rate.
	fxMu      sync.Mutex
	fxRate    float64
	fxFetched bool
}

// NewService creates a new portfolio service.
func NewService(storage interfaces.StorageManager, market interfaces.MarketService, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		market:  market,
		logger:  logger,
		now:     time.Now,
		pause:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) userID(ctx context.Context) (string, error) {
	userID := common.ResolveUserID(ctx)
	if userID == "" {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// --- Accounts ---

// CreateAccount creates a brokerage account. Accounts are never auto-created.
func (s *Service) CreateAccount(ctx context.Context, name string, accountType models.AccountType) (*models.Account, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Type:      accountType,
		CreatedAt: s.now(),
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.Accounts().Save(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info().Str("account", account.Name).Str("type", string(accountType)).Msg("Account created")
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	return s.storage.Accounts().List(ctx, userID)
}

// DeleteAccount removes an account and all of its holdings, immediately and
// irrevocably.
func (s *Service) DeleteAccount(ctx context.Context, accountID string) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}

	if err := s.storage.Accounts().Delete(ctx, userID, accountID); err != nil {
		return err
	}

	count, err := s.storage.Holdings().DeleteByAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}

	s.logger.Info().Str("account_id", accountID).Int("holdings", count).Msg("Account deleted")
	return nil
}

// --- Holdings ---

// AddStock looks up the query via the oracle and creates a stock holding.
// The lookup is all-or-nothing: a reply missing any essential field creates
// nothing. A holding with the same (ticker, exchange) in the account is a
// validation error, not a system fault.
func (s *Service) AddStock(ctx context.Context, accountID, query string, exchange models.Exchange, shares, avgCost float64) (*models.Asset, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if shares < 0 || avgCost < 0 {
		return nil, fmt.Errorf("shares and average cost must be non-negative")
	}
	if !exchange.Valid() {
		return nil, fmt.Errorf("unsupported exchange %q", exchange)
	}

	if _, err := s.storage.Accounts().Get(ctx, userID, accountID); err != nil {
		return nil, err
	}

	snapshot, err := s.market.LookupStock(ctx, query, exchange)
	if err != nil {
		return nil, err
	}

	existing, err := s.storage.Holdings().ListByAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	for _, h := range existing {
		if h.Kind == models.AssetKindStock && h.Stock != nil &&
			h.Stock.Ticker == snapshot.Ticker && h.Stock.Exchange == snapshot.Exchange {
			return nil, fmt.Errorf("%w: %s on %s", ErrDuplicateHolding, snapshot.Ticker, snapshot.Exchange)
		}
	}

	now := s.now()
	asset := &models.Asset{
		ID:        uuid.New().String(),
		UserID:    userID,
		AccountID: accountID,
		Kind:      models.AssetKindStock,
		Stock: &models.StockPosition{
			Ticker:           snapshot.Ticker,
			Name:             snapshot.Name,
			Exchange:         snapshot.Exchange,
			Shares:           shares,
			AvgCost:          avgCost,
			CurrentPrice:     snapshot.Price,
			YearlyDividend:   snapshot.YearlyDividend,
			TrailingPE:       snapshot.TrailingPE,
			ForwardPE:        snapshot.ForwardPE,
			Low52Week:        snapshot.Low52Week,
			High52Week:       snapshot.High52Week,
			Profile:          snapshot.Profile,
			MarketCap:        snapshot.MarketCap,
			DividendYield:    snapshot.DividendYield,
			History:          snapshot.History,
			PriceUpdatedAt:   now,
			MetricsUpdatedAt: now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := asset.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.Holdings().Save(ctx, asset); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("ticker", snapshot.Ticker).
		Str("exchange", string(snapshot.Exchange)).
		Str("account_id", accountID).
		Msg("Stock holding added")

	return asset, nil
}

// DepositCash adds to the account's cash record for the currency. Deposits
// into an existing record accumulate; a new record is created only for the
// first deposit in that currency.
func (s *Service) DepositCash(ctx context.Context, accountID string, currency models.Currency, amount float64) (*models.Asset, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if !currency.Valid() {
		return nil, fmt.Errorf("unsupported currency %q", currency)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive")
	}

	if _, err := s.storage.Accounts().Get(ctx, userID, accountID); err != nil {
		return nil, err
	}

	holdings, err := s.storage.Holdings().ListByAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	for _, h := range holdings {
		if h.Kind == models.AssetKindCash && h.Cash != nil && h.Cash.Currency == currency {
			h.Cash.Amount += amount
			h.UpdatedAt = s.now()
			if err := s.storage.Holdings().Save(ctx, h); err != nil {
				return nil, err
			}
			s.logger.Info().
				Str("currency", string(currency)).
				Float64("amount", amount).
				Float64("balance", h.Cash.Amount).
				Msg("Cash deposit merged")
			return h, nil
		}
	}

	now := s.now()
	asset := &models.Asset{
		ID:        uuid.New().String(),
		UserID:    userID,
		AccountID: accountID,
		Kind:      models.AssetKindCash,
		Cash: &models.CashPosition{
			Currency: currency,
			Amount:   amount,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := asset.Validate(); err != nil {
		return nil, err
	}
	if err := s.storage.Holdings().Save(ctx, asset); err != nil {
		return nil, err
	}

	s.logger.Info().Str("currency", string(currency)).Float64("amount", amount).Msg("Cash holding created")
	return asset, nil
}

// ListHoldings returns the user's holdings, or one account's when accountID
// is non-empty.
func (s *Service) ListHoldings(ctx context.Context, accountID string) ([]*models.Asset, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if accountID == "" {
		return s.storage.Holdings().List(ctx, userID)
	}
	return s.storage.Holdings().ListByAccount(ctx, userID, accountID)
}

// DeleteHolding removes a holding immediately and irrevocably.
func (s *Service) DeleteHolding(ctx context.Context, assetID string) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}
	return s.storage.Holdings().Delete(ctx, userID, assetID)
}

// --- Profile ---

func (s *Service) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	return s.storage.Profiles().Get(ctx, userID)
}

// UpdateProfile merges the given fields onto the stored profile.
func (s *Service) UpdateProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	profile.UserID = userID
	return s.storage.Profiles().Merge(ctx, profile)
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
