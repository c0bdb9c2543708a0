package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/models"
)

// ErrHoldingNotFound is returned when no holding matches the lookup for the user.
var ErrHoldingNotFound = errors.New("holding not found")

// HoldingStore persists assets and fans writes out to per-user subscribers,
// standing in for the hosted database's real-time push. Subscribers receive
// a bare change signal and must re-read persisted state — never a diff.
type HoldingStore struct {
	db     *surrealdb.DB
	logger *common.Logger

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func() // userID -> sub id -> callback
}

func NewHoldingStore(db *surrealdb.DB, logger *common.Logger) *HoldingStore {
	return &HoldingStore{
		db:     db,
		logger: logger,
		subs:   make(map[string]map[int]func()),
	}
}

func (s *HoldingStore) Get(ctx context.Context, userID, assetID string) (*models.Asset, error) {
	asset, err := surrealdb.Select[models.Asset](ctx, s.db, surrealmodels.NewRecordID("holding", assetID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrHoldingNotFound
		}
		return nil, fmt.Errorf("failed to select holding: %w", err)
	}
	if asset == nil || asset.UserID != userID {
		return nil, ErrHoldingNotFound
	}
	return asset, nil
}

func (s *HoldingStore) Save(ctx context.Context, asset *models.Asset) error {
	sql := "UPSERT type::record('holding', $id) CONTENT $asset"
	vars := map[string]any{"id": asset.ID, "asset": asset}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Asset](ctx, s.db, sql, vars)
		if err == nil {
			s.notify(asset.UserID)
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save holding after retries: %w", lastErr)
}

func (s *HoldingStore) Delete(ctx context.Context, userID, assetID string) error {
	if _, err := s.Get(ctx, userID, assetID); err != nil {
		return err
	}
	_, err := surrealdb.Delete[models.Asset](ctx, s.db, surrealmodels.NewRecordID("holding", assetID))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	s.notify(userID)
	return nil
}

func (s *HoldingStore) List(ctx context.Context, userID string) ([]*models.Asset, error) {
	sql := "SELECT * FROM holding WHERE user_id = $user_id ORDER BY created_at ASC"
	vars := map[string]any{"user_id": userID}
	return s.query(ctx, sql, vars)
}

func (s *HoldingStore) ListByAccount(ctx context.Context, userID, accountID string) ([]*models.Asset, error) {
	sql := "SELECT * FROM holding WHERE user_id = $user_id AND account_id = $account_id ORDER BY created_at ASC"
	vars := map[string]any{"user_id": userID, "account_id": accountID}
	return s.query(ctx, sql, vars)
}

func (s *HoldingStore) DeleteByAccount(ctx context.Context, userID, accountID string) (int, error) {
	sql := "DELETE holding WHERE user_id = $user_id AND account_id = $account_id RETURN BEFORE"
	vars := map[string]any{"user_id": userID, "account_id": accountID}

	results, err := surrealdb.Query[[]models.Asset](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to delete holdings by account: %w", err)
	}

	count := 0
	if results != nil && len(*results) > 0 {
		count = len((*results)[0].Result)
	}
	if count > 0 {
		s.notify(userID)
	}
	return count, nil
}

func (s *HoldingStore) query(ctx context.Context, sql string, vars map[string]any) ([]*models.Asset, error) {
	results, err := surrealdb.Query[[]models.Asset](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Asset
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

// Subscribe registers a change callback for the user's holdings.
func (s *HoldingStore) Subscribe(userID string, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int]func())
	}
	s.subs[userID][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if m := s.subs[userID]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(s.subs, userID)
			}
		}
	}
}

func (s *HoldingStore) notify(userID string) {
	s.mu.Lock()
	callbacks := make([]func(), 0, len(s.subs[userID]))
	for _, fn := range s.subs[userID] {
		callbacks = append(callbacks, fn)
	}
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
