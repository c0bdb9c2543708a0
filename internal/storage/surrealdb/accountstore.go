package surrealdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/models"
)

// ErrAccountNotFound is returned when no account matches the lookup for the user.
var ErrAccountNotFound = errors.New("account not found")

type AccountStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewAccountStore(db *surrealdb.DB, logger *common.Logger) *AccountStore {
	return &AccountStore{
		db:     db,
		logger: logger,
	}
}

func (s *AccountStore) Get(ctx context.Context, userID, accountID string) (*models.Account, error) {
	account, err := surrealdb.Select[models.Account](ctx, s.db, surrealmodels.NewRecordID("account", accountID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to select account: %w", err)
	}
	// Ownership check: record IDs are global, scope is per user.
	if account == nil || account.UserID != userID {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountStore) Save(ctx context.Context, account *models.Account) error {
	sql := "UPSERT type::record('account', $id) CONTENT $account"
	vars := map[string]any{"id": account.ID, "account": account}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Account](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save account after retries: %w", lastErr)
}

func (s *AccountStore) Delete(ctx context.Context, userID, accountID string) error {
	// Verify ownership before deleting
	if _, err := s.Get(ctx, userID, accountID); err != nil {
		return err
	}
	_, err := surrealdb.Delete[models.Account](ctx, s.db, surrealmodels.NewRecordID("account", accountID))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (s *AccountStore) List(ctx context.Context, userID string) ([]*models.Account, error) {
	sql := "SELECT * FROM account WHERE user_id = $user_id ORDER BY created_at ASC"
	vars := map[string]any{"user_id": userID}

	results, err := surrealdb.Query[[]models.Account](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Account
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}
