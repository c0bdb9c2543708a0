package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/models"
)

type ProfileStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewProfileStore(db *surrealdb.DB, logger *common.Logger) *ProfileStore {
	return &ProfileStore{
		db:     db,
		logger: logger,
	}
}

// Get returns the user's profile, or an empty profile when none is stored.
// Profiles are keyed 1:1 with the user, so absence is not an error.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := surrealdb.Select[models.UserProfile](ctx, s.db, surrealmodels.NewRecordID("profile", userID))
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("failed to select profile: %w", err)
	}
	if profile == nil || profile.UserID == "" {
		return &models.UserProfile{UserID: userID}, nil
	}
	return profile, nil
}

// Merge applies non-nil fields of profile onto the stored record. Omitted
// fields keep their stored values.
func (s *ProfileStore) Merge(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	current, err := s.Get(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}

	if profile.EstimatedAnnualEarnings != nil {
		current.EstimatedAnnualEarnings = profile.EstimatedAnnualEarnings
	}
	current.UpdatedAt = time.Now()

	sql := "UPSERT type::record('profile', $id) CONTENT $profile"
	vars := map[string]any{"id": current.UserID, "profile": current}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.UserProfile](ctx, s.db, sql, vars)
		if err == nil {
			return current, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to save profile after retries: %w", lastErr)
}
