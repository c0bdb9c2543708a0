package interfaces

import (
	"context"

	"github.com/foliolabs/folio/internal/models"
)

// StorageManager coordinates the document-store backends. Every store scopes
// records by user ID; nothing is shared across users.
type StorageManager interface {
	Users() UserStore
	Accounts() AccountStore
	Holdings() HoldingStore
	Profiles() ProfileStore

	Close() error
}

// UserStore manages authentication accounts.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// AccountStore manages brokerage accounts.
type AccountStore interface {
	Get(ctx context.Context, userID, accountID string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, userID, accountID string) error
	List(ctx context.Context, userID string) ([]*models.Account, error)
}

// HoldingStore manages assets. Writes notify registered subscribers so views
// recompute from persisted truth rather than polling or diffing.
type HoldingStore interface {
	Get(ctx context.Context, userID, assetID string) (*models.Asset, error)
	Save(ctx context.Context, asset *models.Asset) error
	Delete(ctx context.Context, userID, assetID string) error
	List(ctx context.Context, userID string) ([]*models.Asset, error)
	ListByAccount(ctx context.Context, userID, accountID string) ([]*models.Asset, error)
	DeleteByAccount(ctx context.Context, userID, accountID string) (int, error)

	// Subscribe registers a callback invoked after any write to the user's
	// holdings. The returned handle unsubscribes; it is safe to call more
	// than once.
	Subscribe(userID string, fn func()) (unsubscribe func())
}

// ProfileStore manages the 1:1 user profile.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	// Merge applies non-nil fields onto the stored profile, creating it if
	// absent. Existing values are never cleared by omitted fields.
	Merge(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
}
