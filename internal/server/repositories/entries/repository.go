package entries

import (
	"context"

	"github.com/dmitrijs2005/bitguard/internal/server/models"
)

// Repository persists sealed entries. Implementations never see plaintext.
type Repository interface {
	Put(ctx context.Context, entry *models.Entry) error
	Get(ctx context.Context, id string) (*models.Entry, error)
	ListByVault(ctx context.Context, vaultID string) ([]*models.Entry, error)
	Update(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, vaultID, id string) error
}
