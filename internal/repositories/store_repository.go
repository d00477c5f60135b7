package repositories

import (
	"context"

	"storerating/internal/models"
)

// StoreFilter narrows a store listing; every field is a case-insensitive
// substring match.
type StoreFilter struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// StoreSort is the sort whitelist for store listings.
var StoreSort = SortSpec{
	Fields: map[string]string{
		"name":          "name",
		"email":         "email",
		"address":       "address",
		"averageRating": "average_rating",
		"totalRatings":  "total_ratings",
		"createdAt":     "created_at",
	},
	DefaultField: "name",
	DefaultOrder: SortAsc,
}

// StoreRepository defines the interface for store data access.
type StoreRepository interface {
	Create(ctx context.Context, store *models.Store) error
	GetByID(ctx context.Context, id string) (*models.Store, error)
	// GetByIDForUpdate locks the store row until the surrounding transaction
	// ends. Only meaningful inside a UnitOfWork.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Store, error)
	GetByEmail(ctx context.Context, email string) (*models.Store, error)
	// GetDetail loads the store with its owner and its ratings (with raters).
	GetDetail(ctx context.Context, id string) (*models.Store, error)
	// GetByOwnerWithRatings loads the first store owned by ownerID with its
	// ratings, newest first.
	GetByOwnerWithRatings(ctx context.Context, ownerID string) (*models.Store, error)
	UpdateAggregate(ctx context.Context, id string, average float64, total int) error
	List(ctx context.Context, filter StoreFilter, page Page, sort Sorting) ([]models.Store, int64, error)
	Count(ctx context.Context) (int64, error)
	Recent(ctx context.Context, n int) ([]models.Store, error)
}
