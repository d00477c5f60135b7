package repositories

import (
	"context"

	"storerating/internal/models"
)

// RatingFilter narrows the admin ratings listing.
type RatingFilter struct {
	Rating    *int   `json:"rating,omitempty"`
	StoreName string `json:"storeName,omitempty"`
	UserName  string `json:"userName,omitempty"`
}

// RatingSort is the sort whitelist for rating listings.
var RatingSort = SortSpec{
	Fields: map[string]string{
		"rating":    "rating",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	DefaultField: "createdAt",
	DefaultOrder: SortDesc,
}

// RatingRepository defines the interface for rating data access.
type RatingRepository interface {
	GetByUserAndStore(ctx context.Context, userID, storeID string) (*models.Rating, error)
	Create(ctx context.Context, rating *models.Rating) error
	Update(ctx context.Context, rating *models.Rating) error
	// ValuesByStore returns the star value of every rating of a store.
	ValuesByStore(ctx context.Context, storeID string) ([]int, error)
	ListByStore(ctx context.Context, storeID string) ([]models.Rating, error)
	// UserRatingsForStores maps store ID to the value userID gave it, for the
	// given stores only.
	UserRatingsForStores(ctx context.Context, userID string, storeIDs []string) (map[string]int, error)
	List(ctx context.Context, filter RatingFilter, page Page, sort Sorting) ([]models.Rating, int64, error)
	Count(ctx context.Context) (int64, error)
}

// Repositories groups the repositories bound to one database handle, either
// the pool or an open transaction.
type Repositories struct {
	Users   UserRepository
	Stores  StoreRepository
	Ratings RatingRepository
}

// UnitOfWork runs fn inside a single transaction. The transaction commits when
// fn returns nil and rolls back on any error or panic.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos Repositories) error) error
}
