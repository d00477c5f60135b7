package repositories

import (
	"context"
	"errors"

	"storerating/internal/models"
)

// ErrNotFound is wrapped by every repository lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// UserFilter narrows a user listing. String fields match case-insensitively
// anywhere in the column; Role matches exactly.
type UserFilter struct {
	Name    string       `json:"name,omitempty"`
	Email   string       `json:"email,omitempty"`
	Address string       `json:"address,omitempty"`
	Role    *models.Role `json:"role,omitempty"`
}

// UserSort is the sort whitelist for user listings.
var UserSort = SortSpec{
	Fields: map[string]string{
		"name":      "name",
		"email":     "email",
		"address":   "address",
		"role":      "role",
		"createdAt": "created_at",
	},
	DefaultField: "name",
	DefaultOrder: SortAsc,
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByIDWithStores also loads the stores the user owns.
	GetByIDWithStores(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	List(ctx context.Context, filter UserFilter, page Page, sort Sorting) ([]models.User, int64, error)
	Count(ctx context.Context) (int64, error)
	Recent(ctx context.Context, n int) ([]models.User, error)
}
