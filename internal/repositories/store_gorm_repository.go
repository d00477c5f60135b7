package repositories

import (
	"context"
	"errors"
	"fmt"

	"storerating/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMStoreRepository is a GORM implementation of StoreRepository.
type GORMStoreRepository struct {
	db *gorm.DB
}

// NewGORMStoreRepository creates a new instance of GORMStoreRepository.
func NewGORMStoreRepository(db *gorm.DB) *GORMStoreRepository {
	return &GORMStoreRepository{db: db}
}

func ratingsNewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

func notFoundOr(err error, what, key string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, key, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s %s: %w", what, key, err)
}

// Create creates a new store with an empty aggregate.
func (r *GORMStoreRepository) Create(ctx context.Context, store *models.Store) error {
	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	store.AverageRating = 0
	store.TotalRatings = 0
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(store).Error; err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	return nil
}

func (r *GORMStoreRepository) GetByID(ctx context.Context, id string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "store", id)
	}
	return &store, nil
}

// GetByIDForUpdate selects the store row with FOR UPDATE. SQLite has no row
// locks; there the single connection already serializes writers.
func (r *GORMStoreRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&store, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "store", id)
	}
	return &store, nil
}

func (r *GORMStoreRepository) GetByEmail(ctx context.Context, email string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).First(&store, "email = ?", email).Error; err != nil {
		return nil, notFoundOr(err, "store with email", email)
	}
	return &store, nil
}

func (r *GORMStoreRepository) GetDetail(ctx context.Context, id string) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Ratings", ratingsNewestFirst).
		Preload("Ratings.User").
		First(&store, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "store", id)
	}
	return &store, nil
}

func (r *GORMStoreRepository) GetByOwnerWithRatings(ctx context.Context, ownerID string) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Preload("Ratings", ratingsNewestFirst).
		Preload("Ratings.User").
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		First(&store).Error
	if err != nil {
		return nil, notFoundOr(err, "store for owner", ownerID)
	}
	return &store, nil
}

// UpdateAggregate overwrites the cached average and count.
func (r *GORMStoreRepository) UpdateAggregate(ctx context.Context, id string, average float64, total int) error {
	res := r.db.WithContext(ctx).Model(&models.Store{}).Where("id = ?", id).
		Updates(map[string]interface{}{"average_rating": average, "total_ratings": total})
	if res.Error != nil {
		return fmt.Errorf("failed to update aggregate of store %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMStoreRepository) filtered(ctx context.Context, filter StoreFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Store{})
	q = whereContains(q, "name", filter.Name)
	q = whereContains(q, "email", filter.Email)
	q = whereContains(q, "address", filter.Address)
	return q
}

// List returns one page of stores matching filter, with their owners, and the
// total number of matches.
func (r *GORMStoreRepository) List(ctx context.Context, filter StoreFilter, page Page, sort Sorting) ([]models.Store, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stores: %w", err)
	}

	var stores []models.Store
	q := sort.Apply(r.filtered(ctx, filter), "")
	if err := page.Apply(q).Preload("Owner").Find(&stores).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list stores: %w", err)
	}
	return stores, total, nil
}

func (r *GORMStoreRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Store{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count stores: %w", err)
	}
	return total, nil
}

// Recent returns the n most recently created stores with their owners.
func (r *GORMStoreRepository) Recent(ctx context.Context, n int) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Preload("Owner").Order("created_at DESC").Limit(n).Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent stores: %w", err)
	}
	return stores, nil
}
