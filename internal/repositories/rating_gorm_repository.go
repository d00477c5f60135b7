package repositories

import (
	"context"
	"fmt"

	"storerating/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMRatingRepository is a GORM implementation of RatingRepository.
type GORMRatingRepository struct {
	db *gorm.DB
}

// NewGORMRatingRepository creates a new instance of GORMRatingRepository.
func NewGORMRatingRepository(db *gorm.DB) *GORMRatingRepository {
	return &GORMRatingRepository{db: db}
}

func (r *GORMRatingRepository) GetByUserAndStore(ctx context.Context, userID, storeID string) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND store_id = ?", userID, storeID).
		First(&rating).Error
	if err != nil {
		return nil, notFoundOr(err, "rating of store "+storeID+" by user", userID)
	}
	return &rating, nil
}

// Create inserts a rating. A second rating of the same store by the same user
// surfaces as gorm.ErrDuplicatedKey.
func (r *GORMRatingRepository) Create(ctx context.Context, rating *models.Rating) error {
	if rating.ID == "" {
		rating.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rating).Error; err != nil {
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

// Update overwrites value and comment of an existing rating.
func (r *GORMRatingRepository) Update(ctx context.Context, rating *models.Rating) error {
	res := r.db.WithContext(ctx).Model(rating).Omit(clause.Associations).
		Select("rating", "comment", "updated_at").
		Updates(rating)
	if res.Error != nil {
		return fmt.Errorf("failed to update rating %s: %w", rating.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("rating %s: %w", rating.ID, ErrNotFound)
	}
	return nil
}

func (r *GORMRatingRepository) ValuesByStore(ctx context.Context, storeID string) ([]int, error) {
	var values []int
	err := r.db.WithContext(ctx).Model(&models.Rating{}).
		Where("store_id = ?", storeID).
		Pluck("rating", &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings of store %s: %w", storeID, err)
	}
	return values, nil
}

// ListByStore returns a store's ratings with their raters, newest first.
func (r *GORMRatingRepository) ListByStore(ctx context.Context, storeID string) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings of store %s: %w", storeID, err)
	}
	return ratings, nil
}

func (r *GORMRatingRepository) UserRatingsForStores(ctx context.Context, userID string, storeIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(storeIDs))
	if len(storeIDs) == 0 {
		return out, nil
	}

	var rows []models.Rating
	err := r.db.WithContext(ctx).
		Select("store_id", "rating").
		Where("user_id = ? AND store_id IN ?", userID, storeIDs).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings of user %s: %w", userID, err)
	}
	for _, row := range rows {
		out[row.StoreID] = row.Rating
	}
	return out, nil
}

func (r *GORMRatingRepository) filtered(ctx context.Context, filter RatingFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Rating{}).
		Joins("JOIN users ON users.id = ratings.user_id").
		Joins("JOIN stores ON stores.id = ratings.store_id")
	if filter.Rating != nil {
		q = q.Where("ratings.rating = ?", *filter.Rating)
	}
	q = whereContains(q, "stores.name", filter.StoreName)
	q = whereContains(q, "users.name", filter.UserName)
	return q
}

// List returns one page of ratings across all stores, each with its rater and
// store, plus the total number of matches.
func (r *GORMRatingRepository) List(ctx context.Context, filter RatingFilter, page Page, sort Sorting) ([]models.Rating, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ratings: %w", err)
	}

	var ratings []models.Rating
	q := sort.Apply(r.filtered(ctx, filter).Select("ratings.*"), "ratings")
	err := page.Apply(q).
		Preload("User").
		Preload("Store").
		Find(&ratings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ratings: %w", err)
	}
	return ratings, total, nil
}

func (r *GORMRatingRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Rating{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	return total, nil
}
