package services

import (
	"context"

	"storerating/internal/apperror"
	"storerating/internal/models"
	"storerating/internal/repositories"
)

const recentLimit = 5

// DashboardService assembles the admin and store-owner dashboards.
type DashboardService struct {
	userRepo   repositories.UserRepository
	storeRepo  repositories.StoreRepository
	ratingRepo repositories.RatingRepository
}

func NewDashboardService(userRepo repositories.UserRepository, storeRepo repositories.StoreRepository, ratingRepo repositories.RatingRepository) *DashboardService {
	return &DashboardService{
		userRepo:   userRepo,
		storeRepo:  storeRepo,
		ratingRepo: ratingRepo,
	}
}

type AdminStats struct {
	TotalUsers   int64 `json:"totalUsers"`
	TotalStores  int64 `json:"totalStores"`
	TotalRatings int64 `json:"totalRatings"`
}

type AdminDashboard struct {
	Stats        AdminStats     `json:"stats"`
	RecentUsers  []models.User  `json:"recentUsers"`
	RecentStores []models.Store `json:"recentStores"`
}

type OwnerStats struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
}

type OwnerDashboard struct {
	Store *models.Store `json:"store"`
	Stats OwnerStats    `json:"stats"`
}

// Admin returns platform-wide counts and the five newest users and stores.
func (s *DashboardService) Admin(ctx context.Context) (*AdminDashboard, error) {
	var (
		d   AdminDashboard
		err error
	)
	if d.Stats.TotalUsers, err = s.userRepo.Count(ctx); err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	if d.Stats.TotalStores, err = s.storeRepo.Count(ctx); err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	if d.Stats.TotalRatings, err = s.ratingRepo.Count(ctx); err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	if d.RecentUsers, err = s.userRepo.Recent(ctx, recentLimit); err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	if d.RecentStores, err = s.storeRepo.Recent(ctx, recentLimit); err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	if d.RecentUsers == nil {
		d.RecentUsers = []models.User{}
	}
	if d.RecentStores == nil {
		d.RecentStores = []models.Store{}
	}
	return &d, nil
}

// StoreOwner returns the caller's store with its ratings. An owner of several
// stores sees the oldest one.
func (s *DashboardService) StoreOwner(ctx context.Context, ownerID string) (*OwnerDashboard, error) {
	store, err := s.storeRepo.GetByOwnerWithRatings(ctx, ownerID)
	if err != nil {
		return nil, lookupErr(err, "Store not found for this owner")
	}
	return &OwnerDashboard{
		Store: store,
		Stats: OwnerStats{
			AverageRating: store.AverageRating,
			TotalRatings:  store.TotalRatings,
		},
	}, nil
}
