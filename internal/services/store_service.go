package services

import (
	"context"
	"errors"

	"storerating/internal/apperror"
	"storerating/internal/models"
	"storerating/internal/repositories"
)

// StoreService handles store creation, lookup and listing.
type StoreService struct {
	storeRepo  repositories.StoreRepository
	userRepo   repositories.UserRepository
	ratingRepo repositories.RatingRepository
}

func NewStoreService(storeRepo repositories.StoreRepository, userRepo repositories.UserRepository, ratingRepo repositories.RatingRepository) *StoreService {
	return &StoreService{
		storeRepo:  storeRepo,
		userRepo:   userRepo,
		ratingRepo: ratingRepo,
	}
}

type CreateStoreInput struct {
	Name    string
	Email   string
	Address string
	OwnerID string
}

// StoreListQuery is a stores listing request.
type StoreListQuery struct {
	ListParams
	Filter repositories.StoreFilter
}

// StoreListItem is a store as seen in a listing. UserRating is the caller's
// own rating and is only filled in for the user role.
type StoreListItem struct {
	models.Store
	UserRating *int `json:"userRating"`
}

// StorePage is one page of the stores listing.
type StorePage struct {
	Stores []StoreListItem `json:"stores"`
	Pagination
	Filters repositories.StoreFilter `json:"filters"`
	Sorting repositories.Sorting     `json:"sorting"`
}

// CreateStore registers a store for an existing store owner.
func (s *StoreService) CreateStore(ctx context.Context, in CreateStoreInput) (*models.Store, error) {
	if _, err := s.storeRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperror.Validation("Store with this email already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Internal("Internal server error", err)
	}

	owner, err := s.userRepo.GetByID(ctx, in.OwnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.Validation("Store owner not found")
		}
		return nil, apperror.Internal("Internal server error", err)
	}
	if owner.Role != models.RoleStoreOwner {
		return nil, apperror.Validation("Owner must have the store_owner role")
	}

	store := &models.Store{
		Name:    in.Name,
		Email:   in.Email,
		Address: in.Address,
		OwnerID: owner.ID,
	}
	if err := s.storeRepo.Create(ctx, store); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Validation("Store with this email already exists")
		}
		return nil, apperror.Internal("Internal server error", err)
	}
	store.Owner = &models.UserSummary{ID: owner.ID, Name: owner.Name, Email: owner.Email}
	return store, nil
}

// GetStore returns a store with its owner and ratings.
func (s *StoreService) GetStore(ctx context.Context, id string) (*models.Store, error) {
	store, err := s.storeRepo.GetDetail(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Store not found")
	}
	return store, nil
}

// ListStores returns one page of stores. For callers with the user role each
// item carries the caller's own rating, or null.
func (s *StoreService) ListStores(ctx context.Context, caller Principal, q StoreListQuery) (*StorePage, error) {
	page := repositories.NewPage(q.Page, q.Limit)
	sort := repositories.StoreSort.Resolve(q.SortBy, q.SortOrder)

	stores, total, err := s.storeRepo.List(ctx, q.Filter, page, sort)
	if err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}

	var mine map[string]int
	if caller.Role == models.RoleUser && len(stores) > 0 {
		ids := make([]string, len(stores))
		for i := range stores {
			ids[i] = stores[i].ID
		}
		mine, err = s.ratingRepo.UserRatingsForStores(ctx, caller.UserID, ids)
		if err != nil {
			return nil, apperror.Internal("Internal server error", err)
		}
	}

	items := make([]StoreListItem, len(stores))
	for i := range stores {
		items[i] = StoreListItem{Store: stores[i]}
		if v, ok := mine[stores[i].ID]; ok {
			items[i].UserRating = &v
		}
	}

	return &StorePage{
		Stores:     items,
		Pagination: newPagination(page, total),
		Filters:    q.Filter,
		Sorting:    sort,
	}, nil
}
