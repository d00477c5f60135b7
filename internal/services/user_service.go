package services

import (
	"context"
	"errors"

	"storerating/internal/apperror"
	"storerating/internal/models"
	"storerating/internal/repositories"
)

// UserService handles administration of user accounts.
type UserService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CreateUserInput is an admin-created account with an explicit role.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Role     models.Role
}

// UserListQuery is a users listing request.
type UserListQuery struct {
	ListParams
	Filter repositories.UserFilter
}

// UserPage is one page of the users listing.
type UserPage struct {
	Users []models.User `json:"users"`
	Pagination
	Filters repositories.UserFilter `json:"filters"`
	Sorting repositories.Sorting    `json:"sorting"`
}

// CreateUser creates an account of any role. A taken email is a validation
// error and nothing is inserted.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if !in.Role.Valid() {
		return nil, apperror.Validation("Invalid role")
	}
	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperror.Validation("User with this email already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Internal("Internal server error", err)
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hashed,
		Address:  in.Address,
		Role:     in.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Validation("User with this email already exists")
		}
		return nil, apperror.Internal("Internal server error", err)
	}
	return user, nil
}

// GetUser returns a user with the stores they own.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByIDWithStores(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "User not found")
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, q UserListQuery) (*UserPage, error) {
	page := repositories.NewPage(q.Page, q.Limit)
	sort := repositories.UserSort.Resolve(q.SortBy, q.SortOrder)

	users, total, err := s.userRepo.List(ctx, q.Filter, page, sort)
	if err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return &UserPage{
		Users:      users,
		Pagination: newPagination(page, total),
		Filters:    q.Filter,
		Sorting:    sort,
	}, nil
}
