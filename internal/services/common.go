package services

import (
	"errors"

	"storerating/internal/apperror"
	"storerating/internal/models"
	"storerating/internal/repositories"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Principal is the authenticated caller, as carried by a verified token.
type Principal struct {
	UserID string
	Role   models.Role
	Email  string
}

// ListParams are the raw paging and sorting inputs of a listing request.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Pagination is embedded in every listing envelope.
type Pagination struct {
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Total       int64 `json:"total"`
}

func newPagination(page repositories.Page, total int64) Pagination {
	return Pagination{
		TotalPages:  page.TotalPages(total),
		CurrentPage: page.Page,
		Total:       total,
	}
}

// lookupErr turns a repository lookup failure into a client-facing error.
func lookupErr(err error, notFoundMsg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.NotFound(notFoundMsg)
	}
	return apperror.Internal("Internal server error", err)
}

func hashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.Internal("Internal server error", err)
	}
	return string(hashed), nil
}

// isDuplicate reports a unique-index violation translated by gorm.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
