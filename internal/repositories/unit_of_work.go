package repositories

import (
	"context"

	"gorm.io/gorm"
)

// GORMUnitOfWork implements UnitOfWork with gorm transactions.
type GORMUnitOfWork struct {
	db *gorm.DB
}

func NewGORMUnitOfWork(db *gorm.DB) *GORMUnitOfWork {
	return &GORMUnitOfWork{db: db}
}

// NewGORMRepositories binds all repositories to db.
func NewGORMRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:   NewGORMUserRepository(db),
		Stores:  NewGORMStoreRepository(db),
		Ratings: NewGORMRatingRepository(db),
	}
}

// Do runs fn with repositories bound to one transaction. fn must only touch
// the database through repos.
func (u *GORMUnitOfWork) Do(ctx context.Context, fn func(repos Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMRepositories(tx))
	})
}
