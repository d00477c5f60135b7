package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is one user's opinion of one store. (UserID, StoreID) is unique:
// resubmitting overwrites the existing row.
type Rating struct {
	ID        string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string       `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex:idx_ratings_user_store"`
	StoreID   string       `json:"storeId" gorm:"type:varchar(36);not null;uniqueIndex:idx_ratings_user_store;index"`
	Rating    int          `json:"rating" gorm:"not null"`
	Comment   *string      `json:"comment"`
	User      *UserSummary `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Store     *Store       `json:"store,omitempty" gorm:"foreignKey:StoreID"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// RatingEvent is published after a rating write commits.
type RatingEvent struct {
	RatingID      string    `json:"ratingId"`
	StoreID       string    `json:"storeId"`
	UserID        string    `json:"userId"`
	Rating        int       `json:"rating"`
	Updated       bool      `json:"updated"`
	AverageRating float64   `json:"averageRating"`
	TotalRatings  int       `json:"totalRatings"`
	OccurredAt    time.Time `json:"occurredAt"`
}
