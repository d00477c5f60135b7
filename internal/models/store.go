package models

import "time"

// Store is a rateable entity owned by a store_owner. AverageRating and
// TotalRatings are a cached projection of the store's Rating rows and are only
// written by the rating unit of work.
type Store struct {
	ID            string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string       `json:"name" gorm:"type:varchar(60);not null"`
	Email         string       `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Address       string       `json:"address" gorm:"type:varchar(400);not null"`
	OwnerID       string       `json:"ownerId" gorm:"type:varchar(36);not null;index"`
	Owner         *UserSummary `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	AverageRating float64      `json:"averageRating" gorm:"type:decimal(2,1);not null;default:0"`
	TotalRatings  int          `json:"totalRatings" gorm:"not null;default:0"`
	Ratings       []Rating     `json:"ratings,omitempty" gorm:"foreignKey:StoreID"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}
