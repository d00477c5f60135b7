package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storerating/internal/apperror"
	"storerating/internal/models"
	"storerating/internal/repositories"
	"storerating/pkg/logger"
	"storerating/pkg/metrics"
	"storerating/pkg/rabbitmq"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EventPublisher publishes a JSON payload under a routing key.
// *rabbitmq.Client satisfies it.
type EventPublisher interface {
	PublishJSON(routingKey string, payload interface{}) error
}

// RatingService owns the rating write path and the store aggregate it keeps in
// step.
type RatingService struct {
	uow        repositories.UnitOfWork
	storeRepo  repositories.StoreRepository
	ratingRepo repositories.RatingRepository
	publisher  EventPublisher
}

// NewRatingService creates a RatingService. publisher may be nil, in which case
// no events are emitted.
func NewRatingService(uow repositories.UnitOfWork, storeRepo repositories.StoreRepository, ratingRepo repositories.RatingRepository, publisher EventPublisher) *RatingService {
	return &RatingService{
		uow:        uow,
		storeRepo:  storeRepo,
		ratingRepo: ratingRepo,
		publisher:  publisher,
	}
}

// RatingListQuery is an admin ratings listing request.
type RatingListQuery struct {
	ListParams
	Filter repositories.RatingFilter
}

// RatingPage is one page of the admin ratings listing.
type RatingPage struct {
	Ratings []models.Rating `json:"ratings"`
	Pagination
	Filters repositories.RatingFilter `json:"filters"`
	Sorting repositories.Sorting      `json:"sorting"`
}

// RoundedAverage is the mean of values rounded half up to one decimal, or 0
// for no values. The rounding is done on integers so x.x5 always goes up.
func RoundedAverage(values []int) float64 {
	count := len(values)
	if count == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	tenths := (sum*20 + count) / (2 * count)
	return float64(tenths) / 10
}

// SubmitOrUpdate records userID's rating of storeID and recomputes the store
// aggregate in the same transaction. A user's second rating of a store
// overwrites the first; updated reports which case happened.
func (s *RatingService) SubmitOrUpdate(ctx context.Context, userID, storeID string, value int, comment *string) (rating *models.Rating, updated bool, err error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, false, apperror.Validation("Store ID is required")
	}
	if value < models.MinRating || value > models.MaxRating {
		return nil, false, apperror.Validation("Rating must be between 1 and 5")
	}
	if comment != nil && strings.TrimSpace(*comment) == "" {
		comment = nil
	}

	ctx, span := otel.Tracer("storerating/services").Start(ctx, "RatingService.SubmitOrUpdate")
	span.SetAttributes(
		attribute.String("store.id", storeID),
		attribute.String("user.id", userID),
		attribute.Int("rating.value", value),
	)
	defer span.End()

	var store *models.Store
	timer := prometheus.NewTimer(metrics.RatingUnitOfWorkDuration)
	err = s.uow.Do(ctx, func(repos repositories.Repositories) error {
		var err error
		store, err = repos.Stores.GetByIDForUpdate(ctx, storeID)
		if err != nil {
			return lookupErr(err, "Store not found")
		}

		rating, err = repos.Ratings.GetByUserAndStore(ctx, userID, storeID)
		switch {
		case err == nil:
			updated = true
			rating.Rating = value
			rating.Comment = comment
			if err := repos.Ratings.Update(ctx, rating); err != nil {
				return apperror.Internal("Internal server error", err)
			}
		case errors.Is(err, repositories.ErrNotFound):
			rating = &models.Rating{UserID: userID, StoreID: storeID, Rating: value, Comment: comment}
			if err := repos.Ratings.Create(ctx, rating); err != nil {
				if isDuplicate(err) {
					return apperror.Validation("Rating for this store was submitted concurrently, please retry")
				}
				return apperror.Internal("Internal server error", err)
			}
		default:
			return apperror.Internal("Internal server error", err)
		}

		values, err := repos.Ratings.ValuesByStore(ctx, storeID)
		if err != nil {
			return apperror.Internal("Internal server error", err)
		}
		store.AverageRating = RoundedAverage(values)
		store.TotalRatings = len(values)
		if err := repos.Stores.UpdateAggregate(ctx, storeID, store.AverageRating, store.TotalRatings); err != nil {
			return apperror.Internal("Internal server error", err)
		}
		return nil
	})
	timer.ObserveDuration()

	if err != nil {
		metrics.RatingFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "rating unit of work rolled back")
		return nil, false, err
	}

	outcome := "created"
	routingKey := rabbitmq.RoutingKeyRatingSubmitted
	if updated {
		outcome = "updated"
		routingKey = rabbitmq.RoutingKeyRatingUpdated
	}
	metrics.RatingSubmissions.WithLabelValues(outcome).Inc()
	span.SetAttributes(
		attribute.Bool("rating.updated", updated),
		attribute.Float64("store.average_rating", store.AverageRating),
		attribute.Int("store.total_ratings", store.TotalRatings),
	)

	s.publish(routingKey, models.RatingEvent{
		RatingID:      rating.ID,
		StoreID:       storeID,
		UserID:        userID,
		Rating:        value,
		Updated:       updated,
		AverageRating: store.AverageRating,
		TotalRatings:  store.TotalRatings,
		OccurredAt:    time.Now().UTC(),
	})

	return rating, updated, nil
}

func (s *RatingService) publish(routingKey string, event models.RatingEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(routingKey, event); err != nil {
		logger.Warn("failed to publish rating event", "rating_id", event.RatingID, "routing_key", routingKey, "error", err)
	}
}

// ListByStore returns the ratings of one store with their raters, newest
// first.
func (s *RatingService) ListByStore(ctx context.Context, storeID string) ([]models.Rating, error) {
	if _, err := s.storeRepo.GetByID(ctx, storeID); err != nil {
		return nil, lookupErr(err, "Store not found")
	}
	ratings, err := s.ratingRepo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	return ratings, nil
}

// ListAll returns one page of ratings across all stores.
func (s *RatingService) ListAll(ctx context.Context, q RatingListQuery) (*RatingPage, error) {
	page := repositories.NewPage(q.Page, q.Limit)
	sort := repositories.RatingSort.Resolve(q.SortBy, q.SortOrder)

	ratings, total, err := s.ratingRepo.List(ctx, q.Filter, page, sort)
	if err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	return &RatingPage{
		Ratings:    ratings,
		Pagination: newPagination(page, total),
		Filters:    q.Filter,
		Sorting:    sort,
	}, nil
}

// LogRatingEvent is the audit consumer for rating events: it decodes the event
// and writes it to the log.
func LogRatingEvent(routingKey string, body []byte) error {
	var event models.RatingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode rating event: %w", err)
	}
	logger.Info("rating event",
		"routing_key", routingKey,
		"rating_id", event.RatingID,
		"store_id", event.StoreID,
		"user_id", event.UserID,
		"rating", event.Rating,
		"average_rating", event.AverageRating,
		"total_ratings", event.TotalRatings,
	)
	return nil
}
