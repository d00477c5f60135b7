package handlers

import (
	"strconv"

	"storerating/internal/apperror"
	"storerating/internal/middleware"
	"storerating/internal/models"
	"storerating/internal/repositories"
	"storerating/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// RatingHandler handles HTTP requests for ratings.
type RatingHandler struct {
	ratingService *services.RatingService
	validate      *validator.Validate
}

func NewRatingHandler(ratingService *services.RatingService, validate *validator.Validate) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
		validate:      validate,
	}
}

func (h *RatingHandler) RegisterRoutes(router fiber.Router) {
	ratingRoutes := router.Group("/ratings")
	ratingRoutes.Post("/", middleware.RequireRoles(models.RoleUser), h.HandleSubmitRating)
	ratingRoutes.Get("/", middleware.RequireRoles(models.RoleAdmin), h.HandleListRatings)
	ratingRoutes.Get("/store/:storeId", h.HandleListStoreRatings)
}

type SubmitRatingRequest struct {
	StoreID string  `json:"storeId" validate:"required"`
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

// HandleSubmitRating creates the caller's rating of a store or replaces it.
func (h *RatingHandler) HandleSubmitRating(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, err)
	}

	var req SubmitRatingRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	rating, updated, err := h.ratingService.SubmitOrUpdate(ctx, principal.UserID, req.StoreID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err)
	}

	message := "Rating submitted successfully"
	if updated {
		message = "Rating updated successfully"
	}
	return c.JSON(fiber.Map{
		"message": message,
		"rating":  rating,
	})
}

func (h *RatingHandler) HandleListStoreRatings(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	ratings, err := h.ratingService.ListByStore(ctx, c.Params("storeId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ratings": ratings})
}

// HandleListRatings serves the admin listing of all ratings.
func (h *RatingHandler) HandleListRatings(c *fiber.Ctx) error {
	filter := repositories.RatingFilter{
		StoreName: c.Query("storeName"),
		UserName:  c.Query("userName"),
	}
	if raw := c.Query("rating"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < models.MinRating || v > models.MaxRating {
			return respondError(c, apperror.Validation("Rating filter must be an integer between 1 and 5"))
		}
		filter.Rating = &v
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.ratingService.ListAll(ctx, services.RatingListQuery{
		ListParams: listParams(c),
		Filter:     filter,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}
