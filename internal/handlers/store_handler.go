package handlers

import (
	"storerating/internal/middleware"
	"storerating/internal/models"
	"storerating/internal/repositories"
	"storerating/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// StoreHandler handles HTTP requests for stores.
type StoreHandler struct {
	storeService *services.StoreService
	validate     *validator.Validate
}

func NewStoreHandler(storeService *services.StoreService, validate *validator.Validate) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
		validate:     validate,
	}
}

// RegisterRoutes registers the store routes on an authenticated router.
func (h *StoreHandler) RegisterRoutes(router fiber.Router) {
	storeRoutes := router.Group("/stores")
	storeRoutes.Get("/", h.HandleListStores)
	storeRoutes.Post("/", middleware.RequireRoles(models.RoleAdmin), h.HandleCreateStore)
	storeRoutes.Get("/:id", h.HandleGetStore)
}

type CreateStoreRequest struct {
	Name    string `json:"name" validate:"required,min=20,max=60"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"required,max=400"`
	OwnerID string `json:"ownerId" validate:"required"`
}

func (h *StoreHandler) HandleCreateStore(c *fiber.Ctx) error {
	var req CreateStoreRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	store, err := h.storeService.CreateStore(ctx, services.CreateStoreInput{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Store created successfully",
		"store":   store,
	})
}

// HandleListStores serves one page of stores. Users also see their own
// rating of each store.
func (h *StoreHandler) HandleListStores(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.storeService.ListStores(ctx, principal, services.StoreListQuery{
		ListParams: listParams(c),
		Filter: repositories.StoreFilter{
			Name:    c.Query("name"),
			Email:   c.Query("email"),
			Address: c.Query("address"),
		},
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *StoreHandler) HandleGetStore(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	store, err := h.storeService.GetStore(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"store": store})
}
