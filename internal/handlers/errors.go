package handlers

import (
	"context"
	"errors"
	"time"

	"storerating/internal/apperror"
	"storerating/internal/middleware"
	"storerating/internal/services"
	"storerating/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const requestTimeout = 10 * time.Second

// requestContext derives the context handed to services for one request.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

// respondError writes err as {message} with the status of its kind. Failed
// body validation additionally carries per-field errors.
func respondError(c *fiber.Ctx, err error) error {
	var fe fieldErrors
	if errors.As(err, &fe) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fe,
		})
	}

	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(kind.HTTPStatus()).JSON(fiber.Map{
		"message": apperror.Message(err, "Internal server error"),
	})
}

// ErrorHandler is the Fiber-level fallback for errors returned by handlers,
// unknown routes and recovered panics.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
	}
	return respondError(c, err)
}

func listParams(c *fiber.Ctx) services.ListParams {
	return services.ListParams{
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 10),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
}

func currentPrincipal(c *fiber.Ctx) (services.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return services.Principal{}, apperror.Unauthorized("Authentication required")
	}
	return p, nil
}
