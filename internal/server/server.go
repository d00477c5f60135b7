// Package server assembles the HTTP application: repositories, services,
// handlers, middleware and the operational endpoints.
package server

import (
	"time"

	"storerating/internal/config"
	"storerating/internal/handlers"
	"storerating/internal/middleware"
	"storerating/internal/repositories"
	"storerating/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Server is the wired application.
type Server struct {
	App  *fiber.App
	Auth *services.AuthService
}

// New wires every layer on top of db. publisher may be nil.
func New(cfg *config.Config, db *gorm.DB, publisher services.EventPublisher) *Server {
	repos := repositories.NewGORMRepositories(db)
	uow := repositories.NewGORMUnitOfWork(db)

	authService := services.NewAuthService(repos.Users, cfg.JWTSecret, cfg.JWTTTL)
	userService := services.NewUserService(repos.Users)
	storeService := services.NewStoreService(repos.Stores, repos.Users, repos.Ratings)
	ratingService := services.NewRatingService(uow, repos.Stores, repos.Ratings, publisher)
	dashboardService := services.NewDashboardService(repos.Users, repos.Stores, repos.Ratings)

	validate := handlers.NewValidator()
	authHandler := handlers.NewAuthHandler(authService, validate)
	storeHandler := handlers.NewStoreHandler(storeService, validate)
	userHandler := handlers.NewUserHandler(userService, validate)
	ratingHandler := handlers.NewRatingHandler(ratingService, validate)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	apiV1 := app.Group("/api/v1")
	authRequired := middleware.AuthRequired(authService)

	authHandler.RegisterRoutes(apiV1, authRequired)

	protected := apiV1.Group("", authRequired)
	storeHandler.RegisterRoutes(protected)
	userHandler.RegisterRoutes(protected)
	ratingHandler.RegisterRoutes(protected)
	dashboardHandler.RegisterRoutes(protected)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})

	return &Server{App: app, Auth: authService}
}
