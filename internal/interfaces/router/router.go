package router

import (
	codesvc "agrofund-backend/internal/application/codes"
	"agrofund-backend/internal/application/notifications"
	projsvc "agrofund-backend/internal/application/projection"
	purchsvc "agrofund-backend/internal/application/purchases"
	"agrofund-backend/internal/config"
	"agrofund-backend/internal/infrastructure/database"
	healthhandler "agrofund-backend/internal/interfaces/handlers/health"
	portfoliohandler "agrofund-backend/internal/interfaces/handlers/portfolio"
	purchhandler "agrofund-backend/internal/interfaces/handlers/purchases"
	"agrofund-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with all global middleware and route
// registration, and returns the shared DB/Redis handles for startup checks.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionHandler, redisClient, err := middleware.Session(middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	})
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)

	app.Use(middleware.HealthMarker(redisClient))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	healthHandlers := &healthhandler.Handlers{
		Rdb:            redisClient,
		DB:             &gormDBPinger{db: db},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/reset", healthHandlers.Reset)

	if db != nil && redisClient != nil {
		dispatcher := &notifications.Dispatcher{DB: db, Rdb: redisClient, Queue: cfg.NotifyQueue}

		codesService := &codesvc.Service{DB: db}
		purchaseService := &purchsvc.Service{
			DB:       db,
			Notifier: dispatcher,
			LockWait: cfg.PurchaseLockWait,
		}
		purchaseHandlers := &purchhandler.Handlers{Service: purchaseService, Codes: codesService}
		purchaseGroup := app.Group("/api/v1/purchases", middleware.RequireAuth())
		purchaseGroup.Post("/validate-code", purchaseHandlers.ValidateCode)
		purchaseGroup.Post("/buy-stocks", purchaseHandlers.BuyStocks)

		projectionService := &projsvc.Service{DB: db}
		portfolioHandlers := &portfoliohandler.Handlers{Service: projectionService}
		portfolioGroup := app.Group("/api/v1/portfolio", middleware.RequireAuth())
		portfolioGroup.Get("/series", portfolioHandlers.Series)
		portfolioGroup.Get("/ranges", portfolioHandlers.Ranges)
	}

	return app, db, redisClient, nil
}
