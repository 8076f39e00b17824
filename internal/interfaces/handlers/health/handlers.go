package health

import (
	"context"

	healthsvc "agrofund-backend/internal/application/health"
	"agrofund-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Rdb            *redis.Client
	DB             healthsvc.DBPinger
	HealthAdminKey string
}

// JSON GET /health/json — machine-readable health snapshot.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := healthsvc.CollectHealth(c.Context(), h.Rdb, h.DB)
	return c.JSON(result)
}

// Reset GET /health/reset — clears the Redis traffic counters (admin key required).
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if h.HealthAdminKey == "" || c.Query("key") != h.HealthAdminKey {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"status": "error"})
	}
	if h.Rdb != nil {
		ctx := context.Background()
		h.Rdb.Del(ctx,
			middleware.KeyReqTotal, middleware.KeyReqErrors,
			middleware.KeyResTime, middleware.KeyResCount,
			middleware.KeyLastReq,
		)
	}
	return c.JSON(fiber.Map{"status": "success"})
}
