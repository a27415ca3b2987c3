package health

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/video-agent-api/services/store"
	"github.com/sahilchouksey/video-agent-api/utils/response"
)

type HealthHandler struct {
	store *store.Store
}

func NewHealthHandler(st *store.Store) *HealthHandler {
	return &HealthHandler{store: st}
}

// Check godoc
// GET /api/v1/health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	if err := h.store.HealthCheck(ctx); err != nil {
		log.Printf("[Store] health check failed: %v", err)
		return response.ServiceUnavailable(c, "Session store unavailable")
	}
	return response.Success(c, fiber.Map{"status": "ok"})
}
