package content

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/sahilchouksey/video-agent-api/services/store"
	"github.com/sahilchouksey/video-agent-api/utils/response"
)

// ContentHandler reads the generated-content audit trail
type ContentHandler struct {
	store *store.Store
}

func NewContentHandler(st *store.Store) *ContentHandler {
	return &ContentHandler{store: st}
}

// ListSessionContent godoc
// GET /api/v1/sessions/:id/content?type=
func (h *ContentHandler) ListSessionContent(c *fiber.Ctx) error {
	items, err := h.store.ListContent(c.UserContext(), c.Params("id"), strings.TrimSpace(c.Query("type")))
	if err != nil {
		log.Printf("[Store] list content for %s failed: %v", c.Params("id"), err)
		return response.InternalServerError(c, "Failed to list content")
	}
	return response.Success(c, items)
}

// RecentContent godoc
// GET /api/v1/content/recent?limit=
func (h *ContentHandler) RecentContent(c *fiber.Ctx) error {
	items, err := h.store.RecentContent(c.UserContext(), c.QueryInt("limit", store.DefaultRecentLimit))
	if err != nil {
		log.Printf("[Store] recent content failed: %v", err)
		return response.InternalServerError(c, "Failed to list content")
	}
	return response.Success(c, items)
}

// GeneratedVideos godoc
// GET /api/v1/generated-videos?limit=&offset=
func (h *ContentHandler) GeneratedVideos(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", store.DefaultRecentLimit)
	if limit <= 0 {
		limit = store.DefaultRecentLimit
	}
	if limit > store.MaxRecentLimit {
		limit = store.MaxRecentLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	items, total, err := h.store.PageContent(c.UserContext(), model.ContentTypeVideo, limit, offset)
	if err != nil {
		log.Printf("[Store] list generated videos failed: %v", err)
		return response.InternalServerError(c, "Failed to list videos")
	}
	return response.Paginated(c, items, limit, offset, total)
}
