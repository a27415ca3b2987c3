package router

import (
	"github.com/gofiber/fiber/v2"

	brand_handlers "github.com/sahilchouksey/video-agent-api/handlers/brand"
	chat_handlers "github.com/sahilchouksey/video-agent-api/handlers/chat"
	content_handlers "github.com/sahilchouksey/video-agent-api/handlers/content"
	health_handlers "github.com/sahilchouksey/video-agent-api/handlers/health"
	session_handlers "github.com/sahilchouksey/video-agent-api/handlers/session"
	"github.com/sahilchouksey/video-agent-api/services"
	"github.com/sahilchouksey/video-agent-api/services/brand"
	"github.com/sahilchouksey/video-agent-api/services/store"
	"github.com/sahilchouksey/video-agent-api/services/turnlock"
	"github.com/sahilchouksey/video-agent-api/utils/auth"
	"github.com/sahilchouksey/video-agent-api/utils/middleware"
)

// Dependencies are the services the routes are served from
type Dependencies struct {
	Store       *store.Store
	ChatService *services.ChatService
	Brand       *brand.Service
	// TurnLock defaults to a per-process lock
	TurnLock turnlock.Lock
	// JWTManager is nil when requests run as the default user
	JWTManager *auth.JWTManager
	// UploadDir is served at /uploads when files are stored locally
	UploadDir string
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	healthHandler := health_handlers.NewHealthHandler(deps.Store)
	chatHandler := chat_handlers.NewChatHandler(deps.ChatService, deps.TurnLock)
	sessionHandler := session_handlers.NewSessionHandler(deps.Store, deps.ChatService)
	brandHandler := brand_handlers.NewBrandHandler(deps.Store, deps.Brand)
	contentHandler := content_handlers.NewContentHandler(deps.Store)

	if deps.UploadDir != "" {
		app.Static("/uploads", deps.UploadDir)
	}

	api := app.Group("/api")
	v1 := api.Group("/v1")

	v1.Get("/health", healthHandler.Check)

	v1.Use(middleware.Identity(deps.JWTManager, services.DefaultUserID))

	// Chat
	v1.Post("/chat/stream", chatHandler.Stream)

	// Sessions
	sessions := v1.Group("/sessions")
	sessions.Post("/", sessionHandler.CreateSession)
	sessions.Get("/", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Delete("/:id", sessionHandler.DeleteSession)
	sessions.Get("/:id/transitions", sessionHandler.GetTransitions)
	sessions.Patch("/:id/stage", sessionHandler.UpdateStage)
	sessions.Get("/:id/content", contentHandler.ListSessionContent)

	// Session brand
	sessions.Put("/:id/brand/marketing-context", brandHandler.UpdateMarketingContext)
	sessions.Post("/:id/brand/images", brandHandler.UploadImage)
	sessions.Post("/:id/brand/documents", brandHandler.UploadDocument)
	sessions.Post("/:id/brand/profile/:name", brandHandler.LoadProfile)

	// Saved brand profiles
	profiles := v1.Group("/brand-profiles")
	profiles.Post("/", brandHandler.SaveProfile)
	profiles.Get("/", brandHandler.ListProfiles)
	profiles.Get("/:name", brandHandler.GetProfile)

	// Generated content
	v1.Get("/content/recent", contentHandler.RecentContent)
	v1.Get("/generated-videos", contentHandler.GeneratedVideos)
}
