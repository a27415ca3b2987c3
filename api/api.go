package api

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/video-agent-api/utils/response"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
}

// NewAPIServer builds the fiber app. bodyLimit bounds multipart uploads.
func NewAPIServer(listenAddress string, bodyLimit int) *APIServer {
	app := fiber.New(fiber.Config{
		AppName:      "video-agent-api",
		BodyLimit:    bodyLimit,
		ReadTimeout:  30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: errorHandler,
	})
	return &APIServer{
		app:           app,
		listenAddress: listenAddress,
	}
}

// errorHandler keeps fiber's own errors in the response envelope
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
		return response.InternalServerError(c, "")
	}
	return response.Error(c, code, err.Error(), "REQUEST_ERROR")
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	log.Println("Starting API Server")
	log.Printf("Listening on %s", s.listenAddress)

	return s.app.Listen(s.listenAddress)
}

func (s *APIServer) Shutdown() error {
	return s.app.ShutdownWithTimeout(10 * time.Second)
}
