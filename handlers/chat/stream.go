package chat

import (
	"bufio"
	"context"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sahilchouksey/video-agent-api/services"
	"github.com/sahilchouksey/video-agent-api/services/brand"
	"github.com/sahilchouksey/video-agent-api/services/reconciler"
	"github.com/sahilchouksey/video-agent-api/services/turnlock"
	"github.com/sahilchouksey/video-agent-api/utils/middleware"
	"github.com/sahilchouksey/video-agent-api/utils/response"
	"github.com/sahilchouksey/video-agent-api/utils/sse"
	"github.com/sahilchouksey/video-agent-api/utils/validation"
)

// DefaultKeepAlive is the ping interval while a turn is running
const DefaultKeepAlive = 15 * time.Second

// ChatHandler serves the streaming chat endpoint
type ChatHandler struct {
	chatService *services.ChatService
	turns       turnlock.Lock
	validator   *validation.Validator
	keepAlive   time.Duration
}

// NewChatHandler creates the handler; a nil lock keeps turns per process
func NewChatHandler(chatService *services.ChatService, turns turnlock.Lock) *ChatHandler {
	if turns == nil {
		turns = turnlock.NewMemoryLock()
	}
	return &ChatHandler{
		chatService: chatService,
		turns:       turns,
		validator:   validation.NewValidator(),
		keepAlive:   DefaultKeepAlive,
	}
}

// StreamRequest is the chat request body
type StreamRequest struct {
	Message            string             `json:"message" validate:"notblank,max=10000"`
	SessionID          string             `json:"session_id" validate:"omitempty,max=64"`
	Attachments        []brand.Attachment `json:"attachments" validate:"omitempty,dive"`
	LastGeneratedVideo string             `json:"last_generated_video" validate:"omitempty,max=2048"`
}

// Stream godoc
// POST /api/v1/chat/stream
func (h *ChatHandler) Stream(c *fiber.Ctx) error {
	var req StreamRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Message = validation.SanitizeString(req.Message)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	acquired, err := h.turns.Acquire(c.UserContext(), req.SessionID)
	if err != nil {
		// fail open
		log.Printf("[Chat] turn lock unavailable for %s: %v", req.SessionID, err)
	} else if !acquired {
		return response.Conflict(c, "A reply is still streaming for this session")
	}

	chatReq := services.ChatRequest{
		SessionID:          req.SessionID,
		UserID:             middleware.UserID(c),
		Message:            req.Message,
		Attachments:        req.Attachments,
		LastGeneratedVideo: req.LastGeneratedVideo,
	}

	sse.SetHeaders(c)

	// the fiber ctx is recycled once the handler returns; the writer must not touch it
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if acquired {
			defer h.turns.Release(context.Background(), chatReq.SessionID)
		}

		var mu sync.Mutex
		emit := func(ev reconciler.UIEvent) error {
			mu.Lock()
			defer mu.Unlock()
			if err := sse.Send(w, sse.Event{Data: ev}); err != nil {
				cancel()
				return err
			}
			return nil
		}

		done := make(chan struct{})
		var pinger sync.WaitGroup
		pinger.Add(1)
		go func() {
			defer pinger.Done()
			ticker := time.NewTicker(h.keepAlive)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					mu.Lock()
					err := sse.SendKeepAlive(w)
					mu.Unlock()
					if err != nil {
						cancel()
						return
					}
				}
			}
		}()

		outcome := h.chatService.Stream(ctx, chatReq, emit)
		close(done)
		pinger.Wait()

		if outcome.Err != nil && ctx.Err() == nil {
			log.Printf("[Chat] turn ended with error: %v", outcome.Err)
		}
	})

	return nil
}
