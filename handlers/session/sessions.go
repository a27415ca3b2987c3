package session

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/sahilchouksey/video-agent-api/services"
	"github.com/sahilchouksey/video-agent-api/services/store"
	"github.com/sahilchouksey/video-agent-api/services/workflow"
	"github.com/sahilchouksey/video-agent-api/utils/middleware"
	"github.com/sahilchouksey/video-agent-api/utils/response"
	"github.com/sahilchouksey/video-agent-api/utils/validation"
)

// SessionHandler exposes session state and workflow moves
type SessionHandler struct {
	store       *store.Store
	chatService *services.ChatService
	validator   *validation.Validator
}

func NewSessionHandler(st *store.Store, chatService *services.ChatService) *SessionHandler {
	return &SessionHandler{
		store:       st,
		chatService: chatService,
		validator:   validation.NewValidator(),
	}
}

type CreateSessionRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=64"`
}

type UpdateStageRequest struct {
	Stage string `json:"stage" validate:"notblank"`
}

// TransitionsResponse lists the moves available from the current stage
type TransitionsResponse struct {
	SessionID string        `json:"session_id"`
	Stage     model.Stage   `json:"stage"`
	Next      []model.Stage `json:"next"`
}

// CreateSession godoc
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	sess, err := h.store.GetOrCreate(c.UserContext(), req.SessionID, middleware.UserID(c))
	if err != nil {
		log.Printf("[Store] create session %s failed: %v", req.SessionID, err)
		return response.InternalServerError(c, "Failed to create session")
	}
	return response.Created(c, sess)
}

// ListSessions godoc
// GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.store.ListSessions(c.UserContext(), middleware.UserID(c))
	if err != nil {
		log.Printf("[Store] list sessions failed: %v", err)
		return response.InternalServerError(c, "Failed to list sessions")
	}
	return response.Success(c, sessions)
}

// GetSession godoc
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	sess, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return response.Success(c, sess)
}

// DeleteSession godoc
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.chatService.DeleteSession(c.UserContext(), c.Params("id")); err != nil {
		return sessionError(c, err)
	}
	return response.NoContent(c)
}

// GetTransitions godoc
// GET /api/v1/sessions/:id/transitions
func (h *SessionHandler) GetTransitions(c *fiber.Ctx) error {
	sess, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return response.Success(c, TransitionsResponse{
		SessionID: sess.SessionID,
		Stage:     sess.Stage,
		Next:      model.ValidNextStates(sess.Stage),
	})
}

// UpdateStage godoc
// PATCH /api/v1/sessions/:id/stage
func (h *SessionHandler) UpdateStage(c *fiber.Ctx) error {
	var req UpdateStageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}
	target, err := model.ParseStage(req.Stage)
	if err != nil {
		return response.ValidationError(c, map[string]string{"stage": err.Error()})
	}

	sess, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	if target == model.StageError {
		workflow.Fail(sess)
	} else if err := workflow.Advance(sess, target); err != nil {
		return response.Conflict(c, err.Error())
	}
	if err := h.store.UpdateVersioned(c.UserContext(), sess); err != nil {
		return sessionError(c, err)
	}
	log.Printf("[Workflow] session %s: moved to %s", sess.SessionID, sess.Stage)
	return response.Success(c, sess)
}

func sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		return response.NotFound(c, "Session not found")
	case errors.Is(err, store.ErrVersionConflict):
		return response.Conflict(c, "Session was modified by another request")
	default:
		log.Printf("[Store] session request failed: %v", err)
		return response.InternalServerError(c, "Failed to access session")
	}
}
