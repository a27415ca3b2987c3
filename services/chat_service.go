package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/sahilchouksey/video-agent-api/services/agent"
	"github.com/sahilchouksey/video-agent-api/services/brand"
	"github.com/sahilchouksey/video-agent-api/services/reconciler"
	"github.com/sahilchouksey/video-agent-api/services/store"
	"github.com/sahilchouksey/video-agent-api/services/workflow"
)

const (
	// DefaultUserID owns sessions created without an authenticated user
	DefaultUserID = "default_user"

	ContentTypeVideo = model.ContentTypeVideo

	persistTimeout = 10 * time.Second
)

// Forgetter drops per-session agent memory
type Forgetter interface {
	Forget(sessionID string)
}

// ChatService runs one chat turn: session lookup, brand context, agent
// stream, reconciliation and workflow bookkeeping.
type ChatService struct {
	store      *store.Store
	runner     agent.Runner
	reconciler *reconciler.Reconciler
	forgetter  Forgetter
}

// NewChatService creates a new chat service
func NewChatService(st *store.Store, runner agent.Runner, rec *reconciler.Reconciler) *ChatService {
	svc := &ChatService{store: st, runner: runner, reconciler: rec}
	if f, ok := runner.(interface{ History() *agent.History }); ok {
		svc.forgetter = f.History()
	}
	return svc
}

// ChatRequest is one user message with optional brand attachments
type ChatRequest struct {
	SessionID          string
	UserID             string
	Message            string
	Attachments        []brand.Attachment
	LastGeneratedVideo string
}

// Stream runs the turn and delivers UI events through emit. The returned
// outcome is the reconciler's summary; the session is persisted before return.
func (s *ChatService) Stream(ctx context.Context, req ChatRequest, emit reconciler.Emitter) reconciler.Outcome {
	if req.UserID == "" {
		req.UserID = DefaultUserID
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	message := strings.ToValidUTF8(strings.TrimSpace(req.Message), "")

	sess, err := s.store.GetOrCreate(ctx, req.SessionID, req.UserID)
	if err != nil {
		log.Printf("[Chat] session %s: load failed: %v", req.SessionID, err)
		return s.failTurn(req.SessionID, emit, err)
	}

	agentMessage := s.prepare(sess, req, message)

	turn := reconciler.Turn{SessionID: sess.SessionID, UserMessage: message}
	outcome := s.reconciler.Run(ctx, turn, agent.Source(s.runner, agent.Request{
		UserID:    req.UserID,
		SessionID: sess.SessionID,
		Message:   agentMessage,
		Session:   sess,
	}), emit)

	s.applyOutcome(sess, outcome)

	// the client may be gone; the turn's state is still worth keeping
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.store.Update(persistCtx, sess); err != nil {
		log.Printf("[Chat] session %s: persist failed: %v", sess.SessionID, err)
	}
	s.recordVideos(persistCtx, sess.SessionID, outcome.Videos)
	return outcome
}

// prepare applies brand context carried by the request and builds the agent message
func (s *ChatService) prepare(sess *model.Session, req ChatRequest, message string) string {
	var sb strings.Builder
	sb.WriteString(message)
	if req.LastGeneratedVideo != "" {
		fmt.Fprintf(&sb, "\n\n[LAST GENERATED VIDEO: %s]", req.LastGeneratedVideo)
	}
	sb.WriteString(brand.ApplyAttachments(&sess.Brand, req.Attachments))
	brand.ApplyMessageHints(&sess.Brand, message)

	if sess.Stage == model.StageStart && (len(req.Attachments) > 0 || sess.Brand.Name != "") {
		s.reach(sess, model.StageBrandSetup)
	}
	return sb.String()
}

// applyOutcome moves the workflow according to what the turn produced
func (s *ChatService) applyOutcome(sess *model.Session, outcome reconciler.Outcome) {
	switch outcome.Fallback {
	case "brand_setup":
		s.reach(sess, model.StageVideoTypeSelection)
	case "concept_list":
		s.reach(sess, model.StageStrategyIdeasShown)
	case "confirmation":
		s.reach(sess, model.StageScriptPresented)
	}

	if outcome.GenerationStarted {
		s.reach(sess, model.StageVideoGenerating)
	}
	if len(outcome.Videos) == 0 {
		return
	}

	s.reach(sess, model.StageVideoGenerated)
	v := outcome.Videos[len(outcome.Videos)-1]
	sess.Video.VideoPath = lo.CoalesceOrEmpty(v.VideoPath, v.URL)
	if v.VideoType != "" {
		sess.Video.VideoType = v.VideoType
	}
	if sess.Video.VideoMetadata == nil {
		sess.Video.VideoMetadata = map[string]any{}
	}
	sess.Video.VideoMetadata["url"] = v.URL
	sess.Video.VideoMetadata["filename"] = v.Filename
	sess.Video.VideoMetadata["generated_at"] = time.Now().UTC().Format(time.RFC3339)
}

func (s *ChatService) recordVideos(ctx context.Context, sessionID string, videos []reconciler.VideoResult) {
	for _, v := range videos {
		meta := map[string]any{
			"url":        v.URL,
			"filename":   v.Filename,
			"video_type": v.VideoType,
		}
		if v.Message != "" {
			meta["message"] = v.Message
		}
		if _, err := s.store.AppendContent(ctx, sessionID, ContentTypeVideo, lo.CoalesceOrEmpty(v.VideoPath, v.URL), meta); err != nil {
			log.Printf("[Chat] session %s: failed to record video: %v", sessionID, err)
		}
	}
}

func (s *ChatService) reach(sess *model.Session, target model.Stage) {
	from := sess.Stage
	if err := workflow.Reach(sess, target); err != nil {
		log.Printf("[Workflow] session %s: %v", sess.SessionID, err)
		return
	}
	if from != sess.Stage {
		log.Printf("[Workflow] session %s: %s -> %s", sess.SessionID, from, sess.Stage)
	}
}

// failTurn frames a turn that could not start
func (s *ChatService) failTurn(sessionID string, emit reconciler.Emitter, err error) reconciler.Outcome {
	for _, ev := range []reconciler.UIEvent{
		{Type: reconciler.UIEventSession, SessionID: sessionID},
		{Type: reconciler.UIEventError, Message: reconciler.DefaultErrorMessage},
		{Type: reconciler.UIEventDone},
	} {
		if emit(ev) != nil {
			break
		}
	}
	return reconciler.Outcome{Err: err}
}

// DeleteSession removes the session and the agent's memory of it
func (s *ChatService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	if s.forgetter != nil {
		s.forgetter.Forget(sessionID)
	}
	return nil
}

// CleanupExpired sweeps idle sessions and drops the agent's memory of them
func (s *ChatService) CleanupExpired(ctx context.Context, maxAge time.Duration) ([]string, error) {
	ids, err := s.store.CleanupExpired(ctx, maxAge)
	if err != nil {
		return nil, err
	}
	if s.forgetter != nil {
		for _, id := range ids {
			s.forgetter.Forget(id)
		}
	}
	return ids, nil
}

// IsNotFound reports a missing session or profile
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrSessionNotFound) || errors.Is(err, store.ErrProfileNotFound)
}
