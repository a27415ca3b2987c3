package agent

import (
	"context"

	"github.com/sahilchouksey/video-agent-api/services/reconciler"
)

// OfflineMessage is sent when no language model is configured
const OfflineMessage = "The video assistant is not connected to a language model yet. " +
	"Set LLM_API_KEY and restart the server to start creating videos."

// ScriptedRunner replays fixed events. It stands in for a model in tests
// and when no LLM credentials are configured.
type ScriptedRunner struct {
	Events []reconciler.Event
	Err    error
}

// NewOfflineRunner returns a runner that explains how to connect a model
func NewOfflineRunner() *ScriptedRunner {
	return &ScriptedRunner{Events: []reconciler.Event{reconciler.TextEvent(Author, OfflineMessage)}}
}

func (s *ScriptedRunner) Run(ctx context.Context, req Request, emit func(reconciler.Event) error) error {
	for _, ev := range s.Events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(ev); err != nil {
			return err
		}
	}
	return s.Err
}
