// Package workflow enforces the declared stage topology on top of the
// permissive Session.Transition primitive.
package workflow

import (
	"errors"
	"fmt"

	"github.com/sahilchouksey/video-agent-api/model"
)

var (
	ErrInvalidTransition = errors.New("invalid workflow transition")
	ErrUnreachableStage  = errors.New("workflow stage not reachable")
)

// newCycleFrom lists the stages from which entering video_type_selection starts a new video
var newCycleFrom = map[model.Stage]bool{
	model.StageComplete:             true,
	model.StageOptimizationComplete: true,
	model.StageError:                true,
}

// Advance applies a single declared edge. Invalid moves leave the session untouched.
func Advance(s *model.Session, target model.Stage) error {
	from := s.Stage
	if !model.IsValidTransition(from, target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
	}
	if target == model.StageVideoTypeSelection && newCycleFrom[from] {
		s.Video.Reset()
	}
	s.Transition(target)
	return nil
}

// Path returns the shortest sequence of declared edges from -> target, excluding from.
// An empty path with ok=true means from == target.
func Path(from, target model.Stage) ([]model.Stage, bool) {
	if from == target {
		return nil, true
	}
	prev := map[model.Stage]model.Stage{from: from}
	queue := []model.Stage{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range model.ValidNextStates(cur) {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == target {
				var path []model.Stage
				for st := target; st != from; st = prev[st] {
					path = append([]model.Stage{st}, path...)
				}
				return path, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

// Reach walks the shortest declared path to target, applying every edge
// through Advance so cycle resets happen on the way.
func Reach(s *model.Session, target model.Stage) error {
	path, ok := Path(s.Stage, target)
	if !ok {
		return fmt.Errorf("%w: %s from %s", ErrUnreachableStage, target, s.Stage)
	}
	for _, st := range path {
		if err := Advance(s, st); err != nil {
			return err
		}
	}
	return nil
}

// Fail moves the session into the error stage, which is reachable from anywhere
func Fail(s *model.Session) {
	s.Transition(model.StageError)
}
