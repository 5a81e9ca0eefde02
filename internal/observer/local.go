package observer

import (
	"context"
	"fmt"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/wire"
)

// Engine executes commands in process.
type Engine interface {
	Execute(action wire.Action, start wire.StartPayload) (model.TimerState, error)
}

// Publisher relays display requests to other in-process observers.
type Publisher interface {
	Publish(event wire.Event)
}

// LocalCommander talks to an engine living in the same process.
type LocalCommander struct {
	engine Engine
	hub    Publisher
	origin string
}

// NewLocalCommander creates a commander whose display requests carry origin,
// so the sending observer can filter out its own relays.
func NewLocalCommander(engine Engine, hub Publisher, origin string) *LocalCommander {
	return &LocalCommander{engine: engine, hub: hub, origin: origin}
}

func (commander *LocalCommander) Send(action wire.Action, body any) error {
	if action == wire.ActionShowTimerOverlay {
		event, ok := body.(wire.Event)
		if !ok {
			return fmt.Errorf("%s: unexpected body %T", action, body)
		}
		event.Action = action
		event.Origin = commander.origin
		commander.hub.Publish(event)
		return nil
	}
	_, err := commander.execute(action, body)
	return err
}

func (commander *LocalCommander) RequestState(_ context.Context, action wire.Action, body any) (model.TimerState, error) {
	return commander.execute(action, body)
}

func (commander *LocalCommander) execute(action wire.Action, body any) (model.TimerState, error) {
	var start wire.StartPayload
	switch typed := body.(type) {
	case nil:
	case wire.StartPayload:
		start = typed
	default:
		return model.TimerState{}, fmt.Errorf("%s: unexpected body %T", action, body)
	}
	if action == wire.ActionStartTimer && body == nil {
		return model.TimerState{}, fmt.Errorf("%s: missing payload", action)
	}
	return commander.engine.Execute(action, start)
}
