package timekeeper

import (
	"time"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/wire"
)

// Persister receives every state mutation. Implementations must not block.
type Persister interface {
	SaveState(state model.TimerState)
	SaveLastTick(tick model.LastTick)
	ResetSpeechGate()
}

// Publisher pushes events to whichever observers are listening.
type Publisher interface {
	Publish(event wire.Event)
}

// Notifier is the desktop notification collaborator, fired once per finish.
type Notifier interface {
	NotifyFinished(totalTime int) error
}

func newEvent(action wire.Action, timeLeft int, at time.Time) wire.Event {
	return wire.Event{Action: action, TimeLeft: timeLeft, At: at.UnixMilli()}
}

type discardPersister struct{}

func (discardPersister) SaveState(model.TimerState)  {}
func (discardPersister) SaveLastTick(model.LastTick) {}
func (discardPersister) ResetSpeechGate()            {}

type discardPublisher struct{}

func (discardPublisher) Publish(wire.Event) {}
