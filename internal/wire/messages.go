package wire

import (
	"fmt"

	"meetingtimer/internal/core/model"
)

// Action names a command or event. The values are the message names used by
// every surface and must stay stable.
type Action string

// Commands, observer to engine.
const (
	ActionStartTimer       Action = "startTimer"
	ActionPauseTimer       Action = "pauseTimer"
	ActionResetTimer       Action = "resetTimer"
	ActionRequestStateSync Action = "requestStateSync"
	ActionGetState         Action = "getState"
)

// Events, engine to observers.
const (
	ActionTimerTick     Action = "timerTick"
	ActionTimerWarning  Action = "timerWarning"
	ActionTimerPaused   Action = "timerPaused"
	ActionTimerReset    Action = "timerReset"
	ActionTimerFinished Action = "timerFinished"
)

// ActionShowTimerOverlay is the advisory observer-to-observer display request.
const ActionShowTimerOverlay Action = "showTimerOverlay"

// IsCommand reports whether the action is handled by the engine.
func (action Action) IsCommand() bool {
	switch action {
	case ActionStartTimer, ActionPauseTimer, ActionResetTimer, ActionRequestStateSync, ActionGetState:
		return true
	default:
		return false
	}
}

// ExpectsReply reports whether the engine answers the command.
func (action Action) ExpectsReply() bool {
	return action == ActionRequestStateSync || action == ActionGetState
}

// StartPayload carries the startTimer arguments.
type StartPayload struct {
	TimeLeft        int `cbor:"timeLeft" json:"timeLeft"`
	TotalTime       int `cbor:"totalTime" json:"totalTime"`
	SelectedMinutes int `cbor:"selectedMinutes" json:"selectedMinutes"`
}

// StateReply is the response to getState and requestStateSync.
type StateReply struct {
	State model.TimerState `cbor:"state" json:"state"`
}

// Event is a best-effort notification to observers. TimeLeft is meaningful for
// timerTick and showTimerOverlay only. Origin names the connection a relayed
// event came from so it is not echoed back.
type Event struct {
	Action   Action `cbor:"action" json:"action"`
	TimeLeft int    `cbor:"timeLeft,omitempty" json:"timeLeft,omitempty"`
	At       int64  `cbor:"at,omitempty" json:"at,omitempty"`
	Origin   string `cbor:"origin,omitempty" json:"-"`
}

func (event Event) String() string {
	switch event.Action {
	case ActionTimerTick, ActionShowTimerOverlay:
		return fmt.Sprintf("%s{%d}", event.Action, event.TimeLeft)
	default:
		return string(event.Action)
	}
}

// Kind distinguishes envelope types on a connection.
type Kind uint8

const (
	KindCommand Kind = iota + 1
	KindResponse
	KindEvent
)

// Envelope is the framed unit on the transport. Payload holds the CBOR
// encoding of the action specific body.
type Envelope struct {
	Kind    Kind   `cbor:"1,keyasint"`
	ID      uint64 `cbor:"2,keyasint,omitempty"`
	Action  Action `cbor:"3,keyasint"`
	Payload []byte `cbor:"4,keyasint,omitempty"`
	Error   string `cbor:"5,keyasint,omitempty"`
}

// NewEnvelope encodes body into a new envelope. A nil body leaves Payload empty.
func NewEnvelope(kind Kind, id uint64, action Action, body any) (Envelope, error) {
	envelope := Envelope{Kind: kind, ID: id, Action: action}
	if body == nil {
		return envelope, nil
	}
	payload, err := Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", action, err)
	}
	envelope.Payload = payload
	return envelope, nil
}

// Decode unmarshals the payload into v.
func (envelope Envelope) Decode(v any) error {
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("decode %s payload: empty", envelope.Action)
	}
	if err := Unmarshal(envelope.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.Action, err)
	}
	return nil
}
