package timekeeper

import (
	"fmt"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/wire"
)

// Execute applies one command message and returns the state after it. Every
// transport funnels commands through here.
func (keeper *TimeKeeper) Execute(action wire.Action, start wire.StartPayload) (model.TimerState, error) {
	switch action {
	case wire.ActionStartTimer:
		if err := keeper.StartWith(start.TimeLeft, start.TotalTime, start.SelectedMinutes); err != nil {
			return keeper.State(), err
		}
	case wire.ActionPauseTimer:
		keeper.Pause()
	case wire.ActionResetTimer:
		keeper.Reset()
	case wire.ActionRequestStateSync, wire.ActionGetState:
	default:
		return keeper.State(), fmt.Errorf("unknown command %q", action)
	}
	return keeper.State(), nil
}
