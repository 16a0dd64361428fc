package ipc

import (
	"github.com/aiseeq/s2l/protocol/api"
)

// CommandsMessage answers a game_state with the raw unit commands to issue,
// in order.
type CommandsMessage struct {
	GameLoop uint32        `json:"gameLoop"`
	Step     int           `json:"step"`
	Commands []UnitCommand `json:"commands"`
}

// UnitCommand is the JSON form of api.ActionRawUnitCommand. At most one of
// TargetPos and TargetTag is set.
type UnitCommand struct {
	AbilityID api.AbilityID `json:"abilityId"`
	UnitTags  []api.UnitTag `json:"unitTags"`
	TargetPos *api.Point2D  `json:"targetPos,omitempty"`
	TargetTag api.UnitTag   `json:"targetTag,omitempty"`
	Queue     bool          `json:"queue,omitempty"`
}

func FromRaw(c *api.ActionRawUnitCommand) UnitCommand {
	out := UnitCommand{
		AbilityID: c.AbilityId,
		UnitTags:  append([]api.UnitTag(nil), c.UnitTags...),
		Queue:     c.QueueCommand,
	}
	switch t := c.Target.(type) {
	case *api.ActionRawUnitCommand_TargetWorldSpacePos:
		if t.TargetWorldSpacePos != nil {
			p := *t.TargetWorldSpacePos
			out.TargetPos = &p
		}
	case *api.ActionRawUnitCommand_TargetUnitTag:
		out.TargetTag = t.TargetUnitTag
	}
	return out
}

func (c UnitCommand) Raw() *api.ActionRawUnitCommand {
	out := &api.ActionRawUnitCommand{
		AbilityId:    c.AbilityID,
		UnitTags:     append([]api.UnitTag(nil), c.UnitTags...),
		QueueCommand: c.Queue,
	}
	switch {
	case c.TargetPos != nil:
		p := *c.TargetPos
		out.Target = &api.ActionRawUnitCommand_TargetWorldSpacePos{TargetWorldSpacePos: &p}
	case c.TargetTag != 0:
		out.Target = &api.ActionRawUnitCommand_TargetUnitTag{TargetUnitTag: c.TargetTag}
	}
	return out
}

// NewCommandsMessage converts the executor's output for the wire.
func NewCommandsMessage(loop uint32, step int, cmds []*api.ActionRawUnitCommand) CommandsMessage {
	out := CommandsMessage{GameLoop: loop, Step: step, Commands: make([]UnitCommand, 0, len(cmds))}
	for _, c := range cmds {
		out.Commands = append(out.Commands, FromRaw(c))
	}
	return out
}
