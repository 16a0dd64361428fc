package ledger

import (
	"github.com/aiseeq/s2l/protocol/api"
)

// PendingOrders remembers commands sent to a unit that the game has not yet
// reflected in its observed orders.
type PendingOrders struct {
	byTag map[api.UnitTag][]*api.ActionRawUnitCommand
}

func NewPendingOrders() *PendingOrders {
	return &PendingOrders{byTag: make(map[api.UnitTag][]*api.ActionRawUnitCommand)}
}

// Set appends cmd to the unit's pending list.
func (p *PendingOrders) Set(tag api.UnitTag, cmd *api.ActionRawUnitCommand) {
	p.byTag[tag] = append(p.byTag[tag], cmd)
}

func (p *PendingOrders) Get(tag api.UnitTag) []*api.ActionRawUnitCommand {
	return p.byTag[tag]
}

// Forget drops everything held for tag, used when the unit is destroyed.
func (p *PendingOrders) Forget(tag api.UnitTag) {
	delete(p.byTag, tag)
}

// Prune removes pending commands whose ability now shows in the unit's
// observed orders.
func (p *PendingOrders) Prune(tag api.UnitTag, observed []api.AbilityID) {
	cmds, ok := p.byTag[tag]
	if !ok {
		return
	}
	seen := make(map[api.AbilityID]bool, len(observed))
	for _, a := range observed {
		seen[a] = true
	}
	kept := cmds[:0]
	for _, c := range cmds {
		if !seen[c.AbilityId] {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(p.byTag, tag)
		return
	}
	p.byTag[tag] = kept
}

// Len is the number of units with pending commands.
func (p *PendingOrders) Len() int { return len(p.byTag) }

// Tags lists every unit with pending commands.
func (p *PendingOrders) Tags() []api.UnitTag {
	out := make([]api.UnitTag, 0, len(p.byTag))
	for t := range p.byTag {
		out = append(out, t)
	}
	return out
}
