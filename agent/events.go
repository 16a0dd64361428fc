package agent

import (
	"fmt"
	"strings"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/protoss"
	"github.com/aiseeq/s2l/protocol/enums/terran"
	"github.com/aiseeq/s2l/protocol/enums/unit"
	"github.com/aiseeq/s2l/protocol/enums/zerg"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/model"
)

// EventKind identifies a game event that should make the strategist
// reconsider the build order.
type EventKind string

const (
	EventTownhallLost      EventKind = "townhall_lost"
	EventArmyDevastated    EventKind = "army_devastated"
	EventWorkersLost       EventKind = "workers_lost"
	EventFirstContact      EventKind = "first_contact"
	EventPhaseTransition   EventKind = "phase_transition"
	EventOutpoweredChanged EventKind = "outpowered_changed"
	EventSupplyBlocked     EventKind = "supply_blocked"
)

// Event is something significant found by diffing consecutive snapshots.
type Event struct {
	Kind   EventKind
	Loop   uint32
	Detail string
}

// loopsPerSecond is the game's "faster" speed.
const loopsPerSecond = 22.4

// stateSnapshot captures the diffable fields of one game state.
type stateSnapshot struct {
	loop        uint32
	units       map[api.UnitTag]api.UnitTypeID
	townhalls   int
	workers     int
	combat      int
	enemiesSeen bool
	outpowered  bool
	blocked     bool
	phase       string
}

// nonCombat are own units that are neither workers nor structures but should
// not count as army.
var nonCombat = map[api.UnitTypeID]bool{
	zerg.Larva:          true,
	zerg.Egg:            true,
	zerg.Overlord:       true,
	zerg.OverlordCocoon: true,
	zerg.Broodling:      true,
	terran.MULE:         true,
}

var midGameTech = map[api.UnitTypeID]bool{
	terran.Factory:           true,
	terran.Starport:          true,
	protoss.TwilightCouncil:  true,
	protoss.RoboticsFacility: true,
	protoss.Stargate:         true,
	zerg.Lair:                true,
}

var lateGameTech = map[api.UnitTypeID]bool{
	terran.FusionCore:      true,
	terran.Armory:          true,
	protoss.FleetBeacon:    true,
	protoss.TemplarArchive: true,
	zerg.Hive:              true,
	zerg.UltraliskCavern:   true,
	zerg.GreaterSpire:      true,
}

// gamePhase reads the phase from tech milestones, with game time as a
// fallback for games where tech stalls.
func gamePhase(gs *model.GameState) string {
	secs := float64(gs.GameLoop) / loopsPerSecond
	mid := secs > 5*60
	for _, u := range gs.Units {
		if !u.Complete() {
			continue
		}
		if lateGameTech[u.Type] {
			return "late"
		}
		if midGameTech[u.Type] {
			mid = true
		}
	}
	if secs > 12*60 {
		return "late"
	}
	if mid {
		return "mid"
	}
	return "early"
}

func isCombatUnit(c *gamedata.Catalog, u model.Unit) bool {
	return !gamedata.IsWorker(u.Type) && !c.IsStructure(u.Type) && !nonCombat[u.Type]
}

func takeSnapshot(c *gamedata.Catalog, gs *model.GameState) stateSnapshot {
	snap := stateSnapshot{
		loop:        gs.GameLoop,
		units:       make(map[api.UnitTag]api.UnitTypeID, len(gs.Units)),
		enemiesSeen: len(gs.Enemies) > 0,
		outpowered:  gs.Outpowered,
		blocked:     gs.Player.FoodCap < 200 && gs.Player.FoodUsed >= gs.Player.FoodCap,
		phase:       gamePhase(gs),
	}
	for _, u := range gs.Units {
		snap.units[u.Tag] = u.Type
		switch {
		case gamedata.IsTownhall(u.Type):
			snap.townhalls++
		case gamedata.IsWorker(u.Type):
			snap.workers++
		case isCombatUnit(c, u):
			snap.combat++
		}
	}
	return snap
}

// lostUnits returns the tags present in prev but absent from cur.
func lostUnits(prev, cur *stateSnapshot) []api.UnitTag {
	var out []api.UnitTag
	for tag := range prev.units {
		if _, ok := cur.units[tag]; !ok {
			out = append(out, tag)
		}
	}
	return out
}

// detectEvents compares cur against prev. Returns nil on the first snapshot.
func detectEvents(prev, cur *stateSnapshot) []Event {
	if prev == nil {
		return nil
	}
	var events []Event
	add := func(k EventKind, format string, args ...any) {
		events = append(events, Event{Kind: k, Loop: cur.loop, Detail: fmt.Sprintf(format, args...)})
	}

	if cur.townhalls < prev.townhalls {
		var lost []string
		for tag, t := range prev.units {
			if _, ok := cur.units[tag]; !ok && gamedata.IsTownhall(t) {
				lost = append(lost, unit.String(t))
			}
		}
		add(EventTownhallLost, "lost %s (%d→%d)", strings.Join(lost, ", "), prev.townhalls, cur.townhalls)
	}

	// Floor of 6 keeps early skirmishes quiet.
	if prev.combat >= 6 {
		lost := prev.combat - cur.combat
		if lost > 0 && float64(lost)/float64(prev.combat) > 0.5 {
			add(EventArmyDevastated, "army %d→%d (lost %d%%)", prev.combat, cur.combat, 100*lost/prev.combat)
		}
	}

	if prev.workers > 0 {
		lost := prev.workers - cur.workers
		if cur.workers == 0 || (lost >= 4 && float64(lost)/float64(prev.workers) >= 1.0/3) {
			add(EventWorkersLost, "workers %d→%d", prev.workers, cur.workers)
		}
	}

	if !prev.enemiesSeen && cur.enemiesSeen {
		add(EventFirstContact, "enemies visible")
	}

	if prev.phase != cur.phase {
		add(EventPhaseTransition, "%s → %s", prev.phase, cur.phase)
	}

	if prev.outpowered != cur.outpowered {
		add(EventOutpoweredChanged, "outpowered=%t", cur.outpowered)
	}

	if !prev.blocked && cur.blocked {
		add(EventSupplyBlocked, "supply blocked")
	}

	return events
}

// formatEvents renders events for a log line.
func formatEvents(events []Event) string {
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = fmt.Sprintf("[%d] %s: %s", e.Loop, e.Kind, e.Detail)
	}
	return strings.Join(parts, "; ")
}
