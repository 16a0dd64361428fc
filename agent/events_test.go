package agent

import (
	"strings"
	"testing"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/protoss"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/model"
)

// baseGameState is a protoss base with two nexuses, eight probes and an
// army of eight.
func baseGameState(loop uint32) model.GameState {
	gs := model.GameState{
		GameLoop: loop,
		Player:   model.Player{Minerals: 300, FoodUsed: 24, FoodCap: 46},
		Units: []model.Unit{
			{Tag: 1, Type: protoss.Nexus, BuildProgress: 1},
			{Tag: 2, Type: protoss.Nexus, BuildProgress: 1},
			{Tag: 3, Type: protoss.Pylon, BuildProgress: 1},
			{Tag: 4, Type: protoss.Gateway, BuildProgress: 1},
		},
	}
	for i := 0; i < 8; i++ {
		gs.Units = append(gs.Units, model.Unit{Tag: api.UnitTag(10 + i), Type: protoss.Probe, BuildProgress: 1})
	}
	for i := 0; i < 8; i++ {
		gs.Units = append(gs.Units, model.Unit{Tag: api.UnitTag(30 + i), Type: protoss.Zealot, BuildProgress: 1})
	}
	return gs
}

func without(gs model.GameState, tags ...api.UnitTag) model.GameState {
	drop := make(map[api.UnitTag]bool)
	for _, t := range tags {
		drop[t] = true
	}
	var kept []model.Unit
	for _, u := range gs.Units {
		if !drop[u.Tag] {
			kept = append(kept, u)
		}
	}
	gs.Units = kept
	return gs
}

func diff(t *testing.T, prev, cur model.GameState) []Event {
	t.Helper()
	c := gamedata.Default()
	p := takeSnapshot(c, &prev)
	n := takeSnapshot(c, &cur)
	return detectEvents(&p, &n)
}

func hasEvent(events []Event, k EventKind) bool {
	for _, e := range events {
		if e.Kind == k {
			return true
		}
	}
	return false
}

func TestTakeSnapshotCounts(t *testing.T) {
	gs := baseGameState(100)
	snap := takeSnapshot(gamedata.Default(), &gs)
	if snap.townhalls != 2 {
		t.Errorf("townhalls = %d, want 2", snap.townhalls)
	}
	if snap.workers != 8 {
		t.Errorf("workers = %d, want 8", snap.workers)
	}
	if snap.combat != 8 {
		t.Errorf("combat = %d, want 8 (structures excluded)", snap.combat)
	}
	if snap.phase != "early" {
		t.Errorf("phase = %q, want early", snap.phase)
	}
}

func TestDetectEvents_NoEvents(t *testing.T) {
	prev := baseGameState(100)
	cur := baseGameState(101)
	events := diff(t, prev, cur)
	if len(events) != 0 {
		t.Errorf("expected 0 events, got %d: %+v", len(events), events)
	}
}

func TestDetectEvents_NilPrev(t *testing.T) {
	gs := baseGameState(100)
	cur := takeSnapshot(gamedata.Default(), &gs)
	if events := detectEvents(nil, &cur); events != nil {
		t.Errorf("expected nil events for nil prev, got %+v", events)
	}
}

func TestDetectEvents_TownhallLost(t *testing.T) {
	prev := baseGameState(100)
	cur := without(baseGameState(101), 2)

	events := diff(t, prev, cur)
	if !hasEvent(events, EventTownhallLost) {
		t.Fatalf("expected townhall_lost, got %+v", events)
	}
	for _, e := range events {
		if e.Kind == EventTownhallLost && !strings.Contains(e.Detail, "Nexus") {
			t.Errorf("detail should name the nexus, got %q", e.Detail)
		}
	}
}

func TestDetectEvents_OtherStructureLost(t *testing.T) {
	prev := baseGameState(100)
	cur := without(baseGameState(101), 3)
	if events := diff(t, prev, cur); hasEvent(events, EventTownhallLost) {
		t.Errorf("did not expect townhall_lost for a pylon, got %+v", events)
	}
}

func TestDetectEvents_ArmyDevastated(t *testing.T) {
	prev := baseGameState(100)
	cur := without(baseGameState(101), 30, 31, 32, 33, 34)

	if events := diff(t, prev, cur); !hasEvent(events, EventArmyDevastated) {
		t.Errorf("expected army_devastated for 8→3, got %+v", events)
	}
}

func TestDetectEvents_ArmyHalfLostNotDevastated(t *testing.T) {
	prev := baseGameState(100)
	cur := without(baseGameState(101), 30, 31, 32, 33)

	if events := diff(t, prev, cur); hasEvent(events, EventArmyDevastated) {
		t.Errorf("exactly half lost should not fire, got %+v", events)
	}
}

func TestDetectEvents_SmallArmyIgnored(t *testing.T) {
	prev := without(baseGameState(100), 30, 31, 32)
	cur := without(prev, 33, 34, 35, 36)
	cur.GameLoop = 101

	if events := diff(t, prev, cur); hasEvent(events, EventArmyDevastated) {
		t.Errorf("army of 5 is below the floor, got %+v", events)
	}
}

func TestDetectEvents_WorkersLost(t *testing.T) {
	prev := baseGameState(100)
	cur := without(baseGameState(101), 10, 11, 12)
	if events := diff(t, prev, cur); hasEvent(events, EventWorkersLost) {
		t.Errorf("3 of 8 is below the loss threshold, got %+v", events)
	}

	cur = without(baseGameState(101), 10, 11, 12, 13)
	if events := diff(t, prev, cur); !hasEvent(events, EventWorkersLost) {
		t.Errorf("expected workers_lost for 8→4, got %+v", events)
	}
}

func TestDetectEvents_FirstContact(t *testing.T) {
	prev := baseGameState(100)
	cur := baseGameState(101)
	cur.Enemies = []model.Unit{{Tag: 900, Type: protoss.Zealot}}

	if events := diff(t, prev, cur); !hasEvent(events, EventFirstContact) {
		t.Errorf("expected first_contact, got %+v", events)
	}

	// Still visible: no repeat.
	next := baseGameState(102)
	next.Enemies = cur.Enemies
	if events := diff(t, cur, next); hasEvent(events, EventFirstContact) {
		t.Errorf("first_contact should fire once, got %+v", events)
	}
}

func TestDetectEvents_PhaseTransition(t *testing.T) {
	prev := baseGameState(100)
	cur := baseGameState(101)
	cur.Units = append(cur.Units, model.Unit{Tag: 50, Type: protoss.TwilightCouncil, BuildProgress: 1})

	events := diff(t, prev, cur)
	if !hasEvent(events, EventPhaseTransition) {
		t.Fatalf("expected phase_transition, got %+v", events)
	}

	// An unfinished council does not count.
	cur.Units[len(cur.Units)-1].BuildProgress = 0.5
	if events := diff(t, prev, cur); hasEvent(events, EventPhaseTransition) {
		t.Errorf("incomplete tech should not change phase, got %+v", events)
	}
}

func TestGamePhaseByTime(t *testing.T) {
	tests := []struct {
		secs float64
		want string
	}{
		{60, "early"},
		{5*60 + 1, "mid"},
		{12*60 + 1, "late"},
	}
	for _, tt := range tests {
		gs := model.GameState{GameLoop: uint32(tt.secs * loopsPerSecond)}
		if got := gamePhase(&gs); got != tt.want {
			t.Errorf("gamePhase(%vs) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestDetectEvents_OutpoweredChanged(t *testing.T) {
	prev := baseGameState(100)
	cur := baseGameState(101)
	cur.Outpowered = true

	if events := diff(t, prev, cur); !hasEvent(events, EventOutpoweredChanged) {
		t.Errorf("expected outpowered_changed, got %+v", events)
	}
	if events := diff(t, cur, prev); !hasEvent(events, EventOutpoweredChanged) {
		t.Errorf("expected outpowered_changed on recovery, got %+v", events)
	}
}

func TestDetectEvents_SupplyBlocked(t *testing.T) {
	prev := baseGameState(100)
	cur := baseGameState(101)
	cur.Player.FoodUsed = 46

	if events := diff(t, prev, cur); !hasEvent(events, EventSupplyBlocked) {
		t.Errorf("expected supply_blocked, got %+v", events)
	}

	maxed := baseGameState(101)
	maxed.Player.FoodUsed, maxed.Player.FoodCap = 200, 200
	if events := diff(t, prev, maxed); hasEvent(events, EventSupplyBlocked) {
		t.Errorf("200/200 is not a block, got %+v", events)
	}
}

func TestLostUnits(t *testing.T) {
	c := gamedata.Default()
	prevGS := baseGameState(100)
	curGS := without(baseGameState(101), 10, 30)
	prev := takeSnapshot(c, &prevGS)
	cur := takeSnapshot(c, &curGS)

	lost := lostUnits(&prev, &cur)
	if len(lost) != 2 {
		t.Fatalf("expected 2 lost units, got %v", lost)
	}
	got := map[api.UnitTag]bool{lost[0]: true, lost[1]: true}
	if !got[10] || !got[30] {
		t.Errorf("lost = %v, want tags 10 and 30", lost)
	}
}

func TestFormatEvents(t *testing.T) {
	s := formatEvents([]Event{
		{Kind: EventFirstContact, Loop: 10, Detail: "enemies visible"},
		{Kind: EventSupplyBlocked, Loop: 10, Detail: "supply blocked"},
	})
	want := "[10] first_contact: enemies visible; [10] supply_blocked: supply blocked"
	if s != want {
		t.Errorf("formatEvents = %q, want %q", s, want)
	}
}
