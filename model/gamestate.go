package model

import (
	"math"

	"github.com/aiseeq/s2l/protocol/api"
)

// GameState is the per-tick snapshot the host sends. Units carry game ids
// so the planner can look them up in the catalog directly.
type GameState struct {
	GameLoop   uint32                            `json:"gameLoop"`
	Player     Player                            `json:"player"`
	Score      Score                             `json:"score"`
	Units      []Unit                            `json:"units"`
	Neutral    []Unit                            `json:"neutral"`
	Enemies    []Unit                            `json:"enemies"`
	Placements map[api.UnitTypeID][]api.Point2D `json:"placements,omitempty"`
	Outpowered bool                              `json:"outpowered"`
	Pathing    *PathingGrid                      `json:"pathing,omitempty"`

	EnemyStartLocations []api.Point2D `json:"enemyStartLocations,omitempty"`
}

type Player struct {
	Minerals int             `json:"minerals"`
	Vespene  int             `json:"vespene"`
	FoodUsed int             `json:"foodUsed"`
	FoodCap  int             `json:"foodCap"`
	Upgrades []api.UpgradeID `json:"upgrades"`
}

// Score carries collection rates per game minute.
type Score struct {
	CollectionRateMinerals float32 `json:"collectionRateMinerals"`
	CollectionRateVespene  float32 `json:"collectionRateVespene"`
}

type Unit struct {
	Tag                api.UnitTag    `json:"tag"`
	Type               api.UnitTypeID `json:"type"`
	Pos                api.Point2D    `json:"pos"`
	BuildProgress      float32        `json:"buildProgress"`
	IsFlying           bool           `json:"isFlying"`
	Orders             []Order        `json:"orders"`
	BuffIDs            []api.BuffID   `json:"buffIds"`
	AddOnTag           api.UnitTag    `json:"addOnTag,omitempty"`
	Energy             float32        `json:"energy"`
	AssignedHarvesters int32          `json:"assignedHarvesters"`
	IdealHarvesters    int32          `json:"idealHarvesters"`
	VespeneContents    int32          `json:"vespeneContents,omitempty"`
}

// Order is one entry of a unit's observed order queue.
type Order struct {
	AbilityID api.AbilityID `json:"abilityId"`
	TargetPos *api.Point2D  `json:"targetPos,omitempty"`
	TargetTag api.UnitTag   `json:"targetTag,omitempty"`
	Progress  float32       `json:"progress"`
}

func (u *Unit) HasBuff(b api.BuffID) bool {
	for _, id := range u.BuffIDs {
		if id == b {
			return true
		}
	}
	return false
}

func (u *Unit) Idle() bool { return len(u.Orders) == 0 }

func (u *Unit) Complete() bool { return u.BuildProgress >= 1 }

func (u *Unit) HasAddOn() bool { return u.AddOnTag != 0 }

// Distance is the straight-line distance to p.
func (u *Unit) Distance(p api.Point2D) float64 { return Distance(u.Pos, p) }

// Distance between two map points.
func Distance(a, b api.Point2D) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Snapshot indexes a GameState for the lookups made during one tick.
type Snapshot struct {
	*GameState
	byTag map[api.UnitTag]*Unit
}

func NewSnapshot(gs *GameState) *Snapshot {
	if gs == nil {
		gs = &GameState{}
	}
	s := &Snapshot{GameState: gs, byTag: make(map[api.UnitTag]*Unit, len(gs.Units)+len(gs.Neutral))}
	for i := range gs.Units {
		s.byTag[gs.Units[i].Tag] = &gs.Units[i]
	}
	for i := range gs.Neutral {
		s.byTag[gs.Neutral[i].Tag] = &gs.Neutral[i]
	}
	return s
}

// Unit looks up one of our units or a neutral unit by tag.
func (s *Snapshot) Unit(tag api.UnitTag) (*Unit, bool) {
	u, ok := s.byTag[tag]
	return u, ok
}

// OfType returns our units of any of the given types, in observation order.
func (s *Snapshot) OfType(types ...api.UnitTypeID) []*Unit {
	var out []*Unit
	for i := range s.Units {
		u := &s.Units[i]
		for _, t := range types {
			if u.Type == t {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// NeutralWhere filters neutral units.
func (s *Snapshot) NeutralWhere(keep func(*Unit) bool) []*Unit {
	var out []*Unit
	for i := range s.Neutral {
		if keep(&s.Neutral[i]) {
			out = append(out, &s.Neutral[i])
		}
	}
	return out
}

func (s *Snapshot) HasUpgrade(id api.UpgradeID) bool {
	for _, u := range s.Player.Upgrades {
		if u == id {
			return true
		}
	}
	return false
}

// Tags returns the tags of every unit we own.
func (s *Snapshot) Tags() map[api.UnitTag]bool {
	out := make(map[api.UnitTag]bool, len(s.Units))
	for _, u := range s.Units {
		out[u.Tag] = true
	}
	return out
}
