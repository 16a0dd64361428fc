package model

import (
	"github.com/aiseeq/s2l/protocol/api"
)

// PlacementSolver proposes build sites.
type PlacementSolver interface {
	FindPlacements(unitType api.UnitTypeID) []api.Point2D
	FindPosition(unitType api.UnitTypeID, candidates []api.Point2D) (api.Point2D, bool)
}

// CombatAdvisor judges whether a producer is safe to use.
type CombatAdvisor interface {
	IsSaferAtPosition(p api.Point2D) bool
}

// Pather measures ground distance for a walking worker.
type Pather interface {
	PathDistance(from, to api.Point2D) float64
}

// occupiedRadius is how close an existing structure may be to a candidate
// site before the site counts as taken.
const occupiedRadius = 1.5

// SnapshotPlacements picks build sites from the candidates the host solved.
type SnapshotPlacements struct {
	Snap *Snapshot
}

func (p SnapshotPlacements) FindPlacements(unitType api.UnitTypeID) []api.Point2D {
	if p.Snap == nil {
		return nil
	}
	return p.Snap.Placements[unitType]
}

// FindPosition returns the first candidate no unit of ours is standing on.
func (p SnapshotPlacements) FindPosition(_ api.UnitTypeID, candidates []api.Point2D) (api.Point2D, bool) {
	for _, c := range candidates {
		if p.Snap == nil || !p.occupied(c) {
			return c, true
		}
	}
	return api.Point2D{}, false
}

func (p SnapshotPlacements) occupied(c api.Point2D) bool {
	for i := range p.Snap.Units {
		u := &p.Snap.Units[i]
		if !u.IsFlying && u.Distance(c) < occupiedRadius {
			return true
		}
	}
	return false
}

// homeRadius is how far from a townhall a producer still counts as home.
const homeRadius = 15

// OutpoweredAdvisor treats every position as safe unless the host reports
// our army is outpowered, in which case only positions near a townhall are.
type OutpoweredAdvisor struct {
	Outpowered bool
	Townhalls  []api.Point2D
}

func (a OutpoweredAdvisor) IsSaferAtPosition(p api.Point2D) bool {
	if !a.Outpowered {
		return true
	}
	for _, th := range a.Townhalls {
		if Distance(th, p) <= homeRadius {
			return true
		}
	}
	return false
}

// GridPather walks the host pathing grid, falling back to straight-line
// distance when no grid was sent or no path was found.
type GridPather struct {
	Grid *PathingGrid
}

func (g GridPather) PathDistance(from, to api.Point2D) float64 {
	if g.Grid != nil {
		if d, ok := g.Grid.Distance(from, to); ok {
			return d
		}
	}
	return Distance(from, to)
}
