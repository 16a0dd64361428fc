// Package estimate answers "how long until" questions: until an order is
// affordable, until its tech requirement finishes, until a structure is free
// to take an add-on.
package estimate

import (
	"math"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/terran"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/ledger"
	"github.com/LostLucidity/lucid-ai-sub002/model"
)

// Before the score reports real income, assume a standard opening.
const (
	earlyGameLoop       = 292
	earlyMineralsPerMin = 615
)

// Lifting and landing each take 64 frames; flying structures move at
// their listed speed times the "faster" game speed factor.
const (
	liftOrLandFrames = 64
	speedFactor      = 1.4
)

var Inf = math.Inf(1)

// Estimator is built fresh for each tick over that tick's snapshot.
type Estimator struct {
	snap      *model.Snapshot
	catalog   *gamedata.Catalog
	earmarks  *ledger.Earmarks
	placement model.PlacementSolver
}

func New(snap *model.Snapshot, catalog *gamedata.Catalog, earmarks *ledger.Earmarks, placement model.PlacementSolver) *Estimator {
	return &Estimator{snap: snap, catalog: catalog, earmarks: earmarks, placement: placement}
}

// TimeInSeconds converts game loops to seconds.
func TimeInSeconds(frames float64) float64 { return frames / gamedata.FramesPerSecond }

// BuildTimeLeft returns the frames remaining on an item with the given total
// build time and progress, accounting for chrono boost on the producer.
func BuildTimeLeft(producer *model.Unit, buildTime float64, progress float64) float64 {
	if producer != nil && producer.HasBuff(gamedata.ChronoBoostBuff) {
		buildTime *= gamedata.ChronoFactor
	}
	return math.Round(buildTime * (1 - progress))
}

// AddOnSite is where an add-on attached to u stands.
func AddOnSite(u *model.Unit) api.Point2D {
	return api.Point2D{X: u.Pos.X + 2.5, Y: u.Pos.Y - 0.5}
}

// rates returns income per second.
func (e *Estimator) rates() (minerals, vespene float64) {
	if e.snap.GameLoop < earlyGameLoop {
		return earlyMineralsPerMin / 60.0, 0
	}
	return float64(e.snap.Score.CollectionRateMinerals) / 60, float64(e.snap.Score.CollectionRateVespene) / 60
}

// TimeToTargetCost is the seconds until current income covers every
// reservation so far plus order. Nothing is reserved.
func (e *Estimator) TimeToTargetCost(order gamedata.Order) float64 {
	if order == nil || e.snap == nil {
		return Inf
	}
	mRate, vRate := e.rates()
	totalM, totalV := e.earmarks.Provisional(order, e.snap.Player.FoodUsed, 0)

	mTime, ok := shortfallTime(float64(totalM-e.snap.Player.Minerals), mRate)
	if !ok {
		return Inf
	}
	var vTime float64
	if order.VespeneCost() > 0 {
		if vTime, ok = shortfallTime(float64(totalV-e.snap.Player.Vespene), vRate); !ok {
			return Inf
		}
	}
	return math.Max(mTime, vTime)
}

// shortfallTime is the seconds to earn left at rate. A bank that already
// covers it needs no income.
func shortfallTime(left, rate float64) (float64, bool) {
	switch {
	case left <= 0:
		return 0, true
	case rate == 0:
		return 0, false
	}
	return left / rate, true
}

// Commit reserves order's cost in the ledger.
func (e *Estimator) Commit(order gamedata.Order, foodUsed int, step int) {
	e.earmarks.AddEarmark(order, foodUsed, step)
}

// TimeToTargetTech is the seconds until the most advanced instance of
// unitType's tech requirement finishes.
func (e *Estimator) TimeToTargetTech(unitType api.UnitTypeID) float64 {
	data, ok := e.catalog.Unit(unitType)
	if !ok || data.TechRequirement == 0 {
		return 0
	}
	req, ok := e.catalog.Unit(data.TechRequirement)
	if !ok || req.BuildTime == 0 {
		return 0
	}
	instances := e.snap.OfType(gamedata.CountTypes(data.TechRequirement)...)
	if len(instances) == 0 {
		return 0
	}
	best := instances[0].BuildProgress
	for _, u := range instances[1:] {
		best = max(best, u.BuildProgress)
	}
	return TimeInSeconds((1 - Progress(best)) * float64(req.BuildTime))
}

// Progress widens a reported float32 progress without carrying its binary
// error into the estimates: 0.6 stays 0.6, not 0.6000000238.
func Progress(p float32) float64 {
	return math.Round(float64(p)*1e6) / 1e6
}

// TimeUntilCanBeAfforded combines the resource and tech waits.
func (e *Estimator) TimeUntilCanBeAfforded(order gamedata.Order) float64 {
	t := e.TimeToTargetCost(order)
	if u, ok := order.(gamedata.UnitOrder); ok && u.Data != nil {
		t = math.Max(t, e.TimeToTargetTech(u.Data.UnitId))
	}
	return t
}

// TimeUntilUnitCanBuildAddon is the seconds before u could start an add-on,
// including any relocation it needs first.
func (e *Estimator) TimeUntilUnitCanBuildAddon(u *model.Unit) float64 {
	if u == nil {
		return Inf
	}
	data, ok := e.catalog.Unit(u.Type)
	if !ok {
		return Inf
	}
	if !u.Complete() {
		return TimeInSeconds(BuildTimeLeft(nil, float64(data.BuildTime), Progress(u.BuildProgress)))
	}
	if u.Idle() {
		if u.HasAddOn() || u.IsFlying || !e.AddOnFits(u) {
			return e.relocationTime(u, nil)
		}
		return 0
	}
	if u.IsFlying || gamedata.IsFlyingType(u.Type) {
		if u.Orders[0].TargetPos != nil {
			return e.relocationTime(u, u.Orders[0].TargetPos)
		}
		return Inf
	}
	if trained, ok := e.catalog.UnitTrainedBy(u.Orders[0].AbilityID); ok {
		td, _ := e.catalog.Unit(trained)
		left := TimeInSeconds(BuildTimeLeft(u, float64(td.BuildTime), Progress(u.Orders[0].Progress)))
		if u.HasAddOn() {
			left += e.relocationTime(u, nil)
		}
		return left
	}
	return Inf
}

// AddOnFits asks the placement solver whether an add-on has room beside u
// where it stands.
func (e *Estimator) AddOnFits(u *model.Unit) bool {
	if e.placement == nil {
		return true
	}
	if u.IsFlying || gamedata.IsFlyingType(u.Type) {
		return false
	}
	_, ok := e.placement.FindPosition(terran.Reactor, []api.Point2D{AddOnSite(u)})
	return ok
}

// RelocationSite is the alternate site u would land on, from the placement
// solver's candidates for its landed type.
func (e *Estimator) RelocationSite(u *model.Unit, exclude func([]api.Point2D) []api.Point2D) (api.Point2D, bool) {
	if e.placement == nil {
		return api.Point2D{}, false
	}
	ground := u.Type
	if g, ok := gamedata.FlyingTypes[u.Type]; ok {
		ground = g
	}
	candidates := e.placement.FindPlacements(ground)
	if exclude != nil {
		candidates = exclude(candidates)
	}
	return e.placement.FindPosition(ground, candidates)
}

// relocationTime is lift + fly + land to target, or to the best alternate
// site when target is nil.
func (e *Estimator) relocationTime(u *model.Unit, target *api.Point2D) float64 {
	flying, ok := e.catalog.Unit(terran.BarracksFlying)
	if !ok || flying.MovementSpeed == 0 {
		return Inf
	}
	speed := float64(flying.MovementSpeed) * speedFactor

	if target == nil {
		p, ok := e.RelocationSite(u, nil)
		if !ok {
			return Inf
		}
		target = &p
	}

	landings := 2.0
	if u.IsFlying || gamedata.IsFlyingType(u.Type) {
		landings = 1
	}
	return landings*TimeInSeconds(liftOrLandFrames) + u.Distance(*target)/speed
}
