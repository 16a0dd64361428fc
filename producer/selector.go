// Package producer picks which unit should carry out an order: the
// structure that trains a unit, or the worker that walks out to build.
package producer

import (
	"log/slog"
	"math"
	"slices"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/terran"
	"github.com/aiseeq/s2l/protocol/enums/unit"
	"github.com/aiseeq/s2l/protocol/enums/zerg"

	"github.com/LostLucidity/lucid-ai-sub002/estimate"
	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/ledger"
	"github.com/LostLucidity/lucid-ai-sub002/model"
)

// A worker this close to its resource is mid-harvest and should not be pulled.
const (
	miningRangeMinerals = 1.62
	miningRangeMULE     = 1.92
	miningRangeVespene  = 2.28
	speedFactor         = 1.4
	onSiteRange         = 1
)

// Candidate is a worker and how long it needs to be ready at the build site.
type Candidate struct {
	Unit           *model.Unit
	TimeToPosition float64
}

type Selector struct {
	snap    *model.Snapshot
	catalog *gamedata.Catalog
	pending *ledger.PendingOrders
	labels  *ledger.Labels
	pather  model.Pather
	race    api.Race
}

func NewSelector(snap *model.Snapshot, catalog *gamedata.Catalog, pending *ledger.PendingOrders, labels *ledger.Labels, pather model.Pather, race api.Race) *Selector {
	if pather == nil {
		pather = model.GridPather{}
	}
	return &Selector{snap: snap, catalog: catalog, pending: pending, labels: labels, pather: pather, race: race}
}

// Trainers returns our units able to start unitType within threshold frames,
// in observation order.
func (s *Selector) Trainers(unitType api.UnitTypeID, threshold float64) []*model.Unit {
	producers := s.catalog.ProducersOf(unitType)
	var out []*model.Unit
	for i := range s.snap.Units {
		u := &s.snap.Units[i]
		t := u.Type
		if alias, ok := gamedata.ProducerAliases[t]; ok && !slices.Contains(producers, t) {
			t = alias
		}
		if !slices.Contains(producers, t) {
			continue
		}
		if s.canTrain(u, threshold) {
			out = append(out, u)
		}
	}
	return out
}

// Hosts returns our finished structures that can take the add-on unitType,
// landed or lifted, skipping any already on the move.
func (s *Selector) Hosts(unitType api.UnitTypeID) []*model.Unit {
	producers := s.catalog.ProducersOf(unitType)
	var out []*model.Unit
	for i := range s.snap.Units {
		u := &s.snap.Units[i]
		t := u.Type
		if alias, ok := gamedata.ProducerAliases[t]; ok && !slices.Contains(producers, t) {
			t = alias
		}
		if !slices.Contains(producers, t) || !u.Complete() || s.labels.Has(u.Tag, ledger.LabelReposition) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Researchers returns idle, finished structures that can research id.
func (s *Selector) Researchers(id api.UpgradeID) []*model.Unit {
	var out []*model.Unit
	for _, u := range s.snap.OfType(s.catalog.ResearchersOf(id)...) {
		if !u.Complete() || !u.Idle() || len(s.pending.Get(u.Tag)) > 0 || s.labels.Has(u.Tag, ledger.LabelReposition) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Capacity is how many items u can produce at once.
func (s *Selector) Capacity(u *model.Unit) int {
	if u.HasAddOn() {
		if addon, ok := s.snap.Unit(u.AddOnTag); ok && gamedata.IsReactor(addon.Type) {
			return 2
		}
	}
	return 1
}

func (s *Selector) canTrain(u *model.Unit, threshold float64) bool {
	if !u.Complete() || s.labels.Has(u.Tag, ledger.LabelReposition) {
		return false
	}
	pending := len(s.pending.Get(u.Tag))
	capacity := s.Capacity(u)
	if len(u.Orders)+pending > capacity {
		return false
	}
	if len(u.Orders) == 0 {
		return pending < capacity
	}
	if pending > 0 {
		return false
	}
	if len(u.Orders) < capacity {
		return true
	}
	trained, ok := s.catalog.UnitTrainedBy(u.Orders[0].AbilityID)
	if !ok {
		return false
	}
	td, _ := s.catalog.Unit(trained)
	return estimate.BuildTimeLeft(u, float64(td.BuildTime), estimate.Progress(u.Orders[0].Progress)) <= threshold
}

func (s *Selector) workerSpeed() float64 {
	if d, ok := s.catalog.Unit(gamedata.WorkerType(s.race)); ok && d.MovementSpeed > 0 {
		return float64(d.MovementSpeed) * speedFactor
	}
	return 2.8125 * speedFactor
}

func firstOrder(u *model.Unit) (model.Order, bool) {
	if len(u.Orders) == 0 {
		return model.Order{}, false
	}
	return u.Orders[0], true
}

func (s *Selector) isGathering(u *model.Unit) bool {
	o, ok := firstOrder(u)
	return ok && gamedata.IsGather(o.AbilityID)
}

func (s *Selector) isReturning(u *model.Unit) bool {
	o, ok := firstOrder(u)
	return ok && gamedata.IsReturn(o.AbilityID)
}

func (s *Selector) isCarrying(u *model.Unit) bool {
	for _, b := range u.BuffIDs {
		if gamedata.IsCarryBuff(b) {
			return true
		}
	}
	return false
}

func (s *Selector) isConstructing(u *model.Unit) bool {
	o, ok := firstOrder(u)
	return ok && s.catalog.IsConstructionAbility(o.AbilityID)
}

func (s *Selector) isMoving(u *model.Unit) bool {
	o, ok := firstOrder(u)
	return ok && gamedata.IsMove(o.AbilityID)
}

// isMining reports a gathering worker already at its resource.
func (s *Selector) isMining(u *model.Unit) bool {
	o, ok := firstOrder(u)
	if !ok || !gamedata.IsGather(o.AbilityID) || o.TargetTag == 0 {
		return false
	}
	target, ok := s.snap.Unit(o.TargetTag)
	if !ok {
		return false
	}
	d := u.Distance(target.Pos)
	if gamedata.IsGasMine(target.Type) || gamedata.IsGeyser(target.Type) {
		return d < miningRangeVespene
	}
	if u.Type == terran.MULE {
		return d < miningRangeMULE
	}
	return d < miningRangeMinerals
}

func orderTargetNear(u *model.Unit, p api.Point2D) bool {
	for _, o := range u.Orders {
		if o.TargetPos != nil && model.Distance(*o.TargetPos, p) < onSiteRange {
			return true
		}
	}
	return false
}

// Builder returns the worker that can reach position soonest.
func (s *Selector) Builder(position api.Point2D) (Candidate, bool) {
	workers := s.snap.OfType(gamedata.WorkerType(s.race))
	if len(workers) == 0 {
		return Candidate{}, false
	}

	var busy []*model.Unit
	busySet := make(map[api.UnitTag]bool)
	for _, w := range workers {
		if w.Type == zerg.Drone {
			continue
		}
		if s.isConstructing(w) || (w.Type != terran.SCV && s.isMoving(w)) {
			busy = append(busy, w)
			busySet[w.Tag] = true
		}
	}

	var base []*model.Unit
	seen := make(map[api.UnitTag]bool)
	add := func(w *model.Unit) {
		if !seen[w.Tag] && !busySet[w.Tag] && len(s.pending.Get(w.Tag)) == 0 {
			seen[w.Tag] = true
			base = append(base, w)
		}
	}
	for _, w := range workers {
		labelled := s.labels.Has(w.Tag, ledger.LabelBuilder) || s.labels.Has(w.Tag, ledger.LabelProxy)
		if !labelled {
			continue
		}
		if s.isReturning(w) || (s.isGathering(w) && s.isMining(w)) || (w.Type == zerg.Drone && s.isConstructing(w)) {
			continue
		}
		add(w)
	}
	for _, w := range workers {
		switch {
		case w.Idle():
			add(w)
		case s.isGathering(w) && !s.isMining(w) && !s.isCarrying(w):
			add(w)
		case orderTargetNear(w, position):
			add(w)
		}
	}

	speed := s.workerSpeed()
	var options []Candidate
	if c, ok := s.closestInNearestCluster(base, position, speed); ok {
		options = append(options, c)
	}
	if c, ok := s.bestBusy(busy, position, speed); ok {
		options = append(options, c)
	}
	if c, ok := s.closestConstructing(busy, position, speed); ok {
		options = append(options, c)
	}
	best, ok := pickFastest(options)
	if ok {
		slog.Debug("builder selected", "tag", best.Unit.Tag, "type", unit.String(best.Unit.Type), "seconds", best.TimeToPosition)
	}
	return best, ok
}

func (s *Selector) closestInNearestCluster(base []*model.Unit, position api.Point2D, speed float64) (Candidate, bool) {
	if len(base) == 0 {
		return Candidate{}, false
	}
	points := make([]api.Point2D, len(base))
	for i, w := range base {
		points[i] = w.Pos
	}
	clusters := dbscan(points, clusterEps, clusterMinPts)
	if len(clusters) == 0 {
		return Candidate{}, false
	}
	nearest := clusters[0]
	bestCenter := model.Distance(centroid(points, nearest), position)
	for _, c := range clusters[1:] {
		if d := model.Distance(centroid(points, c), position); d < bestCenter {
			nearest, bestCenter = c, d
		}
	}

	var best Candidate
	bestPath := math.Inf(1)
	for _, i := range nearest {
		if d := s.pather.PathDistance(base[i].Pos, position); d < bestPath {
			bestPath = d
			best = Candidate{Unit: base[i], TimeToPosition: d / speed}
		}
	}
	return best, best.Unit != nil
}

// busyTime is the walk to the current job, the rest of that job, then the
// walk from there to position.
func (s *Selector) busyTime(w *model.Unit, position api.Point2D, speed float64) float64 {
	o, _ := firstOrder(w)
	if o.TargetPos == nil {
		return s.pather.PathDistance(w.Pos, position) / speed
	}
	job := *o.TargetPos
	t := s.pather.PathDistance(w.Pos, job) / speed
	t += s.constructionLeft(o, job)
	t += s.pather.PathDistance(job, position) / speed
	return t
}

// constructionLeft is the seconds a worker stays busy building at job.
// Probes only start a warp-in, so they leave at once.
func (s *Selector) constructionLeft(o model.Order, job api.Point2D) float64 {
	if s.race == api.Race_Protoss {
		return 0
	}
	built, ok := s.catalog.UnitTrainedBy(o.AbilityID)
	if !ok {
		return 0
	}
	data, ok := s.catalog.Unit(built)
	if !ok {
		return 0
	}
	progress := 0.0
	for i := range s.snap.Units {
		u := &s.snap.Units[i]
		if u.Type == built && !u.Complete() && u.Distance(job) < onSiteRange {
			progress = estimate.Progress(u.BuildProgress)
			break
		}
	}
	return estimate.TimeInSeconds(estimate.BuildTimeLeft(nil, float64(data.BuildTime), progress))
}

func (s *Selector) bestBusy(busy []*model.Unit, position api.Point2D, speed float64) (Candidate, bool) {
	var best Candidate
	bestTime := math.Inf(1)
	for _, w := range busy {
		if t := s.busyTime(w, position, speed); t < bestTime {
			best, bestTime = Candidate{Unit: w, TimeToPosition: t}, t
		}
	}
	return best, best.Unit != nil
}

func (s *Selector) closestConstructing(busy []*model.Unit, position api.Point2D, speed float64) (Candidate, bool) {
	var best *model.Unit
	bestDist := math.Inf(1)
	for _, w := range busy {
		if !s.isConstructing(w) {
			continue
		}
		if d := w.Distance(position); d < bestDist {
			best, bestDist = w, d
		}
	}
	if best == nil {
		return Candidate{}, false
	}
	return Candidate{Unit: best, TimeToPosition: s.busyTime(best, position, speed)}, true
}

// pickFastest takes the lowest time, keeping the earliest option on ties.
func pickFastest(options []Candidate) (Candidate, bool) {
	if len(options) == 0 {
		return Candidate{}, false
	}
	slices.SortStableFunc(options, func(a, b Candidate) int {
		switch {
		case a.TimeToPosition < b.TimeToPosition:
			return -1
		case a.TimeToPosition > b.TimeToPosition:
			return 1
		}
		return 0
	})
	return options[0], true
}
