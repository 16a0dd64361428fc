package plan

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/ability"
	"github.com/aiseeq/s2l/protocol/enums/protoss"
	"github.com/aiseeq/s2l/protocol/enums/terran"
	"github.com/aiseeq/s2l/protocol/enums/unit"

	"github.com/LostLucidity/lucid-ai-sub002/estimate"
	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/ledger"
	"github.com/LostLucidity/lucid-ai-sub002/model"
	"github.com/LostLucidity/lucid-ai-sub002/producer"
	"github.com/LostLucidity/lucid-ai-sub002/rules"
)

const (
	// claimRadius keeps two structures of one pass off the same site.
	claimRadius = 1.5
	// landedRange is how close a relocated structure must sit to its site.
	landedRange = 1
	// maxCancelProgress is how far a queue may be before relocation waits
	// for it instead of cancelling.
	maxCancelProgress = 0.5
	// pylonRing is the warp-in distance from a pylon, inside its power field.
	pylonRing = 3
)

// pass is the state of one Run. It also serves the macro rules as their
// Commander, so rule actions reserve and record like plan steps do.
type pass struct {
	x         *Executor
	snap      *model.Snapshot
	race      api.Race
	placement model.PlacementSolver
	combat    model.CombatAdvisor
	est       *estimate.Estimator
	sel       *producer.Selector

	step     int
	seconds  float64
	frames   float64
	claimed  []api.Point2D
	commands []*api.ActionRawUnitCommand
}

func newPass(x *Executor, w WorldContext, race api.Race) *pass {
	placement := w.Placement
	if placement == nil {
		placement = model.SnapshotPlacements{Snap: w.Snap}
	}
	combat := w.Combat
	if combat == nil {
		combat = model.OutpoweredAdvisor{Outpowered: w.Snap.Outpowered, Townhalls: townhallPositions(w.Snap)}
	}
	pather := w.Pather
	if pather == nil {
		pather = model.GridPather{Grid: w.Snap.Pathing}
	}
	return &pass{
		x:         x,
		snap:      w.Snap,
		race:      race,
		placement: placement,
		combat:    combat,
		est:       estimate.New(w.Snap, x.catalog, x.earmarks, placement),
		sel:       producer.NewSelector(w.Snap, x.catalog, x.pending, x.labels, pather, race),
		step:      -1,
		seconds:   float64(w.Snap.GameLoop) / gamedata.FramesPerSecond,
	}
}

func townhallPositions(snap *model.Snapshot) []api.Point2D {
	var out []api.Point2D
	for i := range snap.Units {
		if gamedata.IsTownhall(snap.Units[i].Type) {
			out = append(out, snap.Units[i].Pos)
		}
	}
	return out
}

func (p *pass) runPlan(order *BuildOrder) {
	counts := startingCounts(p.race)
	for i := range order.Steps {
		s := &order.Steps[i]
		s.resetFlags()
		p.step = i
		p.x.step = i
		for j, a := range s.Actions {
			if !a.Defined() {
				p.missing(fmt.Sprintf("%d-%d", i, j), s.Action)
				continue
			}
			switch {
			case a.Special != "":
				s.satisfied[j] = p.special(s, a)
			case a.IsUpgrade:
				s.satisfied[j] = p.research(s, i, j, a)
			default:
				// Targets are cumulative, so later steps for the same type
				// ask for more whether or not this one is met.
				target := counts[a.UnitType] + a.Count
				counts[a.UnitType] = target
				s.satisfied[j] = p.unit(s, i, j, a, target)
			}
		}
	}
}

func (p *pass) missing(key, action string) {
	if p.x.missLogged[key] {
		return
	}
	p.x.missLogged[key] = true
	slog.Warn("build order action skipped", "step", p.step, "error", fmt.Errorf("%q: %w", action, ErrMissingData))
}

func (p *pass) commit(o gamedata.Order) {
	p.est.Commit(o, p.snap.Player.FoodUsed, p.step)
}

// emit records cmd as pending on u and queues it for sending.
func (p *pass) emit(u *model.Unit, cmd *api.ActionRawUnitCommand) {
	p.x.pending.Set(u.Tag, cmd)
	if _, ok := p.x.pendingSince[u.Tag]; !ok {
		p.x.pendingSince[u.Tag] = p.snap.GameLoop
	}
	p.commands = append(p.commands, cmd)
}

// emitInstant queues an effect that never shows up as an order.
func (p *pass) emitInstant(cmd *api.ActionRawUnitCommand) {
	p.commands = append(p.commands, cmd)
}

// ordered counts our observed and pending orders with ab, times mult.
func (p *pass) ordered(ab api.AbilityID, mult int) int {
	if ab == 0 {
		return 0
	}
	n := 0
	for i := range p.snap.Units {
		u := &p.snap.Units[i]
		for _, o := range u.Orders {
			if o.AbilityID == ab {
				n++
			}
		}
		for _, c := range p.x.pending.Get(u.Tag) {
			if c.AbilityId == ab {
				n++
			}
		}
	}
	return n * mult
}

// unitCount is how many of t we have or have ordered. Terran structures
// count once finished; before that the SCV's build order stands for them.
func (p *pass) unitCount(t api.UnitTypeID) int {
	d, ok := p.x.catalog.Unit(t)
	if !ok {
		return 0
	}
	n := 0
	structure := gamedata.IsStructure(d)
	for _, u := range p.snap.OfType(gamedata.CountTypes(t)...) {
		if structure && p.race == api.Race_Terran && !u.Complete() {
			continue
		}
		n++
	}
	return n + p.ordered(d.AbilityId, gamedata.UnitOrder{Data: d}.Multiplier())
}

func (p *pass) unit(s *Step, i, j int, a Action, target int) bool {
	d, ok := p.x.catalog.Unit(a.UnitType)
	if !ok {
		p.missing(fmt.Sprintf("%d-%d", i, j), unit.String(a.UnitType))
		return false
	}
	if p.unitCount(a.UnitType) >= target {
		return p.chrono(s, i, j, a, d.AbilityId)
	}
	if gamedata.IsStructure(d) {
		p.build(d)
	} else {
		p.train(d, target)
	}
	p.chrono(s, i, j, a, d.AbilityId)
	return false
}

func (p *pass) builtByWorker(id api.UnitTypeID) bool {
	for _, t := range p.x.catalog.ProducersOf(id) {
		if gamedata.IsWorker(t) {
			return true
		}
	}
	return false
}

// build starts a structure, add-on or morph. It reports whether a command
// was emitted.
func (p *pass) build(d *api.UnitTypeData) bool {
	if !p.builtByWorker(d.UnitId) {
		return p.morph(d)
	}
	order := gamedata.UnitOrder{Data: d}

	var site api.Point2D
	var geyser api.UnitTag
	if gamedata.IsGasMine(d.UnitId) {
		g, ok := p.freeGeyser()
		if !ok {
			slog.Debug("no free geyser", "type", unit.String(d.UnitId))
			return false
		}
		site, geyser = g.Pos, g.Tag
	} else {
		pos, ok := p.placement.FindPosition(d.UnitId, p.unclaimed(p.placement.FindPlacements(d.UnitId)))
		if !ok {
			slog.Warn("no valid position", "type", unit.String(d.UnitId), "step", p.step)
			return false
		}
		site = pos
	}

	builder, ok := p.sel.Builder(site)
	if !ok {
		p.commit(order)
		return false
	}
	wait := p.est.TimeUntilCanBeAfforded(order)
	p.claimed = append(p.claimed, site)

	switch {
	case wait <= 0:
		cmd := &api.ActionRawUnitCommand{AbilityId: d.AbilityId, UnitTags: []api.UnitTag{builder.Unit.Tag}}
		if geyser != 0 {
			cmd.Target = &api.ActionRawUnitCommand_TargetUnitTag{TargetUnitTag: geyser}
		} else {
			pos := site
			cmd.Target = &api.ActionRawUnitCommand_TargetWorldSpacePos{TargetWorldSpacePos: &pos}
		}
		p.emit(builder.Unit, cmd)
		p.x.labels.Set(builder.Unit.Tag, ledger.LabelBuilder, site)
		p.commit(order)
		slog.Debug("build ordered", "type", unit.String(d.UnitId), "builder", builder.Unit.Tag, "step", p.step)
		return true
	case wait <= builder.TimeToPosition && !headingTo(builder.Unit, site):
		// Money arrives before the worker would: walk out now.
		pos := site
		p.emit(builder.Unit, &api.ActionRawUnitCommand{
			AbilityId: ability.Move,
			Target:    &api.ActionRawUnitCommand_TargetWorldSpacePos{TargetWorldSpacePos: &pos},
			UnitTags:  []api.UnitTag{builder.Unit.Tag},
		})
		p.x.labels.Set(builder.Unit.Tag, ledger.LabelBuilder, site)
		slog.Debug("premoving builder", "type", unit.String(d.UnitId), "builder", builder.Unit.Tag, "wait", wait)
	}
	p.commit(order)
	return false
}

func headingTo(u *model.Unit, site api.Point2D) bool {
	for _, o := range u.Orders {
		if o.TargetPos != nil && model.Distance(*o.TargetPos, site) < 1 {
			return true
		}
	}
	return false
}

func (p *pass) unclaimed(candidates []api.Point2D) []api.Point2D {
	if len(p.claimed) == 0 {
		return candidates
	}
	var out []api.Point2D
	for _, c := range candidates {
		taken := false
		for _, cl := range p.claimed {
			if model.Distance(c, cl) < claimRadius {
				taken = true
				break
			}
		}
		if !taken {
			out = append(out, c)
		}
	}
	return out
}

func (p *pass) freeGeyser() (*model.Unit, bool) {
	for _, g := range rules.FreeGeysers(p.snap) {
		if len(p.unclaimed([]api.Point2D{g.Pos})) == 0 || p.geyserTargeted(g.Tag) {
			continue
		}
		return g, true
	}
	return nil, false
}

func (p *pass) geyserTargeted(tag api.UnitTag) bool {
	for i := range p.snap.Units {
		u := &p.snap.Units[i]
		for _, o := range u.Orders {
			if o.TargetTag == tag && p.x.catalog.IsConstructionAbility(o.AbilityID) {
				return true
			}
		}
		for _, c := range p.x.pending.Get(u.Tag) {
			if t, ok := c.Target.(*api.ActionRawUnitCommand_TargetUnitTag); ok && t.TargetUnitTag == tag {
				return true
			}
		}
	}
	return false
}

// morph covers add-ons and in-place upgrades such as Orbital Command or Lair.
func (p *pass) morph(d *api.UnitTypeData) bool {
	if gamedata.IsReactor(d.UnitId) || gamedata.IsTechLab(d.UnitId) {
		return p.addOn(d)
	}
	order := gamedata.UnitOrder{Data: d}
	var host *model.Unit
	for _, u := range p.sel.Trainers(d.UnitId, 0) {
		if u.Type == d.UnitId || !p.combat.IsSaferAtPosition(u.Pos) {
			continue
		}
		if u.Idle() && !gamedata.IsFlyingType(u.Type) {
			host = u
			break
		}
	}
	if host == nil || p.est.TimeUntilCanBeAfforded(order) > 0 {
		p.commit(order)
		return false
	}
	p.emit(host, &api.ActionRawUnitCommand{AbilityId: d.AbilityId, UnitTags: []api.UnitTag{host.Tag}})
	p.commit(order)
	slog.Debug("morph ordered", "type", unit.String(d.UnitId), "host", host.Tag, "step", p.step)
	return true
}

// addOn puts a tech lab or reactor on the structure able to take one
// soonest. A host that has to move first is sent off once the money would
// be there before it arrives.
func (p *pass) addOn(d *api.UnitTypeData) bool {
	order := gamedata.UnitOrder{Data: d}
	var host *model.Unit
	best := math.Inf(1)
	for _, u := range p.sel.Hosts(d.UnitId) {
		if !p.combat.IsSaferAtPosition(u.Pos) {
			continue
		}
		if t := p.est.TimeUntilUnitCanBuildAddon(u); t < best {
			host, best = u, t
		}
	}
	if host == nil || math.IsInf(best, 1) {
		p.commit(order)
		return false
	}
	wait := p.est.TimeUntilCanBeAfforded(order)
	if p.mustRelocate(host) {
		if wait < best {
			p.relocate(host)
		}
		p.commit(order)
		return false
	}
	if best > 0 || wait > 0 || len(p.x.pending.Get(host.Tag)) > 0 {
		slog.Debug("add-on host busy", "type", unit.String(d.UnitId), "host", host.Tag, "seconds", best)
		p.commit(order)
		return false
	}
	p.emit(host, &api.ActionRawUnitCommand{AbilityId: d.AbilityId, UnitTags: []api.UnitTag{host.Tag}})
	p.commit(order)
	slog.Debug("add-on ordered", "type", unit.String(d.UnitId), "host", host.Tag, "step", p.step)
	return true
}

func isLifted(u *model.Unit) bool { return u.IsFlying || gamedata.IsFlyingType(u.Type) }

// mustRelocate reports whether u has to land elsewhere before an add-on.
func (p *pass) mustRelocate(u *model.Unit) bool {
	return u.HasAddOn() || isLifted(u) || !p.est.AddOnFits(u)
}

// relocate claims a free site for u, labels it for the move and starts it.
// Training is cancelled unless the front of the queue is past halfway, in
// which case the move waits for it.
func (p *pass) relocate(u *model.Unit) {
	if len(p.x.pending.Get(u.Tag)) > 0 {
		return
	}
	lifted := isLifted(u)
	if !lifted && len(u.Orders) > 0 {
		if _, training := p.x.catalog.UnitTrainedBy(u.Orders[0].AbilityID); !training || estimate.Progress(u.Orders[0].Progress) > maxCancelProgress {
			return
		}
	}
	site, ok := p.est.RelocationSite(u, p.unclaimed)
	if !ok {
		slog.Debug("no landing site", "tag", u.Tag, "type", unit.String(u.Type))
		return
	}
	p.claimed = append(p.claimed, site)
	p.x.labels.Set(u.Tag, ledger.LabelReposition, site)
	if lifted {
		p.land(u, site)
		return
	}
	for range u.Orders {
		p.emit(u, &api.ActionRawUnitCommand{AbilityId: ability.Cancel_Queue5, UnitTags: []api.UnitTag{u.Tag}})
	}
	p.emit(u, &api.ActionRawUnitCommand{AbilityId: ability.Lift, UnitTags: []api.UnitTag{u.Tag}})
	slog.Info("relocating for add-on", "tag", u.Tag, "type", unit.String(u.Type), "x", site.X, "y", site.Y, "cancelled", len(u.Orders))
}

// settle clears pending commands that never show up as orders once their
// effect on the unit is seen.
func (p *pass) settle(tag api.UnitTag, abilities ...api.AbilityID) {
	p.x.pending.Prune(tag, abilities)
	if len(p.x.pending.Get(tag)) == 0 {
		delete(p.x.pendingSince, tag)
	}
}

func (p *pass) land(u *model.Unit, site api.Point2D) {
	pos := site
	p.emit(u, &api.ActionRawUnitCommand{
		AbilityId: ability.Land,
		Target:    &api.ActionRawUnitCommand_TargetWorldSpacePos{TargetWorldSpacePos: &pos},
		UnitTags:  []api.UnitTag{u.Tag},
	})
}

// reposition carries labelled structures through lift and land, and drops
// the label once they are down at their site.
func (p *pass) reposition() {
	for _, tag := range p.x.labels.Tagged(ledger.LabelReposition) {
		v, _ := p.x.labels.Get(tag, ledger.LabelReposition)
		site, isSite := v.(api.Point2D)
		u, ok := p.snap.Unit(tag)
		if !ok || !isSite {
			p.x.labels.Remove(tag, ledger.LabelReposition)
			continue
		}
		if isLifted(u) {
			p.settle(tag, ability.Cancel_Queue5, ability.Lift)
		}
		switch {
		case !isLifted(u) && u.Distance(site) < landedRange:
			p.settle(tag, ability.Land)
			p.x.labels.Remove(tag, ledger.LabelReposition)
			slog.Info("structure relocated", "tag", tag, "type", unit.String(u.Type))
		case len(p.x.pending.Get(tag)) > 0 || !u.Idle():
		case isLifted(u):
			p.land(u, site)
		default:
			p.emit(u, &api.ActionRawUnitCommand{AbilityId: ability.Lift, UnitTags: []api.UnitTag{u.Tag}})
		}
	}
}

// train queues units from free producers until target is covered or money
// runs out, and reports how many commands it emitted.
func (p *pass) train(d *api.UnitTypeData, target int) int {
	order := gamedata.UnitOrder{Data: d}
	mult := order.Multiplier()
	need := int(math.Ceil(float64(target-p.unitCount(d.UnitId)) / float64(mult)))
	if need <= 0 {
		return 0
	}
	food := float64(d.FoodRequired) * float64(mult)
	if food > 0 && !p.x.earmarks.HaveSupplyFor(food, p.snap.Player.FoodCap, p.snap.Player.FoodUsed) {
		// Left unreserved so the supply rule can act.
		slog.Debug("no supply for unit", "type", unit.String(d.UnitId), "step", p.step)
		return 0
	}

	// A producer finishing before the next pass is queued on now.
	emitted := 0
	for _, t := range p.sel.Trainers(d.UnitId, p.frames) {
		if emitted == need {
			break
		}
		if !p.combat.IsSaferAtPosition(t.Pos) {
			continue
		}
		if p.est.TimeUntilCanBeAfforded(order) > 0 {
			break
		}
		cmd, ok := p.trainCommand(t, d)
		if !ok {
			continue
		}
		p.emit(t, cmd)
		p.commit(order)
		emitted++
	}
	if emitted == 0 {
		p.commit(order)
	} else {
		slog.Debug("train ordered", "type", unit.String(d.UnitId), "count", emitted, "step", p.step)
	}
	return emitted
}

// trainCommand is the order that has t start d. A warpgate warps the unit
// in at a free powered spot rather than queueing it.
func (p *pass) trainCommand(t *model.Unit, d *api.UnitTypeData) (*api.ActionRawUnitCommand, bool) {
	if t.Type != protoss.WarpGate {
		return &api.ActionRawUnitCommand{
			AbilityId:    d.AbilityId,
			UnitTags:     []api.UnitTag{t.Tag},
			QueueCommand: len(t.Orders) > 0,
		}, true
	}
	warp, ok := gamedata.WarpAbility(d.AbilityId)
	if !ok {
		return nil, false
	}
	spot, ok := p.warpSpot(d.UnitId)
	if !ok {
		slog.Debug("no powered spot for warp-in", "type", unit.String(d.UnitId), "gate", t.Tag)
		return nil, false
	}
	p.claimed = append(p.claimed, spot)
	return &api.ActionRawUnitCommand{
		AbilityId: warp,
		Target:    &api.ActionRawUnitCommand_TargetWorldSpacePos{TargetWorldSpacePos: &spot},
		UnitTags:  []api.UnitTag{t.Tag},
	}, true
}

// warpSpot asks the placement solver for a free spot for unitType, falling
// back to a ring around each finished pylon.
func (p *pass) warpSpot(unitType api.UnitTypeID) (api.Point2D, bool) {
	candidates := p.placement.FindPlacements(unitType)
	if len(candidates) == 0 {
		for _, py := range p.snap.OfType(protoss.Pylon) {
			if !py.Complete() {
				continue
			}
			for k := range 8 {
				a := float64(k) * math.Pi / 4
				candidates = append(candidates, api.Point2D{
					X: py.Pos.X + float32(pylonRing*math.Cos(a)),
					Y: py.Pos.Y + float32(pylonRing*math.Sin(a)),
				})
			}
		}
	}
	return p.placement.FindPosition(unitType, p.unclaimed(candidates))
}

func (p *pass) upgradeUnderway(ab api.AbilityID) bool {
	return ab != 0 && p.ordered(ab, 1) > 0
}

func (p *pass) research(s *Step, i, j int, a Action) bool {
	up, ok := p.x.catalog.Upgrade(a.Upgrade)
	if !ok {
		p.missing(fmt.Sprintf("%d-%d", i, j), gamedata.UpgradeName(a.Upgrade))
		return false
	}
	if p.snap.HasUpgrade(a.Upgrade) || p.upgradeUnderway(up.AbilityId) {
		return p.chrono(s, i, j, a, up.AbilityId)
	}
	order := gamedata.UpgradeOrder{Data: up}
	var lab *model.Unit
	for _, u := range p.sel.Researchers(a.Upgrade) {
		if p.combat.IsSaferAtPosition(u.Pos) {
			lab = u
			break
		}
	}
	if lab == nil || p.est.TimeUntilCanBeAfforded(order) > 0 {
		p.commit(order)
		return false
	}
	p.emit(lab, &api.ActionRawUnitCommand{AbilityId: up.AbilityId, UnitTags: []api.UnitTag{lab.Tag}})
	p.commit(order)
	slog.Debug("research ordered", "upgrade", gamedata.UpgradeName(a.Upgrade), "step", p.step)
	return false
}

// chrono boosts the producer working on ab once the step's supply is
// reached. Each step action is boosted at most once. Actions without chrono
// are trivially done.
func (p *pass) chrono(s *Step, i, j int, a Action, ab api.AbilityID) bool {
	if !a.ChronoBoost {
		return true
	}
	key := fmt.Sprintf("%d-%d", i, j)
	if p.x.chronoDone[key] {
		return true
	}
	if p.snap.Player.FoodUsed < s.Supply {
		return false
	}
	var target *model.Unit
	for k := range p.snap.Units {
		u := &p.snap.Units[k]
		if len(u.Orders) > 0 && u.Orders[0].AbilityID == ab && u.Complete() && !u.HasBuff(gamedata.ChronoBoostBuff) {
			target = u
			break
		}
	}
	if target == nil {
		return false
	}
	for _, n := range p.snap.OfType(protoss.Nexus) {
		if !n.Complete() || n.Energy < gamedata.MULEEnergyCost {
			continue
		}
		p.emitInstant(&api.ActionRawUnitCommand{
			AbilityId: gamedata.ChronoBoostAbility,
			Target:    &api.ActionRawUnitCommand_TargetUnitTag{TargetUnitTag: target.Tag},
			UnitTags:  []api.UnitTag{n.Tag},
		})
		p.x.chronoDone[key] = true
		slog.Debug("chrono boost", "target", target.Tag, "nexus", n.Tag, "step", i)
		return true
	}
	return false
}

// special runs a Scouting or MULE step once its time is reached.
func (p *pass) special(s *Step, a Action) bool {
	key := a.Special + "-" + s.Time
	if p.x.specialsDone[key] {
		return true
	}
	at, _ := s.Seconds()
	if p.seconds < at {
		if !p.x.deferLogged[key] {
			p.x.deferLogged[key] = true
			slog.Debug("special action deferred", "action", a.Special, "at", s.Time)
		}
		return false
	}
	done := false
	switch a.Special {
	case SpecialScoutSCV:
		done = p.scout()
	case SpecialCallDownMULEs:
		done = p.callDownMULEs(gamedata.MULEEnergyCost) > 0
	default:
		p.missing(key, a.Special)
	}
	if done {
		p.x.specialsDone[key] = true
		slog.Info("special action done", "action", a.Special, "at", s.Time)
	}
	return done
}

func (p *pass) scout() bool {
	if len(p.snap.EnemyStartLocations) == 0 {
		return false
	}
	target := p.snap.EnemyStartLocations[0]
	c, ok := p.sel.Builder(target)
	if !ok {
		return false
	}
	pos := target
	p.emit(c.Unit, &api.ActionRawUnitCommand{
		AbilityId: ability.Move,
		Target:    &api.ActionRawUnitCommand_TargetWorldSpacePos{TargetWorldSpacePos: &pos},
		UnitTags:  []api.UnitTag{c.Unit.Tag},
	})
	p.x.labels.Set(c.Unit.Tag, ledger.LabelScout, target)
	return true
}

// callDownMULEs drops a MULE from every orbital holding minEnergy, on the
// mineral field nearest it.
func (p *pass) callDownMULEs(minEnergy float64) int {
	minEnergy = max(minEnergy, gamedata.MULEEnergyCost)
	n := 0
	for _, oc := range p.snap.OfType(terran.OrbitalCommand) {
		if !oc.Complete() || float64(oc.Energy) < minEnergy {
			continue
		}
		field, ok := p.nearestMineral(oc.Pos)
		if !ok {
			continue
		}
		p.emitInstant(&api.ActionRawUnitCommand{
			AbilityId: gamedata.CalldownMULE,
			Target:    &api.ActionRawUnitCommand_TargetUnitTag{TargetUnitTag: field.Tag},
			UnitTags:  []api.UnitTag{oc.Tag},
		})
		n++
	}
	return n
}

func (p *pass) nearestMineral(from api.Point2D) (*model.Unit, bool) {
	var best *model.Unit
	bestDist := math.Inf(1)
	for _, m := range p.snap.NeutralWhere(func(u *model.Unit) bool { return gamedata.IsMineralField(u.Type) }) {
		if d := m.Distance(from); d < bestDist {
			best, bestDist = m, d
		}
	}
	return best, best != nil
}

// gatherer returns our closest worker gathering from a resource matching
// keep, skipping MULEs and workers with pending orders.
func (p *pass) gatherer(near api.Point2D, keep func(api.UnitTypeID) bool) (*model.Unit, bool) {
	var best *model.Unit
	bestDist := math.Inf(1)
	for _, w := range p.snap.OfType(gamedata.WorkerType(p.race)) {
		if len(w.Orders) == 0 || !gamedata.IsGather(w.Orders[0].AbilityID) || len(p.x.pending.Get(w.Tag)) > 0 {
			continue
		}
		res, ok := p.snap.Unit(w.Orders[0].TargetTag)
		if !ok || !keep(res.Type) {
			continue
		}
		if d := w.Distance(near); d < bestDist {
			best, bestDist = w, d
		}
	}
	return best, best != nil
}

func (p *pass) gather(w *model.Unit, target api.UnitTag) {
	p.emit(w, &api.ActionRawUnitCommand{
		AbilityId: ability.Harvest_Gather,
		Target:    &api.ActionRawUnitCommand_TargetUnitTag{TargetUnitTag: target},
		UnitTags:  []api.UnitTag{w.Tag},
	})
}

// Build implements rules.Commander.
func (p *pass) Build(t api.UnitTypeID) bool {
	d, ok := p.x.catalog.Unit(t)
	if !ok {
		return false
	}
	return p.build(d)
}

// Train implements rules.Commander.
func (p *pass) Train(t api.UnitTypeID) bool {
	d, ok := p.x.catalog.Unit(t)
	if !ok {
		return false
	}
	return p.train(d, p.unitCount(t)+gamedata.UnitOrder{Data: d}.Multiplier()) > 0
}

// CallDownMULEs implements rules.Commander.
func (p *pass) CallDownMULEs(minEnergy float64) bool { return p.callDownMULEs(minEnergy) > 0 }

// SendWorkerToGas moves one mineral worker to a gas mine short of workers.
func (p *pass) SendWorkerToGas() bool {
	mines := rules.NeedyGasMines(p.snap)
	if len(mines) == 0 {
		return false
	}
	w, ok := p.gatherer(mines[0].Pos, gamedata.IsMineralField)
	if !ok {
		return false
	}
	p.gather(w, mines[0].Tag)
	return true
}

// SendWorkerToMinerals moves one gas worker back to a base short of workers.
func (p *pass) SendWorkerToMinerals() bool {
	for i := range p.snap.Units {
		base := &p.snap.Units[i]
		if !gamedata.IsTownhall(base.Type) || !base.Complete() || base.AssignedHarvesters >= base.IdealHarvesters {
			continue
		}
		field, ok := p.nearestMineral(base.Pos)
		if !ok {
			continue
		}
		w, ok := p.gatherer(base.Pos, gamedata.IsGasMine)
		if !ok {
			return false
		}
		p.gather(w, field.Tag)
		return true
	}
	return false
}
