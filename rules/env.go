package rules

import (
	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/protoss"
	"github.com/aiseeq/s2l/protocol/enums/terran"
	"github.com/aiseeq/s2l/protocol/enums/zerg"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/ledger"
	"github.com/LostLucidity/lucid-ai-sub002/model"
)

// RuleEnv wraps the snapshot and ledgers and exposes helpers callable from
// expr conditions.
type RuleEnv struct {
	Snap     *model.Snapshot
	Catalog  *gamedata.Catalog
	Earmarks *ledger.Earmarks
	Pending  *ledger.PendingOrders
	Race     api.Race

	// PlanGasSupply is the highest supply at which the build order adds a
	// gas mine; 0 when it adds none.
	PlanGasSupply int
}

func (e RuleEnv) Minerals() int    { return e.Snap.Player.Minerals }
func (e RuleEnv) Vespene() int     { return e.Snap.Player.Vespene }
func (e RuleEnv) FoodUsed() int    { return e.Snap.Player.FoodUsed }
func (e RuleEnv) FoodCap() int     { return e.Snap.Player.FoodCap }
func (e RuleEnv) SupplyLeft() int  { return e.Snap.Player.FoodCap - e.Snap.Player.FoodUsed }
func (e RuleEnv) RaceName() string { return gamedata.RaceName(e.Race) }

func (e RuleEnv) GameSeconds() float64 {
	return float64(e.Snap.GameLoop) / gamedata.FramesPerSecond
}

// ResourceRatio is minerals per vespene, with vespene floored at 1.
func (e RuleEnv) ResourceRatio() float64 {
	return float64(e.Minerals()) / float64(max(e.Vespene(), 1))
}

// CanAfford checks the bank after what the plan has already reserved.
func (e RuleEnv) CanAfford(unitType api.UnitTypeID) bool {
	d, ok := e.Catalog.Unit(unitType)
	if !ok {
		return false
	}
	m, v := 0, 0
	if e.Earmarks != nil {
		m, v = e.Earmarks.Totals()
	}
	return e.Minerals()-m >= int(d.MineralCost) && e.Vespene()-v >= int(d.VespeneCost)
}

func (e RuleEnv) Count(unitType api.UnitTypeID) int {
	return len(e.Snap.OfType(unitType))
}

// InProgress counts units of the type still under construction plus
// producers with an observed or pending order to make one.
func (e RuleEnv) InProgress(unitType api.UnitTypeID) int {
	n := 0
	for _, u := range e.Snap.OfType(unitType) {
		if !u.Complete() {
			n++
		}
	}
	return n + e.Ordered(unitType)
}

// Ordered counts our units with an observed or pending order creating unitType.
func (e RuleEnv) Ordered(unitType api.UnitTypeID) int {
	d, ok := e.Catalog.Unit(unitType)
	if !ok || d.AbilityId == 0 {
		return 0
	}
	n := 0
	for i := range e.Snap.Units {
		u := &e.Snap.Units[i]
		for _, o := range u.Orders {
			if o.AbilityID == d.AbilityId {
				n++
			}
		}
		if e.Pending != nil {
			for _, c := range e.Pending.Get(u.Tag) {
				if c.AbilityId == d.AbilityId {
					n++
				}
			}
		}
	}
	return n
}

func (e RuleEnv) Worker() api.UnitTypeID  { return gamedata.WorkerType(e.Race) }
func (e RuleEnv) GasMine() api.UnitTypeID { return gamedata.GasMineType(e.Race) }
func (e RuleEnv) Supply() api.UnitTypeID  { return gamedata.SupplyType(e.Race) }

// ArmyUnit is the basic unit surplus minerals are spent on, or 0 for an
// unknown race.
func (e RuleEnv) ArmyUnit() api.UnitTypeID {
	switch e.Race {
	case api.Race_Terran:
		return terran.Marine
	case api.Race_Zerg:
		return zerg.Zergling
	case api.Race_Protoss:
		return protoss.Zealot
	}
	return 0
}

func (e RuleEnv) HasArmyUnit() bool { return e.ArmyUnit() != 0 }

func (e RuleEnv) WorkerCount() int {
	return e.Count(e.Worker()) + e.Ordered(e.Worker())
}

func (e RuleEnv) GasMineCount() int { return e.Count(e.GasMine()) }

// SupplyUnderway reports supply already being added.
func (e RuleEnv) SupplyUnderway() bool {
	return e.InProgress(e.Supply()) > 0
}

// FreeGeysers counts geysers near a finished townhall without a gas mine.
func (e RuleEnv) FreeGeysers() int {
	return len(FreeGeysers(e.Snap))
}

func (e RuleEnv) IdleTownhalls() int {
	n := 0
	for i := range e.Snap.Units {
		u := &e.Snap.Units[i]
		if gamedata.IsTownhall(u.Type) && u.Complete() && u.Idle() && len(e.pending(u.Tag)) == 0 {
			n++
		}
	}
	return n
}

// Larvae counts larva, the Zerg training source.
func (e RuleEnv) Larvae() int { return e.Count(zerg.Larva) }

// CanTrainWorker reports a free source for a worker: an idle townhall, or a
// larva for Zerg.
func (e RuleEnv) CanTrainWorker() bool {
	if e.Race == api.Race_Zerg {
		return e.Larvae() > 0
	}
	return e.IdleTownhalls() > 0
}

// OrbitalsReady counts finished orbitals holding at least minEnergy.
func (e RuleEnv) OrbitalsReady(minEnergy float64) int {
	n := 0
	for _, u := range e.Snap.OfType(terran.OrbitalCommand) {
		if u.Complete() && float64(u.Energy) >= max(minEnergy, gamedata.MULEEnergyCost) {
			n++
		}
	}
	return n
}

// MineralMiners and VespeneMiners count workers by what they are gathering.
func (e RuleEnv) MineralMiners() int { m, _ := e.miners(); return m }
func (e RuleEnv) VespeneMiners() int { _, v := e.miners(); return v }

// MinerRatio is mineral miners per vespene miner, with vespene floored at 1.
func (e RuleEnv) MinerRatio() float64 {
	m, v := e.miners()
	return float64(m) / float64(max(v, 1))
}

// maxMinerRatio caps how far the balance leans towards minerals.
const maxMinerRatio = 32.0 / 6.0

// Earmarked reports whether the build order holds reservations this pass.
func (e RuleEnv) Earmarked() bool {
	return e.Earmarks != nil && e.Earmarks.HasEarmarks()
}

// TargetMinerRatio is the mineral:vespene miner ratio to steer workers
// towards. While the build order holds earmarks it is the ratio of the
// shortfalls against the bank; otherwise def.
func (e RuleEnv) TargetMinerRatio(def float64) float64 {
	if !e.Earmarked() {
		return def
	}
	m, v := e.Earmarks.Totals()
	needM := max(m-e.Minerals(), 0)
	needV := max(v-e.Vespene(), 0)
	switch {
	case needM == 0 && needV == 0:
		return def
	case needV == 0, e.Vespene() > 512 && e.Minerals() < 512:
		return maxMinerRatio
	}
	return min(float64(needM)/float64(needV), maxMinerRatio)
}

func (e RuleEnv) miners() (minerals, vespene int) {
	for i := range e.Snap.Units {
		u := &e.Snap.Units[i]
		if !gamedata.IsWorker(u.Type) || u.Type == terran.MULE || len(u.Orders) == 0 {
			continue
		}
		o := u.Orders[0]
		if !gamedata.IsGather(o.AbilityID) && !gamedata.IsReturn(o.AbilityID) {
			continue
		}
		if target, ok := e.Snap.Unit(o.TargetTag); ok && gamedata.IsGasMine(target.Type) {
			vespene++
		} else {
			minerals++
		}
	}
	return minerals, vespene
}

// NeedyGasMines counts finished gas mines short of their ideal harvesters.
func (e RuleEnv) NeedyGasMines() int { return len(NeedyGasMines(e.Snap)) }

// NeedyBases counts finished townhalls short of their ideal harvesters.
func (e RuleEnv) NeedyBases() int {
	n := 0
	for i := range e.Snap.Units {
		u := &e.Snap.Units[i]
		if gamedata.IsTownhall(u.Type) && u.Complete() && u.AssignedHarvesters < u.IdealHarvesters {
			n++
		}
	}
	return n
}

func (e RuleEnv) pending(tag api.UnitTag) []*api.ActionRawUnitCommand {
	if e.Pending == nil {
		return nil
	}
	return e.Pending.Get(tag)
}

// FreeGeysers returns geysers within reach of a finished townhall that have
// no gas mine on them yet.
func FreeGeysers(snap *model.Snapshot) []*model.Unit {
	var halls, mines []*model.Unit
	for i := range snap.Units {
		u := &snap.Units[i]
		switch {
		case gamedata.IsTownhall(u.Type) && u.Complete():
			halls = append(halls, u)
		case gamedata.IsGasMine(u.Type):
			mines = append(mines, u)
		}
	}
	const reach = 12
	var out []*model.Unit
	for _, g := range snap.NeutralWhere(func(u *model.Unit) bool { return gamedata.IsGeyser(u.Type) }) {
		taken := false
		for _, m := range mines {
			if m.Distance(g.Pos) < 1 {
				taken = true
				break
			}
		}
		if taken {
			continue
		}
		for _, h := range halls {
			if h.Distance(g.Pos) <= reach {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// NeedyGasMines returns finished gas mines with room for another worker.
func NeedyGasMines(snap *model.Snapshot) []*model.Unit {
	var out []*model.Unit
	for i := range snap.Units {
		u := &snap.Units[i]
		if gamedata.IsGasMine(u.Type) && u.Complete() && u.AssignedHarvesters < u.IdealHarvesters {
			out = append(out, u)
		}
	}
	return out
}
