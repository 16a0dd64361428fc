package plan

import (
	"log/slog"
	"sync"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/protoss"
	"github.com/aiseeq/s2l/protocol/enums/terran"
	"github.com/aiseeq/s2l/protocol/enums/zerg"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/ledger"
	"github.com/LostLucidity/lucid-ai-sub002/model"
	"github.com/LostLucidity/lucid-ai-sub002/rules"
)

// pendingTTL drops a pending order the game never confirmed, in frames.
const pendingTTL = 90

// WorldContext is everything one pass reads. Nil collaborators fall back to
// the snapshot-backed defaults in model.
type WorldContext struct {
	Snap      *model.Snapshot
	Placement model.PlacementSolver
	Combat    model.CombatAdvisor
	Pather    model.Pather
}

// Executor walks a build order once per tick and emits the commands that
// advance it. Run is called from a single goroutine; SetPlan and SetRace may
// be called from any.
type Executor struct {
	mu    sync.RWMutex
	order *BuildOrder
	race  api.Race

	catalog  *gamedata.Catalog
	earmarks *ledger.Earmarks
	pending  *ledger.PendingOrders
	labels   *ledger.Labels
	macro    *rules.Engine

	doctrine rules.Doctrine
	custom   bool

	// stepFrames is the least number of game loops expected between passes.
	stepFrames uint32
	lastLoop   uint32
	ran        bool

	active       *BuildOrder
	step         int
	pendingSince map[api.UnitTag]uint32
	deferLogged  map[string]bool
	missLogged   map[string]bool
	specialsDone map[string]bool
	chronoDone   map[string]bool
	lastRules    []string
}

// NewExecutor builds an executor. macro may be nil to run the plan alone.
func NewExecutor(catalog *gamedata.Catalog, macro *rules.Engine) *Executor {
	return &Executor{
		catalog:      catalog,
		earmarks:     ledger.NewEarmarks(catalog),
		pending:      ledger.NewPendingOrders(),
		labels:       ledger.NewLabels(),
		macro:        macro,
		doctrine:     rules.DefaultDoctrine(),
		stepFrames:   1,
		step:         -1,
		pendingSince: make(map[api.UnitTag]uint32),
		deferLogged:  make(map[string]bool),
		missLogged:   make(map[string]bool),
		specialsDone: make(map[string]bool),
		chronoDone:   make(map[string]bool),
	}
}

// SetPlan swaps the build order. The executor keeps its own copy. An order
// carrying a doctrine recompiles the macro rules for as long as it is set.
func (x *Executor) SetPlan(o *BuildOrder) {
	var c *BuildOrder
	if o != nil {
		c = o.Clone()
	}
	x.mu.Lock()
	x.order = c
	base, wasCustom := x.doctrine, x.custom
	x.mu.Unlock()
	if c == nil {
		return
	}
	slog.Info("build order set", "key", c.Key, "title", c.Title, "steps", len(c.Steps))
	if x.macro != nil {
		x.applyDoctrine(c, base, wasCustom)
	}
}

// SetDoctrine sets the doctrine the macro rules return to when the build
// order carries none.
func (x *Executor) SetDoctrine(d rules.Doctrine) {
	x.mu.Lock()
	x.doctrine = d
	x.mu.Unlock()
}

func (x *Executor) applyDoctrine(o *BuildOrder, base rules.Doctrine, wasCustom bool) {
	d, custom, err := o.Doctrine(base)
	if err != nil {
		slog.Warn("build order doctrine ignored", "key", o.Key, "error", err)
		d, custom = base, false
	}
	if !custom && !wasCustom {
		return
	}
	if err := x.macro.Swap(rules.CompileDoctrine(d)); err != nil {
		slog.Error("doctrine not applied", "key", o.Key, "doctrine", d.Name, "error", err)
		return
	}
	x.mu.Lock()
	x.custom = custom
	x.mu.Unlock()
	slog.Info("doctrine applied", "key", o.Key, "doctrine", d.Name, "rationale", d.Rationale)
}

// SetTickInterval sets how many game loops the host is expected to advance
// between passes. Producers finishing within that window count as free.
func (x *Executor) SetTickInterval(frames uint32) {
	x.stepFrames = max(frames, 1)
}

// Plan returns the executor's copy of the current order, or nil.
func (x *Executor) Plan() *BuildOrder {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.order
}

func (x *Executor) SetRace(r api.Race) {
	x.mu.Lock()
	x.race = r
	x.mu.Unlock()
}

func (x *Executor) Race() api.Race {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.race
}

func (x *Executor) Earmarks() *ledger.Earmarks     { return x.earmarks }
func (x *Executor) Pending() *ledger.PendingOrders { return x.pending }
func (x *Executor) Labels() *ledger.Labels         { return x.labels }

// CurrentStep is the step being executed, or -1 outside a pass.
func (x *Executor) CurrentStep() int { return x.step }

// LastRules names the macro rules fired on the latest pass.
func (x *Executor) LastRules() []string { return x.lastRules }

// Forget evicts everything the executor holds for a unit that has died.
func (x *Executor) Forget(tag api.UnitTag) {
	x.pending.Forget(tag)
	x.labels.Forget(tag)
	delete(x.pendingSince, tag)
}

// Run performs one pass over the plan and returns the commands to send, in
// emission order. It never returns an error; problems are logged.
func (x *Executor) Run(w WorldContext) []*api.ActionRawUnitCommand {
	x.mu.RLock()
	order, race := x.order, x.race
	x.mu.RUnlock()

	if w.Snap == nil {
		slog.Error("plan pass skipped", "error", "no snapshot")
		return nil
	}
	if !gamedata.KnownRace(race) {
		slog.Warn("plan pass skipped", "error", ErrUndefinedRace)
		return nil
	}
	if order == nil {
		slog.Error("plan pass skipped", "error", ErrNoPlan)
		return nil
	}
	if order != x.active {
		x.active = order
		clear(x.deferLogged)
		clear(x.missLogged)
		clear(x.specialsDone)
		clear(x.chronoDone)
	}

	x.pruneLedgers(w.Snap)
	x.earmarks.Reset()
	x.lastRules = nil

	frames := x.stepFrames
	if x.ran && w.Snap.GameLoop > x.lastLoop {
		frames = max(frames, w.Snap.GameLoop-x.lastLoop)
	}
	x.lastLoop, x.ran = w.Snap.GameLoop, true

	p := newPass(x, w, race)
	p.frames = float64(frames)
	p.reposition()
	p.runPlan(order)
	x.step = -1
	p.step = -1

	// With earmarks outstanding only the balance rules run, steering
	// workers towards what the reservations are short of.
	if x.macro != nil {
		env := rules.RuleEnv{
			Snap:          w.Snap,
			Catalog:       x.catalog,
			Earmarks:      x.earmarks,
			Pending:       x.pending,
			Race:          race,
			PlanGasSupply: order.MaxSupplyFor(gamedata.IsGasMine),
		}
		x.lastRules = x.macro.Evaluate(env, p)
	}
	return p.commands
}

// pruneLedgers drops pending orders the snapshot now shows, or that belong
// to units no longer present, or that the game never confirmed.
func (x *Executor) pruneLedgers(snap *model.Snapshot) {
	for _, tag := range x.pending.Tags() {
		u, ok := snap.Unit(tag)
		if !ok {
			x.Forget(tag)
			continue
		}
		observed := make([]api.AbilityID, len(u.Orders))
		for i, o := range u.Orders {
			observed[i] = o.AbilityID
		}
		x.pending.Prune(tag, observed)
		if len(x.pending.Get(tag)) == 0 {
			delete(x.pendingSince, tag)
			continue
		}
		if since, ok := x.pendingSince[tag]; ok && snap.GameLoop-since > pendingTTL {
			slog.Debug("pending order expired", "tag", tag, "since", since)
			x.pending.Forget(tag)
			delete(x.pendingSince, tag)
		}
	}
}

// startingCounts is what every game begins with.
func startingCounts(race api.Race) map[api.UnitTypeID]int {
	switch race {
	case api.Race_Terran:
		return map[api.UnitTypeID]int{terran.SCV: 12, terran.CommandCenter: 1}
	case api.Race_Protoss:
		return map[api.UnitTypeID]int{protoss.Probe: 12, protoss.Nexus: 1}
	case api.Race_Zerg:
		return map[api.UnitTypeID]int{zerg.Drone: 12, zerg.Hatchery: 1, zerg.Overlord: 1}
	}
	return map[api.UnitTypeID]int{}
}
