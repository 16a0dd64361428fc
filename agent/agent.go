package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aiseeq/s2l/protocol/api"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/ipc"
	"github.com/LostLucidity/lucid-ai-sub002/journal"
	"github.com/LostLucidity/lucid-ai-sub002/ledger"
	"github.com/LostLucidity/lucid-ai-sub002/metrics"
	"github.com/LostLucidity/lucid-ai-sub002/model"
	"github.com/LostLucidity/lucid-ai-sub002/plan"
	"github.com/LostLucidity/lucid-ai-sub002/rules"
)

// Deps is what every session is built from.
type Deps struct {
	// Catalog returns a catalog the session may modify.
	Catalog func() (*gamedata.Catalog, error)
	// Library parses the session's build orders against its catalog.
	Library  func(*gamedata.Catalog) (*plan.Library, error)
	Doctrine rules.Doctrine
	// DefaultPlan is the fallback order key when hello names none.
	DefaultPlan string
	// TickInterval is the minimum game loops between passes.
	TickInterval uint32
	Interval     uint32
	Metrics      metrics.Recorder
	// Journal opens the writer for a session, or nil to skip journaling.
	Journal func(session string) journal.Writer
}

// Agent owns the planning for a single bot session.
type Agent struct {
	Conn      *ipc.Connection
	Session   string
	Player    string
	Race      api.Race
	EnemyRace api.Race

	deps       Deps
	catalog    *gamedata.Catalog
	exec       *plan.Executor
	strategist *Strategist
	journal    journal.Writer
	prev       *stateSnapshot
	lastPass   uint32
	passed     bool
}

func New(conn *ipc.Connection, session string, deps Deps) *Agent {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	a := &Agent{
		Conn:       conn,
		Session:    session,
		deps:       deps,
		strategist: NewStrategist(deps.DefaultPlan, deps.Interval),
		journal:    journal.Discard{},
	}
	if deps.Journal != nil {
		if w := deps.Journal(session); w != nil {
			a.journal = w
		}
	}
	a.strategist.OnSwitch(a.planSwitched)
	return a
}

// Run serves the connection until it closes. The strategist lives as long
// as the connection.
func (a *Agent) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.Conn.RegisterHandler(ipc.TypeHello, a.HandleHello)
	a.Conn.RegisterHandler(ipc.TypeGameState, a.HandleGameState)

	a.Conn.Bind(a.Session)
	go a.strategist.Start(ctx)
	a.Conn.Serve(ctx)
}

// HandleHello sets up the session's catalog, library and executor, then
// selects the opening build order.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := env.Decode(&hello); err != nil {
		return nil, err
	}

	race, ok := gamedata.ParseRace(hello.Race)
	if !ok || !gamedata.KnownRace(race) {
		return nil, fmt.Errorf("hello race %q: %w", hello.Race, plan.ErrUndefinedRace)
	}
	enemy, _ := gamedata.ParseRace(hello.EnemyRace)

	catalog, err := a.deps.Catalog()
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if hello.GameData != nil {
		catalog.Merge(hello.GameData.Units, hello.GameData.Upgrades)
		slog.Info("catalog overridden", "units", len(hello.GameData.Units), "upgrades", len(hello.GameData.Upgrades))
	}
	lib, err := a.deps.Library(catalog)
	if err != nil {
		return nil, fmt.Errorf("build orders: %w", err)
	}
	engine, err := rules.NewEngine(rules.CompileDoctrine(a.deps.Doctrine))
	if err != nil {
		return nil, fmt.Errorf("macro rules: %w", err)
	}

	exec := plan.NewExecutor(catalog, engine)
	exec.SetRace(race)
	exec.SetDoctrine(a.deps.Doctrine)
	exec.SetTickInterval(a.deps.TickInterval)

	a.Player = hello.Player
	a.Race = race
	a.EnemyRace = enemy
	a.catalog = catalog
	a.exec = exec
	a.prev = nil
	a.passed = false

	a.strategist.Configure(lib, exec, race, enemy, hello.BuildKey)
	key := a.strategist.Evaluate()

	slog.Info("player identified",
		"player", a.Player,
		"race", gamedata.RaceName(race),
		"enemyRace", gamedata.RaceName(enemy),
		"plan", key,
		"session", a.Session,
	)

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", Session: a.Session, Plan: key})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// HandleGameState runs one planning pass and replies with the commands.
func (a *Agent) HandleGameState(env ipc.Envelope) (*ipc.Envelope, error) {
	var gs model.GameState
	if err := env.Decode(&gs); err != nil {
		return nil, err
	}

	if a.exec == nil {
		slog.Warn("game state before hello", "loop", gs.GameLoop, "session", a.Session)
		return a.reply(ipc.NewCommandsMessage(gs.GameLoop, 0, nil))
	}

	cur := takeSnapshot(a.catalog, &gs)
	if a.prev != nil {
		for _, tag := range lostUnits(a.prev, &cur) {
			a.exec.Forget(tag)
		}
	}
	events := detectEvents(a.prev, &cur)
	a.prev = &cur

	ctx := context.Background()
	race := gamedata.RaceName(a.Race)
	for _, e := range events {
		slog.Info("game event", "kind", e.Kind, "loop", e.Loop, "detail", e.Detail)
		a.deps.Metrics.RecordEvent(string(e.Kind))
		if err := a.journal.RecordNote(ctx, e.Loop, journal.KindEvent, race, a.planKey(), string(e.Kind)+": "+e.Detail); err != nil {
			slog.Warn("journal write failed", "error", err)
		}
	}
	a.strategist.UpdateState(gs)
	a.strategist.Notify(events)

	if a.passed && gs.GameLoop-a.lastPass < a.deps.TickInterval {
		return a.reply(ipc.NewCommandsMessage(gs.GameLoop, 0, nil))
	}
	a.lastPass, a.passed = gs.GameLoop, true

	start := time.Now()
	cmds := a.exec.Run(plan.WorldContext{Snap: model.NewSnapshot(&gs)})
	elapsed := time.Since(start)

	satisfied, total := 0, 0
	if o := a.exec.Plan(); o != nil {
		satisfied, total = o.SatisfiedSteps(), len(o.Steps)
	}
	minerals, vespene := a.exec.Earmarks().Totals()
	a.deps.Metrics.RecordPass(metrics.PassStats{
		Race:             race,
		Plan:             a.planKey(),
		Seconds:          elapsed.Seconds(),
		Commands:         len(cmds),
		SatisfiedSteps:   satisfied,
		TotalSteps:       total,
		ReservedMinerals: minerals,
		ReservedVespene:  vespene,
		PendingUnits:     a.exec.Pending().Len(),
		RulesFired:       a.exec.LastRules(),
	})

	msg := ipc.NewCommandsMessage(gs.GameLoop, satisfied, cmds)
	if err := a.journal.RecordCommands(ctx, gs.GameLoop, race, a.planKey(), msg.Commands); err != nil {
		slog.Warn("journal write failed", "error", err)
	}

	slog.Debug("game state planned",
		"loop", gs.GameLoop,
		"minerals", gs.Player.Minerals,
		"vespene", gs.Player.Vespene,
		"food", fmt.Sprintf("%d/%d", gs.Player.FoodUsed, gs.Player.FoodCap),
		"commands", len(cmds),
		"steps", fmt.Sprintf("%d/%d", satisfied, total),
		"reserved", reservedCosts(a.exec.Earmarks()),
		"reserved_food", reservedFood(a.exec.Earmarks()),
		"elapsed", elapsed,
	)
	return a.reply(msg)
}

func reservedCosts(e *ledger.Earmarks) []string {
	var out []string
	for _, en := range e.Entries() {
		out = append(out, fmt.Sprintf("%s=%d/%d", en.Key, en.Minerals, en.Vespene))
	}
	return out
}

func reservedFood(e *ledger.Earmarks) []string {
	var out []string
	for _, f := range e.FoodEntries() {
		out = append(out, fmt.Sprintf("%s=%g", f.Key, f.Food))
	}
	return out
}

func (a *Agent) reply(msg ipc.CommandsMessage) (*ipc.Envelope, error) {
	env, err := ipc.NewEnvelope(ipc.TypeCommands, msg)
	if err != nil {
		return nil, err
	}
	return &env, nil
}

func (a *Agent) planKey() string {
	if a.exec == nil {
		return ""
	}
	if o := a.exec.Plan(); o != nil {
		return o.Key
	}
	return ""
}

func (a *Agent) planSwitched(loop uint32, from, to, reason string) {
	race := gamedata.RaceName(a.Race)
	a.deps.Metrics.RecordPlanSwitch(race, from, to)
	if err := a.journal.RecordNote(context.Background(), loop, journal.KindPlan, race, to, reason); err != nil {
		slog.Warn("journal write failed", "error", err)
	}
}
