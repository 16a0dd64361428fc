package agent

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aiseeq/s2l/protocol/api"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/model"
	"github.com/LostLucidity/lucid-ai-sub002/plan"
)

// SwitchFunc is told about every build order the strategist installs.
type SwitchFunc func(loop uint32, from, to, reason string)

// Strategist runs in the background and re-selects the build order from the
// library when game events or the interval call for it.
type Strategist struct {
	mu        sync.Mutex
	latest    *model.GameState
	library   *plan.Library
	exec      *plan.Executor
	race      api.Race
	enemyRace api.Race
	preferred string  // fallback order key from config or hello
	interval  uint32  // re-select every N game loops
	lastLoop  uint32  // game loop of last selection
	events    []Event // since last selection
	onSwitch  SwitchFunc
	ready     chan struct{}
}

// NewStrategist creates a strategist that re-selects every interval game loops.
func NewStrategist(preferred string, interval uint32) *Strategist {
	if interval == 0 {
		interval = 1344
	}
	return &Strategist{
		preferred: preferred,
		interval:  interval,
		ready:     make(chan struct{}, 1),
	}
}

// Configure binds the strategist to a session's library and executor.
// Called from HandleHello once the race is known.
func (s *Strategist) Configure(lib *plan.Library, exec *plan.Executor, race, enemy api.Race, preferred string) {
	s.mu.Lock()
	s.library = lib
	s.exec = exec
	s.race = race
	s.enemyRace = enemy
	if preferred != "" {
		s.preferred = preferred
	}
	s.mu.Unlock()
}

// OnSwitch registers fn to be called after each plan change.
func (s *Strategist) OnSwitch(fn SwitchFunc) {
	s.mu.Lock()
	s.onSwitch = fn
	s.mu.Unlock()
}

// UpdateState stores the latest game state. Signals on the first call and on
// interval boundaries.
func (s *Strategist) UpdateState(gs model.GameState) {
	s.mu.Lock()
	first := s.latest == nil
	s.latest = &gs
	shouldSignal := first || gs.GameLoop-s.lastLoop >= s.interval
	s.mu.Unlock()

	if shouldSignal {
		s.signal()
	}
}

// Notify records events and asks for a re-selection.
func (s *Strategist) Notify(events []Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	s.events = append(s.events, events...)
	s.mu.Unlock()
	s.signal()
}

func (s *Strategist) signal() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Start launches the background loop. It blocks until ctx is cancelled.
func (s *Strategist) Start(ctx context.Context) {
	slog.Info("strategist started", "preferred", s.preferred, "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("strategist stopped")
			return
		case <-s.ready:
			s.Evaluate()
		}
	}
}

// Evaluate selects a build order now and installs it if it differs from the
// executor's. It returns the key in use afterwards, or "" when none could be
// selected.
func (s *Strategist) Evaluate() string {
	s.mu.Lock()
	lib, exec := s.library, s.exec
	race, enemy, preferred := s.race, s.enemyRace, s.preferred
	gs := s.latest
	events := s.events
	s.events = nil
	onSwitch := s.onSwitch
	s.mu.Unlock()

	if lib == nil || exec == nil {
		return ""
	}

	current := ""
	if o := exec.Plan(); o != nil {
		current = o.Key
	}

	env := plan.SelectorEnv{
		Race:      gamedata.RaceName(race),
		EnemyRace: gamedata.RaceName(enemy),
		Current:   current,
	}
	var loop uint32
	if gs != nil {
		loop = gs.GameLoop
		env.Outpowered = gs.Outpowered
		env.GameSeconds = float64(gs.GameLoop) / loopsPerSecond
		env.FoodUsed = gs.Player.FoodUsed
		env.Minerals = gs.Player.Minerals
		env.Vespene = gs.Player.Vespene
	}

	o, err := lib.Select(race, env, preferred)
	if err != nil {
		slog.Error("strategist selection failed", "race", env.Race, "error", err)
		return current
	}

	s.mu.Lock()
	s.lastLoop = loop
	s.mu.Unlock()

	if o.Key == current {
		slog.Debug("strategist kept build order", "key", current, "loop", loop)
		return current
	}

	reason := "initial"
	if current != "" {
		reason = "interval"
	}
	if len(events) > 0 {
		reason = formatEvents(events)
	}
	exec.SetPlan(o)
	slog.Info("build order switched", "from", current, "to", o.Key, "loop", loop, "reason", reason)
	if onSwitch != nil {
		onSwitch(loop, current, o.Key, reason)
	}
	return o.Key
}
