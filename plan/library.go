package plan

import (
	"embed"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
)

//go:embed builds/*.yaml builds/*.json
var builtin embed.FS

// SelectorEnv is what a build order's selector expression can see.
type SelectorEnv struct {
	Race        string
	EnemyRace   string
	Outpowered  bool
	GameSeconds float64
	FoodUsed    int
	Minerals    int
	Vespene     int
	Current     string
}

// Library indexes build orders by race and key.
type Library struct {
	mu        sync.RWMutex
	byKey     map[string]*BuildOrder
	selectors map[string]*vm.Program
}

func NewLibrary() *Library {
	return &Library{byKey: make(map[string]*BuildOrder), selectors: make(map[string]*vm.Program)}
}

// DefaultLibrary parses the orders embedded in the binary.
func DefaultLibrary(c *gamedata.Catalog) (*Library, error) {
	l := NewLibrary()
	entries, err := builtin.ReadDir("builds")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		raw, err := builtin.ReadFile(path.Join("builds", e.Name()))
		if err != nil {
			return nil, err
		}
		key := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		o, err := Parse(c, raw, key)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", e.Name(), err)
		}
		if err := l.Add(o); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add registers o, replacing any order with the same key.
func (l *Library) Add(o *BuildOrder) error {
	var prog *vm.Program
	if o.Selector != "" {
		p, err := expr.Compile(o.Selector, expr.Env(SelectorEnv{}), expr.AsBool())
		if err != nil {
			return fmt.Errorf("compile selector for %q: %w", o.Key, err)
		}
		prog = p
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byKey[o.Key] = o
	if prog != nil {
		l.selectors[o.Key] = prog
	} else {
		delete(l.selectors, o.Key)
	}
	return nil
}

func (l *Library) Get(key string) (*BuildOrder, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	o, ok := l.byKey[key]
	return o, ok
}

// ForRace lists the race's orders, highest priority first, then by key.
func (l *Library) ForRace(race api.Race) []*BuildOrder {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*BuildOrder
	for _, o := range l.byKey {
		if o.Race == race {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b *BuildOrder) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

func (l *Library) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.byKey))
	for k := range l.byKey {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Select picks the first order for race whose selector holds. Orders without
// a selector are fallbacks for when none match; preferred names the fallback
// to use, otherwise the first one wins.
func (l *Library) Select(race api.Race, env SelectorEnv, preferred string) (*BuildOrder, error) {
	if !gamedata.KnownRace(race) {
		return nil, ErrUndefinedRace
	}
	orders := l.ForRace(race)
	var fallback *BuildOrder
	for _, o := range orders {
		l.mu.RLock()
		prog := l.selectors[o.Key]
		l.mu.RUnlock()
		if prog == nil {
			if fallback == nil || o.Key == preferred {
				fallback = o
			}
			continue
		}
		out, err := expr.Run(prog, env)
		if err != nil {
			slog.Warn("build order selector failed", "key", o.Key, "error", err)
			continue
		}
		if ok, _ := out.(bool); ok {
			return o, nil
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("%s: %w", gamedata.RaceName(race), ErrNoPlan)
	}
	return fallback, nil
}
