package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/time/rate"
)

// Engine runs compiled macro rules against the snapshot each tick.
// Rules fire in priority order; exclusive rules block lower-priority rules
// in the same category, so two rules never spend on the same concern.
type Engine struct {
	mu    sync.RWMutex
	rules []*Rule

	idleLog rate.Sometimes
}

// NewEngine compiles all rule conditions into expr bytecode and sorts by priority.
func NewEngine(rules []*Rule) (*Engine, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{
		rules:   compiled,
		idleLog: rate.Sometimes{Interval: 30 * time.Second},
	}, nil
}

// Evaluate runs the rules against env and returns the names of those that
// fired. While env shows earmarks only Balance rules are considered.
func (e *Engine) Evaluate(env RuleEnv, cmd Commander) []string {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	earmarked := env.Earmarked()
	fired := make(map[string]bool) // category → exclusive rule already fired
	var names []string
	for _, r := range rules {
		if fired[r.Category] || (earmarked && !r.Balance) {
			continue
		}

		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("rule condition error", "rule", r.Name, "error", err)
			continue
		}

		match, ok := result.(bool)
		if !ok || !match {
			continue
		}

		names = append(names, r.Name)
		slog.Debug("rule fired", "rule", r.Name, "priority", r.Priority, "category", r.Category)

		if err := r.Action(env, cmd); err != nil {
			slog.Error("rule action error", "rule", r.Name, "error", err)
		}

		if r.Exclusive {
			fired[r.Category] = true
		}
	}

	if len(names) == 0 && !earmarked {
		e.idleLog.Do(func() { logIdleDiagnostics(env) })
	}
	return names
}

// Swap atomically replaces the rule set, as when a new build order brings
// its own doctrine. Compiles first; if compilation fails the old rules
// remain active.
func (e *Engine) Swap(newRules []*Rule) error {
	compiled, err := compileRules(newRules)
	if err != nil {
		return err
	}
	names := make([]string, len(compiled))
	for i, r := range compiled {
		names[i] = r.Name
	}
	e.mu.Lock()
	e.rules = compiled
	e.mu.Unlock()
	slog.Info("rule set swapped", "count", len(compiled), "rules", names)
	return nil
}

func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// logIdleDiagnostics helps debug "why isn't the bot spending?" when no
// rule fires.
func logIdleDiagnostics(env RuleEnv) {
	m, v := 0, 0
	if env.Earmarks != nil {
		m, v = env.Earmarks.Totals()
	}
	slog.Info("macro idle diagnostics",
		"loop", env.Snap.GameLoop,
		"minerals", env.Minerals(),
		"vespene", env.Vespene(),
		"reservedMinerals", m,
		"reservedVespene", v,
		"foodUsed", env.FoodUsed(),
		"foodCap", env.FoodCap(),
		"workers", env.WorkerCount(),
	)
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}
