// Package plan loads build orders and executes them one pass per tick.
package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aiseeq/s2l/protocol/api"
	"gopkg.in/yaml.v3"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/rules"
)

// Special actions carried by a step instead of a unit or upgrade.
const (
	SpecialScoutSCV      = "Scouting with SCV"
	SpecialCallDownMULEs = "Call Down MULEs"
)

// Action is one interpreted item of a step, e.g. "Marine x2 (Chrono Boost)".
type Action struct {
	IsUpgrade   bool
	UnitType    api.UnitTypeID
	Upgrade     api.UpgradeID
	Count       int
	ChronoBoost bool
	Special     string
}

func (a Action) Defined() bool {
	if a.Special != "" {
		return true
	}
	if a.IsUpgrade {
		return a.Upgrade != 0
	}
	return a.UnitType != 0
}

func (a Action) String() string {
	var b strings.Builder
	switch {
	case a.Special != "":
		b.WriteString(a.Special)
	case a.IsUpgrade:
		b.WriteString(gamedata.UpgradeName(a.Upgrade))
	default:
		b.WriteString(gamedata.UnitName(a.UnitType))
	}
	if a.Count > 1 {
		fmt.Fprintf(&b, " x%d", a.Count)
	}
	if a.ChronoBoost {
		b.WriteString(" (Chrono Boost)")
	}
	return b.String()
}

// Step is one line of a build order.
type Step struct {
	Supply  int
	Time    string
	Action  string
	Comment string
	Actions []Action

	satisfied []bool
}

// Satisfied reports whether every action of the step was met on the last pass.
func (s *Step) Satisfied() bool {
	if len(s.satisfied) != len(s.Actions) {
		return false
	}
	for _, ok := range s.satisfied {
		if !ok {
			return false
		}
	}
	return true
}

func (s *Step) resetFlags() {
	if len(s.satisfied) != len(s.Actions) {
		s.satisfied = make([]bool, len(s.Actions))
	}
	clear(s.satisfied)
}

// Seconds parses the step's "m:ss" time. A missing time is zero.
func (s *Step) Seconds() (float64, error) {
	if s.Time == "" {
		return 0, nil
	}
	return parseClock(s.Time)
}

func parseClock(t string) (float64, error) {
	m, sec, ok := strings.Cut(strings.TrimSpace(t), ":")
	if !ok {
		return 0, fmt.Errorf("time %q: want m:ss", t)
	}
	mins, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("time %q: %w", t, err)
	}
	secs, err := strconv.Atoi(sec)
	if err != nil {
		return 0, fmt.Errorf("time %q: %w", t, err)
	}
	return float64(mins*60 + secs), nil
}

// BuildOrder is an ordered plan for one race. Selector is an optional expr
// condition over SelectorEnv deciding when the strategist should pick it.
type BuildOrder struct {
	Key      string
	Title    string
	Race     api.Race
	Selector string
	Priority int
	Steps    []Step

	// doctrine holds the order's macro overrides as written, or nil.
	doctrine *yaml.Node
}

// Doctrine lays the order's doctrine overrides over base. custom is false
// when the order carries none.
func (o *BuildOrder) Doctrine(base rules.Doctrine) (d rules.Doctrine, custom bool, err error) {
	if o.doctrine == nil {
		return base, false, nil
	}
	d = base
	if err := o.doctrine.Decode(&d); err != nil {
		return base, false, fmt.Errorf("doctrine of %q: %w", o.Key, err)
	}
	return d, true, nil
}

// Clone copies the order so per-pass flags never leak between sessions.
func (o *BuildOrder) Clone() *BuildOrder {
	c := *o
	c.Steps = make([]Step, len(o.Steps))
	for i, s := range o.Steps {
		s.Actions = append([]Action(nil), s.Actions...)
		s.satisfied = nil
		c.Steps[i] = s
	}
	return &c
}

// MaxSupplyFor returns the highest step supply at which the plan adds a unit
// matching keep, or 0.
func (o *BuildOrder) MaxSupplyFor(keep func(api.UnitTypeID) bool) int {
	var best int
	for _, s := range o.Steps {
		for _, a := range s.Actions {
			if !a.IsUpgrade && a.UnitType != 0 && keep(a.UnitType) {
				best = max(best, s.Supply)
			}
		}
	}
	return best
}

// SatisfiedSteps counts the steps met on the last pass.
func (o *BuildOrder) SatisfiedSteps() int {
	n := 0
	for i := range o.Steps {
		if o.Steps[i].Satisfied() {
			n++
		}
	}
	return n
}
