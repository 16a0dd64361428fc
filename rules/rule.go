package rules

import (
	"github.com/aiseeq/s2l/protocol/api"
	"github.com/expr-lang/expr/vm"
)

// Commander carries out macro decisions. The plan executor implements it so
// rule actions go through the same ledgers as build-order steps.
type Commander interface {
	Build(unitType api.UnitTypeID) bool
	Train(unitType api.UnitTypeID) bool
	CallDownMULEs(minEnergy float64) bool
	SendWorkerToGas() bool
	SendWorkerToMinerals() bool
}

// ActionFunc issues commands when a rule's condition is true.
type ActionFunc func(env RuleEnv, cmd Commander) error

// Rule is a condition → action pair. The engine evaluates rules by priority
// and uses Category + Exclusive so only one rule acts per category per tick.
// While the build order holds earmarks only Balance rules run.
type Rule struct {
	Name         string
	Priority     int // higher = evaluated first
	Category     string
	Exclusive    bool
	Balance      bool
	ConditionSrc string
	program      *vm.Program
	Action       ActionFunc
}
