package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// CompileDoctrine generates the macro rule set from a doctrine's weights.
// All conditions are built via fmt.Sprintf with interpolated values, so the
// compiler never generates invalid expr.
func CompileDoctrine(d Doctrine) []*Rule {
	d.Validate()
	var rules []*Rule

	// Supply: keep a buffer that grows with the army.
	rules = append(rules, &Rule{
		Name:         "build-supply",
		Priority:     900,
		Category:     "supply",
		Exclusive:    true,
		ConditionSrc: fmt.Sprintf(`SupplyLeft() < %d + FoodUsed() / 20 && FoodCap() < 200 && !SupplyUnderway() && CanAfford(Supply())`, d.SupplyBuffer),
		Action:       ActionBuildSupply,
	})

	rules = append(rules, &Rule{
		Name:         "call-down-mules",
		Priority:     850,
		Category:     "mule",
		Exclusive:    true,
		ConditionSrc: fmt.Sprintf(`RaceName() == "terran" && OrbitalsReady(%s) > 0`, floatLit(d.MuleEnergy)),
		Action:       ActionCallDownMULEs(d.MuleEnergy),
	})

	// Gas: take another mine when minerals pile up against vespene. Before the
	// plan's last gas step, wait; without one, only after the third mine.
	gasSrc := fmt.Sprintf(`ResourceRatio() > %g && CanAfford(GasMine()) && InProgress(GasMine()) < 1 && (PlanGasSupply > 0 ? FoodUsed() > PlanGasSupply : GasMineCount() > 2) && FreeGeysers() > 0`, d.GasRatio)
	rules = append(rules, &Rule{
		Name:         "build-gas-mine",
		Priority:     800,
		Category:     "economy",
		Exclusive:    true,
		ConditionSrc: gasSrc,
		Action:       ActionBuildGasMine,
	})

	workerCap := d.WorkerCap()
	rules = append(rules, &Rule{
		Name:         "train-worker",
		Priority:     700,
		Category:     "economy",
		Exclusive:    true,
		ConditionSrc: fmt.Sprintf(`WorkerCount() < %d && CanTrainWorker() && CanAfford(Worker()) && SupplyLeft() >= 1`, workerCap),
		Action:       ActionTrainWorker,
	})

	// Worker balance between minerals and gas, one transfer per tick. These
	// also run while the plan holds earmarks, steering by its shortfall.
	target := fmt.Sprintf("TargetMinerRatio(%s)", floatLit(d.WorkerGasRatio))
	rules = append(rules, &Rule{
		Name:         "workers-to-gas",
		Priority:     600,
		Category:     "workers",
		Exclusive:    true,
		Balance:      true,
		ConditionSrc: fmt.Sprintf(`MinerRatio() > %s && NeedyGasMines() > 0 && MineralMiners() > 0`, target),
		Action:       ActionWorkersToGas,
	})
	rules = append(rules, &Rule{
		Name:         "workers-to-minerals",
		Priority:     590,
		Category:     "workers",
		Exclusive:    true,
		Balance:      true,
		ConditionSrc: fmt.Sprintf(`MinerRatio() < %s && NeedyBases() > 0 && VespeneMiners() > 0 && (Earmarked() || Vespene() > Minerals())`, target),
		Action:       ActionWorkersToMinerals,
	})

	surplus := d.SurplusMinerals()
	rules = append(rules, &Rule{
		Name:         "spend-surplus",
		Priority:     lerp(300, 500, d.Aggression),
		Category:     "army",
		Exclusive:    true,
		ConditionSrc: fmt.Sprintf(`Minerals() > %d && SupplyLeft() >= 2 && HasArmyUnit() && CanAfford(ArmyUnit())`, surplus),
		Action:       ActionSpendSurplus,
	})

	return rules
}

// floatLit formats v so expr reads it as a float, never an int.
func floatLit(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// DefaultRules compiles the default doctrine.
func DefaultRules() []*Rule {
	return CompileDoctrine(DefaultDoctrine())
}
