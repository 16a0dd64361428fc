package rules

import (
	"log/slog"

	"github.com/aiseeq/s2l/protocol/enums/unit"
)

func ActionBuildSupply(env RuleEnv, cmd Commander) error {
	t := env.Supply()
	if !cmd.Build(t) {
		slog.Debug("supply not started", "type", unit.String(t))
		return nil
	}
	slog.Debug("building supply", "type", unit.String(t), "foodUsed", env.FoodUsed(), "foodCap", env.FoodCap())
	return nil
}

func ActionBuildGasMine(env RuleEnv, cmd Commander) error {
	t := env.GasMine()
	if cmd.Build(t) {
		slog.Debug("building gas mine", "type", unit.String(t), "ratio", env.ResourceRatio())
	}
	return nil
}

func ActionTrainWorker(env RuleEnv, cmd Commander) error {
	if cmd.Train(env.Worker()) {
		slog.Debug("training worker", "workers", env.WorkerCount())
	}
	return nil
}

// ActionCallDownMULEs returns a closure so the doctrine's energy floor
// reaches the commander.
func ActionCallDownMULEs(minEnergy float64) ActionFunc {
	return func(env RuleEnv, cmd Commander) error {
		if cmd.CallDownMULEs(minEnergy) {
			slog.Debug("MULEs called down", "minEnergy", minEnergy)
		}
		return nil
	}
}

func ActionWorkersToGas(env RuleEnv, cmd Commander) error {
	if cmd.SendWorkerToGas() {
		slog.Debug("worker to gas", "ratio", env.MinerRatio())
	}
	return nil
}

func ActionWorkersToMinerals(env RuleEnv, cmd Commander) error {
	if cmd.SendWorkerToMinerals() {
		slog.Debug("worker to minerals", "ratio", env.MinerRatio())
	}
	return nil
}

func ActionSpendSurplus(env RuleEnv, cmd Commander) error {
	t := env.ArmyUnit()
	if cmd.Train(t) {
		slog.Debug("spending surplus", "type", unit.String(t), "minerals", env.Minerals())
	}
	return nil
}
