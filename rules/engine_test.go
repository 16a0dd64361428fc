package rules

import (
	"slices"
	"testing"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/ability"
	"github.com/aiseeq/s2l/protocol/enums/neutral"
	"github.com/aiseeq/s2l/protocol/enums/terran"
	"github.com/expr-lang/expr"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/ledger"
	"github.com/LostLucidity/lucid-ai-sub002/model"
)

// recorder is a Commander that accepts everything.
type recorder struct {
	built      []api.UnitTypeID
	trained    []api.UnitTypeID
	mules      int
	muleEnergy float64
	toGas      int
	toMin      int
}

func (r *recorder) Build(t api.UnitTypeID) bool { r.built = append(r.built, t); return true }
func (r *recorder) Train(t api.UnitTypeID) bool { r.trained = append(r.trained, t); return true }
func (r *recorder) CallDownMULEs(e float64) bool {
	r.mules++
	r.muleEnergy = e
	return true
}
func (r *recorder) SendWorkerToGas() bool      { r.toGas++; return true }
func (r *recorder) SendWorkerToMinerals() bool { r.toMin++; return true }

func terranEnv(gs *model.GameState) RuleEnv {
	c := gamedata.Default()
	return RuleEnv{
		Snap:     model.NewSnapshot(gs),
		Catalog:  c,
		Earmarks: ledger.NewEarmarks(c),
		Pending:  ledger.NewPendingOrders(),
		Race:     api.Race_Terran,
	}
}

func TestDefaultRulesCompile(t *testing.T) {
	engine, err := NewEngine(DefaultRules())
	if err != nil {
		t.Fatalf("NewEngine(DefaultRules()) failed: %v", err)
	}
	if engine.Len() != 7 {
		t.Errorf("expected 7 rules, got %d", engine.Len())
	}
	// Verify priority ordering (descending).
	for i := 1; i < len(engine.rules); i++ {
		if engine.rules[i].Priority > engine.rules[i-1].Priority {
			t.Errorf("rules not sorted by priority: %s (%d) > %s (%d)",
				engine.rules[i].Name, engine.rules[i].Priority,
				engine.rules[i-1].Name, engine.rules[i-1].Priority)
		}
	}
}

func TestCompileDoctrineExtremes(t *testing.T) {
	for _, d := range []Doctrine{
		DefaultDoctrine(),
		{Name: "Greedy", EconomyPriority: 1, Aggression: 0},
		{Name: "AllIn", EconomyPriority: 0, Aggression: 1, GasRatio: 100},
	} {
		for _, r := range CompileDoctrine(d) {
			if _, err := expr.Compile(r.ConditionSrc, expr.Env(RuleEnv{}), expr.AsBool()); err != nil {
				t.Errorf("%s: rule %q failed to compile: %v\ncondition: %s", d.Name, r.Name, err, r.ConditionSrc)
			}
		}
	}
}

func TestSwapRejectsBadRule(t *testing.T) {
	engine, err := NewEngine(DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	bad := []*Rule{{Name: "broken", ConditionSrc: "NoSuchHelper()", Action: ActionTrainWorker}}
	if err := engine.Swap(bad); err == nil {
		t.Fatal("Swap accepted a rule that does not compile")
	}
	if engine.Len() != 7 {
		t.Errorf("old rules should remain after failed swap, got %d", engine.Len())
	}
}

func TestSupplyRuleFires(t *testing.T) {
	gs := &model.GameState{
		Player: model.Player{Minerals: 150, FoodUsed: 14, FoodCap: 15},
		Units: []model.Unit{
			{Tag: 1, Type: terran.CommandCenter, BuildProgress: 1, Orders: []model.Order{{AbilityID: ability.Train_SCV}}},
			{Tag: 2, Type: terran.SCV, BuildProgress: 1},
		},
	}
	engine, _ := NewEngine(DefaultRules())
	rec := &recorder{}
	fired := engine.Evaluate(terranEnv(gs), rec)
	if !slices.Contains(fired, "build-supply") {
		t.Fatalf("expected build-supply to fire, got %v", fired)
	}
	if len(rec.built) != 1 || rec.built[0] != terran.SupplyDepot {
		t.Errorf("built = %v, want one supply depot", rec.built)
	}
}

func TestSupplyRuleWaitsForDepotUnderway(t *testing.T) {
	gs := &model.GameState{
		Player: model.Player{Minerals: 150, FoodUsed: 14, FoodCap: 15},
		Units: []model.Unit{
			{Tag: 1, Type: terran.SupplyDepot, BuildProgress: 0.3},
		},
	}
	engine, _ := NewEngine(DefaultRules())
	rec := &recorder{}
	engine.Evaluate(terranEnv(gs), rec)
	if len(rec.built) != 0 {
		t.Errorf("built = %v, want nothing while a depot is underway", rec.built)
	}
}

func TestExclusiveCategoryBlocksLowerPriority(t *testing.T) {
	// Two idle CCs and plenty of money: train-worker fires once, and the
	// gas rule in the same category is skipped.
	gs := &model.GameState{
		Player: model.Player{Minerals: 1000, Vespene: 0, FoodUsed: 20, FoodCap: 60},
		Units: []model.Unit{
			{Tag: 1, Type: terran.CommandCenter, BuildProgress: 1, Pos: api.Point2D{X: 10, Y: 10}},
			{Tag: 2, Type: terran.Refinery, BuildProgress: 1},
			{Tag: 3, Type: terran.Refinery, BuildProgress: 1},
			{Tag: 4, Type: terran.Refinery, BuildProgress: 1},
		},
		Neutral: []model.Unit{{Tag: 50, Type: neutral.VespeneGeyser, Pos: api.Point2D{X: 15, Y: 10}}},
	}
	engine, _ := NewEngine(DefaultRules())
	rec := &recorder{}
	fired := engine.Evaluate(terranEnv(gs), rec)
	if !slices.Contains(fired, "build-gas-mine") {
		t.Fatalf("expected build-gas-mine to fire, got %v", fired)
	}
	if slices.Contains(fired, "train-worker") {
		t.Errorf("train-worker fired in the same exclusive category: %v", fired)
	}
}

func TestMuleRule(t *testing.T) {
	gs := &model.GameState{
		Player: model.Player{FoodUsed: 20, FoodCap: 60},
		Units: []model.Unit{
			{Tag: 1, Type: terran.OrbitalCommand, BuildProgress: 1, Energy: 55, Orders: []model.Order{{AbilityID: ability.Train_SCV}}},
		},
	}
	engine, _ := NewEngine(DefaultRules())
	rec := &recorder{}
	engine.Evaluate(terranEnv(gs), rec)
	if rec.mules != 1 || rec.muleEnergy != 50 {
		t.Errorf("mules = %d at energy %v, want 1 at 50", rec.mules, rec.muleEnergy)
	}
}

func TestMuleRuleKeepsDoctrineEnergy(t *testing.T) {
	gs := &model.GameState{
		Player: model.Player{FoodUsed: 20, FoodCap: 60},
		Units: []model.Unit{
			{Tag: 1, Type: terran.OrbitalCommand, BuildProgress: 1, Energy: 55, Orders: []model.Order{{AbilityID: ability.Train_SCV}}},
		},
	}
	d := DefaultDoctrine()
	d.MuleEnergy = 100
	engine, err := NewEngine(CompileDoctrine(d))
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	engine.Evaluate(terranEnv(gs), rec)
	if rec.mules != 0 {
		t.Errorf("mules = %d with 55 energy banked under a 100 floor", rec.mules)
	}

	gs.Units[0].Energy = 120
	engine.Evaluate(terranEnv(gs), rec)
	if rec.mules != 1 || rec.muleEnergy != 100 {
		t.Errorf("mules = %d at energy %v, want 1 at 100", rec.mules, rec.muleEnergy)
	}
}

func TestSpendSurplusRuleFires(t *testing.T) {
	gs := &model.GameState{
		Player: model.Player{Minerals: 900, FoodUsed: 30, FoodCap: 60},
		Units: []model.Unit{
			{Tag: 1, Type: terran.Barracks, BuildProgress: 1},
			{Tag: 2, Type: terran.SupplyDepot, BuildProgress: 0.5},
		},
	}
	engine, err := NewEngine(DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	fired := engine.Evaluate(terranEnv(gs), rec)
	if !slices.Contains(fired, "spend-surplus") {
		t.Fatalf("expected spend-surplus to fire, got %v", fired)
	}
	if !slices.Contains(rec.trained, terran.Marine) {
		t.Errorf("trained = %v, want a marine", rec.trained)
	}
}

// balanceState has a reaper's worth reserved, the minerals banked, no gas
// and an empty refinery next to twelve mineral SCVs.
func balanceState() *model.GameState {
	gs := &model.GameState{
		GameLoop: 2000,
		Player:   model.Player{Minerals: 50, FoodUsed: 14, FoodCap: 15},
		Units: []model.Unit{
			{Tag: 1, Type: terran.CommandCenter, BuildProgress: 1, AssignedHarvesters: 12, IdealHarvesters: 16},
			{Tag: 2, Type: terran.Refinery, BuildProgress: 1, IdealHarvesters: 3},
		},
		Neutral: []model.Unit{{Tag: 100, Type: neutral.MineralField}},
	}
	for i := range 12 {
		gs.Units = append(gs.Units, model.Unit{
			Tag: api.UnitTag(10 + i), Type: terran.SCV, BuildProgress: 1,
			Orders: []model.Order{{AbilityID: ability.Harvest_Gather_SCV, TargetTag: 100}},
		})
	}
	return gs
}

func TestBalanceRulesRunWhileEarmarked(t *testing.T) {
	env := terranEnv(balanceState())
	reaper, _ := env.Catalog.Unit(terran.Reaper)
	env.Earmarks.AddEarmark(gamedata.UnitOrder{Data: reaper}, 14, 3)

	engine, err := NewEngine(DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	fired := engine.Evaluate(env, rec)
	if !slices.Equal(fired, []string{"workers-to-gas"}) {
		t.Errorf("fired = %v, want only workers-to-gas", fired)
	}
	if rec.toGas != 1 || len(rec.built) != 0 {
		t.Errorf("toGas = %d, built = %v", rec.toGas, rec.built)
	}
}

func TestTargetMinerRatio(t *testing.T) {
	const def = 16.0 / 6.0
	tests := []struct {
		name               string
		minerals, vespene  int
		reserveM, reserveV bool
		want               float64
	}{
		{"nothing reserved", 50, 0, false, false, def},
		{"short of gas only", 50, 0, true, true, 0},
		{"short of both", 0, 0, true, true, 1},
		{"covered", 500, 500, true, true, def},
		{"short of minerals only", 0, 500, true, false, maxMinerRatio},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := balanceState()
			gs.Player.Minerals, gs.Player.Vespene = tt.minerals, tt.vespene
			env := terranEnv(gs)
			switch {
			case tt.reserveM && tt.reserveV:
				reaper, _ := env.Catalog.Unit(terran.Reaper)
				env.Earmarks.AddEarmark(gamedata.UnitOrder{Data: reaper}, 14, 0)
			case tt.reserveM:
				depot, _ := env.Catalog.Unit(terran.SupplyDepot)
				env.Earmarks.AddEarmark(gamedata.UnitOrder{Data: depot}, 14, 0)
			}
			if got := env.TargetMinerRatio(def); got != tt.want {
				t.Errorf("TargetMinerRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanAffordSubtractsReservations(t *testing.T) {
	gs := &model.GameState{Player: model.Player{Minerals: 150, FoodUsed: 14}}
	env := terranEnv(gs)
	if !env.CanAfford(terran.SupplyDepot) {
		t.Fatal("150 minerals should afford a depot")
	}
	d, _ := env.Catalog.Unit(terran.Barracks)
	env.Earmarks.AddEarmark(gamedata.UnitOrder{Data: d}, 14, 0)
	if env.CanAfford(terran.SupplyDepot) {
		t.Error("a reserved barracks should leave nothing for a depot")
	}
}

func TestMinerRatio(t *testing.T) {
	gs := &model.GameState{
		Units: []model.Unit{
			{Tag: 1, Type: terran.SCV, Orders: []model.Order{{AbilityID: ability.Harvest_Gather_SCV, TargetTag: 100}}},
			{Tag: 2, Type: terran.SCV, Orders: []model.Order{{AbilityID: ability.Harvest_Gather_SCV, TargetTag: 100}}},
			{Tag: 3, Type: terran.SCV, Orders: []model.Order{{AbilityID: ability.Harvest_Return_SCV, TargetTag: 100}}},
			{Tag: 4, Type: terran.SCV, Orders: []model.Order{{AbilityID: ability.Harvest_Gather_SCV, TargetTag: 200}}},
			{Tag: 5, Type: terran.MULE, Orders: []model.Order{{AbilityID: ability.Harvest_Gather_Mule, TargetTag: 100}}},
			{Tag: 200, Type: terran.Refinery, BuildProgress: 1},
		},
		Neutral: []model.Unit{{Tag: 100, Type: neutral.MineralField}},
	}
	env := terranEnv(gs)
	if got := env.MineralMiners(); got != 3 {
		t.Errorf("MineralMiners() = %d, want 3", got)
	}
	if got := env.VespeneMiners(); got != 1 {
		t.Errorf("VespeneMiners() = %d, want 1", got)
	}
	if got := env.MinerRatio(); got != 3 {
		t.Errorf("MinerRatio() = %f, want 3", got)
	}
}

func TestFreeGeysers(t *testing.T) {
	gs := &model.GameState{
		Units: []model.Unit{
			{Tag: 1, Type: terran.CommandCenter, BuildProgress: 1, Pos: api.Point2D{X: 10, Y: 10}},
			{Tag: 2, Type: terran.Refinery, BuildProgress: 1, Pos: api.Point2D{X: 17, Y: 10}},
		},
		Neutral: []model.Unit{
			{Tag: 50, Type: neutral.VespeneGeyser, Pos: api.Point2D{X: 17, Y: 10}},
			{Tag: 51, Type: neutral.VespeneGeyser, Pos: api.Point2D{X: 10, Y: 17}},
			{Tag: 52, Type: neutral.VespeneGeyser, Pos: api.Point2D{X: 90, Y: 90}},
		},
	}
	got := FreeGeysers(model.NewSnapshot(gs))
	if len(got) != 1 || got[0].Tag != 51 {
		t.Errorf("FreeGeysers() = %v, want only geyser 51", got)
	}
}
