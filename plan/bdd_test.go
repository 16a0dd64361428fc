package plan

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/protoss"
	"github.com/cucumber/godog"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/model"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

type planContext struct {
	catalog *gamedata.Catalog
	gs      *model.GameState
	order   *BuildOrder
	exec    *Executor
	cmds    []*api.ActionRawUnitCommand

	library  *Library
	selected *BuildOrder
	err      error
}

func (c *planContext) reset() {
	*c = planContext{catalog: gamedata.Default()}
}

func (c *planContext) aProtossBase(n, minerals int) error {
	c.gs = &model.GameState{
		Player: model.Player{Minerals: minerals, FoodUsed: 12, FoodCap: 15},
		Units:  []model.Unit{{Tag: 1, Type: protoss.Nexus, Pos: api.Point2D{X: 50, Y: 50}, BuildProgress: 1}},
	}
	c.gs.Units = append(c.gs.Units, probes(n)...)
	c.order = &BuildOrder{Key: "feature", Title: "feature", Race: api.Race_Protoss}
	return nil
}

func (c *planContext) supplyIs(used, capacity int) error {
	c.gs.Player.FoodUsed, c.gs.Player.FoodCap = used, capacity
	return nil
}

func (c *planContext) aStep(supply, count int, name string) error {
	id, ok := c.catalog.LookupUnit(name)
	if !ok {
		return fmt.Errorf("unknown unit %q", name)
	}
	c.order.Steps = append(c.order.Steps, Step{Supply: supply, Action: name, Actions: []Action{{UnitType: id, Count: count}}})
	return nil
}

func (c *planContext) theExecutorRuns() error {
	if c.exec == nil {
		c.exec = NewExecutor(c.catalog, nil)
		c.exec.SetRace(c.order.Race)
		c.exec.SetPlan(c.order)
	}
	c.cmds = c.exec.Run(WorldContext{Snap: model.NewSnapshot(c.gs)})
	return nil
}

func (c *planContext) commandsSentToTrain(n int, name string) error {
	id, _ := c.catalog.LookupUnit(name)
	d, ok := c.catalog.Unit(id)
	if !ok {
		return fmt.Errorf("unknown unit %q", name)
	}
	got := 0
	for _, cmd := range c.cmds {
		if cmd.AbilityId == d.AbilityId {
			got++
		}
	}
	if got != n || len(c.cmds) != n {
		return fmt.Errorf("want %d %s commands, got %d of %d", n, name, got, len(c.cmds))
	}
	return nil
}

func (c *planContext) noCommandIsSent() error {
	if len(c.cmds) != 0 {
		return fmt.Errorf("want no commands, got %d", len(c.cmds))
	}
	return nil
}

func (c *planContext) stepSatisfied(n int, want bool) error {
	steps := c.exec.Plan().Steps
	if n < 1 || n > len(steps) {
		return fmt.Errorf("no step %d", n)
	}
	if got := steps[n-1].Satisfied(); got != want {
		return fmt.Errorf("step %d satisfied = %v, want %v", n, got, want)
	}
	return nil
}

func (c *planContext) mineralsReserved(want int) error {
	m, _ := c.exec.Earmarks().Totals()
	if m != want {
		return fmt.Errorf("reserved %d minerals, want %d", m, want)
	}
	return nil
}

func (c *planContext) theBuiltInOrders() error {
	lib, err := DefaultLibrary(c.catalog)
	c.library = lib
	return err
}

func (c *planContext) selectOrder(race string, outpowered bool, seconds int) error {
	r, _ := gamedata.ParseRace(race)
	c.selected, c.err = c.library.Select(r, SelectorEnv{Race: race, Outpowered: outpowered, GameSeconds: float64(seconds)}, "")
	return nil
}

func (c *planContext) theSelectedOrderIs(key string) error {
	if c.err != nil {
		return c.err
	}
	if c.selected.Key != key {
		return fmt.Errorf("selected %q, want %q", c.selected.Key, key)
	}
	return nil
}

func (c *planContext) selectionFailsUndefinedRace() error {
	if !errors.Is(c.err, ErrUndefinedRace) {
		return fmt.Errorf("want ErrUndefinedRace, got %v", c.err)
	}
	return nil
}

func InitializeScenario(sc *godog.ScenarioContext) {
	pc := &planContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		pc.reset()
		return ctx, nil
	})

	sc.Step(`^a protoss base with (\d+) probes and (\d+) minerals$`, pc.aProtossBase)
	sc.Step(`^supply is (\d+) of (\d+)$`, pc.supplyIs)
	sc.Step(`^a build order step at supply (\d+) to make (\d+) "([^"]*)"$`, pc.aStep)
	sc.Step(`^the executor runs$`, pc.theExecutorRuns)
	sc.Step(`^(\d+) commands? (?:is|are) sent to train "([^"]*)"$`, pc.commandsSentToTrain)
	sc.Step(`^no command is sent$`, pc.noCommandIsSent)
	sc.Step(`^step (\d+) is satisfied$`, func(n int) error { return pc.stepSatisfied(n, true) })
	sc.Step(`^step (\d+) is not satisfied$`, func(n int) error { return pc.stepSatisfied(n, false) })
	sc.Step(`^(\d+) minerals are reserved$`, pc.mineralsReserved)

	sc.Step(`^the built-in build orders$`, pc.theBuiltInOrders)
	sc.Step(`^a "([^"]*)" order is selected outpowered at (\d+) seconds$`, func(race string, secs int) error {
		return pc.selectOrder(race, true, secs)
	})
	sc.Step(`^a "([^"]*)" order is selected at (\d+) seconds$`, func(race string, secs int) error {
		return pc.selectOrder(race, false, secs)
	})
	sc.Step(`^the selected order is "([^"]*)"$`, pc.theSelectedOrderIs)
	sc.Step(`^selection fails with an undefined race$`, pc.selectionFailsUndefinedRace)
}
