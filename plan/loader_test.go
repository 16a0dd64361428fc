package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/protoss"
	"github.com/aiseeq/s2l/protocol/enums/terran"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/rules"
)

const yamlOrder = `
title: Two Rax Reaper
steps:
  - {supply: 14, action: Supply Depot}
  - {supply: "16", time: "0:40", action: "Barracks x2"}
  - supply: 17
    action: Marine
    comment: null
`

func TestParseYAML(t *testing.T) {
	o, err := Parse(gamedata.Default(), []byte(yamlOrder), "")
	require.NoError(t, err)

	assert.Equal(t, "two-rax-reaper", o.Key)
	assert.Equal(t, api.Race_Terran, o.Race, "race inferred from the first unit")
	require.Len(t, o.Steps, 3)
	assert.Equal(t, 14, o.Steps[0].Supply)
	assert.Equal(t, 16, o.Steps[1].Supply)
	assert.Equal(t, []Action{{UnitType: terran.Barracks, Count: 2}}, o.Steps[1].Actions)
	secs, err := o.Steps[1].Seconds()
	require.NoError(t, err)
	assert.InDelta(t, 40, secs, 1e-9)
}

func TestParseJSONInterpretedAction(t *testing.T) {
	raw := `{"title": "Gate", "race": "Protoss", "key": "gate", "steps": [
		{"supply": "14", "action": "ignored", "interpretedAction": {"unitType": 60, "count": 1}},
		{"supply": 15, "action": "Probe", "interpretedAction": [
			{"unitType": 84, "count": 2, "isChronoBoosted": true},
			{"upgradeType": 84, "isUpgrade": true}
		]}
	]}`
	o, err := Parse(gamedata.Default(), []byte(raw), "other")
	require.NoError(t, err)

	assert.Equal(t, "gate", o.Key, "the file's own key wins")
	assert.Equal(t, api.Race_Protoss, o.Race)
	assert.Equal(t, []Action{{UnitType: protoss.Pylon, Count: 1}}, o.Steps[0].Actions)
	require.Len(t, o.Steps[1].Actions, 2)
	assert.Equal(t, Action{UnitType: protoss.Probe, Count: 2, ChronoBoost: true}, o.Steps[1].Actions[0])
	assert.True(t, o.Steps[1].Actions[1].IsUpgrade)
	assert.Equal(t, 1, o.Steps[1].Actions[1].Count)
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]string{
		"no steps":        `{"title": "x", "steps": []}`,
		"no title":        `{"steps": [{"supply": 12, "action": "SCV"}]}`,
		"bad time":        `{"title": "x", "steps": [{"supply": 12, "time": "0:75", "action": "SCV"}]}`,
		"bad supply":      `{"title": "x", "steps": [{"supply": "twelve", "action": "SCV"}]}`,
		"zero count":      `{"title": "x", "steps": [{"supply": 12, "action": "SCV", "interpretedAction": {"count": 0}}]}`,
		"unknown race":    `{"title": "x", "race": "random", "steps": [{"supply": 12, "action": "SCV"}]}`,
		"doctrine key":    `{"title": "x", "doctrine": {"greed": 1}, "steps": [{"supply": 12, "action": "SCV"}]}`,
		"doctrine weight": `{"title": "x", "doctrine": {"aggression": 2}, "steps": [{"supply": 12, "action": "SCV"}]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Validate([]byte(raw)))
		})
	}
}

func TestParseDoctrineOverlaysBase(t *testing.T) {
	lib, err := DefaultLibrary(gamedata.Default())
	require.NoError(t, err)
	base := rules.DefaultDoctrine()

	bunker, ok := lib.Get("terran-bunker")
	require.True(t, ok)
	d, custom, err := bunker.Doctrine(base)
	require.NoError(t, err)
	assert.True(t, custom)
	assert.Equal(t, "Turtle", d.Name)
	assert.Equal(t, 100.0, d.MuleEnergy)
	assert.Equal(t, 8, d.SupplyBuffer)
	assert.Equal(t, 0.2, d.Aggression)
	assert.Equal(t, base.EconomyPriority, d.EconomyPriority, "unset fields keep the base")

	o, err := Parse(gamedata.Default(), []byte(yamlOrder), "")
	require.NoError(t, err)
	d, custom, err = o.Doctrine(base)
	require.NoError(t, err)
	assert.False(t, custom)
	assert.Equal(t, base, d)

	_, err = Parse(gamedata.Default(), []byte("title: x\ndoctrine: {supply_buffer: 1.5}\nsteps: [{supply: 12, action: SCV}]\n"), "")
	assert.Error(t, err)
}

func TestParseUndefinedRace(t *testing.T) {
	_, err := Parse(gamedata.Default(), []byte(`{"title": "x", "steps": [{"supply": 12, "action": "Nothing Here"}]}`), "")
	assert.ErrorIs(t, err, ErrUndefinedRace)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reaper.yaml"), []byte(yamlOrder), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an order"), 0o644))

	orders, err := LoadDir(gamedata.Default(), dir)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "reaper", orders[0].Key, "file name is the default key")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"title": 1}`), 0o644))
	_, err = LoadDir(gamedata.Default(), dir)
	assert.ErrorContains(t, err, "broken.json")
}

func TestDefaultLibrary(t *testing.T) {
	lib, err := DefaultLibrary(gamedata.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"protoss-blink", "terran-beginner", "terran-bunker", "zerg-roach"}, lib.Keys())

	for _, k := range lib.Keys() {
		o, _ := lib.Get(k)
		for i, s := range o.Steps {
			for _, a := range s.Actions {
				assert.True(t, a.Defined(), "%s step %d %q", k, i, s.Action)
			}
		}
	}

	terranOrders := lib.ForRace(api.Race_Terran)
	require.Len(t, terranOrders, 2)
	assert.Equal(t, "terran-bunker", terranOrders[0].Key, "higher priority first")
}

func TestLibrarySelect(t *testing.T) {
	lib, err := DefaultLibrary(gamedata.Default())
	require.NoError(t, err)

	o, err := lib.Select(api.Race_Terran, SelectorEnv{Outpowered: true, GameSeconds: 60}, "")
	require.NoError(t, err)
	assert.Equal(t, "terran-bunker", o.Key)

	o, err = lib.Select(api.Race_Terran, SelectorEnv{GameSeconds: 60}, "")
	require.NoError(t, err)
	assert.Equal(t, "terran-beginner", o.Key)

	_, err = lib.Select(api.Race_NoRace, SelectorEnv{}, "")
	assert.ErrorIs(t, err, ErrUndefinedRace)

	_, err = NewLibrary().Select(api.Race_Zerg, SelectorEnv{}, "")
	assert.ErrorIs(t, err, ErrNoPlan)
}

func TestLibraryAddRejectsBadSelector(t *testing.T) {
	err := NewLibrary().Add(&BuildOrder{Key: "x", Race: api.Race_Zerg, Selector: "Minerals >"})
	assert.Error(t, err)
}

func TestCloneResetsFlags(t *testing.T) {
	lib, err := DefaultLibrary(gamedata.Default())
	require.NoError(t, err)
	o, _ := lib.Get("protoss-blink")

	c := o.Clone()
	c.Steps[0].Actions[0].Count = 9
	assert.Equal(t, 1, o.Steps[0].Actions[0].Count)
	assert.Equal(t, 0, c.SatisfiedSteps())
	assert.Equal(t, 21, o.MaxSupplyFor(gamedata.IsGasMine), "last Assimilator step")
}
