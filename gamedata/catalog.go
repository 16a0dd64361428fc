package gamedata

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/unit"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type unitDef struct {
	ID              uint32   `yaml:"id"`
	Name            string   `yaml:"name"`
	Race            string   `yaml:"race"`
	Minerals        uint32   `yaml:"minerals"`
	Vespene         uint32   `yaml:"vespene"`
	Food            float32  `yaml:"food"`
	FoodProvided    float32  `yaml:"food_provided"`
	BuildTime       float32  `yaml:"build_time"`
	Ability         uint32   `yaml:"ability"`
	TechRequirement uint32   `yaml:"tech_requirement"`
	Structure       bool     `yaml:"structure"`
	MovementSpeed   float32  `yaml:"movement_speed"`
	Producers       []uint32 `yaml:"producers"`
}

type upgradeDef struct {
	ID           uint32   `yaml:"id"`
	Name         string   `yaml:"name"`
	Minerals     uint32   `yaml:"minerals"`
	Vespene      uint32   `yaml:"vespene"`
	ResearchTime float32  `yaml:"research_time"`
	Ability      uint32   `yaml:"ability"`
	Researchers  []uint32 `yaml:"researchers"`
}

type catalogFile struct {
	Units    []unitDef    `yaml:"units"`
	Upgrades []upgradeDef `yaml:"upgrades"`
}

// Catalog answers every static question the planner asks about unit and
// upgrade types: costs, build times, which ability creates what, and which
// unit types can produce or research it.
type Catalog struct {
	units            map[api.UnitTypeID]*api.UnitTypeData
	upgrades         map[api.UpgradeID]*api.UpgradeData
	producers        map[api.UnitTypeID][]api.UnitTypeID
	researchers      map[api.UpgradeID][]api.UnitTypeID
	unitByAbility    map[api.AbilityID]api.UnitTypeID
	upgradeByAbility map[api.AbilityID]api.UpgradeID
	unitNames        map[string]api.UnitTypeID
	upgradeNames     map[string]api.UpgradeID
}

// Default returns a fresh copy of the embedded catalog. The embedded file is
// part of the binary, so a parse failure is a programming error.
func Default() *Catalog {
	c, err := Load(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

var builtinNames = sync.OnceValue(func() map[api.UnitTypeID]string {
	c := Default()
	names := make(map[api.UnitTypeID]string, len(c.units))
	for id, d := range c.units {
		names[id] = d.Name
	}
	return names
})

// UnitName is the embedded catalog's name for id, such as "Probe". Types
// the catalog does not list fall back to the protocol name without its
// race prefix.
func UnitName(id api.UnitTypeID) string {
	if n, ok := builtinNames()[id]; ok {
		return n
	}
	s := unit.String(id)
	if _, rest, ok := strings.Cut(s, "_"); ok {
		return rest
	}
	return s
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Load(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load parses catalog YAML.
func Load(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog.yaml: %w", err)
	}

	c := newCatalog()
	for _, d := range f.Units {
		race, ok := ParseRace(d.Race)
		if !ok {
			return nil, fmt.Errorf("unit %q: unknown race %q", d.Name, d.Race)
		}
		data := &api.UnitTypeData{
			UnitId:          api.UnitTypeID(d.ID),
			Name:            d.Name,
			Available:       true,
			MineralCost:     d.Minerals,
			VespeneCost:     d.Vespene,
			FoodRequired:    d.Food,
			FoodProvided:    d.FoodProvided,
			AbilityId:       api.AbilityID(d.Ability),
			Race:            race,
			BuildTime:       d.BuildTime,
			TechRequirement: api.UnitTypeID(d.TechRequirement),
			MovementSpeed:   d.MovementSpeed,
		}
		if d.Structure {
			data.Attributes = []api.Attribute{api.Attribute_Structure}
		}
		c.putUnit(data)
		for _, p := range d.Producers {
			c.producers[data.UnitId] = append(c.producers[data.UnitId], api.UnitTypeID(p))
		}
	}
	for _, d := range f.Upgrades {
		data := &api.UpgradeData{
			UpgradeId:    api.UpgradeID(d.ID),
			Name:         d.Name,
			MineralCost:  d.Minerals,
			VespeneCost:  d.Vespene,
			ResearchTime: d.ResearchTime,
			AbilityId:    api.AbilityID(d.Ability),
		}
		c.putUpgrade(data)
		for _, r := range d.Researchers {
			c.researchers[data.UpgradeId] = append(c.researchers[data.UpgradeId], api.UnitTypeID(r))
		}
	}
	return c, nil
}

func newCatalog() *Catalog {
	return &Catalog{
		units:            make(map[api.UnitTypeID]*api.UnitTypeData),
		upgrades:         make(map[api.UpgradeID]*api.UpgradeData),
		producers:        make(map[api.UnitTypeID][]api.UnitTypeID),
		researchers:      make(map[api.UpgradeID][]api.UnitTypeID),
		unitByAbility:    make(map[api.AbilityID]api.UnitTypeID),
		upgradeByAbility: make(map[api.AbilityID]api.UpgradeID),
		unitNames:        make(map[string]api.UnitTypeID),
		upgradeNames:     make(map[string]api.UpgradeID),
	}
}

func (c *Catalog) putUnit(d *api.UnitTypeData) {
	c.units[d.UnitId] = d
	if d.AbilityId != 0 {
		c.unitByAbility[d.AbilityId] = d.UnitId
	}
	if d.Name != "" {
		c.unitNames[NormalizeName(d.Name)] = d.UnitId
	}
}

func (c *Catalog) putUpgrade(d *api.UpgradeData) {
	c.upgrades[d.UpgradeId] = d
	if d.AbilityId != 0 {
		c.upgradeByAbility[d.AbilityId] = d.UpgradeId
	}
	if d.Name != "" {
		c.upgradeNames[NormalizeName(d.Name)] = d.UpgradeId
	}
}

// Merge overlays data reported by the game. Producer and researcher tables
// are not part of the game's data and are kept.
func (c *Catalog) Merge(units []*api.UnitTypeData, upgrades []*api.UpgradeData) {
	for _, u := range units {
		if u == nil || u.UnitId == 0 {
			continue
		}
		c.putUnit(u)
	}
	for _, u := range upgrades {
		if u == nil || u.UpgradeId == 0 {
			continue
		}
		c.putUpgrade(u)
	}
}

func (c *Catalog) Unit(id api.UnitTypeID) (*api.UnitTypeData, bool) {
	d, ok := c.units[id]
	return d, ok
}

func (c *Catalog) Upgrade(id api.UpgradeID) (*api.UpgradeData, bool) {
	d, ok := c.upgrades[id]
	return d, ok
}

// ProducersOf lists the unit types that can create id.
func (c *Catalog) ProducersOf(id api.UnitTypeID) []api.UnitTypeID {
	return c.producers[id]
}

// ResearchersOf lists the structure types that can research id.
func (c *Catalog) ResearchersOf(id api.UpgradeID) []api.UnitTypeID {
	return c.researchers[id]
}

// UnitTrainedBy maps a training or build ability back to the unit type it creates.
func (c *Catalog) UnitTrainedBy(ability api.AbilityID) (api.UnitTypeID, bool) {
	id, ok := c.unitByAbility[ability]
	return id, ok
}

// UpgradeResearchedBy maps a research ability to its upgrade.
func (c *Catalog) UpgradeResearchedBy(ability api.AbilityID) (api.UpgradeID, bool) {
	id, ok := c.upgradeByAbility[ability]
	return id, ok
}

// IsStructure reports whether the type carries the Structure attribute.
func (c *Catalog) IsStructure(id api.UnitTypeID) bool {
	d, ok := c.units[id]
	return ok && IsStructure(d)
}

// IsConstructionAbility reports whether ability makes a worker build a structure.
func (c *Catalog) IsConstructionAbility(ability api.AbilityID) bool {
	id, ok := c.unitByAbility[ability]
	if !ok || !c.IsStructure(id) {
		return false
	}
	for _, p := range c.producers[id] {
		if IsWorker(p) {
			return true
		}
	}
	return false
}

// LookupUnit resolves a display name such as "Supply Depot" to a unit type.
func (c *Catalog) LookupUnit(name string) (api.UnitTypeID, bool) {
	id, ok := c.unitNames[NormalizeName(name)]
	return id, ok
}

// LookupUpgrade resolves an upgrade name. Build-order shorthand like "Blink"
// goes through upgradeAliases first.
func (c *Catalog) LookupUpgrade(name string) (api.UpgradeID, bool) {
	key := NormalizeName(name)
	if alias, ok := upgradeAliases[key]; ok {
		key = alias
	}
	id, ok := c.upgradeNames[key]
	return id, ok
}

// UpgradeAlias resolves only build-order shorthand, so "Warp Gate" can mean
// the research before it means the structure.
func (c *Catalog) UpgradeAlias(name string) (api.UpgradeID, bool) {
	alias, ok := upgradeAliases[NormalizeName(name)]
	if !ok {
		return 0, false
	}
	id, ok := c.upgradeNames[alias]
	return id, ok
}

// NormalizeName uppercases and strips whitespace.
func NormalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// IsStructure reports whether d carries the Structure attribute.
func IsStructure(d *api.UnitTypeData) bool {
	for _, a := range d.Attributes {
		if a == api.Attribute_Structure {
			return true
		}
	}
	return false
}

// ParseRace accepts race names in any case.
func ParseRace(s string) (api.Race, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "terran":
		return api.Race_Terran, true
	case "zerg":
		return api.Race_Zerg, true
	case "protoss":
		return api.Race_Protoss, true
	case "random":
		return api.Race_Random, true
	}
	return api.Race_NoRace, false
}

// RaceName is the lowercase form used in build-order files and config.
func RaceName(r api.Race) string {
	switch r {
	case api.Race_Terran:
		return "terran"
	case api.Race_Zerg:
		return "zerg"
	case api.Race_Protoss:
		return "protoss"
	case api.Race_Random:
		return "random"
	}
	return ""
}
