package gamedata

import (
	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/ability"
	"github.com/aiseeq/s2l/protocol/enums/buff"
	"github.com/aiseeq/s2l/protocol/enums/neutral"
	"github.com/aiseeq/s2l/protocol/enums/protoss"
	"github.com/aiseeq/s2l/protocol/enums/terran"
	"github.com/aiseeq/s2l/protocol/enums/upgrade"
	"github.com/aiseeq/s2l/protocol/enums/zerg"
)

// FramesPerSecond is the game-loop rate at "faster" speed.
const FramesPerSecond = 22.4

// DefaultUpgradeBaseCost is charged back when the base structure of a
// morph is missing from the catalog.
const DefaultUpgradeBaseCost = 400

// UpgradeTypes maps a base structure to the structures it morphs into.
// The catalog cost of a morph includes its base, so reservations subtract it.
var UpgradeTypes = map[api.UnitTypeID][]api.UnitTypeID{
	terran.CommandCenter: {terran.OrbitalCommand, terran.PlanetaryFortress},
	zerg.Hatchery:        {zerg.Lair},
}

// MorphBase returns the base structure id morphs from.
func MorphBase(id api.UnitTypeID) (api.UnitTypeID, bool) {
	for base, morphs := range UpgradeTypes {
		for _, m := range morphs {
			if m == id {
				return base, true
			}
		}
	}
	return 0, false
}

// countGroups lists the types that count as one another when checking how
// many of a unit the player has.
var countGroups = [][]api.UnitTypeID{
	{terran.CommandCenter, terran.CommandCenterFlying, terran.OrbitalCommand, terran.OrbitalCommandFlying, terran.PlanetaryFortress},
	{terran.OrbitalCommand, terran.OrbitalCommandFlying},
	{terran.SupplyDepot, terran.SupplyDepotLowered},
	{terran.Barracks, terran.BarracksFlying},
	{terran.Factory, terran.FactoryFlying},
	{terran.Starport, terran.StarportFlying},
	{terran.Refinery, terran.RefineryRich},
	{zerg.Hatchery, zerg.Lair, zerg.Hive},
	{zerg.Lair, zerg.Hive},
	{zerg.Extractor, zerg.ExtractorRich},
	{zerg.Drone, zerg.DroneBurrowed},
	{protoss.Gateway, protoss.WarpGate},
	{protoss.Assimilator, protoss.AssimilatorRich},
}

// CountTypes returns the group id belongs to for counting, or just id.
// The first group led by id wins, so CommandCenter counts its morphs while
// OrbitalCommand counts only itself and its flying form.
func CountTypes(id api.UnitTypeID) []api.UnitTypeID {
	for _, g := range countGroups {
		if g[0] == id {
			return g
		}
	}
	return []api.UnitTypeID{id}
}

// ProducerAliases maps relocatable and warp variants to the type listed as
// a producer in the catalog.
var ProducerAliases = map[api.UnitTypeID]api.UnitTypeID{
	protoss.WarpGate:            protoss.Gateway,
	terran.CommandCenterFlying:  terran.CommandCenter,
	terran.OrbitalCommandFlying: terran.OrbitalCommand,
	terran.BarracksFlying:       terran.Barracks,
	terran.FactoryFlying:        terran.Factory,
	terran.StarportFlying:       terran.Starport,
}

// FlyingTypes maps lifted structures to their landed form.
var FlyingTypes = map[api.UnitTypeID]api.UnitTypeID{
	terran.CommandCenterFlying:  terran.CommandCenter,
	terran.OrbitalCommandFlying: terran.OrbitalCommand,
	terran.BarracksFlying:       terran.Barracks,
	terran.FactoryFlying:        terran.Factory,
	terran.StarportFlying:       terran.Starport,
}

// IsFlyingType reports whether id is a lifted structure.
func IsFlyingType(id api.UnitTypeID) bool {
	_, ok := FlyingTypes[id]
	return ok
}

// AddOnHosts are the structures that take a tech lab or reactor.
var AddOnHosts = map[api.UnitTypeID]bool{
	terran.Barracks: true, terran.BarracksFlying: true,
	terran.Factory: true, terran.FactoryFlying: true,
	terran.Starport: true, terran.StarportFlying: true,
}

var reactorTypes = map[api.UnitTypeID]bool{
	terran.Reactor: true, terran.BarracksReactor: true, terran.FactoryReactor: true, terran.StarportReactor: true,
}

var techLabTypes = map[api.UnitTypeID]bool{
	terran.TechLab: true, terran.BarracksTechLab: true, terran.FactoryTechLab: true, terran.StarportTechLab: true,
}

func IsReactor(id api.UnitTypeID) bool { return reactorTypes[id] }
func IsTechLab(id api.UnitTypeID) bool { return techLabTypes[id] }

var workerTypes = map[api.UnitTypeID]bool{
	terran.SCV: true, terran.MULE: true, zerg.Drone: true, protoss.Probe: true,
}

// IsWorker includes the MULE since it harvests.
func IsWorker(id api.UnitTypeID) bool { return workerTypes[id] }

type raceTypes struct {
	worker, townhall, gas, supply api.UnitTypeID
}

var byRace = map[api.Race]raceTypes{
	api.Race_Terran:  {terran.SCV, terran.CommandCenter, terran.Refinery, terran.SupplyDepot},
	api.Race_Zerg:    {zerg.Drone, zerg.Hatchery, zerg.Extractor, zerg.Overlord},
	api.Race_Protoss: {protoss.Probe, protoss.Nexus, protoss.Assimilator, protoss.Pylon},
}

// KnownRace reports whether r is one of the three playable races.
func KnownRace(r api.Race) bool {
	_, ok := byRace[r]
	return ok
}

func WorkerType(r api.Race) api.UnitTypeID   { return byRace[r].worker }
func TownhallType(r api.Race) api.UnitTypeID { return byRace[r].townhall }
func GasMineType(r api.Race) api.UnitTypeID  { return byRace[r].gas }
func SupplyType(r api.Race) api.UnitTypeID   { return byRace[r].supply }

var townhalls = map[api.UnitTypeID]bool{
	terran.CommandCenter: true, terran.OrbitalCommand: true, terran.PlanetaryFortress: true,
	zerg.Hatchery: true, zerg.Lair: true, zerg.Hive: true,
	protoss.Nexus: true,
}

func IsTownhall(id api.UnitTypeID) bool { return townhalls[id] }

var gasMines = map[api.UnitTypeID]bool{
	terran.Refinery: true, terran.RefineryRich: true,
	zerg.Extractor: true, zerg.ExtractorRich: true,
	protoss.Assimilator: true, protoss.AssimilatorRich: true,
}

func IsGasMine(id api.UnitTypeID) bool { return gasMines[id] }

var geysers = map[api.UnitTypeID]bool{
	neutral.VespeneGeyser: true, neutral.SpacePlatformGeyser: true, neutral.RichVespeneGeyser: true,
	neutral.PurifierVespeneGeyser: true, neutral.ProtossVespeneGeyser: true, neutral.ShakurasVespeneGeyser: true,
}

func IsGeyser(id api.UnitTypeID) bool { return geysers[id] }

var mineralFields = map[api.UnitTypeID]bool{
	neutral.MineralField: true, neutral.MineralField450: true, neutral.MineralField750: true,
	neutral.RichMineralField: true, neutral.RichMineralField750: true,
	neutral.LabMineralField: true, neutral.LabMineralField750: true,
	neutral.PurifierMineralField: true, neutral.PurifierMineralField750: true,
	neutral.PurifierRichMineralField: true, neutral.PurifierRichMineralField750: true,
	neutral.BattleStationMineralField: true, neutral.BattleStationMineralField750: true,
	neutral.MineralFieldOpaque: true, neutral.MineralFieldOpaque900: true,
}

func IsMineralField(id api.UnitTypeID) bool { return mineralFields[id] }

var gatherAbilities = map[api.AbilityID]bool{
	ability.Harvest_Gather: true, ability.Harvest_Gather_SCV: true, ability.Harvest_Gather_Drone: true,
	ability.Harvest_Gather_Probe: true, ability.Harvest_Gather_Mule: true,
}

var returnAbilities = map[api.AbilityID]bool{
	ability.Harvest_Return: true, ability.Harvest_Return_SCV: true, ability.Harvest_Return_Drone: true,
	ability.Harvest_Return_Probe: true, ability.Harvest_Return_Mule: true,
}

var moveAbilities = map[api.AbilityID]bool{
	ability.Move: true, ability.Move_Move: true,
}

func IsGather(a api.AbilityID) bool { return gatherAbilities[a] }
func IsReturn(a api.AbilityID) bool { return returnAbilities[a] }
func IsMove(a api.AbilityID) bool   { return moveAbilities[a] }

var carryBuffs = map[api.BuffID]bool{
	buff.CarryMineralFieldMinerals: true, buff.CarryHighYieldMineralFieldMinerals: true,
	buff.CarryHarvestableVespeneGeyserGas: true, buff.CarryHarvestableVespeneGeyserGasProtoss: true,
	buff.CarryHarvestableVespeneGeyserGasZerg: true,
}

// IsCarryBuff reports whether b marks a worker carrying resources home.
func IsCarryBuff(b api.BuffID) bool { return carryBuffs[b] }

// warpAbilities maps gateway training to the warp-in a warpgate uses.
var warpAbilities = map[api.AbilityID]api.AbilityID{
	ability.Train_Zealot:      ability.TrainWarp_Zealot,
	ability.Train_Stalker:     ability.TrainWarp_Stalker,
	ability.Train_Sentry:      ability.TrainWarp_Sentry,
	ability.Train_Adept:       ability.TrainWarp_Adept,
	ability.Train_HighTemplar: ability.TrainWarp_HighTemplar,
	ability.Train_DarkTemplar: ability.TrainWarp_DarkTemplar,
}

// WarpAbility returns the warpgate form of a gateway training ability.
func WarpAbility(train api.AbilityID) (api.AbilityID, bool) {
	a, ok := warpAbilities[train]
	return a, ok
}

// upgradeAliases maps build-order shorthand to catalog names, both normalized.
var upgradeAliases = map[string]string{
	"BLINK":             NormalizeName("BlinkTech"),
	"WARPGATE":          NormalizeName("WarpGateResearch"),
	"METABOLICBOOST":    NormalizeName("Zerglingmovementspeed"),
	"COMBATSHIELD":      NormalizeName("ShieldWall"),
	"INFANTRYWEAPONSL1": NormalizeName("TerranInfantryWeaponsLevel1"),
}

// Chrono boost and MULE calldown.
const (
	ChronoBoostAbility = ability.Effect_ChronoBoostEnergyCost
	ChronoBoostBuff    = buff.ChronoBoostEnergyCost
	CalldownMULE       = ability.Effect_CalldownMULE
	MULEEnergyCost     = 50
)

// ChronoFactor scales the remaining build time of a boosted producer.
const ChronoFactor = 2.0 / 3.0

// UpgradeName is used in logs.
func UpgradeName(id api.UpgradeID) string { return upgrade.String(id) }
