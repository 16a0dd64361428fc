// Package ledger holds the bot-side bookkeeping that survives between
// decisions within a tick: resource reservations, commands the game has not
// yet confirmed, and per-unit labels.
package ledger

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aiseeq/s2l/protocol/api"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
)

// Reservation limits. Once reached, further reservations are dropped until
// the next Reset so the plan cannot tie up the whole bank.
const (
	thresholdBoth     = 512
	thresholdMinerals = 1024
)

type EarmarkEntry struct {
	Key      string
	Name     string
	Minerals int
	Vespene  int
}

type FoodEntry struct {
	Key  string
	Food float64
}

// Earmarks reserves minerals, vespene and food for decisions made earlier in
// the same pass. It is not safe for concurrent use.
type Earmarks struct {
	catalog  *gamedata.Catalog
	entries  []EarmarkEntry
	food     []FoodEntry
	foodIdx  map[string]int
	minerals int
	vespene  int
}

func NewEarmarks(catalog *gamedata.Catalog) *Earmarks {
	return &Earmarks{catalog: catalog, foodIdx: make(map[string]int)}
}

// AddEarmark reserves the cost of order. It never fails loudly: a reservation
// that cannot be made is logged and skipped.
func (e *Earmarks) AddEarmark(order gamedata.Order, foodUsed int, step int) {
	entry, key, food, ok := e.entryFor(order, foodUsed, step)
	if !ok {
		return
	}
	e.entries = append(e.entries, entry)
	e.minerals += entry.Minerals
	e.vespene += entry.Vespene

	if i, seen := e.foodIdx[key]; seen {
		e.food[i].Food += food
	} else {
		e.foodIdx[key] = len(e.food)
		e.food = append(e.food, FoodEntry{Key: key, Food: food})
	}
	slog.Debug("earmark added", "name", entry.Name, "minerals", entry.Minerals, "vespene", entry.Vespene, "food", food)
}

// Provisional returns the totals as they would be after AddEarmark(order...),
// without recording anything.
func (e *Earmarks) Provisional(order gamedata.Order, foodUsed int, step int) (minerals, vespene int) {
	entry, _, _, ok := e.entryFor(order, foodUsed, step)
	if !ok {
		return e.minerals, e.vespene
	}
	return e.minerals + entry.Minerals, e.vespene + entry.Vespene
}

func (e *Earmarks) entryFor(order gamedata.Order, foodUsed int, step int) (EarmarkEntry, string, float64, bool) {
	if e.ThresholdReached() {
		slog.Debug("earmark skipped, threshold reached", "minerals", e.minerals, "vespene", e.vespene)
		return EarmarkEntry{}, "", 0, false
	}
	if order == nil || order.Name() == "" {
		slog.Debug("earmark skipped, incomplete order")
		return EarmarkEntry{}, "", 0, false
	}

	foodKey := strconv.FormatFloat(float64(foodUsed)+e.EarmarkedFood(), 'f', -1, 64)
	fullKey := fmt.Sprintf("%d_%s", step, foodKey)

	var minerals int
	var food float64
	switch o := order.(type) {
	case gamedata.UnitOrder:
		mult := o.Multiplier()
		food = float64(o.Data.FoodRequired) * float64(mult)
		if base, ok := gamedata.MorphBase(o.Data.UnitId); ok {
			baseCost := gamedata.DefaultUpgradeBaseCost
			if e.catalog != nil {
				if d, found := e.catalog.Unit(base); found {
					baseCost = int(d.MineralCost)
				}
			}
			minerals = -baseCost
		}
		if o.Data.Race == api.Race_Zerg && gamedata.IsStructure(o.Data) {
			// The drone is consumed.
			food--
		}
		minerals += int(o.Data.MineralCost) * mult
	case gamedata.UpgradeOrder:
		minerals = int(o.Data.MineralCost)
	}
	minerals = max(minerals, 0)

	return EarmarkEntry{
		Key:      order.Name() + "_" + fullKey,
		Name:     order.Name(),
		Minerals: minerals,
		Vespene:  int(order.VespeneCost()),
	}, fullKey, food, true
}

// ThresholdReached reports whether reservations are saturated.
func (e *Earmarks) ThresholdReached() bool {
	return (e.minerals > thresholdBoth && e.vespene > thresholdBoth) || e.minerals > thresholdMinerals
}

func (e *Earmarks) EarmarkedFood() float64 {
	var sum float64
	for _, f := range e.food {
		sum += f.Food
	}
	return sum
}

func (e *Earmarks) Totals() (minerals, vespene int) { return e.minerals, e.vespene }

func (e *Earmarks) HasEarmarks() bool { return e.minerals > 0 || e.vespene > 0 }

// HaveSupplyFor reports whether food more supply fits under the cap once
// earlier reservations are counted.
func (e *Earmarks) HaveSupplyFor(food float64, foodCap, foodUsed int) bool {
	return float64(foodCap-foodUsed)-e.EarmarkedFood()-food >= 0
}

func (e *Earmarks) Entries() []EarmarkEntry {
	return append([]EarmarkEntry(nil), e.entries...)
}

func (e *Earmarks) FoodEntries() []FoodEntry {
	return append([]FoodEntry(nil), e.food...)
}

// Reset clears every reservation. Called once at the start of each pass.
func (e *Earmarks) Reset() {
	e.entries = e.entries[:0]
	e.food = e.food[:0]
	clear(e.foodIdx)
	e.minerals, e.vespene = 0, 0
}
