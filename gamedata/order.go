package gamedata

import (
	"github.com/aiseeq/s2l/protocol/api"
	"github.com/aiseeq/s2l/protocol/enums/zerg"
)

// Order is something that costs resources: a unit or structure to create,
// or an upgrade to research.
type Order interface {
	Name() string
	MineralCost() uint32
	VespeneCost() uint32
	isOrder()
}

type UnitOrder struct {
	Data *api.UnitTypeData
}

type UpgradeOrder struct {
	Data *api.UpgradeData
}

func (o UnitOrder) Name() string {
	if o.Data == nil {
		return ""
	}
	return o.Data.Name
}

func (o UnitOrder) MineralCost() uint32 {
	if o.Data == nil {
		return 0
	}
	return o.Data.MineralCost
}

func (o UnitOrder) VespeneCost() uint32 {
	if o.Data == nil {
		return 0
	}
	return o.Data.VespeneCost
}

// IsZergling is true for the one unit that hatches in pairs.
func (o UnitOrder) IsZergling() bool {
	return o.Data != nil && o.Data.UnitId == zerg.Zergling
}

// Multiplier is how many units one order yields.
func (o UnitOrder) Multiplier() int {
	if o.IsZergling() {
		return 2
	}
	return 1
}

func (UnitOrder) isOrder() {}

func (o UpgradeOrder) Name() string {
	if o.Data == nil {
		return ""
	}
	return o.Data.Name
}

func (o UpgradeOrder) MineralCost() uint32 {
	if o.Data == nil {
		return 0
	}
	return o.Data.MineralCost
}

func (o UpgradeOrder) VespeneCost() uint32 {
	if o.Data == nil {
		return 0
	}
	return o.Data.VespeneCost
}

func (UpgradeOrder) isOrder() {}
