package calculation

import (
	"fmt"

	"solar-loan-workers/internal/models"
	"solar-loan-workers/pkg/registry"

	"github.com/shopspring/decimal"
)

var (
	wattsPerKW    = decimal.NewFromInt(1000)
	hundred       = decimal.NewFromInt(100)
	centralTierKW = decimal.NewFromInt(3)
)

// SubsidyCalculator applies central and state subsidy tiers from a registry.
type SubsidyCalculator struct {
	registry *registry.SubsidyRegistry
}

func NewSubsidyCalculator(reg *registry.SubsidyRegistry) *SubsidyCalculator {
	if reg == nil {
		reg = registry.DefaultSubsidyRegistry()
	}
	return &SubsidyCalculator{registry: reg}
}

// Compute returns central + state subsidy for a system. Only residential systems get the
// central subsidy; states without a tier contribute 0.
func (c *SubsidyCalculator) Compute(capacityKW float64, state string, systemType models.SystemType) (*models.SubsidyResult, error) {
	if capacityKW < 0 {
		return nil, fmt.Errorf("%w: capacity must not be negative", ErrInvalidInput)
	}
	if systemType == "" {
		systemType = models.SystemTypeResidential
	}

	capacity := decimal.NewFromFloat(capacityKW)

	central := decimal.Zero
	switch systemType {
	case models.SystemTypeResidential:
		tier := c.registry.Central.Residential.Above3KW
		if capacity.LessThanOrEqual(centralTierKW) {
			tier = c.registry.Central.Residential.UpTo3KW
		}
		central = applyTier(capacity, tier)
	case models.SystemTypeCommercial:
	default:
		return nil, fmt.Errorf("%w: unknown system type %q", ErrInvalidInput, systemType)
	}

	stateSubsidy := decimal.Zero
	if tier, ok := c.registry.StateTier(state); ok {
		stateSubsidy = applyTier(capacity, tier)
	}

	return &models.SubsidyResult{
		SubsidyAmount:    central.Add(stateSubsidy).Round(2).InexactFloat64(),
		CentralSubsidy:   central.Round(2).InexactFloat64(),
		StateSubsidy:     stateSubsidy.Round(2).InexactFloat64(),
		SystemCapacityKW: capacityKW,
		State:            state,
		SystemType:       systemType,
	}, nil
}

// applyTier is min(kW * 1000 * pct / 100, max).
func applyTier(capacity decimal.Decimal, tier registry.Tier) decimal.Decimal {
	amount := capacity.Mul(wattsPerKW).Mul(decimal.NewFromFloat(tier.Percentage)).Div(hundred)
	return decimal.Min(amount, decimal.NewFromFloat(tier.MaxAmount))
}
