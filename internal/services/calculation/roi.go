package calculation

import (
	"fmt"

	"solar-loan-workers/internal/models"
	"solar-loan-workers/pkg/registry"

	"github.com/shopspring/decimal"
)

const (
	DefaultElectricityRate = 8.0
	DefaultDegradationRate = 0.5
	DefaultROIYears        = 25
)

var (
	daysPerYear  = decimal.NewFromInt(365)
	discountRate = decimal.RequireFromString("1.08")
)

// ROIInput describes a system whose lifetime savings are projected.
type ROIInput struct {
	SystemCapacityKW float64
	State            string
	InstallationCost float64
	ElectricityRate  float64 // per kWh, DefaultElectricityRate when 0
	DegradationRate  float64 // percent per year, DefaultDegradationRate when 0
	Years            int     // DefaultROIYears when 0
}

// ROICalculator projects generation and savings using state irradiation.
type ROICalculator struct {
	irradiation *registry.IrradiationRegistry
}

func NewROICalculator(reg *registry.IrradiationRegistry) *ROICalculator {
	if reg == nil {
		reg = registry.DefaultIrradiationRegistry()
	}
	return &ROICalculator{irradiation: reg}
}

// Compute projects yearly savings with panel degradation, the payback year and an NPV
// discounted at 8%. Payback defaults to the horizon when savings never cover the cost.
func (c *ROICalculator) Compute(in ROIInput) (*models.ROIResult, error) {
	if in.SystemCapacityKW <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	}
	if in.InstallationCost < 0 {
		return nil, fmt.Errorf("%w: installation cost must not be negative", ErrInvalidInput)
	}
	if in.ElectricityRate == 0 {
		in.ElectricityRate = DefaultElectricityRate
	}
	if in.DegradationRate == 0 {
		in.DegradationRate = DefaultDegradationRate
	}
	if in.Years == 0 {
		in.Years = DefaultROIYears
	}

	capacity := decimal.NewFromFloat(in.SystemCapacityKW)
	irradiation := decimal.NewFromFloat(c.irradiation.For(in.State))
	rate := decimal.NewFromFloat(in.ElectricityRate)
	retention := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(in.DegradationRate).Div(hundred))
	cost := decimal.NewFromFloat(in.InstallationCost)

	total := decimal.Zero
	cumulative := decimal.Zero
	npv := decimal.Zero
	payback := 0
	yearly := make([]models.AnnualSavings, 0, in.Years)

	for year := 1; year <= in.Years; year++ {
		effective := capacity.Mul(retention.Pow(decimal.NewFromInt(int64(year - 1))))
		generation := effective.Mul(irradiation).Mul(daysPerYear)
		savings := generation.Mul(rate)

		total = total.Add(savings)
		cumulative = cumulative.Add(savings)
		if payback == 0 && cumulative.GreaterThanOrEqual(cost) {
			payback = year
		}
		npv = npv.Add(savings.Div(discountRate.Pow(decimal.NewFromInt(int64(year)))))

		yearly = append(yearly, models.AnnualSavings{
			Year:          year,
			GenerationKWh: generation.Round(2).InexactFloat64(),
			Savings:       savings.Round(2).InexactFloat64(),
		})
	}
	if payback == 0 {
		payback = in.Years
	}

	net := total.Sub(cost)
	roi := decimal.Zero
	if cost.IsPositive() {
		roi = net.Div(cost).Mul(hundred)
	}

	return &models.ROIResult{
		TotalSavings:       total.Round(2).InexactFloat64(),
		NetSavings:         net.Round(2).InexactFloat64(),
		ROIPercentage:      roi.Round(2).InexactFloat64(),
		PaybackPeriodYears: payback,
		NPV:                npv.Sub(cost).Round(2).InexactFloat64(),
		AnnualGenerationKW: capacity.Mul(irradiation).Mul(daysPerYear).Round(2).InexactFloat64(),
		Yearly:             yearly,
	}, nil
}
