package calculation

import (
	"errors"
	"testing"

	"solar-loan-workers/internal/models"
	"solar-loan-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================================
// EMI
// ==========================================

func TestEMICalculator_Compute(t *testing.T) {
	tests := []struct {
		name         string
		principal    float64
		rate         float64
		years        int
		wantEMI      float64
		wantTotal    float64
		wantInterest float64
		wantMonths   int
	}{
		{
			name:         "standard solar loan",
			principal:    100000,
			rate:         8.5,
			years:        5,
			wantEMI:      2051.65,
			wantTotal:    123099.19,
			wantInterest: 23099.19,
			wantMonths:   60,
		},
		{
			name:         "larger loan longer tenure",
			principal:    500000,
			rate:         10.5,
			years:        7,
			wantEMI:      8430.34,
			wantTotal:    708148.27,
			wantInterest: 208148.27,
			wantMonths:   84,
		},
		{
			name:         "zero interest splits principal evenly",
			principal:    120000,
			rate:         0,
			years:        5,
			wantEMI:      2000,
			wantTotal:    120000,
			wantInterest: 0,
			wantMonths:   60,
		},
	}

	calc := NewEMICalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := calc.Compute(tt.principal, tt.rate, tt.years)
			require.NoError(t, err)

			assert.Equal(t, tt.wantEMI, result.EMIAmount)
			assert.Equal(t, tt.wantTotal, result.TotalAmount)
			assert.Equal(t, tt.wantInterest, result.TotalInterest)
			assert.Equal(t, tt.wantMonths, result.TenureMonths)
			assert.Equal(t, tt.principal, result.Principal)
		})
	}
}

func TestEMICalculator_ZeroRateProperty(t *testing.T) {
	calc := NewEMICalculator()
	for _, p := range []float64{36000, 99999, 250000, 1234567} {
		for _, years := range []int{1, 3, 5, 10} {
			result, err := calc.Compute(p, 0, years)
			require.NoError(t, err)
			assert.Equal(t, round2(p/float64(years*12)), result.EMIAmount)
		}
	}
}

func TestEMICalculator_InvalidInput(t *testing.T) {
	calc := NewEMICalculator()

	_, err := calc.Compute(0, 8.5, 5)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = calc.Compute(1000, -1, 5)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = calc.Compute(1000, 8.5, 0)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

// ==========================================
// Subsidy
// ==========================================

func TestSubsidyCalculator_Compute(t *testing.T) {
	tests := []struct {
		name        string
		capacity    float64
		state       string
		systemType  models.SystemType
		wantCentral float64
		wantState   float64
		wantTotal   float64
	}{
		{"3kW Maharashtra", 3.0, "Maharashtra", models.SystemTypeResidential, 1200, 600, 1800},
		{"5kW Gujarat above 3kW tier", 5.0, "Gujarat", models.SystemTypeResidential, 2000, 1250, 3250},
		{"unknown state gets central only", 2.0, "Kerala", models.SystemTypeResidential, 800, 0, 800},
		{"commercial gets state only", 10.0, "Rajasthan", models.SystemTypeCommercial, 0, 1500, 1500},
		{"empty type defaults to residential", 1.5, "Rajasthan", "", 600, 225, 825},
		{"central cap applies", 100.0, "Maharashtra", models.SystemTypeResidential, 40000, 20000, 60000},
	}

	calc := NewSubsidyCalculator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := calc.Compute(tt.capacity, tt.state, tt.systemType)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCentral, result.CentralSubsidy)
			assert.Equal(t, tt.wantState, result.StateSubsidy)
			assert.Equal(t, tt.wantTotal, result.SubsidyAmount)
			assert.Equal(t, tt.state, result.State)
		})
	}
}

func TestSubsidyCalculator_CustomRegistry(t *testing.T) {
	reg := registry.DefaultSubsidyRegistry()
	reg.UpsertState("Karnataka", registry.Tier{Percentage: 10, MaxAmount: 250})

	result, err := NewSubsidyCalculator(reg).Compute(3.0, "Karnataka", models.SystemTypeResidential)
	require.NoError(t, err)
	assert.Equal(t, 250.0, result.StateSubsidy)
	assert.Equal(t, 1450.0, result.SubsidyAmount)
}

func TestSubsidyCalculator_InvalidInput(t *testing.T) {
	calc := NewSubsidyCalculator(nil)

	_, err := calc.Compute(-1, "Gujarat", models.SystemTypeResidential)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = calc.Compute(3, "Gujarat", "industrial")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

// ==========================================
// ROI
// ==========================================

func TestROICalculator_Compute(t *testing.T) {
	calc := NewROICalculator(nil)

	result, err := calc.Compute(ROIInput{
		SystemCapacityKW: 3,
		State:            "Maharashtra",
		InstallationCost: 150000,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1134925.74, result.TotalSavings, 0.01)
	assert.InDelta(t, 984925.74, result.NetSavings, 0.01)
	assert.InDelta(t, 656.62, result.ROIPercentage, 0.01)
	assert.InDelta(t, 343805.35, result.NPV, 0.01)
	assert.Equal(t, 4, result.PaybackPeriodYears)
	assert.Equal(t, 6022.5, result.AnnualGenerationKW)
	assert.Len(t, result.Yearly, 25)
	assert.Equal(t, 48180.0, result.Yearly[0].Savings)
}

func TestROICalculator_NeverPaysBack(t *testing.T) {
	result, err := NewROICalculator(nil).Compute(ROIInput{
		SystemCapacityKW: 1,
		State:            "Kerala",
		InstallationCost: 10000000,
		Years:            10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, result.PaybackPeriodYears)
	assert.Less(t, result.NetSavings, 0.0)
}

func TestROICalculator_InvalidInput(t *testing.T) {
	_, err := NewROICalculator(nil).Compute(ROIInput{SystemCapacityKW: 0})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
