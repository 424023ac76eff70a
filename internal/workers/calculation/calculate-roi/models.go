package calculateroi

import "solar-loan-workers/internal/models"

type Input struct {
	SystemCapacityKW float64 `json:"systemCapacityKw"`
	State            string  `json:"state"`
	InstallationCost float64 `json:"installationCost"`
	ElectricityRate  float64 `json:"electricityRate,omitempty"`
	DegradationRate  float64 `json:"degradationRate,omitempty"`
	Years            int     `json:"years,omitempty"`
	IncludeYearly    bool    `json:"includeYearly,omitempty"` // keep the per-year breakdown
}

type Output struct {
	ROI *models.ROIResult `json:"roi"`
}
