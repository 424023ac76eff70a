package calculatesubsidy

import "solar-loan-workers/internal/models"

type Input struct {
	SystemCapacityKW float64           `json:"systemCapacityKw"`
	State            string            `json:"state"`
	SystemType       models.SystemType `json:"systemType,omitempty"`
}

type Output struct {
	Subsidy *models.SubsidyResult `json:"subsidy"`
}
