package eligibility

import (
	"context"
	"fmt"

	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/models"
)

// PredictionRecorder stores a prediction and assigns its ID.
type PredictionRecorder interface {
	Record(ctx context.Context, p *models.Prediction) error
}

// Service scores a loan with the configured model and records the prediction.
type Service struct {
	model    Model
	recorder PredictionRecorder
	logger   logger.Logger
}

func NewService(model Model, recorder PredictionRecorder, log logger.Logger) *Service {
	return &Service{model: model, recorder: recorder, logger: log}
}

func (s *Service) Score(ctx context.Context, loanID string, features models.EligibilityFeatures) (*models.EligibilityResult, error) {
	result, err := s.model.Predict(ctx, features)
	if err != nil {
		return nil, err
	}

	prediction := &models.Prediction{
		LoanApplicationID: loanID,
		PredictionType:    models.PredictionTypeEligibility,
		ModelName:         ModelName,
		ModelVersion:      s.model.Version(),
		InputFeatures:     features,
		Result: map[string]interface{}{
			"eligibility_score": result.EligibilityScore,
			"is_eligible":       result.IsEligible,
			"reasons":           result.Reasons,
		},
		ConfidenceScore: result.Confidence,
	}
	if err := s.recorder.Record(ctx, prediction); err != nil {
		return nil, fmt.Errorf("record prediction: %w", err)
	}
	result.PredictionID = prediction.ID

	s.logger.Info("eligibility scored", map[string]interface{}{
		logger.FieldLoanID: loanID,
		"score":            result.EligibilityScore,
		"eligible":         result.IsEligible,
		"modelVersion":     result.ModelVersion,
	})
	return result, nil
}
