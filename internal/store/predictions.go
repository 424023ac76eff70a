package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"solar-loan-workers/internal/models"

	"github.com/google/uuid"
)

// PredictionStore writes ai_predictions.
type PredictionStore struct {
	db *sql.DB
}

func NewPredictionStore(db *sql.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

// Record inserts p, assigning its ID. The owning user is copied from the loan.
func (s *PredictionStore) Record(ctx context.Context, p *models.Prediction) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	features, err := json.Marshal(p.InputFeatures)
	if err != nil {
		return fmt.Errorf("encode input_features: %w", err)
	}
	result, err := json.Marshal(p.Result)
	if err != nil {
		return fmt.Errorf("encode prediction_result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ai_predictions (
			id, loan_application_id, user_id, prediction_type, model_name, model_version,
			input_features, prediction_result, confidence_score, created_at
		) VALUES (
			$1, $2, (SELECT user_id FROM loan_applications WHERE id = $2), $3, $4, $5, $6, $7, $8, $9
		)`,
		p.ID, p.LoanApplicationID, p.PredictionType, p.ModelName, p.ModelVersion,
		string(features), string(result), p.ConfidenceScore, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}
