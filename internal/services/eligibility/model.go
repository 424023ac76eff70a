// Package eligibility scores loan eligibility and records each prediction.
package eligibility

import (
	"context"
	"fmt"

	httpclient "solar-loan-workers/internal/common/http"
	"solar-loan-workers/internal/models"
)

const (
	ModelName          = "eligibility_model"
	MockModelVersion   = "mock-v1"
	LiveModelVersion   = "live-v1"
	EligibilityCutoff  = 60.0
	mockEligibleScore  = 75.0
	reasonIncomeOK     = "Income sufficient"
	reasonCreditOK     = "Good credit history"
	reasonIncomeTooLow = "Insufficient income"
)

// Model turns loan features into an eligibility result.
type Model interface {
	Predict(ctx context.Context, features models.EligibilityFeatures) (*models.EligibilityResult, error)
	Version() string
}

// MockModel always answers eligible with score 75.
type MockModel struct{}

func (MockModel) Version() string { return MockModelVersion }

func (MockModel) Predict(ctx context.Context, features models.EligibilityFeatures) (*models.EligibilityResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return resultFromScore(mockEligibleScore, MockModelVersion), nil
}

// RemoteModel calls a scoring service exposing predict_proba over HTTP.
type RemoteModel struct {
	client *httpclient.Client
}

func NewRemoteModel(client *httpclient.Client) *RemoteModel {
	return &RemoteModel{client: client}
}

func (m *RemoteModel) Version() string { return LiveModelVersion }

type probaRequest struct {
	Model    string      `json:"model"`
	Features [][]float64 `json:"features"`
}

type probaResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
}

// Predict scores predict_proba(features)[1] x 100.
func (m *RemoteModel) Predict(ctx context.Context, features models.EligibilityFeatures) (*models.EligibilityResult, error) {
	var resp probaResponse
	req := probaRequest{Model: ModelName, Features: [][]float64{features.Vector()}}
	if err := m.client.PostJSON(ctx, "/predict_proba", req, &resp); err != nil {
		return nil, fmt.Errorf("scoring service: %w", err)
	}
	if len(resp.Probabilities) == 0 || len(resp.Probabilities[0]) < 2 {
		return nil, fmt.Errorf("scoring service returned %d probability rows", len(resp.Probabilities))
	}
	return resultFromScore(resp.Probabilities[0][1]*100, LiveModelVersion), nil
}

func resultFromScore(score float64, version string) *models.EligibilityResult {
	eligible := score >= EligibilityCutoff
	reasons := []string{reasonIncomeTooLow}
	if eligible {
		reasons = []string{reasonIncomeOK, reasonCreditOK}
	}
	return &models.EligibilityResult{
		EligibilityScore: score,
		IsEligible:       eligible,
		Reasons:          reasons,
		Confidence:       score,
		ModelVersion:     version,
	}
}
