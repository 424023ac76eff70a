// Package credit fetches bureau reports and tracks the credit check lifecycle.
package credit

import (
	"context"
	"fmt"

	httpclient "solar-loan-workers/internal/common/http"
	"solar-loan-workers/internal/models"
)

// Bureau returns a credit report for a PAN.
type Bureau interface {
	FetchReport(ctx context.Context, pan string) (*models.CreditReport, error)
}

// MockBureau returns a fixed "Good" report.
type MockBureau struct{}

func (MockBureau) FetchReport(ctx context.Context, pan string) (*models.CreditReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &models.CreditReport{
		CreditScore:    750,
		CreditRating:   "Good",
		TotalAccounts:  5,
		ActiveAccounts: 3,
		OverdueAmount:  0,
	}, nil
}

// HTTPBureau posts the PAN to the bureau's credit-report endpoint.
type HTTPBureau struct {
	client *httpclient.Client
}

func NewHTTPBureau(client *httpclient.Client) *HTTPBureau {
	return &HTTPBureau{client: client}
}

func (b *HTTPBureau) FetchReport(ctx context.Context, pan string) (*models.CreditReport, error) {
	var raw map[string]interface{}
	if err := b.client.PostJSON(ctx, "/credit-report", map[string]string{"pan": pan}, &raw); err != nil {
		return nil, err
	}

	report := &models.CreditReport{Raw: raw}
	score, ok := raw["credit_score"].(float64)
	if !ok {
		return nil, fmt.Errorf("credit report missing credit_score")
	}
	report.CreditScore = int(score)
	report.CreditRating, _ = raw["credit_rating"].(string)
	if v, ok := raw["total_accounts"].(float64); ok {
		report.TotalAccounts = int(v)
	}
	if v, ok := raw["active_accounts"].(float64); ok {
		report.ActiveAccounts = int(v)
	}
	report.OverdueAmount, _ = raw["overdue_amount"].(float64)
	return report, nil
}
