package credit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpclient "solar-loan-workers/internal/common/http"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockCheckStore struct {
	mock.Mock
}

func (m *MockCheckStore) Insert(ctx context.Context, c *models.CreditCheck) error {
	args := m.Called(ctx, c)
	if c.ID == "" {
		c.ID = "cc-test"
	}
	return args.Error(0)
}

func (m *MockCheckStore) Update(ctx context.Context, c *models.CreditCheck) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

type mockBureauStub struct {
	mock.Mock
}

func (m *mockBureauStub) FetchReport(ctx context.Context, pan string) (*models.CreditReport, error) {
	args := m.Called(ctx, pan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditReport), args.Error(1)
}

var testNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store CheckStore, bureau Bureau) *Service {
	svc := NewService(store, bureau, 30, logger.NewTestLogger(t))
	svc.now = func() time.Time { return testNow }
	return svc
}

// ==========================
// Service
// ==========================

func TestService_Fetch_Completed(t *testing.T) {
	store := new(MockCheckStore)
	bureau := new(mockBureauStub)

	store.On("Insert", mock.Anything, mock.MatchedBy(func(c *models.CreditCheck) bool {
		return c.Status == models.CreditCheckInProgress && c.PANNumber == "ABCDE1234F"
	})).Return(nil)
	bureau.On("FetchReport", mock.Anything, "ABCDE1234F").
		Return(&models.CreditReport{CreditScore: 720, CreditRating: "Good", TotalAccounts: 4}, nil)
	store.On("Update", mock.Anything, mock.MatchedBy(func(c *models.CreditCheck) bool {
		return c.Status == models.CreditCheckCompleted
	})).Return(nil)

	check, err := newTestService(t, store, bureau).Fetch(context.Background(), "user-001", "loan-001", "ABCDE1234F")
	require.NoError(t, err)

	assert.Equal(t, models.CreditCheckCompleted, check.Status)
	assert.Equal(t, 720, *check.CreditScore)
	assert.Equal(t, "CIBIL_cc-test", check.JobID)
	assert.Equal(t, testNow.Add(30*24*time.Hour), *check.ExpiresAt)
	assert.Equal(t, 4, check.ReportData["total_accounts"])

	store.AssertExpectations(t)
	bureau.AssertExpectations(t)
}

func TestService_Fetch_BureauFailureIsRecorded(t *testing.T) {
	store := new(MockCheckStore)
	bureau := new(mockBureauStub)

	store.On("Insert", mock.Anything, mock.Anything).Return(nil)
	bureau.On("FetchReport", mock.Anything, "ABCDE1234F").Return(nil, errors.New("bureau unavailable"))
	store.On("Update", mock.Anything, mock.MatchedBy(func(c *models.CreditCheck) bool {
		return c.Status == models.CreditCheckFailed && c.ErrorMessage == "bureau unavailable"
	})).Return(nil)

	check, err := newTestService(t, store, bureau).Fetch(context.Background(), "user-001", "loan-001", "ABCDE1234F")

	assert.Nil(t, check)
	assert.ErrorContains(t, err, "bureau unavailable")
	store.AssertExpectations(t)
}

func TestService_Fetch_InsertFailureSkipsBureau(t *testing.T) {
	store := new(MockCheckStore)
	bureau := new(mockBureauStub)

	store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := newTestService(t, store, bureau).Fetch(context.Background(), "user-001", "loan-001", "ABCDE1234F")

	assert.Error(t, err)
	bureau.AssertNotCalled(t, "FetchReport", mock.Anything, mock.Anything)
}

// ==========================
// Bureaus
// ==========================

func TestMockBureau_FixedReport(t *testing.T) {
	report, err := MockBureau{}.FetchReport(context.Background(), "ABCDE1234F")
	require.NoError(t, err)
	assert.Equal(t, 750, report.CreditScore)
	assert.Equal(t, "Good", report.CreditRating)
	assert.Equal(t, 5, report.TotalAccounts)
	assert.Equal(t, 3, report.ActiveAccounts)
	assert.Zero(t, report.OverdueAmount)
}

func TestHTTPBureau_FetchReport(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantScore int
		wantErr   bool
	}{
		{
			name:      "report parsed",
			status:    http.StatusOK,
			body:      `{"credit_score":801,"credit_rating":"Excellent","total_accounts":7,"active_accounts":2,"overdue_amount":0,"enquiries":1}`,
			wantScore: 801,
		},
		{
			name:    "missing score",
			status:  http.StatusOK,
			body:    `{"credit_rating":"Unknown"}`,
			wantErr: true,
		},
		{
			name:    "bureau error",
			status:  http.StatusServiceUnavailable,
			body:    `{"error":"maintenance"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/credit-report", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			bureau := NewHTTPBureau(httpclient.NewClient(server.URL, "bureau-key", 5*time.Second))
			report, err := bureau.FetchReport(context.Background(), "ABCDE1234F")

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, report.CreditScore)
			assert.Equal(t, 7, report.TotalAccounts)
			assert.Equal(t, 1.0, report.ReportData()["enquiries"])
		})
	}
}
