package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoan() *models.LoanApplication {
	return &models.LoanApplication{
		ID:          "loan-001",
		UserID:      "user-001",
		Status:      models.StatusKYCInProgress,
		CurrentStep: models.StepKYC,
	}
}

type recordingSink struct {
	events []Event
	err    error
}

func (s *recordingSink) Record(ctx context.Context, e Event) error {
	s.events = append(s.events, e)
	return s.err
}

func TestStatusChanged(t *testing.T) {
	loan := testLoan()
	loan.Status = models.StatusRejected
	loan.WorkflowData = &models.WorkflowData{Error: "bureau down"}

	e := StatusChanged(loan, models.StatusCIBILChecking)

	assert.Equal(t, EventLoanStatusChanged, e.Type)
	assert.Equal(t, ResourceLoan, e.ResourceType)
	assert.Equal(t, "loan-001", e.ResourceID)
	assert.Equal(t, "cibil_checking", e.Details["from"])
	assert.Equal(t, "rejected", e.Details["to"])
	assert.Equal(t, "bureau down", e.Details["error"])
	assert.NotEmpty(t, e.ID)
}

func TestMulti_FailingSinkDoesNotStopOthers(t *testing.T) {
	broken := &recordingSink{err: errors.New("index unavailable")}
	healthy := &recordingSink{}

	multi := NewMulti(logger.NewTestLogger(t)).
		Add("elasticsearch", broken).
		Add("postgres", healthy)

	multi.Record(context.Background(), StatusChanged(testLoan(), models.StatusSubmitted))

	assert.Len(t, broken.events, 1)
	assert.Len(t, healthy.events, 1)
}

func TestPostgresSink_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e := StatusChanged(testLoan(), models.StatusSubmitted)
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(EventLoanStatusChanged, ResourceLoan, "loan-001", "user-001", sqlmock.AnyArg(), e.At).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewPostgresSink(db).Record(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newTestES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticsearchSink_Record(t *testing.T) {
	e := StatusChanged(testLoan(), models.StatusSubmitted)

	var indexed map[string]interface{}
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.True(t, strings.HasPrefix(r.URL.Path, "/loan-workflow-audit/_doc/"+e.ID))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&indexed))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	require.NoError(t, NewElasticsearchSink(client, "loan-workflow-audit").Record(context.Background(), e))
	assert.Equal(t, "loan-001", indexed["resource_id"])
	assert.Equal(t, EventLoanStatusChanged, indexed["event_type"])
}

func TestElasticsearchSink_ErrorStatus(t *testing.T) {
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"cluster_block_exception"}`))
	})

	err := NewElasticsearchSink(client, "loan-workflow-audit").Record(context.Background(), StatusChanged(testLoan(), models.StatusSubmitted))
	assert.ErrorContains(t, err, "503")
}
