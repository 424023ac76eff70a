package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"solar-loan-workers/internal/audit"
	"solar-loan-workers/internal/models"
)

// ==========================
// Loan repository
// ==========================

type memLoans struct {
	mu      sync.Mutex
	loans   map[string]*models.LoanApplication
	history []models.LoanStatus
	failOn  models.LoanStatus
	marks   int
	onMark  func(stored *models.LoanApplication)
}

func newMemLoans(loans ...*models.LoanApplication) *memLoans {
	m := &memLoans{loans: make(map[string]*models.LoanApplication)}
	for _, l := range loans {
		cp := *l
		m.loans[l.ID] = &cp
	}
	return m
}

func (m *memLoans) Get(ctx context.Context, id string) (*models.LoanApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrLoanNotFound, id)
	}
	cp := *l
	return &cp, nil
}

func (m *memLoans) MarkSubmitted(ctx context.Context, loan *models.LoanApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks++
	stored := m.loans[loan.ID]
	if m.onMark != nil {
		m.onMark(stored)
	}
	if stored.Status != models.StatusDraft {
		return fmt.Errorf("%w: %s", models.ErrLoanNotDraft, loan.ID)
	}
	now := time.Now().UTC()
	stored.Status = models.StatusSubmitted
	stored.CurrentStep = models.StepKYC
	stored.SubmittedAt = &now

	loan.Status = stored.Status
	loan.CurrentStep = stored.CurrentStep
	loan.SubmittedAt = &now
	return nil
}

func (m *memLoans) SaveProgress(ctx context.Context, loan *models.LoanApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && loan.Status == m.failOn {
		return errors.New("connection reset")
	}
	m.history = append(m.history, loan.Status)
	cp := *loan
	m.loans[loan.ID] = &cp
	return nil
}

func (m *memLoans) stored(id string) *models.LoanApplication {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loans[id]
}

// ==========================
// Collaborators
// ==========================

type fakeKYC struct {
	calls int
	err   error
	block bool
	after func()
}

func (f *fakeKYC) RunChecks(ctx context.Context, userID, loanID string) (*models.KYCSummary, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.after != nil {
		defer f.after()
	}
	return &models.KYCSummary{
		TotalChecks:   2,
		VerifiedCount: 2,
		Records: []models.KYCCheck{
			{Type: "pan", Status: models.KYCVerified},
			{Type: "aadhaar", Status: models.KYCVerified},
		},
	}, nil
}

type fakeCredit struct {
	calls int
	err   error
}

func (f *fakeCredit) Fetch(ctx context.Context, userID, loanID, pan string) (*models.CreditCheck, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	score := 750
	expires := time.Now().Add(30 * 24 * time.Hour)
	return &models.CreditCheck{
		ID:           "cc-fresh",
		UserID:       userID,
		Status:       models.CreditCheckCompleted,
		CreditScore:  &score,
		CreditRating: "Good",
		JobID:        "CIBIL_cc-fresh",
		ExpiresAt:    &expires,
	}, nil
}

type fakeFinder struct {
	calls int
	check *models.CreditCheck
}

func (f *fakeFinder) FindValid(ctx context.Context, userID string, now time.Time) (*models.CreditCheck, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.check, nil
}

type fakeScorer struct {
	calls int
	err   error
}

func (f *fakeScorer) Score(ctx context.Context, loanID string, features models.EligibilityFeatures) (*models.EligibilityResult, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.EligibilityResult{
		EligibilityScore: 75,
		IsEligible:       true,
		Reasons:          []string{"Income sufficient", "Good credit history"},
		Confidence:       75,
		ModelVersion:     "mock-v1",
	}, nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Record(ctx context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}
