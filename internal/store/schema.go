// Package store persists loan applications and their collaborator records in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"solar-loan-workers/internal/common/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	full_name  TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL,
	phone      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS loan_applications (
	id                    UUID PRIMARY KEY,
	user_id               UUID NOT NULL,
	annual_income         NUMERIC(14,2) NOT NULL DEFAULT 0,
	existing_loans        NUMERIC(14,2) NOT NULL DEFAULT 0,
	loan_amount           NUMERIC(14,2) NOT NULL,
	loan_tenure_years     INTEGER NOT NULL DEFAULT 0,
	interest_rate         NUMERIC(5,2),
	system_capacity_kw    NUMERIC(8,2) NOT NULL DEFAULT 0,
	roof_area_sqft        NUMERIC(10,2) NOT NULL DEFAULT 0,
	state                 TEXT NOT NULL DEFAULT '',
	system_type           TEXT NOT NULL DEFAULT 'residential',
	pan_number            TEXT NOT NULL DEFAULT '',
	status                TEXT NOT NULL DEFAULT 'draft',
	current_step          TEXT NOT NULL DEFAULT '',
	workflow_data         JSONB,
	ai_eligibility_score  NUMERIC(5,2),
	ai_eligibility_result JSONB,
	subsidy_amount        NUMERIC(14,2),
	emi_amount            NUMERIC(14,2),
	submitted_at          TIMESTAMPTZ,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_loan_applications_user ON loan_applications (user_id);
CREATE INDEX IF NOT EXISTS idx_loan_applications_status ON loan_applications (status, updated_at);

CREATE TABLE IF NOT EXISTS credit_checks (
	id                  UUID PRIMARY KEY,
	user_id             UUID NOT NULL,
	loan_application_id UUID,
	pan_number          TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL,
	credit_score        INTEGER,
	credit_rating       TEXT NOT NULL DEFAULT '',
	report_data         JSONB,
	job_id              TEXT NOT NULL DEFAULT '',
	error_message       TEXT NOT NULL DEFAULT '',
	completed_at        TIMESTAMPTZ,
	expires_at          TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_credit_checks_user ON credit_checks (user_id, status, expires_at);

CREATE TABLE IF NOT EXISTS kyc_records (
	id                  UUID PRIMARY KEY,
	user_id             UUID NOT NULL,
	loan_application_id UUID,
	kyc_type            TEXT NOT NULL,
	status              TEXT NOT NULL DEFAULT 'pending',
	verified_at         TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_kyc_records_loan ON kyc_records (user_id, loan_application_id);

CREATE TABLE IF NOT EXISTS ai_predictions (
	id                  UUID PRIMARY KEY,
	loan_application_id UUID NOT NULL,
	user_id             UUID,
	prediction_type     TEXT NOT NULL,
	model_name          TEXT NOT NULL,
	model_version       TEXT NOT NULL,
	input_features      JSONB NOT NULL,
	prediction_result   JSONB NOT NULL,
	confidence_score    NUMERIC(5,2),
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS audit_log (
	id            BIGSERIAL PRIMARY KEY,
	event_type    TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id   TEXT NOT NULL,
	user_id       UUID,
	details       JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the tables and indexes when they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return database.WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		return nil
	})
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// jsonParam passes encoded JSON as text, or NULL when empty.
func jsonParam(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
