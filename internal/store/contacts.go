package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"solar-loan-workers/internal/models"
)

// ContactStore looks up borrower delivery details in users.
type ContactStore struct {
	db *sql.DB
}

func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

func (s *ContactStore) GetContact(ctx context.Context, userID string) (*models.Contact, error) {
	var (
		c     models.Contact
		phone sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, phone FROM users WHERE id = $1`, userID).
		Scan(&c.UserID, &c.FullName, &c.Email, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrContactNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get contact %s: %w", userID, err)
	}
	c.Phone = phone.String
	return &c, nil
}
