package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const createFeedback = `-- name: CreateFeedback :exec
INSERT INTO feedbacks (id, user_id, feedback) VALUES ($1, $2, $3)`

// CreateFeedback relies on the unique user_id constraint to reject a second submission.
func (s *PostgresStore) CreateFeedback(ctx context.Context, userID uuid.UUID, feedback string) error {
	if _, err := s.db.Exec(ctx, createFeedback, uuid.New(), userID, feedback); err != nil {
		return fmt.Errorf("database error creating feedback: %w", translateError(err))
	}
	return nil
}

const hasFeedback = `-- name: HasFeedback :one
SELECT EXISTS (SELECT 1 FROM feedbacks WHERE user_id = $1)`

func (s *PostgresStore) HasFeedback(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, hasFeedback, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("database error checking feedback: %w", err)
	}
	return exists, nil
}

const createGuestFeedback = `-- name: CreateGuestFeedback :exec
INSERT INTO guest_feedbacks (id, guest_id, rating, message) VALUES ($1, $2, $3, $4)`

func (s *PostgresStore) CreateGuestFeedback(ctx context.Context, guestID uuid.UUID, rating int, message string) error {
	if _, err := s.db.Exec(ctx, createGuestFeedback, uuid.New(), guestID, rating, message); err != nil {
		return fmt.Errorf("database error creating guest feedback: %w", translateError(err))
	}
	return nil
}

const hasGuestFeedback = `-- name: HasGuestFeedback :one
SELECT EXISTS (SELECT 1 FROM guest_feedbacks WHERE guest_id = $1)`

func (s *PostgresStore) HasGuestFeedback(ctx context.Context, guestID uuid.UUID) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, hasGuestFeedback, guestID).Scan(&exists); err != nil {
		return false, fmt.Errorf("database error checking guest feedback: %w", err)
	}
	return exists, nil
}
