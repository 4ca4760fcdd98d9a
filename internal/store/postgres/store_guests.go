package postgres

import (
	"context"
	"errors"
	"fmt"

	db_models "mindfulchat-backend/internal/models"
	"mindfulchat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const createGuest = `-- name: CreateGuest :one
INSERT INTO guests (id, name, entry_sentence)
VALUES ($1, $2, $3)
RETURNING id, name, entry_sentence, created_at`

func (s *PostgresStore) CreateGuest(ctx context.Context, name, entrySentence string) (*db_models.Guest, error) {
	g := &db_models.Guest{}
	err := s.db.QueryRow(ctx, createGuest, uuid.New(), name, entrySentence).Scan(
		&g.ID,
		&g.Name,
		&g.EntrySentence,
		&g.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("database error creating guest: %w", err)
	}
	return g, nil
}

const getGuestByID = `-- name: GetGuestByID :one
SELECT id, name, entry_sentence, created_at FROM guests WHERE id = $1`

func (s *PostgresStore) GetGuestByID(ctx context.Context, id uuid.UUID) (*db_models.Guest, error) {
	g := &db_models.Guest{}
	err := s.db.QueryRow(ctx, getGuestByID, id).Scan(
		&g.ID,
		&g.Name,
		&g.EntrySentence,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching guest: %w", err)
	}
	return g, nil
}
