package postgres

import (
	"context"
	"fmt"
	"math"

	db_models "mindfulchat-backend/internal/models"
	"mindfulchat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// seq breaks ties between turns written in the same transaction.
const fetchRecentTurns = `-- name: FetchRecentTurns :many
SELECT id, actor_kind, actor_id, role, content, created_at
FROM conversation_turns
WHERE actor_kind = $1 AND actor_id = $2
ORDER BY seq DESC
LIMIT $3`

// FetchRecentTurns returns up to limit turns for actor, newest first. limit <= 0 returns all.
func (s *PostgresStore) FetchRecentTurns(ctx context.Context, actor db_models.Actor, limit int) ([]db_models.ConversationTurn, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	rows, err := s.db.Query(ctx, fetchRecentTurns, string(actor.Kind), actor.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying conversation turns: %w", err)
	}
	defer rows.Close()

	var items []db_models.ConversationTurn
	for rows.Next() {
		var (
			t       db_models.ConversationTurn
			kind    string
			role    string
			content []byte
		)
		if err := rows.Scan(&t.ID, &kind, &t.ActorID, &role, &content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning conversation turn row: %w", err)
		}
		t.ActorKind = db_models.ActorKind(kind)
		t.Role = db_models.Role(role)
		if t.Content, err = s.sealer.Open(content); err != nil {
			return nil, fmt.Errorf("error opening conversation turn %s: %w", t.ID, err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation turn rows: %w", err)
	}
	return items, nil
}

const appendTurn = `-- name: AppendTurn :exec
INSERT INTO conversation_turns (id, actor_kind, actor_id, role, content)
VALUES ($1, $2, $3, $4, $5)`

// AppendTurns inserts every turn in one transaction so a reply is never stored without its message.
func (s *PostgresStore) AppendTurns(ctx context.Context, actor db_models.Actor, turns []store.NewTurn) error {
	sealed := make([][]byte, len(turns))
	for i, t := range turns {
		b, err := s.sealer.Seal(t.Content)
		if err != nil {
			return fmt.Errorf("error sealing conversation turn: %w", err)
		}
		sealed[i] = b
	}

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for i, t := range turns {
			if _, err := tx.Exec(ctx, appendTurn, uuid.New(), string(actor.Kind), actor.ID, string(t.Role), sealed[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error appending conversation turns for %s: %w", actor, err)
	}
	return nil
}
