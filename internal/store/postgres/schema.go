package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		hashed_password TEXT NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		otp TEXT,
		otp_expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS guests (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		entry_sentence TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS conversation_turns (
		seq BIGINT GENERATED ALWAYS AS IDENTITY,
		id UUID PRIMARY KEY,
		actor_kind TEXT NOT NULL CHECK (actor_kind IN ('user', 'guest')),
		actor_id UUID NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
		content BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_turns_actor_seq ON conversation_turns (actor_kind, actor_id, seq DESC);`,
	`CREATE TABLE IF NOT EXISTS feedbacks (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE REFERENCES users (id),
		feedback TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS guest_feedbacks (
		id UUID PRIMARY KEY,
		guest_id UUID NOT NULL REFERENCES guests (id),
		rating INT NOT NULL DEFAULT 0,
		message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
}

// InitSchema creates the tables this service needs if they are missing.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}
