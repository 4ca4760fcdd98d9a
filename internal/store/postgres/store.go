package postgres

import (
	"context"
	"errors"
	"fmt"

	"mindfulchat-backend/internal/crypto"
	db_models "mindfulchat-backend/internal/models"
	"mindfulchat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

const uniqueViolation = "23505"

type PostgresStore struct {
	db     *pgxpool.Pool
	sealer *crypto.Sealer
}

// NewPostgresStore wraps an open pool. A nil sealer stores turn content unencrypted.
func NewPostgresStore(db *pgxpool.Pool, sealer *crypto.Sealer) *PostgresStore {
	if sealer == nil {
		sealer = &crypto.Sealer{}
	}
	return &PostgresStore{db: db, sealer: sealer}
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// translateError maps driver errors onto store sentinels.
func translateError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// --- User Methods ---

const userColumns = `id, name, email, phone, hashed_password, is_verified, otp, otp_expires_at, created_at, updated_at`

const createUser = `-- name: CreateUser :one
INSERT INTO users (id, name, email, phone, hashed_password, otp, otp_expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

func scanUser(row pgx.Row) (*db_models.User, error) {
	u := &db_models.User{}
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.HashedPassword,
		&u.IsVerified,
		&u.OTP,
		&u.OTPExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser inserts a new unverified user. Returns store.ErrConflict on a duplicate email.
func (s *PostgresStore) CreateUser(ctx context.Context, arg store.CreateUserParams) (*db_models.User, error) {
	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	user, err := scanUser(s.db.QueryRow(ctx, createUser,
		id,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.HashedPassword,
		arg.OTP,
		arg.OTPExpiresAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			log.Printf("ERROR [PostgresStore] CreateUser: PostgreSQL error for email %s: Code=%s, Message=%s, Detail=%s", arg.Email, pgErr.Code, pgErr.Message, pgErr.Detail)
		}
		return nil, fmt.Errorf("database error creating user: %w", translateError(err))
	}

	log.Printf("[PostgresStore] CreateUser: Successfully inserted user ID %s", user.ID)
	return user, nil
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE email = $1`

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*db_models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, getUserByEmail, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetUserByEmail: Failed to query/scan user: %v", err)
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*db_models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, getUserByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching user by id: %w", err)
	}
	return user, nil
}

const markUserVerified = `-- name: MarkUserVerified :exec
UPDATE users
SET is_verified = TRUE, otp = NULL, otp_expires_at = NULL, updated_at = NOW()
WHERE id = $1`

func (s *PostgresStore) MarkUserVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, markUserVerified, id)
	if err != nil {
		return fmt.Errorf("error executing mark user verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const reissueUnverifiedUser = `-- name: ReissueUnverifiedUser :one
UPDATE users
SET name = $2, phone = $3, hashed_password = $4, otp = $5, otp_expires_at = $6, updated_at = NOW()
WHERE email = $1 AND is_verified = FALSE
RETURNING ` + userColumns

// ReissueUnverifiedUser overwrites a pending registration. Verified rows are
// never touched and report store.ErrNotFound.
func (s *PostgresStore) ReissueUnverifiedUser(ctx context.Context, arg store.CreateUserParams) (*db_models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, reissueUnverifiedUser,
		arg.Email,
		arg.Name,
		arg.Phone,
		arg.HashedPassword,
		arg.OTP,
		arg.OTPExpiresAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error reissuing user: %w", err)
	}
	log.Printf("[PostgresStore] ReissueUnverifiedUser: Reissued OTP for user ID %s", user.ID)
	return user, nil
}
