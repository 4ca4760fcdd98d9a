package store

import (
	"context"
	"errors"
	"time"

	db_models "mindfulchat-backend/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("record already exists")
)

// CreateUserParams contains parameters for registering an unverified user.
type CreateUserParams struct {
	ID             uuid.UUID
	Name           string
	Email          string
	Phone          string
	HashedPassword string
	OTP            string
	OTPExpiresAt   time.Time
}

// NewTurn is one half of an exchange to be appended.
type NewTurn struct {
	Role    db_models.Role
	Content string
}

// UserStore persists registered accounts.
type UserStore interface {
	CreateUser(ctx context.Context, arg CreateUserParams) (*db_models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db_models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*db_models.User, error)
	MarkUserVerified(ctx context.Context, id uuid.UUID) error
	// ReissueUnverifiedUser replaces the profile, password and OTP of the
	// unverified user with arg.Email. ErrNotFound if no such user is pending.
	ReissueUnverifiedUser(ctx context.Context, arg CreateUserParams) (*db_models.User, error)
}

// GuestStore persists guest sessions.
type GuestStore interface {
	CreateGuest(ctx context.Context, name, entrySentence string) (*db_models.Guest, error)
	GetGuestByID(ctx context.Context, id uuid.UUID) (*db_models.Guest, error)
}

// TurnStore persists conversation turns. Turns are never updated or deleted.
type TurnStore interface {
	// FetchRecentTurns returns at most limit turns for actor, newest first.
	FetchRecentTurns(ctx context.Context, actor db_models.Actor, limit int) ([]db_models.ConversationTurn, error)
	// AppendTurns writes all turns for actor atomically, in slice order.
	AppendTurns(ctx context.Context, actor db_models.Actor, turns []NewTurn) error
}

// FeedbackStore persists user and guest feedback.
type FeedbackStore interface {
	// CreateFeedback returns ErrConflict when the user already left feedback.
	CreateFeedback(ctx context.Context, userID uuid.UUID, feedback string) error
	HasFeedback(ctx context.Context, userID uuid.UUID) (bool, error)
	CreateGuestFeedback(ctx context.Context, guestID uuid.UUID, rating int, message string) error
	HasGuestFeedback(ctx context.Context, guestID uuid.UUID) (bool, error)
}

// Store defines the interface for database operations.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	UserStore
	GuestStore
	TurnStore
	FeedbackStore
	Close()
}
