package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User represents a registered account in the database.
type User struct {
	ID             uuid.UUID  `db:"id"`
	Name           string     `db:"name"`
	Email          string     `db:"email"`
	Phone          string     `db:"phone"`
	HashedPassword string     `db:"hashed_password"`
	IsVerified     bool       `db:"is_verified"`
	OTP            *string    `db:"otp"`            // Nil once verified
	OTPExpiresAt   *time.Time `db:"otp_expires_at"` // Nil once verified
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Guest represents an unauthenticated chat session.
type Guest struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	EntrySentence string    `db:"entry_sentence"`
	CreatedAt     time.Time `db:"created_at"`
}

// ActorKind distinguishes registered users from guest sessions.
type ActorKind string

const (
	ActorUser  ActorKind = "user"
	ActorGuest ActorKind = "guest"
)

// Actor identifies who a conversation turn belongs to.
type Actor struct {
	Kind ActorKind
	ID   uuid.UUID
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%s", a.Kind, a.ID)
}

// Role is the speaker of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one persisted half of an exchange. Turns are append-only.
type ConversationTurn struct {
	ID        uuid.UUID `db:"id"`
	ActorKind ActorKind `db:"actor_kind"`
	ActorID   uuid.UUID `db:"actor_id"`
	Role      Role      `db:"role"`
	Content   string    `db:"content"` // Plaintext; sealing happens inside the store
	CreatedAt time.Time `db:"created_at"`
}

// Feedback is the single free-text feedback a registered user may leave.
type Feedback struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Feedback  string    `db:"feedback"`
	CreatedAt time.Time `db:"created_at"`
}

// GuestFeedback is a rating plus optional message left by a guest.
type GuestFeedback struct {
	ID        uuid.UUID `db:"id"`
	GuestID   uuid.UUID `db:"guest_id"`
	Rating    int       `db:"rating"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}
