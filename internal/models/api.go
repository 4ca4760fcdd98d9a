package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Auth Request Structs ---

// RegisterRequest defines the expected body for the register endpoint.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// VerifyOTPRequest defines the expected body for the verify-otp endpoint.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Auth Response Structs ---

// UserResponse defines the user information returned by the API.
// Avoid returning sensitive info like HashedPassword or the OTP.
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewUserResponse maps a db user to its API shape.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// --- Chat DTOs ---

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// TurnResponse is one entry of a chat history listing.
type TurnResponse struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatHistoryResponse lists turns newest first.
type ChatHistoryResponse struct {
	Turns []TurnResponse `json:"turns"`
}

// --- Guest DTOs ---

// StartGuestRequest accepts both snake_case and camelCase spellings sent by older clients.
type StartGuestRequest struct {
	GuestName          string `json:"guest_name"`
	Name               string `json:"name"`
	EntrySentence      string `json:"entry_sentence"`
	EntrySentenceCamel string `json:"entrySentence"`
}

// DisplayName returns whichever name field the client populated.
func (r StartGuestRequest) DisplayName() string {
	if r.GuestName != "" {
		return r.GuestName
	}
	return r.Name
}

// Entry returns whichever entry sentence field the client populated.
func (r StartGuestRequest) Entry() string {
	if r.EntrySentence != "" {
		return r.EntrySentence
	}
	return r.EntrySentenceCamel
}

// StartGuestResponse is returned once a guest session exists.
type StartGuestResponse struct {
	GuestID uuid.UUID `json:"guestId"`
	Name    string    `json:"name"`
}

// GuestChatRequest is the body of POST /api/guest/chat.
type GuestChatRequest struct {
	GuestID      string `json:"guestId"`
	GuestIDSnake string `json:"guest_id"`
	Message      string `json:"message"`
	Model        string `json:"model"`
}

// ID returns whichever guest id field the client populated.
func (r GuestChatRequest) ID() string {
	if r.GuestID != "" {
		return r.GuestID
	}
	return r.GuestIDSnake
}

// GuestFeedbackRequest is the body of POST /api/guest/feedback.
type GuestFeedbackRequest struct {
	GuestID      string `json:"guestId"`
	GuestIDSnake string `json:"guest_id"`
	Rating       int    `json:"rating"`
	Message      string `json:"message"`
}

// ID returns whichever guest id field the client populated.
func (r GuestFeedbackRequest) ID() string {
	if r.GuestID != "" {
		return r.GuestID
	}
	return r.GuestIDSnake
}

// --- Feedback DTOs ---

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// FeedbackStatusResponse reports whether feedback was already left.
type FeedbackStatusResponse struct {
	HasFeedback bool `json:"hasFeedback"`
}

// SuccessResponse is returned by write endpoints with no other payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}
