package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mindfulchat-backend/internal/auth"
	"mindfulchat-backend/internal/config"
	"mindfulchat-backend/internal/models"
	"mindfulchat-backend/internal/store"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Mailer delivers one-time passwords.
type Mailer interface {
	SendOTP(ctx context.Context, to, name, otp string) error
}

type AuthService struct {
	store  store.UserStore
	mailer Mailer
	cfg    *config.Config
	now    func() time.Time
}

func NewAuthService(s store.UserStore, mailer Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		store:  s,
		mailer: mailer,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Register stores an unverified user and mails them a verification code.
// Registering again before verification replaces the pending account and
// sends a fresh code.
func (s *AuthService) Register(ctx context.Context, name, email, phone, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	switch {
	case name == "":
		return nil, invalid("name", "Name is required")
	case email == "":
		return nil, invalid("email", "Email is required")
	case password == "":
		return nil, invalid("password", "Password is required")
	}

	// Check if user already exists
	pending := false
	existing, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing.IsVerified:
		return nil, ErrUserAlreadyExists
	case err == nil:
		pending = true
	case !errors.Is(err, store.ErrNotFound):
		log.Printf("Error checking user existence for %s: %v", email, err)
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("Error hashing password for %s: %v", email, err)
		return nil, ErrHashingPassword
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		return nil, err
	}

	params := store.CreateUserParams{
		ID:             uuid.New(),
		Name:           name,
		Email:          email,
		Phone:          strings.TrimSpace(phone),
		HashedPassword: hashedPassword,
		OTP:            otp,
		OTPExpiresAt:   s.now().Add(s.cfg.OTPTTL),
	}
	var user *models.User
	if pending {
		user, err = s.store.ReissueUnverifiedUser(ctx, params)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserAlreadyExists // Verified in the meantime
		}
	} else {
		user, err = s.store.CreateUser(ctx, params)
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUserAlreadyExists // Lost a race with a concurrent signup
		}
	}
	if err != nil {
		log.Printf("Error storing user %s: %v", email, err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, user.Email, user.Name, otp); err != nil {
		log.Printf("Error sending OTP to %s: %v", user.Email, err)
		return nil, fmt.Errorf("%w: %w", ErrSendingMail, err)
	}

	if pending {
		log.Printf("Reissued OTP for pending user %s (ID: %s)", user.Email, user.ID)
	} else {
		log.Printf("Registered user %s (ID: %s), OTP sent", user.Email, user.ID)
	}
	return user, nil
}

// VerifyOTP marks the user verified when otp matches and has not expired.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	if user.OTP == nil || !auth.OTPMatches(*user.OTP, strings.TrimSpace(otp)) {
		return ErrInvalidOTP
	}
	if user.OTPExpiresAt == nil || s.now().After(*user.OTPExpiresAt) {
		return ErrOTPExpired
	}

	if err := s.store.MarkUserVerified(ctx, user.ID); err != nil {
		log.Printf("Error marking user %s verified: %v", user.ID, err)
		return fmt.Errorf("failed to verify user: %w", err)
	}
	log.Printf("Verified user %s (ID: %s)", user.Email, user.ID)
	return nil
}

// Login verifies user credentials and returns an access token and user info.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials // Basic check before hitting DB
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials // Don't reveal if user exists or password is wrong
		}
		log.Printf("Error retrieving user %s during login: %v", email, err)
		return "", nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.HashedPassword) {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", nil, ErrNotVerified
	}

	token, err := auth.NewAccessToken(user.ID, user.Email, s.cfg.JWTSecret, s.cfg.TokenExpiration)
	if err != nil {
		log.Printf("Error generating JWT for user %s (ID: %s): %v", email, user.ID, err)
		return "", nil, ErrCreatingToken
	}

	log.Printf("Successfully logged in user %s (ID: %s)", email, user.ID)
	return token, user, nil
}

// Me returns the profile of an authenticated user.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}
