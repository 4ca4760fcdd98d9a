package handlers

import (
	"context"
	"errors"
	"net/http"

	"mindfulchat-backend/internal/auth"
	api_models "mindfulchat-backend/internal/models"
	db_models "mindfulchat-backend/internal/models"
	"mindfulchat-backend/internal/services"
	"mindfulchat-backend/pkg/httputil"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// AuthService defines the interface expected from the auth service.
// This promotes loose coupling and testability.
type AuthService interface {
	Register(ctx context.Context, name, email, phone, password string) (*db_models.User, error)
	VerifyOTP(ctx context.Context, email, otp string) error
	Login(ctx context.Context, email, password string) (string, *db_models.User, error)
	Me(ctx context.Context, userID uuid.UUID) (*db_models.User, error)
}

type AuthHandler struct {
	authService AuthService
}

func NewAuthHandler(authSvc AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authSvc,
	}
}

// HandleRegister handles the POST /api/auth/register request.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req api_models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		log.Printf("Register handler failed for email %s: %v", req.Email, err)
		var vErr *services.ValidationError
		switch {
		case errors.As(err, &vErr):
			httputil.RespondError(w, http.StatusBadRequest, vErr.Message) // 400
		case errors.Is(err, services.ErrUserAlreadyExists):
			httputil.RespondError(w, http.StatusConflict, "User already exists") // 409
		case errors.Is(err, services.ErrSendingMail):
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to send OTP email") // 500
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Registration failed due to an internal error") // 500
		}
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, api_models.MessageResponse{
		Message: "User registered. Please verify the OTP sent to " + user.Email,
	})
}

// HandleVerifyOTP handles the POST /api/auth/verify-otp request.
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req api_models.VerifyOTPRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Email == "" || req.OTP == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Email and OTP are required")
		return
	}

	if err := h.authService.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		log.Printf("Verify OTP handler failed for email %s: %v", req.Email, err)
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			httputil.RespondError(w, http.StatusBadRequest, "User not found")
		case errors.Is(err, services.ErrAlreadyVerified):
			httputil.RespondError(w, http.StatusBadRequest, "User already verified")
		case errors.Is(err, services.ErrInvalidOTP):
			httputil.RespondError(w, http.StatusBadRequest, "Invalid OTP")
		case errors.Is(err, services.ErrOTPExpired):
			httputil.RespondError(w, http.StatusBadRequest, "OTP expired")
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Verification failed due to an internal error")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, api_models.MessageResponse{Message: "Email verified successfully"})
}

// HandleLogin handles the POST /api/auth/login request.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req api_models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if req.Email == "" || req.Password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("Login handler failed for email %s: %v", req.Email, err)
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			httputil.RespondError(w, http.StatusUnauthorized, "Invalid credentials") // 401
		case errors.Is(err, services.ErrNotVerified):
			httputil.RespondError(w, http.StatusForbidden, "Please verify your email first") // 403
		case errors.Is(err, services.ErrCreatingToken):
			fallthrough // Treat token creation or other unexpected errors as internal
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Login failed due to an internal error") // 500
		}
		return
	}

	resp := api_models.AuthResponse{
		Token: token,
		User:  api_models.NewUserResponse(user),
	}
	httputil.RespondJSON(w, http.StatusOK, resp) // 200 OK
}

// HandleLogout handles POST /api/auth/logout. Tokens are stateless, so the
// client discards its copy.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, api_models.MessageResponse{Message: "Logged out successfully"})
}

// HandleMe handles GET /api/auth/me.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Me handler failed for user %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, api_models.NewUserResponse(user))
}
