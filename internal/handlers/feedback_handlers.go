package handlers

import (
	"context"
	"errors"
	"net/http"

	"mindfulchat-backend/internal/auth"
	"mindfulchat-backend/internal/models"
	"mindfulchat-backend/internal/services"
	"mindfulchat-backend/pkg/httputil"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type FeedbackService interface {
	Submit(ctx context.Context, userID uuid.UUID, feedback string) error
	HasFeedback(ctx context.Context, userID uuid.UUID) (bool, error)
}

type FeedbackHandlers struct {
	feedback FeedbackService
}

func NewFeedbackHandlers(feedback FeedbackService) *FeedbackHandlers {
	return &FeedbackHandlers{feedback: feedback}
}

// HandleSubmit handles POST /api/feedback.
func (h *FeedbackHandlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.FeedbackRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.feedback.Submit(r.Context(), userID, req.Feedback); err != nil {
		switch {
		case errors.Is(err, services.ErrFeedbackTooShort):
			httputil.RespondError(w, http.StatusBadRequest, "Feedback must be at least 3 characters")
		case errors.Is(err, services.ErrFeedbackExists):
			httputil.RespondError(w, http.StatusConflict, "Feedback already submitted")
		default:
			log.Printf("Feedback handler failed for user %s: %v", userID, err)
			httputil.RespondError(w, http.StatusInternalServerError, msgGeneric)
		}
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, models.SuccessResponse{Success: true})
}

// HandleStatus handles GET /api/feedback.
func (h *FeedbackHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	has, err := h.feedback.HasFeedback(r.Context(), userID)
	if err != nil {
		log.Printf("Feedback status handler failed for user %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, msgGeneric)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.FeedbackStatusResponse{HasFeedback: has})
}
